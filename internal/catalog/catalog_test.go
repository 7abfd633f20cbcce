package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLenientLookups(t *testing.T) {
	assert.Equal(t, "dsa", TopicOrDefault("dsa").ID)
	assert.Equal(t, DefaultTopicID, TopicOrDefault("nope").ID)
	assert.Equal(t, DefaultTopicID, TopicOrDefault("").ID)

	assert.Equal(t, "google", CompanyOrDefault("google").ID)
	assert.Equal(t, DefaultCompanyID, CompanyOrDefault("nope").ID)

	assert.Equal(t, "hard", DifficultyOrDefault("hard").ID)
	assert.Equal(t, DefaultDifficultyID, DifficultyOrDefault("nope").ID)
}

func TestCatalogCompleteness(t *testing.T) {
	assert.Len(t, Topics(), 6)
	assert.Len(t, Companies(), 6)
	assert.Len(t, Difficulties(), 3)
	assert.Len(t, Achievements, 12)

	for _, topic := range Topics() {
		assert.NotEmpty(t, topic.Name, topic.ID)
		assert.NotEmpty(t, topic.SystemPrompt, topic.ID)
	}
	for _, d := range Difficulties() {
		assert.Greater(t, d.XPMultiplier, 0.0, d.ID)
	}
	for _, a := range Achievements {
		assert.NotEmpty(t, a.Name, a.ID)
		assert.Greater(t, a.XPReward, 0, a.ID)
	}
}

func TestDifficultyMultipliersOrdered(t *testing.T) {
	easy := DifficultyOrDefault("easy").XPMultiplier
	medium := DifficultyOrDefault("medium").XPMultiplier
	hard := DifficultyOrDefault("hard").XPMultiplier

	assert.Equal(t, 1.0, easy)
	assert.Less(t, easy, medium)
	assert.Less(t, medium, hard)
}

func TestOpeningPersonalization(t *testing.T) {
	msg := Opening("dsa", "Ada", "Google")
	assert.Contains(t, msg, "Ada")
	assert.Contains(t, msg, "Google")
	assert.Contains(t, msg, "hash table")

	// unknown topic falls through to the general opening
	msg = Opening("nope", "there", "Standard")
	require.True(t, strings.Contains(msg, "recent project"))
}

func TestAchievementByID(t *testing.T) {
	a, ok := AchievementByID("perfect_10")
	require.True(t, ok)
	assert.Equal(t, "Perfect 10", a.Name)

	_, ok = AchievementByID("nope")
	assert.False(t, ok)
}
