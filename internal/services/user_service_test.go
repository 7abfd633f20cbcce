package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepview/prepview/internal/models"
	"github.com/prepview/prepview/internal/utils"
)

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return utils.E(utils.CodeConflict, "fake.Create", "duplicate", nil)
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, id string, fullName, email *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return utils.ErrNotFound
	}
	if fullName != nil {
		u.FullName = *fullName
	}
	if email != nil {
		u.Email = *email
	}
	return nil
}

func (r *fakeUserRepo) SetPassword(_ context.Context, id, hashed string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return utils.ErrNotFound
	}
	u.HashedPassword = hashed
	return nil
}

func (r *fakeUserRepo) SetSettings(_ context.Context, id string, s models.UserSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return utils.ErrNotFound
	}
	u.Settings = s
	return nil
}

func (r *fakeUserRepo) SetXP(_ context.Context, id string, xp models.XPData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return utils.ErrNotFound
	}
	u.XP = xp
	return nil
}

func (r *fakeUserRepo) AddAchievement(_ context.Context, id, achievementID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return utils.ErrNotFound
	}
	for _, a := range u.Achievements {
		if a.AchievementID == achievementID {
			return nil
		}
	}
	u.Achievements = append(u.Achievements, models.UnlockedAchievement{AchievementID: achievementID, UnlockedAt: at})
	return nil
}

func (r *fakeUserRepo) Count(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.users)), nil
}

func seedUser(t *testing.T, repo *fakeUserRepo, id string) *models.User {
	t.Helper()
	u := &models.User{
		ID:       id,
		Email:    id + "@example.com",
		Username: id,
		IsActive: true,
		Settings: models.DefaultSettings(),
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestLevelForXP(t *testing.T) {
	tests := []struct {
		xp        int
		wantLevel int
	}{
		{0, 1},
		{99, 1},
		{100, 2},   // level 2 at 100
		{219, 2},   // level 3 needs another 120
		{220, 3},
		{220 + 144, 4},
	}
	for _, tt := range tests {
		info := LevelForXP(tt.xp)
		assert.Equal(t, tt.wantLevel, info.Level, "xp=%d", tt.xp)
		assert.GreaterOrEqual(t, info.XPIntoLevel, 0)
		assert.Less(t, info.XPIntoLevel, info.XPForNextLevel)
	}
}

func TestCompleteInterviewAwardsXP(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, newFakeInterviewRepo())
	ctx := context.Background()
	seedUser(t, repo, "u1")

	avg := 9.0
	award, err := svc.CompleteInterview(ctx, "u1", CompletionSummary{
		Topic:         "dsa",
		Difficulty:    "hard",
		Scores:        []int{8, 10},
		AverageScore:  &avg,
		QuestionCount: 3,
	})
	require.NoError(t, err)

	// (8+10)*10 + 3*5 = 195, times the hard multiplier 1.5
	assert.Equal(t, 292, award.XPEarned)
	assert.Equal(t, 1, award.CurrentStreak)

	// first_interview (+50) and perfect_10 (+100) unlock immediately
	ids := make([]string, 0, len(award.NewAchievements))
	for _, a := range award.NewAchievements {
		ids = append(ids, a.ID)
	}
	assert.Contains(t, ids, "first_interview")
	assert.Contains(t, ids, "perfect_10")
	assert.Equal(t, 292+50+100, award.TotalXP)
	assert.True(t, award.LeveledUp)

	u, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, u.XP.TotalInterviews)
	assert.Equal(t, 3, u.XP.TotalQuestions)
	assert.Equal(t, 1, u.XP.PerfectScores)
	assert.Equal(t, 9.0, u.XP.AverageScore)
	assert.Equal(t, []string{"dsa"}, u.XP.TopicsPracticed)
}

func TestCompleteInterviewRunningAverage(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, newFakeInterviewRepo())
	ctx := context.Background()
	seedUser(t, repo, "u1")

	first, second := 6.0, 9.0
	_, err := svc.CompleteInterview(ctx, "u1", CompletionSummary{AverageScore: &first, QuestionCount: 2})
	require.NoError(t, err)
	_, err = svc.CompleteInterview(ctx, "u1", CompletionSummary{AverageScore: &second, QuestionCount: 2})
	require.NoError(t, err)

	u, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 7.5, u.XP.AverageScore)
	assert.Equal(t, 2, u.XP.TotalInterviews)
}

func TestUpdateStreak(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	t.Run("first activity", func(t *testing.T) {
		xp := models.XPData{}
		updateStreak(&xp, now)
		assert.Equal(t, 1, xp.CurrentStreak)
		assert.Equal(t, 1, xp.LongestStreak)
	})

	t.Run("next day extends", func(t *testing.T) {
		yesterday := now.Add(-24 * time.Hour)
		xp := models.XPData{CurrentStreak: 4, LongestStreak: 4, LastActivity: &yesterday}
		updateStreak(&xp, now)
		assert.Equal(t, 5, xp.CurrentStreak)
		assert.Equal(t, 5, xp.LongestStreak)
	})

	t.Run("same day keeps", func(t *testing.T) {
		earlier := now.Add(-2 * time.Hour)
		xp := models.XPData{CurrentStreak: 4, LongestStreak: 6, LastActivity: &earlier}
		updateStreak(&xp, now)
		assert.Equal(t, 4, xp.CurrentStreak)
		assert.Equal(t, 6, xp.LongestStreak)
	})

	t.Run("gap resets", func(t *testing.T) {
		lastWeek := now.Add(-7 * 24 * time.Hour)
		xp := models.XPData{CurrentStreak: 9, LongestStreak: 9, LastActivity: &lastWeek}
		updateStreak(&xp, now)
		assert.Equal(t, 1, xp.CurrentStreak)
		assert.Equal(t, 9, xp.LongestStreak)
	})
}

func TestAchievementThresholds(t *testing.T) {
	tests := []struct {
		id   string
		xp   models.XPData
		want bool
	}{
		{"first_interview", models.XPData{TotalInterviews: 1}, true},
		{"first_interview", models.XPData{}, false},
		{"streak_7", models.XPData{CurrentStreak: 7}, true},
		{"streak_7", models.XPData{CurrentStreak: 6}, false},
		{"questions_100", models.XPData{TotalQuestions: 100}, true},
		{"avg_8_plus", models.XPData{TotalInterviews: 3, AverageScore: 8.2}, true},
		{"avg_8_plus", models.XPData{TotalInterviews: 1, AverageScore: 9.0}, false},
		{"all_topics", models.XPData{TopicsPracticed: []string{"backend", "behavioral", "dsa", "frontend", "general", "system_design"}}, true},
		{"all_topics", models.XPData{TopicsPracticed: []string{"dsa"}}, false},
		{"unknown_id", models.XPData{TotalInterviews: 100}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, achievementEarned(tt.id, tt.xp), "%s %+v", tt.id, tt.xp)
	}
}

func TestSyncXPMergesByMax(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, newFakeInterviewRepo())
	ctx := context.Background()
	u := seedUser(t, repo, "u1")

	serverLast := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	u.XP = models.XPData{TotalXP: 500, TotalInterviews: 5, CurrentStreak: 2, LongestStreak: 4, LastActivity: &serverLast, TopicsPracticed: []string{"dsa"}}
	require.NoError(t, repo.SetXP(ctx, "u1", u.XP))

	clientLast := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	merged, err := svc.SyncXP(ctx, "u1", models.XPData{
		TotalXP:         450,
		TotalInterviews: 6,
		CurrentStreak:   3,
		LongestStreak:   3,
		LastActivity:    &clientLast,
		TopicsPracticed: []string{"backend"},
	})
	require.NoError(t, err)

	assert.Equal(t, 500, merged.TotalXP)
	assert.Equal(t, 6, merged.TotalInterviews)
	assert.Equal(t, 3, merged.CurrentStreak)
	assert.Equal(t, 4, merged.LongestStreak)
	assert.Equal(t, clientLast, *merged.LastActivity)
	assert.Equal(t, []string{"backend", "dsa"}, merged.TopicsPracticed)
}

func TestUpdateSettingsCoercesInvalidValues(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewUserService(repo, newFakeInterviewRepo())
	ctx := context.Background()
	seedUser(t, repo, "u1")

	s, err := svc.UpdateSettings(ctx, "u1", models.UserSettings{
		PreferredTopic:      "quantum_basket_weaving",
		PreferredCompany:    "enron",
		PreferredDifficulty: "impossible",
		PreferredDuration:   500,
		Theme:               "neon",
	})
	require.NoError(t, err)

	assert.Equal(t, "general", s.PreferredTopic)
	assert.Equal(t, "default", s.PreferredCompany)
	assert.Equal(t, "medium", s.PreferredDifficulty)
	assert.Equal(t, 30, s.PreferredDuration)
	assert.Equal(t, "dark", s.Theme)
}

func TestHistoryDetailHidesOtherUsers(t *testing.T) {
	userRepo := newFakeUserRepo()
	ivRepo := newFakeInterviewRepo()
	svc := NewUserService(userRepo, ivRepo)
	ctx := context.Background()

	owner := "owner"
	rec := &models.InterviewRecord{SessionID: "s1", UserID: &owner, Status: models.InterviewStatusCompleted}
	require.NoError(t, ivRepo.Create(ctx, rec))

	stored, err := ivRepo.GetBySessionID(ctx, "s1")
	require.NoError(t, err)

	_, err = svc.HistoryDetail(ctx, "someone-else", stored.ID.Hex())
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}
