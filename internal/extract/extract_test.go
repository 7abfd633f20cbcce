package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name        string
		reply       string
		wantScore   int
		wantDisplay string
		wantOK      bool
	}{
		{
			name:        "trailing marker",
			reply:       "Good answer, tell me more about indexing. [SCORE: 8/10]",
			wantScore:   8,
			wantDisplay: "Good answer, tell me more about indexing.",
			wantOK:      true,
		},
		{
			name:        "marker with extra whitespace",
			reply:       "Solid. [SCORE:  10/10]",
			wantScore:   10,
			wantDisplay: "Solid.",
			wantOK:      true,
		},
		{
			name:        "no marker",
			reply:       "Tell me about yourself.",
			wantScore:   0,
			wantDisplay: "Tell me about yourself.",
			wantOK:      false,
		},
		{
			name:        "marker mid-reply is stripped",
			reply:       "Nice. [SCORE: 6/10] Next question: what is a mutex?",
			wantScore:   6,
			wantDisplay: "Nice. Next question: what is a mutex?",
			wantOK:      true,
		},
		{
			name:        "malformed marker ignored",
			reply:       "Okay. [SCORE: eight/10]",
			wantScore:   0,
			wantDisplay: "Okay. [SCORE: eight/10]",
			wantOK:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, display, ok := Score(tt.reply)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantScore, score)
			assert.Equal(t, tt.wantDisplay, display)
		})
	}
}

func TestResumeName(t *testing.T) {
	name, ok := ResumeName("NAME: Ada Lovelace\nCURRENT_ROLE: Engineer")
	assert.True(t, ok)
	assert.Equal(t, "Ada Lovelace", name)

	_, ok = ResumeName("just some resume text")
	assert.False(t, ok)

	_, ok = ResumeName("NAME:   \nrest")
	assert.False(t, ok)
}

func TestResumeRole(t *testing.T) {
	role, ok := ResumeRole("NAME: Ada\nCURRENT_ROLE: Staff Engineer\n")
	assert.True(t, ok)
	assert.Equal(t, "Staff Engineer", role)

	_, ok = ResumeRole("NAME: Ada")
	assert.False(t, ok)
}
