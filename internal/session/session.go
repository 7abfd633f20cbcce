package session

import (
	"time"

	"github.com/prepview/prepview/internal/models"
	"github.com/prepview/prepview/internal/scoring"
)

// Config is the immutable configuration fixed at session creation.
type Config struct {
	Topic             string
	TopicName         string
	CompanyStyle      string
	CompanyName       string
	Difficulty        string
	DurationMinutes   int
	EnableTTS         bool
	HasResume         bool
	HasJobDescription bool
}

// Session is one active interview. The in-memory copy is authoritative
// until the session ends; the durable record is a mirror. All access
// goes through the Store, which serializes per session id.
type Session struct {
	ID           string
	Config       Config
	SystemPrompt string

	// History is append-only; insertion order is the conversation order
	// and is replayed verbatim to the model.
	History []models.Message

	Tracker       scoring.Tracker
	QuestionCount int

	UserID *string // nil = guest

	StartedAt    time.Time
	LastActivity time.Time
}

func (s *Session) Owned() bool { return s.UserID != nil }

func (s *Session) ElapsedSeconds(now time.Time) int64 {
	d := int64(now.Sub(s.StartedAt).Seconds())
	if d < 0 {
		d = 0
	}
	return d
}

func (s *Session) RemainingSeconds(now time.Time) int64 {
	remaining := int64(s.Config.DurationMinutes)*60 - s.ElapsedSeconds(now)
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// Snapshot copies the mutable state into a durable record shape. Caller
// must hold the session's lock (i.e. call from inside Store.With).
func (s *Session) Snapshot(status string, now time.Time) *models.InterviewRecord {
	transcript := make([]models.Message, len(s.History))
	copy(transcript, s.History)

	rec := &models.InterviewRecord{
		SessionID:         s.ID,
		UserID:            s.UserID,
		Topic:             s.Config.Topic,
		TopicName:         s.Config.TopicName,
		CompanyStyle:      s.Config.CompanyStyle,
		CompanyName:       s.Config.CompanyName,
		Difficulty:        s.Config.Difficulty,
		DurationMinutes:   s.Config.DurationMinutes,
		QuestionCount:     s.QuestionCount,
		Scores:            s.Tracker.Scores(),
		Transcript:        transcript,
		HasResume:         s.Config.HasResume,
		HasJobDescription: s.Config.HasJobDescription,
		StartedAt:         s.StartedAt,
		Status:            status,
	}
	if avg, ok := s.Tracker.Average(); ok {
		rec.AverageScore = &avg
	}
	if status != models.InterviewStatusActive {
		ended := now.UTC()
		rec.EndedAt = &ended
		rec.DurationSeconds = s.ElapsedSeconds(now)
	}
	return rec
}
