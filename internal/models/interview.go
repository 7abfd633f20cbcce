package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is one turn of the interview transcript. Order is the
// conversation order and is replayed verbatim to the model.
type Message struct {
	Role    string `bson:"role" json:"role"` // "user" | "assistant"
	Content string `bson:"content" json:"content"`
}

// InterviewRecord is the durable copy of a session. While the session is
// active the in-memory copy is authoritative; this document is a
// write-through mirror (owned sessions) or an end-of-session snapshot
// (guest sessions, claimable later via a nil UserID).
type InterviewRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID string             `bson:"session_id" json:"session_id"` // uuid v4
	UserID    *string            `bson:"user_id" json:"user_id"`       // nil = guest

	Topic        string `bson:"topic" json:"topic"`
	TopicName    string `bson:"topic_name" json:"topic_name"`
	CompanyStyle string `bson:"company_style" json:"company_style"`
	CompanyName  string `bson:"company_name" json:"company_name"`
	Difficulty   string `bson:"difficulty" json:"difficulty"`

	DurationMinutes int `bson:"duration_minutes" json:"duration_minutes"`

	QuestionCount int       `bson:"question_count" json:"question_count"`
	Scores        []int     `bson:"scores" json:"scores"`
	AverageScore  *float64  `bson:"average_score,omitempty" json:"average_score,omitempty"`
	Transcript    []Message `bson:"transcript" json:"transcript"`
	Summary       string    `bson:"summary,omitempty" json:"summary,omitempty"`

	HasResume         bool `bson:"has_resume" json:"has_resume"`
	HasJobDescription bool `bson:"has_job_description" json:"has_job_description"`

	StartedAt       time.Time  `bson:"started_at" json:"started_at"`
	EndedAt         *time.Time `bson:"ended_at,omitempty" json:"ended_at,omitempty"`
	DurationSeconds int64      `bson:"duration_seconds,omitempty" json:"duration_seconds,omitempty"`

	Status string `bson:"status" json:"status"` // active|completed|abandoned

	// ExpiresAt drives the TTL index while Status == "active"; cleared on
	// finalize so completed records never expire.
	ExpiresAt *time.Time `bson:"expires_at,omitempty" json:"-"`
}

const (
	InterviewStatusActive    = "active"
	InterviewStatusCompleted = "completed"
	InterviewStatusAbandoned = "abandoned"
)
