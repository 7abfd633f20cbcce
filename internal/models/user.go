package models

import "time"

type User struct {
	ID             string `bson:"_id" json:"id"` // uuid
	Email          string `bson:"email" json:"email"`
	Username       string `bson:"username" json:"username"`
	HashedPassword string `bson:"hashed_password" json:"-"`
	FullName       string `bson:"full_name,omitempty" json:"full_name,omitempty"`

	IsActive  bool `bson:"is_active" json:"is_active"`
	IsPremium bool `bson:"is_premium" json:"is_premium"`

	Settings     UserSettings          `bson:"settings" json:"settings"`
	XP           XPData                `bson:"xp_data" json:"xp_data"`
	Achievements []UnlockedAchievement `bson:"achievements" json:"achievements"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// UserSettings are explicit tagged fields, validated at the store
// boundary; never threaded through the service layer as loose maps.
type UserSettings struct {
	PreferredTopic      string `bson:"preferred_topic" json:"preferred_topic"`
	PreferredCompany    string `bson:"preferred_company" json:"preferred_company"`
	PreferredDifficulty string `bson:"preferred_difficulty" json:"preferred_difficulty"`
	PreferredDuration   int    `bson:"preferred_duration" json:"preferred_duration"`
	EnableTTS           bool   `bson:"enable_tts" json:"enable_tts"`
	Theme               string `bson:"theme" json:"theme"`
}

func DefaultSettings() UserSettings {
	return UserSettings{
		PreferredTopic:      "general",
		PreferredCompany:    "default",
		PreferredDifficulty: "medium",
		PreferredDuration:   30,
		EnableTTS:           true,
		Theme:               "dark",
	}
}

type XPData struct {
	TotalXP         int        `bson:"total_xp" json:"total_xp"`
	TotalInterviews int        `bson:"total_interviews" json:"total_interviews"`
	TotalQuestions  int        `bson:"total_questions" json:"total_questions"`
	PerfectScores   int        `bson:"perfect_scores" json:"perfect_scores"`
	AverageScore    float64    `bson:"average_score" json:"average_score"`
	CurrentStreak   int        `bson:"current_streak" json:"current_streak"`
	LongestStreak   int        `bson:"longest_streak" json:"longest_streak"`
	LastActivity    *time.Time `bson:"last_activity_date,omitempty" json:"last_activity_date,omitempty"`

	// TopicsPracticed is the set of topic ids seen so far, kept sorted.
	TopicsPracticed []string `bson:"topics_practiced,omitempty" json:"topics_practiced,omitempty"`
}

type UnlockedAchievement struct {
	AchievementID string    `bson:"achievement_id" json:"achievement_id"`
	UnlockedAt    time.Time `bson:"unlocked_at" json:"unlocked_at"`
}
