package events

// TurnEvent is published after every successful turn.
type TurnEvent struct {
	Type            string   `json:"type"`
	QuestionNumber  int      `json:"question_number"`
	Score           *int     `json:"score"`
	AverageScore    *float64 `json:"average_score"`
	DifficultyTrend string   `json:"difficulty_trend"`
}

// SessionEndedEvent closes the stream for a session.
type SessionEndedEvent struct {
	Type            string   `json:"type"`
	AverageScore    *float64 `json:"average_score"`
	TotalQuestions  int      `json:"total_questions"`
	DurationSeconds int64    `json:"duration_seconds"`
}
