package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/prepview/prepview/internal/catalog"
	"github.com/prepview/prepview/internal/events"
	"github.com/prepview/prepview/internal/extract"
	"github.com/prepview/prepview/internal/models"
	"github.com/prepview/prepview/internal/providers/llm"
	mongorepo "github.com/prepview/prepview/internal/repositories/mongo"
	"github.com/prepview/prepview/internal/scoring"
	"github.com/prepview/prepview/internal/session"
	"github.com/prepview/prepview/internal/utils"
)

const summaryFallback = "Unable to generate summary. Please try again."

// WriteThrough is the fire-and-forget durable side-effect channel. Its
// failures are logged by the worker, never surfaced to the turn.
type WriteThrough interface {
	EnqueueProgress(sessionID string, transcript []models.Message, scores []int, questionCount int)
	EnqueueAbandon(sessionID string)
}

type StartParams struct {
	Topic           string
	Difficulty      string
	CompanyStyle    string
	DurationMinutes int
	EnableTTS       bool
	ResumeText      string
	JobDescription  string
}

type StartResult struct {
	SessionID         string `json:"session_id"`
	Topic             string `json:"topic"`
	Company           string `json:"company"`
	Difficulty        string `json:"difficulty"`
	OpeningMessage    string `json:"opening_message"`
	EnableTTS         bool   `json:"enable_tts"`
	DurationMinutes   int    `json:"duration_minutes"`
	HasResume         bool   `json:"has_resume"`
	HasJobDescription bool   `json:"has_job_description"`
	IsGuest           bool   `json:"is_guest"`
}

type TurnResult struct {
	UserText        string   `json:"user_text"`
	AIResponse      string   `json:"ai_response"`
	QuestionNumber  int      `json:"question_number"`
	HistoryLength   int      `json:"history_length"`
	Score           *int     `json:"score"`
	AverageScore    *float64 `json:"average_score"`
	TotalScores     int      `json:"total_scores"`
	DifficultyTrend string   `json:"difficulty_trend"`

	// TTSEnabled tells the transport layer whether to synthesize audio
	// for the reply.
	TTSEnabled bool `json:"-"`
}

type EndResult struct {
	SessionID string `json:"session_id"`
	// TopicID is the catalog id; Topic carries the display name.
	TopicID         string           `json:"topic_id"`
	Topic           string           `json:"topic"`
	CompanyStyle    string           `json:"company_style"`
	Difficulty      string           `json:"difficulty"`
	TotalQuestions  int              `json:"total_questions"`
	Scores          scoring.Stats    `json:"scores"`
	Summary         string           `json:"summary"`
	History         []models.Message `json:"history"`
	DurationSeconds int64            `json:"duration_seconds"`
	IsGuest         bool             `json:"is_guest"`
}

type StatusResult struct {
	SessionID         string   `json:"session_id"`
	Topic             string   `json:"topic"`
	CompanyStyle      string   `json:"company_style"`
	Difficulty        string   `json:"difficulty"`
	QuestionCount     int      `json:"question_count"`
	HistoryLength     int      `json:"history_length"`
	CurrentAverage    *float64 `json:"current_average"`
	EnableTTS         bool     `json:"enable_tts"`
	ElapsedSeconds    int64    `json:"elapsed_seconds"`
	RemainingSeconds  int64    `json:"remaining_seconds"`
	DurationMinutes   int      `json:"duration_minutes"`
	IsTimeUp          bool     `json:"is_time_up"`
	HasResume         bool     `json:"has_resume"`
	HasJobDescription bool     `json:"has_job_description"`
	IsGuest           bool     `json:"is_guest"`
}

type TimeResult struct {
	ElapsedSeconds     int64   `json:"elapsed_seconds"`
	ElapsedFormatted   string  `json:"elapsed_formatted"`
	RemainingSeconds   int64   `json:"remaining_seconds"`
	RemainingFormatted string  `json:"remaining_formatted"`
	DurationMinutes    int     `json:"duration_minutes"`
	ProgressPercent    float64 `json:"progress_percent"`
	IsTimeUp           bool    `json:"is_time_up"`
	IsWarning          bool    `json:"is_warning"`
}

type ClaimResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	InterviewID string `json:"interview_id,omitempty"`
}

type ExportReport struct {
	Topic          string           `json:"topic"`
	CompanyStyle   string           `json:"company_style"`
	Difficulty     string           `json:"difficulty"`
	TotalQuestions int              `json:"total_questions,omitempty"`
	AverageScore   *float64         `json:"average_score"`
	Scores         []int            `json:"scores,omitempty"`
	Transcript     []models.Message `json:"transcript,omitempty"`
	Summary        string           `json:"summary,omitempty"`
	Date           *time.Time       `json:"date,omitempty"`
}

type ExportResult struct {
	SessionID string       `json:"session_id"`
	Report    ExportReport `json:"report"`
}

type QuestionFeedback struct {
	Index    int    `json:"index"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Score    *int   `json:"score"`
	Feedback string `json:"feedback,omitempty"`
}

type FeedbackResult struct {
	SessionID      string             `json:"session_id"`
	Feedback       []QuestionFeedback `json:"feedback"`
	TotalQuestions int                `json:"total_questions"`
}

type CoachingResult struct {
	SessionID         string  `json:"session_id"`
	Coaching          string  `json:"coaching"`
	AverageScore      float64 `json:"average_score"`
	QuestionsAnalyzed int     `json:"questions_analyzed"`
}

type InterviewService interface {
	Start(ctx context.Context, userID *string, p StartParams) (*StartResult, error)
	Turn(ctx context.Context, sessionID, userText string) (*TurnResult, error)
	End(ctx context.Context, sessionID string) (*EndResult, error)
	Status(ctx context.Context, sessionID string) (*StatusResult, error)
	Time(ctx context.Context, sessionID string) (*TimeResult, error)
	Claim(ctx context.Context, sessionID, userID string) (*ClaimResult, error)
	Export(ctx context.Context, sessionID string) (*ExportResult, error)
	Feedback(ctx context.Context, sessionID string) (*FeedbackResult, error)
	Coaching(ctx context.Context, sessionID string) (*CoachingResult, error)
}

type interviewService struct {
	store      *session.Store
	interviews mongorepo.InterviewRepository
	llm        llm.Provider
	persist    WriteThrough
	events     events.Publisher
	log        *logrus.Logger

	// activeTTL sets expires_at on active durable mirrors so abandoned
	// records expire server-side, matching the in-memory reaper.
	activeTTL time.Duration
}

func NewInterviewService(
	store *session.Store,
	interviews mongorepo.InterviewRepository,
	provider llm.Provider,
	persist WriteThrough,
	pub events.Publisher,
	log *logrus.Logger,
	activeTTL time.Duration,
) InterviewService {
	if activeTTL <= 0 {
		activeTTL = 6 * time.Hour
	}
	if pub == nil {
		pub = events.NopPublisher{}
	}
	s := &interviewService{
		store:      store,
		interviews: interviews,
		llm:        provider,
		persist:    persist,
		events:     pub,
		log:        log,
		activeTTL:  activeTTL,
	}
	// close the expiry asymmetry: reaped sessions mark their durable
	// mirror abandoned
	store.OnEvict = s.onEvict
	return s
}

func (s *interviewService) onEvict(sess *session.Session) {
	if sess.Owned() && s.persist != nil {
		s.persist.EnqueueAbandon(sess.ID)
	}
}

func (s *interviewService) Start(ctx context.Context, userID *string, p StartParams) (*StartResult, error) {
	const op = "InterviewService.Start"

	// lenient configuration: unknown ids fall back to defaults
	topic := catalog.TopicOrDefault(p.Topic)
	company := catalog.CompanyOrDefault(p.CompanyStyle)
	difficulty := catalog.DifficultyOrDefault(p.Difficulty)
	if p.DurationMinutes <= 0 {
		p.DurationMinutes = 30
	}

	systemPrompt := buildSystemPrompt(topic, company, difficulty, p.ResumeText, p.JobDescription)

	candidateName := "there"
	if name, ok := extract.ResumeName(p.ResumeText); ok {
		candidateName = name
	}
	opening := catalog.Opening(topic.ID, candidateName, company.Name)

	now := time.Now().UTC()
	sess := &session.Session{
		ID: uuid.NewString(),
		Config: session.Config{
			Topic:             topic.ID,
			TopicName:         topic.Name,
			CompanyStyle:      company.ID,
			CompanyName:       company.Name,
			Difficulty:        difficulty.ID,
			DurationMinutes:   p.DurationMinutes,
			EnableTTS:         p.EnableTTS,
			HasResume:         p.ResumeText != "",
			HasJobDescription: p.JobDescription != "",
		},
		SystemPrompt:  systemPrompt,
		History:       []models.Message{{Role: "assistant", Content: opening}},
		QuestionCount: 1,
		UserID:        userID,
		StartedAt:     now,
		LastActivity:  now,
	}

	if err := s.store.Put(sess); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to register session", err)
	}

	// durable record at start only for identified users; guests get a
	// snapshot when the session ends
	if userID != nil {
		rec := sess.Snapshot(models.InterviewStatusActive, now)
		expires := now.Add(s.activeTTL)
		rec.ExpiresAt = &expires
		if err := s.interviews.Create(ctx, rec); err != nil {
			s.log.WithError(err).WithField("session_id", sess.ID).Error("failed to create durable interview record")
		}
	}

	return &StartResult{
		SessionID:         sess.ID,
		Topic:             topic.Name,
		Company:           company.Name,
		Difficulty:        difficulty.ID,
		OpeningMessage:    opening,
		EnableTTS:         p.EnableTTS,
		DurationMinutes:   p.DurationMinutes,
		HasResume:         sess.Config.HasResume,
		HasJobDescription: sess.Config.HasJobDescription,
		IsGuest:           userID == nil,
	}, nil
}

func (s *interviewService) Turn(ctx context.Context, sessionID, userText string) (*TurnResult, error) {
	const op = "InterviewService.Turn"

	if userText == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "utterance text is required", nil)
	}

	var out *TurnResult
	err := s.store.With(sessionID, func(sess *session.Session) error {
		// model context: full history plus the pending user utterance.
		// Nothing is appended until the model call succeeds, so a failed
		// turn leaves the session exactly as it was and the same
		// utterance can be resubmitted.
		history := make([]llm.Message, 0, len(sess.History)+1)
		for _, m := range sess.History {
			history = append(history, llm.Message{Role: m.Role, Content: m.Content})
		}
		history = append(history, llm.Message{Role: "user", Content: userText})

		reply, err := s.llm.Complete(ctx, sess.SystemPrompt, history)
		if err != nil {
			return utils.E(utils.CodeUnavailable, op, "interviewer model unavailable", err)
		}

		sess.History = append(sess.History, models.Message{Role: "user", Content: userText})

		display := reply
		var scorePtr *int
		if n, stripped, ok := extract.Score(reply); ok {
			sess.Tracker.Record(n)
			display = stripped
			scorePtr = &n
		}

		// raw reply (annotation included) stays in history so the model
		// can calibrate follow-up difficulty
		sess.History = append(sess.History, models.Message{Role: "assistant", Content: reply})
		sess.QuestionCount++

		var avgPtr *float64
		if avg, ok := sess.Tracker.Average(); ok {
			avgPtr = &avg
		}

		out = &TurnResult{
			UserText:        userText,
			AIResponse:      display,
			QuestionNumber:  sess.QuestionCount,
			HistoryLength:   len(sess.History),
			Score:           scorePtr,
			AverageScore:    avgPtr,
			TotalScores:     sess.Tracker.Count(),
			DifficultyTrend: sess.Tracker.TrendLabel(),
			TTSEnabled:      sess.Config.EnableTTS,
		}

		if sess.Owned() && s.persist != nil {
			transcript := make([]models.Message, len(sess.History))
			copy(transcript, sess.History)
			s.persist.EnqueueProgress(sess.ID, transcript, sess.Tracker.Scores(), sess.QuestionCount)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, sessionID, events.TurnEvent{
		Type:            "turn",
		QuestionNumber:  out.QuestionNumber,
		Score:           out.Score,
		AverageScore:    out.AverageScore,
		DifficultyTrend: out.DifficultyTrend,
	})
	return out, nil
}

func (s *interviewService) End(ctx context.Context, sessionID string) (*EndResult, error) {
	// Take waits out any in-flight turn, then removes the entry: the
	// second End on the same id reports not found.
	sess, err := s.store.Take(sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	stats := sess.Tracker.Finalize()
	durationSeconds := sess.ElapsedSeconds(now)

	// best-effort narrative summary: never blocks ending the session
	summary := summaryFallback
	if text, err := s.llm.Complete(ctx, "", []llm.Message{{Role: "user", Content: buildSummaryPrompt(sess, stats)}}); err == nil && text != "" {
		summary = text
	} else if err != nil {
		s.log.WithError(err).WithField("session_id", sess.ID).Warn("summary generation failed")
	}

	// durability is best-effort past this point: the in-memory entry is
	// already gone either way
	fin := mongorepo.Finalization{
		Scores:          stats.Individual,
		AverageScore:    stats.Average,
		Transcript:      sess.History,
		Summary:         summary,
		QuestionCount:   sess.QuestionCount,
		EndedAt:         now,
		DurationSeconds: durationSeconds,
	}
	if sess.Owned() {
		if err := s.interviews.Finalize(ctx, sess.ID, fin); err != nil {
			s.log.WithError(err).WithField("session_id", sess.ID).Error("failed to finalize durable record")
		}
	} else {
		// guest snapshot with null ownership, claimable later
		rec := sess.Snapshot(models.InterviewStatusCompleted, now)
		rec.Summary = summary
		if err := s.interviews.Create(ctx, rec); err != nil {
			s.log.WithError(err).WithField("session_id", sess.ID).Error("failed to snapshot guest interview")
		}
	}

	s.events.Publish(ctx, sessionID, events.SessionEndedEvent{
		Type:            "ended",
		AverageScore:    stats.Average,
		TotalQuestions:  sess.QuestionCount,
		DurationSeconds: durationSeconds,
	})

	return &EndResult{
		SessionID:       sess.ID,
		TopicID:         sess.Config.Topic,
		Topic:           sess.Config.TopicName,
		CompanyStyle:    sess.Config.CompanyName,
		Difficulty:      sess.Config.Difficulty,
		TotalQuestions:  sess.QuestionCount,
		Scores:          stats,
		Summary:         summary,
		History:         sess.History,
		DurationSeconds: durationSeconds,
		IsGuest:         !sess.Owned(),
	}, nil
}

func (s *interviewService) Status(ctx context.Context, sessionID string) (*StatusResult, error) {
	var out *StatusResult
	err := s.store.View(sessionID, func(sess *session.Session) {
		now := time.Now().UTC()
		elapsed := sess.ElapsedSeconds(now)
		remaining := sess.RemainingSeconds(now)

		out = &StatusResult{
			SessionID:         sess.ID,
			Topic:             sess.Config.TopicName,
			CompanyStyle:      sess.Config.CompanyName,
			Difficulty:        sess.Config.Difficulty,
			QuestionCount:     sess.QuestionCount,
			HistoryLength:     len(sess.History),
			EnableTTS:         sess.Config.EnableTTS,
			ElapsedSeconds:    elapsed,
			RemainingSeconds:  remaining,
			DurationMinutes:   sess.Config.DurationMinutes,
			IsTimeUp:          remaining <= 0,
			HasResume:         sess.Config.HasResume,
			HasJobDescription: sess.Config.HasJobDescription,
			IsGuest:           !sess.Owned(),
		}
		if avg, ok := sess.Tracker.Average(); ok {
			out.CurrentAverage = &avg
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *interviewService) Time(ctx context.Context, sessionID string) (*TimeResult, error) {
	var out *TimeResult
	err := s.store.View(sessionID, func(sess *session.Session) {
		now := time.Now().UTC()
		elapsed := sess.ElapsedSeconds(now)
		remaining := sess.RemainingSeconds(now)
		total := int64(sess.Config.DurationMinutes) * 60

		progress := 0.0
		if total > 0 {
			progress = float64(elapsed) / float64(total) * 100
			if progress > 100 {
				progress = 100
			}
		}

		out = &TimeResult{
			ElapsedSeconds:     elapsed,
			ElapsedFormatted:   fmt.Sprintf("%02d:%02d", elapsed/60, elapsed%60),
			RemainingSeconds:   remaining,
			RemainingFormatted: fmt.Sprintf("%02d:%02d", remaining/60, remaining%60),
			DurationMinutes:    sess.Config.DurationMinutes,
			ProgressPercent:    progress,
			IsTimeUp:           remaining <= 0,
			IsWarning:          remaining <= 300 && remaining > 0,
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *interviewService) Claim(ctx context.Context, sessionID, userID string) (*ClaimResult, error) {
	const op = "InterviewService.Claim"

	rec, err := s.interviews.GetBySessionID(ctx, sessionID)
	switch {
	case err == nil:
		switch {
		case rec.UserID != nil && *rec.UserID == userID:
			return &ClaimResult{Success: true, Message: "Interview already saved", InterviewID: rec.ID.Hex()}, nil
		case rec.UserID == nil:
			if err := s.interviews.SetOwner(ctx, sessionID, userID); err != nil {
				if errors.Is(err, utils.ErrNotFound) {
					// raced with another claim
					return nil, utils.E(utils.CodeForbidden, op, "interview belongs to another user", nil)
				}
				return nil, utils.E(utils.CodeInternal, op, "failed to link interview", err)
			}
			s.adoptInMemory(sessionID, userID)
			return &ClaimResult{Success: true, Message: "Interview linked to your account", InterviewID: rec.ID.Hex()}, nil
		default:
			return nil, utils.E(utils.CodeForbidden, op, "interview belongs to another user", nil)
		}
	case errors.Is(err, utils.ErrNotFound):
		// no durable copy yet: the session may still be active in memory
	default:
		return nil, utils.E(utils.CodeInternal, op, "failed to look up interview", err)
	}

	var created *models.InterviewRecord
	werr := s.store.With(sessionID, func(sess *session.Session) error {
		now := time.Now().UTC()
		rec := sess.Snapshot(models.InterviewStatusCompleted, now)
		rec.UserID = &userID
		if err := s.interviews.Create(ctx, rec); err != nil {
			return utils.E(utils.CodeInternal, op, "failed to save interview", err)
		}
		sess.UserID = &userID
		created = rec
		return nil
	})
	if werr != nil {
		if utils.IsCode(werr, utils.CodeNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found or already ended", nil)
		}
		return nil, werr
	}
	return &ClaimResult{Success: true, Message: "Interview saved successfully", InterviewID: created.ID.Hex()}, nil
}

// adoptInMemory flips ownership on a still-active session so later
// write-throughs hit the freshly linked record. Best-effort.
func (s *interviewService) adoptInMemory(sessionID, userID string) {
	_ = s.store.With(sessionID, func(sess *session.Session) error {
		sess.UserID = &userID
		return nil
	})
}

func (s *interviewService) Export(ctx context.Context, sessionID string) (*ExportResult, error) {
	var out *ExportResult
	err := s.store.View(sessionID, func(sess *session.Session) {
		report := ExportReport{
			Topic:          sess.Config.TopicName,
			CompanyStyle:   sess.Config.CompanyName,
			Difficulty:     sess.Config.Difficulty,
			TotalQuestions: sess.QuestionCount,
			Scores:         sess.Tracker.Scores(),
			Transcript:     sess.History,
		}
		if avg, ok := sess.Tracker.Average(); ok {
			report.AverageScore = &avg
		}
		out = &ExportResult{SessionID: sessionID, Report: report}
	})
	if err == nil {
		return out, nil
	}

	// ended sessions fall back to the durable copy, read-only
	rec, rerr := s.interviews.GetBySessionID(ctx, sessionID)
	if rerr != nil {
		return nil, utils.E(utils.CodeNotFound, "InterviewService.Export", "session not found", rerr)
	}
	return &ExportResult{
		SessionID: sessionID,
		Report: ExportReport{
			Topic:        rec.TopicName,
			CompanyStyle: rec.CompanyName,
			Difficulty:   rec.Difficulty,
			AverageScore: rec.AverageScore,
			Summary:      rec.Summary,
			Date:         &rec.StartedAt,
		},
	}, nil
}

func (s *interviewService) Feedback(ctx context.Context, sessionID string) (*FeedbackResult, error) {
	var history []models.Message
	var scores []int
	err := s.store.View(sessionID, func(sess *session.Session) {
		history = make([]models.Message, len(sess.History))
		copy(history, sess.History)
		scores = sess.Tracker.Scores()
	})
	if err != nil {
		return nil, err
	}

	pairs := pairQuestions(history, scores)

	const feedbackLimit = 5 // keep latency and model spend bounded
	detailed := make([]QuestionFeedback, 0, feedbackLimit)
	for i, qa := range pairs {
		if i >= feedbackLimit {
			break
		}
		scoreText := "n/a"
		if qa.Score != nil {
			scoreText = fmt.Sprintf("%d/10", *qa.Score)
		}
		prompt := fmt.Sprintf(`Analyze this interview Q&A briefly:

QUESTION: %s
ANSWER: %s
SCORE: %s

Give 2-3 sentences of feedback and suggest a better answer in 2-3 sentences.`, qa.Question, qa.Answer, scoreText)

		feedback := "Unable to generate feedback."
		if text, err := s.llm.Complete(ctx, "", []llm.Message{{Role: "user", Content: prompt}}); err == nil && text != "" {
			feedback = text
		}
		qa.Feedback = feedback
		detailed = append(detailed, qa)
	}

	return &FeedbackResult{
		SessionID:      sessionID,
		Feedback:       detailed,
		TotalQuestions: len(pairs),
	}, nil
}

func (s *interviewService) Coaching(ctx context.Context, sessionID string) (*CoachingResult, error) {
	var history []models.Message
	var scores []int
	var topicName, difficulty string
	var questionCount int
	err := s.store.View(sessionID, func(sess *session.Session) {
		history = make([]models.Message, len(sess.History))
		copy(history, sess.History)
		scores = sess.Tracker.Scores()
		topicName = sess.Config.TopicName
		difficulty = sess.Config.Difficulty
		questionCount = sess.QuestionCount
	})
	if err != nil {
		return nil, err
	}

	avg := 0.0
	if len(scores) > 0 {
		sum := 0
		for _, v := range scores {
			sum += v
		}
		avg = float64(sum) / float64(len(scores))
	}

	var recent []string
	start := len(history) - 6
	if start < 0 {
		start = 0
	}
	for _, m := range history[start:] {
		if m.Role != "user" {
			continue
		}
		recent = append(recent, "- "+truncate(m.Content, 100)+"...")
	}

	prompt := fmt.Sprintf(`Based on this %s interview:

Average score: %.1f/10
Total questions: %d
Difficulty: %s

Recent responses:
%s

Provide 3 specific, actionable coaching tips to improve performance.`,
		topicName, avg, questionCount, difficulty, strings.Join(recent, "\n"))

	coaching := "Keep practicing and focus on clear, structured answers."
	if text, err := s.llm.Complete(ctx, "", []llm.Message{{Role: "user", Content: prompt}}); err == nil && text != "" {
		coaching = text
	}

	return &CoachingResult{
		SessionID:         sessionID,
		Coaching:          coaching,
		AverageScore:      round1(avg),
		QuestionsAnalyzed: questionCount,
	}, nil
}

// pairQuestions walks the transcript pairing each assistant question
// with the following user answer, aligning scores by completion order.
func pairQuestions(history []models.Message, scores []int) []QuestionFeedback {
	var pairs []QuestionFeedback
	var currentQuestion string
	scoreIndex := 0

	for _, msg := range history {
		switch msg.Role {
		case "assistant":
			_, stripped, _ := extract.Score(msg.Content)
			currentQuestion = stripped
		case "user":
			if currentQuestion == "" {
				continue
			}
			var score *int
			if scoreIndex < len(scores) {
				v := scores[scoreIndex]
				score = &v
			}
			pairs = append(pairs, QuestionFeedback{
				Index:    len(pairs) + 1,
				Question: currentQuestion,
				Answer:   msg.Content,
				Score:    score,
			})
			scoreIndex++
			currentQuestion = ""
		}
	}
	return pairs
}

const (
	resumeExcerptLimit = 2000
	jdExcerptLimit     = 1500
)

func buildSystemPrompt(topic catalog.Topic, company catalog.Company, difficulty catalog.Difficulty, resumeText, jobDescription string) string {
	var b strings.Builder
	b.WriteString(topic.SystemPrompt)
	b.WriteString("\n\n")
	b.WriteString(company.Style)
	b.WriteString("\n\n")
	b.WriteString(difficulty.PromptModifier)

	if resumeText != "" {
		b.WriteString("\n\nCANDIDATE'S RESUME INFORMATION:\n")
		b.WriteString(truncate(resumeText, resumeExcerptLimit))
		b.WriteString("\n\nUse this information to ask about specific projects and probe their claimed skills.")
		if role, ok := extract.ResumeRole(resumeText); ok {
			b.WriteString("\nThe candidate's current role is: " + role + ".")
		}
	}

	if jobDescription != "" {
		b.WriteString("\n\nTARGET JOB DESCRIPTION:\n")
		b.WriteString(truncate(jobDescription, jdExcerptLimit))
		b.WriteString("\n\nFocus your questions on skills and requirements mentioned in this job description.")
	}

	b.WriteString(`

IMPORTANT INSTRUCTIONS:
- After each candidate response, provide a brief score (1-10) at the END of your response in this exact format: [SCORE: X/10]
- The score should reflect: accuracy, depth, communication clarity, and relevance
- Keep your main response under 60 words, then add the score
- Adapt your next question difficulty based on their performance`)

	return b.String()
}

func buildSummaryPrompt(sess *session.Session, stats scoring.Stats) string {
	scoreInfo := ""
	if stats.Average != nil {
		scoreInfo = fmt.Sprintf("\nScores received: %v\nAverage score: %.1f/10", stats.Individual, *stats.Average)
	}

	var convo strings.Builder
	for _, msg := range sess.History {
		convo.WriteString(strings.ToUpper(msg.Role))
		convo.WriteString(": ")
		convo.WriteString(msg.Content)
		convo.WriteString("\n")
	}

	return fmt.Sprintf(`Based on this interview conversation, provide a detailed performance summary:

Interview Topic: %s
Company Style: %s
Difficulty: %s
Number of exchanges: %d%s

Conversation:
%s
Provide a structured assessment:
1. **Overall Impression** (2-3 sentences)
2. **Technical Accuracy** - Rate and explain
3. **Communication Skills** - Rate and explain
4. **Problem-Solving Approach** - Rate and explain
5. **Top 3 Strengths**
6. **Top 3 Areas for Improvement**
7. **Specific Recommendations** for next steps
8. **Final Score**: X/10

Be constructive, specific, and actionable.`,
		sess.Config.TopicName, sess.Config.CompanyName, sess.Config.Difficulty,
		sess.QuestionCount, scoreInfo, convo.String())
}

// truncate cuts on rune boundaries so excerpts never end mid-character.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
