package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepview/prepview/internal/events"
	"github.com/prepview/prepview/internal/models"
	"github.com/prepview/prepview/internal/providers/llm"
	mongorepo "github.com/prepview/prepview/internal/repositories/mongo"
	"github.com/prepview/prepview/internal/session"
	"github.com/prepview/prepview/internal/utils"
)

type fakeLLM struct {
	mu    sync.Mutex
	reply func(system string, history []llm.Message) (string, error)
	calls int
}

func (f *fakeLLM) Complete(_ context.Context, system string, history []llm.Message) (string, error) {
	f.mu.Lock()
	f.calls++
	fn := f.reply
	f.mu.Unlock()
	if fn == nil {
		return "Good answer. What about edge cases? [SCORE: 8/10]", nil
	}
	return fn(system, history)
}

func (f *fakeLLM) Close() error { return nil }

type fakeInterviewRepo struct {
	mu      sync.Mutex
	records map[string]*models.InterviewRecord

	progressCalls int
	abandonCalls  int
}

func newFakeInterviewRepo() *fakeInterviewRepo {
	return &fakeInterviewRepo{records: make(map[string]*models.InterviewRecord)}
}

func (r *fakeInterviewRepo) Create(_ context.Context, rec *models.InterviewRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[rec.SessionID]; exists {
		return utils.E(utils.CodeConflict, "fake.Create", "duplicate", nil)
	}
	cp := *rec
	r.records[rec.SessionID] = &cp
	return nil
}

func (r *fakeInterviewRepo) GetBySessionID(_ context.Context, sessionID string) (*models.InterviewRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[sessionID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeInterviewRepo) GetByID(_ context.Context, id string) (*models.InterviewRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.ID.Hex() == id {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, utils.ErrNotFound
}

func (r *fakeInterviewRepo) UpdateProgress(_ context.Context, sessionID string, transcript []models.Message, scores []int, questionCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progressCalls++
	if rec, ok := r.records[sessionID]; ok {
		rec.Transcript = transcript
		rec.Scores = scores
		rec.QuestionCount = questionCount
	}
	return nil
}

func (r *fakeInterviewRepo) Finalize(_ context.Context, sessionID string, fin mongorepo.Finalization) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[sessionID]
	if !ok {
		return nil
	}
	rec.Scores = fin.Scores
	rec.AverageScore = fin.AverageScore
	rec.Transcript = fin.Transcript
	rec.Summary = fin.Summary
	rec.QuestionCount = fin.QuestionCount
	ended := fin.EndedAt
	rec.EndedAt = &ended
	rec.DurationSeconds = fin.DurationSeconds
	rec.Status = models.InterviewStatusCompleted
	rec.ExpiresAt = nil
	return nil
}

func (r *fakeInterviewRepo) SetStatus(_ context.Context, sessionID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if status == models.InterviewStatusAbandoned {
		r.abandonCalls++
	}
	if rec, ok := r.records[sessionID]; ok {
		rec.Status = status
	}
	return nil
}

func (r *fakeInterviewRepo) SetOwner(_ context.Context, sessionID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[sessionID]
	if !ok || rec.UserID != nil {
		return utils.ErrNotFound
	}
	rec.UserID = &userID
	return nil
}

func (r *fakeInterviewRepo) ListByUser(_ context.Context, userID string, limit, skip int64) ([]models.InterviewRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.InterviewRecord
	for _, rec := range r.records {
		if rec.UserID != nil && *rec.UserID == userID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (r *fakeInterviewRepo) DeleteOwned(_ context.Context, id, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for sid, rec := range r.records {
		if rec.ID.Hex() == id && rec.UserID != nil && *rec.UserID == userID {
			delete(r.records, sid)
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeInterviewRepo) CompletedCount(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, rec := range r.records {
		if rec.Status == models.InterviewStatusCompleted {
			n++
		}
	}
	return n, nil
}

func (r *fakeInterviewRepo) PlatformAverageScore(context.Context) (float64, bool, error) {
	return 0, false, nil
}

type fakeWriteThrough struct {
	mu       sync.Mutex
	progress []string
	abandons []string
}

func (f *fakeWriteThrough) EnqueueProgress(sessionID string, _ []models.Message, _ []int, _ int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progress = append(f.progress, sessionID)
}

func (f *fakeWriteThrough) EnqueueAbandon(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.abandons = append(f.abandons, sessionID)
}

func newTestService(t *testing.T) (InterviewService, *session.Store, *fakeInterviewRepo, *fakeLLM, *fakeWriteThrough) {
	t.Helper()
	log := logrus.New()
	store := session.NewStore(0, log)
	repo := newFakeInterviewRepo()
	model := &fakeLLM{}
	wt := &fakeWriteThrough{}
	svc := NewInterviewService(store, repo, model, wt, events.NopPublisher{}, log, 0)
	return svc, store, repo, model, wt
}

func TestGuestLifecycle(t *testing.T) {
	svc, _, repo, _, wt := newTestService(t)
	ctx := context.Background()

	start, err := svc.Start(ctx, nil, StartParams{Topic: "dsa", Difficulty: "easy", CompanyStyle: "google"})
	require.NoError(t, err)
	assert.True(t, start.IsGuest)
	assert.NotEmpty(t, start.SessionID)
	assert.Contains(t, start.OpeningMessage, "hash table")
	assert.Equal(t, 30, start.DurationMinutes)

	// guests get no durable record until the session ends
	_, err = repo.GetBySessionID(ctx, start.SessionID)
	assert.ErrorIs(t, err, utils.ErrNotFound)

	turn, err := svc.Turn(ctx, start.SessionID, "A hash table maps keys to buckets.")
	require.NoError(t, err)
	assert.Equal(t, "A hash table maps keys to buckets.", turn.UserText)
	assert.Equal(t, "Good answer. What about edge cases?", turn.AIResponse)
	require.NotNil(t, turn.Score)
	assert.Equal(t, 8, *turn.Score)
	require.NotNil(t, turn.AverageScore)
	assert.Equal(t, 8.0, *turn.AverageScore)
	assert.Equal(t, 2, turn.QuestionNumber)
	assert.Equal(t, 3, turn.HistoryLength) // opening + user + assistant
	assert.Empty(t, wt.progress)           // no write-through for guests

	end, err := svc.End(ctx, start.SessionID)
	require.NoError(t, err)
	assert.True(t, end.IsGuest)
	require.NotNil(t, end.Scores.Average)
	assert.Equal(t, 8.0, *end.Scores.Average)
	assert.Len(t, end.History, 3)

	// the end snapshot is claimable: stored with no owner
	rec, err := repo.GetBySessionID(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Nil(t, rec.UserID)
	assert.Equal(t, models.InterviewStatusCompleted, rec.Status)

	// ending twice reports not found
	_, err = svc.End(ctx, start.SessionID)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

func TestOwnedLifecycleWritesThrough(t *testing.T) {
	svc, _, repo, _, wt := newTestService(t)
	ctx := context.Background()
	userID := "user-1"

	start, err := svc.Start(ctx, &userID, StartParams{Topic: "backend"})
	require.NoError(t, err)
	assert.False(t, start.IsGuest)

	// durable mirror exists from the first moment, marked active
	rec, err := repo.GetBySessionID(ctx, start.SessionID)
	require.NoError(t, err)
	require.NotNil(t, rec.UserID)
	assert.Equal(t, userID, *rec.UserID)
	assert.Equal(t, models.InterviewStatusActive, rec.Status)
	assert.NotNil(t, rec.ExpiresAt)

	_, err = svc.Turn(ctx, start.SessionID, "SQL stores rows, NoSQL stores documents.")
	require.NoError(t, err)
	assert.Equal(t, []string{start.SessionID}, wt.progress)

	end, err := svc.End(ctx, start.SessionID)
	require.NoError(t, err)
	assert.False(t, end.IsGuest)

	rec, err = repo.GetBySessionID(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, models.InterviewStatusCompleted, rec.Status)
	assert.Nil(t, rec.ExpiresAt)
	assert.NotEmpty(t, rec.Summary)
}

func TestTurnFailureLeavesSessionUnchanged(t *testing.T) {
	svc, _, _, model, _ := newTestService(t)
	ctx := context.Background()

	start, err := svc.Start(ctx, nil, StartParams{})
	require.NoError(t, err)

	model.reply = func(string, []llm.Message) (string, error) {
		return "", errors.New("model timeout")
	}

	_, err = svc.Turn(ctx, start.SessionID, "my answer")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeUnavailable))

	// nothing was appended: the failed utterance can be resubmitted
	status, err := svc.Status(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, status.HistoryLength)
	assert.Equal(t, 1, status.QuestionCount)

	var sawHistory []llm.Message
	model.reply = func(_ string, history []llm.Message) (string, error) {
		sawHistory = history
		return "Noted. [SCORE: 7/10]", nil
	}
	turn, err := svc.Turn(ctx, start.SessionID, "my answer")
	require.NoError(t, err)
	assert.Equal(t, 2, turn.QuestionNumber)
	// the retry's model context holds exactly one copy of the utterance
	require.Len(t, sawHistory, 2)
	assert.Equal(t, "my answer", sawHistory[1].Content)
}

func TestTurnRequiresText(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)

	_, err := svc.Turn(context.Background(), "whatever", "")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestTurnUnknownSession(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)

	_, err := svc.Turn(context.Background(), "missing", "hello")
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

func TestScorelessReplyRecordsNothing(t *testing.T) {
	svc, _, _, model, _ := newTestService(t)
	ctx := context.Background()

	start, err := svc.Start(ctx, nil, StartParams{})
	require.NoError(t, err)

	model.reply = func(string, []llm.Message) (string, error) {
		return "Interesting, tell me more.", nil
	}
	turn, err := svc.Turn(ctx, start.SessionID, "something vague")
	require.NoError(t, err)
	assert.Nil(t, turn.Score)
	assert.Nil(t, turn.AverageScore)
	assert.Equal(t, 0, turn.TotalScores)
}

func TestEndSummaryFallback(t *testing.T) {
	svc, _, _, model, _ := newTestService(t)
	ctx := context.Background()

	start, err := svc.Start(ctx, nil, StartParams{})
	require.NoError(t, err)

	model.reply = func(string, []llm.Message) (string, error) {
		return "", errors.New("quota exceeded")
	}
	end, err := svc.End(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, summaryFallback, end.Summary)
}

func TestClaimGuestSnapshot(t *testing.T) {
	svc, _, repo, _, _ := newTestService(t)
	ctx := context.Background()

	start, err := svc.Start(ctx, nil, StartParams{})
	require.NoError(t, err)
	_, err = svc.End(ctx, start.SessionID)
	require.NoError(t, err)

	res, err := svc.Claim(ctx, start.SessionID, "user-a")
	require.NoError(t, err)
	assert.True(t, res.Success)

	rec, err := repo.GetBySessionID(ctx, start.SessionID)
	require.NoError(t, err)
	require.NotNil(t, rec.UserID)
	assert.Equal(t, "user-a", *rec.UserID)

	// claiming your own interview again is an idempotent success
	res, err = svc.Claim(ctx, start.SessionID, "user-a")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Interview already saved", res.Message)

	// someone else's claim is refused
	_, err = svc.Claim(ctx, start.SessionID, "user-b")
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))
}

func TestClaimActiveSession(t *testing.T) {
	svc, _, repo, _, wt := newTestService(t)
	ctx := context.Background()

	start, err := svc.Start(ctx, nil, StartParams{})
	require.NoError(t, err)
	_, err = svc.Turn(ctx, start.SessionID, "first answer")
	require.NoError(t, err)

	res, err := svc.Claim(ctx, start.SessionID, "user-a")
	require.NoError(t, err)
	assert.True(t, res.Success)

	rec, err := repo.GetBySessionID(ctx, start.SessionID)
	require.NoError(t, err)
	require.NotNil(t, rec.UserID)
	assert.Equal(t, "user-a", *rec.UserID)

	// the live session is owned now, so later turns write through
	_, err = svc.Turn(ctx, start.SessionID, "second answer")
	require.NoError(t, err)
	assert.Contains(t, wt.progress, start.SessionID)
}

func TestClaimUnknownSession(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)

	_, err := svc.Claim(context.Background(), "missing", "user-a")
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

func TestStatusAndTime(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	ctx := context.Background()

	start, err := svc.Start(ctx, nil, StartParams{Topic: "dsa", DurationMinutes: 10})
	require.NoError(t, err)

	status, err := svc.Status(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "Data Structures & Algorithms", status.Topic)
	assert.Equal(t, 1, status.HistoryLength)
	assert.False(t, status.IsTimeUp)
	assert.True(t, status.IsGuest)

	tm, err := svc.Time(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 10, tm.DurationMinutes)
	assert.False(t, tm.IsTimeUp)
	assert.LessOrEqual(t, tm.ElapsedSeconds, int64(5))
}

func TestReaperMarksOwnedMirrorsAbandoned(t *testing.T) {
	svc, store, _, _, wt := newTestService(t)
	ctx := context.Background()
	userID := "user-1"

	start, err := svc.Start(ctx, &userID, StartParams{})
	require.NoError(t, err)

	// push the session past the TTL and reap directly
	require.NoError(t, store.With(start.SessionID, func(s *session.Session) error { return nil }))
	takeBack, err := store.Take(start.SessionID)
	require.NoError(t, err)
	takeBack.LastActivity = time.Now().UTC().Add(-3 * session.DefaultTTL)
	require.NoError(t, store.Put(takeBack))

	store.Reap(time.Now().UTC())
	assert.Equal(t, []string{start.SessionID}, wt.abandons)
}

func TestExportFallsBackToDurableRecord(t *testing.T) {
	svc, _, _, _, _ := newTestService(t)
	ctx := context.Background()

	start, err := svc.Start(ctx, nil, StartParams{Topic: "dsa"})
	require.NoError(t, err)
	_, err = svc.Turn(ctx, start.SessionID, "answer")
	require.NoError(t, err)

	// live export
	exp, err := svc.Export(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Len(t, exp.Report.Transcript, 3)

	// after end, export reads the durable snapshot
	_, err = svc.End(ctx, start.SessionID)
	require.NoError(t, err)
	exp, err = svc.Export(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "Data Structures & Algorithms", exp.Report.Topic)
	assert.NotNil(t, exp.Report.AverageScore)
}

func TestEndFeedsXPPipelineByTopicID(t *testing.T) {
	svc, _, interviews, _, _ := newTestService(t)
	users := newFakeUserRepo()
	userSvc := NewUserService(users, interviews)
	ctx := context.Background()

	userID := "user-1"
	seedUser(t, users, userID)

	start, err := svc.Start(ctx, &userID, StartParams{Topic: "dsa", Difficulty: "hard"})
	require.NoError(t, err)
	_, err = svc.Turn(ctx, start.SessionID, "Open addressing probes within the table itself.")
	require.NoError(t, err)

	end, err := svc.End(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "dsa", end.TopicID)
	assert.Equal(t, "Data Structures & Algorithms", end.Topic)

	// same fields the end handler forwards into the award
	award, err := userSvc.CompleteInterview(ctx, userID, CompletionSummary{
		Topic:         end.TopicID,
		Difficulty:    end.Difficulty,
		Scores:        end.Scores.Individual,
		AverageScore:  end.Scores.Average,
		QuestionCount: end.TotalQuestions,
	})
	require.NoError(t, err)
	assert.Greater(t, award.XPEarned, 0)

	// the practiced topic is recorded by id, not coerced to the default
	u, err := users.GetByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []string{"dsa"}, u.XP.TopicsPracticed)
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "héllo", truncate("héllo", 10))

	long := strings.Repeat("é", 120)
	cut := truncate(long, 100)
	assert.True(t, utf8.ValidString(cut))
	assert.Equal(t, 100, utf8.RuneCountInString(cut))
}

func TestFeedbackPairsQuestions(t *testing.T) {
	history := []models.Message{
		{Role: "assistant", Content: "Q1? [SCORE: 5/10]"},
		{Role: "user", Content: "A1"},
		{Role: "assistant", Content: "Q2?"},
		{Role: "user", Content: "A2"},
		{Role: "assistant", Content: "Q3?"},
	}
	pairs := pairQuestions(history, []int{5})

	require.Len(t, pairs, 2)
	assert.Equal(t, "Q1?", pairs[0].Question)
	assert.Equal(t, "A1", pairs[0].Answer)
	require.NotNil(t, pairs[0].Score)
	assert.Equal(t, 5, *pairs[0].Score)
	assert.Equal(t, "Q2?", pairs[1].Question)
	assert.Nil(t, pairs[1].Score)
}
