package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/prepview/prepview/internal/catalog"
	"github.com/prepview/prepview/internal/models"
	mongorepo "github.com/prepview/prepview/internal/repositories/mongo"
	"github.com/prepview/prepview/internal/utils"
)

// CompletionSummary is the per-interview input to the XP pipeline.
// Topic is the catalog topic id, not the display name.
type CompletionSummary struct {
	Topic         string
	Difficulty    string
	Scores        []int
	AverageScore  *float64
	QuestionCount int
}

// CompletionAward reports what a completed interview earned.
type CompletionAward struct {
	XPEarned        int                   `json:"xp_earned"`
	TotalXP         int                   `json:"total_xp"`
	Level           LevelInfo             `json:"level"`
	LeveledUp       bool                  `json:"leveled_up"`
	CurrentStreak   int                   `json:"current_streak"`
	NewAchievements []catalog.Achievement `json:"new_achievements"`
}

// LevelInfo is the derived level view of a total-XP figure.
type LevelInfo struct {
	Level           int     `json:"level"`
	XPIntoLevel     int     `json:"xp_into_level"`
	XPForNextLevel  int     `json:"xp_for_next_level"`
	ProgressPercent float64 `json:"progress_percent"`
}

type ProgressResult struct {
	XP           models.XPData       `json:"xp_data"`
	Level        LevelInfo           `json:"level"`
	Achievements []AchievementStatus `json:"achievements"`
	Unlocked     int                 `json:"unlocked_count"`
}

type AchievementStatus struct {
	catalog.Achievement
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
}

type HistoryItem struct {
	ID              string     `json:"id"`
	SessionID       string     `json:"session_id"`
	Topic           string     `json:"topic"`
	TopicName       string     `json:"topic_name"`
	CompanyName     string     `json:"company_name"`
	Difficulty      string     `json:"difficulty"`
	QuestionCount   int        `json:"question_count"`
	AverageScore    *float64   `json:"average_score,omitempty"`
	Status          string     `json:"status"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationSeconds int64      `json:"duration_seconds,omitempty"`
}

type DashboardResult struct {
	User             *models.User  `json:"user"`
	Level            LevelInfo     `json:"level"`
	RecentInterviews []HistoryItem `json:"recent_interviews"`
	UnlockedCount    int           `json:"unlocked_achievements"`
}

type UserService interface {
	Profile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, fullName, email *string) (*models.User, error)

	Settings(ctx context.Context, userID string) (models.UserSettings, error)
	UpdateSettings(ctx context.Context, userID string, s models.UserSettings) (models.UserSettings, error)

	// CompleteInterview runs the XP pipeline for one finished interview:
	// base XP, difficulty multiplier, streak update, achievement checks.
	CompleteInterview(ctx context.Context, userID string, sum CompletionSummary) (*CompletionAward, error)
	Progress(ctx context.Context, userID string) (*ProgressResult, error)
	// SyncXP reconciles a client-side XP snapshot with the server copy by
	// taking the maximum of every counter. The merged copy wins on both
	// sides; progress is never rolled back.
	SyncXP(ctx context.Context, userID string, client models.XPData) (*models.XPData, error)

	History(ctx context.Context, userID string, limit, skip int64) ([]HistoryItem, error)
	HistoryDetail(ctx context.Context, userID, interviewID string) (*models.InterviewRecord, error)
	DeleteInterview(ctx context.Context, userID, interviewID string) error

	Dashboard(ctx context.Context, userID string) (*DashboardResult, error)
}

type userService struct {
	users      mongorepo.UserRepository
	interviews mongorepo.InterviewRepository
}

func NewUserService(users mongorepo.UserRepository, interviews mongorepo.InterviewRepository) UserService {
	return &userService{users: users, interviews: interviews}
}

func (s *userService) Profile(ctx context.Context, userID string) (*models.User, error) {
	const op = "UserService.Profile"
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "user not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load user", err)
	}
	return u, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, fullName, email *string) (*models.User, error) {
	const op = "UserService.UpdateProfile"

	if email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*email))
		if !strings.Contains(normalized, "@") {
			return nil, utils.E(utils.CodeInvalidArgument, op, "a valid email is required", nil)
		}
		email = &normalized
	}

	if err := s.users.UpdateProfile(ctx, userID, fullName, email); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "user not found", err)
		}
		if utils.IsCode(err, utils.CodeConflict) {
			return nil, utils.E(utils.CodeConflict, op, "email already in use", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to update profile", err)
	}
	return s.Profile(ctx, userID)
}

func (s *userService) Settings(ctx context.Context, userID string) (models.UserSettings, error) {
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return models.UserSettings{}, err
	}
	return u.Settings, nil
}

func (s *userService) UpdateSettings(ctx context.Context, userID string, in models.UserSettings) (models.UserSettings, error) {
	const op = "UserService.UpdateSettings"

	// coerce unknown ids to their defaults, same leniency as start
	in.PreferredTopic = catalog.TopicOrDefault(in.PreferredTopic).ID
	in.PreferredCompany = catalog.CompanyOrDefault(in.PreferredCompany).ID
	in.PreferredDifficulty = catalog.DifficultyOrDefault(in.PreferredDifficulty).ID
	if in.PreferredDuration < 5 || in.PreferredDuration > 120 {
		in.PreferredDuration = 30
	}
	if in.Theme != "light" && in.Theme != "dark" {
		in.Theme = "dark"
	}

	if err := s.users.SetSettings(ctx, userID, in); err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return models.UserSettings{}, utils.E(utils.CodeNotFound, op, "user not found", err)
		}
		return models.UserSettings{}, utils.E(utils.CodeInternal, op, "failed to save settings", err)
	}
	return in, nil
}

func (s *userService) CompleteInterview(ctx context.Context, userID string, sum CompletionSummary) (*CompletionAward, error) {
	const op = "UserService.CompleteInterview"

	u, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	xp := u.XP
	levelBefore := LevelForXP(xp.TotalXP).Level

	// base XP: 10 per score point plus 5 per question, scaled by the
	// difficulty multiplier
	totalScore := 0
	perfects := 0
	for _, v := range sum.Scores {
		totalScore += v
		if v == 10 {
			perfects++
		}
	}
	multiplier := catalog.DifficultyOrDefault(sum.Difficulty).XPMultiplier
	earned := int(float64(totalScore*10+sum.QuestionCount*5) * multiplier)

	xp.TotalXP += earned
	xp.TotalInterviews++
	xp.TotalQuestions += sum.QuestionCount
	xp.PerfectScores += perfects
	if sum.AverageScore != nil {
		n := float64(xp.TotalInterviews)
		xp.AverageScore = round1((xp.AverageScore*(n-1) + *sum.AverageScore) / n)
	}
	updateStreak(&xp, now)

	topicID := catalog.TopicOrDefault(sum.Topic).ID
	xp.TopicsPracticed = addToSet(xp.TopicsPracticed, topicID)

	// achievements unlock against the updated counters; their rewards
	// feed back into total XP
	var unlocked []catalog.Achievement
	have := make(map[string]bool, len(u.Achievements))
	for _, a := range u.Achievements {
		have[a.AchievementID] = true
	}
	for _, a := range catalog.Achievements {
		if have[a.ID] || !achievementEarned(a.ID, xp) {
			continue
		}
		if err := s.users.AddAchievement(ctx, userID, a.ID, now); err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to record achievement", err)
		}
		xp.TotalXP += a.XPReward
		unlocked = append(unlocked, a)
	}

	if err := s.users.SetXP(ctx, userID, xp); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to save progress", err)
	}

	level := LevelForXP(xp.TotalXP)
	return &CompletionAward{
		XPEarned:        earned,
		TotalXP:         xp.TotalXP,
		Level:           level,
		LeveledUp:       level.Level > levelBefore,
		CurrentStreak:   xp.CurrentStreak,
		NewAchievements: unlocked,
	}, nil
}

func (s *userService) Progress(ctx context.Context, userID string) (*ProgressResult, error) {
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	unlockedAt := make(map[string]time.Time, len(u.Achievements))
	for _, a := range u.Achievements {
		unlockedAt[a.AchievementID] = a.UnlockedAt
	}

	statuses := make([]AchievementStatus, 0, len(catalog.Achievements))
	unlocked := 0
	for _, a := range catalog.Achievements {
		st := AchievementStatus{Achievement: a}
		if at, ok := unlockedAt[a.ID]; ok {
			st.Unlocked = true
			at := at
			st.UnlockedAt = &at
			unlocked++
		}
		statuses = append(statuses, st)
	}

	return &ProgressResult{
		XP:           u.XP,
		Level:        LevelForXP(u.XP.TotalXP),
		Achievements: statuses,
		Unlocked:     unlocked,
	}, nil
}

func (s *userService) SyncXP(ctx context.Context, userID string, client models.XPData) (*models.XPData, error) {
	const op = "UserService.SyncXP"

	u, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	merged := u.XP
	merged.TotalXP = maxInt(merged.TotalXP, client.TotalXP)
	merged.TotalInterviews = maxInt(merged.TotalInterviews, client.TotalInterviews)
	merged.TotalQuestions = maxInt(merged.TotalQuestions, client.TotalQuestions)
	merged.PerfectScores = maxInt(merged.PerfectScores, client.PerfectScores)
	merged.CurrentStreak = maxInt(merged.CurrentStreak, client.CurrentStreak)
	merged.LongestStreak = maxInt(merged.LongestStreak, client.LongestStreak)
	if merged.AverageScore < client.AverageScore {
		merged.AverageScore = client.AverageScore
	}
	if client.LastActivity != nil &&
		(merged.LastActivity == nil || client.LastActivity.After(*merged.LastActivity)) {
		merged.LastActivity = client.LastActivity
	}
	for _, t := range client.TopicsPracticed {
		merged.TopicsPracticed = addToSet(merged.TopicsPracticed, t)
	}

	if err := s.users.SetXP(ctx, userID, merged); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to save progress", err)
	}
	return &merged, nil
}

func (s *userService) History(ctx context.Context, userID string, limit, skip int64) ([]HistoryItem, error) {
	const op = "UserService.History"

	recs, err := s.interviews.ListByUser(ctx, userID, limit, skip)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list interviews", err)
	}

	items := make([]HistoryItem, 0, len(recs))
	for _, r := range recs {
		items = append(items, HistoryItem{
			ID:              r.ID.Hex(),
			SessionID:       r.SessionID,
			Topic:           r.Topic,
			TopicName:       r.TopicName,
			CompanyName:     r.CompanyName,
			Difficulty:      r.Difficulty,
			QuestionCount:   r.QuestionCount,
			AverageScore:    r.AverageScore,
			Status:          r.Status,
			StartedAt:       r.StartedAt,
			EndedAt:         r.EndedAt,
			DurationSeconds: r.DurationSeconds,
		})
	}
	return items, nil
}

func (s *userService) HistoryDetail(ctx context.Context, userID, interviewID string) (*models.InterviewRecord, error) {
	const op = "UserService.HistoryDetail"

	rec, err := s.interviews.GetByID(ctx, interviewID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "interview not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load interview", err)
	}
	// not-found rather than forbidden: don't reveal other users' ids
	if rec.UserID == nil || *rec.UserID != userID {
		return nil, utils.E(utils.CodeNotFound, op, "interview not found", nil)
	}
	return rec, nil
}

func (s *userService) DeleteInterview(ctx context.Context, userID, interviewID string) error {
	const op = "UserService.DeleteInterview"

	deleted, err := s.interviews.DeleteOwned(ctx, interviewID, userID)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to delete interview", err)
	}
	if !deleted {
		return utils.E(utils.CodeNotFound, op, "interview not found", nil)
	}
	return nil
}

func (s *userService) Dashboard(ctx context.Context, userID string) (*DashboardResult, error) {
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	recent, err := s.History(ctx, userID, 5, 0)
	if err != nil {
		return nil, err
	}
	return &DashboardResult{
		User:             u,
		Level:            LevelForXP(u.XP.TotalXP),
		RecentInterviews: recent,
		UnlockedCount:    len(u.Achievements),
	}, nil
}

// LevelForXP walks the level curve: level 1 needs 100 XP, each level
// after costs 20% more than the last.
func LevelForXP(totalXP int) LevelInfo {
	level := 1
	threshold := 100
	remaining := totalXP
	for remaining >= threshold {
		remaining -= threshold
		level++
		threshold = int(float64(threshold) * 1.2)
	}
	progress := 0.0
	if threshold > 0 {
		progress = round1(float64(remaining) / float64(threshold) * 100)
	}
	return LevelInfo{
		Level:           level,
		XPIntoLevel:     remaining,
		XPForNextLevel:  threshold,
		ProgressPercent: progress,
	}
}

// updateStreak advances the daily streak. Same calendar day keeps the
// streak, the next day extends it, any gap resets it to 1.
func updateStreak(xp *models.XPData, now time.Time) {
	today := now.Truncate(24 * time.Hour)
	switch {
	case xp.LastActivity == nil:
		xp.CurrentStreak = 1
	default:
		last := xp.LastActivity.UTC().Truncate(24 * time.Hour)
		switch days := int(today.Sub(last).Hours() / 24); {
		case days == 0:
			if xp.CurrentStreak == 0 {
				xp.CurrentStreak = 1
			}
		case days == 1:
			xp.CurrentStreak++
		default:
			xp.CurrentStreak = 1
		}
	}
	if xp.CurrentStreak > xp.LongestStreak {
		xp.LongestStreak = xp.CurrentStreak
	}
	t := now
	xp.LastActivity = &t
}

func achievementEarned(id string, xp models.XPData) bool {
	switch id {
	case "first_interview":
		return xp.TotalInterviews >= 1
	case "perfect_10":
		return xp.PerfectScores >= 1
	case "streak_3":
		return xp.CurrentStreak >= 3
	case "streak_7":
		return xp.CurrentStreak >= 7
	case "streak_30":
		return xp.CurrentStreak >= 30
	case "questions_10":
		return xp.TotalQuestions >= 10
	case "questions_50":
		return xp.TotalQuestions >= 50
	case "questions_100":
		return xp.TotalQuestions >= 100
	case "all_topics":
		return len(xp.TopicsPracticed) >= len(catalog.Topics())
	case "avg_8_plus":
		return xp.TotalInterviews >= 3 && xp.AverageScore >= 8
	case "interviews_5":
		return xp.TotalInterviews >= 5
	case "interviews_20":
		return xp.TotalInterviews >= 20
	default:
		return false
	}
}

func addToSet(set []string, v string) []string {
	for _, s := range set {
		if s == v {
			return set
		}
	}
	set = append(set, v)
	sort.Strings(set)
	return set
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
