package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/prepview/prepview/internal/cache"
	mongorepo "github.com/prepview/prepview/internal/repositories/mongo"
	"github.com/prepview/prepview/internal/session"
	"github.com/prepview/prepview/internal/utils"
)

const (
	statsCacheKey = "stats:global"
	statsCacheTTL = time.Minute
)

type GlobalStats struct {
	TotalUsers          int64    `json:"total_users"`
	CompletedInterviews int64    `json:"completed_interviews"`
	AverageScore        *float64 `json:"average_score"`
	ActiveSessions      int      `json:"active_sessions"`
}

type StatsService interface {
	Global(ctx context.Context) (*GlobalStats, error)
}

type statsService struct {
	users      mongorepo.UserRepository
	interviews mongorepo.InterviewRepository
	store      *session.Store
	cache      cache.Cache
	log        *logrus.Logger
}

// NewStatsService builds the public-stats aggregator. cache may be nil;
// every call then hits the database.
func NewStatsService(users mongorepo.UserRepository, interviews mongorepo.InterviewRepository, store *session.Store, c cache.Cache, log *logrus.Logger) StatsService {
	return &statsService{users: users, interviews: interviews, store: store, cache: c, log: log}
}

func (s *statsService) Global(ctx context.Context) (*GlobalStats, error) {
	const op = "StatsService.Global"

	if s.cache != nil {
		var cached GlobalStats
		if hit, err := s.cache.GetJSON(ctx, statsCacheKey, &cached); err != nil {
			s.log.WithError(err).Warn("stats cache read failed")
		} else if hit {
			// active-session count is cheap and local, keep it live
			cached.ActiveSessions = s.store.Len()
			return &cached, nil
		}
	}

	users, err := s.users.Count(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to count users", err)
	}
	completed, err := s.interviews.CompletedCount(ctx)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to count interviews", err)
	}

	stats := &GlobalStats{
		TotalUsers:          users,
		CompletedInterviews: completed,
		ActiveSessions:      s.store.Len(),
	}
	if avg, ok, err := s.interviews.PlatformAverageScore(ctx); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to compute average score", err)
	} else if ok {
		rounded := round1(avg)
		stats.AverageScore = &rounded
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, statsCacheKey, stats, statsCacheTTL); err != nil {
			s.log.WithError(err).Warn("stats cache write failed")
		}
	}
	return stats, nil
}
