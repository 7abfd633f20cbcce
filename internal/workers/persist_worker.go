// Package workers runs the best-effort durable writes off the request
// path. A turn's write-through and the reaper's abandon mark must never
// fail (or slow down) the operation that triggered them; failures land
// in the log, not in the response.
package workers

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/prepview/prepview/internal/models"
	mongorepo "github.com/prepview/prepview/internal/repositories/mongo"
)

type jobKind int

const (
	jobProgress jobKind = iota
	jobAbandon
)

type job struct {
	kind      jobKind
	sessionID string

	transcript    []models.Message
	scores        []int
	questionCount int
}

type PersistWorker struct {
	Interviews mongorepo.InterviewRepository
	Logger     *logrus.Logger
	NumWorkers int
	QueueSize  int

	// WriteTimeout bounds each durable write; the triggering request has
	// already returned by the time the job runs.
	WriteTimeout time.Duration

	queue chan job
}

func (w *PersistWorker) Start(ctx context.Context) error {
	if w.Interviews == nil {
		return errors.New("PersistWorker missing dependency: Interviews must be set")
	}
	if w.Logger == nil {
		w.Logger = logrus.New()
	}
	if w.NumWorkers <= 0 {
		w.NumWorkers = 2
	}
	if w.QueueSize <= 0 {
		w.QueueSize = 256
	}
	if w.WriteTimeout <= 0 {
		w.WriteTimeout = 10 * time.Second
	}

	w.queue = make(chan job, w.QueueSize)
	for i := 0; i < w.NumWorkers; i++ {
		go w.run(ctx)
	}
	return nil
}

func (w *PersistWorker) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-w.queue:
			w.handle(ctx, j)
		}
	}
}

func (w *PersistWorker) handle(ctx context.Context, j job) {
	wctx, cancel := context.WithTimeout(ctx, w.WriteTimeout)
	defer cancel()

	var err error
	switch j.kind {
	case jobProgress:
		err = w.Interviews.UpdateProgress(wctx, j.sessionID, j.transcript, j.scores, j.questionCount)
	case jobAbandon:
		err = w.Interviews.SetStatus(wctx, j.sessionID, models.InterviewStatusAbandoned)
	}
	if err != nil {
		w.Logger.WithError(err).WithFields(logrus.Fields{
			"session_id": j.sessionID,
			"kind":       j.kind,
		}).Error("durable write-through failed")
	}
}

func (w *PersistWorker) enqueue(j job) {
	select {
	case w.queue <- j:
	default:
		w.Logger.WithField("session_id", j.sessionID).Warn("persist queue full, dropping write-through")
	}
}

// EnqueueProgress schedules the per-turn snapshot write for an owned
// session. Fire-and-forget.
func (w *PersistWorker) EnqueueProgress(sessionID string, transcript []models.Message, scores []int, questionCount int) {
	w.enqueue(job{
		kind:          jobProgress,
		sessionID:     sessionID,
		transcript:    transcript,
		scores:        scores,
		questionCount: questionCount,
	})
}

// EnqueueAbandon marks the durable mirror of a reaped session.
func (w *PersistWorker) EnqueueAbandon(sessionID string) {
	w.enqueue(job{kind: jobAbandon, sessionID: sessionID})
}
