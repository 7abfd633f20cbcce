package workers

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepview/prepview/internal/models"
	mongorepo "github.com/prepview/prepview/internal/repositories/mongo"
)

type recordingRepo struct {
	progress chan string
	statuses chan string
}

func newRecordingRepo() *recordingRepo {
	return &recordingRepo{
		progress: make(chan string, 16),
		statuses: make(chan string, 16),
	}
}

func (r *recordingRepo) Create(context.Context, *models.InterviewRecord) error { return nil }
func (r *recordingRepo) GetBySessionID(context.Context, string) (*models.InterviewRecord, error) {
	return nil, nil
}
func (r *recordingRepo) GetByID(context.Context, string) (*models.InterviewRecord, error) {
	return nil, nil
}
func (r *recordingRepo) UpdateProgress(_ context.Context, sessionID string, _ []models.Message, _ []int, _ int) error {
	r.progress <- sessionID
	return nil
}
func (r *recordingRepo) Finalize(context.Context, string, mongorepo.Finalization) error { return nil }
func (r *recordingRepo) SetStatus(_ context.Context, sessionID, status string) error {
	r.statuses <- sessionID + ":" + status
	return nil
}
func (r *recordingRepo) SetOwner(context.Context, string, string) error { return nil }
func (r *recordingRepo) ListByUser(context.Context, string, int64, int64) ([]models.InterviewRecord, error) {
	return nil, nil
}
func (r *recordingRepo) DeleteOwned(context.Context, string, string) (bool, error) {
	return false, nil
}
func (r *recordingRepo) CompletedCount(context.Context) (int64, error) { return 0, nil }
func (r *recordingRepo) PlatformAverageScore(context.Context) (float64, bool, error) {
	return 0, false, nil
}

func TestPersistWorkerDispatch(t *testing.T) {
	repo := newRecordingRepo()
	w := &PersistWorker{Interviews: repo}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	w.EnqueueProgress("s1", []models.Message{{Role: "user", Content: "x"}}, []int{7}, 2)
	w.EnqueueAbandon("s2")

	select {
	case got := <-repo.progress:
		assert.Equal(t, "s1", got)
	case <-time.After(2 * time.Second):
		t.Fatal("progress write never ran")
	}

	select {
	case got := <-repo.statuses:
		assert.Equal(t, "s2:"+models.InterviewStatusAbandoned, got)
	case <-time.After(2 * time.Second):
		t.Fatal("abandon write never ran")
	}
}

func TestPersistWorkerDropsWhenFull(t *testing.T) {
	repo := newRecordingRepo()
	w := &PersistWorker{Interviews: repo, QueueSize: 1, NumWorkers: 1}

	// never start the workers; the queue has nowhere to drain
	w.queue = make(chan job, 1)
	w.Logger = logrus.New()

	w.EnqueueAbandon("s1")
	// the queue is full now; this enqueue must not block
	done := make(chan struct{})
	go func() {
		w.EnqueueAbandon("s2")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("enqueue blocked on a full queue")
	}
	assert.Len(t, w.queue, 1)
}

func TestPersistWorkerRequiresRepo(t *testing.T) {
	w := &PersistWorker{}
	assert.Error(t, w.Start(context.Background()))
}
