package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/prepview/prepview/internal/models"
	"github.com/prepview/prepview/internal/utils"
)

// Finalization is the terminal update applied when a session ends.
type Finalization struct {
	Scores          []int
	AverageScore    *float64
	Transcript      []models.Message
	Summary         string
	QuestionCount   int
	EndedAt         time.Time
	DurationSeconds int64
}

type InterviewRepository interface {
	Create(ctx context.Context, rec *models.InterviewRecord) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.InterviewRecord, error)
	GetByID(ctx context.Context, id string) (*models.InterviewRecord, error)

	// UpdateProgress is the per-turn write-through for owned sessions.
	UpdateProgress(ctx context.Context, sessionID string, transcript []models.Message, scores []int, questionCount int) error
	Finalize(ctx context.Context, sessionID string, fin Finalization) error
	SetStatus(ctx context.Context, sessionID, status string) error

	// SetOwner links a guest record to a user. Only succeeds while the
	// record's user_id is null; ownership is never reassigned.
	SetOwner(ctx context.Context, sessionID, userID string) error

	ListByUser(ctx context.Context, userID string, limit, skip int64) ([]models.InterviewRecord, error)
	DeleteOwned(ctx context.Context, id, userID string) (bool, error)

	CompletedCount(ctx context.Context) (int64, error)
	PlatformAverageScore(ctx context.Context) (avg float64, ok bool, err error)
}

type interviewRepo struct {
	col *mongo.Collection
}

func NewInterviewRepo(db *mongo.Database) InterviewRepository {
	return &interviewRepo{col: db.Collection("interviews")}
}

func (r *interviewRepo) Create(ctx context.Context, rec *models.InterviewRecord) error {
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now().UTC()
	}
	res, err := r.col.InsertOne(ctx, rec)
	if mongo.IsDuplicateKeyError(err) {
		return utils.E(utils.CodeConflict, "InterviewRepo.Create", "session_id already exists", err)
	}
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		rec.ID = oid
	}
	return nil
}

func (r *interviewRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.InterviewRecord, error) {
	var rec models.InterviewRecord
	err := r.col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &rec, err
}

func (r *interviewRepo) GetByID(ctx context.Context, id string) (*models.InterviewRecord, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, utils.ErrNotFound
	}
	var rec models.InterviewRecord
	err = r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &rec, err
}

func (r *interviewRepo) UpdateProgress(ctx context.Context, sessionID string, transcript []models.Message, scores []int, questionCount int) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$set": bson.M{
			"transcript":     transcript,
			"scores":         scores,
			"question_count": questionCount,
		}},
	)
	return err
}

func (r *interviewRepo) Finalize(ctx context.Context, sessionID string, fin Finalization) error {
	set := bson.M{
		"scores":           fin.Scores,
		"average_score":    fin.AverageScore,
		"transcript":       fin.Transcript,
		"summary":          fin.Summary,
		"question_count":   fin.QuestionCount,
		"ended_at":         fin.EndedAt.UTC(),
		"duration_seconds": fin.DurationSeconds,
		"status":           models.InterviewStatusCompleted,
	}
	_, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$set": set, "$unset": bson.M{"expires_at": ""}},
	)
	return err
}

func (r *interviewRepo) SetStatus(ctx context.Context, sessionID, status string) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$set": bson.M{"status": status}},
	)
	return err
}

func (r *interviewRepo) SetOwner(ctx context.Context, sessionID, userID string) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID, "user_id": nil},
		bson.M{"$set": bson.M{"user_id": userID}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *interviewRepo) ListByUser(ctx context.Context, userID string, limit, skip int64) ([]models.InterviewRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	cur, err := r.col.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().
			SetSort(bson.D{{Key: "started_at", Value: -1}}).
			SetLimit(limit).
			SetSkip(skip),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.InterviewRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *interviewRepo) DeleteOwned(ctx context.Context, id, userID string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid, "user_id": userID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *interviewRepo) CompletedCount(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"status": models.InterviewStatusCompleted})
}

func (r *interviewRepo) PlatformAverageScore(ctx context.Context) (float64, bool, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"status":        models.InterviewStatusCompleted,
			"average_score": bson.M{"$exists": true, "$ne": nil},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":       nil,
			"avg_score": bson.M{"$avg": "$average_score"},
		}}},
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, false, err
	}
	defer cur.Close(ctx)

	var results []struct {
		AvgScore float64 `bson:"avg_score"`
	}
	if err := cur.All(ctx, &results); err != nil {
		return 0, false, err
	}
	if len(results) == 0 {
		return 0, false, nil
	}
	return results[0].AvgScore, true, nil
}
