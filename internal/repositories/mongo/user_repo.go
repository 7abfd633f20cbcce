package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/prepview/prepview/internal/models"
	"github.com/prepview/prepview/internal/utils"
)

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	UpdateProfile(ctx context.Context, id string, fullName, email *string) error
	SetPassword(ctx context.Context, id, hashed string) error
	SetSettings(ctx context.Context, id string, s models.UserSettings) error
	SetXP(ctx context.Context, id string, xp models.XPData) error
	AddAchievement(ctx context.Context, id, achievementID string, at time.Time) error

	Count(ctx context.Context) (int64, error)
}

type userRepo struct {
	col *mongo.Collection
}

func NewUserRepo(db *mongo.Database) UserRepository {
	return &userRepo{col: db.Collection("users")}
}

func (r *userRepo) Create(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	_, err := r.col.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return utils.E(utils.CodeConflict, "UserRepo.Create", "email or username already exists", err)
	}
	return err
}

func (r *userRepo) getOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	err := r.col.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &u, err
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, bson.M{"_id": id})
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, bson.M{"email": email})
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, bson.M{"username": username})
}

func (r *userRepo) update(ctx context.Context, id string, set bson.M) error {
	set["updated_at"] = time.Now().UTC()
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return utils.ErrNotFound
	}
	return nil
}

func (r *userRepo) UpdateProfile(ctx context.Context, id string, fullName, email *string) error {
	set := bson.M{}
	if fullName != nil {
		set["full_name"] = *fullName
	}
	if email != nil {
		set["email"] = *email
	}
	if len(set) == 0 {
		return nil
	}
	return r.update(ctx, id, set)
}

func (r *userRepo) SetPassword(ctx context.Context, id, hashed string) error {
	return r.update(ctx, id, bson.M{"hashed_password": hashed})
}

func (r *userRepo) SetSettings(ctx context.Context, id string, s models.UserSettings) error {
	return r.update(ctx, id, bson.M{"settings": s})
}

func (r *userRepo) SetXP(ctx context.Context, id string, xp models.XPData) error {
	return r.update(ctx, id, bson.M{"xp_data": xp})
}

func (r *userRepo) AddAchievement(ctx context.Context, id, achievementID string, at time.Time) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "achievements.achievement_id": bson.M{"$ne": achievementID}},
		bson.M{"$push": bson.M{"achievements": models.UnlockedAchievement{
			AchievementID: achievementID,
			UnlockedAt:    at.UTC(),
		}}},
	)
	if err != nil {
		return err
	}
	_ = res // already unlocked is a no-op
	return nil
}

func (r *userRepo) Count(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}
