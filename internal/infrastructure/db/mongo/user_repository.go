package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/schoolpay/user-service/internal/core/domain"
	"github.com/schoolpay/user-service/internal/core/ports"
)

const collectionUsers = "users"

// UserRepository implements ports.UserRepository on a MongoDB collection.
// Soft-deleted documents keep their data and carry deleted=true.
type UserRepository struct {
	col *mongo.Collection
}

var _ ports.UserRepository = (*UserRepository)(nil)

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

type userDocument struct {
	ID           string     `bson:"_id"`
	Email        string     `bson:"email"`
	Phone        string     `bson:"phone_no"`
	FirstName    string     `bson:"first_name"`
	LastName     string     `bson:"last_name"`
	Age          *int       `bson:"age,omitempty"`
	ImageURL     string     `bson:"img_url"`
	PasswordHash string     `bson:"password_hash"`
	Role         string     `bson:"role"`
	Status       string     `bson:"status"`
	CreatedAt    time.Time  `bson:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at"`
	Deleted      bool       `bson:"deleted"`
	DeletedAt    *time.Time `bson:"deleted_at,omitempty"`
}

func toDocument(u *domain.User) userDocument {
	return userDocument{
		ID:           u.ID.String(),
		Email:        u.Email,
		Phone:        u.Phone,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Age:          u.Age,
		ImageURL:     u.ImageURL,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		Status:       string(u.Status),
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
		Deleted:      u.DeletedAt != nil,
		DeletedAt:    u.DeletedAt,
	}
}

func (d userDocument) toDomain() (*domain.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("decode user id %q: %w", d.ID, err)
	}
	u := &domain.User{
		ID:           id,
		Email:        d.Email,
		Phone:        d.Phone,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Age:          d.Age,
		ImageURL:     d.ImageURL,
		PasswordHash: d.PasswordHash,
		Role:         domain.Role(d.Role),
		Status:       domain.Status(d.Status),
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
	if d.DeletedAt != nil {
		t := d.DeletedAt.UTC()
		u.DeletedAt = &t
	}
	return u, nil
}

// live narrows a filter to documents that were not soft-deleted.
func live(filter bson.M) bson.M {
	filter["deleted"] = false
	return filter
}

// Create inserts a new user document.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, toDocument(user)); err != nil {
		if conflict := duplicateKey(err); conflict != nil {
			return nil, conflict
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	created := *user
	return &created, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.findOne(ctx, live(bson.M{"_id": id.String()}))
}

func (r *UserRepository) FindByEmailAndRole(ctx context.Context, email string, role domain.Role) (*domain.User, error) {
	return r.findOne(ctx, live(bson.M{"email": email, "role": string(role)}))
}

func (r *UserRepository) FindByPhoneAndRole(ctx context.Context, phone string, role domain.Role) (*domain.User, error) {
	return r.findOne(ctx, live(bson.M{"phone_no": phone, "role": string(role)}))
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain()
}

// Update sets the mutable profile fields on a live user.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"phone_no":   user.Phone,
		"img_url":    user.ImageURL,
		"status":     string(user.Status),
		"updated_at": user.UpdatedAt.UTC(),
	}
	update := bson.M{"$set": set}
	if user.Age != nil {
		set["age"] = *user.Age
	} else {
		update["$unset"] = bson.M{"age": ""}
	}

	res, err := r.col.UpdateOne(ctx, live(bson.M{"_id": user.ID.String()}), update)
	if err != nil {
		if conflict := duplicateKey(err); conflict != nil {
			return nil, conflict
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrUserNotFound
	}
	updated := *user
	return &updated, nil
}

// SoftDelete flags the document as deleted. It cannot be undone.
func (r *UserRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UTC()
	res, err := r.col.UpdateOne(ctx,
		live(bson.M{"_id": id.String()}),
		bson.M{"$set": bson.M{"deleted": true, "deleted_at": now}},
	)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// List returns a page of live users, newest first.
func (r *UserRepository) List(ctx context.Context, filter ports.ListUsersFilter) ([]*domain.User, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	q := live(bson.M{})
	if filter.Role != "" {
		q["role"] = string(filter.Role)
	}
	if filter.Status != "" {
		q["status"] = string(filter.Status)
	}

	total, err := r.col.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64((filter.Page - 1) * filter.Limit)).
		SetLimit(int64(filter.Limit))

	cursor, err := r.col.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find users: %w", err)
	}
	defer cursor.Close(ctx)

	users := make([]*domain.User, 0, filter.Limit)
	for cursor.Next(ctx) {
		var doc userDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, fmt.Errorf("decode user: %w", err)
		}
		u, err := doc.toDomain()
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users: %w", err)
	}
	return users, total, nil
}

// EnsureIndexes creates the uniqueness and lookup indexes on the users
// collection. (email, role) is unique among live documents only; phone_no
// is unique across all documents.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "email", Value: 1}, {Key: "role", Value: 1}},
			Options: options.Index().
				SetName("email_role_live").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"deleted": false}),
		},
		{
			Keys:    bson.D{{Key: "phone_no", Value: 1}},
			Options: options.Index().SetName("phone_no_unique").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "role", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("role_status_created"),
		},
	}

	if _, err := r.col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

// duplicateKey maps a duplicate-key write error to a conflict, or returns nil.
func duplicateKey(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return nil
	}
	if strings.Contains(err.Error(), "phone_no") {
		return domain.Conflict(domain.MsgPhoneExists)
	}
	return domain.Conflict(domain.MsgEmailExists)
}
