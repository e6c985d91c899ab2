// Package mongorepo is the MongoDB credential store.
package mongorepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jrsteele09/go-account-service/internal/config"
	"github.com/jrsteele09/go-account-service/internal/errors"
	"github.com/jrsteele09/go-account-service/users"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const collectionName = "users"

var _ users.Repo = (*Repo)(nil)

// Repo stores users in a single collection. Uniqueness of username, email and
// google id is enforced by indexes so concurrent sign-ups cannot both succeed.
type Repo struct {
	coll    *mongo.Collection
	timeout time.Duration
	now     func() time.Time
}

// Connect opens a client for cfg and checks the server is reachable.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().
		ApplyURI(cfg.GetMongoURI()).
		SetTimeout(cfg.GetDBTimeout()))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, cfg.GetDBTimeout())
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// New returns a Repo over db and makes sure the indexes exist.
func New(ctx context.Context, db *mongo.Database, timeout time.Duration) (*Repo, error) {
	r := &Repo{
		coll:    db.Collection(collectionName),
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
	if err := r.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Repo) ensureIndexes(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("username_unique"),
		},
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique").
				SetPartialFilterExpression(bson.M{"email": bson.M{"$type": "string"}}),
		},
		{
			Keys: bson.D{{Key: "googleId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("google_id_unique").
				SetPartialFilterExpression(bson.M{"googleId": bson.M{"$type": "string"}}),
		},
		{
			Keys: bson.D{{Key: "refreshToken", Value: 1}},
			Options: options.Index().SetName("refresh_token").
				SetPartialFilterExpression(bson.M{"refreshToken": bson.M{"$type": "string"}}),
		},
	})
	return translateError("create indexes", err)
}

func (r *Repo) Create(ctx context.Context, nu users.NewUser) (*users.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	now := r.now()
	doc := userDocument{
		ID:        bson.NewObjectID(),
		GoogleID:  nu.GoogleID,
		Name:      nu.Name,
		Username:  nu.Username,
		Email:     strings.ToLower(nu.Email),
		Password:  nu.PasswordHash,
		Avatar:    nu.Avatar,
		Roles:     rolesToStrings(nu.Roles),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, translateError("insert user", err)
	}
	return doc.toUser(), nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*users.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *Repo) GetByFederatedID(ctx context.Context, googleID string) (*users.User, error) {
	if googleID == "" {
		return nil, errors.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"googleId": googleID})
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	if email == "" {
		return nil, errors.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"email": strings.ToLower(email)})
}

func (r *Repo) GetByRefreshToken(ctx context.Context, refreshToken string) (*users.User, error) {
	if refreshToken == "" {
		return nil, errors.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"refreshToken": refreshToken})
}

func (r *Repo) UpdateRefreshToken(ctx context.Context, id, refreshToken string) (*users.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, errors.ErrNotFound
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var doc userDocument
	err = r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		refreshTokenUpdate(refreshToken, r.now()),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return nil, translateError("update refresh token", err)
	}
	return doc.toUser(), nil
}

func (r *Repo) findOne(ctx context.Context, filter bson.M) (*users.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translateError("find user", err)
	}
	return doc.toUser(), nil
}

func (r *Repo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

// refreshTokenUpdate unsets the field when clearing so the partial index and
// lookups never see an empty token.
func refreshTokenUpdate(refreshToken string, now time.Time) bson.M {
	if refreshToken == "" {
		return bson.M{
			"$unset": bson.M{"refreshToken": ""},
			"$set":   bson.M{"updatedAt": now},
		}
	}
	return bson.M{"$set": bson.M{"refreshToken": refreshToken, "updatedAt": now}}
}

// translateError maps driver errors onto the store error kinds.
func translateError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return errors.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return errors.ErrDuplicateIdentity
	case errors.Is(err, context.DeadlineExceeded), mongo.IsTimeout(err), mongo.IsNetworkError(err):
		return fmt.Errorf("%s: %w: %w", op, errors.ErrTransientStore, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
