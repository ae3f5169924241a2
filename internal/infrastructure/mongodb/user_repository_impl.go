package mongodb

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

	"github.com/oksasatya/linkcircle/internal/domain/entity"
	"github.com/oksasatya/linkcircle/internal/domain/repository"
)

const usersCollection = "users"

// userDoc is the stored shape: the whole aggregate in one document, with
// the camelCase field names the profile pages were built against.
type userDoc struct {
	ID             string            `bson:"_id"`
	Email          string            `bson:"email"`
	Username       string            `bson:"username"`
	Name           string            `bson:"name"`
	Bio            string            `bson:"bio"`
	Headline       string            `bson:"headline"`
	Socials        map[string]string `bson:"socials"`
	ProfileImage   string            `bson:"profileImage"`
	Links          []entity.Link     `bson:"links"`
	CircleMembers  []string          `bson:"circleMembers"`
	CircleRequests []string          `bson:"circleRequests"`
	Circles        []entity.Circle   `bson:"circles"`
	Version        int64             `bson:"version"`
	CreatedAt      time.Time         `bson:"createdAt"`
	UpdatedAt      time.Time         `bson:"updatedAt"`
}

type UserRepository struct {
	client       *mongo.Client
	coll         *mongo.Collection
	transactions bool
}

// NewUserRepository binds to db.users. transactions enables multi-document
// transactions for UpdatePair and requires a replica set.
func NewUserRepository(client *mongo.Client, db string, transactions bool) *UserRepository {
	return &UserRepository{
		client:       client,
		coll:         client.Database(db).Collection(usersCollection),
		transactions: transactions,
	}
}

// Connect dials MongoDB and verifies the connection.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	c, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(c, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(c, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// EnsureIndexes creates the unique indexes that back email and username uniqueness.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("email_1")},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName("username_1")},
	})
	return err
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt, u.Version = now, now, 1
	if _, err := r.coll.InsertOne(ctx, toDoc(u)); err != nil {
		u.Version = 0
		return mapWriteError(err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, bson.M{"email": entity.NormalizeEmail(email)})
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) List(ctx context.Context) ([]*entity.User, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer func() { _ = cur.Close(ctx) }()

	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*entity.User, 0, len(docs))
	for i := range docs {
		out = append(out, fromDoc(&docs[i]))
	}
	return out, nil
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	return r.replace(ctx, u)
}

func (r *UserRepository) UpdatePair(ctx context.Context, first, second *entity.User) error {
	if r.transactions {
		return r.updatePairTx(ctx, first, second)
	}
	if err := r.replace(ctx, first); err != nil {
		return err
	}
	if err := r.replace(ctx, second); err != nil {
		return fmt.Errorf("%w: user %s written, user %s not: %v", repository.ErrPartialCommit, first.ID, second.ID, err)
	}
	return nil
}

func (r *UserRepository) updatePairTx(ctx context.Context, first, second *entity.User) error {
	sess, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	firstVersion, secondVersion := first.Version, second.Version
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		// the callback may run more than once on transient errors
		first.Version, second.Version = firstVersion, secondVersion
		if err := r.replace(sc, first); err != nil {
			return nil, err
		}
		return nil, r.replace(sc, second)
	})
	if err != nil {
		first.Version, second.Version = firstVersion, secondVersion
		return err
	}
	return nil
}

func (r *UserRepository) replace(ctx context.Context, u *entity.User) error {
	next := u.Clone()
	next.Version = u.Version + 1
	next.UpdatedAt = time.Now().UTC()

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": u.ID, "version": u.Version}, toDoc(next))
	if err != nil {
		return mapWriteError(err)
	}
	if res.MatchedCount == 0 {
		n, cErr := r.coll.CountDocuments(ctx, bson.M{"_id": u.ID})
		if cErr == nil && n == 0 {
			return repository.ErrNotFound
		}
		return repository.ErrVersionConflict
	}
	u.Version = next.Version
	u.UpdatedAt = next.UpdatedAt
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*entity.User, error) {
	var d userDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return fromDoc(&d), nil
}

func mapWriteError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		msg := err.Error()
		switch {
		case strings.Contains(msg, "email_1"):
			return repository.ErrDuplicateEmail
		case strings.Contains(msg, "username_1"):
			return repository.ErrDuplicateUsername
		}
	}
	return err
}

func toDoc(u *entity.User) userDoc {
	return userDoc{
		ID:             u.ID,
		Email:          u.Email,
		Username:       u.Username,
		Name:           u.Name,
		Bio:            u.Bio,
		Headline:       u.Headline,
		Socials:        u.Socials,
		ProfileImage:   u.ProfileImage,
		Links:          nonNil(u.Links),
		CircleMembers:  nonNil(u.CircleMembers),
		CircleRequests: nonNil(u.CircleRequests),
		Circles:        nonNil(u.Circles),
		Version:        u.Version,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func fromDoc(d *userDoc) *entity.User {
	u := &entity.User{
		ID:             d.ID,
		Email:          d.Email,
		Username:       d.Username,
		Name:           d.Name,
		Bio:            d.Bio,
		Headline:       d.Headline,
		Socials:        d.Socials,
		ProfileImage:   d.ProfileImage,
		Links:          d.Links,
		CircleMembers:  d.CircleMembers,
		CircleRequests: d.CircleRequests,
		Circles:        d.Circles,
		Version:        d.Version,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
	u.SortCircles()
	return u
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

var _ repository.UserRepository = (*UserRepository)(nil)
