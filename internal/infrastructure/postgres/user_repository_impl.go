package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/linkcircle/internal/domain/entity"
	"github.com/oksasatya/linkcircle/internal/domain/repository"
)

const userColumns = `id, email, username, name, bio, headline, socials, profile_image, links,
	circle_members, circle_requests, circles, version, created_at, updated_at`

const uniqueViolation = "23505"

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	doc, err := encodeDoc(u)
	if err != nil {
		return err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, username, name, bio, headline, socials, profile_image, links,
			circle_members, circle_requests, circles, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 1)
		RETURNING version, created_at, updated_at
	`, u.ID, u.Email, u.Username, u.Name, u.Bio, u.Headline, doc.socials, u.ProfileImage, doc.links,
		doc.members, doc.requests, doc.circles)

	if err := row.Scan(&u.Version, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return mapWriteError(err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		// not a uuid, so it cannot match the column
		return nil, repository.ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *UserRepository) List(ctx context.Context) ([]*entity.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	return update(ctx, r.pool, u)
}

// UpdatePair writes both users in a single transaction; either both
// version checks pass and both rows change, or nothing is committed.
func (r *UserRepository) UpdatePair(ctx context.Context, first, second *entity.User) error {
	firstVersion, secondVersion := first.Version, second.Version
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := update(ctx, tx, first); err != nil {
			return err
		}
		return update(ctx, tx, second)
	})
	if err != nil {
		// rolled back, so the in-memory values must not look persisted
		first.Version, second.Version = firstVersion, secondVersion
		return err
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, sql string, arg any) (*entity.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, sql, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func update(ctx context.Context, q querier, u *entity.User) error {
	doc, err := encodeDoc(u)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	res, err := q.Exec(ctx, `
		UPDATE users
		SET email = $1, username = $2, name = $3, bio = $4, headline = $5, socials = $6,
			profile_image = $7, links = $8, circle_members = $9, circle_requests = $10,
			circles = $11, version = version + 1, updated_at = $12
		WHERE id = $13 AND version = $14
	`, u.Email, u.Username, u.Name, u.Bio, u.Headline, doc.socials, u.ProfileImage, doc.links,
		doc.members, doc.requests, doc.circles, now, u.ID, u.Version)
	if err != nil {
		return mapWriteError(err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrVersionConflict
	}
	u.Version++
	u.UpdatedAt = now
	return nil
}

type encodedDoc struct {
	socials  []byte
	links    []byte
	circles  []byte
	members  []string
	requests []string
}

func encodeDoc(u *entity.User) (encodedDoc, error) {
	var (
		d   encodedDoc
		err error
	)
	socials := u.Socials
	if socials == nil {
		socials = entity.Socials{}
	}
	if d.socials, err = json.Marshal(socials); err != nil {
		return d, fmt.Errorf("encode socials: %w", err)
	}
	if d.links, err = json.Marshal(nonNil(u.Links)); err != nil {
		return d, fmt.Errorf("encode links: %w", err)
	}
	if d.circles, err = json.Marshal(nonNil(u.Circles)); err != nil {
		return d, fmt.Errorf("encode circles: %w", err)
	}
	d.members = nonNil(u.CircleMembers)
	d.requests = nonNil(u.CircleRequests)
	return d, nil
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	var socials, links, circles []byte
	if err := row.Scan(&u.ID, &u.Email, &u.Username, &u.Name, &u.Bio, &u.Headline, &socials,
		&u.ProfileImage, &links, &u.CircleMembers, &u.CircleRequests, &circles, &u.Version,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(socials, &u.Socials); err != nil {
		return nil, fmt.Errorf("decode socials: %w", err)
	}
	if err := json.Unmarshal(links, &u.Links); err != nil {
		return nil, fmt.Errorf("decode links: %w", err)
	}
	if err := json.Unmarshal(circles, &u.Circles); err != nil {
		return nil, fmt.Errorf("decode circles: %w", err)
	}
	u.SortCircles()
	return u, nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case "users_email_key":
			return repository.ErrDuplicateEmail
		case "users_username_key":
			return repository.ErrDuplicateUsername
		}
	}
	return err
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

var _ repository.UserRepository = (*UserRepository)(nil)
