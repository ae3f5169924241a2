package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/linkcircle/internal/domain/entity"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateEmail    = errors.New("duplicate email")
	ErrDuplicateUsername = errors.New("duplicate username")
	// ErrVersionConflict means the record changed since it was read.
	ErrVersionConflict = errors.New("version conflict")
	// ErrPartialCommit means UpdatePair wrote the first record but not the second.
	ErrPartialCommit = errors.New("partial commit")
)

// UserRepository defines the interface for user-related storage operations.
//
// Writes are conditional on User.Version matching the stored version; on
// success the repository increments Version and sets UpdatedAt on the
// passed value.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	List(ctx context.Context) ([]*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	// UpdatePair persists two users as one unit. Implementations without
	// multi-record transactions write first then second and return
	// ErrPartialCommit if only the first write landed.
	UpdatePair(ctx context.Context, first, second *entity.User) error
}
