package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/linkcircle/internal/domain/entity"
	"github.com/oksasatya/linkcircle/internal/domain/repository"
)

// UserRepository keeps users in process memory. Values are cloned on the
// way in and out, so callers never share state with the store.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*entity.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*entity.User)}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkUnique(u); err != nil {
		return err
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	u.Version = 1
	r.users[u.ID] = u.Clone()
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u.Clone(), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	email = entity.NormalizeEmail(email)
	return r.find(func(u *entity.User) bool { return u.Email == email })
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.Username == username })
}

func (r *UserRepository) List(ctx context.Context) ([]*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*entity.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkWritable(u); err != nil {
		return err
	}
	r.put(u)
	return nil
}

// UpdatePair is atomic here: both versions are checked before either record is written.
func (r *UserRepository) UpdatePair(ctx context.Context, first, second *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkWritable(first); err != nil {
		return err
	}
	if err := r.checkWritable(second); err != nil {
		return err
	}
	r.put(first)
	r.put(second)
	return nil
}

func (r *UserRepository) find(match func(*entity.User) bool) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if match(u) {
			return u.Clone(), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) checkUnique(u *entity.User) error {
	for id, other := range r.users {
		if id == u.ID {
			continue
		}
		if other.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
		if other.Username == u.Username {
			return repository.ErrDuplicateUsername
		}
	}
	return nil
}

func (r *UserRepository) checkWritable(u *entity.User) error {
	cur, ok := r.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if cur.Version != u.Version {
		return repository.ErrVersionConflict
	}
	return r.checkUnique(u)
}

func (r *UserRepository) put(u *entity.User) {
	u.Version++
	u.UpdatedAt = time.Now().UTC()
	r.users[u.ID] = u.Clone()
}

var _ repository.UserRepository = (*UserRepository)(nil)
