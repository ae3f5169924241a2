package application

import (
	"context"
	"errors"

	"github.com/oksasatya/linkcircle/internal/domain/apperror"
	"github.com/oksasatya/linkcircle/internal/domain/entity"
	repo "github.com/oksasatya/linkcircle/internal/domain/repository"
)

// maxWriteAttempts bounds the reload-and-reapply loop after a version conflict.
const maxWriteAttempts = 3

// mutation changes a freshly loaded user and reports whether anything changed.
type mutation func(u *entity.User) (bool, error)

// pairMutation is a mutation over two users persisted together.
type pairMutation func(first, second *entity.User) (bool, error)

// userStore is the read-modify-write loop shared by the services. Every
// attempt starts from a fresh load, so preconditions checked inside a
// mutation are re-verified against the state that is actually committed.
type userStore struct {
	repo  repo.UserRepository
	cache *ProfileCache
}

func (s userStore) load(ctx context.Context, id string) (*entity.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return u, nil
}

func (s userStore) mutate(ctx context.Context, id string, fn mutation) (*entity.User, error) {
	for attempt := 1; ; attempt++ {
		u, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		before := u.Username
		changed, err := fn(u)
		if err != nil {
			return nil, err
		}
		if !changed {
			return u, nil
		}
		err = s.repo.Update(ctx, u)
		if err == nil {
			s.cache.Invalidate(ctx, before, u.Username)
			return u, nil
		}
		if errors.Is(err, repo.ErrVersionConflict) && attempt < maxWriteAttempts {
			continue
		}
		return nil, mapRepoError(err)
	}
}

func (s userStore) mutatePair(ctx context.Context, firstID, secondID string, fn pairMutation) (*entity.User, *entity.User, error) {
	for attempt := 1; ; attempt++ {
		first, err := s.load(ctx, firstID)
		if err != nil {
			return nil, nil, err
		}
		second, err := s.load(ctx, secondID)
		if err != nil {
			return nil, nil, err
		}
		changed, err := fn(first, second)
		if err != nil {
			return nil, nil, err
		}
		if !changed {
			return first, second, nil
		}
		err = s.repo.UpdatePair(ctx, first, second)
		if err == nil {
			s.cache.Invalidate(ctx, first.Username, second.Username)
			return first, second, nil
		}
		if errors.Is(err, repo.ErrPartialCommit) {
			s.cache.Invalidate(ctx, first.Username, second.Username)
			return first, second, apperror.ConsistencyFault(err)
		}
		if errors.Is(err, repo.ErrVersionConflict) && attempt < maxWriteAttempts {
			continue
		}
		return nil, nil, mapRepoError(err)
	}
}

func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrNotFound):
		return apperror.ErrUserNotFound
	case errors.Is(err, repo.ErrDuplicateUsername):
		return apperror.ErrUsernameTaken
	case errors.Is(err, repo.ErrDuplicateEmail):
		return apperror.ErrEmailTaken
	case errors.Is(err, repo.ErrVersionConflict):
		return apperror.ErrConcurrentUpdate
	case errors.Is(err, repo.ErrPartialCommit):
		return apperror.ConsistencyFault(err)
	}
	return err
}
