package application

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/linkcircle/internal/domain/entity"
	repo "github.com/oksasatya/linkcircle/internal/domain/repository"
	"github.com/oksasatya/linkcircle/internal/infrastructure/memory"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fixture struct {
	repo     repo.UserRepository
	profiles *ProfileService
	circles  *CircleService
	notes    *recordingNotifier
}

func newFixture(t *testing.T, r repo.UserRepository) *fixture {
	t.Helper()
	if r == nil {
		r = memory.NewUserRepository()
	}
	notes := &recordingNotifier{}
	return &fixture{
		repo:     r,
		profiles: NewProfileService(r, nil, nil, nil, quietLogger()),
		circles:  NewCircleService(r, nil, notes, quietLogger()),
		notes:    notes,
	}
}

func (f *fixture) user(t *testing.T, username string) *entity.User {
	t.Helper()
	u, err := f.profiles.CreateUser(context.Background(), CreateUserInput{
		Email:    username + "@example.com",
		Username: username,
	})
	if err != nil {
		t.Fatalf("CreateUser(%s) error: %v", username, err)
	}
	return u
}

func (f *fixture) reload(t *testing.T, id string) *entity.User {
	t.Helper()
	u, err := f.repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID(%s) error: %v", id, err)
	}
	return u
}

// connect runs the full request protocol between a and b.
func (f *fixture) connect(t *testing.T, a, b *entity.User) {
	t.Helper()
	ctx := context.Background()
	if err := f.circles.SendRequest(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("SendRequest() error: %v", err)
	}
	if err := f.circles.AcceptRequest(ctx, a.ID, b.ID); err != nil {
		t.Fatalf("AcceptRequest() error: %v", err)
	}
}

type recordingNotifier struct {
	mu       sync.Mutex
	received []string
	accepted []string
}

func (n *recordingNotifier) RequestReceived(_ context.Context, recipient, sender *entity.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.received = append(n.received, sender.Username+"->"+recipient.Username)
}

func (n *recordingNotifier) RequestAccepted(_ context.Context, sender, recipient *entity.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.accepted = append(n.accepted, sender.Username+"->"+recipient.Username)
}

// partialRepo commits the first record of a pair and then fails, leaving a
// one-sided write behind the way a non-transactional store can.
type partialRepo struct {
	*memory.UserRepository
}

func (r partialRepo) UpdatePair(ctx context.Context, first, second *entity.User) error {
	if err := r.UserRepository.Update(ctx, first); err != nil {
		return err
	}
	return repo.ErrPartialCommit
}

// racingRepo runs before once, ahead of the first pair write, so the write
// sees records that changed after they were loaded.
type racingRepo struct {
	*memory.UserRepository
	once   sync.Once
	before func()
}

func (r *racingRepo) UpdatePair(ctx context.Context, first, second *entity.User) error {
	r.once.Do(r.before)
	return r.UserRepository.UpdatePair(ctx, first, second)
}
