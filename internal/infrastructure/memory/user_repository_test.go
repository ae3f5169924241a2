package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/oksasatya/linkcircle/internal/domain/entity"
	"github.com/oksasatya/linkcircle/internal/domain/repository"
)

func seed(t *testing.T, r *UserRepository, email, username string) *entity.User {
	t.Helper()
	u := &entity.User{Email: email, Username: username}
	if err := r.Create(context.Background(), u); err != nil {
		t.Fatalf("Create(%s) error: %v", username, err)
	}
	return u
}

func TestCreateAssignsIDAndVersion(t *testing.T) {
	t.Parallel()
	r := NewUserRepository()
	u := seed(t, r, "a@example.com", "@a")

	if u.ID == "" {
		t.Fatal("ID is empty after Create")
	}
	if u.Version != 1 {
		t.Errorf("Version = %d, want 1", u.Version)
	}
	if u.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestCreateRejectsDuplicates(t *testing.T) {
	t.Parallel()
	r := NewUserRepository()
	seed(t, r, "a@example.com", "@a")

	err := r.Create(context.Background(), &entity.User{Email: "a@example.com", Username: "@other"})
	if !errors.Is(err, repository.ErrDuplicateEmail) {
		t.Errorf("duplicate email error = %v, want ErrDuplicateEmail", err)
	}
	err = r.Create(context.Background(), &entity.User{Email: "b@example.com", Username: "@a"})
	if !errors.Is(err, repository.ErrDuplicateUsername) {
		t.Errorf("duplicate username error = %v, want ErrDuplicateUsername", err)
	}
}

func TestLookups(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := NewUserRepository()
	u := seed(t, r, "a@example.com", "@a")

	if got, err := r.GetByEmail(ctx, " A@Example.com"); err != nil || got.ID != u.ID {
		t.Errorf("GetByEmail() = %v, %v; want %s", got, err, u.ID)
	}
	if got, err := r.GetByUsername(ctx, "@a"); err != nil || got.ID != u.ID {
		t.Errorf("GetByUsername() = %v, %v; want %s", got, err, u.ID)
	}
	if _, err := r.GetByID(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("GetByID(missing) error = %v, want ErrNotFound", err)
	}
}

func TestReturnedValuesAreCopies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := NewUserRepository()
	u := seed(t, r, "a@example.com", "@a")

	got, _ := r.GetByID(ctx, u.ID)
	got.Name = "mutated"
	got.CircleMembers = append(got.CircleMembers, "x")

	again, _ := r.GetByID(ctx, u.ID)
	if again.Name != "" || len(again.CircleMembers) != 0 {
		t.Errorf("stored user changed through a returned pointer: %+v", again)
	}
}

func TestUpdateChecksVersion(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := NewUserRepository()
	u := seed(t, r, "a@example.com", "@a")

	first, _ := r.GetByID(ctx, u.ID)
	stale, _ := r.GetByID(ctx, u.ID)

	first.Name = "First"
	if err := r.Update(ctx, first); err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if first.Version != 2 {
		t.Errorf("Version after Update = %d, want 2", first.Version)
	}

	stale.Name = "Stale"
	if err := r.Update(ctx, stale); !errors.Is(err, repository.ErrVersionConflict) {
		t.Errorf("stale Update() error = %v, want ErrVersionConflict", err)
	}
	got, _ := r.GetByID(ctx, u.ID)
	if got.Name != "First" {
		t.Errorf("Name = %q, want First", got.Name)
	}
}

func TestUpdateRejectsTakenUsername(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := NewUserRepository()
	seed(t, r, "a@example.com", "@a")
	b := seed(t, r, "b@example.com", "@b")

	b.Username = "@a"
	if err := r.Update(ctx, b); !errors.Is(err, repository.ErrDuplicateUsername) {
		t.Errorf("Update() error = %v, want ErrDuplicateUsername", err)
	}
}

func TestUpdatePairIsAllOrNothing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := NewUserRepository()
	a := seed(t, r, "a@example.com", "@a")
	b := seed(t, r, "b@example.com", "@b")

	staleB, _ := r.GetByID(ctx, b.ID)
	bump, _ := r.GetByID(ctx, b.ID)
	if err := r.Update(ctx, bump); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	freshA, _ := r.GetByID(ctx, a.ID)
	freshA.AddConnection(b.ID)
	staleB.AddConnection(a.ID)
	if err := r.UpdatePair(ctx, freshA, staleB); !errors.Is(err, repository.ErrVersionConflict) {
		t.Fatalf("UpdatePair() error = %v, want ErrVersionConflict", err)
	}

	got, _ := r.GetByID(ctx, a.ID)
	if got.IsConnectedTo(b.ID) {
		t.Error("first record written although the pair was rejected")
	}
}

func TestListIsOrderedByCreation(t *testing.T) {
	t.Parallel()
	r := NewUserRepository()
	seed(t, r, "a@example.com", "@a")
	seed(t, r, "b@example.com", "@b")
	seed(t, r, "c@example.com", "@c")

	users, err := r.List(context.Background())
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("len(List()) = %d, want 3", len(users))
	}
	for i := 1; i < len(users); i++ {
		if users[i].CreatedAt.Before(users[i-1].CreatedAt) {
			t.Errorf("users[%d] created before users[%d]", i, i-1)
		}
	}
}
