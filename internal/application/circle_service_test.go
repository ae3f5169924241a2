package application

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/oksasatya/linkcircle/internal/domain/apperror"
	"github.com/oksasatya/linkcircle/internal/domain/entity"
	repo "github.com/oksasatya/linkcircle/internal/domain/repository"
	"github.com/oksasatya/linkcircle/internal/infrastructure/memory"
)

func TestRequestAndAcceptConnectsBothSides(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, nil)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	if err := f.circles.SendRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("SendRequest() error: %v", err)
	}
	if got := f.reload(t, bob.ID).CircleRequests; !slices.Equal(got, []string{alice.ID}) {
		t.Fatalf("bob.CircleRequests = %v, want [%s]", got, alice.ID)
	}
	if got := f.reload(t, alice.ID).CircleRequests; len(got) != 0 {
		t.Errorf("alice.CircleRequests = %v, want empty", got)
	}

	if err := f.circles.AcceptRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("AcceptRequest() error: %v", err)
	}
	a, b := f.reload(t, alice.ID), f.reload(t, bob.ID)
	if !slices.Equal(a.CircleMembers, []string{bob.ID}) {
		t.Errorf("alice.CircleMembers = %v, want [%s]", a.CircleMembers, bob.ID)
	}
	if !slices.Equal(b.CircleMembers, []string{alice.ID}) {
		t.Errorf("bob.CircleMembers = %v, want [%s]", b.CircleMembers, alice.ID)
	}
	if len(b.CircleRequests) != 0 {
		t.Errorf("bob.CircleRequests = %v, want empty", b.CircleRequests)
	}

	if !slices.Equal(f.notes.received, []string{"@alice->@bob"}) {
		t.Errorf("received notifications = %v", f.notes.received)
	}
	if !slices.Equal(f.notes.accepted, []string{"@alice->@bob"}) {
		t.Errorf("accepted notifications = %v", f.notes.accepted)
	}
}

func TestSendRequestTwiceConflicts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, nil)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	if err := f.circles.SendRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("SendRequest() error: %v", err)
	}
	err := f.circles.SendRequest(ctx, alice.ID, bob.ID)
	if !errors.Is(err, apperror.ErrAlreadyConnectedOrRequested) {
		t.Fatalf("second SendRequest() error = %v, want ALREADY_CONNECTED_OR_REQUESTED", err)
	}
	if apperror.KindOf(err) != apperror.KindConflict {
		t.Errorf("KindOf() = %v, want conflict", apperror.KindOf(err))
	}
	if got := f.reload(t, bob.ID).CircleRequests; len(got) != 1 {
		t.Errorf("bob.CircleRequests = %v, want one entry", got)
	}
}

func TestSendRequestToConnectionConflicts(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	f.connect(t, alice, bob)

	for _, pair := range [][2]string{{alice.ID, bob.ID}, {bob.ID, alice.ID}} {
		err := f.circles.SendRequest(context.Background(), pair[0], pair[1])
		if !errors.Is(err, apperror.ErrAlreadyConnectedOrRequested) {
			t.Errorf("SendRequest(%s, %s) error = %v, want conflict", pair[0], pair[1], err)
		}
	}
}

func TestSendRequestUnknownUsers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, nil)
	bob := f.user(t, "bob")

	if err := f.circles.SendRequest(ctx, "ghost", bob.ID); !errors.Is(err, apperror.ErrUserNotFound) {
		t.Errorf("SendRequest(ghost, bob) error = %v, want USER_NOT_FOUND", err)
	}
	if got := f.reload(t, bob.ID).CircleRequests; len(got) != 0 {
		t.Errorf("bob.CircleRequests = %v, want unchanged", got)
	}
	if err := f.circles.SendRequest(ctx, bob.ID, "ghost"); !errors.Is(err, apperror.ErrUserNotFound) {
		t.Errorf("SendRequest(bob, ghost) error = %v, want USER_NOT_FOUND", err)
	}
	if len(f.notes.received) != 0 {
		t.Errorf("notifications sent for failed requests: %v", f.notes.received)
	}
}

func TestSendRequestToSelf(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	alice := f.user(t, "alice")

	err := f.circles.SendRequest(context.Background(), alice.ID, alice.ID)
	if apperror.KindOf(err) != apperror.KindValidation {
		t.Errorf("SendRequest(self) error = %v, want a validation error", err)
	}
}

func TestAcceptWithoutRequest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, nil)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	if err := f.circles.AcceptRequest(ctx, alice.ID, bob.ID); !errors.Is(err, apperror.ErrNoSuchRequest) {
		t.Errorf("AcceptRequest() error = %v, want NO_SUCH_REQUEST", err)
	}
	if err := f.circles.AcceptRequest(ctx, alice.ID, "ghost"); !errors.Is(err, apperror.ErrUserNotFound) {
		t.Errorf("AcceptRequest(missing recipient) error = %v, want USER_NOT_FOUND", err)
	}
	if f.reload(t, alice.ID).IsConnectedTo(bob.ID) {
		t.Error("connected without a request")
	}
}

func TestAcceptSettlesCrossedRequest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, nil)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	if err := f.circles.SendRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("SendRequest() error: %v", err)
	}
	if err := f.circles.SendRequest(ctx, bob.ID, alice.ID); err != nil {
		t.Fatalf("crossed SendRequest() error: %v", err)
	}
	if err := f.circles.AcceptRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("AcceptRequest() error: %v", err)
	}
	if got := f.reload(t, alice.ID).CircleRequests; len(got) != 0 {
		t.Errorf("alice.CircleRequests = %v, want the crossed request gone", got)
	}
}

func TestDeclineIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, nil)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	if err := f.circles.DeclineRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("DeclineRequest() without request error: %v", err)
	}
	if err := f.circles.SendRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("SendRequest() error: %v", err)
	}
	if err := f.circles.DeclineRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("DeclineRequest() error: %v", err)
	}
	b := f.reload(t, bob.ID)
	if len(b.CircleRequests) != 0 || b.IsConnectedTo(alice.ID) {
		t.Errorf("bob = %+v, want no request and no connection", b)
	}
	if err := f.circles.DeclineRequest(ctx, alice.ID, "ghost"); !errors.Is(err, apperror.ErrUserNotFound) {
		t.Errorf("DeclineRequest(missing recipient) error = %v, want USER_NOT_FOUND", err)
	}
	// a declined sender may ask again
	if err := f.circles.SendRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Errorf("SendRequest() after decline error: %v", err)
	}
}

func TestAcceptLosesRaceToDecline(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := &racingRepo{UserRepository: memory.NewUserRepository()}
	f := newFixture(t, r)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	if err := f.circles.SendRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("SendRequest() error: %v", err)
	}
	r.before = func() {
		if err := f.circles.DeclineRequest(ctx, alice.ID, bob.ID); err != nil {
			t.Errorf("DeclineRequest() error: %v", err)
		}
	}

	err := f.circles.AcceptRequest(ctx, alice.ID, bob.ID)
	if !errors.Is(err, apperror.ErrNoSuchRequest) {
		t.Fatalf("AcceptRequest() error = %v, want NO_SUCH_REQUEST", err)
	}
	if f.reload(t, alice.ID).IsConnectedTo(bob.ID) || f.reload(t, bob.ID).IsConnectedTo(alice.ID) {
		t.Error("connection created for a declined request")
	}
}

func TestPartialAcceptIsConsistencyFault(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, partialRepo{memory.NewUserRepository()})
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	if err := f.circles.SendRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("SendRequest() error: %v", err)
	}

	err := f.circles.AcceptRequest(ctx, alice.ID, bob.ID)
	if apperror.KindOf(err) != apperror.KindConsistencyFault {
		t.Fatalf("AcceptRequest() error = %v, want a consistency fault", err)
	}
	if !errors.Is(err, apperror.ErrConsistencyFault) || !errors.Is(err, repo.ErrPartialCommit) {
		t.Errorf("error chain = %v, want CONSISTENCY_FAULT wrapping ErrPartialCommit", err)
	}
	if len(f.notes.accepted) != 0 {
		t.Errorf("acceptance notified after a fault: %v", f.notes.accepted)
	}
	// the recipient side was committed, the sender side was not
	if !f.reload(t, bob.ID).IsConnectedTo(alice.ID) {
		t.Error("bob side not committed")
	}
	if f.reload(t, alice.ID).IsConnectedTo(bob.ID) {
		t.Error("alice side committed, want one-sided state")
	}
}

func TestDisconnectRemovesBothSidesAndCircles(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, nil)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	f.connect(t, alice, bob)

	circles, err := f.circles.CreateCircle(ctx, bob.ID, "Inner Circle")
	if err != nil {
		t.Fatalf("CreateCircle() error: %v", err)
	}
	ref := entity.CircleRef{ID: circles[0].ID}
	if _, err := f.circles.AddMember(ctx, bob.ID, ref, alice.ID); err != nil {
		t.Fatalf("AddMember() error: %v", err)
	}

	if err := f.circles.Disconnect(ctx, bob.ID, alice.ID); err != nil {
		t.Fatalf("Disconnect() error: %v", err)
	}
	a, b := f.reload(t, alice.ID), f.reload(t, bob.ID)
	if a.IsConnectedTo(bob.ID) || b.IsConnectedTo(alice.ID) {
		t.Error("still connected after Disconnect")
	}
	if c := b.Circles[0]; len(c.Members) != 0 || len(c.Order) != 0 {
		t.Errorf("circle = %+v, want empty", c)
	}
	if err := f.circles.Disconnect(ctx, bob.ID, alice.ID); err != nil {
		t.Errorf("second Disconnect() error: %v", err)
	}
}

func TestCircleMembershipScenario(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, nil)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	f.connect(t, alice, bob)

	circles, err := f.circles.CreateCircle(ctx, bob.ID, "Inner Circle")
	if err != nil {
		t.Fatalf("CreateCircle() error: %v", err)
	}
	if len(circles) != 1 || circles[0].Name != "Inner Circle" || circles[0].ID == "" {
		t.Fatalf("CreateCircle() = %+v", circles)
	}
	ref := entity.ParseCircleRef("0")

	c, err := f.circles.AddMember(ctx, bob.ID, ref, alice.ID)
	if err != nil {
		t.Fatalf("AddMember() error: %v", err)
	}
	if !slices.Equal(c.Members, []string{alice.ID}) || !slices.Equal(c.Order, []string{alice.ID}) {
		t.Errorf("circle = %+v, want alice in members and order", c)
	}

	c, err = f.circles.RemoveMember(ctx, bob.ID, ref, alice.ID)
	if err != nil {
		t.Fatalf("RemoveMember() error: %v", err)
	}
	if len(c.Members) != 0 || len(c.Order) != 0 {
		t.Errorf("circle = %+v, want empty", c)
	}
	if !f.reload(t, bob.ID).IsConnectedTo(alice.ID) {
		t.Error("RemoveMember dropped the connection")
	}
}

func TestAddMemberRequiresConnection(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, nil)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	circles, err := f.circles.CreateCircle(ctx, bob.ID, "Friends")
	if err != nil {
		t.Fatalf("CreateCircle() error: %v", err)
	}
	ref := entity.CircleRef{ID: circles[0].ID}
	if _, err := f.circles.AddMember(ctx, bob.ID, ref, alice.ID); !errors.Is(err, apperror.ErrNotAConnection) {
		t.Errorf("AddMember(stranger) error = %v, want NOT_A_CONNECTION", err)
	}
	if _, err := f.circles.AddMember(ctx, bob.ID, ref, " "); !errors.Is(err, apperror.ErrMissingField) {
		t.Errorf("AddMember(blank) error = %v, want MISSING_FIELD", err)
	}
}

func TestCircleNotFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, nil)
	bob := f.user(t, "bob")
	name := "x"

	refs := []entity.CircleRef{entity.ParseCircleRef("0"), entity.ParseCircleRef("missing-id")}
	for _, ref := range refs {
		if _, err := f.circles.UpdateCircle(ctx, bob.ID, ref, CircleUpdate{Name: &name}); !errors.Is(err, apperror.ErrCircleNotFound) {
			t.Errorf("UpdateCircle(%s) error = %v, want CIRCLE_NOT_FOUND", ref, err)
		}
		if _, err := f.circles.DeleteCircle(ctx, bob.ID, ref); !errors.Is(err, apperror.ErrCircleNotFound) {
			t.Errorf("DeleteCircle(%s) error = %v, want CIRCLE_NOT_FOUND", ref, err)
		}
		if _, err := f.circles.MoveCircle(ctx, bob.ID, ref, 0); !errors.Is(err, apperror.ErrCircleNotFound) {
			t.Errorf("MoveCircle(%s) error = %v, want CIRCLE_NOT_FOUND", ref, err)
		}
	}
}

func TestCreateCircleRequiresName(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	bob := f.user(t, "bob")

	if _, err := f.circles.CreateCircle(context.Background(), bob.ID, "  "); !errors.Is(err, apperror.ErrMissingField) {
		t.Errorf("CreateCircle(blank) error = %v, want MISSING_FIELD", err)
	}
}

func TestRenameAndReorder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, nil)
	bob := f.user(t, "bob")
	alice := f.user(t, "alice")
	carol := f.user(t, "carol")
	f.connect(t, alice, bob)
	f.connect(t, carol, bob)

	circles, err := f.circles.CreateCircle(ctx, bob.ID, "Friends")
	if err != nil {
		t.Fatalf("CreateCircle() error: %v", err)
	}
	ref := entity.CircleRef{ID: circles[0].ID}
	for _, id := range []string{alice.ID, carol.ID} {
		if _, err := f.circles.AddMember(ctx, bob.ID, ref, id); err != nil {
			t.Fatalf("AddMember() error: %v", err)
		}
	}

	c, err := f.circles.RenameCircle(ctx, bob.ID, ref, "Best friends")
	if err != nil {
		t.Fatalf("RenameCircle() error: %v", err)
	}
	if c.Name != "Best friends" || !slices.Equal(c.Order, []string{alice.ID, carol.ID}) {
		t.Errorf("after rename circle = %+v", c)
	}

	c, err = f.circles.ReorderCircle(ctx, bob.ID, ref, []string{carol.ID, alice.ID})
	if err != nil {
		t.Fatalf("ReorderCircle() error: %v", err)
	}
	if !slices.Equal(c.Order, []string{carol.ID, alice.ID}) {
		t.Errorf("Order = %v, want [carol alice]", c.Order)
	}
	if c.Name != "Best friends" {
		t.Errorf("Name = %q, reorder must not rename", c.Name)
	}

	bad := [][]string{
		{carol.ID},
		{carol.ID, carol.ID},
		{carol.ID, alice.ID, bob.ID},
		{carol.ID, "stranger"},
	}
	for _, order := range bad {
		if _, err := f.circles.ReorderCircle(ctx, bob.ID, ref, order); !errors.Is(err, apperror.ErrInvalidOrder) {
			t.Errorf("ReorderCircle(%v) error = %v, want INVALID_ORDER", order, err)
		}
	}
	if _, err := f.circles.RenameCircle(ctx, bob.ID, ref, " "); !errors.Is(err, apperror.ErrMissingField) {
		t.Errorf("RenameCircle(blank) error = %v, want MISSING_FIELD", err)
	}

	got := f.reload(t, bob.ID).Circles[0]
	if !got.Consistent() {
		t.Errorf("stored circle %+v is inconsistent", got)
	}
}

func TestDeleteCircleShiftsPositions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, nil)
	bob := f.user(t, "bob")
	for _, n := range []string{"A", "B", "C"} {
		if _, err := f.circles.CreateCircle(ctx, bob.ID, n); err != nil {
			t.Fatalf("CreateCircle(%s) error: %v", n, err)
		}
	}
	before := f.reload(t, bob.ID).Circles

	circles, err := f.circles.DeleteCircle(ctx, bob.ID, entity.ParseCircleRef("1"))
	if err != nil {
		t.Fatalf("DeleteCircle() error: %v", err)
	}
	if len(circles) != 2 {
		t.Fatalf("len(circles) = %d, want 2", len(circles))
	}
	if circles[0].ID != before[0].ID || circles[0].Position != 0 {
		t.Errorf("circles[0] = %+v, want %s unchanged", circles[0], before[0].ID)
	}
	if circles[1].ID != before[2].ID || circles[1].Position != 1 {
		t.Errorf("circles[1] = %+v, want %s at position 1", circles[1], before[2].ID)
	}

	// ids stay valid after a delete shifted positions
	name := "C2"
	if _, err := f.circles.UpdateCircle(ctx, bob.ID, entity.CircleRef{ID: before[2].ID}, CircleUpdate{Name: &name}); err != nil {
		t.Errorf("UpdateCircle(by id) after delete error: %v", err)
	}
}

func TestMoveCircle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t, nil)
	bob := f.user(t, "bob")
	for _, n := range []string{"A", "B", "C"} {
		if _, err := f.circles.CreateCircle(ctx, bob.ID, n); err != nil {
			t.Fatalf("CreateCircle(%s) error: %v", n, err)
		}
	}

	circles, err := f.circles.MoveCircle(ctx, bob.ID, entity.ParseCircleRef("2"), 0)
	if err != nil {
		t.Fatalf("MoveCircle() error: %v", err)
	}
	var got []string
	for _, c := range circles {
		got = append(got, c.Name)
	}
	if !slices.Equal(got, []string{"C", "A", "B"}) {
		t.Errorf("names = %v, want [C A B]", got)
	}
}

func TestConcurrentUpdateRetries(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := &racingRepo{UserRepository: memory.NewUserRepository()}
	f := newFixture(t, r)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	carol := f.user(t, "carol")
	if err := f.circles.SendRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("SendRequest() error: %v", err)
	}
	r.before = func() {
		if err := f.circles.SendRequest(ctx, carol.ID, bob.ID); err != nil {
			t.Errorf("interleaved SendRequest() error: %v", err)
		}
	}

	if err := f.circles.AcceptRequest(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("AcceptRequest() error: %v", err)
	}
	b := f.reload(t, bob.ID)
	if !b.IsConnectedTo(alice.ID) {
		t.Error("accept lost after retry")
	}
	if !slices.Equal(b.CircleRequests, []string{carol.ID}) {
		t.Errorf("bob.CircleRequests = %v, want the interleaved request kept", b.CircleRequests)
	}
}
