package application

import (
	"context"
	"errors"
	"testing"

	"github.com/oksasatya/linkcircle/internal/domain/entity"
	"github.com/oksasatya/linkcircle/pkg/mailer"
	mailtpl "github.com/oksasatya/linkcircle/pkg/mailer/templates"
)

type fakePublisher struct {
	jobs []mailer.EmailJob
	err  error
}

func (p *fakePublisher) PublishJSON(_ context.Context, body any) error {
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, body.(mailer.EmailJob))
	return nil
}

func TestQueueNotifierJobs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	pub := &fakePublisher{}
	n := NewQueueNotifier(pub, mailtpl.Branding{AppName: "linkcircle", PublicBaseURL: "https://lc.example/"}, quietLogger())
	alice := &entity.User{Email: "alice@example.com", Username: "@alice", Name: "Alice"}
	bob := &entity.User{Email: "bob@example.com", Username: "@bob", Name: "Bob"}

	n.RequestReceived(ctx, bob, alice)
	n.RequestAccepted(ctx, alice, bob)

	if len(pub.jobs) != 2 {
		t.Fatalf("published %d jobs, want 2", len(pub.jobs))
	}
	req := pub.jobs[0]
	if req.To != "bob@example.com" || req.Template != mailtpl.CircleRequest {
		t.Errorf("request job = %+v", req)
	}
	if got := req.Data["ActorUsername"]; got != "@alice" {
		t.Errorf("ActorUsername = %v, want @alice", got)
	}
	if got := req.Data["ProfileURL"]; got != "https://lc.example/alice" {
		t.Errorf("ProfileURL = %v, want https://lc.example/alice", got)
	}

	acc := pub.jobs[1]
	if acc.To != "alice@example.com" || acc.Template != mailtpl.CircleAccepted {
		t.Errorf("accepted job = %+v", acc)
	}
	if got := acc.Data["ActorName"]; got != "Bob" {
		t.Errorf("ActorName = %v, want Bob", got)
	}
}

func TestQueueNotifierSwallowsErrors(t *testing.T) {
	t.Parallel()
	pub := &fakePublisher{err: errors.New("channel closed")}
	n := NewQueueNotifier(pub, mailtpl.Branding{}, quietLogger())

	n.RequestReceived(context.Background(), &entity.User{Email: "b@example.com"}, &entity.User{})
	if len(pub.jobs) != 0 {
		t.Errorf("jobs = %v, want none", pub.jobs)
	}

	// users without an address are skipped
	pub.err = nil
	n.RequestAccepted(context.Background(), &entity.User{}, &entity.User{Email: "b@example.com"})
	if len(pub.jobs) != 0 {
		t.Errorf("jobs = %v, want none for a user without email", pub.jobs)
	}
}
