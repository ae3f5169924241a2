package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/linkcircle/internal/domain/entity"
	"github.com/oksasatya/linkcircle/pkg/mailer"
	mailtpl "github.com/oksasatya/linkcircle/pkg/mailer/templates"
)

// Publisher puts a JSON message on the notification queue.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// QueueNotifier turns request protocol transitions into email jobs for the
// notification worker.
type QueueNotifier struct {
	Pub      Publisher
	Branding mailtpl.Branding
	Logger   *logrus.Logger
}

func NewQueueNotifier(pub Publisher, b mailtpl.Branding, logger *logrus.Logger) *QueueNotifier {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &QueueNotifier{Pub: pub, Branding: b, Logger: logger}
}

func (n *QueueNotifier) RequestReceived(ctx context.Context, recipient, sender *entity.User) {
	n.publish(ctx, mailer.EmailJob{
		To:       recipient.Email,
		Template: mailtpl.CircleRequest,
		Data:     mailtpl.NewCircleRequestData(n.Branding, person(recipient), person(sender), mailtpl.WithTime(time.Now())),
	})
}

func (n *QueueNotifier) RequestAccepted(ctx context.Context, sender, recipient *entity.User) {
	n.publish(ctx, mailer.EmailJob{
		To:       sender.Email,
		Template: mailtpl.CircleAccepted,
		Data:     mailtpl.NewCircleAcceptedData(n.Branding, person(sender), person(recipient), mailtpl.WithTime(time.Now())),
	})
}

func (n *QueueNotifier) publish(ctx context.Context, job mailer.EmailJob) {
	if n == nil || n.Pub == nil || job.To == "" {
		return
	}
	if err := n.Pub.PublishJSON(ctx, job); err != nil {
		n.Logger.WithError(err).WithFields(logrus.Fields{
			"template": job.Template,
			"to":       job.To,
		}).Warn("failed to publish notification")
	}
}

func person(u *entity.User) mailtpl.Person {
	return mailtpl.Person{
		Name:         u.Name,
		Email:        u.Email,
		Username:     u.Username,
		ProfileImage: u.ProfileImage,
	}
}

var _ Notifier = (*QueueNotifier)(nil)
