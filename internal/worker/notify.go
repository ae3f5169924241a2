package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/linkcircle/pkg/helpers"
	"github.com/oksasatya/linkcircle/pkg/mailer"
	mailtpl "github.com/oksasatya/linkcircle/pkg/mailer/templates"
)

// Outcome tells the consumer what to do with a delivery.
type Outcome int

const (
	Ack Outcome = iota
	// Drop rejects a message that can never succeed.
	Drop
	// Retry requeues a message after a transient failure.
	Retry
)

func (o Outcome) String() string {
	switch o {
	case Ack:
		return "ack"
	case Drop:
		return "drop"
	default:
		return "retry"
	}
}

// Notifier renders queued email jobs and hands them to a Sender.
type Notifier struct {
	Sender      mailer.Sender
	Logger      *logrus.Logger
	SendTimeout time.Duration
}

func NewNotifier(sender mailer.Sender, logger *logrus.Logger) *Notifier {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Notifier{Sender: sender, Logger: logger, SendTimeout: 15 * time.Second}
}

// Handle processes one message body.
func (n *Notifier) Handle(ctx context.Context, body []byte) Outcome {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		n.Logger.WithError(err).Warn("bad notification message")
		return Drop
	}
	if job.To == "" {
		n.Logger.WithField("template", job.Template).Warn("notification without recipient")
		return Drop
	}

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		if !mailtpl.Known(job.Template) {
			n.Logger.WithField("template", job.Template).Warn("unknown notification template")
			return Drop
		}
		helpers.EnsureRecipient(&job)
		s, t, h, err := mailtpl.Render(job.Template, job.Data)
		if err != nil {
			n.Logger.WithError(err).WithField("template", job.Template).Error("render failed")
			return Drop
		}
		subject, text, html = s, t, h
	}
	if subject == "" {
		subject = helpers.SubjectFor(&job)
	}
	if text == "" && html == "" {
		n.Logger.WithField("to", job.To).Warn("notification with empty body")
		return Drop
	}

	c, cancel := context.WithTimeout(ctx, n.SendTimeout)
	defer cancel()
	if err := n.Sender.Send(c, job.To, subject, text, html); err != nil {
		n.Logger.WithError(err).WithFields(logrus.Fields{"to": job.To, "template": job.Template}).Warn("send failed")
		return Retry
	}
	n.Logger.WithFields(logrus.Fields{"to": job.To, "template": job.Template}).Info("notification sent")
	return Ack
}
