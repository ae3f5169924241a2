package helpers

import (
	"fmt"

	"github.com/oksasatya/linkcircle/pkg/mailer"
	mailtpl "github.com/oksasatya/linkcircle/pkg/mailer/templates"
)

// SubjectFor returns a fallback subject for a template job whose subject
// template could not be rendered.
func SubjectFor(job *mailer.EmailJob) string {
	switch job.Template {
	case mailtpl.CircleRequest:
		return "You have a new circle request"
	case mailtpl.CircleAccepted:
		return "Your circle request was accepted"
	default:
		return "Notification"
	}
}

// EnsureRecipient fills RecipientEmail from the job's address when the producer left it out.
func EnsureRecipient(job *mailer.EmailJob) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if v, ok := job.Data["RecipientEmail"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["RecipientEmail"] = job.To
	}
}
