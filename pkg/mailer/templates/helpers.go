package templates

import (
	"net/url"
	"strings"
	"time"
)

// Branding holds the app-wide values every notification carries.
type Branding struct {
	AppName       string
	SupportURL    string
	PublicBaseURL string
}

// Person is the minimal view of a user a template needs.
type Person struct {
	Name         string
	Email        string
	Username     string
	ProfileImage string
}

// Option pattern
type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04")
	}
}

// NewBaseEmailData fills the shared fields, then applies options.
func NewBaseEmailData(b Branding, typ string, recipient, actor Person, opts ...Option) EmailData {
	d := EmailData{
		Name:           recipient.Name,
		RecipientEmail: recipient.Email,
		Type:           typ,

		ActorName:     actor.Name,
		ActorUsername: actor.Username,
		ActorImage:    absoluteURL(b.PublicBaseURL, actor.ProfileImage),

		AppName:    b.AppName,
		SupportURL: b.SupportURL,

		ProfileURL:       profileURL(b.PublicBaseURL, actor.Username),
		NotificationsURL: strings.TrimRight(b.PublicBaseURL, "/") + "/notifications",
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// NewCircleRequestData is sent to the recipient of a new request; actor is the sender.
func NewCircleRequestData(b Branding, recipient, sender Person, opts ...Option) map[string]any {
	return ToMap(NewBaseEmailData(b, CircleRequest, recipient, sender, opts...))
}

// NewCircleAcceptedData is sent to the original sender; actor is the user who accepted.
func NewCircleAcceptedData(b Branding, sender, accepter Person, opts ...Option) map[string]any {
	return ToMap(NewBaseEmailData(b, CircleAccepted, sender, accepter, opts...))
}

func profileURL(base, username string) string {
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(strings.TrimPrefix(username, "@"))
}

func absoluteURL(base, p string) string {
	if p == "" || strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(p, "/")
}
