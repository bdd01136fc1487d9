package templates

import (
	"strings"
	"time"
)

// Branding is the sender identity stamped on every email.
type Branding struct {
	AppName        string
	CompanyName    string
	CompanyAddress string
	LogoURL        string
	SupportURL     string
}

// Option pattern
type Option func(*EmailData)

func WithActionURL(url string) Option { return func(d *EmailData) { d.ActionURL = url } }

func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04")
	}
}

func WithLanguages(native, learning string) Option {
	return func(d *EmailData) {
		d.NativeLanguage = strings.TrimSpace(native)
		d.LearningLanguage = strings.TrimSpace(learning)
	}
}

// NewBaseEmailData fills the common fields from b, then applies opts.
func NewBaseEmailData(b Branding, typ, name, recipient string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		RecipientEmail: recipient,
		Type:           typ,

		CompanyName:    b.CompanyName,
		CompanyAddress: b.CompanyAddress,
		AppName:        b.AppName,
		LogoURL:        b.LogoURL,
		SupportURL:     b.SupportURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// MergeBranding fills branding keys into data that the producer left empty.
// The worker calls it because producers only know the user-facing fields.
func MergeBranding(b Branding, data map[string]any) map[string]any {
	out := ToMap(NewBaseEmailData(b, "", "", ""))
	for k, v := range data {
		if s, ok := v.(string); ok && s == "" {
			if _, set := out[k]; set {
				continue
			}
		}
		out[k] = v
	}
	return out
}

func NewWelcomeData(b Branding, name, email, clientURL string, opts ...Option) map[string]any {
	opts = append([]Option{WithActionURL(clientURL), WithTime(time.Now())}, opts...)
	return ToMap(NewBaseEmailData(b, Welcome, name, email, opts...))
}
