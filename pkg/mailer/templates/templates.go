package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	htmpl "html/template"
	"reflect"
	"strings"
	texttpl "text/template"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

// EmailData defines the fields shared by every email template.
type EmailData struct {
	Name           string `json:"Name"`
	RecipientEmail string `json:"RecipientEmail"`
	Type           string `json:"Type"`

	CompanyName    string `json:"CompanyName"`
	CompanyAddress string `json:"CompanyAddress"`
	AppName        string `json:"AppName"`
	LogoURL        string `json:"LogoURL"`
	SupportURL     string `json:"SupportURL"`

	// Where the call to action in the email points to
	ActionURL string `json:"ActionURL"`

	Time   string    `json:"Time"`
	TimeAt time.Time `json:"TimeAt"`

	// Language pair shown in the welcome email once known
	NativeLanguage   string `json:"NativeLanguage"`
	LearningLanguage string `json:"LearningLanguage"`
}

// ToMap converts EmailData to a map[string]any for EmailJob.Data
func ToMap(d EmailData) map[string]any {
	b, _ := json.Marshal(d)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

// orDefault backs the "default" pipe: {{ .Value | default "Fallback" }}
func orDefault(fallback, value any) any {
	if s, ok := value.(string); ok {
		if strings.TrimSpace(s) == "" {
			return fallback
		}
		return s
	}
	if rv := reflect.ValueOf(value); !rv.IsValid() || rv.IsZero() {
		return fallback
	}
	return value
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

var funcs = map[string]any{
	"now":     func() time.Time { return time.Now().UTC() },
	"upper":   strings.ToUpper,
	"title":   capitalize,
	"default": orDefault,
}

// Template names. Each has <name>.subject.tmpl, <name>.text.tmpl and <name>.html.tmpl.
const (
	Welcome = "welcome"
)

// Parsed at init; a malformed template panics on startup.
var (
	plain = texttpl.Must(texttpl.New("plain").Funcs(funcs).ParseFS(FS, "*.subject.tmpl", "*.text.tmpl"))
	rich  = htmpl.Must(htmpl.New("rich").Funcs(funcs).ParseFS(FS, "*.html.tmpl"))
)

// Render executes the subject, text and html parts of the named email.
func Render(name string, data any) (subject, text, html string, err error) {
	if plain.Lookup(name+".subject.tmpl") == nil {
		return "", "", "", fmt.Errorf("unknown email template %q", name)
	}
	var buf bytes.Buffer
	exec := func(name string, run func() error) (string, error) {
		buf.Reset()
		if err := run(); err != nil {
			return "", fmt.Errorf("render %s: %w", name, err)
		}
		return buf.String(), nil
	}
	if subject, err = exec(name+".subject.tmpl", func() error { return plain.ExecuteTemplate(&buf, name+".subject.tmpl", data) }); err != nil {
		return "", "", "", err
	}
	if text, err = exec(name+".text.tmpl", func() error { return plain.ExecuteTemplate(&buf, name+".text.tmpl", data) }); err != nil {
		return "", "", "", err
	}
	if html, err = exec(name+".html.tmpl", func() error { return rich.ExecuteTemplate(&buf, name+".html.tmpl", data) }); err != nil {
		return "", "", "", err
	}
	return strings.TrimSpace(subject), text, html, nil
}
