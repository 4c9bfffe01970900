package notify

import (
	"fmt"
	"html"
	"strings"

	"github.com/akeren/waitlist-api/internal/models"
	"github.com/akeren/waitlist-api/pkg/constants"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Kind string

const (
	KindWelcome Kind = "welcome"
	KindAlert   Kind = "alert"
)

// Message is a single outbound email. IntendedTo differs from To only in test mode.
type Message struct {
	Kind       Kind
	From       string
	To         string
	IntendedTo string
	Subject    string
	HTML       string
	Text       string
}

func displayCode(code string) string {
	code = strings.TrimSpace(strings.NewReplacer("-", " ", "_", " ").Replace(code))
	if code == "" {
		return ""
	}
	// Casers are stateful; build one per call.
	return cases.Title(language.English).String(code)
}

// NewWelcomeMessage builds the signer's welcome email addressed to `to`.
func NewWelcomeMessage(cfg Config, entry *models.WaitlistEntry, to string) Message {
	list := "the waitlist"
	if code := displayCode(entry.WaitListCode); code != "" {
		list = "the " + code + " waitlist"
	}

	text := fmt.Sprintf("Thanks for signing up! You're on %s and we'll be in touch as soon as a spot opens up.", list)
	body := "<h1>You're on the list</h1><p>" + html.EscapeString(text) + "</p>"

	if cfg.TestMode {
		text += "\n\nOriginally intended for: " + entry.Email
		body += "<hr><p><strong>Test mode.</strong> Originally intended for: " + html.EscapeString(entry.Email) + "</p>"
	}

	return Message{
		Kind:       KindWelcome,
		From:       cfg.SenderIdentity,
		To:         to,
		IntendedTo: entry.Email,
		Subject:    "You're on the waitlist!",
		HTML:       body,
		Text:       text,
	}
}

// NewAlertMessage builds the operator alert for a new signup.
func NewAlertMessage(cfg Config, entry *models.WaitlistEntry, to string) Message {
	code := entry.WaitListCode
	if code == "" {
		code = "(none)"
	}

	prefs := "(none)"
	if len(entry.Preferences) > 0 {
		prefs = strings.Join(entry.Preferences, ", ")
	}

	rows := [][2]string{
		{"ID", entry.ID},
		{"Email", entry.Email},
		{"Wait list code", code},
		{"Preferences", prefs},
		{"Signed up at", entry.CreatedAt.UTC().Format(constants.RFC3339MilliDateTimeFormat)},
	}

	var text, body strings.Builder
	text.WriteString("New waitlist signup\n\n")
	body.WriteString("<h1>New waitlist signup</h1><table>")
	for _, row := range rows {
		fmt.Fprintf(&text, "%s: %s\n", row[0], row[1])
		fmt.Fprintf(&body, "<tr><th align=\"left\">%s</th><td>%s</td></tr>", row[0], html.EscapeString(row[1]))
	}
	body.WriteString("</table>")

	return Message{
		Kind:       KindAlert,
		From:       cfg.SenderIdentity,
		To:         to,
		IntendedTo: cfg.OperatorAddress,
		Subject:    "New waitlist signup: " + entry.Email,
		HTML:       body.String(),
		Text:       text.String(),
	}
}
