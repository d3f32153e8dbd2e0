package delivery

import (
	"bytes"
	"html/template"
	"maps"
	"path/filepath"
	"slices"

	"github.com/shaharia-lab/notifyd/internal/notification"
)

// SubjectPrefix is prepended to every outgoing notification subject.
const SubjectPrefix = "[notifyd] "

// urgencyColors maps an urgency level to its badge background.
var urgencyColors = map[notification.Urgency]string{
	notification.UrgencyPassive:       "#9ca3af",
	notification.UrgencyActive:        "#2563eb",
	notification.UrgencyTimeSensitive: "#d97706",
	notification.UrgencyCritical:      "#dc2626",
}

type emailField struct {
	Key, Value string
}

type emailAttachment struct {
	Name          string
	MIMEType      string
	Width, Height int
}

// emailView is the data rendered by emailTmpl.
type emailView struct {
	Subject      string
	Subtitle     string
	Body         string
	Urgency      string
	UrgencyColor string
	Category     string
	ThreadID     string
	Sound        string
	Attachment   *emailAttachment
	Extra        []emailField
	ID           string
}

var emailTmpl = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>{{.Subject}}</title>
</head>
<body style="margin:0;padding:24px;background:#eef0f3;font-family:Helvetica,Arial,sans-serif;color:#1f2937;">
<div style="max-width:560px;margin:0 auto;background:#ffffff;border:1px solid #d1d5db;border-radius:10px;overflow:hidden;">
  <div style="padding:18px 24px;border-bottom:1px solid #e5e7eb;">
    {{- if .Urgency}}
    <span style="float:right;font-size:11px;font-weight:600;color:#ffffff;background:{{.UrgencyColor}};padding:3px 9px;border-radius:10px;">{{.Urgency}}</span>
    {{- end}}
    <div style="font-size:17px;font-weight:700;">{{.Subject}}</div>
    {{- if .Subtitle}}
    <div style="font-size:14px;color:#4b5563;margin-top:4px;">{{.Subtitle}}</div>
    {{- end}}
  </div>
  <div style="padding:20px 24px;font-size:14px;line-height:1.6;white-space:pre-wrap;word-break:break-word;">{{.Body}}</div>
  {{- if .Attachment}}
  <div style="margin:0 24px 16px;padding:10px 12px;background:#f9fafb;border:1px dashed #d1d5db;border-radius:6px;font-size:12px;color:#4b5563;">
    Attached image: <strong>{{.Attachment.Name}}</strong>
    {{- if .Attachment.MIMEType}} ({{.Attachment.MIMEType}}{{if .Attachment.Width}}, {{.Attachment.Width}}x{{.Attachment.Height}}{{end}}){{end}}
  </div>
  {{- end}}
  {{- if .Extra}}
  <table cellpadding="0" cellspacing="0" role="presentation" style="margin:0 24px 16px;border-collapse:collapse;font-size:12px;">
    {{- range .Extra}}
    <tr>
      <td style="padding:4px 12px 4px 0;color:#6b7280;font-family:Menlo,monospace;">{{.Key}}</td>
      <td style="padding:4px 0;">{{.Value}}</td>
    </tr>
    {{- end}}
  </table>
  {{- end}}
  <div style="padding:12px 24px;background:#f3f4f6;font-size:11px;color:#6b7280;">
    {{- if .Category}}category {{.Category}}{{end}}
    {{- if .ThreadID}} &middot; thread {{.ThreadID}}{{end}}
    {{- if .Sound}} &middot; sound {{.Sound}}{{end}}
    {{- if .ID}}<br>notification {{.ID}} &middot; sent by notifyd{{end}}
  </div>
</div>
</body>
</html>
`))

// buildSubject prepends the standard prefix to a subject line.
func buildSubject(subject string) string {
	return SubjectPrefix + subject
}

// newEmailView projects msg into template data. Without source content only
// the subject and plain body are shown.
func newEmailView(msg Message) emailView {
	v := emailView{Subject: msg.Subject, Body: msg.Body, ID: msg.NotificationID}
	c := msg.Content
	if c == nil {
		return v
	}

	v.Subtitle = c.Subtitle
	v.Body = c.Body
	v.Category = string(c.Category)
	v.ThreadID = c.ThreadID
	if c.Urgency != "" {
		v.Urgency = c.Urgency.DisplayName()
		v.UrgencyColor = urgencyColors[c.Urgency]
		if v.UrgencyColor == "" {
			v.UrgencyColor = urgencyColors[notification.UrgencyActive]
		}
	}
	if c.Sound != "" {
		v.Sound = c.Sound.DisplayName()
	}
	if a := c.Attachment; a != nil && a.Path != "" {
		v.Attachment = &emailAttachment{
			Name:     filepath.Base(a.Path),
			MIMEType: a.MIMEType,
			Width:    a.Width,
			Height:   a.Height,
		}
	}
	for _, k := range slices.Sorted(maps.Keys(c.Metadata.Extra)) {
		v.Extra = append(v.Extra, emailField{Key: k, Value: c.Metadata.Extra[k]})
	}
	return v
}

// buildEmailHTML renders msg as an HTML email.
func buildEmailHTML(msg Message) (string, error) {
	var buf bytes.Buffer
	if err := emailTmpl.Execute(&buf, newEmailView(msg)); err != nil {
		return "", err
	}
	return buf.String(), nil
}
