package delivery

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/shaharia-lab/notifyd/internal/notification"
)

func TestBuildEmailHTML_Escapes(t *testing.T) {
	html, err := buildEmailHTML(Message{Subject: "<b>Hi</b>", Body: "line one\n<script>x</script>"})
	require.NoError(t, err)
	assert.Contains(t, html, "&lt;b&gt;Hi&lt;/b&gt;")
	assert.NotContains(t, html, "<script>")
}

func TestBuildEmailHTML_RendersContent(t *testing.T) {
	c := notification.Content{
		Title:    "Oven",
		Body:     "Pasta is ready",
		Subtitle: "Kitchen & <Dining>",
		Sound:    notification.SoundTritone,
		ThreadID: "dinner",
		Category: notification.CategoryReminder,
		Urgency:  notification.UrgencyTimeSensitive,
		Attachment: &notification.Attachment{
			Path: "/var/lib/notifyd/attachments/abc.png", MIMEType: "image/png", Width: 64, Height: 32,
		},
		Metadata: notification.Metadata{Extra: map[string]string{"zone": "b<2>", "area": "north"}},
	}
	html, err := buildEmailHTML(Message{NotificationID: "n1", Subject: buildSubject(c.Title), Body: "ignored", Content: &c})
	require.NoError(t, err)

	assert.Contains(t, html, "Kitchen &amp; &lt;Dining&gt;")
	assert.Contains(t, html, "Time Sensitive")
	assert.Contains(t, html, "#d97706")
	assert.Contains(t, html, "thread dinner")
	assert.Contains(t, html, "sound Tri-tone")
	assert.Contains(t, html, "category REMINDER")
	assert.Contains(t, html, "abc.png")
	assert.Contains(t, html, "64x32")
	assert.Contains(t, html, "b&lt;2&gt;")
	assert.Contains(t, html, "Pasta is ready")
	assert.NotContains(t, html, "ignored")
	assert.Less(t, strings.Index(html, ">area<"), strings.Index(html, ">zone<"))
}

func TestNewEmailView_WithoutContent(t *testing.T) {
	v := newEmailView(Message{Subject: "s", Body: "b"})
	assert.Equal(t, "b", v.Body)
	assert.Empty(t, v.Urgency)
	assert.Nil(t, v.Attachment)
	assert.Empty(t, v.Extra)
}

func TestBuildSubject(t *testing.T) {
	assert.Equal(t, "[notifyd] Timer", buildSubject("Timer"))
}

func TestTLSPolicyFromEncryption(t *testing.T) {
	assert.Equal(t, mail.TLSMandatory, tlsPolicyFromEncryption(EncryptionSSLTLS))
	assert.Equal(t, mail.TLSOpportunistic, tlsPolicyFromEncryption(EncryptionSTARTTLS))
	assert.Equal(t, mail.NoTLS, tlsPolicyFromEncryption(EncryptionNone))
	assert.Equal(t, mail.NoTLS, tlsPolicyFromEncryption(""))
}
