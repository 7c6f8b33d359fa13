package email

import (
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendEmailBuildsMultipartMessage(t *testing.T) {
	client := NewClient("smtp.example.com", "587", "user", "pass", "academy@example.com")

	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	client.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		assert.Equal(t, "academy@example.com", from)
		return nil
	}

	err := SendCourseCompleted(client, "ada@example.com", "Ada", "Go <Basics>", "https://app.example.com/cert")
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, []string{"ada@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: You completed Go <Basics>")
	assert.Contains(t, gotMsg, "Go &lt;Basics&gt;")
	assert.True(t, strings.HasSuffix(gotMsg, "--course-server-boundary--\r\n"))
}

func TestSendEmailRequiresRecipient(t *testing.T) {
	client := NewClient("smtp.example.com", "587", "", "", "")
	assert.Error(t, client.SendEmail(EmailOptions{Subject: "x"}))
}
