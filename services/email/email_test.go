package emailsvc

import (
	"encoding/json"
	"io"
	"log"
	"net/mail"
	"strings"
	"testing"

	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campusconnect/core"
	logsvc "github.com/trezcool/campusconnect/services/logger"
	"github.com/trezcool/campusconnect/tests"
)

func newLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "MAIL : ", log.LstdFlags), conf)
}

func TestBuildSGMail(t *testing.T) {
	msg := core.EmailMessage{
		To:          []mail.Address{{Name: "Alice", Address: "alice@test.cd"}},
		Cc:          []mail.Address{{Address: "bob@test.cd"}},
		Subject:     "Hello",
		TextContent: "hi",
	}
	require.NoError(t, msg.Attach(strings.NewReader("data"), "a.txt", "text/plain"))

	body := sgmail.GetRequestBody(buildSGMail(msg, sgmail.NewEmail("Campus", "noreply@test.cd"), "[Campus] "))

	var payload struct {
		From struct {
			Email string `json:"email"`
		} `json:"from"`
		Personalizations []struct {
			To      []struct{ Email string } `json:"to"`
			Cc      []struct{ Email string } `json:"cc"`
			Subject string                   `json:"subject"`
		} `json:"personalizations"`
		Content []struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"content"`
		Attachments []struct {
			Content  string `json:"content"`
			Type     string `json:"type"`
			Filename string `json:"filename"`
		} `json:"attachments"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))

	assert.Equal(t, "noreply@test.cd", payload.From.Email)
	require.Len(t, payload.Personalizations, 1)
	p := payload.Personalizations[0]
	assert.Equal(t, "[Campus] Hello", p.Subject)
	assert.Equal(t, "alice@test.cd", p.To[0].Email)
	assert.Equal(t, "bob@test.cd", p.Cc[0].Email)

	// no empty text/html part
	require.Len(t, payload.Content, 1)
	assert.Equal(t, "text/plain", payload.Content[0].Type)
	assert.Equal(t, "hi", payload.Content[0].Value)

	require.Len(t, payload.Attachments, 1)
	assert.Equal(t, "ZGF0YQ==", payload.Attachments[0].Content)
	assert.Equal(t, "a.txt", payload.Attachments[0].Filename)
	assert.Equal(t, "text/plain", payload.Attachments[0].Type)
}

func TestConsoleServiceMock(t *testing.T) {
	conf := testutil.NewConfig(t)
	svc := NewConsoleServiceMock(conf, newLogger(conf))
	to := []mail.Address{{Name: "Alice", Address: "alice@test.cd"}}

	tests := []struct {
		name     string
		msg      core.EmailMessage
		wantSent bool
	}{
		{name: "no recipient", msg: core.EmailMessage{Subject: "s", BodyStr: "hi"}},
		{name: "no content", msg: core.EmailMessage{To: to, Subject: "s"}},
		{name: "unknown template", msg: core.EmailMessage{To: to, Subject: "s", TemplateName: "lol"}},
		{name: "plain text", msg: core.EmailMessage{To: to, Subject: "s", BodyStr: "hi"}, wantSent: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetSentMessages()
			msg := tt.msg
			svc.SendMessages(&msg)
			if !tt.wantSent {
				assert.Empty(t, SentMessages)
				return
			}
			require.Len(t, SentMessages, 1)
			assert.Equal(t, "hi", SentMessages[0].TextContent)
		})
	}
}

func TestConsoleService_Wait(t *testing.T) {
	conf := testutil.NewConfig(t)
	svc := NewConsoleService(conf, newLogger(conf)).(*consoleService)
	svc.disableOutput = true
	ResetSentMessages()

	to := []mail.Address{{Address: "alice@test.cd"}}
	svc.SendMessages(
		&core.EmailMessage{To: to, Subject: "1", BodyStr: "one"},
		&core.EmailMessage{To: to, Subject: "2", BodyStr: "two"},
		&core.EmailMessage{To: to, Subject: "3", BodyStr: "three"},
	)
	svc.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, SentMessages, 3)
}
