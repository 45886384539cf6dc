package mailgun

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mailgun/mailgun-go/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMailgunTransportRequiresFrom(t *testing.T) {
	mg := mailgun.NewMailgun("mg.example.com", "key-test")

	_, err := NewMailgunTransport(mg)
	assert.Error(t, err)

	_, err = NewMailgunTransport(mg, SetFrom(""))
	assert.Error(t, err)
}

func TestSend(t *testing.T) {
	form := map[string][]string{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, field := range []string{"from", "to", "subject", "text", "html", "h:Reply-To", "o:tag"} {
			if values := r.FormValue(field); values != "" {
				form[field] = r.Form[field]
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"<20250301.1@mg.example.com>","message":"Queued. Thank you."}`))
	}))
	defer server.Close()

	mg := mailgun.NewMailgun("mg.example.com", "key-test")
	mg.SetAPIBase(server.URL + "/v3")

	transport, err := NewMailgunTransport(mg, SetFrom("office@example.com"), SetReplyTo("help@example.com"), SetTags("notification"))
	require.NoError(t, err)

	require.NoError(t, transport.Send(context.Background(), "maria@example.com", "Return filed", "plain", "<p>html</p>"))

	assert.Equal(t, []string{"office@example.com"}, form["from"])
	assert.Equal(t, []string{"maria@example.com"}, form["to"])
	assert.Equal(t, []string{"Return filed"}, form["subject"])
	assert.Equal(t, []string{"plain"}, form["text"])
	assert.Equal(t, []string{"<p>html</p>"}, form["html"])
	assert.Equal(t, []string{"help@example.com"}, form["h:Reply-To"])
	assert.Equal(t, []string{"notification"}, form["o:tag"])
}
