package elks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interactive-solutions/go-communication-hub"
)

func TestSend(t *testing.T) {
	var received *http.Request

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		received = r
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New46ElksClient("TaxOffice", "u123", "secret", SetEndpoint(server.URL), SetRetryMax(0))

	require.NoError(t, client.Send(context.Background(), "+46700000000", "Your return was filed"))
	require.NotNil(t, received)

	user, pass, ok := received.BasicAuth()
	assert.True(t, ok)
	assert.Equal(t, "u123", user)
	assert.Equal(t, "secret", pass)

	assert.Equal(t, "TaxOffice", received.PostForm.Get("from"))
	assert.Equal(t, "+46700000000", received.PostForm.Get("to"))
	assert.Equal(t, "Your return was filed", received.PostForm.Get("message"))
	assert.Equal(t, communication.UserAgent, received.UserAgent())
}

func TestSendRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := New46ElksClient("TaxOffice", "u123", "wrong", SetEndpoint(server.URL), SetRetryMax(0))

	assert.Error(t, client.Send(context.Background(), "+46700000000", "hello"))
}
