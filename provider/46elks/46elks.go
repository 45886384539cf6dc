package elks

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"

	"github.com/interactive-solutions/go-communication-hub"
)

const elksApi = "https://api.46elks.com/a1/sms"

type ElksOption func(e *elks)

// SetEndpoint overrides the 46elks API url.
func SetEndpoint(endpoint string) ElksOption {
	return func(e *elks) {
		e.endpoint = endpoint
	}
}

func SetRetryMax(retries int) ElksOption {
	return func(e *elks) {
		e.client.RetryMax = retries
	}
}

// elks is an sms transport for 46elks
type elks struct {
	client   *retryablehttp.Client
	endpoint string

	from string

	username string
	password string
}

func New46ElksClient(from, username, password string, options ...ElksOption) communication.SmsTransport {
	client := retryablehttp.NewClient()
	client.Logger = nil

	e := &elks{
		client:   client,
		endpoint: elksApi,

		from:     from,
		username: username,
		password: password,
	}

	for _, option := range options {
		option(e)
	}

	return e
}

func (e *elks) Send(ctx context.Context, number string, message string) error {
	body := url.Values{
		"from":    {e.from},
		"to":      {number},
		"message": {message},
	}.Encode()

	req, err := retryablehttp.NewRequest(http.MethodPost, e.endpoint, bytes.NewReader([]byte(body)))
	if err != nil {
		return err
	}

	req = req.WithContext(ctx)
	req.SetBasicAuth(e.username, e.password)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Content-Length", strconv.Itoa(len(body)))
	req.Header.Set("User-Agent", communication.UserAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "Failed to send sms through 46elks")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 || resp.StatusCode <= 199 {
		return errors.Errorf("Unexpected response code %d received from 46elks", resp.StatusCode)
	}

	return nil
}
