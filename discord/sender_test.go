package discord

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestValidateWebhookURL(t *testing.T) {
	require.NoError(t, ValidateWebhookURL("https://discord.com/api/webhooks/123/token"))
	require.NoError(t, ValidateWebhookURL("http://discord.com/api/webhooks/1/x"))

	require.ErrorIs(t, ValidateWebhookURL("https://example.com/notify"), ErrNotDiscord)
	require.ErrorIs(t, ValidateWebhookURL("discord.com/api/webhooks/1/x"), ErrMalformedWebhook)
	require.ErrorIs(t, ValidateWebhookURL("ftp://discord.com/api/webhooks/1/x"), ErrMalformedWebhook)
	require.ErrorIs(t, ValidateWebhookURL("https://%zz"), ErrMalformedWebhook)
	require.Error(t, ValidateWebhookURL(""))
}

func TestSendRejectsNonDiscordURL(t *testing.T) {
	var calls int32
	client := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return nil, io.EOF
	})}
	var buf bytes.Buffer
	s := NewSender(client, time.Second, zerolog.New(&buf))

	require.False(t, s.Send(context.Background(), "https://example.com/notify", []byte(`{}`)))
	require.Zero(t, atomic.LoadInt32(&calls))
	require.Contains(t, buf.String(), `"level":"error"`)
}

func TestSendPostsJSON(t *testing.T) {
	var gotBody []byte
	var gotReq *http.Request
	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		gotReq = r
		gotBody, _ = io.ReadAll(r.Body)
		return &http.Response{
			StatusCode: http.StatusNoContent,
			Body:       io.NopCloser(strings.NewReader("")),
			Header:     make(http.Header),
		}, nil
	})}
	s := NewSender(client, time.Second, zerolog.Nop())

	payload := []byte(`{"embeds":[{"title":"Hello"}]}`)
	require.True(t, s.Send(context.Background(), "https://discord.com/api/webhooks/1/abc", payload))
	require.Equal(t, http.MethodPost, gotReq.Method)
	require.Equal(t, "application/json", gotReq.Header.Get("Content-Type"))
	require.Equal(t, UserAgent, gotReq.Header.Get("User-Agent"))
	require.Equal(t, payload, gotBody)
}

func TestSendLogsBadRequestHint(t *testing.T) {
	client := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusBadRequest,
			Body:       io.NopCloser(strings.NewReader(`{"embeds":["0"]}`)),
			Header:     make(http.Header),
		}, nil
	})}
	var buf bytes.Buffer
	s := NewSender(client, time.Second, zerolog.New(&buf))

	require.False(t, s.Send(context.Background(), "https://discord.com/api/webhooks/1/abc", []byte(`{}`)))
	require.Contains(t, buf.String(), `"status":400`)
	require.Contains(t, buf.String(), "likely payload too large or malformed")
}

func TestSendAgainstServer(t *testing.T) {
	var hits int32
	var path atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		path.Store(r.URL.Path)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	// Route discord.com to the test server so URL validation still applies.
	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		r.URL.Scheme = "http"
		r.URL.Host = strings.TrimPrefix(srv.URL, "http://")
		return http.DefaultTransport.RoundTrip(r)
	})}
	var buf bytes.Buffer
	s := NewSender(client, time.Second, zerolog.New(&buf))

	require.False(t, s.Send(context.Background(), "https://discord.com/api/webhooks/9/tok", []byte(`{}`)))
	require.Equal(t, int32(1), atomic.LoadInt32(&hits))
	require.Equal(t, "/api/webhooks/9/tok", path.Load())
	require.Contains(t, buf.String(), "boom")
}
