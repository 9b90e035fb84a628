package instagram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "igcancel/pkg/errors"
	"igcancel/pkg/logger"
)

// mockRoundTripper allows us to intercept HTTP requests
type mockRoundTripper struct {
	handler func(req *http.Request) (*http.Response, error)
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.handler(req)
}

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, *logger.TestLogger) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	log := logger.NewTestLogger()
	client := NewClient(Options{
		SessionID: "sess",
		CSRFToken: "csrf",
		BaseURL:   server.URL,
	}, log)
	return client, log
}

func TestNewClient(t *testing.T) {
	client := NewClient(Options{SessionID: "s", CSRFToken: "c"}, logger.NewNopLogger())

	assert.Equal(t, BaseURL, client.baseURL)
	assert.Equal(t, "sessionid=s; csrftoken=c", client.headers["Cookie"])
	assert.Equal(t, "c", client.headers["X-CSRFToken"])
	assert.Equal(t, DefaultAppID, client.headers["X-IG-App-ID"])
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
}

func TestVerifySession(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, SessionEndpoint, r.URL.Path)
		assert.Contains(t, r.Header.Get("Cookie"), "sessionid=sess")
		fmt.Fprint(w, `{"form_data": {"username": "me"}, "status": "ok"}`)
	})

	username, err := client.VerifySession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "me", username)
}

func TestVerifySessionRejected(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"unauthorized", http.StatusUnauthorized, ``},
		{"forbidden", http.StatusForbidden, `{"message": "login_required"}`},
		{"login required in 400", http.StatusBadRequest, `{"message": "login_required", "status": "fail"}`},
		{"checkpoint", http.StatusBadRequest, `{"message": "checkpoint_required", "status": "fail"}`},
		{"empty form", http.StatusOK, `{"form_data": {}, "status": "ok"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})

			_, err := client.VerifySession(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, errs.ReasonAuth)
		})
	}
}

func TestResolveUserID(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, ProfileEndpoint, r.URL.Path)
		switch r.URL.Query().Get("username") {
		case "alice":
			fmt.Fprint(w, `{"data": {"user": {"id": "1001", "username": "alice", "is_private": true}}, "status": "ok"}`)
		case "ghost":
			fmt.Fprint(w, `{"data": {"user": null}, "status": "ok"}`)
		case "gated":
			fmt.Fprint(w, `{"requires_to_login": true, "status": "ok"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	id, err := client.ResolveUserID(context.Background(), "@alice/")
	require.NoError(t, err)
	assert.Equal(t, "1001", id)

	_, err = client.ResolveUserID(context.Background(), "ghost")
	assert.ErrorIs(t, err, errs.ReasonNotFound)

	_, err = client.ResolveUserID(context.Background(), "missing")
	assert.ErrorIs(t, err, errs.ReasonNotFound)

	_, err = client.ResolveUserID(context.Background(), "gated")
	assert.ErrorIs(t, err, errs.ReasonAuth)

	_, err = client.ResolveUserID(context.Background(), "not a name!")
	assert.ErrorIs(t, err, errs.ReasonNotFound)
}

func TestCancelFollowRequest(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/friendships/destroy/1001/", r.URL.Path)
		assert.Equal(t, "csrf", r.Header.Get("X-CSRFToken"))
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "1001", r.PostForm.Get("user_id"))

		fmt.Fprint(w, `{"friendship_status": {"following": false, "outgoing_request": false}, "status": "ok"}`)
	})

	require.NoError(t, client.CancelFollowRequest(context.Background(), "1001"))
}

func TestCancelFollowRequestFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"rate limited", http.StatusTooManyRequests, ``, errs.ReasonRateLimit},
		{"feedback required", http.StatusBadRequest, `{"message": "feedback_required", "spam": true}`, errs.ReasonRateLimit},
		{"server error", http.StatusBadGateway, ``, errs.ReasonServer},
		{"status fail", http.StatusOK, `{"status": "fail", "message": "try again"}`, errs.ReasonUnknown},
		{"still pending", http.StatusOK, `{"friendship_status": {"outgoing_request": true}, "status": "ok"}`, errs.ReasonUnknown},
		{"garbage", http.StatusOK, `<html>`, errs.ReasonParsing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})

			err := client.CancelFollowRequest(context.Background(), "1")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNoRetries(t *testing.T) {
	var hits int32
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	err := client.CancelFollowRequest(context.Background(), "1")
	assert.ErrorIs(t, err, errs.ReasonServer)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestNetworkError(t *testing.T) {
	log := logger.NewTestLogger()
	client := NewClient(Options{SessionID: "s"}, log)
	client.httpClient = &http.Client{Transport: &mockRoundTripper{
		handler: func(*http.Request) (*http.Response, error) {
			return nil, errors.New("connection reset by peer")
		},
	}}

	_, err := client.ResolveUserID(context.Background(), "alice")
	assert.ErrorIs(t, err, errs.ReasonNetwork)
	assert.True(t, log.HasMessage("HTTP request failed"))
}

func TestCancelledContext(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.CancelFollowRequest(ctx, "1")
	assert.ErrorIs(t, err, errs.ReasonCanceled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRateLimiterPacesRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status": "ok"}`)
	}))
	defer server.Close()

	// 1200 per minute is one request every 50ms after the single burst token
	client := NewClient(Options{
		SessionID:         "s",
		BaseURL:           server.URL,
		RequestsPerMinute: 1200,
		Burst:             1,
	}, logger.NewNopLogger())

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, client.CancelFollowRequest(context.Background(), "1"))
	}
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestErrorLogging(t *testing.T) {
	client, log := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_ = client.CancelFollowRequest(context.Background(), "1")

	errorsLogged := log.GetMessagesByLevel("ERROR")
	require.NotEmpty(t, errorsLogged)
	assert.Equal(t, "unexpected API error", errorsLogged[0].Message)
	assert.Equal(t, 500, errorsLogged[0].Fields["status"])
}

func TestEndpoints(t *testing.T) {
	assert.Equal(t, "https://www.instagram.com/api/v1/users/web_profile_info/?username=alice", GetProfileURL(BaseURL, "alice"))
	assert.Equal(t, "https://www.instagram.com/api/v1/friendships/destroy/42/", GetDestroyURL(BaseURL, "42"))
	assert.Equal(t, "https://www.instagram.com/alice/", GetUserProfileURL("alice"))
	assert.Equal(t, "", GetUserProfileURL(""))
}

func TestIsValidUsername(t *testing.T) {
	valid := []string{"alice", "a.b_c", "User123"}
	invalid := []string{"", "has space", "dash-name", strings.Repeat("a", 31)}

	for _, name := range valid {
		assert.True(t, IsValidUsername(name), name)
	}
	for _, name := range invalid {
		assert.False(t, IsValidUsername(name), name)
	}
}

func TestSanitizeUsername(t *testing.T) {
	assert.Equal(t, "alice", SanitizeUsername(" @alice/ "))
	assert.Equal(t, "bob", SanitizeUsername("bob//"))
	assert.Equal(t, "", SanitizeUsername(""))
}
