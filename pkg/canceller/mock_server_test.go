package canceller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// mockInstagramServer simulates the profile lookup and friendship destroy
// endpoints with per-user error injection.
type mockInstagramServer struct {
	server       *httptest.Server
	requestCount int32

	mu             sync.RWMutex
	users          map[string]string // username -> id
	errorResponses map[string]int    // username or id -> status code
	destroyed      []string
}

func newMockInstagramServer(t *testing.T, usernames ...string) *mockInstagramServer {
	t.Helper()
	m := &mockInstagramServer{
		users:          make(map[string]string),
		errorResponses: make(map[string]int),
	}
	for _, name := range usernames {
		m.users[name] = "1" + name
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/users/web_profile_info/", m.handleProfile)
	mux.HandleFunc("/api/v1/friendships/destroy/", m.handleDestroy)
	mux.HandleFunc("/api/v1/accounts/edit/web_form_data/", m.handleSession)

	m.server = httptest.NewServer(mux)
	t.Cleanup(m.server.Close)
	return m
}

func (m *mockInstagramServer) handleProfile(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)
	username := r.URL.Query().Get("username")

	if code := m.errorResponse(username); code > 0 {
		m.sendError(w, code)
		return
	}

	m.mu.RLock()
	id, ok := m.users[username]
	m.mu.RUnlock()
	if !ok {
		m.sendError(w, http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":   map[string]interface{}{"user": map[string]interface{}{"id": id, "username": username, "is_private": true}},
		"status": "ok",
	})
}

func (m *mockInstagramServer) handleDestroy(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if r.Header.Get("X-CSRFToken") == "" {
		m.sendError(w, http.StatusForbidden)
		return
	}

	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/friendships/destroy/"), "/")
	if code := m.errorResponse(id); code > 0 {
		m.sendError(w, code)
		return
	}

	m.mu.Lock()
	m.destroyed = append(m.destroyed, id)
	m.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"friendship_status": map[string]interface{}{"following": false, "outgoing_request": false},
		"status":            "ok",
	})
}

func (m *mockInstagramServer) handleSession(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.requestCount, 1)
	if !strings.Contains(r.Header.Get("Cookie"), "sessionid=") {
		m.sendError(w, http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"form_data": map[string]interface{}{"username": "me"},
		"status":    "ok",
	})
}

func (m *mockInstagramServer) sendError(w http.ResponseWriter, code int) {
	body := map[string]interface{}{"status": "fail"}
	switch code {
	case http.StatusTooManyRequests:
		w.Header().Set("Retry-After", "60")
		body["message"] = "Please wait a few minutes before you try again."
	case http.StatusNotFound:
		body["message"] = "User not found"
	}
	writeJSON(w, code, body)
}

// setErrorResponse makes requests for key (a username or user id) fail with code
func (m *mockInstagramServer) setErrorResponse(key string, code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorResponses[key] = code
}

func (m *mockInstagramServer) errorResponse(key string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.errorResponses[key]
}

func (m *mockInstagramServer) destroyedIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.destroyed...)
}

func (m *mockInstagramServer) URL() string {
	return m.server.URL
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
