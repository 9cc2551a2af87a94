package api_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/guestbook-api/internal/api"
	"github.com/guestbook-api/internal/auth"
	"github.com/guestbook-api/internal/config"
	"github.com/guestbook-api/internal/mocks"
	"github.com/guestbook-api/internal/models"
	"github.com/guestbook-api/internal/repository"
	"github.com/guestbook-api/internal/service"
	"github.com/rs/zerolog"
)

const testSecret = "test-secret"

var (
	alice = models.UserRef{ID: "a1", Name: "Alice", GitHubURL: "https://github.com/alice"}
	bob   = models.UserRef{ID: "b1", Name: "Bob", GitHubURL: "https://github.com/bob"}
	admin = models.UserRef{ID: "admin-1", Name: "Admin"}
)

type testEnv struct {
	router   *gin.Engine
	backend  *mocks.MockBackend
	snapshot *mocks.MockSnapshotService
}

func setupTestRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	backend := mocks.NewMockBackend()
	repos := repository.New(backend, zerolog.Nop())

	cfg := &config.Config{
		Server: config.ServerConfig{Port: "8080"},
		Store:  config.StoreConfig{MaxMessages: models.DefaultMaxMessages},
		Auth: config.AuthConfig{
			JWTSecret:    testSecret,
			CookieName:   "guestbook_session",
			AdminUserIDs: []string{admin.ID},
		},
		CORS: config.CORSConfig{AllowedOrigins: []string{"*"}},
	}

	services := service.NewServices(repos, nil, nil, cfg, zerolog.Nop())
	snapshot := mocks.NewMockSnapshotService()
	services.Snapshot = snapshot
	t.Cleanup(services.Guestbook.Close)

	return &testEnv{
		router:   api.NewRouter(services, cfg, zerolog.Nop()),
		backend:  backend,
		snapshot: snapshot,
	}
}

func tokenFor(t *testing.T, user models.UserRef) string {
	t.Helper()
	token, err := auth.IssueToken(testSecret, user, "", "", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	return token
}

func (e *testEnv) do(t *testing.T, method, path string, user *models.UserRef, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, *user))
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	decode(t, w, &body)
	return body.Code
}

func TestHealthEndpoint(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(t, "GET", "/health", nil, nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	decode(t, w, &response)
	if response["status"] != "healthy" {
		t.Errorf("Expected status 'healthy', got %v", response["status"])
	}
	if response["service"] != "guestbook-api" {
		t.Errorf("Expected service name, got %v", response["service"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := setupTestRouter(t)
	env.do(t, "GET", "/v1/guestbook", nil, nil)

	w := env.do(t, "GET", "/metrics", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "guestbook_http_requests_total") {
		t.Error("Expected guestbook_http_requests_total in metrics output")
	}
}

func TestCreateMessageAndList(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(t, "POST", "/v1/guestbook", &alice, map[string]string{"content": "  Hello  "})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var created models.MessageRecord
	decode(t, w, &created)
	if created.Content != "Hello" {
		t.Errorf("Expected trimmed content 'Hello', got %q", created.Content)
	}
	if created.Author.ID != alice.ID {
		t.Errorf("Expected author %s, got %s", alice.ID, created.Author.ID)
	}
	if created.Likes != 0 || created.LikedBy == nil || created.LikedUsers == nil || created.Replies == nil {
		t.Errorf("Expected empty like ledger and replies, got %+v", created)
	}

	w = env.do(t, "POST", "/v1/guestbook", &bob, map[string]string{"content": "Second"})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", w.Code)
	}

	w = env.do(t, "GET", "/v1/guestbook", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var list []models.MessageRecord
	decode(t, w, &list)
	if len(list) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(list))
	}
	if list[0].Content != "Second" {
		t.Errorf("Expected newest message first, got %q", list[0].Content)
	}
}

func TestCreateReply(t *testing.T) {
	env := setupTestRouter(t)

	var msg models.MessageRecord
	decode(t, env.do(t, "POST", "/v1/guestbook", &alice, map[string]string{"content": "parent"}), &msg)

	w := env.do(t, "POST", "/v1/guestbook", &bob, map[string]string{"content": "child", "messageId": msg.ID})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var reply models.ReplyRecord
	decode(t, w, &reply)
	if reply.Content != "child" || reply.Author.ID != bob.ID {
		t.Errorf("Unexpected reply %+v", reply)
	}

	w = env.do(t, "POST", "/v1/guestbook", &bob, map[string]string{"content": "orphan", "messageId": "missing"})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestCreateEntry_Validation(t *testing.T) {
	env := setupTestRouter(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{name: "missing content", body: map[string]string{}},
		{name: "blank content", body: map[string]string{"content": "   "}},
		{name: "oversized content", body: map[string]string{"content": strings.Repeat("x", 501)}},
		{name: "wrong type", body: map[string]int{"content": 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, "POST", "/v1/guestbook", &alice, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", w.Code)
			}
			if code := errorCode(t, w); code != "INVALID_ARGUMENT" {
				t.Errorf("Expected INVALID_ARGUMENT, got %s", code)
			}
		})
	}
}

func TestAuthRequired(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(t, "POST", "/v1/guestbook", nil, map[string]string{"content": "hi"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Code)
	}

	req := httptest.NewRequest("PATCH", "/v1/guestbook", strings.NewReader(`{"messageId":"x"}`))
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 for bad token, got %d", w.Code)
	}
	if code := errorCode(t, w); code != "UNAUTHENTICATED" {
		t.Errorf("Expected UNAUTHENTICATED, got %s", code)
	}
}

func TestSessionCookie(t *testing.T) {
	env := setupTestRouter(t)

	req := httptest.NewRequest("POST", "/v1/guestbook", strings.NewReader(`{"content":"via cookie"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "guestbook_session", Value: tokenFor(t, alice)})
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d: %s", w.Code, w.Body.String())
	}
}

func TestToggleLike(t *testing.T) {
	env := setupTestRouter(t)

	var msg models.MessageRecord
	decode(t, env.do(t, "POST", "/v1/guestbook", &alice, map[string]string{"content": "like me"}), &msg)

	var liked struct {
		models.MessageRecord
		Liked bool `json:"liked"`
	}
	w := env.do(t, "PATCH", "/v1/guestbook", &bob, map[string]string{"messageId": msg.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	decode(t, w, &liked)
	if !liked.Liked || liked.Likes != 1 || len(liked.LikedBy) != 1 || liked.LikedUsers[0].Name != "Bob" {
		t.Errorf("Expected one like from Bob, got %+v", liked)
	}

	decode(t, env.do(t, "PATCH", "/v1/guestbook", &bob, map[string]string{"messageId": msg.ID}), &liked)
	if liked.Liked || liked.Likes != 0 || len(liked.LikedBy) != 0 || len(liked.LikedUsers) != 0 {
		t.Errorf("Expected like removed, got %+v", liked)
	}

	w = env.do(t, "PATCH", "/v1/guestbook", &bob, map[string]string{"messageId": "missing"})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestReplyActions(t *testing.T) {
	env := setupTestRouter(t)

	var msg models.MessageRecord
	decode(t, env.do(t, "POST", "/v1/guestbook", &alice, map[string]string{"content": "parent"}), &msg)
	var reply models.ReplyRecord
	decode(t, env.do(t, "POST", "/v1/guestbook", &bob, map[string]string{"content": "child", "messageId": msg.ID}), &reply)

	var liked struct {
		models.ReplyRecord
		Liked bool `json:"liked"`
	}
	decode(t, env.do(t, "PATCH", "/v1/guestbook", &alice, map[string]string{"messageId": msg.ID, "replyId": reply.ID}), &liked)
	if !liked.Liked || liked.Likes != 1 {
		t.Errorf("Expected reply liked once, got %+v", liked)
	}

	w := env.do(t, "PATCH", "/v1/guestbook", &alice, map[string]string{
		"messageId": msg.ID, "replyId": reply.ID, "action": "edit", "content": "not mine",
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", w.Code)
	}

	w = env.do(t, "PATCH", "/v1/guestbook", &bob, map[string]string{
		"messageId": msg.ID, "replyId": reply.ID, "action": "edit", "content": "edited child",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var edited models.ReplyRecord
	decode(t, w, &edited)
	if edited.Content != "edited child" || !edited.CreatedAt.Equal(reply.CreatedAt) {
		t.Errorf("Unexpected edited reply %+v", edited)
	}

	w = env.do(t, "PATCH", "/v1/guestbook", &bob, map[string]string{
		"messageId": msg.ID, "replyId": reply.ID, "action": "delete",
	})
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	w = env.do(t, "PATCH", "/v1/guestbook", &bob, map[string]string{
		"messageId": msg.ID, "replyId": reply.ID, "action": "delete",
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 after delete, got %d", w.Code)
	}
}

func TestEditAndDeleteMessage(t *testing.T) {
	env := setupTestRouter(t)

	var msg models.MessageRecord
	decode(t, env.do(t, "POST", "/v1/guestbook", &alice, map[string]string{"content": "Hello"}), &msg)

	tests := []struct {
		name       string
		user       models.UserRef
		body       map[string]string
		wantStatus int
	}{
		{name: "foreign edit", user: bob, body: map[string]string{"messageId": msg.ID, "action": "edit", "content": "x"}, wantStatus: http.StatusForbidden},
		{name: "empty edit", user: alice, body: map[string]string{"messageId": msg.ID, "action": "edit", "content": " "}, wantStatus: http.StatusBadRequest},
		{name: "unknown action", user: alice, body: map[string]string{"messageId": msg.ID, "action": "pin"}, wantStatus: http.StatusBadRequest},
		{name: "missing message id", user: alice, body: map[string]string{"action": "delete"}, wantStatus: http.StatusBadRequest},
		{name: "owner edit", user: alice, body: map[string]string{"messageId": msg.ID, "action": "edit", "content": "Hello world"}, wantStatus: http.StatusOK},
		{name: "foreign delete", user: bob, body: map[string]string{"messageId": msg.ID, "action": "delete"}, wantStatus: http.StatusForbidden},
		{name: "owner delete", user: alice, body: map[string]string{"messageId": msg.ID, "action": "delete"}, wantStatus: http.StatusOK},
		{name: "delete again", user: alice, body: map[string]string{"messageId": msg.ID, "action": "delete"}, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := tt.user
			w := env.do(t, "PATCH", "/v1/guestbook", &user, tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestStorageFailureReturns500(t *testing.T) {
	env := setupTestRouter(t)
	env.backend.ReadError = errors.New("disk unavailable")

	w := env.do(t, "GET", "/v1/guestbook", nil, nil)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "disk unavailable") {
		t.Error("Internal error details must not leak to clients")
	}
}

func TestStatsEndpoint(t *testing.T) {
	env := setupTestRouter(t)
	env.do(t, "POST", "/v1/guestbook", &alice, map[string]string{"content": "one"})

	w := env.do(t, "GET", "/stats", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var stats models.GuestbookStats
	decode(t, w, &stats)
	if stats.Messages != 1 {
		t.Errorf("Expected 1 message, got %d", stats.Messages)
	}
}

func TestAdminSnapshot(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(t, "POST", "/v1/admin/snapshots", &alice, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403 for non-admin, got %d", w.Code)
	}
	if len(env.snapshot.Created) != 0 {
		t.Error("Snapshot should not be created for non-admin")
	}

	w = env.do(t, "POST", "/v1/admin/snapshots", &admin, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", w.Code)
	}
	var snap models.Snapshot
	decode(t, w, &snap)
	if snap.Key == "" {
		t.Error("Expected snapshot key")
	}
}

func TestCORSHeaders(t *testing.T) {
	env := setupTestRouter(t)

	req := httptest.NewRequest("OPTIONS", "/v1/guestbook", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204 for OPTIONS, got %d", w.Code)
	}

	allowOrigin := w.Header().Get("Access-Control-Allow-Origin")
	if allowOrigin != "*" {
		t.Errorf("Expected Access-Control-Allow-Origin '*', got '%s'", allowOrigin)
	}

	allowMethods := w.Header().Get("Access-Control-Allow-Methods")
	if !strings.Contains(allowMethods, "PATCH") {
		t.Errorf("Expected PATCH in Access-Control-Allow-Methods, got %q", allowMethods)
	}
}
