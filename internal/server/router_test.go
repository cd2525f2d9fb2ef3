package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/racon-ai/racon-backend/internal/config"
	"github.com/racon-ai/racon-backend/internal/handlers"
	"github.com/racon-ai/racon-backend/internal/logger"
	"github.com/racon-ai/racon-backend/internal/middleware"
	"github.com/racon-ai/racon-backend/internal/repos"
	"github.com/racon-ai/racon-backend/internal/response"
	"github.com/racon-ai/racon-backend/internal/services"
	"github.com/racon-ai/racon-backend/internal/socket"
	"github.com/racon-ai/racon-backend/internal/testutil"
	"github.com/racon-ai/racon-backend/internal/types"
)

const testSecret = "router-test-secret"

type testServer struct {
	router *gin.Engine
	hub    *socket.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := testutil.Logger(t)
	db := testutil.DB(t)

	hub := socket.NewHub(log)
	chatService := services.NewChatService(log, repos.NewChatRepo(db, log), repos.NewUserChatsRepo(db, log), hub)
	authService, err := services.NewAuthService(log, config.AuthConfig{JWTSecret: testSecret})
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	mediaService := services.NewImageKitMediaService(log, services.ImageKitKeys{
		PublicKey:  "public_test",
		PrivateKey: "private_test",
	}, 30*time.Minute)

	router := NewRouter(RouterConfig{
		Log:            log,
		ClientURLs:     []string{"http://localhost:5173"},
		AuthMiddleware: middleware.NewAuthMiddleware(log, authService),
		ChatHandler:    handlers.NewChatHandler(chatService),
		MediaHandler:   handlers.NewMediaHandler(mediaService),
		HealthHandler:  handlers.NewHealthHandler(nil),
		WsHandler:      handlers.WsHandler(hub, log, []string{"http://localhost:5173"}),
	})
	return &testServer{router: router, hub: hub}
}

func tokenFor(t *testing.T, userID string) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func (ts *testServer) do(t *testing.T, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, userID))
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func TestChatRoutesScenario(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/chats", "u1", map[string]string{"text": "Explain recursion"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	var chatID string
	decode(t, w, &chatID)

	w = ts.do(t, http.MethodGet, "/api/userchats", "u1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: %d %s", w.Code, w.Body.String())
	}
	var listed []map[string]string
	decode(t, w, &listed)
	if len(listed) != 1 || listed[0]["_id"] != chatID || listed[0]["title"] != "Explain recursion" {
		t.Fatalf("unexpected listing: %v", listed)
	}

	w = ts.do(t, http.MethodPut, "/api/chats/"+chatID, "u1", map[string]string{
		"question": "Give an example",
		"answer":   "Factorial is...",
		"img":      "https://ik.imagekit.io/racon/a.png",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("append: %d %s", w.Code, w.Body.String())
	}
	var ack struct {
		Acknowledged bool `json:"acknowledged"`
		Appended     int  `json:"appended"`
	}
	decode(t, w, &ack)
	if !ack.Acknowledged || ack.Appended != 2 {
		t.Fatalf("unexpected ack: %+v", ack)
	}

	w = ts.do(t, http.MethodGet, "/api/chats/"+chatID, "u1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: %d %s", w.Code, w.Body.String())
	}
	var chat types.Chat
	decode(t, w, &chat)
	if chat.ID != chatID || chat.UserID != "u1" || len(chat.History) != 3 {
		t.Fatalf("unexpected chat: %+v", chat)
	}
	if chat.History[1].Parts[0].Attachment != "https://ik.imagekit.io/racon/a.png" || chat.History[2].Role != types.RoleModel {
		t.Fatalf("unexpected history: %+v", chat.History)
	}
}

func TestChatRoutesErrors(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/chats", "u1", map[string]string{"text": "mine"})
	var chatID string
	decode(t, w, &chatID)

	cases := []struct {
		name   string
		method string
		path   string
		user   string
		body   interface{}
		status int
		code   string
	}{
		{"no token", http.MethodGet, "/api/userchats", "", nil, http.StatusUnauthorized, "unauthorized"},
		{"blank text", http.MethodPost, "/api/chats", "u1", map[string]string{"text": " "}, http.StatusBadRequest, "invalid_request"},
		{"bad body", http.MethodPost, "/api/chats", "u1", nil, http.StatusBadRequest, "invalid_request"},
		{"no index", http.MethodGet, "/api/userchats", "u2", nil, http.StatusNotFound, "not_found"},
		{"foreign chat", http.MethodGet, "/api/chats/" + chatID, "u2", nil, http.StatusNotFound, "not_found"},
		{"malformed id", http.MethodGet, "/api/chats/nope", "u1", nil, http.StatusNotFound, "not_found"},
		{"foreign append", http.MethodPut, "/api/chats/" + chatID, "u2", map[string]string{"answer": "A"}, http.StatusNotFound, "not_found"},
		{"missing answer", http.MethodPut, "/api/chats/" + chatID, "u1", map[string]string{"question": "Q"}, http.StatusBadRequest, "invalid_request"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := ts.do(t, tc.method, tc.path, tc.user, tc.body)
			if w.Code != tc.status {
				t.Fatalf("status: got %d want %d (%s)", w.Code, tc.status, w.Body.String())
			}
			var env response.ErrorEnvelope
			decode(t, w, &env)
			if env.Error.Code != tc.code {
				t.Fatalf("code: got %q want %q", env.Error.Code, tc.code)
			}
		})
	}
}

func TestUploadIsPublic(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/api/upload", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("upload: %d %s", w.Code, w.Body.String())
	}
	var auth services.UploadAuth
	decode(t, w, &auth)
	if auth.Token == "" || auth.Signature == "" || auth.PublicKey != "public_test" || auth.Expire <= time.Now().Unix() {
		t.Fatalf("unexpected upload auth: %+v", auth)
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/healthz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("healthz: %d", w.Code)
	}
	var body map[string]string
	decode(t, w, &body)
	if body["status"] != "ok" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestCreateChatNotifiesOwner(t *testing.T) {
	ts := newTestServer(t)
	client := socket.NewClient(nil, ts.hub, "u1", func() {}, testutil.Logger(t))
	ts.hub.Subscribe(client, []string{socket.UserChannel("u1")})

	w := ts.do(t, http.MethodPost, "/api/chats", "u1", map[string]string{"text": "hello"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d", w.Code)
	}
	select {
	case msg := <-client.Outbound:
		ev, ok := msg.Data.(socket.Event)
		if !ok || ev.Action != services.EventChatCreated {
			t.Fatalf("unexpected event: %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

type failingPinger struct{}

func (failingPinger) Ping(ctx context.Context) error { return context.DeadlineExceeded }

func TestHealthzStoreDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/healthz", handlers.NewHealthHandler(failingPinger{}).Healthz)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestRouterRecoversPanicsInsideRequestLog(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.FromZap(zap.New(core))
	router := NewRouter(RouterConfig{
		Log:            log,
		AuthMiddleware: middleware.NewAuthMiddleware(log, nil),
		ChatHandler:    handlers.NewChatHandler(nil),
		MediaHandler:   handlers.NewMediaHandler(nil),
		HealthHandler:  handlers.NewHealthHandler(nil),
	})
	router.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var env response.ErrorEnvelope
	decode(t, w, &env)
	if env.Error.Code != "internal" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
	if logs.FilterMessage("Request failed").FilterField(zap.String("path", "/boom")).Len() != 1 {
		t.Fatalf("panicking request left no log line: %+v", logs.All())
	}
}
