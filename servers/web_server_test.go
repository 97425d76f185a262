package servers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"nabi/config"
	"nabi/logger"
	"nabi/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type memberSet map[string]bool

func (m memberSet) IsMember(guildID, userID string) bool { return m[guildID+"/"+userID] }

func testLogger() logger.Logger {
	return logger.Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func newTestServer(t *testing.T, members MembershipChecker) (*WebServer, *storage.DBStore) {
	t.Helper()
	store, err := storage.NewDBStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{}
	cfg.Web.Addr = "127.0.0.1:0"
	cfg.Web.ClientID = "client"
	cfg.Web.ClientSecret = "secret"
	cfg.Web.RedirectURI = "http://localhost/api/auth/callback"
	cfg.Web.SessionSecret = "0123456789abcdef0123456789abcdef"
	return NewWebServer(cfg, testLogger(), store, members), store
}

// loginCookie はユーザーIDを保存したセッションクッキーを作ります。
func loginCookie(t *testing.T, ws *WebServer, userID string) *http.Cookie {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	session, err := ws.sessions.New(req, sessionName)
	require.NoError(t, err)
	session.Values[sessionUserID] = userID
	require.NoError(t, session.Save(req, rec))
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func TestHealth(t *testing.T) {
	ws, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	ws.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	ws, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	ws.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuildAPIRequiresMembership(t *testing.T) {
	ws, store := newTestServer(t, memberSet{"g1/u1": true})
	_, _, err := store.CheckIn("g1", "u1", "2024-05-01")
	require.NoError(t, err)

	get := func(path string, cookie *http.Cookie) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if cookie != nil {
			req.AddCookie(cookie)
		}
		rec := httptest.NewRecorder()
		ws.Handler().ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, get("/api/guilds/g1/attendance", nil).Code)
	assert.Equal(t, http.StatusForbidden, get("/api/guilds/g1/attendance", loginCookie(t, ws, "u2")).Code)
	assert.Equal(t, http.StatusForbidden, get("/api/guilds/g2/league", loginCookie(t, ws, "u1")).Code)

	member := loginCookie(t, ws, "u1")
	rec := get("/api/guilds/g1/attendance", member)
	require.Equal(t, http.StatusOK, rec.Code)
	var records map[string]storage.AttendanceRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	assert.Equal(t, 1, records["u1"].Count)

	assert.Equal(t, http.StatusOK, get("/api/guilds/g1/league", member).Code)

	rec = get("/api/guilds/g1/music/queue", member)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"songs":null,"currentIndex":0,"isPlaying":false}`, rec.Body.String())
}

func TestLoginRedirectsToDiscord(t *testing.T) {
	ws, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	ws.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/login", nil))
	require.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "discord.com", loc.Host)
	assert.Equal(t, "client", loc.Query().Get("client_id"))
	assert.NotEmpty(t, loc.Query().Get("state"))
	assert.NotEmpty(t, rec.Result().Cookies())
}

func TestCallbackRejectsWrongState(t *testing.T) {
	ws, _ := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	ws.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/callback?state=x&code=y", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOAuthFlow(t *testing.T) {
	discord := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/token":
			io.WriteString(w, `{"access_token":"token","token_type":"Bearer","expires_in":3600}`)
		case "/users/@me":
			if r.Header.Get("Authorization") != "Bearer token" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			io.WriteString(w, `{"id":"u1","username":"nabi"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer discord.Close()

	ws, _ := newTestServer(t, memberSet{"g1/u1": true})
	ws.oauth.Endpoint = oauth2.Endpoint{AuthURL: discord.URL + "/authorize", TokenURL: discord.URL + "/token", AuthStyle: oauth2.AuthStyleInParams}
	ws.userInfoURL = discord.URL + "/users/@me"

	rec := httptest.NewRecorder()
	ws.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/login", nil))
	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	stateCookie := rec.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/api/auth/callback?code=abc&state="+url.QueryEscape(loc.Query().Get("state")), nil)
	req.AddCookie(stateCookie)
	rec = httptest.NewRecorder()
	ws.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	assert.Equal(t, "/", rec.Header().Get("Location"))

	req = httptest.NewRequest(http.MethodGet, "/api/guilds/g1/league", nil)
	req.AddCookie(rec.Result().Cookies()[0])
	rec = httptest.NewRecorder()
	ws.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

type stubServer struct {
	name    string
	stop    chan struct{}
	startFn func() error
}

func (s *stubServer) Name() string { return s.name }
func (s *stubServer) Start() error {
	if s.startFn != nil {
		return s.startFn()
	}
	<-s.stop
	return nil
}
func (s *stubServer) Stop(ctx context.Context) error {
	close(s.stop)
	return nil
}

func TestManagerRunStopsOnCancel(t *testing.T) {
	m := NewManager(testLogger())
	a := &stubServer{name: "a", stop: make(chan struct{})}
	m.AddServer(a)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()
	cancel()
	assert.NoError(t, <-done)
}

func TestManagerRunReturnsStartError(t *testing.T) {
	m := NewManager(testLogger())
	boom := errors.New("boom")
	m.AddServer(&stubServer{name: "bad", stop: make(chan struct{}), startFn: func() error { return boom }})
	m.AddServer(&stubServer{name: "ok", stop: make(chan struct{})})

	assert.ErrorIs(t, m.Run(context.Background()), boom)
}
