package servers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"nabi/config"
	"nabi/interfaces"
	"nabi/metrics"
	"nabi/storage"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/oauth2"
)

const (
	sessionName   = "nabi_session"
	sessionUserID = "user_id"
	sessionState  = "oauth_state"

	discordAPIBase = "https://discord.com/api"
)

// DiscordEndpoint は Discord の OAuth2 エンドポイントです。
var DiscordEndpoint = oauth2.Endpoint{
	AuthURL:   "https://discord.com/oauth2/authorize",
	TokenURL:  "https://discord.com/api/oauth2/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// MembershipChecker はユーザーがサーバーのメンバーかどうかを判定します。
type MembershipChecker interface {
	IsMember(guildID, userID string) bool
}

// WebServer はHTTPサーバーを管理します。
type WebServer struct {
	log      interfaces.Logger
	store    interfaces.DataStore
	members  MembershipChecker
	oauth    *oauth2.Config
	sessions *sessions.CookieStore
	router   *mux.Router
	http     *http.Server

	// userInfoURL は OAuth2 トークンでユーザー情報を取得するURLです。
	userInfoURL string
}

// NewWebServer は新しいWebServerインスタンスを作成します。
func NewWebServer(cfg *config.Config, log interfaces.Logger, store interfaces.DataStore, members MembershipChecker) *WebServer {
	cookies := sessions.NewCookieStore([]byte(cfg.Web.SessionSecret))
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int((7 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	ws := &WebServer{
		log:     log,
		store:   store,
		members: members,
		oauth: &oauth2.Config{
			ClientID:     cfg.Web.ClientID,
			ClientSecret: cfg.Web.ClientSecret,
			RedirectURL:  cfg.Web.RedirectURI,
			Scopes:       []string{"identify"},
			Endpoint:     DiscordEndpoint,
		},
		sessions:    cookies,
		userInfoURL: discordAPIBase + "/users/@me",
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", ws.Health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// ルーティングを設定
	r.HandleFunc("/api/auth/login", ws.Login).Methods(http.MethodGet)
	r.HandleFunc("/api/auth/callback", ws.Callback).Methods(http.MethodGet)
	r.HandleFunc("/api/auth/logout", ws.Logout).Methods(http.MethodPost, http.MethodGet)

	api := r.PathPrefix("/api/guilds/{guildID}").Subrouter()
	api.Use(ws.requireGuildMember)
	api.HandleFunc("/attendance", ws.Attendance).Methods(http.MethodGet)
	api.HandleFunc("/league", ws.League).Methods(http.MethodGet)
	api.HandleFunc("/music/queue", ws.MusicQueue).Methods(http.MethodGet)

	ws.router = r
	ws.http = &http.Server{
		Addr:              cfg.Web.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return ws
}

func (s *WebServer) Name() string { return "web" }

// Handler はルーターを返します。テストで httptest と組み合わせて使います。
func (s *WebServer) Handler() http.Handler { return s.router }

// Start はWebサーバーを起動します。Stop されるまで戻りません。
func (s *WebServer) Start() error {
	s.log.Info("Webサーバーを起動します", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("Webサーバーの起動に失敗しました: %w", err)
	}
	return nil
}

// Stop はWebサーバーをシャットダウンします。
func (s *WebServer) Stop(ctx context.Context) error {
	s.log.Info("Webサーバーをシャットダウンします...")
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.http.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Health はストアに接続できるかを返します。
func (s *WebServer) Health(w http.ResponseWriter, r *http.Request) {
	if err := metrics.MeasureStore(s.store.Ping); err != nil {
		s.log.Error("ヘルスチェックに失敗しました", "error", err)
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Login はDiscord OAuth2のログインフローを開始します。
func (s *WebServer) Login(w http.ResponseWriter, r *http.Request) {
	session, _ := s.sessions.Get(r, sessionName)
	state := uuid.NewString()
	session.Values[sessionState] = state
	if err := session.Save(r, w); err != nil {
		s.log.Error("セッションの保存に失敗しました", "error", err)
		writeError(w, http.StatusInternalServerError, "session error")
		return
	}
	http.Redirect(w, r, s.oauth.AuthCodeURL(state), http.StatusFound)
}

type discordUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Callback はDiscordからの認証コールバックを処理し、ユーザーIDをセッションに保存します。
func (s *WebServer) Callback(w http.ResponseWriter, r *http.Request) {
	session, _ := s.sessions.Get(r, sessionName)
	expected, _ := session.Values[sessionState].(string)
	if expected == "" || r.URL.Query().Get("state") != expected {
		writeError(w, http.StatusBadRequest, "invalid oauth state")
		return
	}
	delete(session.Values, sessionState)

	token, err := s.oauth.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		s.log.Warn("OAuth2トークンの取得に失敗しました", "error", err)
		writeError(w, http.StatusUnauthorized, "token exchange failed")
		return
	}
	user, err := s.fetchUser(r.Context(), token)
	if err != nil {
		s.log.Warn("ユーザー情報の取得に失敗しました", "error", err)
		writeError(w, http.StatusBadGateway, "failed to fetch user")
		return
	}

	session.Values[sessionUserID] = user.ID
	if err := session.Save(r, w); err != nil {
		s.log.Error("セッションの保存に失敗しました", "error", err)
		writeError(w, http.StatusInternalServerError, "session error")
		return
	}
	s.log.Info("Webにログインしました", "userID", user.ID, "username", user.Username)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *WebServer) fetchUser(ctx context.Context, token *oauth2.Token) (*discordUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.oauth.Client(ctx, token).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var user discordUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, errors.New("empty user id")
	}
	return &user, nil
}

// Logout はセッションを破棄します。
func (s *WebServer) Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := s.sessions.Get(r, sessionName)
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		s.log.Error("セッションの破棄に失敗しました", "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// requireGuildMember はログイン済みで、かつ対象サーバーのメンバーであるリクエストだけを通します。
func (s *WebServer) requireGuildMember(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, _ := s.sessions.Get(r, sessionName)
		userID, _ := session.Values[sessionUserID].(string)
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "login required")
			return
		}
		guildID := mux.Vars(r)["guildID"]
		if !storage.ValidKey(guildID) {
			writeError(w, http.StatusBadRequest, "invalid guild id")
			return
		}
		if s.members == nil || !s.members.IsMember(guildID, userID) {
			writeError(w, http.StatusForbidden, "not a member of this guild")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *WebServer) Attendance(w http.ResponseWriter, r *http.Request) {
	guildID := mux.Vars(r)["guildID"]
	records, err := s.store.GetGuildAttendance(guildID)
	if err != nil {
		s.log.Error("出席データの取得に失敗しました", "error", err, "guildID", guildID)
		writeError(w, http.StatusInternalServerError, "store error")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *WebServer) League(w http.ResponseWriter, r *http.Request) {
	guildID := mux.Vars(r)["guildID"]
	league, err := s.store.GetLeague(guildID)
	if err != nil {
		s.log.Error("リーグデータの取得に失敗しました", "error", err, "guildID", guildID)
		writeError(w, http.StatusInternalServerError, "store error")
		return
	}
	writeJSON(w, http.StatusOK, league)
}

func (s *WebServer) MusicQueue(w http.ResponseWriter, r *http.Request) {
	guildID := mux.Vars(r)["guildID"]
	q, err := s.store.GetMusicQueue(guildID)
	if err != nil {
		s.log.Error("再生キューの取得に失敗しました", "error", err, "guildID", guildID)
		writeError(w, http.StatusInternalServerError, "store error")
		return
	}
	writeJSON(w, http.StatusOK, q)
}
