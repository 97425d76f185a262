// Package steam は Steam Web API からプロフィールと所持ゲームを取得します。
package steam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrProfileNotFound = errors.New("steam: profile not found")
	ErrPrivateProfile  = errors.New("steam: game details are private")
	ErrNoAPIKey        = errors.New("steam: api key is not configured")
)

const DefaultBaseURL = "https://api.steampowered.com"

var steamID64 = regexp.MustCompile(`^\d{17}$`)

// OwnedGame は所持ゲーム1件です。
type OwnedGame struct {
	AppID           int    `json:"appid"`
	Name            string `json:"name"`
	PlaytimeForever int    `json:"playtime_forever"` // 分
	RTimeLastPlayed int64  `json:"rtime_last_played"`
}

// LastPlayed は最後にプレイした時刻を返します。記録がなければゼロ値です。
func (g OwnedGame) LastPlayed() time.Time {
	if g.RTimeLastPlayed == 0 {
		return time.Time{}
	}
	return time.Unix(g.RTimeLastPlayed, 0)
}

// Library は所持ゲームの一覧です。
type Library struct {
	GameCount int         `json:"game_count"`
	Games     []OwnedGame `json:"games"`
}

// Find は appID のゲームを探します。
func (l *Library) Find(appID int) (OwnedGame, bool) {
	for _, g := range l.Games {
		if g.AppID == appID {
			return g, true
		}
	}
	return OwnedGame{}, false
}

// Client は Steam Web API のクライアントです。
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewClient(apiKey, baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{apiKey: apiKey, baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, dest any) error {
	if c.apiKey == "" {
		return ErrNoAPIKey
	}
	params.Set("key", c.apiKey)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("steam: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("steam: unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("steam: decode response: %w", err)
	}
	return nil
}

// ResolveSteamID はバニティIDまたはSteamID64を SteamID64 に変換します。
// プロフィールURLが渡された場合は末尾のIDを使います。
func (c *Client) ResolveSteamID(ctx context.Context, input string) (string, error) {
	id := strings.TrimSpace(input)
	id = strings.TrimRight(id, "/")
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}
	if id == "" {
		return "", ErrProfileNotFound
	}
	if steamID64.MatchString(id) {
		return id, nil
	}

	var out struct {
		Response struct {
			Success int    `json:"success"`
			SteamID string `json:"steamid"`
		} `json:"response"`
	}
	if err := c.get(ctx, "/ISteamUser/ResolveVanityURL/v1/", url.Values{"vanityurl": {id}}, &out); err != nil {
		return "", err
	}
	if out.Response.Success != 1 || out.Response.SteamID == "" {
		return "", ErrProfileNotFound
	}
	return out.Response.SteamID, nil
}

// OwnedGames は所持ゲームを取得します。非公開プロフィールの場合は ErrPrivateProfile を返します。
func (c *Client) OwnedGames(ctx context.Context, steamID string) (*Library, error) {
	var out struct {
		Response json.RawMessage `json:"response"`
	}
	params := url.Values{
		"steamid":                   {steamID},
		"include_appinfo":           {"1"},
		"include_played_free_games": {"1"},
	}
	if err := c.get(ctx, "/IPlayerService/GetOwnedGames/v1/", params, &out); err != nil {
		return nil, err
	}
	// 非公開プロフィールは空の response を返す。game_count が 0 なら公開で所持ゲームなし
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(out.Response, &fields); err != nil || len(fields) == 0 {
		return nil, ErrPrivateProfile
	}
	var lib Library
	if err := json.Unmarshal(out.Response, &lib); err != nil {
		return nil, fmt.Errorf("steam: decode response: %w", err)
	}
	return &lib, nil
}

// FormatPlaytime は分を "X시간 Y분" に変換します。
func FormatPlaytime(minutes int) string {
	return strconv.Itoa(minutes/60) + "시간 " + strconv.Itoa(minutes%60) + "분"
}
