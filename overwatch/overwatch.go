// Package overwatch は OverFast API からプレイヤーの概要を取得します。
package overwatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"
)

var (
	ErrInvalidBattleTag = errors.New("overwatch: battletag must look like Name#1234")
	ErrPlayerNotFound   = errors.New("overwatch: player not found")
	ErrRateLimited      = errors.New("overwatch: rate limited")
)

const DefaultBaseURL = "https://overfast-api.tekrop.fr"

// Rank は1ロールの競技ランクです。
type Rank struct {
	Division string `json:"division"`
	Tier     int    `json:"tier"`
	RoleIcon string `json:"role_icon"`
	RankIcon string `json:"rank_icon"`
}

// PlatformRanks はプラットフォームごとのロール別ランクです。未配置のロールは nil です。
type PlatformRanks struct {
	Season  int   `json:"season"`
	Tank    *Rank `json:"tank"`
	Damage  *Rank `json:"damage"`
	Support *Rank `json:"support"`
	Open    *Rank `json:"open"`
}

// Summary は /players/{id}/summary のレスポンスです。
type Summary struct {
	Username    string `json:"username"`
	Avatar      string `json:"avatar"`
	Namecard    string `json:"namecard"`
	Title       string `json:"title"`
	Endorsement struct {
		Level int    `json:"level"`
		Frame string `json:"frame"`
	} `json:"endorsement"`
	Competitive *struct {
		PC      *PlatformRanks `json:"pc"`
		Console *PlatformRanks `json:"console"`
	} `json:"competitive"`
	LastUpdatedAt int64 `json:"last_updated_at"`
}

// PC はPCの競技ランクを返します。競技戦をプレイしていなければ nil です。
func (s *Summary) PC() *PlatformRanks {
	if s.Competitive == nil {
		return nil
	}
	return s.Competitive.PC
}

// Client は OverFast API のクライアントです。
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient はクライアントを作成します。rps は1秒あたりのリクエスト数の上限です。
func NewClient(baseURL string, rps float64, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if rps <= 0 {
		rps = 1
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// PlayerID はバトルタグをAPIのプレイヤーIDに変換します（Name#1234 → Name-1234）。
func PlayerID(battleTag string) (string, error) {
	battleTag = strings.TrimSpace(battleTag)
	name, number, ok := strings.Cut(battleTag, "#")
	if !ok || name == "" || number == "" {
		return "", ErrInvalidBattleTag
	}
	return name + "-" + number, nil
}

// PlayerSummary はプレイヤーの概要を取得します。
func (c *Client) PlayerSummary(ctx context.Context, battleTag string) (*Summary, error) {
	id, err := PlayerID(battleTag)
	if err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/players/%s/summary", c.baseURL, url.PathEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("overwatch: request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrPlayerNotFound
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	default:
		return nil, fmt.Errorf("overwatch: unexpected status %d", resp.StatusCode)
	}

	var summary Summary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return nil, fmt.Errorf("overwatch: decode summary: %w", err)
	}
	return &summary, nil
}

var titleCaser = cases.Title(language.English)

// FormatRank は "Diamond 3" のような表示用の文字列を返します。未配置なら unranked を返します。
func FormatRank(r *Rank, unranked string) string {
	if r == nil || r.Division == "" {
		return unranked
	}
	return fmt.Sprintf("%s %d", titleCaser.String(r.Division), r.Tier)
}
