package player

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"nabi/interfaces"
)

// ErrNoResult は検索結果が見つからなかったことを示します。
var ErrNoResult = errors.New("player: no result")

type ytdlpResult struct {
	URL        string  `json:"url"`
	WebpageURL string  `json:"webpage_url"`
	Title      string  `json:"title"`
	Uploader   string  `json:"uploader"`
	Duration   float64 `json:"duration"`
	Thumbnail  string  `json:"thumbnail"`
}

// SearchQuery は yt-dlp に渡す引数を作ります。URL以外はYouTube検索の先頭1件にします。
func SearchQuery(query string) string {
	query = strings.TrimSpace(query)
	if strings.HasPrefix(query, "http://") || strings.HasPrefix(query, "https://") {
		return query
	}
	return "ytsearch1:" + query
}

// parseYtdlpOutput は --dump-json の出力を Track に変換します。
// 検索結果は1行に1件なので最初の行だけを使います。
func parseYtdlpOutput(out []byte) (*interfaces.Track, error) {
	out = bytes.TrimSpace(out)
	if len(out) == 0 {
		return nil, ErrNoResult
	}
	if i := bytes.IndexByte(out, '\n'); i >= 0 {
		out = out[:i]
	}

	var r ytdlpResult
	if err := json.Unmarshal(out, &r); err != nil {
		return nil, fmt.Errorf("yt-dlpの出力のパースに失敗しました: %w", err)
	}
	if r.URL == "" {
		return nil, ErrNoResult
	}
	page := r.WebpageURL
	if page == "" {
		page = r.URL
	}
	return &interfaces.Track{
		URL:       page,
		StreamURL: r.URL,
		Title:     r.Title,
		Uploader:  r.Uploader,
		Duration:  int(r.Duration),
		Thumbnail: r.Thumbnail,
	}, nil
}

// Resolve はyt-dlpを使用してURLまたは検索語からオーディオストリームのURLとメタデータを取得します。
func (p *Player) Resolve(ctx context.Context, query string) (*interfaces.Track, error) {
	cmd := exec.CommandContext(ctx, p.ytdlpPath,
		"-f", "bestaudio[ext=webm]/bestaudio",
		"--no-playlist",
		"--dump-json",
		SearchQuery(query),
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("yt-dlpの実行に失敗しました: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return parseYtdlpOutput(stdout.Bytes())
}
