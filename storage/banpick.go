package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	ErrNoBanpickSession   = errors.New("storage: no active banpick session")
	ErrBanpickSubmitted   = errors.New("storage: banpick already submitted")
	ErrBanpickUnknownTeam = errors.New("storage: team is not part of the banpick session")
)

// BanpickTeam はバンピックに参加するチームの情報です。
type BanpickTeam struct {
	Captain string `json:"captain"`
}

// BanpickSession は banpick/{guildID} に保存される進行中のバンピックです。
type BanpickSession struct {
	ID        string                 `json:"id"`
	ChannelID string                 `json:"channelId"`
	MessageID string                 `json:"messageId"`
	Teams     map[string]BanpickTeam `json:"teams"`
	Banpicks  map[string]string      `json:"banpicks,omitempty"`
	IsActive  bool                   `json:"isActive"`
	CreatedAt int64                  `json:"createdAt"` // unix秒
}

// TeamNames はセッションのチーム名を名前順で返します。
func (b *BanpickSession) TeamNames() []string {
	names := make([]string, 0, len(b.Teams))
	for name := range b.Teams {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Complete は全チームが提出済みかどうかを返します。
func (b *BanpickSession) Complete() bool {
	return len(b.Teams) > 0 && len(b.Banpicks) >= len(b.Teams)
}

// TeamOfCaptain は userID がキャプテンを務めるチーム名を返します。
func (b *BanpickSession) TeamOfCaptain(userID string) (string, bool) {
	for _, name := range b.TeamNames() {
		if b.Teams[name].Captain == userID {
			return name, true
		}
	}
	return "", false
}

func banpickPath(guildID string) string {
	return "banpick/" + guildID
}

// GetBanpickSession はサーバーのバンピックセッションを返します。なければ ErrNotFound です。
func (s *DBStore) GetBanpickSession(guildID string) (*BanpickSession, error) {
	var sess BanpickSession
	if err := s.Get(banpickPath(guildID), &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *DBStore) SaveBanpickSession(guildID string, sess *BanpickSession) error {
	return s.Set(banpickPath(guildID), sess)
}

func (s *DBStore) DeleteBanpickSession(guildID string) error {
	return s.Delete(banpickPath(guildID))
}

// FindActiveBanpick は userID がキャプテンになっている進行中のセッションを探します。
// 複数のサーバーで該当する場合はギルドIDの順で最初のものを返します。
func (s *DBStore) FindActiveBanpick(userID string) (guildID, team string, sess *BanpickSession, err error) {
	children, err := s.Children("banpick")
	if err != nil {
		return "", "", nil, err
	}
	guildIDs := make([]string, 0, len(children))
	for id := range children {
		guildIDs = append(guildIDs, id)
	}
	sort.Strings(guildIDs)

	for _, id := range guildIDs {
		var b BanpickSession
		if err := json.Unmarshal(children[id], &b); err != nil {
			continue
		}
		if !b.IsActive {
			continue
		}
		if name, ok := b.TeamOfCaptain(userID); ok {
			return id, name, &b, nil
		}
	}
	return "", "", nil, ErrNoBanpickSession
}

// AddBanpick はチームのバンピックを記録します。各チームは1回だけ提出できます。
// 全チームが揃った場合、セッションは非アクティブになります。
func (s *DBStore) AddBanpick(guildID, team, pick string) (*BanpickSession, error) {
	var sess BanpickSession
	err := s.Transaction(banpickPath(guildID), func(current json.RawMessage) (any, error) {
		if current == nil {
			return nil, ErrNoBanpickSession
		}
		if err := json.Unmarshal(current, &sess); err != nil {
			return nil, err
		}
		if !sess.IsActive {
			return nil, ErrNoBanpickSession
		}
		if _, ok := sess.Teams[team]; !ok {
			return nil, ErrBanpickUnknownTeam
		}
		if _, ok := sess.Banpicks[team]; ok {
			return nil, ErrBanpickSubmitted
		}
		if sess.Banpicks == nil {
			sess.Banpicks = make(map[string]string)
		}
		sess.Banpicks[team] = pick
		if sess.Complete() {
			sess.IsActive = false
		}
		return &sess, nil
	})
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// PurgeStaleBanpicks は作成から maxAge 以上経過したセッションを削除し、削除数を返します。
func (s *DBStore) PurgeStaleBanpicks(now time.Time, maxAge time.Duration) (int, error) {
	children, err := s.Children("banpick")
	if err != nil {
		return 0, err
	}
	purged := 0
	for guildID, raw := range children {
		var b BanpickSession
		if err := json.Unmarshal(raw, &b); err != nil {
			continue
		}
		if now.Sub(time.Unix(b.CreatedAt, 0)) < maxAge {
			continue
		}
		if err := s.DeleteBanpickSession(guildID); err != nil {
			return purged, fmt.Errorf("バンピックセッションの削除に失敗しました (%s): %w", guildID, err)
		}
		purged++
	}
	return purged, nil
}
