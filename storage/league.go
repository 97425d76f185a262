package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

var (
	ErrTeamExists   = errors.New("storage: team already exists")
	ErrTeamNotFound = errors.New("storage: team not found")
)

// Team はリーグに所属するチームです。
type Team struct {
	Members        []string `json:"members"`
	Score          int      `json:"score"`
	VoiceChannelID string   `json:"voiceChannelId,omitempty"`
	Captain        string   `json:"captain,omitempty"`
	CreatedAt      int64    `json:"createdAt"`
}

// League は league/{guildID} に保存されるサーバーごとのリーグ情報です。
type League struct {
	Teams map[string]*Team `json:"teams"`
}

// TeamNames は作成順（同時刻なら名前順）に並べたチーム名を返します。
func (l *League) TeamNames() []string {
	names := make([]string, 0, len(l.Teams))
	for name := range l.Teams {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := l.Teams[names[i]], l.Teams[names[j]]
		if a.CreatedAt != b.CreatedAt {
			return a.CreatedAt < b.CreatedAt
		}
		return names[i] < names[j]
	})
	return names
}

func teamsPath(guildID string) string {
	return "league/" + guildID + "/teams"
}

func teamPath(guildID, name string) (string, error) {
	if !ValidKey(name) {
		return "", fmt.Errorf("%w: team %q", ErrInvalidPath, name)
	}
	return teamsPath(guildID) + "/" + name, nil
}

// GetLeague はサーバーのリーグ情報を返します。チームがなければ空の League を返します。
func (s *DBStore) GetLeague(guildID string) (*League, error) {
	league := &League{Teams: make(map[string]*Team)}
	children, err := s.Children(teamsPath(guildID))
	if err != nil {
		return nil, err
	}
	for name, raw := range children {
		var t Team
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("チーム %q の読み込みに失敗しました: %w", name, err)
		}
		league.Teams[name] = &t
	}
	return league, nil
}

// CreateTeam は空のチームを作成します。同名のチームがあれば ErrTeamExists を返します。
func (s *DBStore) CreateTeam(guildID, name string, createdAt int64) error {
	path, err := teamPath(guildID, name)
	if err != nil {
		return err
	}
	return s.Transaction(path, func(current json.RawMessage) (any, error) {
		if current != nil {
			return nil, ErrTeamExists
		}
		return &Team{Members: []string{}, CreatedAt: createdAt}, nil
	})
}

// DeleteTeam はチームを削除します。
func (s *DBStore) DeleteTeam(guildID, name string) error {
	path, err := teamPath(guildID, name)
	if err != nil {
		return err
	}
	return s.Transaction(path, func(current json.RawMessage) (any, error) {
		if current == nil {
			return nil, ErrTeamNotFound
		}
		return nil, nil
	})
}

// ResetTeams はサーバーの全チームを削除します。
func (s *DBStore) ResetTeams(guildID string) error {
	return s.Delete(teamsPath(guildID))
}

// updateTeam はチームを読み込み、fn で変更して保存します。
func (s *DBStore) updateTeam(guildID, name string, fn func(t *Team) error) (*Team, error) {
	path, err := teamPath(guildID, name)
	if err != nil {
		return nil, err
	}
	var team Team
	err = s.Transaction(path, func(current json.RawMessage) (any, error) {
		if current == nil {
			return nil, ErrTeamNotFound
		}
		if err := json.Unmarshal(current, &team); err != nil {
			return nil, err
		}
		if err := fn(&team); err != nil {
			return nil, err
		}
		return &team, nil
	})
	if err != nil {
		return nil, err
	}
	return &team, nil
}

// AddTeamMembers はメンバーを追加します。すでに所属しているユーザーは無視されます。
// キャプテンがいない場合は最初に追加されたメンバーがキャプテンになります。
func (s *DBStore) AddTeamMembers(guildID, name string, userIDs []string) (*Team, error) {
	return s.updateTeam(guildID, name, func(t *Team) error {
		seen := make(map[string]bool, len(t.Members))
		for _, id := range t.Members {
			seen[id] = true
		}
		for _, id := range userIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			t.Members = append(t.Members, id)
		}
		if t.Captain == "" && len(t.Members) > 0 {
			t.Captain = t.Members[0]
		}
		return nil
	})
}

// SetTeamVoiceChannel はチームのボイスチャンネルを設定します。
func (s *DBStore) SetTeamVoiceChannel(guildID, name, channelID string) (*Team, error) {
	return s.updateTeam(guildID, name, func(t *Team) error {
		t.VoiceChannelID = channelID
		return nil
	})
}

// AdjustTeamScore はスコアに delta を加算し、新しいスコアを返します。
func (s *DBStore) AdjustTeamScore(guildID, name string, delta int) (int, error) {
	team, err := s.updateTeam(guildID, name, func(t *Team) error {
		t.Score += delta
		return nil
	})
	if err != nil {
		return 0, err
	}
	return team.Score, nil
}
