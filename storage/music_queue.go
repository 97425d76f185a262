package storage

import (
	"errors"
)

// Song は再生キューの1曲です。
type Song struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Duration  int    `json:"duration"` // 秒
	Thumbnail string `json:"thumbnail,omitempty"`
	Uploader  string `json:"uploader,omitempty"`
	AddedBy   string `json:"addedBy"`
	AddedAt   int64  `json:"addedAt"` // unixミリ秒
}

// MusicQueue は music/{guildID}/queue に保存されるサーバーごとの再生キューです。
type MusicQueue struct {
	Songs        []Song `json:"songs"`
	CurrentIndex int    `json:"currentIndex"`
	IsPlaying    bool   `json:"isPlaying"`
}

// Normalize はURLのない曲を取り除き、CurrentIndex を範囲内に収めます。
func (q *MusicQueue) Normalize() {
	valid := q.Songs[:0]
	for _, song := range q.Songs {
		if song.URL != "" {
			valid = append(valid, song)
		}
	}
	q.Songs = valid
	if q.CurrentIndex >= len(q.Songs) {
		q.CurrentIndex = len(q.Songs) - 1
	}
	if q.CurrentIndex < 0 {
		q.CurrentIndex = 0
	}
	if len(q.Songs) == 0 {
		q.IsPlaying = false
	}
}

// Current は現在の曲を返します。キューが空なら nil です。
func (q *MusicQueue) Current() *Song {
	if q.CurrentIndex < 0 || q.CurrentIndex >= len(q.Songs) {
		return nil
	}
	return &q.Songs[q.CurrentIndex]
}

func musicQueuePath(guildID string) string {
	return "music/" + guildID + "/queue"
}

// GetMusicQueue はサーバーの再生キューを返します。保存されていなければ空のキューです。
func (s *DBStore) GetMusicQueue(guildID string) (*MusicQueue, error) {
	q := &MusicQueue{}
	if err := s.Get(musicQueuePath(guildID), q); err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	q.Normalize()
	return q, nil
}

// SaveMusicQueue は正規化したキューを保存します。
func (s *DBStore) SaveMusicQueue(guildID string, q *MusicQueue) error {
	q.Normalize()
	if q.Songs == nil {
		q.Songs = []Song{}
	}
	return s.Set(musicQueuePath(guildID), q)
}

// SetMusicPlaying は isPlaying だけを更新します。
func (s *DBStore) SetMusicPlaying(guildID string, playing bool) error {
	return s.Update(musicQueuePath(guildID), map[string]any{"isPlaying": playing})
}
