package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchQuery(t *testing.T) {
	assert.Equal(t, "https://youtu.be/abc", SearchQuery("  https://youtu.be/abc "))
	assert.Equal(t, "ytsearch1:아이유 밤편지", SearchQuery("아이유 밤편지"))
}

func TestParseYtdlpOutput(t *testing.T) {
	out := []byte(`{"url":"https://stream/1","webpage_url":"https://youtube.com/watch?v=1","title":"Song","uploader":"Me","duration":215.4,"thumbnail":"https://img/1.jpg"}
{"url":"https://stream/2","title":"Other"}`)

	track, err := parseYtdlpOutput(out)
	require.NoError(t, err)
	assert.Equal(t, "https://youtube.com/watch?v=1", track.URL)
	assert.Equal(t, "https://stream/1", track.StreamURL)
	assert.Equal(t, "Song", track.Title)
	assert.Equal(t, "Me", track.Uploader)
	assert.Equal(t, 215, track.Duration)
	assert.Equal(t, "https://img/1.jpg", track.Thumbnail)
}

func TestParseYtdlpOutputErrors(t *testing.T) {
	_, err := parseYtdlpOutput(nil)
	assert.ErrorIs(t, err, ErrNoResult)

	_, err = parseYtdlpOutput([]byte(`{"title":"no url"}`))
	assert.ErrorIs(t, err, ErrNoResult)

	_, err = parseYtdlpOutput([]byte(`not json`))
	assert.Error(t, err)
}

func TestParseYtdlpOutputFallsBackToStreamURL(t *testing.T) {
	track, err := parseYtdlpOutput([]byte(`{"url":"https://stream/only"}`))
	require.NoError(t, err)
	assert.Equal(t, "https://stream/only", track.URL)
}
