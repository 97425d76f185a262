package storage

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *DBStore {
	t.Helper()
	store, err := NewDBStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSetGet(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("a/b", map[string]any{"x": 1, "y": "two"}))

	var got map[string]any
	require.NoError(t, store.Get("a/b", &got))
	assert.Equal(t, map[string]any{"x": float64(1), "y": "two"}, got)

	var x int
	require.NoError(t, store.Get("a/b/x", &x))
	assert.Equal(t, 1, x)

	// 子孫の行から親を組み立てる
	var parent map[string]map[string]any
	require.NoError(t, store.Get("a", &parent))
	assert.Equal(t, "two", parent["b"]["y"])
}

func TestGetNotFound(t *testing.T) {
	store := newTestStore(t)

	var v any
	assert.ErrorIs(t, store.Get("missing", &v), ErrNotFound)

	require.NoError(t, store.Set("a/b", map[string]any{"x": 1}))
	assert.ErrorIs(t, store.Get("a/b/nope", &v), ErrNotFound)
	assert.ErrorIs(t, store.Get("a/b/x/deeper", &v), ErrNotFound)
}

func TestSetInsideAncestorRow(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("guild/1", map[string]any{"name": "one"}))
	require.NoError(t, store.Set("guild/1/members/42", map[string]any{"score": 3}))

	var score int
	require.NoError(t, store.Get("guild/1/members/42/score", &score))
	assert.Equal(t, 3, score)

	var name string
	require.NoError(t, store.Get("guild/1/name", &name))
	assert.Equal(t, "one", name)
}

func TestSetReplacesDescendants(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("root/a", 1))
	require.NoError(t, store.Set("root/b", 2))
	require.NoError(t, store.Set("root", map[string]any{"c": 3}))

	var got map[string]int
	require.NoError(t, store.Get("root", &got))
	assert.Equal(t, map[string]int{"c": 3}, got)
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("x/y", map[string]any{"a": 1, "b": 2}))
	require.NoError(t, store.Delete("x/y/a"))

	var got map[string]int
	require.NoError(t, store.Get("x/y", &got))
	assert.Equal(t, map[string]int{"b": 2}, got)

	// 最後の子を消すと親も存在しなくなる
	require.NoError(t, store.Delete("x/y/b"))
	assert.ErrorIs(t, store.Get("x/y", &got), ErrNotFound)

	// 存在しないパスの削除はエラーにならない
	assert.NoError(t, store.Delete("nothing/here"))
}

func TestUpdate(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("q", map[string]any{"songs": []string{"a"}, "isPlaying": true}))
	require.NoError(t, store.Update("q", map[string]any{"isPlaying": false, "currentIndex": 0}))

	var got struct {
		Songs        []string `json:"songs"`
		IsPlaying    bool     `json:"isPlaying"`
		CurrentIndex int      `json:"currentIndex"`
	}
	require.NoError(t, store.Get("q", &got))
	assert.Equal(t, []string{"a"}, got.Songs)
	assert.False(t, got.IsPlaying)
}

func TestChildren(t *testing.T) {
	store := newTestStore(t)

	children, err := store.Children("empty")
	require.NoError(t, err)
	assert.Empty(t, children)

	require.NoError(t, store.Set("p/a", "x"))
	require.NoError(t, store.Set("p/b", "y"))
	children, err = store.Children("p")
	require.NoError(t, err)
	assert.Len(t, children, 2)
	assert.JSONEq(t, `"x"`, string(children["a"]))
}

func TestPrefixDoesNotMatchSiblings(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Set("team/a_1", 1))
	require.NoError(t, store.Set("team/a%1", 2))
	require.NoError(t, store.Set("teams/x", 3))

	var got map[string]int
	require.NoError(t, store.Get("team", &got))
	assert.Equal(t, map[string]int{"a_1": 1, "a%1": 2}, got)
}

func TestInvalidPath(t *testing.T) {
	store := newTestStore(t)

	for _, p := range []string{"", "/", "a//b", "a/b.c", "a/$b", "a/[0]"} {
		assert.ErrorIs(t, store.Set(p, 1), ErrInvalidPath, p)
	}
	assert.False(t, ValidKey("a/b"))
	assert.True(t, ValidKey("레드팀"))
}

func TestTransaction(t *testing.T) {
	store := newTestStore(t)

	incr := func(current json.RawMessage) (any, error) {
		n := 0
		if current != nil {
			if err := json.Unmarshal(current, &n); err != nil {
				return nil, err
			}
		}
		return n + 1, nil
	}
	require.NoError(t, store.Transaction("counter", incr))
	require.NoError(t, store.Transaction("counter", incr))

	var n int
	require.NoError(t, store.Get("counter", &n))
	assert.Equal(t, 2, n)

	boom := errors.New("boom")
	err := store.Transaction("counter", func(json.RawMessage) (any, error) { return 100, boom })
	assert.ErrorIs(t, err, boom)
	require.NoError(t, store.Get("counter", &n))
	assert.Equal(t, 2, n)
}

func TestAccessKey(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("data", 1))

	store.RequireAccessKey("secret")
	var v int
	assert.ErrorIs(t, store.Get("data", &v), ErrAccessDenied)

	require.NoError(t, store.AddAccessKey("bot", "secret"))
	require.NoError(t, store.Get("data", &v))
	assert.Equal(t, 1, v)

	store.RequireAccessKey("other")
	assert.ErrorIs(t, store.Set("data", 2), ErrAccessDenied)

	store.RequireAccessKey("")
	assert.NoError(t, store.Set("data", 2))
}

func TestLargeNumbersKeepPrecision(t *testing.T) {
	store := newTestStore(t)

	const ms int64 = 1712345678901
	require.NoError(t, store.Set("t", map[string]any{"addedAt": ms}))
	require.NoError(t, store.Set("t/other", "x"))

	var got struct {
		AddedAt int64 `json:"addedAt"`
	}
	require.NoError(t, store.Get("t", &got))
	assert.Equal(t, ms, got.AddedAt)
}
