package handlers

import "strings"

// WordFilter はメッセージ中の禁止語を検出します。
// 単語は空白で区切って完全一致で比較します。
type WordFilter struct {
	words map[string]struct{}
}

func NewWordFilter(words []string) *WordFilter {
	f := &WordFilter{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			f.words[w] = struct{}{}
		}
	}
	return f
}

// Match は content に禁止語が含まれていれば true を返します。
func (f *WordFilter) Match(content string) bool {
	if f == nil || len(f.words) == 0 {
		return false
	}
	for _, word := range strings.Fields(content) {
		if _, ok := f.words[word]; ok {
			return true
		}
	}
	return false
}
