package player

import (
	"math/rand/v2"
	"sort"

	"nabi/storage"
)

// PageSize は削除画面やキュー表示で1ページに並べる曲数です。
const PageSize = 5

// Append は曲を末尾に追加し、1始まりの位置を返します。
func Append(q *storage.MusicQueue, song storage.Song) int {
	q.Songs = append(q.Songs, song)
	return len(q.Songs)
}

// Advance は曲の再生が終わったときに次の曲へ進めます。
// 最後の曲だった場合は先頭に戻して false を返し、再生を止めます。
// 1曲だけのキューでは同じ曲を繰り返します。
func Advance(q *storage.MusicQueue) bool {
	if len(q.Songs) == 1 {
		// 1曲だけのときは同じ曲をもう一度再生する
		q.CurrentIndex = 0
		return true
	}
	if q.CurrentIndex+1 >= len(q.Songs) {
		q.CurrentIndex = 0
		q.IsPlaying = false
		return false
	}
	q.CurrentIndex++
	return true
}

// Step は手動操作で delta 曲だけ移動します。両端では反対側に回り込みます。
func Step(q *storage.MusicQueue, delta int) bool {
	n := len(q.Songs)
	if n == 0 {
		return false
	}
	q.CurrentIndex = ((q.CurrentIndex+delta)%n + n) % n
	return true
}

// RemoveAt は0始まりの idx の曲を削除します。
// 現在の曲より前を削除した場合は CurrentIndex を詰めます。
func RemoveAt(q *storage.MusicQueue, idx int) (storage.Song, bool) {
	if idx < 0 || idx >= len(q.Songs) {
		return storage.Song{}, false
	}
	removed := q.Songs[idx]
	q.Songs = append(q.Songs[:idx], q.Songs[idx+1:]...)

	if idx < q.CurrentIndex {
		q.CurrentIndex--
	}
	if q.CurrentIndex >= len(q.Songs) {
		q.CurrentIndex = max(0, len(q.Songs)-1)
	}
	if len(q.Songs) == 0 {
		q.IsPlaying = false
	}
	return removed, true
}

// RemoveMany は複数の曲をまとめて削除し、削除した曲を元の順番で返します。
// 範囲外や重複したインデックスは無視されます。
func RemoveMany(q *storage.MusicQueue, idxs []int) []storage.Song {
	uniq := make(map[int]bool, len(idxs))
	for _, idx := range idxs {
		if idx >= 0 && idx < len(q.Songs) {
			uniq[idx] = true
		}
	}
	sorted := make([]int, 0, len(uniq))
	for idx := range uniq {
		sorted = append(sorted, idx)
	}
	// 後ろから消せばインデックスがずれない
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	removed := make([]storage.Song, 0, len(sorted))
	for _, idx := range sorted {
		if song, ok := RemoveAt(q, idx); ok {
			removed = append(removed, song)
		}
	}
	for i, j := 0, len(removed)-1; i < j; i, j = i+1, j-1 {
		removed[i], removed[j] = removed[j], removed[i]
	}
	return removed
}

// Shuffle は現在の曲を先頭に置いたまま残りの曲を並べ替えます。
func Shuffle(q *storage.MusicQueue, r *rand.Rand) {
	if len(q.Songs) < 2 {
		return
	}
	current := q.Songs[q.CurrentIndex]
	rest := make([]storage.Song, 0, len(q.Songs)-1)
	rest = append(rest, q.Songs[:q.CurrentIndex]...)
	rest = append(rest, q.Songs[q.CurrentIndex+1:]...)

	shuffle := rand.Shuffle
	if r != nil {
		shuffle = r.Shuffle
	}
	shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })

	q.Songs = append([]storage.Song{current}, rest...)
	q.CurrentIndex = 0
}

// Clear はキューを空にします。
func Clear(q *storage.MusicQueue) {
	q.Songs = []storage.Song{}
	q.CurrentIndex = 0
	q.IsPlaying = false
}

// TotalPages は n 曲を表示するのに必要なページ数を返します。空でも1ページです。
func TotalPages(n int) int {
	if n <= 0 {
		return 1
	}
	return (n + PageSize - 1) / PageSize
}

// PageBounds は page ページ目（0始まり）の範囲 [start, end) を返します。
// page は有効な範囲に丸められます。
func PageBounds(page, n int) (clamped, start, end int) {
	last := TotalPages(n) - 1
	if page > last {
		page = last
	}
	if page < 0 {
		page = 0
	}
	start = page * PageSize
	end = min(start+PageSize, n)
	return page, start, end
}
