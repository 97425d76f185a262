package storage

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound はパスに値が存在しないことを示します。
	ErrNotFound = errors.New("storage: not found")
	// ErrInvalidPath はパスが空、または使用できない文字を含むことを示します。
	ErrInvalidPath = errors.New("storage: invalid path")
	// ErrAccessDenied はアクセスキーの検証に失敗したことを示します。
	ErrAccessDenied = errors.New("storage: access denied")
)

// AccessKeysPath の子ノードの値が有効なアクセスキーです。
const AccessKeysPath = "USER_KEYS"

// --- DBStore ---

// DBStore はSQLite上に構築したJSONツリー型のドキュメントストアです。
// "guild/123/user" のようなスラッシュ区切りのパスで値を読み書きします。
// 1つの行はパスとそのサブツリー全体のJSONを保持し、ある行の祖先パスに別の行が存在することはありません。
type DBStore struct {
	db        *sql.DB
	mu        sync.RWMutex
	accessKey string
}

func NewDBStore(dataSourceName string) (*DBStore, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, err
	}
	// SQLiteは書き込みが直列なので接続は1本に絞る
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}
	store := &DBStore{db: db}
	if err = store.initTables(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *DBStore) initTables() error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			path TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
	}
	for _, table := range tables {
		if _, err := s.db.Exec(table); err != nil {
			return err
		}
	}
	return nil
}

func (s *DBStore) Close() error {
	return s.db.Close()
}

func (s *DBStore) Ping() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db.Ping()
}

// RequireAccessKey を設定すると、以降の操作の前に key が USER_KEYS に登録されているか検証します。
// 空文字列を渡すと検証を無効にします。
func (s *DBStore) RequireAccessKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessKey = key
}

// AddAccessKey は USER_KEYS/{name} にアクセスキーを登録します。この操作自体は検証されません。
func (s *DBStore) AddAccessKey(name, key string) error {
	return s.tx(false, func(tx *sql.Tx) error {
		return setTx(tx, AccessKeysPath+"/"+name, key)
	})
}

func (s *DBStore) verifyTx(tx *sql.Tx) error {
	if s.accessKey == "" {
		return nil
	}
	raw, err := getTx(tx, AccessKeysPath)
	if errors.Is(err, ErrNotFound) {
		return ErrAccessDenied
	}
	if err != nil {
		return err
	}
	var keys map[string]string
	if err := json.Unmarshal(raw, &keys); err != nil {
		return ErrAccessDenied
	}
	for _, k := range keys {
		if k == s.accessKey {
			return nil
		}
	}
	return ErrAccessDenied
}

// tx はロックを取得してトランザクション内で fn を実行します。
func (s *DBStore) tx(verify bool, fn func(tx *sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if verify {
		if err := s.verifyTx(tx); err != nil {
			return err
		}
	}
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// --- Document API ---

// Get はパスの値を dest にデコードします。値がなければ ErrNotFound を返します。
func (s *DBStore) Get(path string, dest any) error {
	return s.tx(true, func(tx *sql.Tx) error {
		raw, err := getTx(tx, path)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, dest)
	})
}

// Set はパスの値を v で置き換えます。子孫の値もすべて置き換わります。
// v が nil の場合は Delete と同じです。
func (s *DBStore) Set(path string, v any) error {
	return s.tx(true, func(tx *sql.Tx) error {
		return setTx(tx, path, v)
	})
}

// Update は fields の各キーを子パスとして Set します。すべて1つのトランザクションで行われます。
func (s *DBStore) Update(path string, fields map[string]any) error {
	return s.tx(true, func(tx *sql.Tx) error {
		for k, v := range fields {
			if err := setTx(tx, path+"/"+k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete はパスとその子孫を削除します。存在しない場合もエラーにはなりません。
func (s *DBStore) Delete(path string) error {
	return s.tx(true, func(tx *sql.Tx) error {
		return setTx(tx, path, nil)
	})
}

// Children はパス直下の子ノードを生のJSONで返します。値がなければ空のマップを返します。
func (s *DBStore) Children(path string) (map[string]json.RawMessage, error) {
	children := make(map[string]json.RawMessage)
	err := s.Get(path, &children)
	if errors.Is(err, ErrNotFound) {
		return children, nil
	}
	if err != nil {
		return nil, err
	}
	return children, nil
}

// Transaction はパスの現在値を fn に渡し、返された値を書き込みます。
// 現在値がない場合 fn には nil が渡されます。fn がエラーを返した場合は何も書き込みません。
func (s *DBStore) Transaction(path string, fn func(current json.RawMessage) (any, error)) error {
	return s.tx(true, func(tx *sql.Tx) error {
		raw, err := getTx(tx, path)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		next, err := fn(raw)
		if err != nil {
			return err
		}
		return setTx(tx, path, next)
	})
}

// --- Path helpers ---

func splitPath(path string) ([]string, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil, ErrInvalidPath
	}
	segs := strings.Split(path, "/")
	for _, seg := range segs {
		if seg == "" || strings.ContainsAny(seg, ".#$[]") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return segs, nil
}

// ValidKey はパスの1セグメントとして使える文字列かどうかを返します。
func ValidKey(key string) bool {
	return key != "" && !strings.ContainsAny(key, "/.#$[]")
}

// findRow はパス自身または祖先パスの行を探し、最も深い行を返します。
func findRow(tx *sql.Tx, segs []string) (rowPath string, value []byte, found bool, err error) {
	for i := len(segs); i >= 1; i-- {
		p := strings.Join(segs[:i], "/")
		var v string
		err := tx.QueryRow("SELECT value FROM documents WHERE path = ?", p).Scan(&v)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return "", nil, false, err
		}
		return p, []byte(v), true, nil
	}
	return "", nil, false, nil
}

func descendantsQuery(prefix string) (string, []any) {
	// LIKE は % や _ を含むキーで誤爆するので substr で前方一致させる
	return "substr(path, 1, ?) = ?", []any{utf8.RuneCountInString(prefix), prefix}
}

func getTx(tx *sql.Tx, path string) (json.RawMessage, error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	rowPath, value, found, err := findRow(tx, segs)
	if err != nil {
		return nil, err
	}
	if found {
		tree, err := decodeTree(value)
		if err != nil {
			return nil, err
		}
		rel := segs[len(strings.Split(rowPath, "/")):]
		node, ok := lookup(tree, rel)
		if !ok {
			return nil, ErrNotFound
		}
		return json.Marshal(node)
	}

	// 子孫の行からサブツリーを組み立てる
	prefix := strings.Join(segs, "/") + "/"
	where, args := descendantsQuery(prefix)
	rows, err := tx.Query("SELECT path, value FROM documents WHERE "+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	root := map[string]any{}
	n := 0
	for rows.Next() {
		var p, v string
		if err := rows.Scan(&p, &v); err != nil {
			return nil, err
		}
		node, err := decodeTree([]byte(v))
		if err != nil {
			return nil, err
		}
		insert(root, strings.Split(strings.TrimPrefix(p, prefix), "/"), node)
		n++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return json.Marshal(root)
}

func setTx(tx *sql.Tx, path string, v any) error {
	segs, err := splitPath(path)
	if err != nil {
		return err
	}

	var node any
	if v != nil {
		if raw, ok := v.(json.RawMessage); ok {
			if len(raw) > 0 {
				node, err = decodeTree(raw)
			}
		} else {
			var b []byte
			b, err = json.Marshal(v)
			if err == nil {
				node, err = decodeTree(b)
			}
		}
		if err != nil {
			return fmt.Errorf("storage: encode %s: %w", path, err)
		}
	}

	rowPath, value, found, err := findRow(tx, segs)
	if err != nil {
		return err
	}

	if found && rowPath != strings.Join(segs, "/") {
		// 祖先の行の中を書き換える
		tree, err := decodeTree(value)
		if err != nil {
			return err
		}
		rel := segs[len(strings.Split(rowPath, "/")):]
		tree = assign(tree, rel, node)
		return writeRow(tx, rowPath, tree)
	}

	joined := strings.Join(segs, "/")
	where, args := descendantsQuery(joined + "/")
	if _, err := tx.Exec("DELETE FROM documents WHERE path = ? OR "+where, append([]any{joined}, args...)...); err != nil {
		return err
	}
	return writeRow(tx, joined, node)
}

func writeRow(tx *sql.Tx, path string, node any) error {
	if isEmpty(node) {
		_, err := tx.Exec("DELETE FROM documents WHERE path = ?", path)
		return err
	}
	b, err := json.Marshal(node)
	if err != nil {
		return err
	}
	_, err = tx.Exec(`INSERT INTO documents (path, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`, path, string(b))
	return err
}

// --- Tree helpers ---

func decodeTree(b []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return prune(v), nil
}

// prune は null と空のオブジェクトを取り除きます。空のノードは存在しないものとして扱います。
func prune(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	for k, child := range m {
		child = prune(child)
		if isEmpty(child) {
			delete(m, k)
			continue
		}
		m[k] = child
	}
	return m
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	m, ok := v.(map[string]any)
	return ok && len(m) == 0
}

func lookup(node any, segs []string) (any, bool) {
	for _, seg := range segs {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		node, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return node, !isEmpty(node)
}

func assign(node any, segs []string, v any) any {
	if len(segs) == 0 {
		return v
	}
	m, ok := node.(map[string]any)
	if !ok {
		m = map[string]any{}
	}
	child := assign(m[segs[0]], segs[1:], v)
	if isEmpty(child) {
		delete(m, segs[0])
	} else {
		m[segs[0]] = child
	}
	return m
}

func insert(root map[string]any, segs []string, v any) {
	cur := root
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[seg] = next
		}
		cur = next
	}
	cur[segs[len(segs)-1]] = v
}
