// Package cache persists API responses in a local SQLite database so
// repeated invocations of the same command can skip the network.
package cache

import (
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store is a TTL cache keyed by request fingerprint.
type Store struct {
	db  *sql.DB
	ttl time.Duration
}

// DefaultPath returns the cache database location under the user cache dir.
func DefaultPath() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, "r7")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return filepath.Join(dir, "cache.db"), nil
}

// Open creates or opens the cache database at path with the given entry TTL.
func Open(path string, ttl time.Duration) (*Store, error) {
	dsn := path + "?" + url.Values{
		"_pragma": []string{
			"busy_timeout(5000)",
			"journal_mode(WAL)",
			"synchronous(NORMAL)",
		},
	}.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, ttl: ttl}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS responses (
		key TEXT PRIMARY KEY,
		namespace TEXT NOT NULL,
		body BLOB NOT NULL,
		expires_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_responses_expires ON responses(expires_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("init cache schema: %w", err)
	}
	return nil
}

// Key fingerprints a namespace and its request parameters. Parameters are
// serialized with sorted keys so logically identical requests collide.
func Key(namespace string, params map[string]any) string {
	h := md5.New()
	h.Write([]byte(namespace))
	if len(params) > 0 {
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v, _ := json.Marshal(params[k])
			fmt.Fprintf(h, "%s=%s;", k, v)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached body for key, or ErrMiss when absent or expired.
func (s *Store) Get(key string) ([]byte, error) {
	var body []byte
	var expires int64
	err := s.db.QueryRow(
		`SELECT body, expires_at FROM responses WHERE key = ?`, key,
	).Scan(&body, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("read cache entry: %w", err)
	}
	if time.Now().Unix() >= expires {
		if _, err := s.db.Exec(`DELETE FROM responses WHERE key = ?`, key); err != nil {
			log.Debug().Err(err).Msg("failed to evict expired cache entry")
		}
		return nil, ErrMiss
	}
	return body, nil
}

// Set stores a body under key with the configured TTL.
func (s *Store) Set(key, namespace string, body []byte) error {
	now := time.Now()
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO responses (key, namespace, body, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		key, namespace, body, now.Add(s.ttl).Unix(), now.Unix(),
	)
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// Purge deletes every entry, returning how many were removed.
func (s *Store) Purge() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM responses`)
	if err != nil {
		return 0, fmt.Errorf("purge cache: %w", err)
	}
	return res.RowsAffected()
}

// PurgeExpired removes only entries past their TTL.
func (s *Store) PurgeExpired() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM responses WHERE expires_at <= ?`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("purge expired cache entries: %w", err)
	}
	return res.RowsAffected()
}

// Stats summarizes cache contents per namespace.
type Stats struct {
	Entries    int64            `json:"entries"`
	Expired    int64            `json:"expired"`
	Namespaces map[string]int64 `json:"namespaces"`
}

// Stats reports entry counts without mutating the store.
func (s *Store) Stats() (*Stats, error) {
	st := &Stats{Namespaces: map[string]int64{}}
	now := time.Now().Unix()

	rows, err := s.db.Query(`SELECT namespace, COUNT(*), SUM(expires_at <= ?) FROM responses GROUP BY namespace`, now)
	if err != nil {
		return nil, fmt.Errorf("read cache stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ns string
		var count, expired int64
		if err := rows.Scan(&ns, &count, &expired); err != nil {
			return nil, err
		}
		st.Namespaces[ns] = count
		st.Entries += count
		st.Expired += expired
	}
	return st, rows.Err()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
