package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestKeyStableUnderParamOrder(t *testing.T) {
	a := Key("siem.query", map[string]any{"leql": "where(foo)", "from": 1, "to": 2})
	b := Key("siem.query", map[string]any{"to": 2, "from": 1, "leql": "where(foo)"})
	assert.Equal(t, a, b)
}

func TestKeyVariesByNamespaceAndParams(t *testing.T) {
	base := Key("siem.query", map[string]any{"leql": "where(foo)"})
	assert.NotEqual(t, base, Key("asm.query", map[string]any{"leql": "where(foo)"}))
	assert.NotEqual(t, base, Key("siem.query", map[string]any{"leql": "where(bar)"}))
	assert.NotEqual(t, base, Key("siem.query", nil))
}

func TestGetMissOnEmptyStore(t *testing.T) {
	s := openTestStore(t, time.Hour)
	_, err := s.Get(Key("siem.query", nil))
	assert.ErrorIs(t, err, ErrMiss)
}

func TestSetGetRoundTrip(t *testing.T) {
	s := openTestStore(t, time.Hour)
	key := Key("account.orgs", nil)
	require.NoError(t, s.Set(key, "account.orgs", []byte(`{"data":[]}`)))

	body, err := s.Get(key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[]}`, string(body))
}

func TestExpiredEntryMisses(t *testing.T) {
	s := openTestStore(t, -time.Second)
	key := Key("siem.query", map[string]any{"leql": "where(foo)"})
	require.NoError(t, s.Set(key, "siem.query", []byte(`{}`)))

	_, err := s.Get(key)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestPurge(t *testing.T) {
	s := openTestStore(t, time.Hour)
	require.NoError(t, s.Set(Key("a", nil), "a", []byte("1")))
	require.NoError(t, s.Set(Key("b", nil), "b", []byte("2")))

	n, err := s.Purge()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = s.Get(Key("a", nil))
	assert.ErrorIs(t, err, ErrMiss)
}

func TestStats(t *testing.T) {
	s := openTestStore(t, time.Hour)
	require.NoError(t, s.Set(Key("siem.query", map[string]any{"q": 1}), "siem.query", []byte("1")))
	require.NoError(t, s.Set(Key("siem.query", map[string]any{"q": 2}), "siem.query", []byte("2")))
	require.NoError(t, s.Set(Key("account.orgs", nil), "account.orgs", []byte("3")))

	st, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(3), st.Entries)
	assert.Equal(t, int64(2), st.Namespaces["siem.query"])
	assert.Equal(t, int64(1), st.Namespaces["account.orgs"])
}

func TestPurgeExpiredKeepsLiveEntries(t *testing.T) {
	s := openTestStore(t, -time.Second)
	require.NoError(t, s.Set(Key("old", nil), "old", []byte("1")))
	s.ttl = time.Hour
	require.NoError(t, s.Set(Key("new", nil), "new", []byte("2")))

	n, err := s.PurgeExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	body, err := s.Get(Key("new", nil))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), body)
}
