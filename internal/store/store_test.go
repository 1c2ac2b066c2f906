package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contentBackend/internal/db"
)

type record struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func newFileStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	return s
}

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return NewSQLiteStore(d)
}

func backends(t *testing.T) map[string]Store {
	return map[string]Store{
		"file":   newFileStore(t),
		"sqlite": newSQLiteStore(t),
	}
}

func TestStore_LoadMissingCollectionIsEmpty(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			got, err := LoadAll[record](context.Background(), s, "nothing")
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestStore_SaveThenLoad(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			in := []record{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}
			require.NoError(t, SaveAll(ctx, s, "things", in))

			got, err := LoadAll[record](ctx, s, "things")
			require.NoError(t, err)
			assert.Equal(t, in, got)

			// A second save replaces the whole collection.
			require.NoError(t, SaveAll(ctx, s, "things", []record{{ID: 9, Name: "z"}}))
			got, err = LoadAll[record](ctx, s, "things")
			require.NoError(t, err)
			assert.Equal(t, []record{{ID: 9, Name: "z"}}, got)
		})
	}
}

func TestStore_SaveEmptyWritesEmptyArray(t *testing.T) {
	s := newFileStore(t)
	require.NoError(t, SaveAll[record](context.Background(), s, "things", nil))

	data, err := os.ReadFile(s.Path("things"))
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestFileStore_PrettyPrinted(t *testing.T) {
	s := newFileStore(t)
	require.NoError(t, SaveAll(context.Background(), s, "things", []record{{ID: 1, Name: "a"}}))

	data, err := os.ReadFile(s.Path("things"))
	require.NoError(t, err)
	want := "[\n  {\n    \"id\": 1,\n    \"name\": \"a\"\n  }\n]\n"
	assert.Equal(t, want, string(data))
}

func TestFileStore_LoadRereadsDisk(t *testing.T) {
	ctx := context.Background()
	s := newFileStore(t)
	require.NoError(t, SaveAll(ctx, s, "things", []record{{ID: 1}}))

	// An out-of-band edit is visible on the next load.
	require.NoError(t, os.WriteFile(s.Path("things"), []byte(`[{"id":5,"name":"edited"}]`), 0o644))
	got, err := LoadAll[record](ctx, s, "things")
	require.NoError(t, err)
	assert.Equal(t, []record{{ID: 5, Name: "edited"}}, got)
}

func TestFileStore_CorruptFile(t *testing.T) {
	ctx := context.Background()
	s := newFileStore(t)

	for _, body := range []string{`{"id":1}`, `[{"id":1}`, `not json`} {
		require.NoError(t, os.WriteFile(s.Path("things"), []byte(body), 0o644))
		_, err := s.Load(ctx, "things")
		assert.ErrorIs(t, err, ErrCorrupt, "body %q", body)
	}

	// Well-formed array but a record that does not fit the type.
	require.NoError(t, os.WriteFile(s.Path("things"), []byte(`[{"id":"x"}]`), 0o644))
	_, err := LoadAll[record](ctx, s, "things")
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestFileStore_WhitespaceFileIsEmpty(t *testing.T) {
	s := newFileStore(t)
	require.NoError(t, os.WriteFile(s.Path("things"), []byte("  \n"), 0o644))
	got, err := s.Load(context.Background(), "things")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFileStore_SaveFailureKeepsPreviousContents(t *testing.T) {
	ctx := context.Background()
	s := newFileStore(t)
	require.NoError(t, SaveAll(ctx, s, "things", []record{{ID: 1, Name: "keep"}}))
	before, err := os.ReadFile(s.Path("things"))
	require.NoError(t, err)

	// A read-only data directory makes the temp file creation fail.
	require.NoError(t, os.Chmod(s.dir, 0o555))
	t.Cleanup(func() { _ = os.Chmod(s.dir, 0o755) })
	if f, err := os.CreateTemp(s.dir, "probe"); err == nil {
		// Running as root: permissions are not enforced.
		f.Close()
		os.Remove(f.Name())
		t.Skip("filesystem permissions not enforced")
	}

	err = SaveAll(ctx, s, "things", []record{{ID: 2, Name: "lost"}})
	assert.ErrorIs(t, err, ErrIO)

	after, err := os.ReadFile(s.Path("things"))
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestFileStore_RejectsPathLikeNames(t *testing.T) {
	s := newFileStore(t)
	_, err := s.Load(context.Background(), "../escape")
	assert.Error(t, err)
	assert.Error(t, s.Save(context.Background(), "a/b", nil))
}

func TestFileStore_ConcurrentSavesNeverCorrupt(t *testing.T) {
	ctx := context.Background()
	s := newFileStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, SaveAll(ctx, s, "things", []record{{ID: i}}))
		}(i)
	}
	wg.Wait()

	got, err := LoadAll[record](ctx, s, "things")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSQLiteStore_CorruptRow(t *testing.T) {
	s := newSQLiteStore(t)
	_, err := s.db.Exec(`INSERT INTO collections (name, body) VALUES ('things', 'oops')`)
	require.NoError(t, err)

	_, err = s.Load(context.Background(), "things")
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestSQLiteStore_ClosedDBIsIOFailure(t *testing.T) {
	d, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	require.NoError(t, d.Close())

	s := NewSQLiteStore(d)
	_, err = s.Load(context.Background(), "things")
	assert.ErrorIs(t, err, ErrIO)
	assert.ErrorIs(t, s.Save(context.Background(), "things", []json.RawMessage{}), ErrIO)
}
