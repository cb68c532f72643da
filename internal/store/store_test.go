package store

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/pysubclasses/internal/pyfacts"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleFacts() *pyfacts.FileFacts {
	return &pyfacts.FileFacts{
		FilePath: "animals.py",
		Module:   "animals",
		Classes: []pyfacts.ClassDef{{
			ID:       pyfacts.ClassID{Module: "animals", Name: "Dog"},
			FilePath: "animals.py",
			Bases:    []pyfacts.BaseRef{{Kind: pyfacts.BaseSimple, Name: "Animal"}},
		}},
		Imports: []pyfacts.ImportBinding{
			{LocalName: "Animal", Module: "base", Symbol: "Animal"},
		},
	}
}

func TestLookupMissOnEmptyStore(t *testing.T) {
	s := newTestStore(t)
	_, ok := s.Lookup("animals.py", Fingerprint([]byte("x")))
	assert.False(t, ok)
}

func TestPutThenLookup(t *testing.T) {
	s := newTestStore(t)
	fp := Fingerprint([]byte("class Dog(Animal): pass"))

	require.NoError(t, s.Put("animals.py", fp, sampleFacts()))

	got, ok := s.Lookup("animals.py", fp)
	require.True(t, ok)
	assert.Equal(t, sampleFacts(), got)
}

func TestStaleFingerprintMisses(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Put("animals.py", Fingerprint([]byte("v1")), sampleFacts()))

	_, ok := s.Lookup("animals.py", Fingerprint([]byte("v2")))
	assert.False(t, ok)
}

func TestPutOverwrites(t *testing.T) {
	s := newTestStore(t)
	oldFP := Fingerprint([]byte("v1"))
	newFP := Fingerprint([]byte("v2"))

	require.NoError(t, s.Put("animals.py", oldFP, sampleFacts()))

	updated := sampleFacts()
	updated.Classes[0].ID.Name = "Cat"
	require.NoError(t, s.Put("animals.py", newFP, updated))

	_, ok := s.Lookup("animals.py", oldFP)
	assert.False(t, ok)

	got, ok := s.Lookup("animals.py", newFP)
	require.True(t, ok)
	assert.Equal(t, "Cat", got.Classes[0].ID.Name)
}

func TestCorruptBlobIsMiss(t *testing.T) {
	s := newTestStore(t)
	fp := Fingerprint([]byte("v1"))
	_, err := s.db.Exec(`INSERT INTO facts (path, fingerprint, facts) VALUES (?, ?, ?)`,
		"animals.py", fp, []byte("not gzip"))
	require.NoError(t, err)

	_, ok := s.Lookup("animals.py", fp)
	assert.False(t, ok)
}

func TestNilStoreIsDisabledCache(t *testing.T) {
	var s *Store
	assert.NoError(t, s.Put("animals.py", "fp", sampleFacts()))
	_, ok := s.Lookup("animals.py", "fp")
	assert.False(t, ok)
	assert.NoError(t, s.Close())
}

func TestFingerprintIsContentOnly(t *testing.T) {
	assert.Equal(t, Fingerprint([]byte("same")), Fingerprint([]byte("same")))
	assert.NotEqual(t, Fingerprint([]byte("a")), Fingerprint([]byte("b")))
	assert.Len(t, Fingerprint(nil), 64)
}
