package archive

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stardex-app/stardex/model"
	"github.com/stardex-app/stardex/testutil"
)

// filterRecords is a small fixed dataset with known filter outcomes.
func filterRecords() []model.SpeciesRecord {
	mk := func(id model.SpeciesID, name string, types []string, gen model.Generation, stats model.Stats) model.SpeciesRecord {
		rec := testutil.Record(id)
		rec.Name = name
		rec.Types = types
		rec.Generation = gen
		rec.Stats = stats
		return rec
	}
	return []model.SpeciesRecord{
		mk(1, "bulbasaur", []string{"grass", "poison"}, model.GenerationOne,
			model.Stats{HP: 45, Attack: 49, Defense: 49, SpAttack: 65, SpDefense: 65, Speed: 45}),
		mk(4, "charmander", []string{"fire"}, model.GenerationOne,
			model.Stats{HP: 39, Attack: 52, Defense: 43, SpAttack: 60, SpDefense: 50, Speed: 65}),
		mk(6, "charizard", []string{"fire", "flying"}, model.GenerationOne,
			model.Stats{HP: 78, Attack: 84, Defense: 78, SpAttack: 109, SpDefense: 85, Speed: 100}),
		mk(152, "chikorita", []string{"grass"}, model.GenerationTwo,
			model.Stats{HP: 45, Attack: 49, Defense: 65, SpAttack: 49, SpDefense: 65, Speed: 45}),
		mk(255, "torchic", []string{"fire"}, model.GenerationThree,
			model.Stats{HP: 45, Attack: 60, Defense: 40, SpAttack: 70, SpDefense: 50, Speed: 45}),
	}
}

func openFixture(t *testing.T) *Store {
	t.Helper()
	store, err := Open(writeArchive(t, filterRecords()))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func ids(seq func(yield func(RecordView) bool)) []model.SpeciesID {
	var out []model.SpeciesID
	for v := range seq {
		out = append(out, v.ID())
	}
	return out
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent.sdx"))
	assert.ErrorIs(t, err, ErrMissing)
}

func TestOpenCorruptAnyByte(t *testing.T) {
	path := writeArchive(t, testutil.NewRNG(9).Records(5))
	original, err := os.ReadFile(path)
	require.NoError(t, err)

	for off := range original {
		data := append([]byte(nil), original...)
		data[off] ^= 0xFF
		require.NoError(t, os.WriteFile(path, data, 0o644))

		store, err := Open(path)
		if err == nil {
			store.Close()
			t.Fatalf("corruption at offset %d went undetected", off)
		}
		assert.ErrorIs(t, err, ErrCorrupt, "offset %d", off)
	}
}

func TestOpenBadMagic(t *testing.T) {
	path := writeArchive(t, []model.SpeciesRecord{testutil.Record(1)})
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	binary.LittleEndian.PutUint32(data[0:], 0xDEADBEEF)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = Open(path)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestOpenUnsupportedVersion(t *testing.T) {
	path := writeArchive(t, []model.SpeciesRecord{testutil.Record(1)})
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	binary.LittleEndian.PutUint32(data[4:], Version+1)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = Open(path)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestOpenTruncated(t *testing.T) {
	path := writeArchive(t, testutil.NewRNG(2).Records(3))
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	for _, n := range []int{0, 1, HeaderSize - 1, HeaderSize, len(data) / 2, len(data) - 1} {
		require.NoError(t, os.WriteFile(path, data[:n], 0o644))
		_, err := Open(path)
		assert.ErrorIs(t, err, ErrCorrupt, "truncated to %d bytes", n)
	}
}

func TestGetNotFound(t *testing.T) {
	store := openFixture(t)

	_, err := store.Get(9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindTypeInclusive(t *testing.T) {
	store := openFixture(t)

	got := ids(store.Find(Query{Types: []string{"fire", "flying"}}))
	assert.ElementsMatch(t, []model.SpeciesID{4, 6, 255}, got)
}

func TestFindTypeExclusive(t *testing.T) {
	store := openFixture(t)

	got := ids(store.Find(Query{
		Types:    []string{"fire", "flying"},
		TypeMode: TypeModeExclusive,
	}))
	assert.Equal(t, []model.SpeciesID{6}, got)
}

func TestFindUnknownTypeTag(t *testing.T) {
	store := openFixture(t)

	assert.Empty(t, ids(store.Find(Query{Types: []string{"shadow"}})))
	assert.Empty(t, ids(store.Find(Query{
		Types:    []string{"fire", "shadow"},
		TypeMode: TypeModeExclusive,
	})))
}

func TestFindGenerations(t *testing.T) {
	store := openFixture(t)

	got := ids(store.Find(Query{
		Generations: []model.Generation{model.GenerationTwo, model.GenerationThree},
	}))
	assert.ElementsMatch(t, []model.SpeciesID{152, 255}, got)
}

func TestFindCombined(t *testing.T) {
	store := openFixture(t)

	// Fire types of generation I with total >= 500: only charizard.
	got := ids(store.Find(Query{
		Types:       []string{"fire"},
		Generations: []model.Generation{model.GenerationOne},
		MinTotal:    500,
	}))
	assert.Equal(t, []model.SpeciesID{6}, got)
}

func TestFindMinStats(t *testing.T) {
	store := openFixture(t)

	got := ids(store.Find(Query{MinStats: model.Stats{HP: 70, Speed: 100}}))
	assert.Equal(t, []model.SpeciesID{6}, got)
}

func TestFindName(t *testing.T) {
	store := openFixture(t)

	got := ids(store.Find(Query{Name: "char"}))
	assert.ElementsMatch(t, []model.SpeciesID{4, 6}, got)

	assert.Empty(t, ids(store.Find(Query{Name: "mew"})))
}

func TestFindUnconstrained(t *testing.T) {
	store := openFixture(t)

	got := ids(store.Find(Query{}))
	assert.Equal(t, []model.SpeciesID{1, 4, 6, 152, 255}, got)
}

func TestFindEarlyStop(t *testing.T) {
	store := openFixture(t)

	count := 0
	for range store.Find(Query{}) {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func TestTypeNamesFirstSeenOrder(t *testing.T) {
	store := openFixture(t)

	assert.Equal(t, []string{"grass", "poison", "fire", "flying"}, store.TypeNames())
}

func TestHeader(t *testing.T) {
	store := openFixture(t)

	h := store.Header()
	assert.Equal(t, uint32(MagicNumber), h.Magic)
	assert.Equal(t, uint32(Version), h.Version)
	assert.Equal(t, uint32(5), h.RecordCount)
	assert.Equal(t, uint32(4), h.TypeCount)
}

func TestCloseIdempotent(t *testing.T) {
	store, err := Open(writeArchive(t, []model.SpeciesRecord{testutil.Record(1)}))
	require.NoError(t, err)

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}
