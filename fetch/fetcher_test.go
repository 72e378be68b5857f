package fetch

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stardex-app/stardex/model"
	"github.com/stardex-app/stardex/testutil"
)

func TestFetcherFullSync(t *testing.T) {
	api := testutil.NewFakeAPI()
	defer api.Close()
	api.Populate(20)

	var (
		mu       sync.Mutex
		progress []Progress
	)
	f := New(testClient(api), func(o *Options) {
		o.Workers = 4
		o.OnProgress = func(p Progress) {
			mu.Lock()
			progress = append(progress, p)
			mu.Unlock()
		}
	})

	result, err := f.Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Records, 20)
	assert.Zero(t, result.Skipped)
	for i, rec := range result.Records {
		assert.Equal(t, testutil.ExpectedRecord(model.SpeciesID(i+1)), rec)
	}

	require.Len(t, result.SpriteURLs, 20)
	assert.Contains(t, result.SpriteURLs[3], "/sprites/3.png")

	// One index report plus one per species, ending at done == total.
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, progress, 21)
	assert.Equal(t, Progress{Stage: "index", Done: 20, Total: 20}, progress[0])
	last := progress[len(progress)-1]
	assert.Equal(t, "details", last.Stage)
	assert.Equal(t, 20, last.Done)
}

func TestFetcherRecordsSortedByID(t *testing.T) {
	api := testutil.NewFakeAPI()
	defer api.Close()
	// Registration order is not id order.
	for _, id := range []model.SpeciesID{42, 7, 133, 1} {
		api.AddSpecies(id)
	}

	f := New(testClient(api))
	result, err := f.Fetch(context.Background())
	require.NoError(t, err)

	var got []model.SpeciesID
	for _, rec := range result.Records {
		got = append(got, rec.ID)
	}
	assert.Equal(t, []model.SpeciesID{1, 7, 42, 133}, got)
}

func TestFetcherSkipsFailingSpecies(t *testing.T) {
	api := testutil.NewFakeAPI()
	defer api.Close()
	api.Populate(10)
	api.FailTimes("/pokemon/species-4", 100)

	f := New(testClient(api), func(o *Options) {
		o.MaxSkipFraction = 0.5
	})

	result, err := f.Fetch(context.Background())
	require.NoError(t, err)

	assert.Len(t, result.Records, 9)
	assert.Equal(t, 1, result.Skipped)
	for _, rec := range result.Records {
		assert.NotEqual(t, model.SpeciesID(4), rec.ID)
	}
}

func TestFetcherTooManyFailures(t *testing.T) {
	api := testutil.NewFakeAPI()
	defer api.Close()
	api.Populate(10)
	for i := 1; i <= 5; i++ {
		api.FailTimes("/pokemon/"+testutil.SpeciesName(model.SpeciesID(i)), 100)
	}

	f := New(testClient(api), func(o *Options) {
		o.MaxSkipFraction = 0.1
	})

	_, err := f.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrTooManyFailures)
}

func TestFetcherDegradesMissingExtras(t *testing.T) {
	api := testutil.NewFakeAPI()
	defer api.Close()
	api.AddSpecies(25)
	// Species extras and encounters gone; the record must survive with
	// empty defaults rather than being skipped.
	api.Status("/pokemon-species/25", 404)
	api.Status("/pokemon/25/encounters", 404)

	f := New(testClient(api))
	result, err := f.Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Records, 1)
	rec := result.Records[0]
	assert.Equal(t, model.GenerationUnknown, rec.Generation)
	assert.Empty(t, rec.FlavorText)
	assert.Empty(t, rec.EvolutionIDs)
	assert.Empty(t, rec.Encounters)
	assert.Zero(t, result.Skipped)
}

func TestFetcherCancellation(t *testing.T) {
	api := testutil.NewFakeAPI()
	defer api.Close()
	api.Populate(5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := New(testClient(api))
	_, err := f.Fetch(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetcherEmptyIndex(t *testing.T) {
	api := testutil.NewFakeAPI()
	defer api.Close()
	api.HandleJSON("/pokemon", map[string]any{"count": 0, "results": []any{}})

	f := New(testClient(api))
	result, err := f.Fetch(context.Background())
	require.NoError(t, err)

	assert.Empty(t, result.Records)
	assert.Zero(t, result.Skipped)
}
