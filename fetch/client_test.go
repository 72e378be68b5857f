package fetch

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stardex-app/stardex/testutil"
)

func testClient(api *testutil.FakeAPI) *Client {
	return NewClient(api.URL(), func(o *ClientOptions) {
		o.RetryBackoff = time.Millisecond
	})
}

func TestClientRetriesTransientFailures(t *testing.T) {
	api := testutil.NewFakeAPI()
	defer api.Close()
	api.AddSpecies(1)
	api.FailTimes("/pokemon/species-1", 2)

	c := testClient(api)
	p, err := c.Pokemon(context.Background(), "species-1")
	require.NoError(t, err)

	assert.Equal(t, uint32(1), p.ID)
	assert.Equal(t, 3, api.Requests("/pokemon/species-1"))
}

func TestClientExhaustsRetryBudget(t *testing.T) {
	api := testutil.NewFakeAPI()
	defer api.Close()
	api.AddSpecies(1)
	api.FailTimes("/pokemon/species-1", 10)

	c := testClient(api)
	_, err := c.Pokemon(context.Background(), "species-1")
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrStatus)
	assert.Equal(t, 3, api.Requests("/pokemon/species-1"))
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	api := testutil.NewFakeAPI()
	defer api.Close()

	c := testClient(api)
	_, err := c.Pokemon(context.Background(), "missingno")
	require.ErrorIs(t, err, ErrStatus)

	assert.Equal(t, 1, api.Requests("/pokemon/missingno"))
}

func TestClientRetriesTooManyRequests(t *testing.T) {
	api := testutil.NewFakeAPI()
	defer api.Close()
	api.AddSpecies(1)
	api.Status("/pokemon-species/1", http.StatusTooManyRequests)

	c := testClient(api)
	_, err := c.Species(context.Background(), 1)
	require.ErrorIs(t, err, ErrStatus)

	assert.Equal(t, 3, api.Requests("/pokemon-species/1"))
}

func TestClientListSpecies(t *testing.T) {
	api := testutil.NewFakeAPI()
	defer api.Close()
	api.Populate(3)

	c := testClient(api)
	entries, err := c.ListSpecies(context.Background())
	require.NoError(t, err)

	require.Len(t, entries, 3)
	assert.Equal(t, "species-1", entries[0].Name)
	assert.Equal(t, "species-3", entries[2].Name)
}

func TestClientEvolutionChainMemoized(t *testing.T) {
	api := testutil.NewFakeAPI()
	defer api.Close()
	api.AddSpecies(7)

	c := testClient(api)
	url := api.URL() + "/evolution-chain/7/"

	for i := 0; i < 3; i++ {
		ids, err := c.EvolutionChain(context.Background(), url)
		require.NoError(t, err)
		assert.Equal(t, []uint32{7}, ids)
	}
	assert.Equal(t, 1, api.Requests("/evolution-chain/7/"))
}

func TestClientContextCancellation(t *testing.T) {
	api := testutil.NewFakeAPI()
	defer api.Close()
	api.AddSpecies(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := testClient(api)
	_, err := c.Pokemon(ctx, "species-1")
	assert.ErrorIs(t, err, context.Canceled)
}
