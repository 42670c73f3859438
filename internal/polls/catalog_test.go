package polls

import (
	"context"
	"testing"

	"socialstar-core/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalogWithRedis(t *testing.T) *Catalog {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCatalog(client, logger.NewNoOpLogger())
}

func TestSeedAndAllowedValues(t *testing.T) {
	catalog := newCatalogWithRedis(t)
	ctx := context.Background()

	require.NoError(t, catalog.Seed(ctx))

	parenting, err := catalog.AllowedValues(ctx, "parenting_status")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"expecting":  "Expecting",
		"parent":     "Parent",
		"not_parent": "Not a parent",
	}, parenting)

	relationship, err := catalog.AllowedValues(ctx, "relationship_status")
	require.NoError(t, err)
	assert.Len(t, relationship, 5)
	assert.Equal(t, "In a relationship", relationship["partnered"])
}

func TestAllowedValuesEmptyCacheFallsBackToSeed(t *testing.T) {
	catalog := newCatalogWithRedis(t)

	// Cache never seeded; the built-in catalog still answers.
	values, err := catalog.AllowedValues(context.Background(), "parenting_status")
	require.NoError(t, err)
	assert.Equal(t, "Parent", values["parent"])
}

func TestAllowedValuesUnknownCategory(t *testing.T) {
	catalog := newCatalogWithRedis(t)

	_, err := catalog.AllowedValues(context.Background(), "favorite_color")
	assert.Error(t, err)
}

func TestAllowedValuesReadsOperatorOverrides(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	catalog := NewCatalog(client, logger.NewNoOpLogger())

	ctx := context.Background()
	require.NoError(t, client.HSet(ctx, "poll_options:relationship_status", "single", "Flying solo").Err())

	values, err := catalog.AllowedValues(ctx, "relationship_status")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"single": "Flying solo"}, values)
}
