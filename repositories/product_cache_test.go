package repositories

import (
	"context"
	"greenbasket/models"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCachedProductCatalog_FallsThroughWhenRedisIsDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	catalog := NewCachedProductCatalog(
		NewMemoryProductCatalog(models.Product{ID: 1, Name: "Apples", IsActive: true}),
		client, time.Minute, zap.NewNop(),
	)
	ctx := context.Background()

	p, err := catalog.GetProductByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Apples", p.Name)

	_, err = catalog.GetProductByID(ctx, 2)
	assert.ErrorIs(t, err, ErrProductNotFound)

	products, total, err := catalog.GetAllProducts(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, products, 1)
}
