package tenant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithAndGet(t *testing.T) {
	ctx := With(context.Background(), &Tenant{ID: "t-1", Slug: "acme"})

	got := Get(ctx)
	require.NotNil(t, got)
	assert.Equal(t, "t-1", got.ID)
	assert.Equal(t, "acme", got.Slug)

	assert.Equal(t, "t-1", GetID(ctx))
}

func TestGetWithoutTenant(t *testing.T) {
	assert.Nil(t, Get(context.Background()))
	assert.Empty(t, GetID(context.Background()))
}

func TestMustGetIDPanicsWithoutTenant(t *testing.T) {
	assert.Panics(t, func() {
		MustGetID(context.Background())
	})

	ctx := With(context.Background(), &Tenant{ID: "t-1"})
	assert.Equal(t, "t-1", MustGetID(ctx))
}
