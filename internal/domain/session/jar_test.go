package session

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elegant-store/storefront/internal/infrastructure/storage"
)

func TestJarPersistsAcrossSessions(t *testing.T) {
	ctx := context.Background()
	logger, _ := test.NewNullLogger()
	store := storage.NewMemory()

	jar := NewJar(ctx, store, "agent/1.0", "https://shop.example/", logger)
	_, ok := jar.Cookie("_fbp")
	assert.False(t, ok)

	jar.Set("_fbp", "fb.1.1714564800000.42")

	restored := NewJar(ctx, store, "agent/2.0", "https://shop.example/cart", logger)
	v, ok := restored.Cookie("_fbp")
	require.True(t, ok)
	assert.Equal(t, "fb.1.1714564800000.42", v)
	assert.Equal(t, "agent/2.0", restored.UserAgent())
	assert.Equal(t, "https://shop.example/cart", restored.PageURL())
}

func TestJarDiscardsCorruptCookies(t *testing.T) {
	ctx := context.Background()
	logger, hook := test.NewNullLogger()
	store := storage.NewMemory()
	require.NoError(t, store.Set(ctx, CookieStorageKey, []byte("{not json")))

	jar := NewJar(ctx, store, "", "", logger)

	_, ok := jar.Get("_fbp")
	assert.False(t, ok)
	assert.NotEmpty(t, hook.AllEntries())

	jar.Set("_fbc", "fb.1.1.abc")
	v, ok := jar.Get("_fbc")
	assert.True(t, ok)
	assert.Equal(t, "fb.1.1.abc", v)
}

func TestJarEmptyValueIsAbsent(t *testing.T) {
	logger, _ := test.NewNullLogger()
	jar := NewJar(context.Background(), storage.NewMemory(), "", "", logger)

	jar.Set("_fbc", "")
	_, ok := jar.Cookie("_fbc")
	assert.False(t, ok)
}
