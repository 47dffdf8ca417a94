package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/artpar/svcclient/internal/cookies"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveAndLoad(t *testing.T) {
	store, err := NewInMemory()
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	expires := time.Date(2035, 1, 2, 3, 4, 5, 0, time.UTC)

	in := []*cookies.Cookie{
		{Name: "session", Value: "abc123", Domain: "example.com", Path: "/", Secure: true, Expires: expires},
		{Name: "pref", Value: "dark", Domain: "api.example.com", Path: "/v1/"},
	}
	require.NoError(t, store.Save(ctx, "api.example.com", in))

	got, err := store.Load(ctx, "api.example.com")
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestStore_SaveReplacesPartition(t *testing.T) {
	store, err := NewInMemory()
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "example.com", []*cookies.Cookie{
		{Name: "a", Value: "1", Domain: "example.com", Path: "/"},
		{Name: "b", Value: "1", Domain: "example.com", Path: "/"},
	}))
	require.NoError(t, store.Save(ctx, "example.com", []*cookies.Cookie{
		{Name: "b", Value: "2", Domain: "example.com", Path: "/"},
	}))

	got, err := store.Load(ctx, "example.com")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].Value)
}

func TestStore_LoadSkipsExpired(t *testing.T) {
	store, err := NewInMemory()
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "example.com", []*cookies.Cookie{
		{Name: "old", Value: "1", Domain: "example.com", Path: "/", Expires: time.Now().Add(-time.Hour)},
		{Name: "new", Value: "1", Domain: "example.com", Path: "/", Expires: time.Now().Add(time.Hour)},
	}))

	got, err := store.Load(ctx, "example.com")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].Name)

	n, err := store.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestStore_DomainsAndDelete(t *testing.T) {
	store, err := NewInMemory()
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "b.com", []*cookies.Cookie{{Name: "x", Value: "1", Domain: "b.com", Path: "/"}}))
	require.NoError(t, store.Save(ctx, "a.com", []*cookies.Cookie{{Name: "y", Value: "1", Domain: "a.com", Path: "/"}}))

	domains, err := store.Domains(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.com", "b.com"}, domains)

	require.NoError(t, store.Delete(ctx, "a.com"))
	domains, err = store.Domains(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.com"}, domains)
}

func TestStore_Closed(t *testing.T) {
	store, err := NewInMemory()
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	ctx := context.Background()
	_, err = store.Load(ctx, "example.com")
	assert.ErrorIs(t, err, cookies.ErrStoreClosed)
	assert.ErrorIs(t, store.Save(ctx, "example.com", nil), cookies.ErrStoreClosed)
}

func TestStore_Persistence(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "cookies.db")
	ctx := context.Background()

	store, err := New(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "example.com", []*cookies.Cookie{
		{Name: "persist", Value: "yes", Domain: "example.com", Path: "/"},
	}))
	require.NoError(t, store.Close())

	_, err = os.Stat(dbPath)
	require.NoError(t, err)

	store, err = New(dbPath)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Load(ctx, "example.com")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "yes", got[0].Value)
}

func TestStore_ImplementsInterface(t *testing.T) {
	var _ cookies.Store = (*Store)(nil)
}
