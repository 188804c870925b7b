package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewStore(client, ttl), mr
}

func testPayload() *Payload {
	return &Payload{
		UserID: uuid.New(),
		Email:  "a@x.com",
		Name:   "Ann",
	}
}

func TestStoreCreateAndGet(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)
	payload := testPayload()

	sid, err := store.Create(context.Background(), payload)
	require.NoError(t, err)
	assert.NotEmpty(t, sid)

	got, err := store.Get(context.Background(), sid)
	require.NoError(t, err)
	assert.Equal(t, payload.UserID, got.UserID)
	assert.Equal(t, payload.Email, got.Email)
	assert.Equal(t, payload.Name, got.Name)
}

func TestStoreCreate_UniqueIDs(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		sid, err := store.Create(context.Background(), testPayload())
		require.NoError(t, err)
		assert.False(t, seen[sid], "session id issued twice")
		assert.GreaterOrEqual(t, len(sid), 43) // 32 random bytes, base64url
		seen[sid] = true
	}
}

func TestStoreGet_Missing(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)

	_, err := store.Get(context.Background(), "no-such-session")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreGet_Expired(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)

	sid, err := store.Create(context.Background(), testPayload())
	require.NoError(t, err)

	// Past the TTL the session must behave exactly like an absent one
	mr.FastForward(2 * time.Minute)

	_, err = store.Get(context.Background(), sid)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreUpdate_KeepsTTL(t *testing.T) {
	store, mr := newTestStore(t, 10*time.Minute)

	sid, err := store.Create(context.Background(), testPayload())
	require.NoError(t, err)

	mr.FastForward(5 * time.Minute)

	patched := testPayload()
	patched.Name = "Ann Updated"
	require.NoError(t, store.Update(context.Background(), sid, patched))

	// The update must not have reset the clock: 5 more minutes kills it
	mr.FastForward(6 * time.Minute)
	_, err = store.Get(context.Background(), sid)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreUpdate_Missing(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)

	err := store.Update(context.Background(), "no-such-session", testPayload())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreDestroy_Idempotent(t *testing.T) {
	store, _ := newTestStore(t, time.Hour)

	sid, err := store.Create(context.Background(), testPayload())
	require.NoError(t, err)

	require.NoError(t, store.Destroy(context.Background(), sid))

	_, err = store.Get(context.Background(), sid)
	assert.ErrorIs(t, err, ErrNotFound)

	// Destroying again is not an error
	assert.NoError(t, store.Destroy(context.Background(), sid))
	assert.NoError(t, store.Destroy(context.Background(), "never-existed"))
}
