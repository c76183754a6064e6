package draft

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing-admin/internal/schedule"
)

func sampleDraft(t *testing.T) *Draft {
	t.Helper()
	c := schedule.NewComposition(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, c.ToggleDate("2024-03-01"))
	require.NoError(t, c.AddSlot("2024-03-01"))
	id := c.AddCategory("2024-03-01", 0)
	require.NoError(t, c.UpdateCategory("2024-03-01", 0, id, schedule.FieldName, "VIP"))
	require.NoError(t, c.UpdateCategory("2024-03-01", 0, id, schedule.FieldQuantity, "20"))
	return New(7, c, []string{"2024-03-01", "2024-03-02"})
}

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, ttl, "draft"), mr
}

func TestStores(t *testing.T) {
	redisStore, _ := newRedisStore(t, time.Hour)
	stores := map[string]Store{
		"redis":  redisStore,
		"memory": NewMemoryStore(time.Hour),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := Key{UserID: 3, EventID: 7}

			_, err := store.Load(ctx, key)
			assert.ErrorIs(t, err, ErrNotFound)

			d := sampleDraft(t)
			require.NoError(t, store.Save(ctx, key, d))

			got, err := store.Load(ctx, key)
			require.NoError(t, err)
			assert.Equal(t, d.ID, got.ID)
			assert.Equal(t, []string{"2024-03-01"}, got.Composition.SelectedDates)
			require.Len(t, got.Composition.TimeSlots["2024-03-01"], 1)
			slot := got.Composition.TimeSlots["2024-03-01"][0]
			assert.Equal(t, "2h 0m", slot.Duration)
			assert.Equal(t, 20, slot.Capacity)
			assert.Equal(t, "VIP", slot.SeatCategories[0].Name)
			assert.Equal(t, []string{"2024-03-01", "2024-03-02"}, got.AllowedDates)

			_, err = store.Load(ctx, Key{UserID: 4, EventID: 7})
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Delete(ctx, key))
			_, err = store.Load(ctx, key)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestRedisStoreExpires(t *testing.T) {
	store, mr := newRedisStore(t, time.Minute)
	ctx := context.Background()
	key := Key{UserID: 1, EventID: 2}

	require.NoError(t, store.Save(ctx, key, sampleDraft(t)))
	assert.True(t, mr.Exists("draft:1:2"))
	assert.Equal(t, time.Minute, mr.TTL("draft:1:2"))

	mr.FastForward(2 * time.Minute)
	_, err := store.Load(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreCorruptValue(t *testing.T) {
	store, mr := newRedisStore(t, time.Minute)
	require.NoError(t, mr.Set("draft:1:2", "{not json"))

	_, err := store.Load(context.Background(), Key{UserID: 1, EventID: 2})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreExpiresAndIsolates(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()
	key := Key{UserID: 1, EventID: 2}

	d := sampleDraft(t)
	require.NoError(t, store.Save(ctx, key, d))

	d.Composition.TimeSlots["2024-03-01"][0].StartTime = "08:00"
	got, err := store.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "10:00", got.Composition.TimeSlots["2024-03-01"][0].StartTime)

	now = now.Add(2 * time.Minute)
	_, err = store.Load(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}
