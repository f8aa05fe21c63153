package recordstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCreateGetListOrder(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, EntityAttendance, 2, RawRecord{"status_c": "absent"}))
	require.NoError(t, store.Create(ctx, EntityAttendance, 1, RawRecord{"status_c": "present"}))

	records, err := store.List(ctx, EntityAttendance)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 1, records[0]["Id"])
	assert.Equal(t, 2, records[1]["Id"])

	record, err := store.Get(ctx, EntityAttendance, 2)
	require.NoError(t, err)
	assert.Equal(t, "absent", record["status_c"])
}

func TestMemoryCreateRejectsDuplicateID(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, EntitySession, 1, RawRecord{"Name": "Standup"}))
	assert.Error(t, store.Create(ctx, EntitySession, 1, RawRecord{"Name": "Retro"}))
}

func TestMemoryUpdateMergesPayload(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, EntityAttendance, 1, RawRecord{"status_c": "present", "notes_c": "front row"}))
	require.NoError(t, store.Update(ctx, EntityAttendance, 1, RawRecord{"status_c": "late"}))

	record, err := store.Get(ctx, EntityAttendance, 1)
	require.NoError(t, err)
	assert.Equal(t, "late", record["status_c"])
	assert.Equal(t, "front row", record["notes_c"])

	assert.ErrorIs(t, store.Update(ctx, EntityAttendance, 99, RawRecord{}), ErrNotFound)
}

func TestMemoryGetReturnsCopy(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, EntityAttendance, 1, RawRecord{"status_c": "present"}))
	record, err := store.Get(ctx, EntityAttendance, 1)
	require.NoError(t, err)
	record["status_c"] = "absent"

	fresh, err := store.Get(ctx, EntityAttendance, 1)
	require.NoError(t, err)
	assert.Equal(t, "present", fresh["status_c"])
}

func TestMemoryDeleteAndMaxID(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	max, err := store.MaxID(ctx, EntityAttendance)
	require.NoError(t, err)
	assert.Zero(t, max)

	require.NoError(t, store.Create(ctx, EntityAttendance, 3, RawRecord{}))
	require.NoError(t, store.Create(ctx, EntityAttendance, 7, RawRecord{}))

	max, err = store.MaxID(ctx, EntityAttendance)
	require.NoError(t, err)
	assert.Equal(t, 7, max)

	removed, err := store.Delete(ctx, EntityAttendance, 3)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.Delete(ctx, EntityAttendance, 3)
	require.NoError(t, err)
	assert.False(t, removed)
}
