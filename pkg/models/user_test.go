package models

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeUserRecordBackfillsMissingKeys(t *testing.T) {
	rec, backfilled, err := DecodeUserRecord([]byte(`{"id": "1", "balance": -4, "experience": 3200, "gambleHistory": null}`))
	require.NoError(t, err)

	assert.True(t, backfilled)
	assert.Equal(t, "1", rec.ID)
	assert.Zero(t, rec.Balance)
	assert.Equal(t, int64(4), rec.Level)
	assert.Equal(t, DefaultTimezone, rec.Timezone)
	assert.Equal(t, DefaultRace, rec.Race)
	assert.True(t, rec.FirstTime)
	assert.NotNil(t, rec.GambleHistory)
	assert.NotNil(t, rec.Inventory)
}

func TestDecodeUserRecordComplete(t *testing.T) {
	full := DefaultUserRecord("2")
	data, err := json.Marshal(full)
	require.NoError(t, err)

	rec, backfilled, err := DecodeUserRecord(data)
	require.NoError(t, err)
	assert.False(t, backfilled)
	assert.Equal(t, full, rec)
}

func TestReconcileMergesInventory(t *testing.T) {
	rec := DefaultUserRecord("3")
	rec.Inventory = []InventoryItem{
		{Name: "apple", Quantity: 2},
		{Name: "stone", Quantity: 0},
		{Name: "apple", Quantity: 3},
	}
	Reconcile(rec)
	assert.Equal(t, []InventoryItem{{Name: "apple", Quantity: 5}}, rec.Inventory)
}

func TestDecodeUserPatch(t *testing.T) {
	p, err := DecodeUserPatch([]byte(`{"balance": 50, "name": "Neko", "lastDaily": null, "mystery": 1}`))
	require.NoError(t, err)

	require.NotNil(t, p.Balance)
	assert.Equal(t, 50.0, *p.Balance)
	require.NotNil(t, p.Name)
	assert.Equal(t, "Neko", *p.Name)
	assert.Equal(t, []string{"lastDaily"}, p.Reset)
	assert.Nil(t, p.Race)
	assert.False(t, p.IsEmpty())

	_, err = DecodeUserPatch([]byte(`{"balance": "lots"}`))
	assert.Error(t, err)
}

func TestUserPatchApply(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	rec := DefaultUserRecord("4")
	rec.LastDaily = &now
	rec.Power = "ice"

	streak := int64(3)
	UserPatch{DailyStreak: &streak, Reset: []string{"lastDaily", "power"}}.Apply(rec)

	assert.Nil(t, rec.LastDaily)
	assert.Empty(t, rec.Power)
	assert.Equal(t, int64(3), rec.DailyStreak)
	assert.True(t, UserPatch{}.IsEmpty())
}

func TestRoleplayEntryJSON(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	entry := RoleplayEntry{ID: "abc", Timestamp: ts, Data: map[string]any{"target": "9"}}

	data, err := json.Marshal(entry)
	require.NoError(t, err)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(data, &flat))
	assert.Equal(t, "9", flat["target"])
	assert.Equal(t, "abc", flat["id"])

	var back RoleplayEntry
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "abc", back.ID)
	assert.True(t, ts.Equal(back.Timestamp))
	assert.Equal(t, map[string]any{"target": "9"}, back.Data)

	var legacy RoleplayEntry
	require.NoError(t, json.Unmarshal([]byte(`{"timestamp": 1700000000000, "with": "x"}`), &legacy))
	assert.Equal(t, int64(1700000000000), legacy.Timestamp.UnixMilli())
}

func TestParseInventoryAction(t *testing.T) {
	a, ok := ParseInventoryAction("Add")
	assert.True(t, ok)
	assert.Equal(t, InventoryAdd, a)

	a, ok = ParseInventoryAction("remove")
	assert.True(t, ok)
	assert.Equal(t, "remove", a.String())

	_, ok = ParseInventoryAction("steal")
	assert.False(t, ok)
}
