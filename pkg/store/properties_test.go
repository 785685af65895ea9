package store

import (
	"context"
	"testing"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func TestStoreProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)
	ctx := context.Background()

	s := New(&memPersister{})
	require.NoError(t, s.Initialize(ctx))

	properties.Property("EnsureUser is idempotent", prop.ForAll(
		func(id string) bool {
			first, err := s.EnsureUser(ctx, id)
			if err != nil {
				return false
			}
			second, err := s.EnsureUser(ctx, id)
			if err != nil {
				return false
			}
			return first.ID == second.ID &&
				first.Balance == second.Balance &&
				first.Level == second.Level &&
				len(first.Inventory) == len(second.Inventory) &&
				first.Timezone == second.Timezone
		},
		gen.Identifier(),
	))

	properties.Property("balance is never negative", prop.ForAll(
		func(start, delta float64) bool {
			if _, err := s.SetBalance(ctx, "balance-prop", start); err != nil {
				return false
			}
			rec, err := s.AddBalance(ctx, "balance-prop", delta)
			if err != nil {
				return false
			}
			return rec.Balance >= 0
		},
		gen.Float64Range(-1e9, 1e9),
		gen.Float64Range(-1e12, 1e12),
	))

	properties.Property("level follows experience", prop.ForAll(
		func(xp int64) bool {
			rec, err := s.SetExperience(ctx, "xp-prop", xp)
			if err != nil {
				return false
			}
			return rec.Level == 1+xp/1000 && rec.Level == models.LevelForExperience(xp)
		},
		gen.Int64Range(0, 1<<40),
	))

	properties.Property("gamble history never exceeds its bound", prop.ForAll(
		func(n int) bool {
			id := "gamble-prop"
			if _, err := s.EnsureUser(ctx, id); err != nil {
				return false
			}
			var rec *models.UserRecord
			var err error
			for i := 0; i < n; i++ {
				rec, err = s.RecordGambleHistory(ctx, id, models.GambleEntry{Amount: float64(i)})
				if err != nil {
					return false
				}
			}
			if n == 0 {
				return true
			}
			return len(rec.GambleHistory) <= models.MaxGambleHistory &&
				rec.GambleHistory[0].Amount == float64(n-1)
		},
		gen.IntRange(0, 25),
	))

	properties.Property("inventory never holds non-positive quantities", prop.ForAll(
		func(add, remove int64) bool {
			id := "inv-prop"
			if _, err := s.UpdateInventory(ctx, id, []models.InventoryItem{{Name: "ore", Quantity: add}}, models.InventoryAdd); err != nil {
				return false
			}
			rec, err := s.UpdateInventory(ctx, id, []models.InventoryItem{{Name: "ore", Quantity: remove}}, models.InventoryRemove)
			if err != nil {
				return false
			}
			for _, item := range rec.Inventory {
				if item.Quantity <= 0 {
					return false
				}
			}
			return true
		},
		gen.Int64Range(1, 1000),
		gen.Int64Range(1, 1000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestLevelExamples(t *testing.T) {
	cases := map[int64]int64{0: 1, 999: 1, 1000: 2, 2500: 3}
	for xp, want := range cases {
		require.Equal(t, want, models.LevelForExperience(xp), "xp=%d", xp)
	}
}
