package store

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memPersister keeps the document in memory and can be told to fail writes.
type memPersister struct {
	mu      sync.Mutex
	data    []byte
	saves   int
	failErr error
}

func (m *memPersister) Load(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, nil
	}
	return append([]byte{}, m.data...), nil
}

func (m *memPersister) Save(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	m.saves++
	m.data = append([]byte{}, data...)
	return nil
}

func (m *memPersister) Close() error { return nil }

func (m *memPersister) saveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func newTestStore(t *testing.T) (*Store, *memPersister) {
	t.Helper()
	p := &memPersister{}
	s := New(p)
	require.NoError(t, s.Initialize(context.Background()))
	return s, p
}

func TestInitializeCreatesEmptyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	s := New(NewFilePersister(path))
	require.NoError(t, s.Initialize(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, []any{}, doc["users"])
	assert.Equal(t, map[string]any{}, doc["settings"])
}

func TestInitializePropagatesStorageErrors(t *testing.T) {
	dir := t.TempDir()
	// A directory where the file should be makes ReadFile fail with something other than NotExist.
	s := New(NewFilePersister(dir))
	err := s.Initialize(context.Background())
	require.Error(t, err)
}

func TestOperationsBeforeInitialize(t *testing.T) {
	s := New(&memPersister{})
	ctx := context.Background()

	_, err := s.EnsureUser(ctx, "1")
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = s.GetUser(ctx, "1")
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = s.Count(ctx)
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestCloseMakesStoreUnusable(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Close(ctx))

	_, err := s.EnsureUser(ctx, "1")
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestEnsureUserRejectsBlankID(t *testing.T) {
	s, _ := newTestStore(t)
	for _, id := range []string{"", "   "} {
		_, err := s.EnsureUser(context.Background(), id)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}
}

func TestEnsureUserCreatesDefaults(t *testing.T) {
	s, p := newTestStore(t)
	before := p.saveCount()

	rec, err := s.EnsureUser(context.Background(), "100")
	require.NoError(t, err)

	assert.Equal(t, models.DefaultUserRecord("100"), rec)
	assert.Equal(t, before+1, p.saveCount())

	// A second ensure on a complete record does not write again.
	_, err = s.EnsureUser(context.Background(), "100")
	require.NoError(t, err)
	assert.Equal(t, before+1, p.saveCount())
}

func TestGetUserNeverCreates(t *testing.T) {
	s, p := newTestStore(t)
	before := p.saveCount()

	rec, err := s.GetUser(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, rec)

	exists, err := s.CheckUserExists(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, before, p.saveCount())
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	rec, err := s.EnsureUser(ctx, "1")
	require.NoError(t, err)
	rec.Balance = 999
	rec.Inventory = append(rec.Inventory, models.InventoryItem{Name: "x", Quantity: 1})

	again, err := s.GetUser(ctx, "1")
	require.NoError(t, err)
	assert.Zero(t, again.Balance)
	assert.Empty(t, again.Inventory)
}

func TestSaveUserDataOnFreshStore(t *testing.T) {
	s, _ := newTestStore(t)
	balance := 50.0

	rec, err := s.SaveUserData(context.Background(), "42", models.UserPatch{Balance: &balance})
	require.NoError(t, err)

	want := models.DefaultUserRecord("42")
	want.Balance = 50
	assert.Equal(t, want, rec)
}

func TestSaveUserDataNullResetsField(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	name := "Pancy"
	race := "Elf"
	_, err := s.SaveUserData(ctx, "7", models.UserPatch{Name: &name, Race: &race})
	require.NoError(t, err)

	patch, err := models.DecodeUserPatch([]byte(`{"race": null, "power": "fire", "id": "hijack", "level": 99}`))
	require.NoError(t, err)

	rec, err := s.SaveUserData(ctx, "7", patch)
	require.NoError(t, err)
	assert.Equal(t, "7", rec.ID)
	assert.Equal(t, "Pancy", rec.Name)
	assert.Equal(t, models.DefaultRace, rec.Race)
	assert.Equal(t, "fire", rec.Power)
	assert.Equal(t, int64(1), rec.Level)
}

func TestSaveUserDataRejectsNonFiniteBalance(t *testing.T) {
	s, _ := newTestStore(t)
	nan := math.NaN()

	_, err := s.SaveUserData(context.Background(), "1", models.UserPatch{Balance: &nan})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestBalanceClamping(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	rec, err := s.SetBalance(ctx, "1", -20)
	require.NoError(t, err)
	assert.Zero(t, rec.Balance)

	rec, err = s.AddBalance(ctx, "1", 30)
	require.NoError(t, err)
	assert.Equal(t, 30.0, rec.Balance)

	rec, err = s.AddBalance(ctx, "1", -100)
	require.NoError(t, err)
	assert.Zero(t, rec.Balance)

	_, err = s.AddBalance(ctx, "1", math.Inf(-1))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestExperienceUpdatesLevel(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	rec, err := s.SetExperience(ctx, "1", 2500)
	require.NoError(t, err)
	assert.Equal(t, int64(3), rec.Level)

	rec, err = s.AddExperience(ctx, "1", -1600)
	require.NoError(t, err)
	assert.Equal(t, int64(900), rec.Experience)
	assert.Equal(t, int64(1), rec.Level)

	rec, err = s.AddExperience(ctx, "1", -5000)
	require.NoError(t, err)
	assert.Zero(t, rec.Experience)

	xp, level, err := s.GetExperience(ctx, "1")
	require.NoError(t, err)
	assert.Zero(t, xp)
	assert.Equal(t, int64(1), level)
}

func TestInventoryRoundTrip(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()
	sword := []models.InventoryItem{{Name: "sword", Quantity: 3}}

	rec, err := s.UpdateInventory(ctx, "1", sword, models.InventoryAdd)
	require.NoError(t, err)
	assert.Equal(t, sword, rec.Inventory)

	rec, err = s.UpdateInventory(ctx, "1", []models.InventoryItem{{Name: "sword", Quantity: 2}}, models.InventoryAdd)
	require.NoError(t, err)
	assert.Equal(t, []models.InventoryItem{{Name: "sword", Quantity: 5}}, rec.Inventory)

	rec, err = s.UpdateInventory(ctx, "1", []models.InventoryItem{{Name: "sword", Quantity: 10}}, models.InventoryRemove)
	require.NoError(t, err)
	_, held := rec.FindItem("sword")
	assert.False(t, held)
	assert.Empty(t, rec.Inventory)
}

func TestInventoryRemoveAbsentIsNoop(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.UpdateInventory(ctx, "1", []models.InventoryItem{{Name: "shield", Quantity: 1}}, models.InventoryAdd)
	require.NoError(t, err)

	rec, err := s.UpdateInventory(ctx, "1", []models.InventoryItem{{Name: "potion", Quantity: 4}}, models.InventoryRemove)
	require.NoError(t, err)
	assert.Equal(t, []models.InventoryItem{{Name: "shield", Quantity: 1}}, rec.Inventory)

	items, err := s.GetInventory(ctx, "1")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestInventoryValidation(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	cases := map[string]struct {
		items  []models.InventoryItem
		action models.InventoryAction
	}{
		"empty list":     {nil, models.InventoryAdd},
		"blank name":     {[]models.InventoryItem{{Name: " ", Quantity: 1}}, models.InventoryAdd},
		"zero quantity":  {[]models.InventoryItem{{Name: "a", Quantity: 0}}, models.InventoryAdd},
		"unknown action": {[]models.InventoryItem{{Name: "a", Quantity: 1}}, models.InventoryAction(9)},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.UpdateInventory(ctx, "1", tc.items, tc.action)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestGambleHistoryKeepsTenMostRecent(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	var rec *models.UserRecord
	var err error
	for i := 1; i <= 11; i++ {
		rec, err = s.RecordGambleHistory(ctx, "1", models.GambleEntry{Game: "coinflip", Amount: float64(i)})
		require.NoError(t, err)
	}

	require.Len(t, rec.GambleHistory, models.MaxGambleHistory)
	assert.Equal(t, 11.0, rec.GambleHistory[0].Amount)
	assert.Equal(t, 2.0, rec.GambleHistory[9].Amount)
	for _, e := range rec.GambleHistory {
		assert.NotEqual(t, 1.0, e.Amount)
		assert.False(t, e.Timestamp.IsZero())
	}
}

func TestRoleplayActions(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.AddRoleplayAction(ctx, "1", "", nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	entry, err := s.AddRoleplayAction(ctx, "1", "hug", map[string]any{"target": "2"})
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.Timestamp.IsZero())

	bucket, err := s.GetRoleplayActions(ctx, "1", "hug")
	require.NoError(t, err)
	require.Len(t, bucket, 1)
	assert.Equal(t, "2", bucket[0].Data["target"])

	empty, err := s.GetRoleplayActions(ctx, "1", "slap")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestResetUser(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	_, err := s.ResetUser(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.SetBalance(ctx, "1", 500)
	require.NoError(t, err)
	rec, err := s.ResetUser(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultUserRecord("1"), rec)

	exists, err := s.CheckUserExists(ctx, "1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDeleteUser(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.DeleteUser(ctx, "ghost"), ErrNotFound)

	for _, id := range []string{"1", "2", "3"} {
		_, err := s.EnsureUser(ctx, id)
		require.NoError(t, err)
	}
	require.NoError(t, s.DeleteUser(ctx, "2"))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rec, err := s.GetUser(ctx, "3")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "3", rec.ID)
}

func TestFailedPersistLeavesStateUnchanged(t *testing.T) {
	s, p := newTestStore(t)
	ctx := context.Background()

	_, err := s.SetBalance(ctx, "1", 10)
	require.NoError(t, err)

	p.failErr = errors.New("disk full")
	_, err = s.SetBalance(ctx, "1", 99)
	require.Error(t, err)
	_, err = s.EnsureUser(ctx, "2")
	require.Error(t, err)

	rec, err := s.GetUser(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, 10.0, rec.Balance)

	missing, err := s.GetUser(ctx, "2")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestBackfillOnLoad(t *testing.T) {
	p := &memPersister{data: []byte(`{
		"users": [
			{"id": "old", "balance": 12, "experience": 1500, "inventory": null},
			{"balance": 5}
		],
		"settings": {"prefix": "!"}
	}`)}
	s := New(p)
	ctx := context.Background()
	require.NoError(t, s.Initialize(ctx))

	rec, err := s.GetUser(ctx, "old")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 12.0, rec.Balance)
	assert.Equal(t, int64(2), rec.Level)
	assert.Equal(t, models.DefaultTimezone, rec.Timezone)
	assert.Equal(t, models.DefaultRace, rec.Race)
	assert.True(t, rec.FirstTime)
	assert.NotNil(t, rec.Inventory)
	assert.NotNil(t, rec.RoleplayActions)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Ensuring a pending record rewrites the stored copy with every key present.
	before := p.saveCount()
	_, err = s.EnsureUser(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, before+1, p.saveCount())

	var doc struct {
		Users    []map[string]any `json:"users"`
		Settings map[string]any   `json:"settings"`
	}
	require.NoError(t, json.Unmarshal(p.data, &doc))
	require.Len(t, doc.Users, 1)
	for _, key := range []string{"name", "timezone", "race", "firstTime", "gambleHistory", "roleplayActions", "dailyStreak", "power"} {
		assert.Contains(t, doc.Users[0], key)
	}
	assert.Equal(t, "!", doc.Settings["prefix"])
}

func TestPersistedDocumentReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	ctx := context.Background()

	s := New(NewFilePersister(path))
	require.NoError(t, s.Initialize(ctx))
	_, err := s.UpdateInventory(ctx, "9", []models.InventoryItem{{Name: "gem", Quantity: 2}}, models.InventoryAdd)
	require.NoError(t, err)
	_, err = s.AddRoleplayAction(ctx, "9", "wave", map[string]any{"mood": "happy"})
	require.NoError(t, err)
	require.NoError(t, s.SetSetting(ctx, "version", "1"))
	require.NoError(t, s.Close(ctx))

	reloaded := New(NewFilePersister(path))
	require.NoError(t, reloaded.Initialize(ctx))
	rec, err := reloaded.GetUser(ctx, "9")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, []models.InventoryItem{{Name: "gem", Quantity: 2}}, rec.Inventory)
	require.Len(t, rec.RoleplayActions["wave"], 1)
	assert.Equal(t, "happy", rec.RoleplayActions["wave"][0].Data["mood"])

	v, ok, err := reloaded.Setting(ctx, "version")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", v)
}

func TestConcurrentAddBalanceHasNoLostUpdates(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AddBalance(ctx, "shared", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rec, err := s.GetUser(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, 50.0, rec.Balance)
}
