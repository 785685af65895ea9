// Package store provides the per-user record store.
// All records live in one root document that is rewritten in full by every
// mutating operation before it returns.
package store

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/metrics"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Document is the persisted root: every user record plus a free-form settings map.
type Document struct {
	Users    []*models.UserRecord `json:"users"`
	Settings map[string]any       `json:"settings"`
}

// Store owns the root document. A single mutex serialises every
// read-modify-write together with the write that persists it.
type Store struct {
	persister Persister
	now       func() time.Time

	mu       sync.Mutex
	ready    bool
	users    []*models.UserRecord
	index    map[string]int
	settings map[string]any
	// pending holds ids whose stored copy still lacks schema fields.
	pending map[string]bool
}

// New creates a Store backed by p. Initialize must be called before use.
func New(p Persister) *Store {
	return &Store{
		persister: p,
		now:       time.Now,
	}
}

// Initialize loads the document, creating and persisting an empty one when
// storage holds nothing yet. Storage errors are returned unchanged in meaning.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready {
		return nil
	}

	data, err := s.persister.Load(ctx)
	if err != nil {
		return fmt.Errorf("store: loading document: %w", err)
	}

	s.users = make([]*models.UserRecord, 0)
	s.index = make(map[string]int)
	s.settings = make(map[string]any)
	s.pending = make(map[string]bool)

	if data == nil {
		logger.System("No existe documento, creando uno nuevo...", "Store")
		encoded, err := encodeDocument(s.users, s.settings)
		if err != nil {
			return err
		}
		if err := s.persister.Save(ctx, encoded); err != nil {
			return fmt.Errorf("store: creating document: %w", err)
		}
	} else if err := s.decode(data); err != nil {
		return err
	}

	s.ready = true
	logger.Success(fmt.Sprintf("Store inicializado con %d usuarios (%d pendientes de backfill)", len(s.users), len(s.pending)), "Store")
	return nil
}

func (s *Store) decode(data []byte) error {
	var raw struct {
		Users    []json.RawMessage `json:"users"`
		Settings map[string]any    `json:"settings"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("store: decoding document: %w", err)
	}

	if raw.Settings != nil {
		s.settings = raw.Settings
	}

	for i, entry := range raw.Users {
		rec, backfilled, err := models.DecodeUserRecord(entry)
		if err != nil {
			return fmt.Errorf("store: decoding user %d: %w", i, err)
		}
		if strings.TrimSpace(rec.ID) == "" {
			logger.Warn(fmt.Sprintf("Registro %d sin id, se descarta", i), "Store")
			continue
		}
		if _, dup := s.index[rec.ID]; dup {
			logger.Warn("Registro duplicado para "+rec.ID+", se conserva el primero", "Store")
			continue
		}
		s.index[rec.ID] = len(s.users)
		s.users = append(s.users, rec)
		if backfilled {
			s.pending[rec.ID] = true
		}
	}
	return nil
}

// Close releases the persister. Later calls fail with ErrNotInitialized.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return nil
	}
	s.ready = false
	return s.persister.Close()
}

func validateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: user id must be a non-empty string", ErrInvalidArgument)
	}
	return nil
}

func validateAmount(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be a finite number", ErrInvalidArgument, name)
	}
	return nil
}

// update runs fn against a copy of the record for id and commits the copy only
// once the whole document has been persisted. When create is false a missing
// record yields ErrNotFound. A nil fn only persists created or backfilled records.
func (s *Store) update(ctx context.Context, id string, create bool, fn func(*models.UserRecord) error) (*models.UserRecord, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return nil, ErrNotInitialized
	}

	idx, exists := s.index[id]
	var rec *models.UserRecord
	switch {
	case exists:
		rec = s.users[idx].Clone()
	case create:
		rec = models.DefaultUserRecord(id)
	default:
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}

	if fn != nil {
		if err := fn(rec); err != nil {
			return nil, err
		}
	}
	rec.ID = id
	models.Reconcile(rec)

	if exists && fn == nil && !s.pending[id] {
		return rec, nil
	}

	users := make([]*models.UserRecord, len(s.users), len(s.users)+1)
	copy(users, s.users)
	if exists {
		users[idx] = rec
	} else {
		idx = len(users)
		users = append(users, rec)
	}

	if err := s.persist(ctx, users, s.settings); err != nil {
		return nil, err
	}

	s.users = users
	s.index[id] = idx
	delete(s.pending, id)
	return rec.Clone(), nil
}

func (s *Store) persist(ctx context.Context, users []*models.UserRecord, settings map[string]any) error {
	data, err := encodeDocument(users, settings)
	if err != nil {
		return err
	}

	start := time.Now()
	err = s.persister.Save(ctx, data)
	metrics.StoreWriteLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.StoreWriteErrorsTotal.Inc()
		logger.Error(fmt.Sprintf("Error guardando el documento: %v", err), "Store")
		return fmt.Errorf("store: saving document: %w", err)
	}
	metrics.StoreWritesTotal.Inc()
	return nil
}

func encodeDocument(users []*models.UserRecord, settings map[string]any) ([]byte, error) {
	data, err := json.MarshalIndent(Document{Users: users, Settings: settings}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("store: encoding document: %w", err)
	}
	return data, nil
}

// EnsureUser returns the record for id, creating it with defaults when absent.
// A created or backfilled record is persisted before returning.
func (s *Store) EnsureUser(ctx context.Context, id string) (*models.UserRecord, error) {
	return s.update(ctx, id, true, nil)
}

// GetUser returns the record for id, or nil when there is none. It never creates.
func (s *Store) GetUser(ctx context.Context, id string) (*models.UserRecord, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return nil, ErrNotInitialized
	}
	idx, ok := s.index[id]
	if !ok {
		return nil, nil
	}
	return s.users[idx].Clone(), nil
}

// CheckUserExists reports whether a record for id exists.
func (s *Store) CheckUserExists(ctx context.Context, id string) (bool, error) {
	rec, err := s.GetUser(ctx, id)
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return 0, ErrNotInitialized
	}
	return len(s.users), nil
}

// SaveUserData merges patch into the record for id, creating it when absent.
func (s *Store) SaveUserData(ctx context.Context, id string, patch models.UserPatch) (*models.UserRecord, error) {
	if patch.Balance != nil {
		if err := validateAmount("balance", *patch.Balance); err != nil {
			return nil, err
		}
	}
	return s.update(ctx, id, true, func(r *models.UserRecord) error {
		patch.Apply(r)
		return nil
	})
}

// SetBalance sets an absolute balance, clamped to zero.
func (s *Store) SetBalance(ctx context.Context, id string, balance float64) (*models.UserRecord, error) {
	if err := validateAmount("balance", balance); err != nil {
		return nil, err
	}
	return s.update(ctx, id, true, func(r *models.UserRecord) error {
		r.Balance = math.Max(0, balance)
		return nil
	})
}

// AddBalance adds delta, which may be negative, clamping the result to zero.
func (s *Store) AddBalance(ctx context.Context, id string, delta float64) (*models.UserRecord, error) {
	if err := validateAmount("delta", delta); err != nil {
		return nil, err
	}
	return s.update(ctx, id, true, func(r *models.UserRecord) error {
		r.Balance = math.Max(0, r.Balance+delta)
		return nil
	})
}

// SetExperience sets experience, clamped to zero, and recomputes the level.
func (s *Store) SetExperience(ctx context.Context, id string, xp int64) (*models.UserRecord, error) {
	return s.update(ctx, id, true, func(r *models.UserRecord) error {
		r.Experience = max(0, xp)
		return nil
	})
}

// AddExperience adds delta to experience and recomputes the level.
func (s *Store) AddExperience(ctx context.Context, id string, delta int64) (*models.UserRecord, error) {
	return s.update(ctx, id, true, func(r *models.UserRecord) error {
		sum := r.Experience + delta
		if delta > 0 && sum < r.Experience {
			sum = math.MaxInt64
		}
		r.Experience = max(0, sum)
		return nil
	})
}

// GetExperience returns experience and level, creating the record when absent.
func (s *Store) GetExperience(ctx context.Context, id string) (int64, int64, error) {
	rec, err := s.EnsureUser(ctx, id)
	if err != nil {
		return 0, 0, err
	}
	return rec.Experience, rec.Level, nil
}

// GetInventory returns the inventory, creating the record when absent.
func (s *Store) GetInventory(ctx context.Context, id string) ([]models.InventoryItem, error) {
	rec, err := s.EnsureUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec.Inventory, nil
}

// UpdateInventory adds or removes items. Removing an item that is not held is a no-op.
func (s *Store) UpdateInventory(ctx context.Context, id string, items []models.InventoryItem, action models.InventoryAction) (*models.UserRecord, error) {
	if !action.Valid() {
		return nil, fmt.Errorf("%w: inventory action must be add or remove", ErrInvalidArgument)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: items must be a non-empty list", ErrInvalidArgument)
	}
	for _, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			return nil, fmt.Errorf("%w: item name must be non-empty", ErrInvalidArgument)
		}
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity of %q must be positive", ErrInvalidArgument, item.Name)
		}
	}

	return s.update(ctx, id, true, func(r *models.UserRecord) error {
		for _, item := range items {
			applyInventory(r, item, action)
		}
		return nil
	})
}

func applyInventory(r *models.UserRecord, item models.InventoryItem, action models.InventoryAction) {
	for i := range r.Inventory {
		if r.Inventory[i].Name != item.Name {
			continue
		}
		if action == models.InventoryAdd {
			r.Inventory[i].Quantity += item.Quantity
			return
		}
		r.Inventory[i].Quantity -= item.Quantity
		if r.Inventory[i].Quantity <= 0 {
			r.Inventory = append(r.Inventory[:i], r.Inventory[i+1:]...)
		}
		return
	}

	if action == models.InventoryAdd {
		r.Inventory = append(r.Inventory, item)
	}
}

// RecordGambleHistory prepends entry, keeping the most recent entries only.
func (s *Store) RecordGambleHistory(ctx context.Context, id string, entry models.GambleEntry) (*models.UserRecord, error) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now().UTC()
	}
	return s.update(ctx, id, true, func(r *models.UserRecord) error {
		history := make([]models.GambleEntry, 0, len(r.GambleHistory)+1)
		history = append(history, entry)
		history = append(history, r.GambleHistory...)
		if len(history) > models.MaxGambleHistory {
			history = history[:models.MaxGambleHistory]
		}
		r.GambleHistory = history
		return nil
	})
}

// AddRoleplayAction appends a timestamped entry to the named bucket.
func (s *Store) AddRoleplayAction(ctx context.Context, id, action string, data map[string]any) (*models.RoleplayEntry, error) {
	if strings.TrimSpace(action) == "" {
		return nil, fmt.Errorf("%w: action name must be a non-empty string", ErrInvalidArgument)
	}

	entry := models.RoleplayEntry{
		ID:        uuid.NewString(),
		Timestamp: s.now().UTC(),
		Data:      make(map[string]any, len(data)),
	}
	for k, v := range data {
		if k == "id" || k == "timestamp" {
			continue
		}
		entry.Data[k] = v
	}

	_, err := s.update(ctx, id, true, func(r *models.UserRecord) error {
		r.RoleplayActions[action] = append(r.RoleplayActions[action], entry)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetRoleplayActions returns the named bucket, or an empty list when absent.
func (s *Store) GetRoleplayActions(ctx context.Context, id, action string) ([]models.RoleplayEntry, error) {
	rec, err := s.EnsureUser(ctx, id)
	if err != nil {
		return nil, err
	}
	bucket, ok := rec.RoleplayActions[action]
	if !ok {
		return []models.RoleplayEntry{}, nil
	}
	return bucket, nil
}

// ResetUser replaces the record with defaults, keeping its id.
func (s *Store) ResetUser(ctx context.Context, id string) (*models.UserRecord, error) {
	return s.update(ctx, id, false, func(r *models.UserRecord) error {
		*r = *models.DefaultUserRecord(r.ID)
		return nil
	})
}

// DeleteUser removes the record for id entirely.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return ErrNotInitialized
	}
	idx, ok := s.index[id]
	if !ok {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}

	users := make([]*models.UserRecord, 0, len(s.users)-1)
	users = append(users, s.users[:idx]...)
	users = append(users, s.users[idx+1:]...)

	if err := s.persist(ctx, users, s.settings); err != nil {
		return err
	}

	s.users = users
	s.index = make(map[string]int, len(users))
	for i, rec := range users {
		s.index[rec.ID] = i
	}
	delete(s.pending, id)
	return nil
}

// Setting returns a value from the settings map.
func (s *Store) Setting(ctx context.Context, key string) (any, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return nil, false, ErrNotInitialized
	}
	v, ok := s.settings[key]
	return v, ok, nil
}

// SetSetting stores value under key in the settings map.
func (s *Store) SetSetting(ctx context.Context, key string, value any) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: setting key must be non-empty", ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return ErrNotInitialized
	}

	settings := make(map[string]any, len(s.settings)+1)
	for k, v := range s.settings {
		settings[k] = v
	}
	settings[key] = value

	if err := s.persist(ctx, s.users, settings); err != nil {
		return err
	}
	s.settings = settings
	return nil
}
