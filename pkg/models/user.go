package models

import (
	"math"
	"reflect"
	"time"

	"github.com/goccy/go-json"
)

const (
	DefaultTimezone    = "UTC"
	DefaultRace        = "Human"
	MaxGambleHistory   = 10
	ExperiencePerLevel = 1000
)

// InventoryItem representa un objeto del inventario, único por nombre
type InventoryItem struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
}

// GambleEntry representa una apuesta registrada en el historial
type GambleEntry struct {
	Game      string    `json:"game,omitempty"`
	Amount    float64   `json:"amount"`
	Outcome   string    `json:"outcome,omitempty"`
	Payout    float64   `json:"payout"`
	Timestamp time.Time `json:"timestamp"`
}

// UserRecord is the persisted state of a single platform user.
type UserRecord struct {
	ID              string                     `json:"id"`
	Name            string                     `json:"name"`
	Balance         float64                    `json:"balance"`
	Experience      int64                      `json:"experience"`
	Level           int64                      `json:"level"`
	LastDaily       *time.Time                 `json:"lastDaily"`
	Inventory       []InventoryItem            `json:"inventory"`
	DailyStreak     int64                      `json:"dailyStreak"`
	Timezone        string                     `json:"timezone"`
	GambleHistory   []GambleEntry              `json:"gambleHistory"`
	Power           string                     `json:"power"`
	Race            string                     `json:"race"`
	FirstTime       bool                       `json:"firstTime"`
	RoleplayActions map[string][]RoleplayEntry `json:"roleplayActions"`
}

// schemaKeys lists every key a persisted record must carry. A record missing
// any of them is backfilled and rewritten on its next access.
var schemaKeys = []string{
	"id", "name", "balance", "experience", "level", "lastDaily", "inventory",
	"dailyStreak", "timezone", "gambleHistory", "power", "race", "firstTime",
	"roleplayActions",
}

// nullableKeys default to JSON null, so a null value is not a missing value.
var nullableKeys = map[string]bool{"lastDaily": true}

// LevelForExperience returns the level reached with xp experience points.
func LevelForExperience(xp int64) int64 {
	if xp < 0 {
		xp = 0
	}
	return 1 + xp/ExperiencePerLevel
}

// DefaultUserRecord returns a record for id with every field at its default.
func DefaultUserRecord(id string) *UserRecord {
	return &UserRecord{
		ID:              id,
		Level:           1,
		Inventory:       []InventoryItem{},
		Timezone:        DefaultTimezone,
		GambleHistory:   []GambleEntry{},
		Race:            DefaultRace,
		FirstTime:       true,
		RoleplayActions: map[string][]RoleplayEntry{},
	}
}

// Reconcile fills nil collections with their defaults and enforces the record
// invariants: non-negative balance and experience, derived level, positive
// inventory quantities unique by name, and a bounded gamble history.
func Reconcile(r *UserRecord) {
	if r.Inventory == nil {
		r.Inventory = []InventoryItem{}
	}
	if r.GambleHistory == nil {
		r.GambleHistory = []GambleEntry{}
	}
	if r.RoleplayActions == nil {
		r.RoleplayActions = map[string][]RoleplayEntry{}
	}
	for name, bucket := range r.RoleplayActions {
		if bucket == nil {
			r.RoleplayActions[name] = []RoleplayEntry{}
		}
	}

	if math.IsNaN(r.Balance) || r.Balance < 0 {
		r.Balance = 0
	}
	if r.Experience < 0 {
		r.Experience = 0
	}
	r.Level = LevelForExperience(r.Experience)

	r.Inventory = mergeInventory(r.Inventory)

	if len(r.GambleHistory) > MaxGambleHistory {
		r.GambleHistory = r.GambleHistory[:MaxGambleHistory]
	}
}

func mergeInventory(items []InventoryItem) []InventoryItem {
	out := make([]InventoryItem, 0, len(items))
	pos := make(map[string]int, len(items))
	for _, item := range items {
		if i, ok := pos[item.Name]; ok {
			out[i].Quantity += item.Quantity
			continue
		}
		pos[item.Name] = len(out)
		out = append(out, item)
	}

	kept := out[:0]
	for _, item := range out {
		if item.Quantity > 0 {
			kept = append(kept, item)
		}
	}
	return kept
}

// Clone returns a deep copy of the record.
func (r *UserRecord) Clone() *UserRecord {
	if r == nil {
		return nil
	}
	c := *r
	if r.LastDaily != nil {
		t := *r.LastDaily
		c.LastDaily = &t
	}
	if r.Inventory != nil {
		c.Inventory = append([]InventoryItem{}, r.Inventory...)
	}
	if r.GambleHistory != nil {
		c.GambleHistory = append([]GambleEntry{}, r.GambleHistory...)
	}
	if r.RoleplayActions != nil {
		c.RoleplayActions = make(map[string][]RoleplayEntry, len(r.RoleplayActions))
		for name, bucket := range r.RoleplayActions {
			entries := make([]RoleplayEntry, len(bucket))
			for i, e := range bucket {
				entries[i] = e.clone()
			}
			c.RoleplayActions[name] = entries
		}
	}
	return &c
}

// FindItem returns the inventory item called name.
func (r *UserRecord) FindItem(name string) (InventoryItem, bool) {
	for _, item := range r.Inventory {
		if item.Name == name {
			return item, true
		}
	}
	return InventoryItem{}, false
}

// DecodeUserRecord decodes a persisted record over the default schema. The
// returned flag reports whether any schema key was absent (or null where null
// is not the default), meaning the stored copy needs to be rewritten.
func DecodeUserRecord(data []byte) (*UserRecord, bool, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false, err
	}

	backfilled := false
	for _, key := range schemaKeys {
		value, ok := raw[key]
		if !ok || (isNull(value) && !nullableKeys[key]) {
			backfilled = true
			break
		}
	}

	var id string
	if v, ok := raw["id"]; ok && !isNull(v) {
		if err := json.Unmarshal(v, &id); err != nil {
			return nil, false, err
		}
	}

	rec := DefaultUserRecord(id)
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, false, err
	}
	before := rec.Clone()
	Reconcile(rec)
	if !reflect.DeepEqual(before, rec) {
		backfilled = true
	}
	return rec, backfilled, nil
}

func isNull(v json.RawMessage) bool {
	return string(v) == "null"
}
