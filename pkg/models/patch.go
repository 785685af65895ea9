package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// UserPatch is a partial update for a UserRecord. Nil fields are left alone;
// fields named in Reset go back to their default before the patch applies.
// The id and level of a record are never patched.
type UserPatch struct {
	Name            *string
	Balance         *float64
	Experience      *int64
	LastDaily       *time.Time
	Inventory       *[]InventoryItem
	DailyStreak     *int64
	Timezone        *string
	GambleHistory   *[]GambleEntry
	Power           *string
	Race            *string
	FirstTime       *bool
	RoleplayActions *map[string][]RoleplayEntry

	Reset []string
}

// IsEmpty reports whether applying the patch would change nothing.
func (p UserPatch) IsEmpty() bool {
	return p.Name == nil && p.Balance == nil && p.Experience == nil &&
		p.LastDaily == nil && p.Inventory == nil && p.DailyStreak == nil &&
		p.Timezone == nil && p.GambleHistory == nil && p.Power == nil &&
		p.Race == nil && p.FirstTime == nil && p.RoleplayActions == nil &&
		len(p.Reset) == 0
}

// Apply merges the patch into r. Callers reconcile the record afterwards.
func (p UserPatch) Apply(r *UserRecord) {
	if len(p.Reset) > 0 {
		def := DefaultUserRecord(r.ID)
		for _, key := range p.Reset {
			resetField(r, def, key)
		}
	}

	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Balance != nil {
		r.Balance = *p.Balance
	}
	if p.Experience != nil {
		r.Experience = *p.Experience
	}
	if p.LastDaily != nil {
		t := *p.LastDaily
		r.LastDaily = &t
	}
	if p.Inventory != nil {
		r.Inventory = append([]InventoryItem{}, (*p.Inventory)...)
	}
	if p.DailyStreak != nil {
		r.DailyStreak = *p.DailyStreak
	}
	if p.Timezone != nil {
		r.Timezone = *p.Timezone
	}
	if p.GambleHistory != nil {
		r.GambleHistory = append([]GambleEntry{}, (*p.GambleHistory)...)
	}
	if p.Power != nil {
		r.Power = *p.Power
	}
	if p.Race != nil {
		r.Race = *p.Race
	}
	if p.FirstTime != nil {
		r.FirstTime = *p.FirstTime
	}
	if p.RoleplayActions != nil {
		actions := make(map[string][]RoleplayEntry, len(*p.RoleplayActions))
		for name, bucket := range *p.RoleplayActions {
			actions[name] = append([]RoleplayEntry{}, bucket...)
		}
		r.RoleplayActions = actions
	}
}

func resetField(r, def *UserRecord, key string) {
	switch key {
	case "name":
		r.Name = def.Name
	case "balance":
		r.Balance = def.Balance
	case "experience":
		r.Experience = def.Experience
	case "lastDaily":
		r.LastDaily = def.LastDaily
	case "inventory":
		r.Inventory = def.Inventory
	case "dailyStreak":
		r.DailyStreak = def.DailyStreak
	case "timezone":
		r.Timezone = def.Timezone
	case "gambleHistory":
		r.GambleHistory = def.GambleHistory
	case "power":
		r.Power = def.Power
	case "race":
		r.Race = def.Race
	case "firstTime":
		r.FirstTime = def.FirstTime
	case "roleplayActions":
		r.RoleplayActions = def.RoleplayActions
	}
}

// DecodeUserPatch reads a JSON object into a UserPatch. Absent keys are
// ignored and an explicit null resets the field to its default. Unknown keys,
// id and level are skipped.
func DecodeUserPatch(data []byte) (UserPatch, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return UserPatch{}, fmt.Errorf("patch: %w", err)
	}

	var p UserPatch
	for key, value := range raw {
		if isNull(value) {
			if isPatchable(key) {
				p.Reset = append(p.Reset, key)
			}
			continue
		}

		var target any
		switch key {
		case "name":
			p.Name = new(string)
			target = p.Name
		case "balance":
			p.Balance = new(float64)
			target = p.Balance
		case "experience":
			p.Experience = new(int64)
			target = p.Experience
		case "lastDaily":
			p.LastDaily = new(time.Time)
			target = p.LastDaily
		case "inventory":
			p.Inventory = new([]InventoryItem)
			target = p.Inventory
		case "dailyStreak":
			p.DailyStreak = new(int64)
			target = p.DailyStreak
		case "timezone":
			p.Timezone = new(string)
			target = p.Timezone
		case "gambleHistory":
			p.GambleHistory = new([]GambleEntry)
			target = p.GambleHistory
		case "power":
			p.Power = new(string)
			target = p.Power
		case "race":
			p.Race = new(string)
			target = p.Race
		case "firstTime":
			p.FirstTime = new(bool)
			target = p.FirstTime
		case "roleplayActions":
			p.RoleplayActions = new(map[string][]RoleplayEntry)
			target = p.RoleplayActions
		default:
			continue
		}

		if err := json.Unmarshal(value, target); err != nil {
			return UserPatch{}, fmt.Errorf("patch field %q: %w", key, err)
		}
	}
	return p, nil
}

func isPatchable(key string) bool {
	switch key {
	case "id", "level":
		return false
	}
	for _, k := range schemaKeys {
		if k == key {
			return true
		}
	}
	return false
}

// InventoryAction selects how UpdateInventory changes item quantities.
type InventoryAction int

const (
	InventoryAdd InventoryAction = iota + 1
	InventoryRemove
)

func (a InventoryAction) String() string {
	switch a {
	case InventoryAdd:
		return "add"
	case InventoryRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Valid reports whether a is a known action.
func (a InventoryAction) Valid() bool {
	return a == InventoryAdd || a == InventoryRemove
}

// ParseInventoryAction maps "add" and "remove" to their action.
func ParseInventoryAction(s string) (InventoryAction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "add":
		return InventoryAdd, true
	case "remove":
		return InventoryRemove, true
	}
	return 0, false
}
