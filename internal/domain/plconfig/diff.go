package plconfig

import (
	"encoding/json"
	"reflect"
)

// Diff compares two flat state maps and returns the changed keys, each
// mapped to its old and new value. Keys present on only one side count
// as changed.
func Diff(oldState, newState map[string]any) map[string]any {
	changes := make(map[string]any)

	for key, newVal := range newState {
		oldVal, exists := oldState[key]
		if !exists {
			changes[key] = map[string]any{"old": nil, "new": newVal}
		} else if !reflect.DeepEqual(oldVal, newVal) {
			changes[key] = map[string]any{"old": oldVal, "new": newVal}
		}
	}

	for key, oldVal := range oldState {
		if _, exists := newState[key]; !exists {
			changes[key] = map[string]any{"old": oldVal, "new": nil}
		}
	}

	return changes
}

// diffFieldChanged derives the single changed top-level field between two
// config snapshots, or nil when zero or several fields changed. Used when
// the update shape itself did not pin the field down.
func diffFieldChanged(oldValue, newValue any) *string {
	oldMap, ok := stateMap(oldValue)
	if !ok {
		return nil
	}
	newMap, ok := stateMap(newValue)
	if !ok {
		return nil
	}

	changes := Diff(oldMap, newMap)
	for _, bookkeeping := range []string{"tenantId", "version", "updatedAt", "updatedBy"} {
		delete(changes, bookkeeping)
	}
	if len(changes) != 1 {
		return nil
	}
	for key := range changes {
		return &key
	}
	return nil
}

// stateMap flattens a struct to its JSON object representation.
func stateMap(v any) (map[string]any, bool) {
	if v == nil || isNilPtr(v) {
		return nil, false
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	return m, true
}
