package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/restlens/go-restlens/model"
)

// SettingsSection is the key under which editors send lens settings.
const SettingsSection = "restLens"

type settings struct {
	Providers json.RawMessage `json:"providers"`
}

// ParseSettings decodes providers from editor settings. The settings may be
// wrapped in a "restLens" section. Providers may be given as an object keyed
// by provider id, in which case they are ordered by id, or as an array of
// providers with explicit ids, in which case order is kept. Missing settings
// yield no providers.
func ParseSettings(raw json.RawMessage) ([]model.Provider, error) {
	if isNull(raw) {
		return nil, nil
	}

	var section map[string]json.RawMessage
	if err := json.Unmarshal(raw, &section); err != nil {
		return nil, fmt.Errorf("settings must be an object: %w", err)
	}
	if inner, ok := section[SettingsSection]; ok {
		raw = inner
		if isNull(raw) {
			return nil, nil
		}
	}

	var s settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("cannot decode settings: %w", err)
	}
	if isNull(s.Providers) {
		return nil, nil
	}

	switch bytes.TrimSpace(s.Providers)[0] {
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(s.Providers, &list); err != nil {
			return nil, fmt.Errorf("cannot decode providers: %w", err)
		}
		entries := make([]entry, len(list))
		for i, item := range list {
			entries[i] = entry{fields: objectFields(item)}
		}
		return decodeProviders(entries), nil
	case '{':
		var byID map[string]json.RawMessage
		if err := json.Unmarshal(s.Providers, &byID); err != nil {
			return nil, fmt.Errorf("cannot decode providers: %w", err)
		}
		ids := make([]string, 0, len(byID))
		for id := range byID {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		entries := make([]entry, 0, len(ids))
		for _, id := range ids {
			if isNull(byID[id]) {
				// A null entry disables a provider inherited from another scope.
				continue
			}
			entries = append(entries, entry{id: id, fields: objectFields(byID[id])})
		}
		return decodeProviders(entries), nil
	}
	return nil, errors.New("providers must be an object or an array")
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || string(trimmed) == "null"
}

// objectFields decodes a JSON object. Anything else yields nil, which
// decodeProvider reports.
func objectFields(raw json.RawMessage) map[string]any {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	return fields
}
