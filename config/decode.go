package config

import (
	"fmt"

	"github.com/restlens/go-restlens/model"
)

// decodeProviders builds providers from decoded entries. An entry with a
// field of the wrong type is logged with its id and skipped, and the other
// entries are kept.
func decodeProviders(entries []entry) []model.Provider {
	providers := make([]model.Provider, 0, len(entries))
	for _, e := range entries {
		p, err := decodeProvider(e.id, e.fields)
		if err != nil {
			log.Errorw("Skipping provider", "provider", p.ID, "err", err)
			continue
		}
		providers = append(providers, p)
	}
	return providers
}

// entry is one provider definition before type checking. id, if set, comes
// from the key the entry was found under and replaces any id field.
type entry struct {
	id     string
	fields map[string]any
}

func decodeProvider(id string, fields map[string]any) (model.Provider, error) {
	p := model.Provider{ID: id}
	if fields == nil {
		return p, fmt.Errorf("provider %s: not an object", p.ID)
	}

	var err error
	if id == "" {
		if p.ID, err = stringField(fields, "id"); err != nil {
			return p, err
		}
	}
	if p.Pattern, err = stringField(fields, "pattern"); err != nil {
		return p, fmt.Errorf("provider %s: %w", p.ID, err)
	}
	if p.Flags, err = stringField(fields, "flags"); err != nil {
		return p, fmt.Errorf("provider %s: %w", p.ID, err)
	}
	if p.URL, err = stringField(fields, "url"); err != nil {
		return p, fmt.Errorf("provider %s: %w", p.ID, err)
	}
	if p.Files, err = stringsField(fields, "files"); err != nil {
		return p, fmt.Errorf("provider %s: %w", p.ID, err)
	}
	return p, nil
}

// stringField returns a string field. A missing or null field is empty.
func stringField(fields map[string]any, name string) (string, error) {
	v, ok := fields[name]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string, not %T", name, v)
	}
	return s, nil
}

func stringsField(fields map[string]any, name string) ([]string, error) {
	v, ok := fields[name]
	if !ok || v == nil {
		return nil, nil
	}
	var items []any
	switch v := v.(type) {
	case []string:
		return v, nil
	case []any:
		items = v
	default:
		return nil, fmt.Errorf("%s must be a list of strings, not %T", name, v)
	}
	out := make([]string, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%s[%d] must be a string, not %T", name, i, item)
		}
		out[i] = s
	}
	return out, nil
}
