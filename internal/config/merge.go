package config

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// ErrUnknownProfile is returned when a profile name is not configured.
var ErrUnknownProfile = errors.New("unknown profile")

// DeepMerge returns a new mapping holding base overlaid with override.
// On conflict the override value wins, except when both values are mappings,
// in which case they are merged recursively. Neither input is modified.
func DeepMerge(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = cloneValue(v)
	}
	for k, v := range override {
		overMap, overIsMap := v.(map[string]any)
		baseMap, baseIsMap := out[k].(map[string]any)
		if overIsMap && baseIsMap {
			out[k] = DeepMerge(baseMap, overMap)
			continue
		}
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return DeepMerge(nil, t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// profileSources returns the raw profile mappings. "hosts" takes priority
// over "profiles" when it is non-empty.
func (c *Config) profileSources() map[string]map[string]any {
	if len(c.Hosts) > 0 {
		return c.Hosts
	}
	return c.Profiles
}

// ProfileNames returns the configured profile names in sorted order.
func (c *Config) ProfileNames() []string {
	return slices.Sorted(maps.Keys(c.profileSources()))
}

// ResolveProfile deep-merges the defaults mapping under the named profile and
// decodes the result.
func (c *Config) ResolveProfile(name string) (*Profile, error) {
	raw, ok := c.profileSources()[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProfile, name)
	}

	p, err := decodeProfile(DeepMerge(c.Defaults, raw))
	if err != nil {
		return nil, fmt.Errorf("profile %q: %w", name, err)
	}
	p.Name = name
	return p, nil
}

// ResolveProfiles resolves and validates every configured profile.
func (c *Config) ResolveProfiles() (map[string]*Profile, error) {
	names := c.ProfileNames()
	out := make(map[string]*Profile, len(names))
	for _, name := range names {
		p, err := c.ResolveProfile(name)
		if err != nil {
			return nil, err
		}
		if err := ValidateProfile(p); err != nil {
			return nil, err
		}
		out[name] = p
	}
	return out, nil
}
