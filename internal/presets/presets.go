// Package presets loads the built-in source-set bundles (spec §4.H): a
// fixed table of named subreddit groups targeting specific audiences,
// each resolvable into a concrete SourceSet the first time it's used.
package presets

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/albeorla/reddit-pain-radar/internal/domain/entity"
	"github.com/albeorla/reddit-pain-radar/internal/store"
)

//go:embed presets.yaml
var presetsYAML []byte

var table = mustLoad(presetsYAML)

func mustLoad(raw []byte) map[string]entity.Preset {
	var list []entity.Preset
	if err := yaml.Unmarshal(raw, &list); err != nil {
		panic(fmt.Sprintf("presets: embedded presets.yaml is malformed: %v", err))
	}
	m := make(map[string]entity.Preset, len(list))
	for _, p := range list {
		m[p.Key] = p
	}
	return m
}

// Get returns the named preset and whether it exists.
func Get(key string) (entity.Preset, bool) {
	p, ok := table[key]
	return p, ok
}

// Keys returns every known preset key in table-declaration order.
func Keys() []string {
	var list []entity.Preset
	_ = yaml.Unmarshal(presetsYAML, &list)
	keys := make([]string, 0, len(list))
	for _, p := range list {
		keys = append(keys, p.Key)
	}
	return keys
}

// All returns every known preset in table-declaration order.
func All() []entity.Preset {
	var list []entity.Preset
	_ = yaml.Unmarshal(presetsYAML, &list)
	return list
}

// ToSourceSet converts a Preset into the SourceSet shape its first-use
// seeding persists, active by construction.
func ToSourceSet(p entity.Preset) entity.SourceSet {
	return entity.SourceSet{
		Name:        p.Name,
		Description: p.Description,
		PresetKey:   p.Key,
		Subreddits:  p.Subreddits,
		Listing:     p.Listing,
		LimitPerSub: p.LimitPerSub,
		Active:      true,
	}
}

// ResolveOrCreate returns the SourceSet already persisted for a preset
// key, seeding one from the built-in table on first use. An unknown key
// is a configuration error: there is no safe default subreddit bundle.
func ResolveOrCreate(ctx context.Context, sets store.SourceSetRepository, key string) (*entity.SourceSet, error) {
	existing, err := sets.GetByPreset(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("lookup preset source set: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	preset, ok := Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: unknown preset %q", entity.ErrConfiguration, key)
	}

	id, err := sets.Create(ctx, ToSourceSet(preset))
	if err != nil {
		return nil, fmt.Errorf("seed preset source set: %w", err)
	}
	seeded, err := sets.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load seeded preset source set: %w", err)
	}
	return seeded, nil
}
