package presets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albeorla/reddit-pain-radar/internal/domain/entity"
)

func TestGet_KnownPresetReturnsItsSubreddits(t *testing.T) {
	p, ok := Get("indie_saas")
	require.True(t, ok)
	assert.Equal(t, "Indie SaaS Builders", p.Name)
	assert.Contains(t, p.Subreddits, "IndieHackers")
	assert.Equal(t, entity.ListingNew, p.Listing)
	assert.Equal(t, 25, p.LimitPerSub)
}

func TestGet_UnknownPresetReturnsFalse(t *testing.T) {
	_, ok := Get("not-a-real-preset")
	assert.False(t, ok)
}

func TestKeys_ContainsAllSevenBuiltInBundles(t *testing.T) {
	keys := Keys()
	assert.ElementsMatch(t, []string{"indie_saas", "shopify", "marketing", "recruiting", "devtools", "agencies", "nocode"}, keys)
}

func TestAll_EveryPresetHasAtLeastOneSubreddit(t *testing.T) {
	for _, p := range All() {
		assert.NotEmpty(t, p.Subreddits, "preset %s has no subreddits", p.Key)
	}
}

// fakeSourceSets is a minimal in-memory store.SourceSetRepository for
// exercising ResolveOrCreate's seed-on-first-use path.
type fakeSourceSets struct {
	byPreset map[string]entity.SourceSet
	nextID   int64
}

func newFakeSourceSets() *fakeSourceSets {
	return &fakeSourceSets{byPreset: make(map[string]entity.SourceSet)}
}

func (f *fakeSourceSets) Create(ctx context.Context, set entity.SourceSet) (int64, error) {
	f.nextID++
	set.ID = f.nextID
	f.byPreset[set.PresetKey] = set
	return set.ID, nil
}
func (f *fakeSourceSets) Get(ctx context.Context, id int64) (*entity.SourceSet, error) {
	for _, s := range f.byPreset {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, entity.ErrNotFound
}
func (f *fakeSourceSets) GetByPreset(ctx context.Context, presetKey string) (*entity.SourceSet, error) {
	if s, ok := f.byPreset[presetKey]; ok {
		return &s, nil
	}
	return nil, nil
}
func (f *fakeSourceSets) List(ctx context.Context, activeOnly bool) ([]entity.SourceSet, error) {
	return nil, nil
}
func (f *fakeSourceSets) Update(ctx context.Context, set entity.SourceSet) error { return nil }
func (f *fakeSourceSets) Deactivate(ctx context.Context, id int64) error        { return nil }
func (f *fakeSourceSets) ActiveSubreddits(ctx context.Context) ([]string, error) {
	return nil, nil
}

func TestResolveOrCreate_SeedsOnFirstUse(t *testing.T) {
	sets := newFakeSourceSets()
	set, err := ResolveOrCreate(context.Background(), sets, "devtools")
	require.NoError(t, err)
	assert.Equal(t, "devtools", set.PresetKey)
	assert.Contains(t, set.Subreddits, "golang")
}

func TestResolveOrCreate_ReusesExistingOnSecondCall(t *testing.T) {
	sets := newFakeSourceSets()
	first, err := ResolveOrCreate(context.Background(), sets, "devtools")
	require.NoError(t, err)
	second, err := ResolveOrCreate(context.Background(), sets, "devtools")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestResolveOrCreate_UnknownPresetIsConfigurationError(t *testing.T) {
	sets := newFakeSourceSets()
	_, err := ResolveOrCreate(context.Background(), sets, "not-a-real-preset")
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrConfiguration))
}
