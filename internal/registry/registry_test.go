package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyblocks/internal/domain"
	"storyblocks/internal/registry"
)

func entryIDs(es []registry.Entry) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.ID
	}
	return out
}

func TestFilter_Img(t *testing.T) {
	assert.Equal(t, []string{"image"}, entryIDs(registry.Filter("img")))
	assert.Equal(t, []string{"image"}, entryIDs(registry.Filter("Photo")))
}

func TestFilter_EmptyQueryReturnsAll(t *testing.T) {
	assert.Equal(t, entryIDs(registry.All()), entryIDs(registry.Filter("")))
	assert.Empty(t, registry.Filter("   "), "whitespace is not an empty query")
}

func TestFilter_NoMatch(t *testing.T) {
	got := registry.Filter("zzz")
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilter_CaseInsensitiveOnNameAndDescription(t *testing.T) {
	assert.Equal(t, []string{"heading"}, entryIDs(registry.Filter("HEAD")))
	// "rule" only appears in the divider's description
	assert.Equal(t, []string{"divider"}, entryIDs(registry.Filter("Rule")))
}

func TestSelection_Divider(t *testing.T) {
	e, ok := registry.Lookup("divider")
	require.True(t, ok)

	sel := e.Selection()
	assert.Equal(t, domain.BlockTypeText, sel.TargetType)
	assert.True(t, sel.IsDivider)
	assert.Equal(t, domain.ElementDivider, sel.ElementType())
	assert.True(t, sel.Spec().Divider)
}

func TestSelection_ElementTypes(t *testing.T) {
	want := map[string]domain.ElementType{
		"paragraph":   domain.ElementParagraph,
		"heading":     domain.ElementHeading,
		"image":       domain.ElementImage,
		"bullet_list": domain.ElementBulletList,
	}
	for id, et := range want {
		e, ok := registry.Lookup(id)
		require.True(t, ok, id)
		assert.Equal(t, et, e.Selection().ElementType(), id)
		assert.False(t, e.IsDivider, id)
	}
	_, ok := registry.Lookup("video")
	assert.False(t, ok)
}

func TestAll_ReturnsCopy(t *testing.T) {
	all := registry.All()
	all[0].DisplayName = "mutated"
	assert.NotEqual(t, "mutated", registry.All()[0].DisplayName)
}
