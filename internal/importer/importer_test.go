package importer_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyblocks/internal/blocks"
	"storyblocks/internal/domain"
	"storyblocks/internal/importer"
	"storyblocks/internal/render"
)

var ignoreIDs = cmpopts.IgnoreFields(domain.ContentBlock{}, "ID")

// ─────────────────────────────────────────────────────────────
// Markdown
// ─────────────────────────────────────────────────────────────

func TestMarkdown_BlockKinds(t *testing.T) {
	src := []byte(`# Retreat week

Mornings are *quiet*.
Evenings are not.

---

- yoga
- surf
- long dinners

#### Small print

![sunset](https://example.com/sunset.jpg)
`)

	want := []domain.ContentBlock{
		{Type: domain.BlockTypeHeading, Content: "Retreat week", Order: 0, HeadingLevel: domain.IntPtr(1)},
		{Type: domain.BlockTypeText, Content: "Mornings are quiet.\nEvenings are not.", Order: 1},
		{Type: domain.BlockTypeText, Content: domain.DividerSentinel, Order: 2},
		{Type: domain.BlockTypeBulletList, Content: "yoga\nsurf\nlong dinners", Order: 3},
		{Type: domain.BlockTypeHeading, Content: "Small print", Order: 4, HeadingLevel: domain.IntPtr(3)},
		{Type: domain.BlockTypeImage, Content: "sunset", Order: 5,
			ImageURL: domain.StringPtr("https://example.com/sunset.jpg"), ImageAlt: domain.StringPtr("sunset")},
	}
	got := importer.Markdown(src)
	if diff := cmp.Diff(want, got, ignoreIDs); diff != "" {
		t.Errorf("Markdown() mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, blocks.IsDense(got))
}

func TestMarkdown_ImageInsideText(t *testing.T) {
	got := importer.Markdown([]byte("Before ![a](a.png) after\n"))
	require.Len(t, got, 3)
	assert.Equal(t, "Before", got[0].Content)
	assert.Equal(t, domain.BlockTypeImage, got[1].Type)
	assert.Equal(t, "a.png", got[1].URL())
	assert.Equal(t, "after", got[2].Content)
}

func TestMarkdown_CodeAndQuote(t *testing.T) {
	got := importer.Markdown([]byte("```\nline 1\n  line 2\n```\n\n> quoted\n>\n> twice\n"))
	require.Len(t, got, 2)
	assert.Equal(t, "line 1\n  line 2", got[0].Content)
	assert.Equal(t, "quoted\ntwice", got[1].Content)
}

func TestMarkdown_Empty(t *testing.T) {
	assert.Empty(t, importer.Markdown(nil))
	assert.Empty(t, importer.Markdown([]byte("\n\n   \n")))
}

func TestMarkdown_RoundTripsExport(t *testing.T) {
	original := []domain.ContentBlock{
		{ID: "1", Type: domain.BlockTypeHeading, Content: "Title", Order: 0, HeadingLevel: domain.IntPtr(2)},
		{ID: "2", Type: domain.BlockTypeText, Content: "first line\nsecond line", Order: 1},
		{ID: "3", Type: domain.BlockTypeText, Content: domain.DividerSentinel, Order: 2},
		{ID: "4", Type: domain.BlockTypeBulletList, Content: "a\nb", Order: 3},
	}
	md := render.Markdown(render.Render(original))

	got := importer.Markdown([]byte(md))
	if diff := cmp.Diff(original, got, ignoreIDs); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

// ─────────────────────────────────────────────────────────────
// JSON
// ─────────────────────────────────────────────────────────────

func TestJSON_BareArray(t *testing.T) {
	doc, err := importer.JSON([]byte(`[
		{"id":"b","type":"text","content":"second","order":9},
		{"id":"a","type":"heading","content":"first","order":3,"headingLevel":1}
	]`))
	require.NoError(t, err)
	require.Len(t, doc.Blocks, 2)
	assert.Equal(t, "a", doc.Blocks[0].ID)
	assert.Equal(t, 0, doc.Blocks[0].Order)
	assert.Equal(t, 1, doc.Blocks[1].Order)
	assert.Equal(t, "", doc.Title)
}

func TestJSON_Document(t *testing.T) {
	doc, err := importer.JSON([]byte(`{"title":"Lisbon","blocks":[
		{"type":"text","content":"---DIVIDER---","order":0},
		{"id":"x","type":"image","content":"","order":1,"imageUrl":"data:image/png;base64,AA","imageAlt":"x"}
	]}`))
	require.NoError(t, err)
	assert.Equal(t, "Lisbon", doc.Title)
	require.Len(t, doc.Blocks, 2)
	assert.NotEmpty(t, doc.Blocks[0].ID, "missing ids are generated")
	assert.True(t, doc.Blocks[0].IsDivider())
	assert.Equal(t, "data:image/png;base64,AA", doc.Blocks[1].URL())
}

func TestJSON_Errors(t *testing.T) {
	_, err := importer.JSON([]byte(`[{"type":"video","order":0}]`))
	assert.ErrorIs(t, err, importer.ErrInvalidBlock)

	_, err = importer.JSON([]byte(`{not json`))
	assert.Error(t, err)
}

func TestJSON_DuplicateIDsAreReplaced(t *testing.T) {
	doc, err := importer.JSON([]byte(`[{"id":"a","type":"text","order":0},{"id":"a","type":"text","order":1}]`))
	require.NoError(t, err)
	assert.NotEqual(t, doc.Blocks[0].ID, doc.Blocks[1].ID)
}

func TestJSON_UnsafeIDsAreReplaced(t *testing.T) {
	doc, err := importer.JSON([]byte(`[
		{"id":"../../escaped","type":"text","order":0},
		{"id":"a/b","type":"text","order":1},
		{"id":"keep-me_1","type":"text","order":2}
	]`))
	require.NoError(t, err)
	require.Len(t, doc.Blocks, 3)
	assert.NotEqual(t, "../../escaped", doc.Blocks[0].ID)
	assert.NotEqual(t, "a/b", doc.Blocks[1].ID)
	assert.Equal(t, "keep-me_1", doc.Blocks[2].ID)
	for _, b := range doc.Blocks {
		assert.True(t, blocks.ValidID(b.ID), b.ID)
	}
}
