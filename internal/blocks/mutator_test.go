package blocks_test

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyblocks/internal/blocks"
	"storyblocks/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// helpers
// ─────────────────────────────────────────────────────────────

func sequentialIDs(t *testing.T) {
	t.Helper()
	prev := blocks.NewID
	n := 0
	blocks.NewID = func() string {
		n++
		return fmt.Sprintf("b%d", n)
	}
	t.Cleanup(func() { blocks.NewID = prev })
}

func ids(bs []domain.ContentBlock) []string {
	out := make([]string, len(bs))
	for i, b := range domain.SortByOrder(bs) {
		out[i] = b.ID
	}
	return out
}

func text(id string, order int) domain.ContentBlock {
	return domain.ContentBlock{ID: id, Type: domain.BlockTypeText, Content: id, Order: order}
}

// ─────────────────────────────────────────────────────────────
// Insert
// ─────────────────────────────────────────────────────────────

func TestInsert_ShiftsLaterBlocks(t *testing.T) {
	sequentialIDs(t)
	in := []domain.ContentBlock{text("a", 0), text("b", 1), text("c", 2), text("d", 3)}

	out, created := blocks.Insert(in, 2, blocks.TypeSpec{Type: domain.BlockTypeText})

	require.Len(t, out, 5)
	assert.Equal(t, 2, created.Order)
	before := map[string]int{}
	for _, b := range in {
		before[b.ID] = b.Order
	}
	for _, b := range out {
		old, ok := before[b.ID]
		if !ok {
			continue
		}
		if old >= 2 {
			assert.Equal(t, old+1, b.Order, "block %s", b.ID)
		} else {
			assert.Equal(t, old, b.Order, "block %s", b.ID)
		}
	}
	// input untouched
	assert.Equal(t, 2, in[2].Order)
}

func TestInsert_ClampsIndex(t *testing.T) {
	in := []domain.ContentBlock{text("a", 0)}

	out, created := blocks.Insert(in, 99, blocks.TypeSpec{Type: domain.BlockTypeText})
	assert.Equal(t, 1, created.Order)
	assert.Equal(t, "a", ids(out)[0])

	out, created = blocks.Insert(in, -5, blocks.TypeSpec{Type: domain.BlockTypeText})
	assert.Equal(t, 0, created.Order)
	assert.Equal(t, "a", ids(out)[1])
}

func TestInsert_TypeDefaults(t *testing.T) {
	_, h := blocks.Insert(nil, 0, blocks.TypeSpec{Type: domain.BlockTypeHeading})
	require.NotNil(t, h.HeadingLevel)
	assert.Equal(t, 2, *h.HeadingLevel)

	_, img := blocks.Insert(nil, 0, blocks.TypeSpec{Type: domain.BlockTypeImage})
	require.NotNil(t, img.ImageURL)
	assert.Equal(t, "", *img.ImageURL)

	_, div := blocks.Insert(nil, 0, blocks.TypeSpec{Type: domain.BlockTypeText, Divider: true})
	assert.True(t, div.IsDivider())

	_, bogus := blocks.Insert(nil, 0, blocks.TypeSpec{Type: "video"})
	assert.Equal(t, domain.BlockTypeText, bogus.Type)
}

func TestInsert_FreshIDs(t *testing.T) {
	var bs []domain.ContentBlock
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		var b domain.ContentBlock
		bs, b = blocks.Insert(bs, i/2, blocks.TypeSpec{Type: domain.BlockTypeText})
		require.NotEmpty(t, b.ID)
		require.False(t, seen[b.ID], "id reused: %s", b.ID)
		seen[b.ID] = true
	}
}

// ─────────────────────────────────────────────────────────────
// Update / Remove
// ─────────────────────────────────────────────────────────────

func TestUpdate_MergesFieldsKeepsOrder(t *testing.T) {
	in := []domain.ContentBlock{text("a", 0), text("b", 1)}
	content := "changed"
	out := blocks.Update(in, "b", blocks.Patch{Content: &content})

	assert.Equal(t, "changed", out[1].Content)
	assert.Equal(t, 1, out[1].Order)
	assert.Equal(t, "b", in[1].Content)
}

func TestUpdate_UnknownIDIsNoop(t *testing.T) {
	in := []domain.ContentBlock{text("a", 0)}
	content := "x"
	out := blocks.Update(in, "missing", blocks.Patch{Content: &content})
	assert.Equal(t, in, out)
}

func TestRemove_RenumbersRest(t *testing.T) {
	in := []domain.ContentBlock{text("a", 0), text("b", 1), text("c", 2)}
	out := blocks.Remove(in, "a")
	assert.Equal(t, []string{"b", "c"}, ids(out))
	assert.True(t, blocks.IsDense(out))
}

func TestRemove_UnknownIDIsNoop(t *testing.T) {
	in := []domain.ContentBlock{text("a", 0)}
	assert.Equal(t, in, blocks.Remove(in, "zzz"))
}

func TestRemove_LastBlockLeavesEmpty(t *testing.T) {
	// The mutator itself does not enforce the one-block policy.
	out := blocks.Remove([]domain.ContentBlock{text("a", 0)}, "a")
	assert.Empty(t, out)
}

// ─────────────────────────────────────────────────────────────
// Reorder
// ─────────────────────────────────────────────────────────────

func TestReorder_MovesBeforeTarget(t *testing.T) {
	in := []domain.ContentBlock{text("a", 0), text("b", 1), text("c", 2), text("d", 3)}

	assert.Equal(t, []string{"d", "a", "b", "c"}, ids(blocks.Reorder(in, "d", "a")))
	assert.Equal(t, []string{"b", "a", "c", "d"}, ids(blocks.Reorder(in, "a", "c")))
	assert.Equal(t, []string{"a", "c", "b", "d"}, ids(blocks.Reorder(in, "c", "b")))
}

func TestReorder_Noops(t *testing.T) {
	in := []domain.ContentBlock{text("a", 0), text("b", 1)}
	assert.Equal(t, in, blocks.Reorder(in, "a", "a"))
	assert.Equal(t, in, blocks.Reorder(in, "a", "zzz"))
	assert.Equal(t, in, blocks.Reorder(in, "zzz", "a"))
}

func TestReorder_PreservesMembership(t *testing.T) {
	in := []domain.ContentBlock{text("a", 0), text("b", 1), text("c", 2), text("d", 3), text("e", 4)}
	for _, from := range []string{"a", "b", "c", "d", "e"} {
		for _, to := range []string{"a", "b", "c", "d", "e"} {
			got := ids(blocks.Reorder(in, from, to))
			sort.Strings(got)
			assert.Equal(t, []string{"a", "b", "c", "d", "e"}, got)
		}
	}
}

// ─────────────────────────────────────────────────────────────
// Invariants
// ─────────────────────────────────────────────────────────────

func TestOrderDensity_RandomOperations(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var bs []domain.ContentBlock

	pick := func() string {
		if len(bs) == 0 {
			return "none"
		}
		return bs[rng.Intn(len(bs))].ID
	}

	for step := 0; step < 2000; step++ {
		switch rng.Intn(4) {
		case 0, 1:
			bs, _ = blocks.Insert(bs, rng.Intn(len(bs)+3)-1, blocks.TypeSpec{Type: domain.BlockTypeText})
		case 2:
			bs = blocks.Remove(bs, pick())
		case 3:
			bs = blocks.Reorder(bs, pick(), pick())
		}
		for i, b := range domain.SortByOrder(bs) {
			if b.Order != i {
				t.Fatalf("step %d: order %d at index %d", step, b.Order, i)
			}
		}
	}
}

func TestNormalize_CompactsGaps(t *testing.T) {
	in := []domain.ContentBlock{text("c", 40), text("a", -3), text("b", 7)}
	out := blocks.Normalize(in)
	assert.Equal(t, []string{"a", "b", "c"}, ids(out))
	assert.True(t, blocks.IsDense(out))
	assert.False(t, blocks.IsDense(in))
}

func TestScenario_HeadingDividerParagraph(t *testing.T) {
	sequentialIDs(t)
	var bs []domain.ContentBlock

	bs, heading := blocks.Insert(bs, 0, blocks.TypeSpec{Type: domain.BlockTypeHeading})
	require.Equal(t, 0, heading.Order)
	require.Equal(t, 2, *heading.HeadingLevel)

	bs, paragraph := blocks.Insert(bs, 1, blocks.TypeSpec{Type: domain.BlockTypeText})
	bs, divider := blocks.Insert(bs, 1, blocks.TypeSpec{Type: domain.BlockTypeText, Divider: true})

	assert.Equal(t, []string{heading.ID, divider.ID, paragraph.ID}, ids(bs))
	for i, b := range domain.SortByOrder(bs) {
		assert.Equal(t, i, b.Order)
	}

	bs = blocks.Reorder(bs, paragraph.ID, heading.ID)
	assert.Equal(t, []string{paragraph.ID, heading.ID, divider.ID}, ids(bs))
	assert.True(t, blocks.IsDense(bs))
}

func TestValidID(t *testing.T) {
	for _, id := range []string{"a", "n1", "keep-me_1", blocks.NewID()} {
		assert.True(t, blocks.ValidID(id), id)
	}
	for _, id := range []string{"", "..", "../x", "a/b", `a\b`, "a.b", "with space", fmt.Sprintf("%065d", 0)} {
		assert.False(t, blocks.ValidID(id), "%q", id)
	}
}
