package editor_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"storyblocks/internal/blocks"
	"storyblocks/internal/domain"
	"storyblocks/internal/editor"
	"storyblocks/internal/overlay"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ─────────────────────────────────────────────────────────────
// helpers
// ─────────────────────────────────────────────────────────────

type recorder struct {
	mu      sync.Mutex
	commits [][]domain.ContentBlock
	ch      chan []domain.ContentBlock
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan []domain.ContentBlock, 64)}
}

func (r *recorder) commit(bs []domain.ContentBlock) {
	r.mu.Lock()
	r.commits = append(r.commits, bs)
	r.mu.Unlock()
	r.ch <- bs
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.commits)
}

func (r *recorder) last(t *testing.T) []domain.ContentBlock {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.commits, "no commit recorded")
	return r.commits[len(r.commits)-1]
}

func stableIDs(t *testing.T) {
	t.Helper()
	prev := blocks.NewID
	var mu sync.Mutex
	n := 0
	blocks.NewID = func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("n%d", n)
	}
	t.Cleanup(func() { blocks.NewID = prev })
}

// newSession returns a session whose timer never fires during the test, so
// commits only happen through Flush or Close.
func newSession(t *testing.T, hostBlocks []domain.ContentBlock, opts ...func(*editor.Options)) (*editor.Session, *recorder) {
	t.Helper()
	rec := newRecorder()
	o := editor.Options{OnCommit: rec.commit, Debounce: time.Hour}
	for _, fn := range opts {
		fn(&o)
	}
	s := editor.New(o)
	s.Mount(hostBlocks)
	t.Cleanup(s.Close)
	return s, rec
}

func para(id, content string, order int) domain.ContentBlock {
	return domain.ContentBlock{ID: id, Type: domain.BlockTypeText, Content: content, Order: order}
}

func elementIDs(es []domain.Element) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.ID
	}
	return out
}

// ─────────────────────────────────────────────────────────────
// Mount / sync
// ─────────────────────────────────────────────────────────────

func TestMount_EmptyHostGetsPlaceholder(t *testing.T) {
	s, rec := newSession(t, nil)

	es := s.Elements()
	require.Len(t, es, 1)
	assert.Equal(t, domain.ElementParagraph, es[0].Type)
	assert.False(t, s.Dirty())
	assert.False(t, s.Flush())
	assert.Equal(t, 0, rec.count())
}

func TestMount_SortsHostBlocks(t *testing.T) {
	s, _ := newSession(t, []domain.ContentBlock{para("c", "", 9), para("a", "", 1), para("b", "", 4)})
	assert.Equal(t, []string{"a", "b", "c"}, elementIDs(s.Elements()))
}

func TestSyncFromHost_OnlyOnCountChange(t *testing.T) {
	s, _ := newSession(t, []domain.ContentBlock{para("a", "one", 0)})
	require.NoError(t, s.Dispatch(editor.SetContent{ID: "a", Content: "typing..."}))

	assert.False(t, s.SyncFromHost([]domain.ContentBlock{para("a", "stale", 0)}))
	assert.Equal(t, "typing...", s.Elements()[0].Content)

	assert.True(t, s.SyncFromHost([]domain.ContentBlock{para("a", "one", 0), para("b", "two", 1)}))
	assert.Equal(t, []string{"a", "b"}, elementIDs(s.Elements()))
	assert.False(t, s.Dirty())
}

// ─────────────────────────────────────────────────────────────
// Commit
// ─────────────────────────────────────────────────────────────

func TestDebounce_CoalescesBurstIntoOneCommit(t *testing.T) {
	s, rec := newSession(t, []domain.ContentBlock{para("a", "", 0)}, func(o *editor.Options) {
		o.Debounce = 50 * time.Millisecond
	})

	for _, prefix := range []string{"H", "He", "Hel", "Hell", "Hello"} {
		require.NoError(t, s.Dispatch(editor.SetContent{ID: "a", Content: prefix}))
	}

	select {
	case got := <-rec.ch:
		require.Len(t, got, 1)
		assert.Equal(t, "Hello", got[0].Content)
	case <-time.After(2 * time.Second):
		t.Fatal("debounced commit never fired")
	}

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
	assert.False(t, s.Dirty())
}

func TestFlush_CommitsDenseBlocks(t *testing.T) {
	stableIDs(t)
	s, rec := newSession(t, []domain.ContentBlock{para("a", "x", 5), para("b", "y", 10)})

	require.NoError(t, s.Dispatch(editor.InsertElement{At: 1, Type: domain.ElementHeading}))
	assert.True(t, s.Dirty())
	require.True(t, s.Flush())
	assert.False(t, s.Flush(), "second flush has nothing to commit")

	got := rec.last(t)
	require.Len(t, got, 3)
	for i, b := range got {
		assert.Equal(t, i, b.Order)
	}
	assert.Equal(t, domain.BlockTypeHeading, got[1].Type)
	assert.Equal(t, 2, *got[1].HeadingLevel)
}

func TestClose_FlushesPendingEdits(t *testing.T) {
	rec := newRecorder()
	s := editor.New(editor.Options{OnCommit: rec.commit, Debounce: time.Hour})
	s.Mount([]domain.ContentBlock{para("a", "", 0)})
	require.NoError(t, s.Dispatch(editor.SetContent{ID: "a", Content: "bye"}))

	s.Close()
	assert.Equal(t, "bye", rec.last(t)[0].Content)
	assert.ErrorIs(t, s.Dispatch(editor.SetContent{ID: "a", Content: "late"}), editor.ErrClosed)
}

func TestDispatch_UnknownElement(t *testing.T) {
	s, _ := newSession(t, []domain.ContentBlock{para("a", "", 0)})
	assert.ErrorIs(t, s.Dispatch(editor.SetContent{ID: "zzz", Content: "x"}), editor.ErrUnknownElement)
	assert.False(t, s.Dirty())
}

func TestDispatch_NoChangeStaysClean(t *testing.T) {
	s, _ := newSession(t, []domain.ContentBlock{para("a", "same", 0)})
	require.NoError(t, s.Dispatch(editor.SetContent{ID: "a", Content: "same"}))
	require.NoError(t, s.Dispatch(editor.ReorderElements{DraggedID: "a", TargetID: "a"}))
	assert.False(t, s.Dirty())
	assert.Equal(t, uint64(0), s.Revision())
}

// ─────────────────────────────────────────────────────────────
// Remove policy
// ─────────────────────────────────────────────────────────────

func TestRemove_SoleHeadingIsClearedNotDeleted(t *testing.T) {
	s, rec := newSession(t, []domain.ContentBlock{{
		ID: "h", Type: domain.BlockTypeHeading, Content: "Intro", Order: 0, HeadingLevel: domain.IntPtr(2),
	}})

	require.NoError(t, s.Dispatch(editor.RemoveElement{ID: "h"}))
	require.True(t, s.Flush())

	got := rec.last(t)
	require.Len(t, got, 1)
	assert.Equal(t, domain.BlockTypeText, got[0].Type)
	assert.Equal(t, "", got[0].Content)
	assert.Nil(t, got[0].HeadingLevel)
}

func TestRemove_MovesFocusToPrevious(t *testing.T) {
	s, _ := newSession(t, []domain.ContentBlock{para("a", "1", 0), para("b", "2", 1), para("c", "3", 2)})
	require.True(t, s.SetFocus("b"))

	require.NoError(t, s.Dispatch(editor.RemoveElement{ID: "b"}))
	assert.Equal(t, "a", s.Focus())

	require.NoError(t, s.Dispatch(editor.RemoveElement{ID: "a"}))
	assert.Equal(t, "c", s.Focus())
}

// ─────────────────────────────────────────────────────────────
// Keyboard
// ─────────────────────────────────────────────────────────────

var caret = overlay.Point{X: 200, Y: 300}

func TestEnter_OnEmptyOpensPickerAndConvertsInPlace(t *testing.T) {
	s, rec := newSession(t, []domain.ContentBlock{para("a", "first", 0), para("b", "", 1)})

	res, err := s.HandleKey("b", editor.KeyEvent{Key: editor.KeyEnter, Caret: caret})
	require.NoError(t, err)
	assert.True(t, res.Handled)
	assert.True(t, res.PickerOpened)

	st := s.Picker()
	require.True(t, st.Open)
	assert.Equal(t, 1, st.InsertAt)
	assert.Equal(t, overlay.Placement{X: 200, Y: 300, Width: 320, MaxHeight: 400}, st.Placement)
	assert.Len(t, s.Elements(), 2, "no newline or element inserted")

	require.True(t, s.PickEntry("heading"))
	es := s.Elements()
	require.Len(t, es, 2)
	assert.Equal(t, "b", es[1].ID)
	assert.Equal(t, domain.ElementHeading, es[1].Type)
	assert.False(t, s.Picker().Open)

	s.Flush()
	assert.Equal(t, domain.BlockTypeHeading, rec.last(t)[1].Type)
}

func TestEnter_OnContentInsertsParagraphAfter(t *testing.T) {
	stableIDs(t)
	s, _ := newSession(t, []domain.ContentBlock{para("a", "first", 0), para("b", "second", 1)})

	res, err := s.HandleKey("a", editor.KeyEvent{Key: editor.KeyEnter})
	require.NoError(t, err)
	assert.True(t, res.Handled)
	assert.False(t, res.PickerOpened)

	es := s.Elements()
	require.Len(t, es, 3)
	assert.Equal(t, []string{"a", res.Focus, "b"}, elementIDs(es))
	assert.Equal(t, domain.ElementParagraph, es[1].Type)
	assert.Equal(t, res.Focus, s.Focus())
}

func TestShiftEnter_LeftToHost(t *testing.T) {
	s, _ := newSession(t, []domain.ContentBlock{para("a", "", 0)})
	res, err := s.HandleKey("a", editor.KeyEvent{Key: editor.KeyEnter, Shift: true})
	require.NoError(t, err)
	assert.False(t, res.Handled)
	assert.False(t, s.Picker().Open)
}

func TestBackspace(t *testing.T) {
	s, _ := newSession(t, []domain.ContentBlock{para("a", "keep", 0), para("b", "", 1)})

	res, err := s.HandleKey("a", editor.KeyEvent{Key: editor.KeyBackspace})
	require.NoError(t, err)
	assert.False(t, res.Handled, "non-empty elements keep default deletion")

	res, err = s.HandleKey("b", editor.KeyEvent{Key: editor.KeyBackspace})
	require.NoError(t, err)
	assert.True(t, res.Handled)
	assert.Equal(t, []string{"a"}, elementIDs(s.Elements()))
	assert.Equal(t, "a", res.Focus)
}

func TestBackspace_SoleElementResetsToParagraph(t *testing.T) {
	s, _ := newSession(t, []domain.ContentBlock{{ID: "l", Type: domain.BlockTypeBulletList, Content: "", Order: 0}})

	res, err := s.HandleKey("l", editor.KeyEvent{Key: editor.KeyBackspace})
	require.NoError(t, err)
	assert.True(t, res.Handled)
	es := s.Elements()
	require.Len(t, es, 1)
	assert.Equal(t, "l", es[0].ID)
	assert.Equal(t, domain.ElementParagraph, es[0].Type)
}

func TestSlash_OpensPickerAndIsDiscarded(t *testing.T) {
	s, rec := newSession(t, []domain.ContentBlock{para("a", "", 0)})

	res, err := s.Input("a", "/", caret)
	require.NoError(t, err)
	assert.True(t, res.PickerOpened)
	assert.Equal(t, "", s.Elements()[0].Content)

	st := s.SearchPicker("div")
	require.Len(t, st.Results, 1)
	require.True(t, s.PickEntry("divider"))

	s.Flush()
	got := rec.last(t)
	require.Len(t, got, 1)
	assert.True(t, got[0].IsDivider())
}

func TestSlash_InsideTextIsKept(t *testing.T) {
	s, _ := newSession(t, []domain.ContentBlock{para("a", "", 0)})
	res, err := s.Input("a", "and/or", caret)
	require.NoError(t, err)
	assert.False(t, res.PickerOpened)
	assert.Equal(t, "and/or", s.Elements()[0].Content)
}

func TestPicker_EscapeDismissesWithoutMutation(t *testing.T) {
	s, _ := newSession(t, []domain.ContentBlock{para("a", "", 0)})
	_, err := s.HandleKey("a", editor.KeyEvent{Key: editor.KeyEnter, Caret: caret})
	require.NoError(t, err)
	rev := s.Revision()

	res, err := s.HandleKey("a", editor.KeyEvent{Key: editor.KeyEscape})
	require.NoError(t, err)
	assert.True(t, res.Handled)
	assert.False(t, s.Picker().Open)
	assert.Equal(t, rev, s.Revision())
}

func TestPicker_EmptyResultsMessage(t *testing.T) {
	s, _ := newSession(t, []domain.ContentBlock{para("a", "x", 0)})
	s.OpenPicker(caret, 1)
	st := s.SearchPicker("zzz")
	assert.True(t, st.Empty)
	assert.Equal(t, "No matching blocks", st.Message)

	assert.True(t, s.ClickAt(overlay.Point{X: 1, Y: 1}))
	assert.False(t, s.Picker().Open)
}

func TestPicker_InsertBetweenBlocks(t *testing.T) {
	stableIDs(t)
	s, _ := newSession(t, []domain.ContentBlock{para("a", "1", 0), para("b", "", 1)})

	s.OpenPicker(caret, 1)
	require.True(t, s.PickEntry("image"))

	es := s.Elements()
	require.Len(t, es, 3, "host-opened picker inserts rather than converting")
	assert.Equal(t, domain.ElementImage, es[1].Type)
	assert.Equal(t, "b", es[2].ID)
}

// ─────────────────────────────────────────────────────────────
// Drag
// ─────────────────────────────────────────────────────────────

func TestDrag_DropReorders(t *testing.T) {
	s, rec := newSession(t, []domain.ContentBlock{para("a", "1", 0), para("b", "2", 1), para("c", "3", 2)})
	d := s.Drag()

	assert.False(t, d.Over("a"), "no drag in progress")
	d.Start("c")
	assert.True(t, d.Over("a"))
	assert.ErrorIs(t, s.Dispatch(editor.InsertElement{At: 0, Type: domain.ElementParagraph}), editor.ErrDragInProgress)

	assert.True(t, d.Drop("a"))
	_, dragging := d.Dragging()
	assert.False(t, dragging)
	assert.Equal(t, []string{"c", "a", "b"}, elementIDs(s.Elements()))

	s.Flush()
	for i, b := range rec.last(t) {
		assert.Equal(t, i, b.Order)
	}
}

func TestDrag_DropOnSelfClearsState(t *testing.T) {
	s, _ := newSession(t, []domain.ContentBlock{para("a", "1", 0), para("b", "2", 1)})
	d := s.Drag()

	d.Start("a")
	assert.False(t, d.Drop("a"))
	_, dragging := d.Dragging()
	assert.False(t, dragging)
	assert.False(t, s.Dirty())

	assert.False(t, d.Drop("b"), "drop without start is ignored")
}

// ─────────────────────────────────────────────────────────────
// Images
// ─────────────────────────────────────────────────────────────

type gatedIngestor struct {
	release chan struct{}
	url     string
	err     error
}

func (g *gatedIngestor) Ingest(ctx context.Context, _ string) (string, error) {
	select {
	case <-g.release:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return g.url, g.err
}

func imageBlock(id string, order int) domain.ContentBlock {
	return domain.ContentBlock{ID: id, Type: domain.BlockTypeImage, Order: order,
		ImageURL: domain.StringPtr(""), ImageAlt: domain.StringPtr("")}
}

func wait(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("image read did not finish")
		return nil
	}
}

func TestAttachImage_KeepsConcurrentEdits(t *testing.T) {
	ing := &gatedIngestor{release: make(chan struct{}), url: "data:image/png;base64,AAAA"}
	s, rec := newSession(t, []domain.ContentBlock{imageBlock("img", 0), para("p", "", 1)}, func(o *editor.Options) {
		o.Ingestor = ing
	})

	done := s.AttachImage(context.Background(), "img", "/photos/cover.png")
	require.NoError(t, s.Dispatch(editor.SetContent{ID: "p", Content: "written while loading"}))
	assert.Empty(t, *s.Elements()[0].ImageURL, "nothing applied before the read completes")

	close(ing.release)
	require.NoError(t, wait(t, done))

	es := s.Elements()
	assert.Equal(t, "data:image/png;base64,AAAA", *es[0].ImageURL)
	assert.Equal(t, "cover.png", *es[0].ImageAlt)
	assert.Equal(t, "cover.png", es[0].Content)
	assert.Equal(t, "written while loading", es[1].Content)

	s.Flush()
	assert.Equal(t, []string{"img", "p"}, []string{rec.last(t)[0].ID, rec.last(t)[1].ID})
}

func TestAttachImage_FailureLeavesElementUntouched(t *testing.T) {
	ing := &gatedIngestor{release: make(chan struct{}), err: errors.New("unreadable")}
	close(ing.release)
	s, _ := newSession(t, []domain.ContentBlock{imageBlock("img", 0)}, func(o *editor.Options) {
		o.Ingestor = ing
	})
	before := s.Elements()

	assert.Error(t, wait(t, s.AttachImage(context.Background(), "img", "/nope.png")))
	assert.Equal(t, before, s.Elements())
	assert.False(t, s.Dirty())
}

func TestAttachImage_ElementRemovedMeanwhile(t *testing.T) {
	ing := &gatedIngestor{release: make(chan struct{}), url: "data:image/gif;base64,R0lG"}
	s, _ := newSession(t, []domain.ContentBlock{imageBlock("img", 0), para("p", "x", 1)}, func(o *editor.Options) {
		o.Ingestor = ing
	})

	done := s.AttachImage(context.Background(), "img", "/a.gif")
	require.NoError(t, s.Dispatch(editor.RemoveElement{ID: "img"}))
	close(ing.release)

	assert.ErrorIs(t, wait(t, done), editor.ErrUnknownElement)
	assert.Equal(t, []string{"p"}, elementIDs(s.Elements()))
}

func TestAttachImage_RejectsNonImage(t *testing.T) {
	s, _ := newSession(t, []domain.ContentBlock{para("p", "", 0)}, func(o *editor.Options) {
		o.Ingestor = &gatedIngestor{release: make(chan struct{})}
	})
	assert.ErrorIs(t, wait(t, s.AttachImage(context.Background(), "p", "/a.png")), editor.ErrNotImage)
}

func TestClose_RejectsReadsStartedWhileWaiting(t *testing.T) {
	ing := &gatedIngestor{release: make(chan struct{}), url: "data:image/png;base64,AAAA"}
	s, rec := newSession(t, []domain.ContentBlock{imageBlock("img", 0), imageBlock("late", 1)}, func(o *editor.Options) {
		o.Ingestor = ing
	})

	first := s.AttachImage(context.Background(), "img", "/cover.png")
	closed := make(chan struct{})
	go func() {
		s.Close()
		close(closed)
	}()

	// Reads that slip in before Close marks the session are still waited for.
	var pending []<-chan error
	require.Eventually(t, func() bool {
		ch := s.AttachImage(context.Background(), "late", "/late.png")
		select {
		case err := <-ch:
			return errors.Is(err, editor.ErrClosed)
		default:
			pending = append(pending, ch)
			return false
		}
	}, 2*time.Second, time.Millisecond)

	close(ing.release)
	require.NoError(t, wait(t, first))
	for _, ch := range pending {
		require.NoError(t, wait(t, ch))
	}
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}
	assert.Equal(t, "data:image/png;base64,AAAA", rec.last(t)[0].URL())
}

// ─────────────────────────────────────────────────────────────
// End-to-end scenario
// ─────────────────────────────────────────────────────────────

func TestScenario_BuildAndReorder(t *testing.T) {
	s, rec := newSession(t, nil)
	placeholder := s.Elements()[0].ID

	// Turn the placeholder into a heading through the slash picker.
	_, err := s.Input(placeholder, "/", caret)
	require.NoError(t, err)
	require.True(t, s.PickEntry("heading"))
	require.NoError(t, s.Dispatch(editor.SetContent{ID: placeholder, Content: "Retreat"}))

	res, err := s.HandleKey(placeholder, editor.KeyEvent{Key: editor.KeyEnter})
	require.NoError(t, err)
	paragraph := res.Focus
	require.NoError(t, s.Dispatch(editor.SetContent{ID: paragraph, Content: "Days by the sea."}))

	s.OpenPicker(caret, 1)
	require.True(t, s.PickEntry("divider"))

	s.Flush()
	got := rec.last(t)
	require.Len(t, got, 3)
	assert.Equal(t, domain.BlockTypeHeading, got[0].Type)
	assert.True(t, got[1].IsDivider())
	assert.Equal(t, "Days by the sea.", got[2].Content)

	s.Drag().Start(paragraph)
	require.True(t, s.Drag().Drop(placeholder))
	s.Flush()
	got = rec.last(t)
	assert.Equal(t, paragraph, got[0].ID)
	assert.Equal(t, placeholder, got[1].ID)
	assert.True(t, got[2].IsDivider())
	assert.True(t, blocks.IsDense(got))
}
