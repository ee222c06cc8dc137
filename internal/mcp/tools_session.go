package mcpserver

import (
	"context"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"storyblocks/internal/domain"
	"storyblocks/internal/editor"
	"storyblocks/internal/overlay"
)

// ─────────────────────────────────────────────────────────────
// Editing sessions: keystroke-level editing with debounced commits
// ─────────────────────────────────────────────────────────────

// sessionSet holds at most one open editing session per story.
type sessionSet struct {
	mu   sync.Mutex
	open map[string]*editor.Session
}

func (ss *sessionSet) get(storyID string) (*editor.Session, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	sess, ok := ss.open[storyID]
	return sess, ok
}

// getOrOpen returns the story's session, opening one with open if needed.
func (ss *sessionSet) getOrOpen(storyID string, open func() (*editor.Session, error)) (*editor.Session, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if sess, ok := ss.open[storyID]; ok {
		return sess, nil
	}
	sess, err := open()
	if err != nil {
		return nil, err
	}
	if ss.open == nil {
		ss.open = make(map[string]*editor.Session)
	}
	ss.open[storyID] = sess
	return sess, nil
}

func (ss *sessionSet) remove(storyID string) (*editor.Session, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	sess, ok := ss.open[storyID]
	delete(ss.open, storyID)
	return sess, ok
}

func (ss *sessionSet) drain() []*editor.Session {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	out := make([]*editor.Session, 0, len(ss.open))
	for _, sess := range ss.open {
		out = append(out, sess)
	}
	ss.open = nil
	return out
}

// sessionView is what every session tool returns.
type sessionView struct {
	StoryID  string             `json:"storyId"`
	Elements []domain.Element   `json:"elements"`
	Focus    string             `json:"focus"`
	Dirty    bool               `json:"dirty"`
	Picker   editor.PickerState `json:"picker"`
	Result   any                `json:"result,omitempty"`
}

func viewOf(storyID string, sess *editor.Session, result any) sessionView {
	return sessionView{
		StoryID:  storyID,
		Elements: sess.Elements(),
		Focus:    sess.Focus(),
		Dirty:    sess.Dirty(),
		Picker:   sess.Picker(),
		Result:   result,
	}
}

func (s *Server) registerSessionTools() {
	storyArg := mcp.WithString("story", mcp.Description("Story ID or slug"), mcp.Required())

	// ── open_session ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("open_session",
		mcp.WithDescription("Open (or reuse) an editing session on a story. Edits made through session tools are committed automatically once typing pauses, or immediately by flush_session / close_session."),
		storyArg,
	), s.handleOpenSession)

	// ── session_type ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("session_type",
		mcp.WithDescription("Replace the text of an element. Typing a lone \"/\" into a paragraph opens the block picker instead."),
		storyArg,
		mcp.WithString("elementId", mcp.Description("Element ID"), mcp.Required()),
		mcp.WithString("content", mcp.Description("Full new content of the element")),
		mcp.WithNumber("caretX", mcp.Description("Caret x in viewport pixels (anchors the picker)")),
		mcp.WithNumber("caretY", mcp.Description("Caret y in viewport pixels (anchors the picker)")),
	), s.handleSessionType)

	// ── session_key ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("session_key",
		mcp.WithDescription("Press a key inside an element: Enter on an empty element opens the picker, Enter elsewhere adds a paragraph after it, Backspace on an empty element removes it. While the picker is open, Escape/ArrowUp/ArrowDown/Enter drive the picker."),
		storyArg,
		mcp.WithString("elementId", mcp.Description("Element ID"), mcp.Required()),
		mcp.WithString("key",
			mcp.Description("Key name"),
			mcp.Enum(string(editor.KeyEnter), string(editor.KeyBackspace), string(editor.KeyEscape), string(editor.KeyUp), string(editor.KeyDown)),
			mcp.Required(),
		),
		mcp.WithBoolean("shift", mcp.Description("Shift held")),
		mcp.WithNumber("caretX", mcp.Description("Caret x in viewport pixels")),
		mcp.WithNumber("caretY", mcp.Description("Caret y in viewport pixels")),
	), s.handleSessionKey)

	// ── session_picker ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("session_picker",
		mcp.WithDescription("Drive the block picker: open it at an index, search, pick an entry, click at a point or dismiss it"),
		storyArg,
		mcp.WithString("action",
			mcp.Description("What to do with the picker"),
			mcp.Enum("open", "search", "pick", "click", "dismiss"),
			mcp.Required(),
		),
		mcp.WithNumber("index", mcp.Description("Insertion index (open)")),
		mcp.WithString("query", mcp.Description("Search text (search)")),
		mcp.WithString("entry", mcp.Description("Registry entry id, e.g. heading (pick)")),
		mcp.WithNumber("x", mcp.Description("Viewport x (open anchor or click)")),
		mcp.WithNumber("y", mcp.Description("Viewport y (open anchor or click)")),
	), s.handleSessionPicker)

	// ── session_drag ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("session_drag",
		mcp.WithDescription("Drag an element and drop it onto another; the dragged element lands just before the target"),
		storyArg,
		mcp.WithString("draggedId", mcp.Description("Element being dragged"), mcp.Required()),
		mcp.WithString("targetId", mcp.Description("Element it is dropped on"), mcp.Required()),
	), s.handleSessionDrag)

	// ── session_attach_image ───────────────────────────
	s.mcp.AddTool(mcp.NewTool("session_attach_image",
		mcp.WithDescription("Load a local image file into an image element of the session"),
		storyArg,
		mcp.WithString("elementId", mcp.Description("Image element ID"), mcp.Required()),
		mcp.WithString("path", mcp.Description("Absolute path of the image file"), mcp.Required()),
	), s.handleSessionAttachImage)

	// ── flush_session ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("flush_session",
		mcp.WithDescription("Commit pending session edits now"),
		storyArg,
	), s.handleFlushSession)

	// ── close_session ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("close_session",
		mcp.WithDescription("Commit pending edits and close the story's editing session"),
		storyArg,
	), s.handleCloseSession)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleOpenSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.resolveStory(ctx, req)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.getOrOpen(st.ID, func() (*editor.Session, error) {
		s.log.Info("session opened", zap.String("storyId", st.ID))
		return s.stories.OpenSession(ctx, st.ID)
	})
	if err != nil {
		return nil, err
	}
	return jsonResult(viewOf(st.ID, sess, nil))
}

// openSession finds the session named by the "story" argument.
func (s *Server) openSession(ctx context.Context, req mcp.CallToolRequest) (string, *editor.Session, error) {
	st, err := s.resolveStory(ctx, req)
	if err != nil {
		return "", nil, err
	}
	sess, ok := s.sessions.get(st.ID)
	if !ok {
		return "", nil, fmt.Errorf("no open session for %s (call open_session first)", st.Slug)
	}
	return st.ID, sess, nil
}

func caret(req mcp.CallToolRequest, xKey, yKey string) overlay.Point {
	return overlay.Point{X: req.GetFloat(xKey, 0), Y: req.GetFloat(yKey, 0)}
}

func (s *Server) handleSessionType(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	storyID, sess, err := s.openSession(ctx, req)
	if err != nil {
		return nil, err
	}
	id, err := requireArg(req, "elementId")
	if err != nil {
		return nil, err
	}
	res, err := sess.Input(id, req.GetString("content", ""), caret(req, "caretX", "caretY"))
	if err != nil {
		return nil, err
	}
	return jsonResult(viewOf(storyID, sess, res))
}

func (s *Server) handleSessionKey(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	storyID, sess, err := s.openSession(ctx, req)
	if err != nil {
		return nil, err
	}
	id, err := requireArg(req, "elementId")
	if err != nil {
		return nil, err
	}
	key, err := requireArg(req, "key")
	if err != nil {
		return nil, err
	}
	res, err := sess.HandleKey(id, editor.KeyEvent{
		Key:   editor.Key(key),
		Shift: req.GetBool("shift", false),
		Caret: caret(req, "caretX", "caretY"),
	})
	if err != nil {
		return nil, err
	}
	return jsonResult(viewOf(storyID, sess, res))
}

func (s *Server) handleSessionPicker(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	storyID, sess, err := s.openSession(ctx, req)
	if err != nil {
		return nil, err
	}
	action, err := requireArg(req, "action")
	if err != nil {
		return nil, err
	}

	var result any
	switch action {
	case "open":
		sess.OpenPicker(caret(req, "x", "y"), req.GetInt("index", len(sess.Elements())))
	case "search":
		sess.SearchPicker(req.GetString("query", ""))
	case "pick":
		entry, err := requireArg(req, "entry")
		if err != nil {
			return nil, err
		}
		if !sess.PickEntry(entry) {
			return nil, fmt.Errorf("entry %q is not offered by the picker", entry)
		}
		result = "picked " + entry
	case "click":
		if sess.ClickAt(caret(req, "x", "y")) {
			result = "dismissed"
		}
	case "dismiss":
		sess.DismissPicker()
	default:
		return nil, fmt.Errorf("unknown picker action %q", action)
	}
	return jsonResult(viewOf(storyID, sess, result))
}

func (s *Server) handleSessionDrag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	storyID, sess, err := s.openSession(ctx, req)
	if err != nil {
		return nil, err
	}
	dragged, err := requireArg(req, "draggedId")
	if err != nil {
		return nil, err
	}
	target, err := requireArg(req, "targetId")
	if err != nil {
		return nil, err
	}
	d := sess.Drag()
	d.Start(dragged)
	d.Over(target)
	moved := d.Drop(target)
	return jsonResult(viewOf(storyID, sess, map[string]bool{"moved": moved}))
}

func (s *Server) handleSessionAttachImage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	storyID, sess, err := s.openSession(ctx, req)
	if err != nil {
		return nil, err
	}
	id, err := requireArg(req, "elementId")
	if err != nil {
		return nil, err
	}
	path, err := requireArg(req, "path")
	if err != nil {
		return nil, err
	}
	select {
	case err := <-sess.AttachImage(ctx, id, path):
		if err != nil {
			return nil, fmt.Errorf("attach image: %w", err)
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return jsonResult(viewOf(storyID, sess, nil))
}

func (s *Server) handleFlushSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	storyID, sess, err := s.openSession(ctx, req)
	if err != nil {
		return nil, err
	}
	return jsonResult(viewOf(storyID, sess, map[string]bool{"committed": sess.Flush()}))
}

func (s *Server) handleCloseSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.resolveStory(ctx, req)
	if err != nil {
		return nil, err
	}
	sess, ok := s.sessions.remove(st.ID)
	if !ok {
		return textResult(fmt.Sprintf("No open session for %s", st.Slug)), nil
	}
	sess.Close()
	s.log.Info("session closed", zap.String("storyId", st.ID))
	return textResult(fmt.Sprintf("Closed session for %s", st.Slug)), nil
}

// Close commits and closes every open editing session.
func (s *Server) Close() {
	for _, sess := range s.sessions.drain() {
		sess.Close()
	}
}
