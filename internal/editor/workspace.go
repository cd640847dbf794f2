// Package editor is a file-backed stand-in for a code editor: it holds the
// open file and selection, and maps code references to screen rectangles.
package editor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/colonyops/remarks/internal/remarks"
)

// ErrOutsideWorkspace is returned for paths that resolve outside the root.
var ErrOutsideWorkspace = errors.New("path is outside the workspace")

// Workspace serves files below a root directory. It is safe for concurrent
// use.
type Workspace struct {
	root string

	mu        sync.RWMutex
	current   *remarks.Module
	selection *remarks.Selection
	layout    Layout
}

// NewWorkspace creates a workspace rooted at dir.
func NewWorkspace(dir string) (*Workspace, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("open workspace: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace %s is not a directory", abs)
	}
	return &Workspace{root: abs}, nil
}

// Root returns the absolute workspace directory.
func (w *Workspace) Root() string {
	return w.root
}

// resolve turns a workspace-relative slash path into an absolute file path.
func (w *Workspace) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(path, "/")))
	abs := filepath.Join(w.root, clean)
	rel, err := filepath.Rel(w.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", path, ErrOutsideWorkspace)
	}
	return abs, nil
}

// Open reads a file and makes it the current module. The selection is
// cleared.
func (w *Workspace) Open(path string) error {
	abs, err := w.resolve(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	rel, _ := filepath.Rel(w.root, abs)
	mod := &remarks.Module{Path: filepath.ToSlash(rel), Code: string(data)}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.current = mod
	w.selection = nil
	w.layout.Scroll = 0
	return nil
}

// Reload re-reads the current module from disk. The selection is kept and
// clamped to the new content.
func (w *Workspace) Reload() error {
	mod, ok := w.CurrentModule()
	if !ok {
		return ErrNoModule
	}
	abs, err := w.resolve(mod.Path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("reload %s: %w", mod.Path, err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current == nil || w.current.Path != mod.Path {
		return nil
	}
	w.current = &remarks.Module{Path: mod.Path, Code: string(data)}
	if w.selection != nil {
		w.selection.Cursor = w.clampLocked(w.selection.Cursor)
		if w.selection.Range != nil {
			w.selection.Range.Anchor = w.clampLocked(w.selection.Range.Anchor)
			w.selection.Range.Head = w.clampLocked(w.selection.Range.Head)
		}
	}
	return nil
}

// AbsPath returns the absolute file path of a workspace path.
func (w *Workspace) AbsPath(path string) (string, error) {
	return w.resolve(path)
}

// SelectModule opens path unless it is already the current module.
func (w *Workspace) SelectModule(_ context.Context, path string) error {
	if mod, ok := w.CurrentModule(); ok && mod.Path == path {
		return nil
	}
	return w.Open(path)
}

// CurrentModule returns the open file.
func (w *Workspace) CurrentModule() (remarks.Module, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.current == nil {
		return remarks.Module{}, false
	}
	return *w.current, true
}

// CurrentSelection returns a copy of the selection, nil when there is none.
func (w *Workspace) CurrentSelection() *remarks.Selection {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.selection == nil {
		return nil
	}
	sel := *w.selection
	if sel.Range != nil {
		r := *sel.Range
		sel.Range = &r
	}
	return &sel
}

// SetCursor places a caret at a rune offset, dropping any range.
func (w *Workspace) SetCursor(offset int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.selection = &remarks.Selection{Cursor: w.clampLocked(offset)}
}

// SetSelection selects the runes between anchor and head. The cursor sits at
// head.
func (w *Workspace) SetSelection(anchor, head int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	anchor, head = w.clampLocked(anchor), w.clampLocked(head)
	w.selection = &remarks.Selection{
		Cursor: head,
		Range:  &remarks.TextRange{Anchor: anchor, Head: head},
	}
}

// ClearSelection removes the caret and range.
func (w *Workspace) ClearSelection() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.selection = nil
}

func (w *Workspace) clampLocked(offset int) int {
	if w.current == nil {
		return 0
	}
	return max(0, min(offset, len([]rune(w.current.Code))))
}

// Files lists workspace files matching a doublestar pattern, sorted.
// An empty pattern matches every file.
func (w *Workspace) Files(pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "**"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid pattern %q", pattern)
	}

	matches, err := doublestar.Glob(os.DirFS(w.root), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	slices.Sort(matches)
	return matches, nil
}

// MatchPath reports whether a workspace path matches a doublestar pattern.
// An empty pattern matches everything.
func MatchPath(pattern, path string) bool {
	if pattern == "" {
		return true
	}
	ok, err := doublestar.Match(pattern, path)
	return err == nil && ok
}
