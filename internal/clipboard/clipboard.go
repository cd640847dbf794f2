// Package clipboard writes to the system clipboard.
package clipboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

// ErrUnsupported is returned when no clipboard utility is available.
var ErrUnsupported = errors.New("clipboard is not available")

// System writes to the system clipboard through xclip, xsel, wl-copy,
// pbcopy or the Windows API, whichever atotto/clipboard finds.
type System struct {
	write       func(string) error
	unsupported bool
}

// New returns a System clipboard.
func New() *System {
	return &System{write: clipboard.WriteAll, unsupported: clipboard.Unsupported}
}

// WriteText copies text to the clipboard. The helper process is abandoned
// when ctx is cancelled first.
func (s *System) WriteText(ctx context.Context, text string) error {
	if s.unsupported {
		return ErrUnsupported
	}

	done := make(chan error, 1)
	go func() { done <- s.write(text) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("write clipboard: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
