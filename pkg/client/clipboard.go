package client

import (
	"errors"
	"fmt"
	"io"

	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"
)

var ErrClipboardUnavailable = errors.New("no clipboard available")

type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard writes to the OS clipboard and, when that is missing or
// fails (ssh sessions, headless boxes), emits an OSC 52 sequence so the
// terminal copies the text instead.
type SystemClipboard struct {
	terminal io.Writer
	primary  func(string) error
}

// NewSystemClipboard returns a clipboard that falls back to OSC 52 on
// terminal. A nil terminal disables the fallback.
func NewSystemClipboard(terminal io.Writer) *SystemClipboard {
	sc := &SystemClipboard{terminal: terminal}
	if !clipboard.Unsupported {
		sc.primary = clipboard.WriteAll
	}
	return sc
}

func (s *SystemClipboard) WriteAll(text string) error {
	var primaryErr error
	if s.primary != nil {
		if primaryErr = s.primary(text); primaryErr == nil {
			return nil
		}
	}

	if s.terminal == nil {
		if primaryErr != nil {
			return fmt.Errorf("%w: %v", ErrClipboardUnavailable, primaryErr)
		}
		return ErrClipboardUnavailable
	}

	if _, err := osc52.New(text).WriteTo(s.terminal); err != nil {
		return fmt.Errorf("osc52 copy: %w", err)
	}
	return nil
}
