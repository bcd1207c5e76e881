package app

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	osc52 "github.com/aymanbagabas/go-osc52/v2"
)

// Bridge moves a serialized store in and out of the application.
type Bridge interface {
	Import() ([]byte, error)
	Export(data []byte) error
}

var (
	clipboardReadAll  = clipboard.ReadAll
	clipboardWriteAll = clipboard.WriteAll
	writeOSC52        = writeOSC52Clipboard
)

// ClipboardBridge uses the system clipboard. Exports fall back to an OSC 52
// escape sequence when no clipboard helper is available, which terminals
// over SSH understand.
type ClipboardBridge struct{}

func (ClipboardBridge) Import() ([]byte, error) {
	s, err := clipboardReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading clipboard: %w", err)
	}
	if strings.TrimSpace(s) == "" {
		return nil, errors.New("clipboard is empty")
	}
	return []byte(s), nil
}

func (ClipboardBridge) Export(data []byte) error {
	err := clipboardWriteAll(string(data))
	if err == nil {
		return nil
	}
	if oscErr := writeOSC52(string(data)); oscErr != nil {
		return fmt.Errorf("system clipboard: %v; osc52: %w", err, oscErr)
	}
	return nil
}

func writeOSC52Clipboard(text string) error {
	term := strings.TrimSpace(os.Getenv("TERM"))
	if term == "" || strings.EqualFold(term, "dumb") {
		return errors.New("terminal does not support OSC 52")
	}
	tty, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("open /dev/tty: %w", err)
	}
	defer tty.Close()

	seq := osc52.New(text)
	switch {
	case os.Getenv("TMUX") != "":
		seq = seq.Tmux()
	case strings.HasPrefix(term, "screen"):
		seq = seq.Screen()
	}
	_, err = seq.WriteTo(tty)
	return err
}
