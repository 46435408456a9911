package main

import (
	"io"
	"os"

	"golang.org/x/term"

	"github.com/0xmhha/kaizen/pkg/bus"
)

// Ctrl-C arrives as a plain byte while the terminal is in raw mode.
const keyInterrupt = 0x03

// keyCommand maps a key press to the command it posts.
func keyCommand(key byte) (bus.Tag, bool) {
	switch key {
	case 't', 'T', ' ':
		return bus.TagToggle, true
	case 'r', 'R':
		return bus.TagReload, true
	case 's', 'S':
		return bus.TagStats, true
	case 'q', 'Q', keyInterrupt:
		return bus.TagQuit, true
	default:
		return "", false
	}
}

// readKeys posts one command per recognized key until r fails or a quit
// key is read.
func readKeys(r io.Reader, b *bus.Bus) {
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if err != nil {
			return
		}
		if n == 0 {
			continue
		}

		tag, ok := keyCommand(buf[0])
		if !ok {
			continue
		}
		if !b.Post(bus.Command(tag)) || tag == bus.TagQuit {
			return
		}
	}
}

// rawInput puts stdin into raw mode for single-key input.
//
// Returns a function restoring the previous terminal state.
func rawInput(in *os.File) (func(), error) {
	fd := int(in.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return func() {
		_ = term.Restore(fd, state)
	}, nil
}

// isTerminal reports whether v is a file attached to a terminal.
func isTerminal(v interface{}) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
