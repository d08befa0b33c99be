package service

import (
	"os"

	"github.com/mattn/go-isatty"
)

// IsInteractiveEnvironment reports whether stderr is attached to a
// terminal. CI environments never count as interactive, regardless of
// how the pipeline wires its descriptors.
func IsInteractiveEnvironment() bool {
	if os.Getenv("CI") != "" {
		return false
	}
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
