//go:build unix

package cli

import (
	"os"
	"syscall"
)

func visibilitySignals() []os.Signal {
	return []os.Signal{syscall.SIGUSR1}
}
