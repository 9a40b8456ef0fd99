// Package diag wraps stdlib log.Logger the way the teacher's api/gui/service
// packages each keep their own prefixed, env-gated logger: silent by
// default, switched on via an environment variable for field debugging.
// Never imported by the vm package itself — only by the CLI and the
// optional debugtui/hypervisor collaborators around it.
package diag

import (
	"io"
	"log"
	"os"
)

// debugEnv is checked once at package init, mirroring ARM_EMULATOR_DEBUG in
// the teacher's api/gui/service packages.
const debugEnv = "X86EMU_DEBUG"

// New returns a logger prefixed with "name: ", writing to stderr when
// X86EMU_DEBUG is set in the environment and discarding everything
// otherwise. Each caller gets its own *log.Logger so prefixes don't
// collide, matching apiLog/debugLog/serviceLog being distinct loggers
// rather than one shared global.
func New(name string) *log.Logger {
	if os.Getenv(debugEnv) == "" {
		return log.New(io.Discard, "", 0)
	}
	return log.New(os.Stderr, name+": ", log.Ltime|log.Lmicroseconds)
}
