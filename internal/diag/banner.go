package diag

import (
	"fmt"
	"io"

	"github.com/netwire-go/netwire/internal/config"
)

// WriteBanner prints a short startup banner naming the configured server
// identity and its buffer/thread tuning, the way an operator watching
// stdout during a cold start expects to see confirmation the right config
// was picked up.
func WriteBanner(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "netwire — %s\n", cfg.ServerName)
	fmt.Fprintf(w, "  keepAlive=%t keepAliveTimeoutSeconds=%d\n", cfg.KeepAlive, cfg.KeepAliveTimeoutSeconds)
	fmt.Fprintf(w, "  bufferPools=%d threadsNumber=%d\n", cfg.BufferPools, cfg.ThreadsNumber)
}
