package os

import (
	"os"
	"os/signal"
	"syscall"
)

// ExpectTermination returns a channel which fires once
// on the first interrupt or termination signal.
func ExpectTermination() <-chan os.Signal {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	return signals
}
