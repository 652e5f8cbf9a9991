// Serialfwd is a command-line bridge between an automated caller and a
// physical serial device: it opens a port, optionally sends a payload,
// optionally waits for a reply, prints the result in a scriptable format,
// and appends everything to a shared transcript file.
package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes: configuration problems are distinguished from runtime
// failures so a calling agent can tell a bad invocation from a bad device.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if errors.Is(err, errBadInvocation) {
			os.Exit(exitConfig)
		}
		os.Exit(exitRuntime)
	}
	os.Exit(exitOK)
}
