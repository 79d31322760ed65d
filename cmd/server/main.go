// Package main implements the linguist command: the HTTP API server for the
// mastery and spaced-repetition engine, plus database migration and
// vocabulary import tooling.
package main

import (
	"os"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
