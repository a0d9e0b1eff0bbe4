// cmd/pichat/main.go
package main

import (
	pichat "github.com/ghollingworth/pichat/internal/cli"
)

// Set by the linker.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	setVersionInfo = pichat.SetVersionInfo
	executeCmd     = pichat.Execute
)

// main records the build information and hands control to the cobra root
// command.
func main() {
	setVersionInfo(version, commit, date)
	executeCmd()
}
