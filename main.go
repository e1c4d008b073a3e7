// singleinstance - keep one instance of a desktop application per user.
//
// The first launch claims a local socket and keeps running; later launches
// forward their arguments (for example a deep link opened from a browser)
// to it and exit.
package main

import (
	"errors"
	"os"

	"github.com/rescale/singleinstance/internal/cli"
	"github.com/rescale/singleinstance/internal/version"
)

func main() {
	cli.Version = version.Version
	cli.BuildTime = version.BuildTime

	if err := cli.Execute(); err != nil {
		if errors.Is(err, cli.ErrNotRunning) {
			os.Exit(3)
		}
		os.Exit(1)
	}
}
