package main

import (
	"os"

	"github.com/idilsaglam/wishlist/internal/cli"
)

func main() {
	// Hand the arguments to the CLI runner; it maps errors to exit codes.
	os.Exit(cli.Run(os.Args[1:], cli.StdStreams()))
}
