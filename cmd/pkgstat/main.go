// Command pkgstat reports the packages owning the most files in a Debian
// Contents index.
package main

import (
	"fmt"
	"os"

	"github.com/pkgstat/pkgstat/internal/cli"
)

func main() {
	if err := cli.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
