// Command stepviz plays step-by-step algorithm animations.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/stepviz/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
