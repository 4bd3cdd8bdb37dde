// Command chemflow validates, evaluates and tests mass-flow flowsheets.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/chemflow/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
