package main

import (
	"fmt"
	"os"

	"github.com/SmooAI/deepmerge/cli"
)

func main() {
	cmd := cli.NewCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), err)
		os.Exit(1)
	}
}
