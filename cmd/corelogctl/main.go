// Command corelogctl drives a tail → decode → fixup pipeline from the
// command line: a thin main.go delegating to a spf13/cobra command tree
// under commands/.
package main

import (
	"fmt"
	"os"

	"github.com/nanolog/corelog/cmd/corelogctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
