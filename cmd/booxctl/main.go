// Command booxctl resolves scheme-of-work topics against curriculum modules
// and manages the module database.
package main

import (
	"fmt"
	"os"

	"github.com/spinkonweb-dotcom/booxclash-pro/cmd/booxctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
