// zpctl is the operator CLI for a ZP cluster: table administration,
// partition reassignment, and topology/stat inspection.
package main

import (
	"fmt"
	"os"

	"github.com/ZeroCry/zeppelin-gateway/ctl"
)

func main() {
	rootCmd := ctl.NewRootCommand(os.Stdin, os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
