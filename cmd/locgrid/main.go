// Command locgrid checks and rewrites localization CSV files offline, using
// the same codec and key ordering as the editor.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
