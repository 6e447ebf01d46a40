// Package main provides the entry point for the amansearch CLI.
package main

import (
	"fmt"
	"os"

	"github.com/Aman-CERP/amansearch/cmd/amansearch/cmd"
	amerrors "github.com/Aman-CERP/amansearch/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, amerrors.FormatForCLI(err))
		os.Exit(1)
	}
}
