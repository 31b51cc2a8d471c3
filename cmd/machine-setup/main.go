// Package main is the entry point for the machine-setup CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/danbriechle/One-Step-Machine-Setup/cmd/machine-setup/commands"
	setuperrors "github.com/danbriechle/One-Step-Machine-Setup/internal/errors"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)

		var exitErr *setuperrors.ExitError
		if errors.As(err, &exitErr) && exitErr.Suggestion != "" {
			fmt.Fprintln(os.Stderr, "Suggestion:", exitErr.Suggestion)
		}

		os.Exit(setuperrors.ExitCode(err))
	}
}
