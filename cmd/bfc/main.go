// Command bfc compiles, runs and records programs for the eight-operator
// tape language.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/tebeka/atexit"

	"github.com/roach88/bfc/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		// Commands report through their formatter; anything else (flag
		// parsing, unknown commands) is printed here.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) || exitErr.Code == cli.ExitCommandError {
			fmt.Fprintln(os.Stderr, "bfc:", err)
		}
	}
	// Runs registered cleanup (open databases) before exiting.
	atexit.Exit(cli.GetExitCode(err))
}
