package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rocketscienceinc/tictactoe-replay/internal/cli"
)

// main - is the entry point of the application. Each run restores the game from the move log,
// applies one command and exits.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(cli.ExitCommandError)
		}
	}()

	code := cli.Execute(context.Background(), os.Args[1:])
	os.Exit(code)
}
