package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	root := newRootCommand()
	err := root.Execute()
	if err == nil {
		return
	}
	// Interrupted runs already journal their outcome; keep the exit quiet.
	if !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(1)
}
