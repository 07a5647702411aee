package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/focusflow/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "focusflow: %v\n", err)
		os.Exit(1)
	}
}
