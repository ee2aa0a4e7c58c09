package main

import (
	"fmt"
	"os"

	"jasmined/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cmd.ErrorText(err))
		os.Exit(1)
	}
}
