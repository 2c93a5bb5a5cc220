package main

import (
	"fmt"
	"os"

	"github.com/twinfer/structdoc/cmd/structdoc/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "structdoc: %v\n", err)
		os.Exit(1)
	}
}
