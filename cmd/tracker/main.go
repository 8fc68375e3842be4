package main

import (
	"fmt"
	"os"

	"board-tracker/internal/cli"
)

func main() {
	app := &cli.App{}
	if err := cli.NewRootCmd(app).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
