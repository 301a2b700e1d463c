package main

import (
	"os"

	"github.com/reflexndn/rfwd/cmd"
)

func main() {
	if err := cmd.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
