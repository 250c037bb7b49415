package main

import (
	"os"

	"github.com/casegen-io/casegen/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
