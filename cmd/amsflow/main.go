package main

import (
	"os"

	"github.com/ams-hpc/amsflow/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
