package main

import (
	"os"

	"github.com/dshills/promptscore/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
