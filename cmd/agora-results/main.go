package main

import (
	"os"

	"github.com/villawad/agora-results/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
