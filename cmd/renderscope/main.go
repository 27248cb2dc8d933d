package main

import (
	"os"

	"github.com/renderscope-dev/renderscope/cli"
)

func main() {
	os.Exit(cli.Execute())
}
