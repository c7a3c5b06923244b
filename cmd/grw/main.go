package main

import (
	"os"

	"github.com/grovetools/grw/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
