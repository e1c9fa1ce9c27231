package main

import (
	"os"

	"github.com/amirkhaki/schedstats/cmd/schedstats/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
