package main

import (
	"os"

	"github.com/touchpi/sdimage/app"
)

func main() {
	os.Exit(app.Main(app.CommandAppendPartition, os.Args, os.Stderr))
}
