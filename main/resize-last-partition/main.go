package main

import (
	"os"

	"github.com/touchpi/sdimage/app"
)

func main() {
	os.Exit(app.Main(app.CommandResizeLastPartition, os.Args, os.Stderr))
}
