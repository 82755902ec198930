package app

import (
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	sderr "github.com/touchpi/sdimage/errors"
)

type Command string

const (
	CommandAppendPartition     Command = "append-partition"
	CommandResizeLastPartition Command = "resize-last-partition"

	LogLevelEnvVar  = "SDIMAGE_LOG_LEVEL"
	defaultLogLevel = "INFO"
)

type Options struct {
	LogLevel              string
	BootSectorBackupPath  string
	BootSectorRestorePath string

	ImagePath     string
	NewSize       string
	PartitionSize string
}

func ParseOptions(command Command, args []string) (Options, error) {
	var opts Options

	defaultLevel := os.Getenv(LogLevelEnvVar)
	if defaultLevel == "" {
		defaultLevel = defaultLogLevel
	}

	flagSet := flag.NewFlagSet(string(command), flag.ContinueOnError)
	flagSet.SetOutput(ioutil.Discard)
	flagSet.StringVar(&opts.LogLevel, "l", defaultLevel, "Set log level: DEBUG, INFO, WARN, ERROR or NONE")
	flagSet.StringVar(&opts.BootSectorBackupPath, "b", "", "Save the captured boot sector as JSON to this path")
	flagSet.StringVar(&opts.BootSectorRestorePath, "r", "", "Only write back the boot sector saved in this JSON backup")

	if len(args) > 0 {
		args = args[1:]
	}

	err := flagSet.Parse(args)
	if err != nil {
		return opts, sderr.Wrap(sderr.KindUsage, err, "Parsing options")
	}

	if opts.BootSectorBackupPath != "" && opts.BootSectorRestorePath != "" {
		return opts, sderr.New(sderr.KindUsage, "Options -b and -r cannot be combined")
	}

	positional := flagSet.Args()
	maxPositional := 2
	if command == CommandAppendPartition {
		maxPositional = 3
	}

	if len(positional) < 1 {
		return opts, sderr.New(sderr.KindUsage, "Missing image path")
	}

	if opts.BootSectorRestorePath != "" {
		maxPositional = 1
	}

	if len(positional) > maxPositional {
		return opts, sderr.Newf(sderr.KindUsage, "Unexpected arguments: %s", strings.Join(positional[maxPositional:], " "))
	}

	opts.ImagePath = positional[0]
	if len(positional) > 1 {
		opts.NewSize = positional[1]
	}

	if len(positional) > 2 {
		opts.PartitionSize = positional[2]
	}

	return opts, nil
}

func Usage(command Command) string {
	switch command {
	case CommandAppendPartition:
		return fmt.Sprintf(`This tool will extend a Raspbian image file with a partition

Usage:
	%s [-l level] [-b backup.json] <raspbian.img> [newsize|+extend_image_by_bytes] [new_partition_bytes]
`, command)
	default:
		return fmt.Sprintf(`This tool will extend the last partition in a Raspbian image file

Usage:
	%s [-l level] [-b backup.json] <raspbian.img> [newsize|+extend_image_by_bytes]
`, command)
	}
}
