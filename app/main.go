package app

import (
	"fmt"
	"io"

	"code.cloudfoundry.org/clock"
	boshlog "github.com/cloudfoundry/bosh-utils/logger"
	boshsys "github.com/cloudfoundry/bosh-utils/system"

	sderr "github.com/touchpi/sdimage/errors"
)

const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitImageNotFound = 2

	mainLogTag = "main"
)

func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	if sderr.Is(err, sderr.KindImageNotFound) {
		return ExitImageNotFound
	}

	return ExitFailure
}

// Main runs command with the process arguments args and returns the exit
// code. Logs and usage go to stderr.
func Main(command Command, args []string, stderr io.Writer) int {
	opts, err := ParseOptions(command, args)
	if err != nil {
		fmt.Fprintf(stderr, "%s\n\n%s", err.Error(), Usage(command))
		return ExitCode(err)
	}

	level, err := boshlog.Levelify(opts.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "Unknown log level `%s'\n\n%s", opts.LogLevel, Usage(command))
		return ExitFailure
	}

	logger := boshlog.NewWriterLogger(level, stderr)
	defer logger.HandlePanic("Main")

	logger.Debug(mainLogTag, "Starting %s on `%s'", command, opts.ImagePath)

	err = New(logger, boshsys.NewOsFileSystem(logger), clock.NewClock()).Run(command, opts)
	if err != nil {
		if sderr.Is(err, sderr.KindImageNotFound) {
			fmt.Fprintln(stderr, err.Error())
		} else {
			logger.Error(mainLogTag, "%s %s", command, err.Error())
		}
	}

	return ExitCode(err)
}
