package main

import (
	"os"

	"github.com/babarot/rubbish/internal/cli"
)

var (
	Version   = "unset"
	Revision  = "unset"
	BuildDate = "unset"
)

func main() {
	os.Exit(cli.Run(cli.Version{
		AppName:   "rub",
		Version:   Version,
		Revision:  Revision,
		BuildDate: BuildDate,
	}))
}
