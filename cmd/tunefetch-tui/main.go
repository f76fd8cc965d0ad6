package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Darthmonkey/tunefetcherai/internal/cli"
	"github.com/Darthmonkey/tunefetcherai/internal/tui"
)

func main() {
	var (
		configFlag = flag.String("config", "", "Path to config file")
		outputFlag = flag.String("output", ".", "Directory for finished archives")
	)
	flag.Parse()

	settings, err := cli.LoadSettings(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := tui.Run(tui.Options{Settings: settings, OutputDir: *outputFlag, BatchFile: flag.Arg(0)}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
