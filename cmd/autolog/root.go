package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// Environment variables read as flag defaults.
const (
	envConfig = "AUTOLOG_CONFIG"
	envSink   = "AUTOLOG_SINK"
	envFormat = "AUTOLOG_FORMAT"
	envOutput = "AUTOLOG_OUTPUT"
	envLevel  = "AUTOLOG_LEVEL"
)

type globalOptions struct {
	configFile string
	sink       string
	format     string
	output     string
	level      string
	noColor    bool
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "autolog",
		Short:         "Inspect autolog configuration and follow it at runtime",
		SilenceUsage:  true,
		SilenceErrors: false,
		Version:       version,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", envOr(envConfig, ""), "configuration file (env "+envConfig+")")
	flags.StringVar(&opts.sink, "sink", envOr(envSink, sinkConsole),
		"record destination: "+strings.Join(sinkNames, ", ")+" (env "+envSink+")")
	flags.StringVar(&opts.format, "format", envOr(envFormat, "text"), "line format for file, nats and syslog sinks (env "+envFormat+")")
	flags.StringVarP(&opts.output, "output", "o", envOr(envOutput, ""),
		"sink target: file path, nats:// URI or syslog address (env "+envOutput+")")
	flags.StringVar(&opts.level, "level", envOr(envLevel, "info"), "initial log level (env "+envLevel+")")
	flags.BoolVar(&opts.noColor, "no-color", os.Getenv("NO_COLOR") != "", "disable console colors")

	root.AddCommand(
		newValidateCommand(opts),
		newPrintCommand(opts),
		newWatchCommand(opts),
		newDemoCommand(opts),
	)
	return root
}

// configArg picks the file from the first argument or --config.
func configArg(opts *globalOptions, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return opts.configFile
}
