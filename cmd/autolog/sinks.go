package main

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/wayneeseguin/autolog/pkg/backends"
	"github.com/wayneeseguin/autolog/pkg/formatters"
	"github.com/wayneeseguin/autolog/pkg/types"
)

const (
	sinkConsole = "console"
	sinkFile    = "file"
	sinkRolling = "rolling"
	sinkNATS    = "nats"
	sinkSyslog  = "syslog"
)

var sinkNames = []string{sinkConsole, sinkFile, sinkRolling, sinkNATS, sinkSyslog}

// asyncBufferSize bounds records queued for network sinks.
const asyncBufferSize = 4096

// buildSink creates the destination selected by --sink. Network sinks are
// wrapped in an Async buffer so a slow broker never blocks log calls.
func buildSink(opts *globalOptions) (types.Sink, error) {
	onError := func(err error) {
		log.Warn().Err(err).Str("sink", opts.sink).Msg("sink write failed")
	}

	switch strings.ToLower(opts.sink) {
	case sinkConsole, "":
		return backends.NewConsoleSink(os.Stdout, opts.noColor), nil

	case sinkFile:
		if opts.output == "" {
			return nil, fmt.Errorf("--output is required for the %s sink", sinkFile)
		}
		formatter, err := formatters.CreateFormatter(opts.format)
		if err != nil {
			return nil, err
		}
		fb, err := backends.NewFileBackend(opts.output)
		if err != nil {
			return nil, err
		}
		return backends.NewSink(fb, formatter, onError), nil

	case sinkRolling:
		if opts.output == "" {
			return nil, fmt.Errorf("--output is required for the %s sink", sinkRolling)
		}
		return backends.NewRollingZapSink(backends.RollingConfig{
			Filename:   opts.output,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		})

	case sinkNATS:
		if opts.output == "" {
			return nil, fmt.Errorf("--output must be a nats:// URI for the %s sink", sinkNATS)
		}
		formatter, err := formatters.CreateFormatter(opts.format)
		if err != nil {
			return nil, err
		}
		nb, err := backends.NewNATSBackend(opts.output)
		if err != nil {
			return nil, err
		}
		return async(backends.NewSink(nb, formatter, onError)), nil

	case sinkSyslog:
		formatter, err := formatters.CreateFormatter(opts.format)
		if err != nil {
			return nil, err
		}
		network := ""
		if opts.output != "" {
			network = "udp"
			if strings.HasPrefix(opts.output, "tcp://") {
				network = "tcp"
			}
		}
		address := strings.TrimPrefix(strings.TrimPrefix(opts.output, "tcp://"), "udp://")
		sb, err := backends.NewSyslogBackend(network, address, 14, "autolog")
		if err != nil {
			return nil, err
		}
		return async(backends.NewSink(sb, formatter, onError)), nil

	default:
		return nil, fmt.Errorf("unknown sink %q (want one of %s)", opts.sink, strings.Join(sinkNames, ", "))
	}
}

// async warns on the first dropped record only.
func async(next types.Sink) types.Sink {
	var warned atomic.Bool
	return backends.NewAsync(next, asyncBufferSize, func() {
		if warned.CompareAndSwap(false, true) {
			log.Warn().Int("buffer", asyncBufferSize).Msg("sink is dropping records (buffer full or sink failing)")
		}
	})
}
