// Package logging configures the process-wide zerolog logger used across
// graphd, including the non-standard "performance" level used for
// per-dependency-call duration logs (DS/KV/OS/EP/VX).
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// PerformanceLevel is a custom verbosity tier, below Debug, reserved for
// per-stage dependency timing (see Stage). It maps onto zerolog's Trace
// level since zerolog has no native "performance" tier.
const PerformanceLevel = zerolog.TraceLevel

// Init sets up the global zerolog logger from the LOG_LEVEL setting
// (debug, performance, info, warn, error). Unrecognized values fall back
// to info.
func Init(levelName string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level := parseLevel(levelName)
	zerolog.SetGlobalLevel(level)

	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	if os.Getenv("GRAPHD_LOG_FORMAT") == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(level)
		return
	}
	log.Logger = log.Output(writer).Level(level)
}

func parseLevel(name string) zerolog.Level {
	switch name {
	case "performance":
		return PerformanceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "info", "":
		return zerolog.InfoLevel
	default:
		return zerolog.InfoLevel
	}
}

// Stage logs a single dependency call's duration at PerformanceLevel.
// Call it from graph engine methods after each DS/KV/OS/EP/VX round trip.
func Stage(requestID, dependency, op string, start time.Time, err error) {
	evt := log.WithLevel(PerformanceLevel).
		Str("request_id", requestID).
		Str("dependency", dependency).
		Str("op", op).
		Dur("duration", time.Since(start))
	if err != nil {
		evt = evt.Err(err)
	}
	evt.Msg("dependency call")
}
