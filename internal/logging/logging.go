// Package logging builds the zap logger used for diagnostics. Reports go to
// stdout; logs always go to the writer passed to New, normally stderr.
package logging

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLevel applies when no level is configured.
const DefaultLevel = zapcore.WarnLevel

// Options configures New.
type Options struct {
	Level   string // debug, info, warn, error; empty means DefaultLevel
	Verbose bool   // forces debug
	JSON    bool
}

// New creates a logger writing to w and returns it with its level handle.
func New(w io.Writer, opts Options) (*zap.Logger, zap.AtomicLevel, error) {
	level, err := ResolveLevel(opts)
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}

	var enc zapcore.Encoder
	if opts.JSON {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.CallerKey = ""
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.TimeKey = ""
		encCfg.CallerKey = ""
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), level)
	return zap.New(core), level, nil
}

// ResolveLevel parses the configured level.
func ResolveLevel(opts Options) (zap.AtomicLevel, error) {
	if opts.Verbose {
		return zap.NewAtomicLevelAt(zapcore.DebugLevel), nil
	}
	if strings.TrimSpace(opts.Level) == "" {
		return zap.NewAtomicLevelAt(DefaultLevel), nil
	}
	var parsed zapcore.Level
	if err := parsed.Set(strings.TrimSpace(opts.Level)); err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}
	return zap.NewAtomicLevelAt(parsed), nil
}
