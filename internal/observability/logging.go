// Package observability provides logging and metrics for the relay server.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/dogfight/internal/config"
)

// ServiceName tags every log line and names the metrics resource.
const ServiceName = "dogfight-relay"

// Loggers hands out named component loggers that share one sink. Each
// component may run at its own level; components without an override use
// the configured root level.
type Loggers struct {
	base       *zap.Logger
	level      zapcore.Level
	components map[string]zapcore.Level
}

// NewLoggers builds the shared sink from the logging configuration.
//
// Precondition: cfg.Level and every cfg.Components value must be one of
// "debug", "info", "warn", "error"; cfg.Format must be "json" or "console".
// Postcondition: Returns a Loggers or a non-nil error.
func NewLoggers(cfg config.LoggingConfig) (*Loggers, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	floor := level
	components := make(map[string]zapcore.Level, len(cfg.Components))
	for name, raw := range cfg.Components {
		l, err := zapcore.ParseLevel(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing log level %q for %s: %w", raw, name, err)
		}
		components[name] = l
		if l < floor {
			floor = l
		}
	}

	var zapCfg zap.Config
	switch cfg.Format {
	case "json":
		zapCfg = zap.NewProductionConfig()
		zapCfg.InitialFields = map[string]interface{}{"service": ServiceName}
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.DisableStacktrace = true
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	// The sink admits the most verbose level any component asks for; each
	// logger then raises its own floor.
	zapCfg.Level = zap.NewAtomicLevelAt(floor)
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	base, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return &Loggers{base: base, level: level, components: components}, nil
}

// Root returns the unnamed logger at the root level.
func (l *Loggers) Root() *zap.Logger {
	return l.base.WithOptions(zap.IncreaseLevel(l.level))
}

// For returns the logger for component, named after it and filtered at its
// override level, or the root level when it has none.
func (l *Loggers) For(component string) *zap.Logger {
	level, ok := l.components[component]
	if !ok {
		level = l.level
	}
	return l.base.Named(component).WithOptions(zap.IncreaseLevel(level))
}

// Sync flushes the shared sink.
func (l *Loggers) Sync() error {
	return l.base.Sync()
}
