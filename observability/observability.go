package observability

import (
	"context"
	"time"

	"github.com/marciopocebon/bolt-1/config"
	"github.com/marciopocebon/bolt-1/logger"
)

// Config drives tracer and meter initialization. Disabled is the
// default: the global OpenTelemetry providers then stay no-ops and
// instrumented code costs nothing.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Environment    string
	// Endpoint is the OTLP HTTP collector, host:port.
	Endpoint string
	Insecure bool
	// SampleRate is the trace sampling rate (0.0 to 1.0).
	SampleRate float64
	// Interval is the metric export interval.
	Interval time.Duration
}

// FromConfig reads the observability settings from the application
// configuration under general/observability.
func FromConfig(cfg *config.Config) Config {
	c := Config{
		Enabled:        cfg.GetBool("general/observability/enabled"),
		ServiceName:    cfg.GetString("general/observability/service_name"),
		ServiceVersion: cfg.GetString("general/observability/service_version"),
		Environment:    cfg.GetString("general/observability/environment"),
		Endpoint:       cfg.GetString("general/observability/endpoint"),
		Insecure:       true,
		SampleRate:     1.0,
		Interval:       15 * time.Second,
	}
	if c.ServiceName == "" {
		c.ServiceName = "bolt"
	}
	if c.ServiceVersion == "" {
		c.ServiceVersion = "1.0.0"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if cfg.IsSet("general/observability/sample_rate") {
		if rate := cfg.Get("general/observability/sample_rate"); rate != nil {
			if f, ok := rate.(float64); ok {
				c.SampleRate = f
			}
		}
	}
	if seconds := cfg.GetInt("general/observability/interval"); seconds > 0 {
		c.Interval = time.Duration(seconds) * time.Second
	}
	return c
}

// Init starts the tracer and meter providers when cfg.Enabled is true
// and returns a shutdown function flushing both. When disabled it
// returns a no-op shutdown and leaves the global providers alone.
func Init(ctx context.Context, cfg Config, log *logger.Logger) (func(context.Context) error, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	log = log.WithComponent("observability")

	if !cfg.Enabled {
		log.Debug("Observability disabled")
		return func(context.Context) error { return nil }, nil
	}

	tp, err := InitTracer(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	mp, err := InitMeter(ctx, cfg, log)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	return func(ctx context.Context) error {
		merr := mp.Shutdown(ctx)
		terr := tp.Shutdown(ctx)
		if merr != nil {
			return merr
		}
		return terr
	}, nil
}
