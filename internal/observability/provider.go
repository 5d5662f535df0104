package observability

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/cory-johannsen/dogfight/internal/config"
)

// Provider owns the SDK meter provider and the sink it exports to.
type Provider struct {
	mp     *sdkmetric.MeterProvider
	closer io.Closer
	cfg    config.MetricsConfig
}

// NewProvider builds the SDK meter provider. When cfg.Enabled is set, a
// periodic reader exports every cfg.Interval to cfg.Output; otherwise
// instruments record into the provider and nothing leaves the process.
//
// Postcondition: Returns a Provider whose Shutdown must be called on exit,
// or a non-nil error.
func NewProvider(cfg config.MetricsConfig) (*Provider, error) {
	res := resource.NewSchemaless(attribute.String("service.name", ServiceName))
	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	p := &Provider{cfg: cfg}

	if cfg.Enabled {
		w, closer, err := openSink(cfg.Output)
		if err != nil {
			return nil, err
		}
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
		if err != nil {
			if closer != nil {
				_ = closer.Close()
			}
			return nil, fmt.Errorf("creating metric exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(cfg.Interval)),
		))
		p.closer = closer
	}

	p.mp = sdkmetric.NewMeterProvider(opts...)
	return p, nil
}

func openSink(output string) (io.Writer, io.Closer, error) {
	switch output {
	case "stdout":
		return os.Stdout, nil, nil
	case "stderr":
		return os.Stderr, nil, nil
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening metrics output %q: %w", output, err)
	}
	return f, f, nil
}

// MeterProvider returns the provider instruments are created from.
func (p *Provider) MeterProvider() metric.MeterProvider {
	return p.mp
}

// Enabled reports whether metrics are exported.
func (p *Provider) Enabled() bool {
	return p.cfg.Enabled
}

// Shutdown flushes pending data points and closes the output file, if any.
func (p *Provider) Shutdown(ctx context.Context) error {
	err := p.mp.Shutdown(ctx)
	if p.closer != nil {
		if cerr := p.closer.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err != nil {
		return fmt.Errorf("shutting down meter provider: %w", err)
	}
	return nil
}
