package telemetry

import (
	"context"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestInitTracer(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{
			name: "api service",
			opts: Options{ServiceName: "ticvision-api", ServiceVersion: "dev", Endpoint: "localhost:4318", Insecure: true, SampleRatio: 1},
		},
		{
			name: "worker with partial sampling",
			opts: Options{ServiceName: "ticvision-worker", Endpoint: "localhost:4318", SampleRatio: 0.25},
		},
		{
			name: "empty service name",
			opts: Options{Endpoint: "localhost:4318", Insecure: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			tp, err := InitTracer(ctx, tt.opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("InitTracer() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if tp != nil {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if err := Shutdown(shutdownCtx, tp); err != nil {
					t.Errorf("Shutdown() error = %v", err)
				}
			}
		})
	}
}

func TestSampler(t *testing.T) {
	t.Parallel()

	traceID := trace.TraceID{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

	tests := []struct {
		name  string
		ratio float64
		want  sdktrace.SamplingDecision
	}{
		{name: "always", ratio: 1, want: sdktrace.RecordAndSample},
		{name: "above one clamps", ratio: 3, want: sdktrace.RecordAndSample},
		{name: "never", ratio: 0, want: sdktrace.Drop},
		{name: "negative clamps", ratio: -1, want: sdktrace.Drop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := Sampler(tt.ratio).ShouldSample(sdktrace.SamplingParameters{
				ParentContext: context.Background(),
				TraceID:       traceID,
				Name:          "root",
			})
			if res.Decision != tt.want {
				t.Errorf("Sampler(%v) decision = %v, want %v", tt.ratio, res.Decision, tt.want)
			}
		})
	}
}

func TestShutdown(t *testing.T) {
	t.Run("shutdown with nil provider", func(t *testing.T) {
		if err := Shutdown(context.Background(), nil); err != nil {
			t.Errorf("Shutdown() with nil provider should not error, got: %v", err)
		}
	})

	t.Run("shutdown with valid provider", func(t *testing.T) {
		tp, err := InitTracer(context.Background(), Options{ServiceName: "ticvision-api", Endpoint: "localhost:4318", Insecure: true, SampleRatio: 1})
		if err != nil {
			t.Fatalf("Failed to initialize tracer: %v", err)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := Shutdown(shutdownCtx, tp); err != nil {
			t.Errorf("Shutdown() error = %v", err)
		}
	})
}
