package instrumentation

import (
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.ServiceName != "dayglance" {
		t.Errorf("ServiceName = %q, want dayglance", cfg.ServiceName)
	}
	if !cfg.Enabled {
		t.Error("expected instrumentation enabled by default")
	}
	if cfg.MetricsExporter != ExporterPrometheus {
		t.Errorf("MetricsExporter = %q, want prometheus", cfg.MetricsExporter)
	}
	if cfg.TracingExporter != ExporterNone {
		t.Errorf("TracingExporter = %q, want none", cfg.TracingExporter)
	}
}

func TestDefaultConfigEnvOverrides(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "other-name")
	t.Setenv("METRICS_EXPORTER", "stdout")
	t.Setenv("INSTRUMENTATION_ENABLED", "false")

	cfg := DefaultConfig()

	if cfg.ServiceName != "other-name" {
		t.Errorf("ServiceName = %q, want other-name", cfg.ServiceName)
	}
	if cfg.MetricsExporter != ExporterStdout {
		t.Errorf("MetricsExporter = %q, want stdout", cfg.MetricsExporter)
	}
	if cfg.Enabled {
		t.Error("expected instrumentation disabled via env")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(_ *Config) {}, false},
		{"bad sampling rate", func(c *Config) { c.TraceSamplingRate = 1.5 }, true},
		{"negative sampling rate", func(c *Config) { c.TraceSamplingRate = -0.1 }, true},
		{"unknown metrics exporter", func(c *Config) { c.MetricsExporter = "statsd" }, true},
		{"unknown tracing exporter", func(c *Config) { c.TracingExporter = "jaeger" }, true},
		{"otlp metrics without endpoint", func(c *Config) { c.MetricsExporter = ExporterOTLP }, true},
		{"otlp tracing without endpoint", func(c *Config) { c.TracingExporter = ExporterOTLP }, true},
		{"otlp with endpoint", func(c *Config) {
			c.MetricsExporter = ExporterOTLP
			c.OTLPEndpoint = "localhost:4318"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
