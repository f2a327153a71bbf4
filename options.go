package sigil

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/NOMARJ/sigil/config"
	"github.com/NOMARJ/sigil/signature"
)

// Option configures the Auditor.
type Option func(*auditorConfig)

// auditorConfig holds configuration for the Auditor instance.
type auditorConfig struct {
	configPath string
	cfg        *config.Config
	home       string
	registry   *signature.Registry
	logger     *slog.Logger
	tracer     trace.Tracer
}

// WithConfig sets the configuration file path for the auditor.
// The file is parsed as sigil.yaml; an absent file yields defaults.
func WithConfig(path string) Option {
	return func(c *auditorConfig) {
		c.configPath = path
	}
}

// WithConfigValue sets an already-parsed configuration, bypassing file
// loading. Takes precedence over WithConfig.
func WithConfigValue(cfg *config.Config) Option {
	return func(c *auditorConfig) {
		c.cfg = cfg
	}
}

// WithHome overrides the home directory holding the cache, quarantine
// ledger, and signatures, regardless of what the configuration says.
func WithHome(dir string) Option {
	return func(c *auditorConfig) {
		c.home = dir
	}
}

// WithRegistry sets a custom signature registry. If not provided, the
// built-in rules merged with any configured cloud signatures are used.
func WithRegistry(registry *signature.Registry) Option {
	return func(c *auditorConfig) {
		c.registry = registry
	}
}

// WithLogger sets a custom logger for the auditor.
// If not provided, a default logger will be created.
func WithLogger(logger *slog.Logger) Option {
	return func(c *auditorConfig) {
		c.logger = logger
	}
}

// WithTracer sets an OpenTelemetry tracer for distributed tracing.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *auditorConfig) {
		c.tracer = tracer
	}
}
