package kit

import "go.uber.org/zap"

const EnvDevelopment = "development"

// NewLogger builds the service logger. Development mode switches to zap's
// human readable console config with debug level.
func NewLogger(service, env string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if env == EnvDevelopment {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.InitialFields = map[string]any{"service": service}

	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}
