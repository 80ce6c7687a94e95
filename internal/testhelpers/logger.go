package testhelpers

import "go.uber.org/zap"

// NewLogger returns a no-op sugared logger for tests.
func NewLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
