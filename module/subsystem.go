package module

import (
	"log/slog"

	sdk "github.com/lattice-dev/lattice-module-sdk"
	"github.com/lattice-dev/lattice-module-sdk/capability"
)

// DefaultSubsystemVersion is the version key a freshly scaffolded module
// answers. Real modules add recipes for newer minor versions alongside it.
const DefaultSubsystemVersion uint32 = 0

// defaultSubsystem is the scaffold's sample capability: combine two
// numbers, announce a message through the engine log. It allocates nothing,
// so Close has nothing to release.
type defaultSubsystem struct {
	services sdk.EngineServices
}

var _ capability.Subsystem = (*defaultSubsystem)(nil)

func newDefaultSubsystem(services sdk.EngineServices) *defaultSubsystem {
	return &defaultSubsystem{services: services}
}

func (s *defaultSubsystem) Combine(a, b int64) int64 {
	return a + b
}

func (s *defaultSubsystem) Announce(msg string) {
	s.services.LogInfo(msg)
}

func (s *defaultSubsystem) Close() error {
	return nil
}

// logServices is the fallback EngineServices used when a module runs
// without an engine-supplied handle, e.g. in tests.
type logServices struct {
	logger *slog.Logger
}

func newLogServices(logger *slog.Logger) *logServices {
	if logger == nil {
		logger = slog.Default()
	}
	return &logServices{logger: logger}
}

func (l *logServices) LogInfo(msg string) {
	l.logger.Info(msg)
}

func (l *logServices) LogError(msg string) {
	l.logger.Error(msg)
}
