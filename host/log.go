package host

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/tetratelabs/wazero/api"

	sdk "github.com/lattice-dev/lattice-module-sdk"
)

// guestLogMessage is the JSON payload a guest passes to lattice_log.
type guestLogMessage struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// registerEngineServices instantiates the "lattice_engine" host module that
// guests import for engine services. Currently that is a single function:
//
//	lattice_log(packed: u64)  // ptr+len of a JSON guestLogMessage
func (e *Executor) registerEngineServices(ctx context.Context) error {
	logger := e.logger
	_, err := e.runtime.NewHostModuleBuilder("lattice_engine").
		NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			ptr, length := unpackU64(stack[0])
			payload, ok := mod.Memory().Read(ptr, length)
			if !ok {
				logger.ErrorContext(ctx, "failed to read guest log message", "ptr", ptr, "len", length)
				return
			}

			var msg guestLogMessage
			if err := json.Unmarshal(payload, &msg); err != nil {
				logger.ErrorContext(ctx, "failed to unmarshal guest log message", "error", err)
				return
			}

			logger.LogAttrs(ctx, parseLogLevel(msg.Level), msg.Message, slog.String("module", mod.Name()))
		}), []api.ValueType{api.ValueTypeI64}, nil).
		Export("lattice_log").
		Instantiate(ctx)
	return err
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// EngineLog implements the EngineServices handle the engine passes to
// modules loaded in-process. Every message carries the module's name and
// load-session identifier.
type EngineLog struct {
	logger  *slog.Logger
	module  string
	session uuid.UUID
}

var _ sdk.EngineServices = (*EngineLog)(nil)

// NewEngineLog creates the services handle for one in-process module load.
func NewEngineLog(logger *slog.Logger, moduleName string) *EngineLog {
	if logger == nil {
		logger = slog.Default()
	}
	return &EngineLog{
		logger:  logger,
		module:  moduleName,
		session: uuid.New(),
	}
}

// Session returns the load-session identifier.
func (l *EngineLog) Session() uuid.UUID {
	return l.session
}

// LogInfo implements EngineServices.
func (l *EngineLog) LogInfo(msg string) {
	l.logger.Info(msg, "module", l.module, "session", l.session)
}

// LogError implements EngineServices.
func (l *EngineLog) LogError(msg string) {
	l.logger.Error(msg, "module", l.module, "session", l.session)
}
