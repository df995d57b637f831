package observability

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/NSchrading/air-qual-sensors/internal/ports"
)

// ZapObs implements ports.Observability on top of zap with two cores:
// console output at info and a log file at debug, mirroring the split the
// operators rely on when debugging sensor faults after the fact.
type ZapObs struct {
	logger *zap.Logger
}

// New opens (truncating) the given log file and builds the two-core logger.
// An empty path disables the file core.
func New(path string) (*ZapObs, error) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.Lock(os.Stderr),
			zapcore.InfoLevel,
		),
	}

	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encCfg),
			zapcore.Lock(f),
			zapcore.DebugLevel,
		))
	}

	return &ZapObs{logger: zap.New(zapcore.NewTee(cores...))}, nil
}

// FromLogger wraps an existing zap logger, useful in tests.
func FromLogger(l *zap.Logger) *ZapObs {
	return &ZapObs{logger: l}
}

func (z *ZapObs) LogDebug(msg string, fields ...ports.Field) {
	z.logger.Debug(msg, convert(fields)...)
}

func (z *ZapObs) LogInfo(msg string, fields ...ports.Field) {
	z.logger.Info(msg, convert(fields)...)
}

func (z *ZapObs) LogError(msg string, err error, fields ...ports.Field) {
	zf := convert(fields)
	if err != nil {
		zf = append(zf, zap.Error(err))
	}
	z.logger.Error(msg, zf...)
}

func (z *ZapObs) Component(name string) ports.Observability {
	return &ZapObs{logger: z.logger.Named(name)}
}

// Sync flushes buffered log entries. Called on shutdown.
func (z *ZapObs) Sync() error {
	return z.logger.Sync()
}

func convert(fields []ports.Field) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}

var _ ports.Observability = (*ZapObs)(nil)
