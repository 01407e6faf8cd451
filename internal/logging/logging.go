// README: zap logger construction shared by the API entrypoint and tests.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production JSON logger at the given level.
// Unknown levels fall back to info.
func New(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(os.Stderr),
		lvl,
	)
	return zap.New(core, zap.AddCaller())
}

// NewNop returns a logger that discards everything. Handy default for tests
// and for services constructed without an explicit logger.
func NewNop() *zap.Logger {
	return zap.NewNop()
}
