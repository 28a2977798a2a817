package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	Log   *zap.Logger
	Sugar *zap.SugaredLogger
)

// Packages log through the globals before main calls Init, notably in tests,
// so default to a no-op logger.
func init() {
	Log = zap.NewNop()
	Sugar = Log.Sugar()
}

// Init initializes the global logger configuration.
// level is one of debug/info/warn/error; anything else falls back to info.
func Init(level string) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	// Custom JSON config
	encoder := zapcore.NewJSONEncoder(encoderConfig)
	writer := zapcore.AddSync(os.Stdout)

	core := zapcore.NewCore(encoder, writer, parseLevel(level))

	Log = zap.New(core, zap.AddCaller())
	Sugar = Log.Sugar()
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
