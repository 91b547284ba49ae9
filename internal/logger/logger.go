package logger

import (
	"log"
	"os"

	"chainstate/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a zap logger writing to stderr. Stdout is reserved for command output
// such as the healthy endpoint list.
func NewLogger(cfg config.LoggerConfig, app config.AppConfig) *zap.Logger {
	return zap.New(
		NewCore(cfg, zapcore.Lock(os.Stderr)),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	).With(zap.String("app", app.Name), zap.String("version", app.Version))
}

// NewCore builds the encoder/level core for the given sink.
func NewCore(cfg config.LoggerConfig, sink zapcore.WriteSyncer) zapcore.Core {
	logLevel := zap.NewAtomicLevel()
	if err := logLevel.UnmarshalText([]byte(cfg.Level)); err != nil {
		logLevel.SetLevel(zap.InfoLevel)
		log.Printf("Warning: Failed to parse log level '%s', defaulting to 'info'. Error: %v\n", cfg.Level, err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if cfg.Encoding == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	return zapcore.NewCore(encoder, sink, logLevel)
}
