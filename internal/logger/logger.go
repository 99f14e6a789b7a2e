package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Init builds the global zap logger from environment variables and installs
// it via zap.ReplaceGlobals. LOG_LEVEL selects the minimum level (default
// info). When LOG_FILE is set, log output additionally goes to that file
// with rotation.
func Init() error {
	text := os.Getenv("LOG_LEVEL")
	if text == "" {
		text = "info"
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(text)); err != nil {
		return err
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewJSONEncoder(encoderConfig)

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), level)
	if file := os.Getenv("LOG_FILE"); file != "" {
		fileSink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   file,
			MaxSize:    100, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
		})
		core = zapcore.NewTee(core, zapcore.NewCore(encoder, fileSink, level))
	}

	zap.ReplaceGlobals(zap.New(core, zap.AddCaller()))
	return nil
}
