package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the root logger. It is a no-op logger until Init is called.
var Log = zap.NewNop().Sugar()

// Config represents configuration options for logger initialization
type Config struct {
	Debug     bool   // Enable debug logging
	LogToFile bool   // Enable logging to a file
	LogsDir   string // Directory for log files, relative to the working directory
}

// Init builds the root logger with a colored console core and an optional JSON file core
func Init(config Config) error {
	encoderConfig := zapcore.EncoderConfig{
		MessageKey:     "message",
		LevelKey:       "level",
		TimeKey:        "timestamp",
		NameKey:        "logger",
		CallerKey:      "caller",
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     timeEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	level := zapcore.InfoLevel
	if config.Debug {
		level = zapcore.DebugLevel
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.Lock(os.Stdout), level),
	}

	if config.LogToFile {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		logsPath := filepath.Join(wd, config.LogsDir)
		if err := os.MkdirAll(logsPath, os.ModePerm); err != nil {
			return err
		}

		file, err := os.OpenFile(
			filepath.Join(logsPath, fmt.Sprintf("%s.log", time.Now().Format("2006-01-02"))),
			os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644,
		)
		if err != nil {
			return err
		}

		fileEncoderConfig := encoderConfig
		fileEncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoderConfig), zapcore.AddSync(file), level))
	}

	Log = zap.New(zapcore.NewTee(cores...), zap.AddCaller()).Named("main").Sugar()
	return nil
}

// Named returns a child of the root logger ("http", "worker", "payments", ...)
func Named(name string) *zap.SugaredLogger {
	return Log.Named(name)
}

// Sync flushes buffered entries
func Sync() {
	_ = Log.Sync()
}

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.UTC().Format("2006-01-02 15:04:05"))
}
