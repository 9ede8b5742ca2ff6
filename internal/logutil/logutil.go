package logutil

import (
	"fmt"
	"os"

	"github.com/yashagw/btrievedb/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewLogger builds the process logger described by cfg. The returned logger
// writes to a rotating file when cfg.Filename is set and to stderr otherwise.
func NewLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := getLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	encoder, err := getEncoder(cfg.Format)
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(encoder, getSyncer(cfg), level)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.FatalLevel)), nil
}

func getLevel(name string) (zap.AtomicLevel, error) {
	level, err := zap.ParseAtomicLevel(name)
	if err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

func getEncoder(format string) (zapcore.Encoder, error) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	switch format {
	case "", "console":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(encCfg), nil
	case "json":
		return zapcore.NewJSONEncoder(encCfg), nil
	}
	return nil, fmt.Errorf("unsupported log format %q", format)
}

func getSyncer(cfg config.LogConfig) zapcore.WriteSyncer {
	if cfg.Filename == "" {
		return zapcore.Lock(os.Stderr)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSize,
		MaxAge:     cfg.MaxDays,
		MaxBackups: cfg.MaxBackups,
		LocalTime:  true,
	})
}
