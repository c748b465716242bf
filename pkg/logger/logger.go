package logger

import (
	"fmt"
	"gradebook_backend/internal/config"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log 在 InitLogger 之前是一个空实现，单元测试可以直接调用
var Log = zap.NewNop()

func InitLogger(cfg *config.Config) {
	l, err := Build(cfg.Log, cfg.Server.Mode)
	if err != nil {
		// 级别写错时仍然要有日志
		l, _ = Build(config.LogConfig{Console: true}, cfg.Server.Mode)
		l.Warn("Invalid log config, falling back to console", zap.Error(err))
	}
	Log = l
}

// Build 文件用 JSON 编码并按大小轮转，控制台用可读格式
func Build(lc config.LogConfig, mode string) (*zap.Logger, error) {
	level, err := resolveLevel(lc.Level, mode)
	if err != nil {
		return nil, err
	}

	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "time"
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	enc.EncodeDuration = zapcore.SecondsDurationEncoder

	var cores []zapcore.Core
	if lc.File != "" {
		rotate := &lumberjack.Logger{
			Filename:   lc.File,
			MaxSize:    lc.MaxSizeMB,
			MaxBackups: lc.MaxBackups,
			MaxAge:     lc.MaxAgeDays,
			Compress:   lc.Compress,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(rotate), level))
	}
	if lc.Console || len(cores) == 0 {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stdout), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel)), nil
}

func resolveLevel(name, mode string) (zapcore.Level, error) {
	if name == "" {
		if mode == "debug" {
			return zap.DebugLevel, nil
		}
		return zap.InfoLevel, nil
	}
	level, err := zapcore.ParseLevel(name)
	if err != nil {
		return level, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// Tenant 统一的租户字段
func Tenant(code string) zap.Field {
	return zap.String("tenant", code)
}
