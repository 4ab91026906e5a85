// Package logger 基于 zap 构建结构化日志器。
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New 根据运行环境创建日志器
// prod 环境使用生产配置（JSON、采样），其他环境使用开发配置；
// 所有日志都会携带 service 与 version 字段
func New(env, level, encoding, service, version string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "prod" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	switch encoding {
	case "json", "console":
		cfg.Encoding = encoding
	case "":
	default:
		return nil, fmt.Errorf("unsupported log encoding %q", encoding)
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lg, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return lg.With(zap.String("service", service), zap.String("version", version)), nil
}
