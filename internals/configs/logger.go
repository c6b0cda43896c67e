package configs

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

// NewLogger: JSON di production, console berwarna saat APP_ENV=development.
func NewLogger() *zap.Logger {
	var cfg zap.Config
	if GetEnv("APP_ENV", "production") == "development" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// =======================
// GORM LOGGER CUSTOM
// =======================
type GormLogger struct {
	Log           *zap.Logger
	SlowThreshold time.Duration
	LogLevel      gormLogger.LogLevel
}

func NewGormLogger(l *zap.Logger) gormLogger.Interface {
	level := gormLogger.Warn
	if GetEnv("APP_ENV", "production") == "development" {
		level = gormLogger.Info
	}
	return &GormLogger{
		Log:           l.Named("gorm"),
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      level,
	}
}

func (l *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	nl := *l
	nl.LogLevel = level
	return &nl
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Info {
		l.Log.Sugar().Infof(msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Warn {
		l.Log.Sugar().Warnf(msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Error {
		l.Log.Sugar().Errorf(msg, data...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := []zap.Field{
		zap.String("file", utils.FileWithLineNum()),
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	}

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.LogLevel >= gormLogger.Error:
		l.Log.Error("[QUERY ERROR]", append(fields, zap.Error(err))...)
	case elapsed > l.SlowThreshold && l.LogLevel >= gormLogger.Warn:
		l.Log.Warn("[SLOW SQL]", fields...)
	case l.LogLevel >= gormLogger.Info:
		l.Log.Debug("[QUERY]", fields...)
	}
}
