package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New monta o logger do serviço: console em "local", JSON nos demais ambientes
// level vazio mantém o nível padrão do ambiente (debug em local, info nos demais)
func New(serviceName, env, level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if env == "local" {
		cfg = zap.NewDevelopmentConfig()
	}

	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	// duração em ms facilita comparar latência de comandos
	cfg.EncoderConfig.EncodeDuration = zapcore.MillisDurationEncoder

	return cfg.Build(
		zap.Fields(
			zap.String("service", serviceName),
			zap.String("env", env),
		),
	)
}

// Session devolve um logger filho com o id da sessão (nunca loga o id completo)
func Session(log *zap.Logger, sessionID string) *zap.Logger {
	if len(sessionID) > 8 {
		sessionID = sessionID[:8]
	}
	return log.With(zap.String("session", sessionID))
}
