package log

import (
	"crypto/sha256"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func New(levelEnv string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel) // default DEBUG

	if levelEnv != "" {
		if err := cfg.Level.UnmarshalText([]byte(levelEnv)); err != nil {
			fmt.Printf("bad LOG_LEVEL=%s, fallback to debug\n", levelEnv)
		}
	}
	return cfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
}

func Must(levelEnv string) *zap.Logger {
	l, err := New(levelEnv)
	if err != nil {
		panic(err)
	}
	return l
}

// HashedIdentity прячет логин/почту в логах, оставляя возможность
// сопоставить записи одного пользователя.
func HashedIdentity(s string) zap.Field {
	if s == "" {
		return zap.Skip()
	}
	return zap.String("identity", fmt.Sprintf("%x", sha256.Sum256([]byte(s)))[:16])
}
