package log

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew_Level(t *testing.T) {
	l, err := New("warn")
	if err != nil {
		t.Fatal(err)
	}
	if l.Core().Enabled(zapcore.InfoLevel) {
		t.Fatal("info must be disabled at warn level")
	}
	if !l.Core().Enabled(zapcore.WarnLevel) {
		t.Fatal("warn must be enabled")
	}
}

func TestNew_BadLevelFallsBackToDebug(t *testing.T) {
	l := Must("nonsense")
	if !l.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("expected debug fallback")
	}
}

func TestHashedIdentity(t *testing.T) {
	a := HashedIdentity("a@x.com")
	b := HashedIdentity("a@x.com")
	if a.String != b.String || len(a.String) != 16 {
		t.Fatalf("unstable hash: %q %q", a.String, b.String)
	}
	if a.String == "a@x.com" {
		t.Fatal("identity leaked")
	}
	if HashedIdentity("").Type != zapcore.SkipType {
		t.Fatal("empty identity must be skipped")
	}
}
