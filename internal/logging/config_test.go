package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		" warn ":  zerolog.WarnLevel,
		"off":     zerolog.Disabled,
		"error":   zerolog.ErrorLevel,
		"warning": zerolog.WarnLevel,
	}
	for raw, want := range cases {
		got, ok := parseLevel(raw)
		if !ok || got != want {
			t.Fatalf("parseLevel(%q) = %v, %v; want %v", raw, got, ok, want)
		}
	}
	if _, ok := parseLevel("loud"); ok {
		t.Fatalf("expected unknown level to be rejected")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogTimestamp, "true")
	t.Setenv(EnvLogNoColor, "1")
	cfg := defaultConfig(ProfileTest)
	applyEnvOverrides(&cfg)
	if cfg.Level != zerolog.ErrorLevel || !cfg.Timestamp || !cfg.NoColor {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestApplyWritesComponentLogs(t *testing.T) {
	prevLogger := log.Logger
	prevLevel := zerolog.GlobalLevel()
	prevCodec := Codec()
	defer func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
		codec.Store(prevCodec)
	}()

	var buf bytes.Buffer
	Apply(Config{Level: zerolog.DebugLevel, NoColor: true, Out: &buf})
	logger := For("codec")
	logger.Debug().Int("fid", 22).Msg("entry downgraded")
	out := buf.String()
	if !strings.Contains(out, "entry downgraded") || !strings.Contains(out, "component=codec") {
		t.Fatalf("unexpected log output: %q", out)
	}
}

func TestCodecSilentUntilApplied(t *testing.T) {
	prevLogger := log.Logger
	prevLevel := zerolog.GlobalLevel()
	prevCodec := Codec()
	defer func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
		codec.Store(prevCodec)
	}()

	silenceCodec()
	if lvl := Codec().GetLevel(); lvl != zerolog.Disabled {
		t.Fatalf("expected disabled codec logger, got %s", lvl)
	}
	if Codec().Debug().Enabled() {
		t.Fatalf("expected debug events to be dropped before Apply")
	}

	var buf bytes.Buffer
	Apply(Config{Level: zerolog.DebugLevel, NoColor: true, Out: &buf})
	Codec().Debug().Str("pool", "int").Msg("stale handle")
	if !strings.Contains(buf.String(), "stale handle") {
		t.Fatalf("expected codec output after Apply, got %q", buf.String())
	}
}
