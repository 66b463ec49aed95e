package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestInit_WritesJSONWithService(t *testing.T) {
	Reset()
	defer Reset()

	var buf bytes.Buffer
	log := Init(Options{Level: "debug", Output: &buf})
	log.Debug().Str("k", "v").Msg("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid json %q: %v", buf.String(), err)
	}
	if entry["service"] != "identity-gateway" || entry["message"] != "hello" || entry["k"] != "v" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestInit_OnlyFirstCallApplies(t *testing.T) {
	Reset()
	defer Reset()

	var first, second bytes.Buffer
	Init(Options{Level: "error", Output: &first})
	log := Init(Options{Level: "debug", Output: &second})
	log.Error().Msg("boom")

	if first.Len() == 0 || second.Len() != 0 {
		t.Fatalf("expected output only on the first writer")
	}
}

func TestInit_LevelFilters(t *testing.T) {
	Reset()
	defer Reset()

	var buf bytes.Buffer
	log := Init(Options{Level: "warn", Output: &buf})
	log.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info entry should be filtered at warn level: %q", buf.String())
	}
}

func TestGet_PanicsBeforeInit(t *testing.T) {
	Reset()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	Get()
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		" warn ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
