package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestModuleAttribute(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, zerolog.InfoLevel).Module("access")
	l.Info().Str("op", "grant").Msg("role granted")

	out := buf.String()
	if !strings.Contains(out, `"module":"access"`) {
		t.Fatalf("missing module attribute: %s", out)
	}
	if !strings.Contains(out, `"op":"grant"`) {
		t.Fatalf("missing event field: %s", out)
	}
}

func TestLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, zerolog.WarnLevel)
	l.Info().Msg("dropped")
	l.Warn().Msg("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("info event leaked through warn filter: %s", out)
	}
	if !strings.Contains(out, "kept") {
		t.Fatalf("warn event missing: %s", out)
	}
}

func TestNopDiscards(t *testing.T) {
	// Must not panic and must produce nothing observable.
	l := Nop().Module("ledger").With("db", "memory")
	l.Error().Msg("ignored")
}
