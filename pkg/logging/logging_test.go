package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewJSON(t *testing.T) {
	var text, js bytes.Buffer
	log := New(&text, &js, slog.LevelInfo, "json")
	log.Debug("hidden")
	log.Info("Payout requested", "property_id", "villa-1")

	if text.Len() != 0 {
		t.Errorf("text output written in json mode: %q", text.String())
	}
	var rec map[string]any
	if err := json.Unmarshal(js.Bytes(), &rec); err != nil {
		t.Fatalf("output is not a single JSON record: %v: %q", err, js.String())
	}
	if rec["msg"] != "Payout requested" || rec["property_id"] != "villa-1" {
		t.Errorf("record = %v", rec)
	}
}

func TestNewText(t *testing.T) {
	var text, js bytes.Buffer
	New(&text, &js, slog.LevelDebug, "text").Debug("Rate recorded", "to", "THB")
	if js.Len() != 0 || !strings.Contains(text.String(), "Rate recorded") {
		t.Errorf("text = %q json = %q", text.String(), js.String())
	}
}
