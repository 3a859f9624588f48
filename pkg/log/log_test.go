package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestToLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"", zerolog.InfoLevel, false},
		{"info", zerolog.InfoLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"verbose", zerolog.NoLevel, true},
	}
	for _, tt := range tests {
		got, err := ToLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ToLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ToLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := ToLevel("verbose"); err == nil || !strings.Contains(err.Error(), "verbose") {
		t.Errorf("ToLevel(verbose) error = %v, want the offending level named", err)
	}
}

func TestStageScopesLogger(t *testing.T) {
	var buf bytes.Buffer
	root, err := Setup(&buf, "info", false)
	if err != nil {
		t.Fatalf("Setup() error: %v", err)
	}

	stage := Stage(root, "split")
	stage.Info().Int("train", 75).Msg("split planned")

	out := buf.String()
	if !strings.Contains(out, `"stage":"split"`) {
		t.Errorf("output %q missing stage field", out)
	}
	if !strings.Contains(out, `"train":75`) {
		t.Errorf("output %q missing event field", out)
	}
}

func TestSetupRejectsBadLevel(t *testing.T) {
	if _, err := Setup(&bytes.Buffer{}, "loud", false); err == nil {
		t.Error("Setup should reject an unknown level")
	}
}
