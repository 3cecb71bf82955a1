package console

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

func noColor(t *testing.T) {
	t.Helper()
	old := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = old })
}

func TestFormat(t *testing.T) {
	noColor(t)

	var buf bytes.Buffer
	log := New(&buf, false, false)
	log.WithFields(logrus.Fields{"lang": "de", "file": "messages.de.xlf"}).Warn("merged with warnings")
	log.Error("boom")

	want := "[WARN] merged with warnings file=messages.de.xlf lang=de\n[ERROR] boom\n"
	if got := buf.String(); got != want {
		t.Fatalf("output = %q, want %q", got, want)
	}
}

func TestLevelGating(t *testing.T) {
	noColor(t)

	tests := []struct {
		name           string
		quiet, verbose bool
		want           string
	}{
		{"default", false, false, "[ERROR] e\n[WARN] w\n[INFO] i\n"},
		{"quiet", true, false, "[ERROR] e\n"},
		{"verbose", false, true, "[ERROR] e\n[WARN] w\n[INFO] i\n[DEBUG] d\n"},
		{"quiet wins", true, true, "[ERROR] e\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(&buf, tt.quiet, tt.verbose)
			log.Error("e")
			log.Warn("w")
			log.Info("i")
			log.Debug("d")
			if got := buf.String(); got != tt.want {
				t.Fatalf("output = %q, want %q", got, tt.want)
			}
		})
	}
}
