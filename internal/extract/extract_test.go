package extract

import (
	"context"
	"errors"
	"testing"
)

func TestTextRejectsNonPDF(t *testing.T) {
	_, err := Text(context.Background(), []byte("plain text"), "text/plain", "deck.txt")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestTextRejectsCorruptPDF(t *testing.T) {
	_, err := Text(context.Background(), []byte("%PDF-1.4 not really"), "application/pdf", "deck.pdf")
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}
}

func TestNormalizeMimeTypeByExtensionAndMagic(t *testing.T) {
	if got := normalizeMimeType("application/octet-stream", "deck.PDF", nil); got != mimePDF {
		t.Fatalf("extension fallback: got %q", got)
	}
	if got := normalizeMimeType("", "upload.bin", []byte("%PDF-1.7\n")); got != mimePDF {
		t.Fatalf("magic-bytes fallback: got %q", got)
	}
	if got := normalizeMimeType("application/pdf; charset=binary", "x", nil); got != mimePDF {
		t.Fatalf("parameterized mime: got %q", got)
	}
}

func TestStartupName(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		fileName string
		want     string
	}{
		{"first line", "Acme Robotics\nWe build robots", "deck.pdf", "Acme Robotics"},
		{"skips generic header", "Pitch Deck\nAcme Robotics", "acme_robotics-2026.pdf", "Acme Robotics 2026"},
		{"filename fallback", "", "stealth-ai_seed.pdf", "Stealth Ai Seed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StartupName(tc.text, tc.fileName); got != tc.want {
				t.Fatalf("StartupName: got %q want %q", got, tc.want)
			}
		})
	}
}
