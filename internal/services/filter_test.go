package services

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
)

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestRemoveFillers(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		language string
		want     string
	}{
		{
			name:     "hinglish lecture opener",
			input:    "umm so basically force equals mass times acceleration yaar",
			language: "hinglish",
			want:     "force equals mass times acceleration",
		},
		{
			name:     "phrase removed before its substring",
			input:    "ok guys today we study motion",
			language: "hinglish",
			want:     "today we study motion",
		},
		{
			name:     "english fillers",
			input:    "umm you know the derivative is basically the slope",
			language: "english",
			want:     "the derivative is the slope",
		},
		{
			name:     "unknown language falls back to hinglish",
			input:    "umm gravity pulls things down",
			language: "klingon",
			want:     "gravity pulls things down",
		},
		{
			name:     "case insensitive",
			input:    "UMM Newton was right",
			language: "hinglish",
			want:     "Newton was right",
		},
		{
			name:     "fillers only",
			input:    "umm uhh haan",
			language: "hinglish",
			want:     "",
		},
		{
			name:     "collapses leftover punctuation",
			input:    "speed, umm, is distance over time",
			language: "hinglish",
			want:     "speed, is distance over time",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RemoveFillers(tt.input, tt.language)
			if got != tt.want {
				t.Errorf("RemoveFillers(%q, %q) = %q, want %q", tt.input, tt.language, got, tt.want)
			}
		})
	}
}

func TestRemoveFillersIdempotent(t *testing.T) {
	input := "umm so basically force equals mass times acceleration yaar"
	once := RemoveFillers(input, "hinglish")
	twice := RemoveFillers(once, "hinglish")
	if once != twice {
		t.Errorf("second pass changed output: %q vs %q", once, twice)
	}
}

type fakeCleaner struct {
	result string
	err    error
	calls  int
}

func (f *fakeCleaner) Clean(ctx context.Context, text, language string) (string, error) {
	f.calls++
	return f.result, f.err
}

func TestFilterWithoutCleaner(t *testing.T) {
	f := NewContentFilter(nil, DefaultMinKeepRatio, testLog())
	got := f.Filter(context.Background(), "umm gravity is a force yaar", "hinglish")
	if got != "gravity is a force" {
		t.Errorf("got %q", got)
	}
}

func TestFilterUsesCleanerResult(t *testing.T) {
	cleaner := &fakeCleaner{result: "gravity is a fundamental force"}
	f := NewContentFilter(cleaner, DefaultMinKeepRatio, testLog())

	got := f.Filter(context.Background(), "umm gravity is a fundamental force yaar", "hinglish")
	if got != "gravity is a fundamental force" {
		t.Errorf("got %q", got)
	}
	if cleaner.calls != 1 {
		t.Errorf("cleaner called %d times, want 1", cleaner.calls)
	}
}

func TestFilterFallsBackOnCleanerError(t *testing.T) {
	cleaner := &fakeCleaner{err: fmt.Errorf("rate limited")}
	f := NewContentFilter(cleaner, DefaultMinKeepRatio, testLog())

	got := f.Filter(context.Background(), "umm gravity is a force yaar", "hinglish")
	if got != "gravity is a force" {
		t.Errorf("got %q, want deterministic result", got)
	}
}

func TestFilterRejectsOverAggressiveCleaning(t *testing.T) {
	// A result shorter than 30% of the deterministic pass is discarded
	cleaner := &fakeCleaner{result: "hi"}
	f := NewContentFilter(cleaner, DefaultMinKeepRatio, testLog())

	input := "the acceleration of an object depends on the net force acting upon it"
	got := f.Filter(context.Background(), input, "english")
	if got == "hi" {
		t.Error("over-aggressive AI result was kept")
	}
}

func TestFilterKeepsResultAboveThreshold(t *testing.T) {
	cleaner := &fakeCleaner{result: "acceleration depends on net force"}
	f := NewContentFilter(cleaner, DefaultMinKeepRatio, testLog())

	input := "the acceleration of an object depends on the net force"
	got := f.Filter(context.Background(), input, "english")
	if got != "acceleration depends on net force" {
		t.Errorf("got %q, want cleaner result", got)
	}
}

func TestNewContentFilterClampsRatio(t *testing.T) {
	for _, ratio := range []float64{-1, 0, 1, 2.5} {
		f := NewContentFilter(nil, ratio, testLog())
		if f.minKeepRatio != DefaultMinKeepRatio {
			t.Errorf("ratio %v: got %v, want default %v", ratio, f.minKeepRatio, DefaultMinKeepRatio)
		}
	}
}
