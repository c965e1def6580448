package input

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestLineReader(t *testing.T) {
	r := NewReader(strings.NewReader("first\nsecond"))

	got, err := r.ReadString('\n')
	if err != nil || got != "first\n" {
		t.Fatalf("ReadString() = %q, %v", got, err)
	}
	got, err = r.ReadString('\n')
	if err != io.EOF || got != "second" {
		t.Fatalf("ReadString() = %q, %v; want trailing line and io.EOF", got, err)
	}
	if _, err := r.ReadString('\n'); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestNewStdinReader(t *testing.T) {
	if r := NewStdinReader(); r == nil || r.reader == nil {
		t.Fatal("expected a buffered stdin reader")
	}
}

type failingReader struct{}

func (failingReader) ReadString(delim byte) (string, error) {
	return "", errors.New("terminal closed")
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		name    string
		reader  Reader
		want    bool
		wantErr bool
	}{
		{"y", NewReader(strings.NewReader("y\n")), true, false},
		{"yes upper", NewReader(strings.NewReader("  YES\n")), true, false},
		{"yes without newline", NewReader(strings.NewReader("yes")), true, false},
		{"no", NewReader(strings.NewReader("n\n")), false, false},
		{"blank", NewReader(strings.NewReader("\n")), false, false},
		{"other word", NewReader(strings.NewReader("yep\n")), false, false},
		{"eof", NewReader(strings.NewReader("")), false, false},
		{"read error", failingReader{}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Confirm(tt.reader)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Confirm() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Confirm() = %v, want %v", got, tt.want)
			}
		})
	}
}
