package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func init() {
	// Disable color for tests
	color.NoColor = true
}

// capture redirects output into a buffer while f runs.
func capture(f func()) string {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(nil)
	f()
	return buf.String()
}

func TestJSON(t *testing.T) {
	data := map[string]interface{}{
		"domain": "example.test",
		"port":   8082,
	}

	out := capture(func() {
		_ = JSON(data)
	})

	var result map[string]interface{}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("JSON output is invalid: %v", err)
	}
	if result["domain"] != "example.test" || result["port"] != float64(8082) {
		t.Errorf("unexpected result %v", result)
	}
	if !strings.Contains(out, "\n  \"domain\"") {
		t.Error("JSON output should be indented")
	}
}

func TestTable(t *testing.T) {
	t.Run("basic table", func(t *testing.T) {
		out := capture(func() {
			Table([]string{"ID", "DOMAIN", "PORT"}, [][]string{
				{"1", "example.test", "8082"},
				{"2", "shop.example.test", "8083"},
			})
		})

		lines := strings.Split(strings.TrimSpace(out), "\n")
		if len(lines) != 4 {
			t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), out)
		}
		if lines[0] != "ID  DOMAIN             PORT" {
			t.Errorf("unexpected header %q", lines[0])
		}
		if !strings.HasPrefix(lines[1], "--  ") {
			t.Errorf("unexpected separator %q", lines[1])
		}
		if lines[3] != "2   shop.example.test  8083" {
			t.Errorf("unexpected row %q", lines[3])
		}
	})

	t.Run("empty headers", func(t *testing.T) {
		out := capture(func() {
			Table(nil, [][]string{{"data"}})
		})
		if out != "" {
			t.Errorf("expected no output for empty headers, got %s", out)
		}
	})

	t.Run("empty rows", func(t *testing.T) {
		out := capture(func() {
			Table([]string{"COL1", "COL2"}, nil)
		})
		lines := strings.Split(strings.TrimSpace(out), "\n")
		if len(lines) != 2 {
			t.Errorf("expected 2 lines (header + separator), got %d", len(lines))
		}
	})

	t.Run("uneven columns", func(t *testing.T) {
		out := capture(func() {
			Table([]string{"COL1", "COL2", "COL3"}, [][]string{
				{"a", "b"},
				{"x", "y", "z", "w"},
			})
		})
		if strings.Contains(out, "w") {
			t.Error("cells beyond the headers should be ignored")
		}
		if !strings.Contains(out, "z") {
			t.Error("output should contain value z")
		}
	})
}

func TestMessages(t *testing.T) {
	tests := []struct {
		name   string
		fn     func(string, ...interface{})
		symbol string
	}{
		{"success", Success, "✓ "},
		{"error", Error, "✗ "},
		{"warn", Warn, "! "},
		{"info", Info, "→ "},
		{"print", Print, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := capture(func() {
				tt.fn("Host %s created on port %d", "example.test", 8082)
			})
			want := tt.symbol + "Host example.test created on port 8082\n"
			if out != want {
				t.Errorf("got %q, want %q", out, want)
			}
		})
	}
}

func TestPrompt(t *testing.T) {
	out := capture(func() {
		Prompt("Remove %s? [y/N]: ", "example.test")
	})
	if out != "Remove example.test? [y/N]: " {
		t.Errorf("unexpected prompt %q", out)
	}
}
