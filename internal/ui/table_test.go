package ui

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestTable(t *testing.T) {
	os.Setenv("NO_COLOR", "1")
	defer os.Unsetenv("NO_COLOR")

	var buf bytes.Buffer
	err := Table(&buf, []string{"name", "algorithm"}, [][]string{
		{"report.pdf", "AES"},
		{"a.txt", "RC4"},
	})
	if err != nil {
		t.Fatalf("Table failed: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), buf.String())
	}
	if lines[0] != "NAME        ALGORITHM" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[2] != "a.txt       RC4" {
		t.Errorf("row = %q", lines[2])
	}
}
