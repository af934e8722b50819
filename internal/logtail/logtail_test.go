package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeLogFixture(t *testing.T, lines int) (string, []string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kiosk.log")

	var content strings.Builder
	var all []string
	for i := 1; i <= lines; i++ {
		line := fmt.Sprintf("line %d", i)
		content.WriteString(line + "\n")
		all = append(all, line)
	}
	if err := os.WriteFile(path, []byte(content.String()), 0o644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}
	return path, all
}

func TestRead(t *testing.T) {
	path, all := writeLogFixture(t, 10)

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{
			name:     "zero limit falls back to the default",
			maxLines: 0,
			expected: all,
		},
		{
			name:     "negative limit falls back to the default",
			maxLines: -1,
			expected: all,
		},
		{
			name:     "partial read keeps the newest lines",
			maxLines: 5,
			expected: all[5:],
		},
		{
			name:     "exact limit reads everything",
			maxLines: 10,
			expected: all,
		},
		{
			name:     "limit beyond file reads everything",
			maxLines: 20,
			expected: all,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(path, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if len(got) == 0 && len(tt.expected) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFileIsNotAnError(t *testing.T) {
	lines, err := Read(filepath.Join(t.TempDir(), "absent.log"), 100)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if lines != nil {
		t.Errorf("Read() = %v, want nil for a missing file", lines)
	}
}

func TestRead_EmptyFile(t *testing.T) {
	path, _ := writeLogFixture(t, 0)
	lines, err := Read(path, 100)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("Read() = %v, want no lines", lines)
	}
}

func TestRead_DefaultLimitAppliesToLargeFiles(t *testing.T) {
	path, all := writeLogFixture(t, DefaultLimit+10)
	lines, err := Read(path, 0)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(lines) != DefaultLimit {
		t.Fatalf("Read() returned %d lines, want %d", len(lines), DefaultLimit)
	}
	if !reflect.DeepEqual(lines, all[10:]) {
		t.Errorf("Read() kept the wrong window: first = %q, want %q", lines[0], all[10])
	}
}

func TestRead_RingWrapKeepsChronologicalOrder(t *testing.T) {
	path, all := writeLogFixture(t, 250)
	lines, err := Read(path, 7)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !reflect.DeepEqual(lines, all[243:]) {
		t.Errorf("Read() = %v, want %v", lines, all[243:])
	}
}
