package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
)

// DefaultLimit is the number of lines the log viewer requests.
const DefaultLimit = 500

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines falls back to DefaultLimit. A missing file yields
// nil, nil.
func Read(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		maxLines = DefaultLimit
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	// One sequential pass over the file; only the newest maxLines lines
	// are retained.
	ring := make([]string, maxLines)
	total := 0
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		ring[total%maxLines] = scanner.Text()
		total++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	if total <= maxLines {
		return append([]string(nil), ring[:total]...), nil
	}
	lines := make([]string, maxLines)
	oldest := total % maxLines
	for i := range lines {
		lines[i] = ring[(oldest+i)%maxLines]
	}
	return lines, nil
}
