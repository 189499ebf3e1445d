// Package logtail reads the last lines of the game server's log file.
package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

const (
	// DefaultLines is used when a caller does not ask for a specific count.
	DefaultLines = 50

	// MaxLines caps how many lines a single request may read.
	MaxLines = 500

	// maxLineSize bounds a single returned log line. Longer lines are cut at
	// this length and the remainder is skipped.
	maxLineSize = 1 << 20
)

// Clamp normalizes a requested line count into [1, MaxLines].
// Zero or negative values fall back to DefaultLines.
func Clamp(n int) int {
	switch {
	case n <= 0:
		return DefaultLines
	case n > MaxLines:
		return MaxLines
	default:
		return n
	}
}

// Tail returns up to n trailing lines of the file at path, oldest first.
// A missing file yields an empty result and no error.
func Tail(path string, n int) ([]string, error) {
	n = Clamp(n)

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	ring := make([]string, n)
	count := 0

	r := bufio.NewReaderSize(f, 64*1024)
	for {
		line, err := readLine(r)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read log file: %w", err)
		}
		ring[count%n] = line
		count++
	}

	if count <= n {
		return ring[:count], nil
	}

	out := make([]string, 0, n)
	start := count % n
	out = append(out, ring[start:]...)
	out = append(out, ring[:start]...)
	return out, nil
}

// readLine returns the next line without its terminator, truncated to
// maxLineSize. Invalid UTF-8 is replaced so a corrupt line cannot break the
// JSON response.
func readLine(r *bufio.Reader) (string, error) {
	var buf []byte
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) && len(buf) > 0 {
				break
			}
			return "", err
		}
		if room := maxLineSize - len(buf); room > 0 {
			buf = append(buf, chunk[:min(len(chunk), room)]...)
		}
		if !isPrefix {
			break
		}
	}
	line := strings.TrimRight(string(buf), "\r")
	return strings.ToValidUTF8(line, "\uFFFD"), nil
}
