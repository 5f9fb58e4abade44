package textutil

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/plasma-umass/llm-utils/errors"
)

// MaxLineRunes bounds each line returned by ReadLines.
const MaxLineRunes = 128

// ReadLines returns lines start..end (1-indexed, inclusive) of the file at
// path, right-trimmed. Lines of MaxLineRunes runes or more are cut to
// MaxLineRunes runes plus "...". start is
// raised to 1 and end lowered to the line count; the effective start is
// returned with the lines.
func ReadLines(path string, start, end int) ([]string, int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, errors.NotFound("file", path).WithCause(err)
		}
		return nil, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	start = max(start, 1)
	lines, err := readRange(bufio.NewReader(f), start, end)
	if err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, start, nil
}

func readRange(r *bufio.Reader, start, end int) ([]string, error) {
	var out []string
	for n := 1; n <= end; n++ {
		line, err := r.ReadString('\n')
		if line == "" && err == io.EOF {
			break
		}
		if err != nil && err != io.EOF {
			return nil, err
		}
		if n >= start {
			out = append(out, truncate(strings.TrimRightFunc(line, unicode.IsSpace), MaxLineRunes))
		}
		if err == io.EOF {
			break
		}
	}
	return out, nil
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) < limit {
		return s
	}
	return string([]rune(s)[:limit]) + "..."
}

// NumberGroupOfLines prefixes each line with its number, right-aligned to
// the width of the last number. With strip, leading blank lines are dropped
// (advancing first) and trailing blank lines are dropped.
func NumberGroupOfLines(group []string, first int, strip bool) string {
	if strip {
		for len(group) > 0 && strings.TrimSpace(group[0]) == "" {
			group = group[1:]
			first++
		}
		for len(group) > 0 && strings.TrimSpace(group[len(group)-1]) == "" {
			group = group[:len(group)-1]
		}
	}
	if len(group) == 0 {
		return ""
	}

	w := len(strconv.Itoa(first + len(group) - 1))
	var b strings.Builder
	for i, line := range group {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%*d %s", w, first+i, line)
	}
	return b.String()
}
