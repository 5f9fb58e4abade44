package textutil

import (
	"strings"
	"unicode"
)

// DefaultWrapWidth is the terminal width used by WordWrapExceptCodeBlocks callers.
const DefaultWrapWidth = 80

const tabSize = 8

// WordWrapExceptCodeBlocks wraps prose paragraphs to width while leaving
// fenced code blocks untouched. Lines starting with ``` open and close a
// block; the fence lines belong to it. Runs of empty lines outside code
// collapse into one paragraph break, and every prose line is filled on its
// own. Lines are joined with "\n" and blocks with "\n\n".
func WordWrapExceptCodeBlocks(text string, width int) string {
	type block struct {
		lines []string
		code  bool
	}

	var raw []block
	var cur []string
	inCode := false
	for _, line := range strings.Split(text, "\n") {
		if !strings.HasPrefix(line, "```") {
			cur = append(cur, line)
			continue
		}
		if inCode {
			cur = append(cur, line)
			raw = append(raw, block{lines: cur, code: true})
			cur = nil
		} else {
			raw = append(raw, block{lines: cur})
			cur = []string{line}
		}
		inCode = !inCode
	}
	raw = append(raw, block{lines: cur, code: inCode})

	var blocks []block
	for _, b := range raw {
		if b.code {
			blocks = append(blocks, b)
			continue
		}
		var para []string
		for _, line := range b.lines {
			if line != "" {
				para = append(para, Fill(line, width))
				continue
			}
			if len(para) > 0 {
				blocks = append(blocks, block{lines: para})
				para = nil
			}
		}
		if len(para) > 0 {
			blocks = append(blocks, block{lines: para})
		}
	}

	out := make([]string, len(blocks))
	for i, b := range blocks {
		out[i] = strings.Join(b.lines, "\n")
	}
	return strings.Join(out, "\n\n")
}

// Fill wraps a single paragraph to width and joins the lines with "\n".
// Wrapping is greedy. Tabs expand to 8 columns and other whitespace becomes
// a space.
// Whitespace is dropped at line boundaries except leading whitespace on
// the first line. Words may break after hyphens, and words longer than the
// width are split to fill the line. Widths below 1 are treated as 1.
func Fill(text string, width int) string {
	return strings.Join(Wrap(text, width), "\n")
}

// Wrap is Fill without the final join.
func Wrap(text string, width int) []string {
	width = max(width, 1)
	chunks := splitChunks([]rune(mungeWhitespace(text)))
	return wrapChunks(chunks, width)
}

// mungeWhitespace expands tabs and maps the remaining ASCII whitespace to spaces.
func mungeWhitespace(text string) string {
	var b strings.Builder
	col := 0
	for _, r := range text {
		switch r {
		case '\t':
			n := tabSize - col%tabSize
			b.WriteString(strings.Repeat(" ", n))
			col += n
		case '\n', '\r':
			b.WriteByte(' ')
			col = 0
		case '\v', '\f':
			b.WriteByte(' ')
			col++
		default:
			b.WriteRune(r)
			col++
		}
	}
	return b.String()
}

func isWordChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsNumber(r)
}

func isLetter(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isWordPunct(r rune) bool {
	return isWordChar(r) || strings.ContainsRune(`!"'&.,?`, r)
}

// splitChunks splits text into space runs and words, breaking words after
// hyphens between letters ("long-winded" -> "long-", "winded") and around
// em-dash runs ("this--that" -> "this", "--", "that").
func splitChunks(text []rune) [][]rune {
	at := func(i int) rune {
		if i < 0 || i >= len(text) {
			return 0
		}
		return text[i]
	}
	dashRun := func(i int) int {
		n := 0
		for at(i+n) == '-' {
			n++
		}
		return n
	}
	emDashAt := func(i int) bool {
		n := dashRun(i)
		return n >= 2 && isWordPunct(at(i-1)) && i+n < len(text) && isWordChar(at(i+n))
	}

	var chunks [][]rune
	for i := 0; i < len(text); {
		start := i
		switch {
		case text[i] == ' ':
			for i < len(text) && text[i] == ' ' {
				i++
			}
		case i > 0 && emDashAt(i):
			i += dashRun(i)
		default:
			i = wordEnd(text, i, at, emDashAt)
		}
		chunks = append(chunks, text[start:i])
	}
	return chunks
}

// wordEnd returns the end of the shortest word chunk starting at start.
func wordEnd(text []rune, start int, at func(int) rune, emDashAt func(int) bool) int {
	for p := start + 1; ; p++ {
		if at(p) == '-' {
			behind := (isLetter(at(p-2)) && isLetter(at(p-1))) ||
				(isLetter(at(p-3)) && at(p-2) == '-' && isLetter(at(p-1)))
			ahead := isLetter(at(p+1)) && (isLetter(at(p+2)) || (at(p+2) == '-' && isLetter(at(p+3))))
			if behind && ahead {
				return p + 1
			}
		}
		if p >= len(text) || text[p] == ' ' {
			return p
		}
		if isWordPunct(at(p-1)) && emDashAt(p) {
			return p
		}
	}
}

func isBlank(chunk []rune) bool {
	return strings.TrimSpace(string(chunk)) == ""
}

func wrapChunks(chunks [][]rune, width int) []string {
	// Consume from the end of a reversed slice, as a stack.
	stack := make([][]rune, len(chunks))
	for i, c := range chunks {
		stack[len(chunks)-1-i] = c
	}

	var lines []string
	for len(stack) > 0 {
		var line [][]rune
		lineLen := 0

		if len(lines) > 0 && isBlank(stack[len(stack)-1]) {
			stack = stack[:len(stack)-1]
		}

		for len(stack) > 0 {
			n := len(stack[len(stack)-1])
			if lineLen+n > width {
				break
			}
			line = append(line, stack[len(stack)-1])
			stack = stack[:len(stack)-1]
			lineLen += n
		}

		if len(stack) > 0 && len(stack[len(stack)-1]) > width {
			line = breakLongWord(stack, line, lineLen, width)
		}

		if len(line) > 0 && isBlank(line[len(line)-1]) {
			line = line[:len(line)-1]
		}
		if len(line) > 0 {
			var b strings.Builder
			for _, c := range line {
				b.WriteString(string(c))
			}
			lines = append(lines, b.String())
		}
	}
	return lines
}

// breakLongWord moves as much of the top chunk onto line as fits, preferring
// to split just after a hyphen. The remainder stays on the stack.
func breakLongWord(stack [][]rune, line [][]rune, lineLen, width int) [][]rune {
	spaceLeft := width - lineLen
	top := len(stack) - 1
	chunk := stack[top]

	end := spaceLeft
	if len(chunk) > spaceLeft {
		if hyphen := lastIndexRune(chunk[:spaceLeft], '-'); hyphen > 0 && !allDashes(chunk[:hyphen]) {
			end = hyphen + 1
		}
	}
	end = min(end, len(chunk))
	line = append(line, chunk[:end])
	stack[top] = chunk[end:]
	return line
}

func lastIndexRune(rs []rune, r rune) int {
	for i := len(rs) - 1; i >= 0; i-- {
		if rs[i] == r {
			return i
		}
	}
	return -1
}

func allDashes(rs []rune) bool {
	for _, r := range rs {
		if r != '-' {
			return false
		}
	}
	return true
}
