package parse

import (
	"regexp"
	"strings"
)

var codeBlock = regexp.MustCompile("(?s)```(python)?(.*?)```")

// ExtractCodeBlocks returns the trimmed contents of every fenced block in
// text, in order. A "python" info string is dropped; any other info string
// stays part of the content.
func ExtractCodeBlocks(text string) []string {
	matches := codeBlock.FindAllStringSubmatch(text, -1)
	blocks := make([]string, 0, len(matches))
	for _, m := range matches {
		blocks = append(blocks, strings.TrimSpace(m[2]))
	}
	return blocks
}
