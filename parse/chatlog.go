package parse

import (
	"strings"
	"unicode"

	"github.com/plasma-umass/llm-utils/llm"
)

const (
	entrySep = "\n\n"
	roleSep  = ": "
)

// ParseChatlog splits a "role: content" transcript into messages. Entries
// are separated by blank lines; blank entries are skipped. An entry without
// ": " becomes a message whose role is the whole entry.
func ParseChatlog(log string) []llm.Message {
	msgs := []llm.Message{}
	for _, entry := range strings.Split(log, entrySep) {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		role, content, _ := strings.Cut(entry, roleSep)
		msgs = append(msgs, llm.Message{Role: role, Content: content})
	}
	return msgs
}

// GenerateChatlog renders msgs as a transcript that ends with an open turn
// for assistantPrefix, ready to be completed.
//
//	Human: hi
//
//	Assistant:
func GenerateChatlog(msgs []llm.Message, assistantPrefix string) string {
	var sb strings.Builder
	for _, m := range msgs {
		sb.WriteString(m.Role)
		sb.WriteString(roleSep)
		sb.WriteString(m.Content)
		sb.WriteString(entrySep)
	}
	return strings.TrimRightFunc(sb.String(), unicode.IsSpace) + entrySep + assistantPrefix + roleSep
}
