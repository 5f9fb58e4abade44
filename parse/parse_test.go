package parse

import (
	"reflect"
	"testing"

	"github.com/plasma-umass/llm-utils/llm"
)

func TestContainsValidJSON(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   map[string]any
		wantOK bool
	}{
		{"plain object", `{"a": 1}`, map[string]any{"a": float64(1)}, true},
		{"surrounding prose", "Sure! Here it is: {\"a\": \"b\"} hope that helps", map[string]any{"a": "b"}, true},
		{"nested braces", `x {"a": {"b": [1, 2]}} y`, map[string]any{"a": map[string]any{"b": []any{float64(1), float64(2)}}}, true},
		{"triple quoted", "{\"code\": \"\"\"line one\n\"quoted\" line\"\"\"}", map[string]any{"code": "line one\n\"quoted\" line"}, true},
		{"raw newline in string", "{\"a\": \"x\ny\"}", map[string]any{"a": "x\ny"}, true},
		{"raw tab in string", "{\"a\": \"x\ty\"}", map[string]any{"a": "x\ty"}, true},
		{"html kept", `{"a": """<b>&</b>"""}`, map[string]any{"a": "<b>&</b>"}, true},
		{"no braces", "nothing here", nil, false},
		{"only open brace", "{ no close", nil, false},
		{"end before start", "} then {", nil, false},
		{"invalid body", `{"a": }`, nil, false},
		{"two objects", `{"a": 1} and {"b": 2}`, nil, false},
		{"empty", "", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ContainsValidJSON(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestExtractJSON(t *testing.T) {
	got, ok := ExtractJSON("prefix {\n  \"z\": 1,\n  \"a\": \"\"\"multi\nline\"\"\"\n} suffix")
	if !ok {
		t.Fatal("ExtractJSON() ok = false")
	}
	if want := `{"z":1,"a":"multi\nline"}`; string(got) != want {
		t.Errorf("ExtractJSON() = %s, want %s", got, want)
	}

	if _, ok := ExtractJSON("no json"); ok {
		t.Error("ExtractJSON() ok = true for text without an object")
	}
}

func TestExtractCodeBlocks(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"none", "just text", []string{}},
		{"python block", "before\n```python\nx = 1\n```\nafter", []string{"x = 1"}},
		{"bare block", "```\n  code  \n```", []string{"code"}},
		{"other language kept", "```go\nfmt.Println()\n```", []string{"go\nfmt.Println()"}},
		{"two blocks", "```python\na\n```\ntext\n```python\nb\n```", []string{"a", "b"}},
		{"unterminated", "```python\nnever closed", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractCodeBlocks(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractCodeBlocks() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseChatlog(t *testing.T) {
	log := "Human: hello there\n\n\n\nAssistant: hi: how are you\n\nnoseparator\n\n  \n\n"
	want := []llm.Message{
		{Role: "Human", Content: "hello there"},
		{Role: "Assistant", Content: "hi: how are you"},
		{Role: "noseparator", Content: ""},
	}
	if got := ParseChatlog(log); !reflect.DeepEqual(got, want) {
		t.Errorf("ParseChatlog() = %+v, want %+v", got, want)
	}
	if got := ParseChatlog(""); len(got) != 0 || got == nil {
		t.Errorf("ParseChatlog(\"\") = %#v, want empty slice", got)
	}
}

func TestGenerateChatlog(t *testing.T) {
	msgs := []llm.Message{
		{Role: "Human", Content: "first"},
		{Role: "Assistant", Content: "second  \n"},
	}
	want := "Human: first\n\nAssistant: second\n\nAssistant: "
	if got := GenerateChatlog(msgs, "Assistant"); got != want {
		t.Errorf("GenerateChatlog() = %q, want %q", got, want)
	}
	if got := GenerateChatlog(nil, "Assistant"); got != "\n\nAssistant: " {
		t.Errorf("GenerateChatlog(nil) = %q", got)
	}
}

func TestChatlogRoundTrip(t *testing.T) {
	msgs := []llm.Message{{Role: "Human", Content: "a"}, {Role: "Assistant", Content: "b"}}
	got := ParseChatlog(GenerateChatlog(msgs, "Human"))
	want := append(msgs, llm.Message{Role: "Human"})
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}
