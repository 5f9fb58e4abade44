package chat

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/plasma-umass/llm-utils/cache"
	apperrors "github.com/plasma-umass/llm-utils/errors"
	"github.com/plasma-umass/llm-utils/llm"
	"github.com/plasma-umass/llm-utils/logger"
)

func TestCached_ServesRepeats(t *testing.T) {
	fake := &fakeCompleter{steps: []step{reply("first"), reply("second")}}
	api := Cached(newTestChatGPT(t, fake), cache.NewMemory(), time.Minute)
	conv := []llm.Message{{Role: llm.RoleUser, Content: "same question"}}
	ctx := context.Background()

	a, err := api.SendMessage(ctx, conv, 1)
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	b, err := api.SendMessage(ctx, conv, 1)
	if err != nil {
		t.Fatalf("cached SendMessage failed: %v", err)
	}
	if a[0] != "first" || b[0] != "first" || fake.calls() != 1 {
		t.Errorf("a=%v b=%v calls=%d, want one provider call", a, b, fake.calls())
	}

	if _, err := api.SendMessage(ctx, conv, 2); err != nil {
		t.Fatalf("SendMessage n=2 failed: %v", err)
	}
	if fake.calls() != 2 {
		t.Errorf("different n should miss the cache, calls = %d", fake.calls())
	}
	if api.Name() != ProviderOpenAI || api.Usage().TotalTokens != 30 {
		t.Errorf("wrapped methods: name=%s usage=%+v", api.Name(), api.Usage())
	}
}

func TestCached_ErrorsNotStored(t *testing.T) {
	fake := &fakeCompleter{steps: []step{statusErr(401), reply("ok")}}
	store := cache.NewMemory()
	api := Cached(newTestChatGPT(t, fake), store, 0)

	if _, err := api.SendMessage(context.Background(), nil, 1); err == nil {
		t.Fatal("expected error")
	}
	if store.Len() != 0 {
		t.Errorf("store has %d entries after failure", store.Len())
	}
	got, err := api.SendMessage(context.Background(), nil, 1)
	if err != nil || got[0] != "ok" {
		t.Errorf("retry = %v, %v", got, err)
	}
}

func TestCacheKey(t *testing.T) {
	conv := []llm.Message{{Role: "user", Content: "x"}}
	k1, _ := cacheKey("openai", 1, conv)
	k2, _ := cacheKey("openai", 1, conv)
	k3, _ := cacheKey("claude", 1, conv)
	k4, _ := cacheKey("openai", 1, []llm.Message{{Role: "user", Content: "y"}})
	if k1 != k2 || len(k1) != 64 {
		t.Errorf("key not stable sha256 hex: %q %q", k1, k2)
	}
	if k1 == k3 || k1 == k4 {
		t.Error("provider and conversation must change the key")
	}
}

func TestSession_Ask(t *testing.T) {
	fake := &fakeCompleter{steps: []step{reply("4"), reply("8")}}
	s := NewSession(newTestChatGPT(t, fake), "You are a calculator.")
	if _, err := uuid.Parse(s.ID); err != nil {
		t.Fatalf("session id %q is not a uuid", s.ID)
	}
	ctx := context.Background()

	if got, err := s.Ask(ctx, "2+2"); err != nil || got != "4" {
		t.Fatalf("Ask = %q, %v", got, err)
	}
	if got, err := s.Ask(ctx, "double it"); err != nil || got != "8" {
		t.Fatalf("Ask = %q, %v", got, err)
	}

	h := s.History()
	want := []llm.Message{
		{Role: llm.RoleSystem, Content: "You are a calculator."},
		{Role: llm.RoleUser, Content: "2+2"},
		{Role: llm.RoleAssistant, Content: "4"},
		{Role: llm.RoleUser, Content: "double it"},
		{Role: llm.RoleAssistant, Content: "8"},
	}
	if len(h) != len(want) {
		t.Fatalf("history = %+v", h)
	}
	for i := range want {
		if h[i] != want[i] {
			t.Errorf("history[%d] = %+v, want %+v", i, h[i], want[i])
		}
	}
	if len(fake.reqs[1].Messages) != 4 {
		t.Errorf("second turn sent %d messages, want 4", len(fake.reqs[1].Messages))
	}
}

func TestSession_FailureKeepsHistory(t *testing.T) {
	fake := &fakeCompleter{steps: []step{statusErr(400)}}
	s := NewSession(newTestChatGPT(t, fake, WithLogger(logger.Nop())), "")

	if _, err := s.Ask(context.Background(), "hello"); err == nil {
		t.Fatal("expected error")
	}
	if len(s.History()) != 0 {
		t.Errorf("history = %+v, want empty", s.History())
	}
	if _, err := s.Ask(context.Background(), ""); !apperrors.HasCode(err, apperrors.ErrCodeMissingField) {
		t.Errorf("empty prompt err = %v", err)
	}
}

func TestSession_HistoryIsCopy(t *testing.T) {
	s := NewSession(newTestChatGPT(t, &fakeCompleter{}), "sys")
	h := s.History()
	h[0].Content = "changed"
	if s.History()[0].Content != "sys" {
		t.Error("History exposed internal slice")
	}
}

func TestSession_ClaudeTurns(t *testing.T) {
	tests := []struct {
		name   string
		system string
		want   []llm.Message
	}{
		{
			name: "no system prompt",
			want: []llm.Message{
				{Role: "Human", Content: "first question"},
				{Role: llm.RoleAssistant, Content: `{"a":1}`},
				{Role: "Human", Content: "second question"},
			},
		},
		{
			name:   "system prompt",
			system: "Answer in JSON.",
			want: []llm.Message{
				{Role: "Human", Content: "Answer in JSON.\nfirst question"},
				{Role: llm.RoleAssistant, Content: `{"a":1}`},
				{Role: "Human", Content: "second question"},
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeCompleter{steps: []step{reply(`{"a": 1}`), reply(`{"b": 2}`)}}
			s := NewSession(newTestClaude(t, fake), tc.system)
			ctx := context.Background()

			if _, err := s.Ask(ctx, "first question"); err != nil {
				t.Fatalf("first Ask failed: %v", err)
			}
			if got, err := s.Ask(ctx, "second question"); err != nil || got != `{"b":2}` {
				t.Fatalf("second Ask = %q, %v", got, err)
			}

			sent := fake.reqs[1].Messages
			if len(sent) != len(tc.want) {
				t.Fatalf("second turn sent %+v", sent)
			}
			for i := range tc.want {
				if sent[i] != tc.want[i] {
					t.Errorf("sent[%d] = %+v, want %+v", i, sent[i], tc.want[i])
				}
			}
		})
	}
}
