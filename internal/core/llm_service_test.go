package core

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeEmptyInputSkipsLLM(t *testing.T) {
	c := &fakeCompleter{reply: "unused"}
	s := NewLLMService(c)

	assert.Equal(t, SummaryUnavailable, s.Summarize(context.Background(), ""))
	assert.Equal(t, SummaryUnavailable, s.Summarize(context.Background(), "   \n"))
	assert.Zero(t, c.calls())
}

func TestSummarizeUsesCompleter(t *testing.T) {
	c := &fakeCompleter{reply: "  Two sentence summary.  "}
	s := NewLLMService(c)

	got := s.Summarize(context.Background(), "Some article text")
	assert.Equal(t, "Two sentence summary.", got)
	assert.Equal(t, []string{"Please summarize this news article: Some article text"}, c.prompts)
	assert.Contains(t, c.systems[0], "2-3 sentences maximum")
}

func TestSummarizeFallsBackToTruncation(t *testing.T) {
	long := strings.Repeat("ü", 250)
	tests := []struct {
		name      string
		completer *fakeCompleter
	}{
		{"llm error", &fakeCompleter{err: errBoom}},
		{"blank reply", &fakeCompleter{reply: "  "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewLLMService(tt.completer)
			assert.Equal(t, strings.Repeat("ü", 200)+"...", s.Summarize(context.Background(), long))
			assert.Equal(t, "short text", s.Summarize(context.Background(), "short text"))
		})
	}
}

func TestSummarizeWithoutCompleter(t *testing.T) {
	s := NewLLMService(nil)
	got := s.Summarize(context.Background(), "Headline. Description")
	assert.Equal(t, "Headline. Description", got)
}
