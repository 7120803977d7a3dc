package core

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"newsbrief.io/newsbrief/internal/newsapi"
	"newsbrief.io/newsbrief/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "core.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

type fakeCompleter struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
	systems []string
}

func (f *fakeCompleter) Complete(_ context.Context, system, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.systems = append(f.systems, system)
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeProvider struct {
	enabled   bool
	headlines []newsapi.RawArticle
	results   []newsapi.RawArticle
	err       error
	calls     int
}

func (f *fakeProvider) Enabled() bool { return f.enabled }

func (f *fakeProvider) TopHeadlines(context.Context, string, string, int) ([]newsapi.RawArticle, error) {
	f.calls++
	return f.headlines, f.err
}

func (f *fakeProvider) Search(context.Context, string, int) ([]newsapi.RawArticle, error) {
	f.calls++
	return f.results, f.err
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

var errBoom = errors.New("boom")

func firstPick(pool []string) string { return pool[0] }
