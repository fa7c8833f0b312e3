package llm

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nerdneilsfield/mathguard/pkg/mathguard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslatorWithProtector(t *testing.T) {
	srv := newFakeServer(t, frenchReply)

	for provider, client := range testClients(t, srv) {
		t.Run(provider, func(t *testing.T) {
			p, err := mathguard.NewProtector(mathguard.DefaultConfig, mathguard.WithBlockProcessor(mathguard.UnescapeHTML))
			require.NoError(t, err)

			protected := p.Extract("Hello $a<b$ world $$x^2$$")
			assert.Equal(t, "Hello @@0@@ world @@1@@", protected)

			tr := NewTranslator(client, "en", "fr")
			out, err := tr.Transform(context.Background(), protected)
			require.NoError(t, err)

			restored, err := p.Restore(out)
			require.NoError(t, err)
			assert.Equal(t, "Bonjour $a<b$ monde $$x^2$$", restored)
			assert.Contains(t, srv.body(), "Preserve Markers")
		})
	}
}

func TestTranslatorPlaceholderMismatch(t *testing.T) {
	srv := newFakeServer(t, func(string) string { return "Bonjour monde" })
	client := testClients(t, srv)[ProviderGoOpenAI]

	_, err := NewTranslator(client, "", "fr").Transform(context.Background(), "Hello @@0@@ world")
	assert.ErrorIs(t, err, ErrPlaceholderMismatch)
}

func TestTranslatorSkipsBlankText(t *testing.T) {
	srv := newFakeServer(t, frenchReply)
	client := testClients(t, srv)[ProviderGoOpenAI]

	out, err := NewTranslator(client, "", "fr").Transform(context.Background(), " \n\t")
	require.NoError(t, err)
	assert.Equal(t, " \n\t", out)
	assert.Zero(t, srv.calls.Load())
}

func TestTranslatorCache(t *testing.T) {
	srv := newFakeServer(t, frenchReply)
	client := testClients(t, srv)[ProviderGoOpenAI]
	path := filepath.Join(t.TempDir(), "cache.db")

	cache, err := OpenBoltCache(path)
	require.NoError(t, err)

	tr := NewTranslator(client, "en", "fr", WithCache(cache))
	for i := 0; i < 3; i++ {
		out, err := tr.Transform(context.Background(), "Hello @@0@@")
		require.NoError(t, err)
		assert.Equal(t, "Bonjour @@0@@", out)
	}
	assert.EqualValues(t, 1, srv.calls.Load())
	require.NoError(t, cache.Close())

	// 重新打开后仍然命中
	cache, err = OpenBoltCache(path)
	require.NoError(t, err)
	defer cache.Close()

	out, err := NewTranslator(client, "en", "fr", WithCache(cache)).Transform(context.Background(), "Hello @@0@@")
	require.NoError(t, err)
	assert.Equal(t, "Bonjour @@0@@", out)
	assert.EqualValues(t, 1, srv.calls.Load())

	// 目标语言不同则不命中
	_, err = NewTranslator(client, "en", "de", WithCache(cache)).Transform(context.Background(), "Hello @@0@@")
	require.NoError(t, err)
	assert.EqualValues(t, 2, srv.calls.Load())
}

func TestVerifyPlaceholders(t *testing.T) {
	tests := []struct {
		name       string
		original   string
		translated string
		wantErr    bool
	}{
		{name: "identical", original: "a @@0@@ b @@1@@", translated: "x @@0@@ y @@1@@"},
		{name: "reordered", original: "a @@0@@ b @@1@@", translated: "@@1@@ x @@0@@"},
		{name: "no placeholders", original: "plain", translated: "texte"},
		{name: "missing", original: "a @@0@@ b @@1@@", translated: "x @@0@@", wantErr: true},
		{name: "invented", original: "a @@0@@", translated: "x @@0@@ @@5@@", wantErr: true},
		{name: "duplicated", original: "a @@0@@", translated: "@@0@@ @@0@@", wantErr: true},
		{name: "repeated in both", original: "@@2@@ and @@2@@", translated: "@@2@@ et @@2@@"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyPlaceholders(tt.original, tt.translated)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrPlaceholderMismatch)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, CacheKey("c", "en", "fr", "x"), CacheKey("c", "en", "fr", "x"))
	assert.NotEqual(t, CacheKey("c", "en", "fr", "x"), CacheKey("c", "en", "de", "x"))
	// 分隔符避免拼接歧义
	assert.NotEqual(t, CacheKey("c", "ab", "c", "x"), CacheKey("c", "a", "bc", "x"))
}

func TestSystemPrompt(t *testing.T) {
	prompt := SystemPrompt("English", "Chinese")
	assert.Contains(t, prompt, "Source language: English.")
	assert.Contains(t, prompt, "Target language: Chinese.")
	assert.Contains(t, prompt, `@@\d+@@`)
	assert.NotContains(t, SystemPrompt("", "Chinese"), "Source language")
}
