package transform

import (
	"context"
	"errors"
	"testing"

	"github.com/nerdneilsfield/mathguard/pkg/mathguard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEngine(t *testing.T) {
	engine, err := ParseEngine("")
	require.NoError(t, err)
	assert.Equal(t, EngineGoldmark, engine)

	engine, err = ParseEngine("mathjax")
	require.NoError(t, err)
	assert.Equal(t, EngineMathJax, engine)

	_, err = ParseEngine("pandoc")
	assert.ErrorIs(t, err, ErrUnknownEngine)
}

func TestMarkdownRendererProtectedMath(t *testing.T) {
	r, err := NewMarkdownRenderer(RendererOptions{Engine: EngineGoldmark})
	require.NoError(t, err)
	assert.True(t, r.NeedsProtection())
	assert.Equal(t, "markdown-goldmark", r.Name())

	input := "Product $x*y*z$ and $a_1 + b_1$.\n"

	t.Run("Unprotected Math Is Mangled", func(t *testing.T) {
		out, err := r.Transform(context.Background(), input)
		require.NoError(t, err)
		assert.Contains(t, out, "<em>")
	})

	t.Run("Protected Math Survives", func(t *testing.T) {
		p, err := mathguard.NewProtector(mathguard.DefaultConfig)
		require.NoError(t, err)

		protected := p.Extract(input)
		assert.Equal(t, "Product @@0@@ and @@1@@.\n", protected)

		out, err := r.Transform(context.Background(), protected)
		require.NoError(t, err)

		restored, err := p.Restore(out)
		require.NoError(t, err)
		assert.Equal(t, "<p>Product $x*y*z$ and $a_1 + b_1$.</p>\n", restored)
	})

	t.Run("Escapes Survive As HTML", func(t *testing.T) {
		p, err := mathguard.NewProtector(mathguard.DefaultConfig)
		require.NoError(t, err)

		out, err := r.Transform(context.Background(), p.Extract("$a<b$\n"))
		require.NoError(t, err)
		restored, err := p.Restore(out)
		require.NoError(t, err)
		assert.Equal(t, "<p>$a&lt;b$</p>\n", restored)
	})
}

func TestMarkdownRendererMathJax(t *testing.T) {
	r, err := NewMarkdownRenderer(RendererOptions{Engine: EngineMathJax})
	require.NoError(t, err)
	assert.False(t, r.NeedsProtection())

	out, err := r.Transform(context.Background(), "Product $x*y*z$.\n")
	require.NoError(t, err)
	assert.Contains(t, out, "x*y*z")
	assert.NotContains(t, out, "<em>")
}

func TestMarkdownRendererMeta(t *testing.T) {
	r, err := NewMarkdownRenderer(RendererOptions{})
	require.NoError(t, err)

	out, metadata, err := r.Render(context.Background(), "---\ntitle: Notes\n---\n# Heading\n")
	require.NoError(t, err)
	assert.Equal(t, "Notes", metadata["title"])
	assert.Contains(t, out, `<h1 id="heading">Heading</h1>`)
}

func TestMarkdownRendererCanceled(t *testing.T) {
	r, err := NewMarkdownRenderer(RendererOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Transform(ctx, "text")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestFuncTransformer(t *testing.T) {
	out, err := Identity.Transform(context.Background(), "@@0@@")
	require.NoError(t, err)
	assert.Equal(t, "@@0@@", out)
	assert.Equal(t, "identity", Identity.Name())

	failing := NewFunc("broken", func(context.Context, string) (string, error) {
		return "", &TransformError{Transformer: "broken", Reason: "boom", Err: context.DeadlineExceeded}
	})
	_, err = failing.Transform(context.Background(), "x")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.EqualError(t, err, "broken: boom: context deadline exceeded")
}
