package mathguard

import (
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type protectCase struct {
	Name        string   `toml:"name"`
	InlineMark  string   `toml:"inline_mark"`
	DisplayMark string   `toml:"display_mark"`
	Input       string   `toml:"input"`
	Protected   string   `toml:"protected"`
	Blocks      []string `toml:"blocks"`
	Restored    string   `toml:"restored"`
}

func loadCases(t *testing.T) []protectCase {
	t.Helper()
	var fixture struct {
		Case []protectCase `toml:"case"`
	}
	_, err := toml.DecodeFile("testdata/cases.toml", &fixture)
	require.NoError(t, err)
	require.NotEmpty(t, fixture.Case)
	return fixture.Case
}

func newTestProtector(t *testing.T, opts ...Option) *Protector {
	t.Helper()
	p, err := NewProtector(DefaultConfig, opts...)
	require.NoError(t, err)
	return p
}

func blockTexts(blocks []Block) []string {
	texts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		texts = append(texts, b.Text)
	}
	return texts
}

func TestProtectorCases(t *testing.T) {
	for _, tc := range loadCases(t) {
		t.Run(tc.Name, func(t *testing.T) {
			cfg := DefaultConfig
			if tc.InlineMark != "" {
				cfg.InlineMark = tc.InlineMark
			}
			if tc.DisplayMark != "" {
				cfg.DisplayMark = tc.DisplayMark
			}
			p, err := NewProtector(cfg)
			require.NoError(t, err)

			protected := p.Extract(tc.Input)
			assert.Equal(t, tc.Protected, protected)

			expected := tc.Blocks
			if expected == nil {
				expected = []string{}
			}
			assert.Equal(t, expected, blockTexts(p.Blocks()))

			restored, err := p.Restore(protected)
			require.NoError(t, err)
			assert.Equal(t, tc.Restored, restored)
		})
	}
}

func TestRoundTripWithoutMath(t *testing.T) {
	inputs := []string{
		"",
		"plain text without any delimiters",
		"price is 5 dollars\n\nnext paragraph",
		"escaped \\$ and \\{braces\\} and \\\\",
		"braces {a} and } stray",
		"unterminated $ mark in one paragraph",
		"code `a ~ b` and tilde ~T ~D literal",
		"``double `tick` span`` with ~ and $ outside? no: $",
		"placeholder @@3@@ and @@12@@ collide",
		"\\begin{unclosed} environment",
		"line one\r\nline two",
		"中文文本和 emoji 😀 混排",
		"abc\xffdef",
		"a\xc3 $x$ b",
		"`c\xff` $y$",
		"@@0@@ \xff $a\xfe$",
	}

	for _, input := range inputs {
		p := newTestProtector(t)
		protected := p.Extract(input)
		restored, err := p.Restore(protected)
		require.NoError(t, err)
		assert.Equal(t, input, restored, "protected: %q", protected)
	}
}

func TestProtectorExtract(t *testing.T) {
	t.Run("Math Is Hidden From Downstream", func(t *testing.T) {
		p := newTestProtector(t)
		input := "假设$\\mathbf{F}$和$\\mathbf{M}$是两个点云，$$\\int_0^1 x_i^2 dx$$"

		protected := p.Extract(input)

		assert.NotContains(t, protected, "$")
		assert.NotContains(t, protected, "mathbf")
		assert.Equal(t, []int{0, 1, 2}, Placeholders(protected))
		assert.Equal(t, []string{"$", "$", "$$"}, []string{
			p.Blocks()[0].Open, p.Blocks()[1].Open, p.Blocks()[2].Open,
		})
	})

	t.Run("Invalid Bytes Stay In Block", func(t *testing.T) {
		p := newTestProtector(t)

		assert.Equal(t, "@@0@@ b\xfe", p.Extract("$a\xff$ b\xfe"))
		require.Len(t, p.Blocks(), 1)
		assert.Equal(t, "$a\xff$", p.Blocks()[0].Text)
	})

	t.Run("Environment Open Delimiter Is Recorded", func(t *testing.T) {
		p := newTestProtector(t)
		p.Extract("\\begin{equation}E=mc^2\\end{equation}")

		blocks := p.Blocks()
		require.Len(t, blocks, 1)
		assert.Equal(t, BlockMath, blocks[0].Kind)
		assert.Equal(t, "\\begin{equation}", blocks[0].Open)
	})

	t.Run("Mismatched Environment Does Not Close", func(t *testing.T) {
		p := newTestProtector(t)
		input := "\\begin{align}x\\end{gather} text"

		assert.Equal(t, input, p.Extract(input))
		assert.Empty(t, p.Blocks())
	})

	t.Run("Rewind Does Not Re-Store Placeholders", func(t *testing.T) {
		p := newTestProtector(t)
		input := "$a{$ @@7@@\n\nb"

		protected := p.Extract(input)

		assert.Equal(t, "@@1@@ @@0@@\n\nb", protected)
		assert.Equal(t, []string{"@@7@@", "$a{$"}, blockTexts(p.Blocks()))

		restored, err := p.Restore(protected)
		require.NoError(t, err)
		assert.Equal(t, input, restored)
	})

	t.Run("Rewind Rescans Tokens After Fallback", func(t *testing.T) {
		p := newTestProtector(t)

		protected := p.Extract("$a{$ \\begin{x}y\\end{x}\n\nc")

		// 回退到 fallback 之后重新扫描，环境块成为第二个公式
		assert.Equal(t, "@@0@@ @@1@@\n\nc", protected)
		assert.Equal(t, []string{"$a{$", "\\begin{x}y\\end{x}"}, blockTexts(p.Blocks()))
	})

	t.Run("Fresh Store On Every Extract", func(t *testing.T) {
		p := newTestProtector(t)
		p.Extract("$a$ $b$")
		require.Len(t, p.Blocks(), 2)

		protected := p.Extract("$c$")

		assert.Equal(t, "@@0@@", protected)
		assert.Equal(t, []string{"$c$"}, blockTexts(p.Blocks()))
	})

	t.Run("Line Ending Normalization", func(t *testing.T) {
		cfg := DefaultConfig
		cfg.NormalizeLineEndings = true
		p, err := NewProtector(cfg)
		require.NoError(t, err)

		protected := p.Extract("a\r\n\r\n$x\ry$")

		assert.Equal(t, "a\n\n@@0@@", protected)
		assert.Equal(t, []string{"$x\ny$"}, blockTexts(p.Blocks()))
	})

	t.Run("Block Processor Runs After Escaping", func(t *testing.T) {
		var seen []string
		p := newTestProtector(t, WithBlockProcessor(func(block string) string {
			seen = append(seen, block)
			return strings.ToUpper(block)
		}))

		protected := p.Extract("$a<b$ and $c$")
		restored, err := p.Restore(protected)
		require.NoError(t, err)

		assert.Equal(t, []string{"$a&lt;b$", "$c$"}, seen)
		assert.Equal(t, "$A&LT;B$ and $C$", restored)
	})

	t.Run("Block Processor Is Not Applied To Literal Placeholders", func(t *testing.T) {
		calls := 0
		p := newTestProtector(t, WithBlockProcessor(func(block string) string {
			calls++
			return block
		}))

		p.Extract("@@1@@ @@2@@")

		assert.Zero(t, calls)
		assert.Len(t, p.Blocks(), 2)
	})
}

func TestProtectorRestore(t *testing.T) {
	t.Run("Order Independent", func(t *testing.T) {
		p := newTestProtector(t)
		protected := p.Extract("$a$ $b$ $c$")
		require.Equal(t, "@@0@@ @@1@@ @@2@@", protected)

		// 下游转换可能改变占位符的顺序
		restored, err := p.Restore("<p>@@2@@</p><p>@@0@@ @@1@@</p>")
		require.NoError(t, err)
		assert.Equal(t, "<p>$c$</p><p>$a$ $b$</p>", restored)
	})

	t.Run("Duplicated Placeholder", func(t *testing.T) {
		p := newTestProtector(t)
		p.Extract("$x$")

		restored, err := p.Restore("@@0@@ and again @@0@@")
		require.NoError(t, err)
		assert.Equal(t, "$x$ and again $x$", restored)
	})

	t.Run("Out Of Range Is An Error", func(t *testing.T) {
		p := newTestProtector(t)
		p.Extract("$x$")

		_, err := p.Restore("@@0@@ @@5@@")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrPlaceholderOutOfRange)
		assert.Contains(t, err.Error(), "@@5@@")
	})

	t.Run("Overflowing Index Is An Error", func(t *testing.T) {
		p := newTestProtector(t)
		p.Extract("$x$")

		_, err := p.Restore("@@99999999999999999999999@@")
		assert.ErrorIs(t, err, ErrPlaceholderOutOfRange)
	})

	t.Run("Store Is Consumed", func(t *testing.T) {
		p := newTestProtector(t)
		protected := p.Extract("$x$")

		_, err := p.Restore(protected)
		require.NoError(t, err)
		assert.Empty(t, p.Blocks())

		_, err = p.Restore(protected)
		assert.ErrorIs(t, err, ErrPlaceholderOutOfRange)
	})

	t.Run("Collision With Genuine Block", func(t *testing.T) {
		p := newTestProtector(t)
		input := "$y$ then literal @@0@@ then $z$"

		protected := p.Extract(input)
		assert.Equal(t, "@@0@@ then literal @@1@@ then @@2@@", protected)

		restored, err := p.Restore(protected)
		require.NoError(t, err)
		assert.Equal(t, input, restored)
	})
}

func TestNewProtectorValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "defaults", config: DefaultConfig},
		{name: "latex parens", config: Config{InlineMark: `\(`, DisplayMark: `\[`}},
		{name: "swapped lengths", config: Config{InlineMark: "$$", DisplayMark: "$"}},
		{name: "empty inline", config: Config{InlineMark: "", DisplayMark: "$$"}, wantErr: true},
		{name: "empty display", config: Config{InlineMark: "$", DisplayMark: ""}, wantErr: true},
		{name: "same marks", config: Config{InlineMark: "$", DisplayMark: "$"}, wantErr: true},
		{name: "whitespace", config: Config{InlineMark: "$ ", DisplayMark: "$$"}, wantErr: true},
		{name: "letter", config: Config{InlineMark: "m", DisplayMark: "$$"}, wantErr: true},
		{name: "brace", config: Config{InlineMark: "{", DisplayMark: "$$"}, wantErr: true},
		{name: "tilde", config: Config{InlineMark: "~", DisplayMark: "$$"}, wantErr: true},
		{name: "at sign", config: Config{InlineMark: "@", DisplayMark: "$$"}, wantErr: true},
		{name: "backtick", config: Config{InlineMark: "`", DisplayMark: "$$"}, wantErr: true},
		{name: "backtick in display", config: Config{InlineMark: "$", DisplayMark: "$`"}, wantErr: true},
		{name: "doubled percent", config: Config{InlineMark: "%", DisplayMark: "%%"}},
		{name: "tripled mark", config: Config{InlineMark: "$", DisplayMark: "$$$"}, wantErr: true},
		{name: "prefix mark", config: Config{InlineMark: "$", DisplayMark: "$!"}, wantErr: true},
		{name: "suffix mark", config: Config{InlineMark: "!$", DisplayMark: "$"}, wantErr: true},
		{name: "disjoint multi-char", config: Config{InlineMark: "%!", DisplayMark: "!%%"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProtector(tt.config)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.config, p.Config())
		})
	}
}

func TestLatexParenMarks(t *testing.T) {
	p, err := NewProtector(Config{InlineMark: `\(`, DisplayMark: `\[`})
	require.NoError(t, err)

	protected := p.Extract(`inline \(a_1\(b\) and \[x\[`)

	// 定界符是对称的：结束定界符与起始定界符相同
	assert.Equal(t, "inline @@0@@b\\) and @@1@@", protected)
	assert.Equal(t, []string{`\(a_1\(`, `\[x\[`}, blockTexts(p.Blocks()))
}

func TestUnescapeHTML(t *testing.T) {
	p, err := NewProtector(DefaultConfig, WithBlockProcessor(UnescapeHTML))
	require.NoError(t, err)

	protected := p.Extract("$a < b && c > d$ and $x &lt; y$")
	assert.Equal(t, "@@0@@ and @@1@@", protected)
	assert.Equal(t, []string{"$a < b && c > d$", "$x &lt; y$"}, blockTexts(p.Blocks()))

	restored, err := p.Restore(protected)
	require.NoError(t, err)
	assert.Equal(t, "$a < b && c > d$ and $x &lt; y$", restored)
}
