package pipeline

import (
	"strings"
	"testing"
)

func TestChromaHighlighter_HasLanguage(t *testing.T) {
	t.Parallel()

	h := NewChromaHighlighter(DefaultTokenClassPrefix, DefaultHighlightStyle)

	tests := []struct {
		name string
		want bool
	}{
		{"go", true},
		{"javascript", true},
		{"js", true},
		{"Python", true},
		{PlainText, true},
		{"", false},
		{"nosuchlang", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := h.HasLanguage(tt.name); got != tt.want {
				t.Errorf("HasLanguage(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestChromaHighlighter_Highlight(t *testing.T) {
	t.Parallel()

	h := NewChromaHighlighter(DefaultTokenClassPrefix, DefaultHighlightStyle)

	t.Run("known language emits prefixed token classes", func(t *testing.T) {
		t.Parallel()

		got, err := h.Highlight("func main() {}\n", "go")
		if err != nil {
			t.Fatalf("Highlight() error = %v", err)
		}
		if !strings.Contains(got, `<span class="hljs-kd">func</span>`) {
			t.Errorf("Highlight() = %q, want keyword span", got)
		}
		if strings.Contains(got, "<pre") {
			t.Errorf("Highlight() = %q, should not wrap in <pre>", got)
		}
	})

	t.Run("plaintext emits no spans", func(t *testing.T) {
		t.Parallel()

		got, err := h.Highlight("a < b & c\n", PlainText)
		if err != nil {
			t.Fatalf("Highlight() error = %v", err)
		}
		if got != "a &lt; b &amp; c\n" {
			t.Errorf("Highlight() = %q", got)
		}
	})

	t.Run("unknown language is treated as plaintext", func(t *testing.T) {
		t.Parallel()

		got, err := h.Highlight("x := 1\n", "nosuchlang")
		if err != nil {
			t.Fatalf("Highlight() error = %v", err)
		}
		if strings.Contains(got, "<span") {
			t.Errorf("Highlight() = %q, want no spans", got)
		}
	})
}

func TestChromaHighlighter_WriteCSS(t *testing.T) {
	t.Parallel()

	h := NewChromaHighlighter(DefaultTokenClassPrefix, DefaultHighlightStyle)

	var buf strings.Builder
	if err := h.WriteCSS(&buf); err != nil {
		t.Fatalf("WriteCSS() error = %v", err)
	}
	css := buf.String()
	if !strings.Contains(css, "pre code .hljs-k {") {
		t.Errorf("WriteCSS() should style prefixed keyword class, got %q", css)
	}
	if strings.Contains(css, ".hljs-chroma") {
		t.Errorf("WriteCSS() should not keep the chroma wrapper scope, got %q", css)
	}
}

func TestPlainHighlighter(t *testing.T) {
	t.Parallel()

	h := PlainHighlighter{}
	if h.HasLanguage("") {
		t.Error("HasLanguage(\"\") = true, want false")
	}
	if !h.HasLanguage("anything") {
		t.Error("HasLanguage(\"anything\") = false, want true")
	}

	got, err := h.Highlight(`<b>"x"</b>`, "html")
	if err != nil {
		t.Fatalf("Highlight() error = %v", err)
	}
	if got != "&lt;b&gt;&#34;x&#34;&lt;/b&gt;" {
		t.Errorf("Highlight() = %q", got)
	}
}

func TestResolveLanguage(t *testing.T) {
	t.Parallel()

	h := &stubHighlighter{languages: map[string]bool{"go": true, "c++": true}}

	tests := []struct {
		hint string
		want string
	}{
		{"go", "go"},
		{" go ", "go"},
		{"c++", "c++"},
		{"", PlainText},
		{"rust", PlainText},
		{"{.go}", PlainText},
		{`go"><script>`, PlainText},
	}

	for _, tt := range tests {
		if got := resolveLanguage(h, tt.hint); got != tt.want {
			t.Errorf("resolveLanguage(%q) = %q, want %q", tt.hint, got, tt.want)
		}
	}
}
