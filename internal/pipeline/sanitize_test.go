package pipeline

import (
	"html"
	"strings"
	"testing"
)

func TestSanitizer_Sanitize(t *testing.T) {
	t.Parallel()

	s := NewSanitizer()

	tests := []struct {
		name         string
		input        string
		wantContains []string
		wantExcludes []string
	}{
		{
			name:         "keeps highlight classes",
			input:        `<pre><code class="hljs language-c++"><span class="hljs-k">int</span></code></pre>`,
			wantContains: []string{`class="hljs language-c++"`, `<span class="hljs-k">int</span>`},
		},
		{
			name:         "drops script",
			input:        `<p>a</p><script>alert(1)</script>`,
			wantContains: []string{"<p>a</p>"},
			wantExcludes: []string{"script", "alert"},
		},
		{
			name:         "drops event handlers",
			input:        `<img src="x.png" onerror="alert(1)">`,
			wantContains: []string{`src="x.png"`},
			wantExcludes: []string{"onerror"},
		},
		{
			name:         "drops javascript urls",
			input:        `<a href="javascript:alert(1)">x</a>`,
			wantExcludes: []string{"javascript:"},
		},
		{
			name:         "keeps task list checkboxes",
			input:        `<ul><li><input checked="" disabled="" type="checkbox"/> done</li></ul>`,
			wantContains: []string{`type="checkbox"`, `disabled=""`},
		},
		{
			name:         "drops other inputs",
			input:        `<input type="text" value="x"/>`,
			wantExcludes: []string{`type="text"`, "value"},
		},
		{
			name:         "keeps heading ids",
			input:        `<h2 id="usage">Usage</h2>`,
			wantContains: []string{`<h2 id="usage">Usage</h2>`},
		},
		{
			name:         "drops style attributes",
			input:        `<p style="color:red">x</p>`,
			wantExcludes: []string{"style"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := s.Sanitize(tt.input)
			for _, want := range tt.wantContains {
				if !strings.Contains(got, want) {
					t.Errorf("Sanitize() = %q, want to contain %q", got, want)
				}
			}
			for _, exclude := range tt.wantExcludes {
				if strings.Contains(got, exclude) {
					t.Errorf("Sanitize() = %q, should not contain %q", got, exclude)
				}
			}
		})
	}
}

func TestValidClassPrefix(t *testing.T) {
	t.Parallel()

	s := NewSanitizer()

	tests := []struct {
		prefix string
		want   bool
	}{
		{"", true},
		{DefaultLanguageClassPrefix, true},
		{"lang-", true},
		{"lang:", false},
		{"x/y-", false},
		{`x"-`, false},
	}

	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			t.Parallel()

			if got := ValidClassPrefix(tt.prefix); got != tt.want {
				t.Fatalf("ValidClassPrefix(%q) = %v, want %v", tt.prefix, got, tt.want)
			}
			if tt.prefix == "" {
				return
			}

			out := s.Sanitize(`<pre><code class="` + html.EscapeString(tt.prefix) + `go">x</code></pre>`)
			if kept := strings.Contains(out, "class="); kept != tt.want {
				t.Errorf("class kept = %v for prefix %q, got %s", kept, tt.prefix, out)
			}
		})
	}
}
