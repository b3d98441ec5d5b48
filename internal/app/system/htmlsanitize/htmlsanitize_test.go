package htmlsanitize_test

import (
	"html/template"
	"strings"
	"testing"

	"github.com/dalemusser/promptstash/internal/app/system/htmlsanitize"
)

func TestSanitize_Empty(t *testing.T) {
	result := htmlsanitize.Sanitize("")
	if result != "" {
		t.Errorf("expected empty string, got %q", result)
	}
}

func TestSanitize_PlainText(t *testing.T) {
	result := htmlsanitize.Sanitize("Hello, World!")
	if result != "Hello, World!" {
		t.Errorf("expected plain text unchanged, got %q", result)
	}
}

func TestSanitize_PreservesAllowedMarkup(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"emphasis", "<p><strong>Bold</strong> and <em>italic</em></p>"},
		{"unordered list", "<ul><li>Item 1</li><li>Item 2</li></ul>"},
		{"ordered list", "<ol><li>First</li><li>Second</li></ol>"},
		{"blockquote", "<blockquote>A quote</blockquote>"},
		{"headings", "<h1>H1</h1><h2>H2</h2><h3>H3</h3><h4>H4</h4><h5>H5</h5><h6>H6</h6>"},
		{"table", "<table><thead><tr><th>Header</th></tr></thead><tbody><tr><td>Cell</td></tr></tbody></table>"},
		{"code block", "<pre><code>function test() {}</code></pre>"},
		{"code class", `<pre><code class="language-go">package main</code></pre>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := htmlsanitize.Sanitize(tt.input); got != tt.input {
				t.Errorf("expected %q preserved, got %q", tt.input, got)
			}
		})
	}
}

func TestSanitize_RemovesScriptWithContent(t *testing.T) {
	input := "<p>Hello</p><script>alert(1)</script>"
	result := htmlsanitize.Sanitize(input)
	if result != "<p>Hello</p>" {
		t.Errorf("expected script removed, got %q", result)
	}
}

func TestSanitize_RemovesEmbeddingElements(t *testing.T) {
	inputs := []string{
		`<p>Content</p><iframe src="https://evil.com"></iframe>`,
		`<p>Content</p><object data="x.swf"></object>`,
		`<p>Content</p><embed src="x.swf">`,
		`<style>body { color: red; }</style><p>Content</p>`,
	}
	for _, in := range inputs {
		result := htmlsanitize.Sanitize(in)
		for _, bad := range []string{"iframe", "object", "embed", "style", "color: red"} {
			if strings.Contains(result, bad) {
				t.Errorf("Sanitize(%q) = %q, still contains %q", in, result, bad)
			}
		}
		if !strings.Contains(result, "Content") {
			t.Errorf("expected safe content preserved, got %q", result)
		}
	}
}

func TestSanitize_RemovesEventHandlers(t *testing.T) {
	inputs := []string{
		`<p onclick="alert(1)">Click</p>`,
		`<img src="https://example.com/a.png" onerror="alert(1)">`,
		`<a href="https://example.com" onmouseover="alert(1)">Link</a>`,
	}
	for _, in := range inputs {
		result := htmlsanitize.Sanitize(in)
		if strings.Contains(result, "alert") || strings.Contains(result, " on") {
			t.Errorf("Sanitize(%q) = %q, expected event handler stripped", in, result)
		}
	}
}

func TestSanitize_StripsDisallowedSchemes(t *testing.T) {
	tests := []string{
		`<a href="javascript:alert(1)">Click</a>`,
		`<a href="JaVaScRiPt:alert(1)">Click</a>`,
		`<a href="ftp://example.com/file">Click</a>`,
		`<img src="data:text/html,hello">`,
		`<img src="javascript:alert(1)">`,
	}
	for _, in := range tests {
		result := htmlsanitize.Sanitize(in)
		for _, bad := range []string{"javascript", "JaVaScRiPt", "ftp:", "data:"} {
			if strings.Contains(result, bad) {
				t.Errorf("Sanitize(%q) = %q, scheme %q not stripped", in, result, bad)
			}
		}
	}
}

func TestSanitize_AllowsPermittedSchemes(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`<a href="https://example.com">Link</a>`, `href="https://example.com"`},
		{`<a href="http://example.com">Link</a>`, `href="http://example.com"`},
		{`<a href="mailto:team@example.com">Mail</a>`, `href="mailto:team@example.com"`},
		{`<img src="https://example.com/image.png" alt="Image">`, `src="https://example.com/image.png"`},
	}
	for _, tt := range tests {
		result := htmlsanitize.Sanitize(tt.input)
		if !strings.Contains(result, tt.want) {
			t.Errorf("Sanitize(%q) = %q, want it to contain %q", tt.input, result, tt.want)
		}
	}
}

func TestSanitize_AnchorAttributes(t *testing.T) {
	input := `<a href="https://example.com" name="top" target="_blank" rel="noopener" class="x" id="y">Link</a>`
	result := htmlsanitize.Sanitize(input)
	for _, want := range []string{`name="top"`, `target="_blank"`, `rel="noopener"`} {
		if !strings.Contains(result, want) {
			t.Errorf("expected %s preserved, got %q", want, result)
		}
	}
	for _, bad := range []string{"class=", "id="} {
		if strings.Contains(result, bad) {
			t.Errorf("expected %s stripped from anchor, got %q", bad, result)
		}
	}
}

func TestSanitize_ClassOnlyOnCode(t *testing.T) {
	result := htmlsanitize.Sanitize(`<p class="lead">Text</p>`)
	if result != "<p>Text</p>" {
		t.Errorf("expected class stripped from p, got %q", result)
	}
}

func TestSanitize_RemovesFormElements(t *testing.T) {
	input := `<form action="/submit"><input type="text" name="data"><button>Submit</button></form>`
	result := htmlsanitize.Sanitize(input)
	if strings.Contains(result, "<form") || strings.Contains(result, "<input") || strings.Contains(result, "<button") {
		t.Errorf("expected form elements removed, got %q", result)
	}
}

func TestSanitize_MalformedInputDoesNotPanic(t *testing.T) {
	inputs := []string{
		"<p>unclosed <b>bold",
		"<<<>>>",
		"<a href=",
		"</div></div></p>",
		"<scr<script>ipt>alert(1)</script>",
	}
	for _, in := range inputs {
		result := htmlsanitize.Sanitize(in)
		if strings.Contains(result, "<script") {
			t.Errorf("Sanitize(%q) = %q, script survived", in, result)
		}
	}
}

func TestSanitizeToHTML_ReturnsTemplateHTML(t *testing.T) {
	result := htmlsanitize.SanitizeToHTML("<p>Hello</p><script>alert(1)</script>")
	if result != template.HTML("<p>Hello</p>") {
		t.Errorf("got %q", result)
	}
}
