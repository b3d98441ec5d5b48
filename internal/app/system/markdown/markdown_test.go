package markdown_test

import (
	"strings"
	"testing"

	"github.com/dalemusser/promptstash/internal/app/system/markdown"
)

func TestRender_Basics(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"heading", "# Title", "<h1>Title</h1>"},
		{"emphasis", "some **bold** text", "<strong>bold</strong>"},
		{"list", "- one\n- two", "<li>one</li>"},
		{"fenced code", "```go\nx := 1\n```", `<code class="language-go">`},
		{"table", "| a | b |\n|---|---|\n| 1 | 2 |", "<table>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := markdown.Render(tt.in)
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("Render(%q) = %q, want it to contain %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRenderSafe_StripsRawScript(t *testing.T) {
	got := markdown.RenderSafe("Hello\n\n<script>alert(1)</script>\n")
	if strings.Contains(got, "script") || strings.Contains(got, "alert") {
		t.Errorf("expected script removed, got %q", got)
	}
	if !strings.Contains(got, "<p>Hello</p>") {
		t.Errorf("expected paragraph kept, got %q", got)
	}
}

func TestRenderSafe_StripsJavascriptLinks(t *testing.T) {
	got := markdown.RenderSafe("[click](javascript:alert(1))")
	if strings.Contains(got, "javascript") {
		t.Errorf("expected javascript: link stripped, got %q", got)
	}
}

func TestRenderSafe_KeepsCodeClass(t *testing.T) {
	got := markdown.RenderSafe("```python\nprint(1)\n```")
	if !strings.Contains(got, `class="language-python"`) {
		t.Errorf("expected code class kept, got %q", got)
	}
}

func TestRenderSafe_Empty(t *testing.T) {
	if got := markdown.RenderSafe(""); got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
}
