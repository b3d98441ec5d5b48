// Package markdown renders prompt bodies to HTML.
//
// Rendering passes raw HTML through untouched; RenderSafe is the only output
// that may reach a page, because it runs the result through htmlsanitize.
package markdown

import (
	"bytes"
	"html"
	"strings"

	"github.com/dalemusser/promptstash/internal/app/system/htmlsanitize"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
)

// Render converts Markdown to unsanitized HTML.
func Render(src string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderSafe converts Markdown to sanitized HTML. If rendering fails the
// source is shown as escaped text in a single paragraph.
func RenderSafe(src string) string {
	out, err := Render(src)
	if err != nil {
		out = "<p>" + strings.ReplaceAll(html.EscapeString(src), "\n", "<br>") + "</p>"
	}
	return htmlsanitize.Sanitize(out)
}
