// internal/app/features/pages/views/views.go
package views

import (
	"embed"

	// The pages set is compiled against the shared layout.
	_ "github.com/dalemusser/promptstash/internal/app/features/shared/views"
	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "pages",
		FS:       FS,
		Patterns: []string{"templates/*.gohtml"},
	})
}
