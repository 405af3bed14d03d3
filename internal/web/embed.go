package web

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed templates
var TemplatesFS embed.FS

//go:embed static
var StaticFS embed.FS

// LoadTemplates parses all templates from the embedded filesystem.
// Each page gets its own template set with the base layout.
func LoadTemplates() (*template.Template, error) {
	baseContent, err := fs.ReadFile(TemplatesFS, "templates/layouts/base.html")
	if err != nil {
		return nil, err
	}

	tmpl := template.New("").Funcs(template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
	})

	entries, err := fs.ReadDir(TemplatesFS, "templates/pages")
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		pageContent, err := fs.ReadFile(TemplatesFS, "templates/pages/"+entry.Name())
		if err != nil {
			return nil, err
		}

		// Parse base first, then the page content which overrides the
		// layout's blocks.
		pageTmpl := tmpl.New(entry.Name())
		if _, err := pageTmpl.Parse(string(baseContent)); err != nil {
			return nil, err
		}
		if _, err := pageTmpl.Parse(string(pageContent)); err != nil {
			return nil, err
		}
	}

	return tmpl, nil
}

// GetStaticFS returns the static file system for serving static files
func GetStaticFS() (fs.FS, error) {
	return fs.Sub(StaticFS, "static")
}
