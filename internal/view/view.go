// Package view renders the storefront's HTML pages.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/flash"
)

//go:embed templates/*.html
var files embed.FS

var funcs = template.FuncMap{
	// decimal prints a float without an exponent so forms can post it back.
	"decimal": func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) },
}

const layoutFile = "templates/layout.html"

// Page is the data every template receives.
type Page struct {
	Title    string
	CSRF     string
	LoggedIn bool
	IsAdmin  bool
	Flashes  []flash.Message
	Data     map[string]any
}

type Renderer struct {
	pages map[string]*template.Template
}

func New() (*Renderer, error) {
	names, err := fs.Glob(files, "templates/*.html")
	if err != nil {
		return nil, err
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(names))}
	for _, name := range names {
		if name == layoutFile {
			continue
		}
		t, err := template.New(path.Base(layoutFile)).Funcs(funcs).ParseFS(files, layoutFile, name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[strings.TrimSuffix(path.Base(name), ".html")] = t
	}
	return r, nil
}

func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}
