// Package views renders the server-side HTML pages.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

//go:embed templates/*.html
var files embed.FS

const layoutName = "layout"

// Pages rendered by the application.
var pages = []string{"index", "post", "login", "admin", "error"}

// Engine is a fiber.Views implementation over html/template. Every page is
// parsed together with the shared layout.
type Engine struct {
	mu    sync.RWMutex
	pages map[string]*template.Template
}

var _ fiber.Views = (*Engine)(nil)

// New returns an Engine with all templates parsed.
func New() (*Engine, error) {
	e := &Engine{}
	if err := e.Load(); err != nil {
		return nil, err
	}
	return e, nil
}

// Load parses the embedded templates.
func (e *Engine) Load() error {
	base, err := template.New(layoutName).Funcs(funcMap()).ParseFS(files, "templates/layout.html")
	if err != nil {
		return fmt.Errorf("parse layout: %w", err)
	}

	parsed := make(map[string]*template.Template, len(pages))
	for _, name := range pages {
		t, err := template.Must(base.Clone()).ParseFS(files, "templates/"+name+".html")
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		parsed[name] = t
	}

	e.mu.Lock()
	e.pages = parsed
	e.mu.Unlock()
	return nil
}

// Render executes page name inside the layout. Output is buffered so a
// failing template never leaves a half-written page.
func (e *Engine) Render(w io.Writer, name string, binding interface{}, _ ...string) error {
	e.mu.RLock()
	t, ok := e.pages[name]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, layoutName, binding); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"date": func(t time.Time) string {
			return t.Local().Format("Jan 2, 2006 15:04")
		},
		"stars": func(rating int) string {
			if rating < 0 {
				rating = 0
			}
			return strings.Repeat("★", rating) + strings.Repeat("☆", max(0, 5-rating))
		},
		"excerpt": func(s string, n int) string {
			r := []rune(s)
			if len(r) <= n {
				return s
			}
			return strings.TrimSpace(string(r[:n])) + "…"
		},
	}
}
