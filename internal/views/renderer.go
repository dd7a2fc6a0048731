// Package views renders the server-side HTML pages of the application
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/Sonukamble/TodoApp/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Page names accepted by Renderer.Render
const (
	PageLogin    = "login"
	PageRegister = "register"
	PageHome     = "home"
	PageAddTodo  = "add-todo"
	PageEditTodo = "edit-todo"
	PageNotFound = "not-found"
)

var pageNames = []string{PageLogin, PageRegister, PageHome, PageAddTodo, PageEditTodo, PageNotFound}

// PageData is the data every page template is executed with
type PageData struct {
	Title    string
	Username string
	Flash    string
	Error    string
	Todos    []models.Todo
	Todo     *models.Todo
	Values   map[string]string
}

// Renderer executes the embedded page templates. Every page is parsed
// together with the shared layout once, at construction.
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"priorities": func() []int {
		p := make([]int, 0, models.MaxPriority-models.MinPriority+1)
		for i := models.MinPriority; i <= models.MaxPriority; i++ {
			p = append(p, i)
		}
		return p
	},
}

// NewRenderer parses all page templates
func NewRenderer() (*Renderer, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &Renderer{pages: pages}, nil
}

// Render writes the named page with the given status.
// The page is executed into a buffer first so a template error never leaves a half-written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data *PageData) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	if data == nil {
		data = &PageData{}
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("failed to execute %s template: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// StaticHandler serves the embedded stylesheets. Mount it under /static/.
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// embedded directory always exists
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
