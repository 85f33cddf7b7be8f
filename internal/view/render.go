package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/splitrail/splitrail-web/pkg/apitoken"
	"github.com/splitrail/splitrail-web/pkg/format"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageNames = []string{"home", "tokens", "dashboard"}

type Renderer struct {
	pages map[string]*template.Template
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"mask":        apitoken.Mask,
		"largeNumber": func(v int64) string { return format.FormatLargeNumber(v) },
		"currency":    func(v float64, locale string) string { return format.FormatCurrency(v, "USD", locale) },
		"number":      func(v int64, locale string) string { return format.FormatNumber(float64(v), locale, nil) },
		"date":        func(t time.Time, locale string) string { return format.FormatDate(t, locale, nil) },
		"relative":    format.RelativeTime,
		"icon":        format.LanguageIcon,
		"truncate":    format.Truncate,
	}
}

func New() (*Renderer, error) {
	base, err := template.New("layout.html").Funcs(funcs()).
		ParseFS(templatesFS, "templates/layout.html", "templates/identity.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	r := &Renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(templatesFS, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render writes the named page wrapped in the site layout.
func (r *Renderer) Render(w io.Writer, name string, page Page) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	if page.Title == "" {
		page.Title = SiteTitle
	}
	if page.Theme == "" {
		page.Theme = ThemeSystem
	}
	if page.Now.IsZero() {
		page.Now = time.Now()
	}
	return t.ExecuteTemplate(w, "layout.html", page)
}

// RenderIdentity writes only the navbar identity block.
func (r *Renderer) RenderIdentity(w io.Writer, s Session) error {
	return r.pages["home"].ExecuteTemplate(w, "identity", s)
}
