package blogsvc

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/mkrupp/quill/internal/domain"
	"github.com/mkrupp/quill/internal/infra/form"
	"github.com/mkrupp/quill/internal/infra/session"
)

//go:embed templates static
var assets embed.FS

const layoutTemplate = "templates/layout.html"

// pageTemplates lists the pages rendered inside the layout.
//
//nolint:gochecknoglobals
var pageTemplates = []string{
	"home",
	"about",
	"register",
	"login",
	"account",
	"create_post",
	"post",
	"user_posts",
	"reset_request",
	"reset_password",
	"error",
}

// pageData is the view model handed to every template.
type pageData struct {
	Title  string
	Legend string

	CurrentUser *domain.User
	Flashes     []session.Flash
	CSRFField   string
	CSRFToken   string

	Form *form.Result

	Posts    domain.Page[*domain.Post]
	PageBase string
	Post     *domain.Post
	User     *domain.User
	ImageURL string

	Status  int
	Heading string
	Message string
}

func (ht *HTTPTransport) parseTemplates() (map[string]*template.Template, error) {
	funcs := template.FuncMap{
		"url":    routeURL,
		"avatar": ht.auth.AvatarURL,
		"date":   func(t time.Time) string { return t.Format("2006-01-02") },
		"page":   func(base string, n int) string { return base + "?page=" + strconv.Itoa(n) },
	}

	layout, err := template.New("layout.html").Funcs(funcs).ParseFS(assets, layoutTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	pages := make(map[string]*template.Template, len(pageTemplates))

	for _, name := range pageTemplates {
		tmpl, err := layout.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout: %w", err)
		}

		if _, err := tmpl.ParseFS(assets, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}

		pages[name] = tmpl
	}

	return pages, nil
}

// render executes the named page into a buffer and writes it with status.
// Pending flashes are consumed.
func (ht *HTTPTransport) render(w http.ResponseWriter, r *http.Request, status int, name string, data *pageData) error {
	tmpl, ok := ht.pages[name]
	if !ok {
		return fmt.Errorf("%w: %q", errUnknownTemplate, name)
	}

	sess := session.FromContext(r.Context())

	data.CurrentUser = currentUser(r.Context())
	data.Flashes = sess.PopFlashes()
	data.CSRFField = session.CSRFField
	data.CSRFToken = sess.CSRFToken

	if data.Form == nil {
		data.Form = form.Fill(map[string]any{})
	}

	var buf bytes.Buffer

	if err := tmpl.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		return fmt.Errorf("execute %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}

	return nil
}

// redirect answers with 302 Found.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusFound)
}
