package web

import (
	"database/sql"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/inventar/internal/auth"
	"github.com/erazemk/inventar/internal/inventory"
	"github.com/erazemk/inventar/internal/model"
	webembed "github.com/erazemk/inventar/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"roleAtLeast": model.RoleAtLeast,
		"roleName": func(role string) string {
			switch role {
			case model.RoleAdmin:
				return "Administrator"
			case model.RoleStaff:
				return "Staff"
			case model.RoleTeacher:
				return "Teacher"
			case model.RoleStudent:
				return "Student"
			default:
				return role
			}
		},
		"statusName": func(status model.ResourceStatus) string {
			switch status {
			case model.StatusAvailable:
				return "Available"
			case model.StatusLowStock:
				return "Low stock"
			case model.StatusOutOfStock:
				return "Out of stock"
			case model.StatusMaintenance:
				return "Maintenance"
			default:
				return string(status)
			}
		},
		"typeName": func(t model.TransactionType) string {
			switch t {
			case model.TypeCheckOut:
				return "Check-out"
			case model.TypeCheckIn:
				return "Check-in"
			case model.TypeAddition:
				return "Addition"
			case model.TypeRemoval:
				return "Removal"
			default:
				return string(t)
			}
		},
		"date": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return t.Local().Format("2006-01-02")
		},
		"datetime": func(t time.Time) string {
			return t.Local().Format("2006-01-02 15:04")
		},
	}
}

var pages = []string{
	"login.html",
	"dashboard.html",
	"resources.html",
	"resource_detail.html",
	"transactions.html",
	"users.html",
	"settings.html",
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title   string
	User    *auth.Claims
	Error   string
	Success string
}

// Server holds all dependencies for page handlers.
type Server struct {
	DB        *sql.DB
	Svc       *inventory.Service
	Issuer    *auth.Issuer
	Templates *Templates
}

func (s *Server) page(r *http.Request, title string) PageData {
	return PageData{
		Title:   title,
		User:    GetWebClaims(r.Context()),
		Error:   r.URL.Query().Get("error"),
		Success: r.URL.Query().Get("ok"),
	}
}
