// Package views holds the console page templates.
package views

import (
	"embed"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/template/django/v3"

	"github.com/spec-kit/library-console/internal/auth"
	"github.com/spec-kit/library-console/internal/domain"
)

//go:embed templates/*.django
var templatesFS embed.FS

// Layout is the page frame every view renders into.
const Layout = "layout"

// New builds the template engine. hasRole and the formatting helpers are
// available in every template.
func New(policy auth.Policy) *django.Engine {
	engine := django.NewPathForwardingFileSystem(http.FS(templatesFS), "/templates", ".django")

	engine.AddFunc("hasRole", func(roles ...string) bool {
		set := make([]auth.Role, 0, len(roles))
		for _, r := range roles {
			set = append(set, domain.NormalizeRole(r))
		}
		return policy.HasRole(set...)
	})
	engine.AddFunc("shortId", domain.ShortID)
	engine.AddFunc("money", Money)
	engine.AddFunc("date", Date)
	engine.AddFunc("dueClass", func(v any) string {
		t, ok := asTime(v)
		if !ok {
			return string(domain.DueOK)
		}
		return string(domain.ClassifyDue(t, time.Now()))
	})
	return engine
}

// Money renders an amount in hryvnias.
func Money(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d₴", int64(v))
	}
	return fmt.Sprintf("%.2f₴", v)
}

// Date renders an optional timestamp as a calendar date.
func Date(v any) string {
	t, ok := asTime(v)
	if !ok {
		return "-"
	}
	return t.Format(domain.DateLayout)
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	default:
		return time.Time{}, false
	}
}
