package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/template/html/v2"
	"github.com/shopspring/decimal"

	"github.com/itec-nfc/inventario/internal/model"
	webembed "github.com/itec-nfc/inventario/web"
)

// FuncMap returns the template function map.
func FuncMap() map[string]any {
	return map[string]any{
		"roleAtLeast": model.RoleAtLeast,
		"roleName":    roleName,
		"kindName":    kindName,
		"money":       money,
		"date":        formatDate,
		"dateptr": func(t *time.Time) string {
			if t == nil {
				return "—"
			}
			return formatDate(*t)
		},
		"str": func(s *string) string {
			if s == nil || *s == "" {
				return "—"
			}
			return *s
		},
		"idEq": func(a *int64, b int64) bool {
			return a != nil && *a == b
		},
	}
}

func roleName(role string) string {
	switch role {
	case model.RoleAdmin:
		return "Administrador"
	case model.RoleTechnician:
		return "Técnico"
	case model.RoleUser:
		return "Usuario"
	default:
		return role
	}
}

func kindName(k model.MovementKind) string {
	switch k {
	case model.MovementDebit:
		return "Descuenta stock"
	case model.MovementCredit:
		return "Repone stock"
	default:
		return "Sin efecto en stock"
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Local().Format("02/01/2006 15:04")
}

// money formats an amount in pesos with dot thousands separators, keeping
// cents only when present: 1234567.5 becomes "$1.234.567,50".
func money(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	whole, cents, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if d.IsNegative() {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if cents != "00" {
		b.WriteString("," + cents)
	}
	return b.String()
}

// Engine loads the embedded page templates. Each page renders inside
// layout.html through {{embed}}.
func Engine() (*html.Engine, error) {
	engine := html.NewFileSystem(http.FS(webembed.TemplatesFS()), ".html")
	engine.AddFuncMap(FuncMap())
	if err := engine.Load(); err != nil {
		return nil, err
	}
	return engine, nil
}
