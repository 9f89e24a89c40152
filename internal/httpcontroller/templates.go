package httpcontroller

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/stressnet-go/internal/logger"
)

// ViewsFs holds the page templates.
//
//go:embed views/*.html
var ViewsFs embed.FS

// TemplateRenderer is a custom HTML template renderer for Echo framework.
type TemplateRenderer struct {
	templates *template.Template
}

// Render renders a template with the given data.
func (t *TemplateRenderer) Render(w io.Writer, name string, data any, c echo.Context) error {
	// Render into a buffer so a failing template never sends a partial page
	var buf bytes.Buffer
	if err := t.templates.ExecuteTemplate(&buf, name, data); err != nil {
		GetLogger().Error("error executing template",
			logger.String("template", name),
			logger.Error(err))
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

// setupTemplateRenderer configures the template renderer for the server
func (s *Server) setupTemplateRenderer() {
	tmpl, err := parseTemplates()
	if err != nil {
		// templates are embedded, a parse failure is a build defect
		panic(fmt.Sprintf("failed to parse embedded templates: %v", err))
	}
	s.Echo.Renderer = &TemplateRenderer{templates: tmpl}
}

func parseTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFunctions()).ParseFS(ViewsFs, "views/*.html")
}

// templateFunctions returns a map of functions that can be used in templates
func templateFunctions() template.FuncMap {
	return template.FuncMap{
		"percent": percent,
		"upper":   strings.ToUpper,
	}
}

// percent formats a model output in [0, 1] as a percentage.
func percent(v float32) string {
	return fmt.Sprintf("%.1f%%", v*100)
}
