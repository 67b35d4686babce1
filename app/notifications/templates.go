// Package notifications holds the messages sent to shop admins.
package notifications

import (
	"bytes"
	"embed"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"

	"github.com/shopspring/decimal"
)

//go:embed templates/*
var templateFS embed.FS

var funcs = map[string]any{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"date":  func(t time.Time) string { return t.Format(time.DateOnly) },
}

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
	textTemplates = texttemplate.Must(texttemplate.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.txt"))
)

// Rendered holds both bodies of a message.
type Rendered struct {
	HTML string
	Text string
}

// render executes name.html and name.txt with data.
func render(name string, data any) (Rendered, error) {
	var h, t bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&h, name+".html", data); err != nil {
		return Rendered{}, err
	}
	if err := textTemplates.ExecuteTemplate(&t, name+".txt", data); err != nil {
		return Rendered{}, err
	}
	return Rendered{HTML: h.String(), Text: t.String()}, nil
}
