// Package templates renders the editor pages as templ components.
package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

var esc = templ.EscapeString[string]

// writer collects the first write error so components can emit markup
// without checking every call.
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) raw(parts ...string) {
	for _, p := range parts {
		if w.err != nil {
			return
		}
		_, w.err = io.WriteString(w.w, p)
	}
}

func (w *writer) text(s string) {
	w.raw(esc(s))
}

func (w *writer) render(ctx context.Context, c templ.Component) {
	if w.err != nil {
		return
	}
	w.err = c.Render(ctx, w.w)
}

// page wraps body in the shared document shell.
func page(title string, bodyClass string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
			`<title>`)
		w.text(title)
		w.raw(`</title><link rel="stylesheet" href="/static/editor.css"></head>`,
			`<body class="`, esc(bodyClass), `">`)
		w.render(ctx, body)
		w.raw(`</body></html>`)
		return w.err
	})
}

func attr(name, value string) string {
	return " " + name + `="` + esc(value) + `"`
}
