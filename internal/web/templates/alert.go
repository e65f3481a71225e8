package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// ErrorAlert is the error fragment swapped into the page for partial
// requests.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<div class="alert alert-error" role="alert"><p class="alert-message">`)
		w.text(message)
		w.raw(`</p>`)
		if action != "" {
			w.raw(`<p class="alert-action">`)
			w.text(action)
			w.raw(`</p>`)
		}
		if code != "" {
			w.raw(`<p class="alert-code">Code: `)
			w.text(code)
			w.raw(`</p>`)
		}
		w.raw(`</div>`)
		return w.err
	})
}
