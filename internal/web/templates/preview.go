package templates

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/locgrid/internal/core"
)

// PreviewParams is the data behind the save preview page.
type PreviewParams struct {
	SessionID string
	Label     string
	Files     []core.PreviewFile
}

// PreviewPage lists what each output file will contain, marking modified
// rows.
func PreviewPage(p PreviewParams) templ.Component {
	return page("Preview: "+p.Label, "preview", previewBody(p))
}

func previewBody(p PreviewParams) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<main class="preview"><h1>Preview: `)
		w.text(p.Label)
		w.raw(`</h1>`)

		if len(p.Files) == 0 {
			w.raw(`<p class="empty-state">No files loaded.</p>`)
		}
		for _, f := range p.Files {
			modified := 0
			for _, row := range f.Rows {
				if row.Modified {
					modified++
				}
			}
			w.raw(`<section class="preview-file"><h2>`)
			w.text(f.Name)
			w.raw(`</h2><p class="preview-summary">`,
				strconv.Itoa(len(f.Rows)), ` keys, `, strconv.Itoa(modified), ` modified · `,
				`<a`, attr("href", "/api/session/"+p.SessionID+"/export/"+strconv.Itoa(f.Index)), `>Download</a></p>`)
			w.raw(`<table><thead><tr><th>Key</th><th>Value</th></tr></thead><tbody>`)
			for _, row := range f.Rows {
				if row.Modified {
					w.raw(`<tr class="modified"><td>`)
				} else {
					w.raw(`<tr><td>`)
				}
				w.text(row.Key)
				w.raw(`</td><td>`)
				w.text(row.Value)
				w.raw(`</td></tr>`)
			}
			w.raw(`</tbody></table></section>`)
		}
		w.raw(`</main>`)
		return w.err
	})
}
