package templates

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/locgrid/internal/core"
	"github.com/JonMunkholm/locgrid/internal/lang"
)

// EditorParams configures the editor page.
type EditorParams struct {
	Targets            []lang.Target
	Folders            []core.FolderInfo
	TranslationEnabled bool
	FoldersEnabled     bool
	SaveToServer       bool
	MaxFileSize        int64
	MaxFiles           int
}

// EditorPage is the main editing page. The grid itself is rendered by
// editor.js from the table API.
func EditorPage(p EditorParams) templ.Component {
	return page("locgrid", "editor", editorBody(p))
}

func editorBody(p EditorParams) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{w: out}
		w.raw(`<main id="app"`,
			attr("data-translation", strconv.FormatBool(p.TranslationEnabled)),
			attr("data-save-server", strconv.FormatBool(p.SaveToServer)),
			attr("data-max-file-size", strconv.FormatInt(p.MaxFileSize, 10)),
			attr("data-max-files", strconv.Itoa(p.MaxFiles)),
			`>`)

		w.raw(`<header class="toolbar">`,
			`<h1>locgrid</h1>`,
			`<label class="button">Open files<input id="file-input" type="file" accept=".csv" multiple hidden></label>`,
			`<label class="button">Open folder<input id="folder-input" type="file" webkitdirectory hidden></label>`)

		if p.FoldersEnabled {
			w.raw(`<select id="server-folder"><option value="">Server folder…</option>`)
			for _, f := range p.Folders {
				w.raw(`<option`, attr("value", f.Name), `>`)
				w.text(f.Name + " (" + strconv.Itoa(f.Files) + ")")
				w.raw(`</option>`)
			}
			w.raw(`</select>`)
		}

		w.raw(`<span class="spacer"></span>`)
		if p.TranslationEnabled {
			w.raw(`<select id="target-lang"><option value="">Per column</option>`)
			for _, t := range p.Targets {
				w.raw(`<option`, attr("value", t.Code), `>`)
				w.text(t.Name)
				w.raw(`</option>`)
			}
			w.raw(`</select>`,
				`<button id="auto-translate" type="button" disabled>Auto translate</button>`,
				`<button id="cancel-translate" type="button" hidden>Cancel</button>`)
		}
		w.raw(`<a id="preview-link" class="button" target="_blank" hidden>Preview</a>`,
			`<button id="save" type="button" disabled>Save</button>`,
			`</header>`)

		w.raw(`<section id="status" class="status">`,
			`<span id="stats"></span>`,
			`<progress id="progress" max="100" value="0" hidden></progress>`,
			`<span id="progress-text"></span>`,
			`</section>`,
			`<section id="alerts"></section>`,
			`<section id="warnings" class="warnings"></section>`,
			`<section id="grid-wrap"><p class="empty-state">Open one CSV per language to start editing.</p></section>`,
			`</main>`,
			`<script src="/static/editor.js" defer></script>`)
		return w.err
	})
}
