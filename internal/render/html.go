// Package render draws the transcript and the document controls, as an
// HTML page for the local web host and as colored text for the terminal.
package render

import (
	"embed"
	"fmt"
	"html/template"

	"docqa/internal/app"
	"docqa/internal/model"
	"docqa/internal/transcript"
)

const pageTemplate = "page"

//go:embed templates/*.tmpl
var templateFS embed.FS

// Templates parses the embedded page templates. html/template escapes every
// value, so answer text and excerpts are always shown literally.
func Templates() *template.Template {
	return template.Must(template.New("").ParseFS(templateFS, "templates/*.tmpl"))
}

type BlockView struct {
	ID            transcript.BlockID
	Anchor        string
	Kind          string
	Text          string
	HasDisclosure bool
	Summary       string
	Label         string
	Expanded      bool
	References    []ReferenceView
}

type ReferenceView struct {
	Header string
	Text   string
}

// PageData is everything one page render needs. Refresh makes the browser
// reload while an answer or an upload is still outstanding.
type PageData struct {
	Title          string
	Session        string
	Blocks         []BlockView
	Intake         app.IntakeState
	Catalog        app.CatalogState
	Refresh        bool
	RefreshSeconds int
}

func Anchor(id transcript.BlockID) string {
	return fmt.Sprintf("turn-%d", id)
}

// Blocks converts transcript blocks into template rows. References are only
// materialized for expanded disclosures.
func Blocks(blocks []transcript.Block) []BlockView {
	out := make([]BlockView, 0, len(blocks))
	for _, b := range blocks {
		v := BlockView{
			ID:     b.ID,
			Anchor: Anchor(b.ID),
			Kind:   b.Kind.String(),
			Text:   b.Text,
		}
		if d := b.Disclosure; d != nil {
			v.HasDisclosure = true
			v.Summary = d.Summary()
			v.Label = d.Label()
			v.Expanded = d.Expanded
			if d.Expanded {
				v.References = references(b.References)
			}
		}
		out = append(out, v)
	}
	return out
}

func references(refs []model.Reference) []ReferenceView {
	out := make([]ReferenceView, 0, len(refs))
	for _, r := range refs {
		out = append(out, ReferenceView{Header: r.Header(), Text: r.Text})
	}
	return out
}

// PageName is the template name to hand to gin's HTML renderer.
func PageName() string {
	return pageTemplate
}
