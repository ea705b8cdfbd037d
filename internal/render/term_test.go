package render

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/app"
	"docqa/internal/model"
	"docqa/internal/transcript"
)

func TestSanitizeStripsControlSequences(t *testing.T) {
	assert.Equal(t, "[31mred[0m\nnext\tcol", Sanitize("\x1b[31mred\x1b[0m\nnext\tcol"))
	assert.Equal(t, "bell", Sanitize("be\x07ll"))
}

func TestTerminalFollowsView(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(&out, true)
	view := transcript.NewView()
	sub := term.Attach(view)
	defer sub.Dispose()

	view.AppendTurn(model.UserTurn("question"))
	h := view.AppendPending()
	view.RemovePending(h)
	id := view.AppendTurn(model.BotTurn("answer", []model.Reference{
		{Source: model.StringPtr("policy.pdf"), Page: model.PageOf("2"), Text: "excerpt"},
	}))

	text := out.String()
	assert.Contains(t, text, "you> question")
	assert.Contains(t, text, transcript.PendingText)
	assert.Contains(t, text, "answer")
	assert.Contains(t, text, "[1] 1 references found.")
	assert.NotContains(t, text, "policy.pdf (Page 2)")

	got, ok := term.Number(1)
	require.True(t, ok)
	assert.Equal(t, id, got)

	_, err := view.Toggle(id)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "policy.pdf (Page 2)")

	view.Clear()
	_, ok = term.Number(1)
	assert.False(t, ok)
}

func TestTerminalCatalogAndIntake(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(&out, true)

	term.Catalog(app.CatalogState{Empty: true, Placeholder: app.EmptyCatalogPlaceholder})
	assert.Contains(t, out.String(), app.EmptyCatalogPlaceholder)

	out.Reset()
	term.Intake(app.IntakeState{
		Files:          []model.UploadFile{{Name: "a.pdf", Pages: 4}},
		SelectionLabel: "1 file(s) selected",
		TriggerLabel:   app.UploadLabel,
		Status:         app.UploadFailedStatus,
		StatusKind:     app.StatusError,
	})
	assert.Contains(t, out.String(), "1 file(s) selected [Upload]")
	assert.Contains(t, out.String(), "a.pdf (4 pages)")
	assert.Contains(t, out.String(), app.UploadFailedStatus)
}
