package render

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode"

	"github.com/fatih/color"

	"docqa/internal/app"
	"docqa/internal/transcript"
)

// Terminal prints transcript changes as they happen.
type Terminal struct {
	out io.Writer

	mu      sync.Mutex
	user    *color.Color
	bot     *color.Color
	system  *color.Color
	pending *color.Color
	header  *color.Color
	faint   *color.Color
	good    *color.Color
	bad     *color.Color
	numbers map[transcript.BlockID]int
	next    int
}

func NewTerminal(out io.Writer, noColor bool) *Terminal {
	t := &Terminal{
		out:     out,
		user:    color.New(color.FgCyan, color.Bold),
		bot:     color.New(color.FgGreen),
		system:  color.New(color.Faint, color.Italic),
		pending: color.New(color.Faint),
		header:  color.New(color.FgYellow),
		faint:   color.New(color.Faint),
		good:    color.New(color.FgGreen),
		bad:     color.New(color.FgRed),
		numbers: make(map[transcript.BlockID]int),
	}
	if noColor {
		for _, c := range []*color.Color{t.user, t.bot, t.system, t.pending, t.header, t.faint, t.good, t.bad} {
			c.DisableColor()
		}
	}
	return t
}

// Attach prints every appended block and every toggled disclosure of view.
func (t *Terminal) Attach(view *transcript.View) transcript.Subscription {
	return view.Subscribe(func(ev transcript.Event) {
		switch ev.Type {
		case transcript.EventAppended:
			t.Block(ev.Block)
		case transcript.EventToggled:
			t.References(ev.Block)
		case transcript.EventCleared:
			t.mu.Lock()
			t.numbers = make(map[transcript.BlockID]int)
			t.next = 0
			t.mu.Unlock()
		}
	})
}

// Number resolves the short index printed next to an answer with references
// back to its block.
func (t *Terminal) Number(n int) (transcript.BlockID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, num := range t.numbers {
		if num == n {
			return id, true
		}
	}
	return 0, false
}

func (t *Terminal) Block(b transcript.Block) {
	t.mu.Lock()
	defer t.mu.Unlock()

	text := Sanitize(b.Text)
	switch b.Kind {
	case transcript.KindUser:
		t.user.Fprintf(t.out, "you> %s\n", text)
	case transcript.KindBot:
		t.bot.Fprintln(t.out, text)
		if b.Disclosure != nil {
			t.next++
			t.numbers[b.ID] = t.next
			t.faint.Fprintf(t.out, "  [%d] %s (/toggle %d: %s)\n", t.next, b.Disclosure.Summary(), t.next, b.Disclosure.Label())
			if b.Disclosure.Expanded {
				t.referencesLocked(b)
			}
		}
	case transcript.KindSystem:
		t.system.Fprintf(t.out, "  %s\n", text)
	case transcript.KindPending:
		t.pending.Fprintf(t.out, "  %s\n", text)
	}
}

// References prints the reference list of b, or its collapsed summary.
func (t *Terminal) References(b transcript.Block) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if b.Disclosure == nil {
		return
	}
	if !b.Disclosure.Expanded {
		t.faint.Fprintf(t.out, "  %s (%s)\n", b.Disclosure.Summary(), b.Disclosure.Label())
		return
	}
	t.referencesLocked(b)
}

func (t *Terminal) referencesLocked(b transcript.Block) {
	for _, r := range b.References {
		t.header.Fprintf(t.out, "  - %s\n", Sanitize(r.Header()))
		for _, line := range strings.Split(Sanitize(r.Text), "\n") {
			fmt.Fprintf(t.out, "      %s\n", line)
		}
	}
}

func (t *Terminal) Catalog(state app.CatalogState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if state.Empty {
		t.faint.Fprintln(t.out, state.Placeholder)
		return
	}
	for _, d := range state.Documents {
		line := fmt.Sprintf("%4d  %s", d.ID, Sanitize(d.Filename))
		if d.UploadedAt != "" {
			line += "  " + t.faint.Sprint(Sanitize(d.UploadedAt))
		}
		fmt.Fprintln(t.out, line)
	}
}

func (t *Terminal) Intake(state app.IntakeState) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.out, "%s [%s]\n", state.SelectionLabel, state.TriggerLabel)
	for _, f := range state.Files {
		if f.Pages > 0 {
			t.faint.Fprintf(t.out, "  %s (%d pages)\n", Sanitize(f.Name), f.Pages)
			continue
		}
		t.faint.Fprintf(t.out, "  %s\n", Sanitize(f.Name))
	}
	switch state.StatusKind {
	case app.StatusSuccess:
		t.good.Fprintln(t.out, state.Status)
	case app.StatusError:
		t.bad.Fprintln(t.out, state.Status)
	}
}

// Notice prints a local, de-emphasized message that is not part of the
// transcript.
func (t *Terminal) Notice(format string, args ...interface{}) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.system.Fprintf(t.out, "  "+format+"\n", args...)
}

// Sanitize drops control characters so backend text cannot move the cursor
// or recolor the terminal. Newlines and tabs are kept.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
