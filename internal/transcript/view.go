// Package transcript holds the conversation view state: the ordered blocks
// shown to the user, the pending placeholders of in-flight questions and the
// per-block disclosure state of reference lists. Renderers observe it through
// subscriptions and never mutate it directly.
package transcript

import (
	"errors"
	"fmt"
	"sync"

	"docqa/internal/model"
)

const PendingText = "Thinking..."

var (
	ErrBlockNotFound = errors.New("transcript block not found")
	ErrNoDisclosure  = errors.New("transcript block has no reference details")
)

type BlockID int64

type Kind int

const (
	KindUser Kind = iota
	KindBot
	KindSystem
	KindPending
)

func (k Kind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindBot:
		return "bot"
	case KindSystem:
		return "system"
	case KindPending:
		return "pending"
	default:
		return "unknown"
	}
}

// Block is a rendered copy of one transcript entry.
type Block struct {
	ID         BlockID
	Kind       Kind
	Text       string
	References []model.Reference
	Disclosure *Disclosure
}

// Disclosure is the collapsed/expanded state of a bot block's reference list.
type Disclosure struct {
	Count    int
	Expanded bool
}

func (d Disclosure) Summary() string {
	return fmt.Sprintf("%d references found.", d.Count)
}

func (d Disclosure) Label() string {
	if d.Expanded {
		return "Hide details"
	}
	return "Show details"
}

// PendingHandle locates one pending placeholder.
type PendingHandle struct {
	id BlockID
}

func (h PendingHandle) ID() BlockID { return h.id }

type entry struct {
	id         BlockID
	kind       Kind
	turn       model.Turn
	disclosure *Disclosure
}

// View is safe for concurrent use. Changes are delivered to subscribers one
// at a time, in the order they were applied.
type View struct {
	// pub is held from a change until its event is delivered. It is always
	// taken before mu.
	pub     sync.Mutex
	mu      sync.Mutex
	nextID  BlockID
	entries []*entry
	latest  BlockID
	subs    subscribers
}

func NewView() *View {
	return &View{}
}

// AppendTurn appends a user or bot turn. System turns are routed to the
// system path so they never carry a disclosure.
func (v *View) AppendTurn(turn model.Turn) BlockID {
	switch turn.Speaker {
	case model.SpeakerSystem:
		return v.append(KindSystem, model.SystemTurn(turn.Text))
	case model.SpeakerBot:
		return v.append(KindBot, turn)
	default:
		return v.append(KindUser, turn)
	}
}

func (v *View) AppendSystem(text string) BlockID {
	return v.append(KindSystem, model.SystemTurn(text))
}

func (v *View) AppendPending() PendingHandle {
	return PendingHandle{id: v.append(KindPending, model.Turn{Speaker: model.SpeakerBot, Text: PendingText})}
}

func (v *View) append(kind Kind, turn model.Turn) BlockID {
	v.pub.Lock()
	defer v.pub.Unlock()

	v.mu.Lock()
	v.nextID++
	e := &entry{id: v.nextID, kind: kind, turn: turn}
	if kind == KindBot && len(turn.References) > 0 {
		refs := make([]model.Reference, len(turn.References))
		copy(refs, turn.References)
		e.turn.References = refs
		e.disclosure = &Disclosure{Count: len(refs)}
	}
	v.entries = append(v.entries, e)
	v.latest = e.id
	block := e.block()
	v.mu.Unlock()

	v.subs.publish(Event{Type: EventAppended, Block: block})
	return block.ID
}

// RemovePending removes the placeholder once. Later calls for the same handle
// report false and change nothing.
func (v *View) RemovePending(h PendingHandle) bool {
	v.pub.Lock()
	defer v.pub.Unlock()

	v.mu.Lock()
	idx := v.indexOf(h.id)
	if idx < 0 || v.entries[idx].kind != KindPending {
		v.mu.Unlock()
		return false
	}
	removed := v.entries[idx].block()
	v.entries = append(v.entries[:idx], v.entries[idx+1:]...)
	if v.latest == h.id {
		v.latest = 0
		if n := len(v.entries); n > 0 {
			v.latest = v.entries[n-1].id
		}
	}
	v.mu.Unlock()

	v.subs.publish(Event{Type: EventRemoved, Block: removed})
	return true
}

// Toggle flips the disclosure of a bot block and reports the new state.
func (v *View) Toggle(id BlockID) (bool, error) {
	v.pub.Lock()
	defer v.pub.Unlock()

	v.mu.Lock()
	idx := v.indexOf(id)
	if idx < 0 {
		v.mu.Unlock()
		return false, ErrBlockNotFound
	}
	e := v.entries[idx]
	if e.disclosure == nil {
		v.mu.Unlock()
		return false, ErrNoDisclosure
	}
	e.disclosure.Expanded = !e.disclosure.Expanded
	expanded := e.disclosure.Expanded
	block := e.block()
	v.mu.Unlock()

	v.subs.publish(Event{Type: EventToggled, Block: block})
	return expanded, nil
}

// Clear drops every block, pending placeholders included.
func (v *View) Clear() {
	v.pub.Lock()
	defer v.pub.Unlock()

	v.mu.Lock()
	v.entries = nil
	v.latest = 0
	v.mu.Unlock()

	v.subs.publish(Event{Type: EventCleared})
}

func (v *View) Blocks() []Block {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Block, len(v.entries))
	for i, e := range v.entries {
		out[i] = e.block()
	}
	return out
}

func (v *View) Block(id BlockID) (Block, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	idx := v.indexOf(id)
	if idx < 0 {
		return Block{}, false
	}
	return v.entries[idx].block(), true
}

// Latest is the newest block, the position renderers scroll to. It is zero
// for an empty view.
func (v *View) Latest() BlockID {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.latest
}

func (v *View) PendingCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := 0
	for _, e := range v.entries {
		if e.kind == KindPending {
			n++
		}
	}
	return n
}

// Subscribe registers fn for every change. Handlers run on the goroutine that
// made the change, after the state lock is released, so they may read the
// view. They must not change it.
func (v *View) Subscribe(fn func(Event)) Subscription {
	return v.subs.add(fn)
}

func (v *View) indexOf(id BlockID) int {
	for i, e := range v.entries {
		if e.id == id {
			return i
		}
	}
	return -1
}

func (e *entry) block() Block {
	b := Block{
		ID:         e.id,
		Kind:       e.kind,
		Text:       e.turn.Text,
		References: e.turn.References,
	}
	if e.disclosure != nil {
		d := *e.disclosure
		b.Disclosure = &d
	}
	return b
}
