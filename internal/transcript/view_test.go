package transcript

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/model"
)

func refs(names ...string) []model.Reference {
	out := make([]model.Reference, len(names))
	for i, n := range names {
		out[i] = model.Reference{Source: model.StringPtr(n), Page: model.PageOf("1"), Text: "excerpt " + n}
	}
	return out
}

func TestAppendOrderAndLatest(t *testing.T) {
	v := NewView()
	assert.Equal(t, BlockID(0), v.Latest())

	u := v.AppendTurn(model.UserTurn("hello"))
	assert.Equal(t, u, v.Latest())
	b := v.AppendTurn(model.BotTurn("hi", nil))
	assert.Equal(t, b, v.Latest())

	blocks := v.Blocks()
	require.Len(t, blocks, 2)
	assert.Equal(t, KindUser, blocks[0].Kind)
	assert.Equal(t, KindBot, blocks[1].Kind)
	assert.Nil(t, blocks[1].Disclosure, "zero references must not render a disclosure")
}

func TestReferenceOrderPreserved(t *testing.T) {
	v := NewView()
	in := refs("c.pdf", "a.pdf", "b.pdf")
	id := v.AppendTurn(model.BotTurn("answer", in))

	block, ok := v.Block(id)
	require.True(t, ok)
	require.NotNil(t, block.Disclosure)
	assert.Equal(t, "3 references found.", block.Disclosure.Summary())
	assert.False(t, block.Disclosure.Expanded)

	got := make([]string, len(block.References))
	for i, r := range block.References {
		got[i] = r.SourceLabel()
	}
	assert.Equal(t, []string{"c.pdf", "a.pdf", "b.pdf"}, got)

	in[0].Text = "mutated"
	block, _ = v.Block(id)
	assert.Equal(t, "excerpt c.pdf", block.References[0].Text)
}

func TestToggleIsInvolution(t *testing.T) {
	v := NewView()
	id := v.AppendTurn(model.BotTurn("answer", refs("a.pdf")))

	before, _ := v.Block(id)
	assert.Equal(t, "Show details", before.Disclosure.Label())

	expanded, err := v.Toggle(id)
	require.NoError(t, err)
	assert.True(t, expanded)
	mid, _ := v.Block(id)
	assert.Equal(t, "Hide details", mid.Disclosure.Label())
	assert.Equal(t, before.Disclosure.Summary(), mid.Disclosure.Summary())

	expanded, err = v.Toggle(id)
	require.NoError(t, err)
	assert.False(t, expanded)
	after, _ := v.Block(id)
	assert.Equal(t, before, after)
}

func TestToggleErrors(t *testing.T) {
	v := NewView()
	_, err := v.Toggle(42)
	assert.ErrorIs(t, err, ErrBlockNotFound)

	sys := v.AppendSystem("notice")
	_, err = v.Toggle(sys)
	assert.ErrorIs(t, err, ErrNoDisclosure)

	// A system turn routed through AppendTurn keeps the system path.
	id := v.AppendTurn(model.Turn{Speaker: model.SpeakerSystem, Text: "x", References: refs("a.pdf")})
	block, _ := v.Block(id)
	assert.Equal(t, KindSystem, block.Kind)
	assert.Nil(t, block.Disclosure)
}

func TestRemovePendingOnce(t *testing.T) {
	v := NewView()
	v.AppendTurn(model.UserTurn("q"))
	h := v.AppendPending()
	assert.Equal(t, 1, v.PendingCount())
	assert.Equal(t, h.ID(), v.Latest())

	assert.True(t, v.RemovePending(h))
	assert.False(t, v.RemovePending(h))
	assert.Equal(t, 0, v.PendingCount())
	assert.Len(t, v.Blocks(), 1)
}

func TestRemovePendingAfterClear(t *testing.T) {
	v := NewView()
	h := v.AppendPending()
	v.Clear()
	assert.False(t, v.RemovePending(h))
	assert.Empty(t, v.Blocks())
}

func TestSubscriptionsDispose(t *testing.T) {
	v := NewView()
	var events []EventType
	sub := v.Subscribe(func(ev Event) { events = append(events, ev.Type) })

	h := v.AppendPending()
	v.RemovePending(h)
	id := v.AppendTurn(model.BotTurn("a", refs("x")))
	_, _ = v.Toggle(id)
	v.Clear()

	sub.Dispose()
	sub.Dispose()
	v.AppendSystem("ignored")

	assert.Equal(t, []EventType{EventAppended, EventRemoved, EventAppended, EventToggled, EventCleared}, events)
}

func TestSubscribersSeeChangesInViewOrder(t *testing.T) {
	v := NewView()
	var seen []BlockID
	sub := v.Subscribe(func(ev Event) {
		if ev.Type == EventAppended {
			seen = append(seen, ev.Block.ID)
		}
	})
	defer sub.Dispose()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				v.AppendSystem(fmt.Sprintf("%d-%d", i, j))
			}
		}(i)
	}
	wg.Wait()

	blocks := v.Blocks()
	require.Len(t, seen, len(blocks))
	for i, b := range blocks {
		assert.Equal(t, b.ID, seen[i])
	}
}
