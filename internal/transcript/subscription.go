package transcript

import "sync"

type EventType int

const (
	EventAppended EventType = iota
	EventRemoved
	EventToggled
	EventCleared
)

// Event describes one change. Block is the zero value for EventCleared.
type Event struct {
	Type  EventType
	Block Block
}

// Subscription is returned by Subscribe; Dispose stops delivery and is safe
// to call more than once.
type Subscription interface {
	Dispose()
}

type subscribers struct {
	mu     sync.Mutex
	nextID int
	fns    map[int]func(Event)
	order  []int
}

func (s *subscribers) add(fn func(Event)) Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]func(Event))
	}
	s.nextID++
	id := s.nextID
	s.fns[id] = fn
	s.order = append(s.order, id)
	return &subscription{owner: s, id: id}
}

func (s *subscribers) remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.fns[id]; !ok {
		return
	}
	delete(s.fns, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *subscribers) publish(ev Event) {
	s.mu.Lock()
	fns := make([]func(Event), 0, len(s.order))
	for _, id := range s.order {
		fns = append(fns, s.fns[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

type subscription struct {
	owner *subscribers
	id    int
	once  sync.Once
}

func (s *subscription) Dispose() {
	s.once.Do(func() { s.owner.remove(s.id) })
}

// Subscriptions disposes a group of subscriptions together.
type Subscriptions []Subscription

func (ss Subscriptions) Dispose() {
	for _, s := range ss {
		s.Dispose()
	}
}
