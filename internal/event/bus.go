package event

// Handler observes published events. Handlers must not call back into the
// simulation; the bus is an observer channel only.
type Handler func(Event)

type subscription struct {
	id int
	fn Handler
}

// Bus is a synchronous publish/subscribe hub for monitoring taps.
// A nil *Bus is valid and drops everything.
type Bus struct {
	nextID int
	byKind map[Kind][]subscription
	all    []subscription
}

// NewBus allocates an empty Bus.
func NewBus() *Bus {
	return &Bus{byKind: make(map[Kind][]subscription)}
}

// Subscribe registers fn for the given kinds, or for every kind when none
// are given. The returned func removes the subscription.
func (b *Bus) Subscribe(fn Handler, kinds ...Kind) (unsubscribe func()) {
	if b == nil {
		return func() {}
	}
	b.nextID++
	sub := subscription{id: b.nextID, fn: fn}
	if len(kinds) == 0 {
		b.all = append(b.all, sub)
		return func() { b.all = without(b.all, sub.id) }
	}
	for _, k := range kinds {
		b.byKind[k] = append(b.byKind[k], sub)
	}
	return func() {
		for _, k := range kinds {
			b.byKind[k] = without(b.byKind[k], sub.id)
		}
	}
}

// Publish delivers ev to kind subscribers first, then to catch-all
// subscribers, each in subscription order.
func (b *Bus) Publish(ev Event) {
	if b == nil {
		return
	}
	for _, s := range b.byKind[ev.Kind] {
		s.fn(ev)
	}
	for _, s := range b.all {
		s.fn(ev)
	}
}

// Active reports whether anyone listens for kind.
func (b *Bus) Active(kind Kind) bool {
	if b == nil {
		return false
	}
	return len(b.all) > 0 || len(b.byKind[kind]) > 0
}

func without(subs []subscription, id int) []subscription {
	out := subs[:0:0]
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}
