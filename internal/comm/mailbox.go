package comm

// AnySource matches a message from any process.
const AnySource = -1

// Message is one unit of data passed between processes.
type Message struct {
	Seq         uint64  `json:"seq"` // per-sender sequence number
	Source      int     `json:"source"`
	Target      int     `json:"target"`
	Tag         string  `json:"tag,omitempty"`
	Size        int     `json:"size"`
	Data        any     `json:"-"`
	SentAt      float64 `json:"sent_at"`
	DeliveredAt float64 `json:"delivered_at"`
	Async       bool    `json:"async"`
}

// Match selects messages by source and tag. The zero Match is a wildcard.
type Match struct {
	source    int
	hasSource bool
	tag       string
	hasTag    bool
}

// MatchOption narrows a Match.
type MatchOption func(*Match)

// FromSource matches messages sent by process id.
func FromSource(id int) MatchOption {
	return func(m *Match) { m.source, m.hasSource = id, true }
}

// WithTag matches messages carrying exactly tag.
func WithTag(tag string) MatchOption {
	return func(m *Match) { m.tag, m.hasTag = tag, true }
}

// NewMatch builds a Match; without options it matches everything.
func NewMatch(opts ...MatchOption) Match {
	var m Match
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Source is the required sender, or AnySource.
func (m Match) Source() int {
	if !m.hasSource {
		return AnySource
	}
	return m.source
}

// Matches reports whether msg satisfies m.
func (m Match) Matches(msg *Message) bool {
	if m.hasSource && msg.Source != m.source {
		return false
	}
	if m.hasTag && msg.Tag != m.tag {
		return false
	}
	return true
}

// Mailbox is a FIFO of unconsumed messages owned by the receiving process.
type Mailbox struct {
	msgs []*Message
}

// Put appends msg.
func (b *Mailbox) Put(msg *Message) {
	b.msgs = append(b.msgs, msg)
}

// Take removes and returns the oldest message satisfying m.
func (b *Mailbox) Take(m Match) (*Message, bool) {
	for i, msg := range b.msgs {
		if m.Matches(msg) {
			b.msgs = append(b.msgs[:i], b.msgs[i+1:]...)
			return msg, true
		}
	}
	return nil, false
}

// Peek returns the oldest message satisfying m without removing it.
func (b *Mailbox) Peek(m Match) (*Message, bool) {
	for _, msg := range b.msgs {
		if m.Matches(msg) {
			return msg, true
		}
	}
	return nil, false
}

// Len is the number of queued messages.
func (b *Mailbox) Len() int { return len(b.msgs) }

// Count returns how many queued messages come from one of sources, or all
// queued messages when no source is given.
func (b *Mailbox) Count(sources ...int) int {
	if len(sources) == 0 {
		return len(b.msgs)
	}
	n := 0
	for _, msg := range b.msgs {
		for _, s := range sources {
			if msg.Source == s {
				n++
				break
			}
		}
	}
	return n
}
