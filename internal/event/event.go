package event

// Kind names a monitoring tap.
type Kind string

const (
	EdgeDiscovered Kind = "edge_discovered"
	EdgeCalculated Kind = "edge_calculated"
	NodeDiscovered Kind = "node_discovered"
	Wait           Kind = "wait"   // unbounded suspension started
	Notify         Kind = "notify" // blocked process woken
	Sleep          Kind = "sleep"  // bounded suspension started
	Send           Kind = "send"
	Receive        Kind = "receive"
	AsyncSend      Kind = "async_send"
	AsyncReceive   Kind = "async_receive"
	StoragePush    Kind = "push"
	StoragePop     Kind = "pop"
	StorageChanged Kind = "changed"
	Tick           Kind = "tick" // one engine event processed
)

// Kinds lists every tap in a stable order.
var Kinds = []Kind{
	EdgeDiscovered, EdgeCalculated, NodeDiscovered,
	Wait, Notify, Sleep,
	Send, Receive, AsyncSend, AsyncReceive,
	StoragePush, StoragePop, StorageChanged,
	Tick,
}

// Event is one observation published on a Bus.
type Event struct {
	Kind    Kind    `json:"kind"`
	Time    float64 `json:"time"`
	Process int     `json:"process"` // -1 for engine-level taps
	Node    string  `json:"node,omitempty"`
	Edge    string  `json:"edge,omitempty"`
	Peer    int     `json:"peer,omitempty"` // other end of a message
	Value   float64 `json:"value"`          // duration, size or queue length depending on Kind
}
