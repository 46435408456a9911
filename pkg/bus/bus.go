// Package bus is the thread-safe FIFO between background work and the
// single cooperative loop.
//
// Background goroutines Post outcome and notification messages, control
// surfaces Post commands such as toggle and reload, and the loop drains
// the queue on every poll cycle. Post never blocks; the queue is
// unbounded.
//
// Example usage:
//
//	b := bus.New()
//	b.Post(bus.Notify("Moved: a.png"))
//
//	for _, msg := range b.Drain() {
//	    switch msg.Tag {
//	    case bus.TagNotify:
//	        fmt.Println(msg.Text)
//	    default:
//	        // unknown tags are ignored
//	    }
//	}
package bus

import (
	"sync"
	"time"
)

// Tag identifies the kind of a message.
type Tag string

// Message tags.
const (
	// TagNotify carries user facing text.
	TagNotify Tag = "notify"

	// TagToggle starts or stops the focus session.
	TagToggle Tag = "toggle"

	// TagReload asks the loop to reload configuration.
	TagReload Tag = "reload"

	// TagMoved reports a relocated file; Text is "Moved: <name>".
	TagMoved Tag = "moved"

	// TagProgress carries the session progress fraction in Payload.
	TagProgress Tag = "progress"

	// TagPhase reports a WORK/BREAK switch; Text is "Rest." or "Work.".
	TagPhase Tag = "phase"

	// TagStats asks the loop to render the ledger.
	TagStats Tag = "stats"

	// TagQuit stops the loop.
	TagQuit Tag = "quit"
)

// Message is a single tagged bus entry.
type Message struct {
	Tag     Tag         `json:"tag"`
	Text    string      `json:"text,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
	At      time.Time   `json:"at"`
}

// Notify builds a notify message.
func Notify(text string) Message {
	return Message{Tag: TagNotify, Text: text}
}

// Command builds a payload-less command message.
func Command(tag Tag) Message {
	return Message{Tag: tag}
}

// Bus is an unbounded multi-producer FIFO.
type Bus struct {
	mu     sync.Mutex
	queue  []Message
	ready  chan struct{}
	closed bool
	now    func() time.Time
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{
		ready: make(chan struct{}, 1),
		now:   time.Now,
	}
}

// Post appends msg to the queue. It never blocks. Messages posted after
// Close are dropped and Post reports false.
func (b *Bus) Post(msg Message) bool {
	if msg.At.IsZero() {
		msg.At = b.now()
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return false
	}
	b.queue = append(b.queue, msg)
	b.mu.Unlock()

	select {
	case b.ready <- struct{}{}:
	default:
	}
	return true
}

// TryReceive pops the oldest message, if any.
func (b *Bus) TryReceive() (Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.queue) == 0 {
		return Message{}, false
	}

	msg := b.queue[0]
	b.queue[0] = Message{}
	b.queue = b.queue[1:]
	if len(b.queue) == 0 {
		b.queue = nil
	}
	return msg, true
}

// Drain removes and returns every queued message in FIFO order.
func (b *Bus) Drain() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.queue
	b.queue = nil
	return out
}

// Len returns the number of queued messages.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Ready is signalled after a Post. It is a hint: one signal may cover
// several messages, so receivers drain until empty.
func (b *Bus) Ready() <-chan struct{} {
	return b.ready
}

// Close stops accepting messages. Queued messages stay drainable.
func (b *Bus) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}
