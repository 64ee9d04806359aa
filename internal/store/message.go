package store

// OriginalID identifies the source-emitted store that ultimately caused a
// message; every derived message carries forward the OriginalID of the
// event that produced it, giving the join layer a stable coincidence key.
type OriginalID uint64

// Ticket is a monotonically increasing sequence number assigned once per
// source emission. Equal tickets on two messages mean "same source event".
type Ticket uint64

// Message is a store annotated with the source event that produced it and
// the ticket assigned at that emission. It is the unit the multiplexer
// fans out and the unit a node's join table coalesces.
type Message struct {
	Store      *Store
	OriginalID OriginalID
	Ticket     Ticket
}

// NewMessage builds a Message.
func NewMessage(s *Store, originalID OriginalID, ticket Ticket) Message {
	return Message{Store: s, OriginalID: originalID, Ticket: ticket}
}

// IsFlush reports whether the underlying store is a flush token.
func (m Message) IsFlush() bool { return m.Store.IsFlush() }

// Counter assigns monotonically increasing tickets; the engine's Runner owns
// exactly one and draws a ticket from it for every store it admits from the
// source and every child or flush an unfold emits.
type Counter struct {
	next uint64
}

// Next returns the next ticket, starting at 1 (0 is reserved to mean
// "no ticket assigned").
func (c *Counter) Next() Ticket {
	c.next++
	return Ticket(c.next)
}
