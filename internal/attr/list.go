package attr

import "evtrace/internal/memalloc"

// node is the traversal wrapper around one allocated attribute slot. The
// attribute's (id, Kind, payload) live in blk.Data, routed through
// ProcessMemory like the reference reader's attribute-list nodes; next is
// an ordinary Go pointer, since nothing short of unsafe lets one chase
// intrusive links through a byte slice safely under a moving GC.
type node struct {
	blk  memalloc.Block
	next *node
}

func (n *node) id() uint32 {
	return uint32(n.blk.Data[9])<<24 | uint32(n.blk.Data[10])<<16 | uint32(n.blk.Data[11])<<8 | uint32(n.blk.Data[12])
}

func (n *node) value() Value { return decodeValue(n.blk.Data[:encodedSize]) }

const nodeSize = encodedSize + 4 // tagged value + big-endian attribute id

// List is an ordered (attribute_id, Value) sequence, borrowed by one
// EventDecoder at a time. It is attached to the decoder, refilled by
// ATTRIBUTE_LIST records, and cleared after every non-merger-driven event
// delivery; callers must copy out anything they need to keep past the
// callback's return.
type List struct {
	handle     *memalloc.Handle
	head, tail *node
	count      int
}

// NewList returns an empty list backed by handle.
func NewList(handle *memalloc.Handle) *List {
	return &List{handle: handle}
}

// Add appends (id, v) to the list.
func (l *List) Add(id uint32, v Value) error {
	blk, err := l.handle.Allocate(nodeSize)
	if err != nil {
		return err
	}
	encodeValue(blk.Data[:encodedSize], v)
	blk.Data[9] = byte(id >> 24)
	blk.Data[10] = byte(id >> 16)
	blk.Data[11] = byte(id >> 8)
	blk.Data[12] = byte(id)

	n := &node{blk: blk}
	if l.tail == nil {
		l.head = n
	} else {
		l.tail.next = n
	}
	l.tail = n
	l.count++
	return nil
}

// Len returns the number of (id, Value) pairs currently attached.
func (l *List) Len() int { return l.count }

// RemoveAll detaches and deallocates every node, returning the list to
// empty. Called after every event delivery that is not merger-driven.
func (l *List) RemoveAll() {
	for n := l.head; n != nil; {
		next := n.next
		l.handle.Deallocate(n.blk)
		n = next
	}
	l.head, l.tail = nil, nil
	l.count = 0
}

// Lookup returns the first value registered under id, insertion order.
func (l *List) Lookup(id uint32) (Value, bool) {
	for n := l.head; n != nil; n = n.next {
		if n.id() == id {
			return n.value(), true
		}
	}
	return Value{}, false
}

// All iterates the list in insertion order.
func (l *List) All(yield func(id uint32, v Value) bool) {
	for n := l.head; n != nil; n = n.next {
		if !yield(n.id(), n.value()) {
			return
		}
	}
}
