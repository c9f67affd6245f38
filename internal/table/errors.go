package table

import "errors"

var (
	// ErrTableClosed is returned by Submit once the table actor has
	// stopped — the caller should drop its reference and, if it still
	// holds a seat, treat this the same as a remove.
	ErrTableClosed = errors.New("table: closed")
	// ErrUnknownEvent guards an actor programming error: an event type
	// with no case in handle.
	ErrUnknownEvent = errors.New("table: unknown event type")
	// ErrTableFull is returned by an EventJoin with Seat < 0 (auto-pick)
	// once every seat is occupied.
	ErrTableFull = errors.New("table: full")
)
