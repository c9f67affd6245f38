package session

import (
	"net"
	"testing"
)

func pipeConns(t *testing.T) (*Conn, net.Conn) {
	t.Helper()
	a, b := net.Pipe()
	return New(1, a), b
}

func TestNew_StartsUnauthenticatedAndUnseated(t *testing.T) {
	c, peer := pipeConns(t)
	defer peer.Close()
	defer c.Close()

	if c.Authenticated {
		t.Fatal("expected a fresh connection to be unauthenticated")
	}
	if c.Seated() {
		t.Fatal("expected a fresh connection to be unseated")
	}
}

func TestWriteFrame_DeliversBytesToPeer(t *testing.T) {
	c, peer := pipeConns(t)
	defer peer.Close()
	defer c.Close()

	done := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 3)
		n, _ := peer.Read(buf)
		done <- buf[:n]
	}()

	if err := c.WriteFrame([]byte{1, 2, 3}); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	got := <-done
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("expected peer to receive [1 2 3], got %v", got)
	}
}

func TestClose_IsIdempotent(t *testing.T) {
	c, peer := pipeConns(t)
	defer peer.Close()

	if err := c.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close should be a no-op, got: %v", err)
	}
	select {
	case <-c.Done():
	default:
		t.Fatal("expected Done() to be closed after Close")
	}
}

func TestRegistry_BindAndLookupIsCaseInsensitive(t *testing.T) {
	r := NewRegistry()
	c, peer := pipeConns(t)
	defer peer.Close()
	defer c.Close()

	r.Add(c)
	c.Username = "Alice"
	r.BindUser("Alice", c)

	got, ok := r.Lookup("alice")
	if !ok || got != c {
		t.Fatalf("expected case-insensitive lookup to find the connection, ok=%v got=%v", ok, got)
	}
}

func TestRegistry_BindEvictsStaleConnectionForSameUsername(t *testing.T) {
	r := NewRegistry()
	first, firstPeer := pipeConns(t)
	defer firstPeer.Close()
	second, secondPeer := pipeConns(t)
	defer secondPeer.Close()
	defer second.Close()

	first.Username = "bob"
	r.BindUser("bob", first)
	second.Username = "bob"
	r.BindUser("bob", second)

	got, ok := r.Lookup("bob")
	if !ok || got != second {
		t.Fatal("expected the newer connection to win the username binding")
	}
	<-first.Done() // BindUser evicts the stale connection asynchronously
}

func TestRegistry_RemoveClearsBothIndexes(t *testing.T) {
	r := NewRegistry()
	c, peer := pipeConns(t)
	defer peer.Close()
	defer c.Close()

	c.Username = "carol"
	r.Add(c)
	r.BindUser("carol", c)
	r.Remove(c)

	if _, ok := r.Lookup("carol"); ok {
		t.Fatal("expected lookup to fail after Remove")
	}
	if r.Count() != 0 {
		t.Fatalf("expected count 0 after Remove, got %d", r.Count())
	}
}
