package registry

import (
	"net"
	"testing"

	"github.com/coder/quartz"

	"riverhall/internal/session"
)

func newConn(t *testing.T, id int64) *session.Conn {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() { b.Close() })
	return session.New(id, a)
}

func TestCreate_AllocatesDenseIDsAndReusesReleased(t *testing.T) {
	r := New(nil, quartz.NewMock(t))
	t1, err := r.Create("one", 9, 10, 20)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if t1.ID != 1 {
		t.Fatalf("expected first table id 1, got %d", t1.ID)
	}
	t2, err := r.Create("two", 9, 10, 20)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if t2.ID != 2 {
		t.Fatalf("expected second table id 2, got %d", t2.ID)
	}

	c := newConn(t, 1)
	c.Username = "alice"
	if err := r.Join(t1.ID, c, 10000); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := r.Leave(c); err != nil {
		t.Fatalf("leave: %v", err)
	}

	// table one emptied and released its id; a fresh Create reuses it.
	t3, err := r.Create("three", 9, 10, 20)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if t3.ID != 1 {
		t.Fatalf("expected the freed id 1 to be reused, got %d", t3.ID)
	}
}

func TestJoin_DefaultsBuyInToLesserOfFiftyBBOrBalance(t *testing.T) {
	r := New(nil, quartz.NewMock(t))
	tbl, _ := r.Create("one", 9, 10, 20)

	c := newConn(t, 1)
	c.Username = "alice"
	if err := r.Join(tbl.ID, c, 600); err != nil {
		t.Fatalf("join: %v", err)
	}
	view := tbl.Snapshot()
	if view.Seats[0].Money != 600 {
		t.Fatalf("expected buy-in capped at balance 600, got %d", view.Seats[0].Money)
	}

	c2 := newConn(t, 2)
	c2.Username = "bob"
	if err := r.Join(tbl.ID, c2, 100000); err != nil {
		t.Fatalf("join: %v", err)
	}
	// The second seat starts a hand, so count the blind it has posted.
	view = tbl.Snapshot()
	if got := view.Seats[1].Money + view.Seats[1].TotalBet; got != 50*20 {
		t.Fatalf("expected buy-in capped at 50xBB=1000, got %d", got)
	}
}

func TestJoin_RejectsAlreadySeatedConnection(t *testing.T) {
	r := New(nil, quartz.NewMock(t))
	tbl, _ := r.Create("one", 9, 10, 20)
	c := newConn(t, 1)
	c.Username = "alice"
	_ = r.Join(tbl.ID, c, 1000)

	if err := r.Join(tbl.ID, c, 1000); err != ErrAlreadySeated {
		t.Fatalf("expected ErrAlreadySeated, got %v", err)
	}
}

func TestJoin_UnknownTableReturnsNotFound(t *testing.T) {
	r := New(nil, quartz.NewMock(t))
	c := newConn(t, 1)
	if err := r.Join(999, c, 1000); err != ErrTableNotFound {
		t.Fatalf("expected ErrTableNotFound, got %v", err)
	}
}

func TestList_ReportsSeatedCountInAscendingIDOrder(t *testing.T) {
	r := New(nil, quartz.NewMock(t))
	_, _ = r.Create("one", 9, 10, 20)
	tbl2, _ := r.Create("two", 6, 25, 50)
	c := newConn(t, 1)
	c.Username = "alice"
	_ = r.Join(tbl2.ID, c, 5000)

	list := r.List()
	if len(list) != 2 || list[0].ID != 1 || list[1].ID != 2 {
		t.Fatalf("expected ascending id order, got %+v", list)
	}
	if list[1].SeatedCount != 1 {
		t.Fatalf("expected table two to report 1 seated player, got %d", list[1].SeatedCount)
	}
}
