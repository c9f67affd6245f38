// Package handlers implements one function per packet type code from
// spec.md §6, wired into a map[uint16]HandlerFunc the dispatch loop
// consults after framing and decoding a request. Grounded on the
// teacher's gateway.Connection.handleMessage switch, generalized from a
// protobuf oneof dispatch to the wire package's CBOR maps.
package handlers

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"riverhall/holdem"
	"riverhall/internal/registry"
	"riverhall/internal/session"
	"riverhall/internal/store"
	"riverhall/internal/table"
	"riverhall/internal/wire"
)

// HandlerFunc handles one decoded request for conn, returning the
// response payload. The dispatch loop frames it with the request's type
// code, except for the request types that dispatch.responseType maps to
// a distinct reply code (PING, ACTION, RESYNC).
type HandlerFunc func(ctx context.Context, s *Server, c *session.Conn, req wire.M) wire.M

// Server bundles every dependency a handler needs: the table registry,
// the username-keyed connection directory, and the persistence store.
type Server struct {
	Tables *registry.Registry
	Conns  *session.Registry
	Store  store.Store
	Log    zerolog.Logger
}

// Routes returns the packet-type dispatch table.
func Routes() map[uint16]HandlerFunc {
	return map[uint16]HandlerFunc{
		wire.TypeLogin:                  handleLogin,
		wire.TypeSignup:                 handleSignup,
		wire.TypeCreateTable:            handleCreateTable,
		wire.TypeJoinTable:              handleJoinTable,
		wire.TypeActionRequest:          handleAction,
		wire.TypeResyncRequest:          handleResync,
		wire.TypeTables:                 handleTables,
		wire.TypeLeaveTable:             handleLeaveTable,
		wire.TypeScoreboard:             handleScoreboard,
		wire.TypeFriendList:             handleFriendList,
		wire.TypeFriendAdd:              handleFriendAdd,
		wire.TypeFriendAccept:           handleFriendAccept,
		wire.TypeFriendRemove:           handleFriendRemove,
		wire.TypeFriendBlock:            handleFriendBlock,
		wire.TypeTableInvite:            handleTableInvite,
		wire.TypeTableInviteAccept:      handleTableInviteAccept,
		wire.TypeTableInviteDecline:     handleTableInviteDecline,
		wire.TypePing:                   handlePing,
	}
}

func handlePing(_ context.Context, _ *Server, _ *session.Conn, _ wire.M) wire.M {
	return wire.M{}
}

func handleLogin(ctx context.Context, s *Server, c *session.Conn, req wire.M) wire.M {
	username := req.AsString("user")
	password := req.AsString("pass")

	userID, _, err := s.Store.Authenticate(ctx, username, password)
	if err != nil {
		return wire.M{"result": wire.LoginNotOK}
	}
	profile, err := s.Store.GetProfile(ctx, userID)
	if err != nil {
		return wire.M{"result": wire.LoginNotOK}
	}

	c.Authenticated = true
	c.UserID = userID
	c.Username = profile.Username
	c.SetBalance(profile.Balance)
	s.Conns.BindUser(profile.Username, c)

	return wire.M{
		"result":    wire.LoginOK,
		"user_id":   userID,
		"username":  profile.Username,
		"balance":   profile.Balance,
		"joined_at": profile.JoinedAt.Unix(),
	}
}

func handleSignup(ctx context.Context, s *Server, c *session.Conn, req wire.M) wire.M {
	username := req.AsString("user")
	password := req.AsString("pass")

	userID, err := s.Store.CreateUser(ctx, username, password)
	if err != nil {
		return wire.M{"res": wire.SignupNotOK}
	}

	c.Authenticated = true
	c.UserID = userID
	c.Username = username
	s.Conns.BindUser(username, c)

	return wire.M{"res": wire.SignupOK, "user_id": userID}
}

func handleCreateTable(_ context.Context, s *Server, c *session.Conn, req wire.M) wire.M {
	if !c.Authenticated {
		return wire.M{"res": wire.ErrForbidden}
	}
	name := req.AsString("name")
	maxPlayers := int(req.AsInt64("max_player"))
	minBet := req.AsInt64("min_bet")
	if maxPlayers <= 0 {
		maxPlayers = 9
	}
	if minBet <= 0 {
		minBet = 10
	}

	t, err := s.Tables.Create(name, maxPlayers, minBet, 2*minBet)
	if err != nil {
		return wire.M{"res": wire.CreateTableNotOK}
	}
	return wire.M{"res": wire.CreateTableOK, "table_id": t.ID}
}

func handleJoinTable(_ context.Context, s *Server, c *session.Conn, req wire.M) wire.M {
	if !c.Authenticated {
		return wire.M{"res": wire.ErrForbidden}
	}
	tableID := int(req.AsInt64("tableId"))

	if err := s.Tables.Join(tableID, c, c.Balance()); err != nil {
		switch {
		case errors.Is(err, registry.ErrTableFull):
			return wire.M{"res": wire.JoinFull}
		case errors.Is(err, registry.ErrTableNotFound):
			return wire.M{"res": wire.JoinNotOK}
		default:
			return wire.M{"res": wire.JoinNotOK}
		}
	}

	t, _ := s.Tables.Find(tableID)
	view := t.Snapshot()
	return wire.EncodeGameState(view, c.Seat, nil)
}

func handleAction(_ context.Context, s *Server, c *session.Conn, req wire.M) wire.M {
	if !c.Seated() {
		return wire.M{"result": wire.ErrForbidden, "client_seq": req.AsInt64("client_seq")}
	}
	t, ok := s.Tables.Find(c.TableID)
	if !ok {
		return wire.M{"result": wire.ErrInvalidState, "client_seq": req.AsInt64("client_seq")}
	}

	actionMap, _ := req["action"].(wire.M)
	typ, _ := holdem.ActionTypeFromString(actionMap.AsString("type"))
	action := holdem.Action{Type: typ, Amount: actionMap.AsInt64("amount")}

	err := t.Submit(table.Event{Type: table.EventAction, Seat: c.Seat, Action: action})
	clientSeq := req.AsInt64("client_seq")
	if err != nil {
		reason := err.Error()
		var invalid *holdem.InvalidActionError
		if errors.As(err, &invalid) {
			reason = invalid.Reason
		}
		code := wire.ErrInvalidState
		if errors.Is(err, holdem.ErrNotYourTurn) {
			code = wire.ErrForbidden
		}
		return wire.M{"result": code, "client_seq": clientSeq, "reason": reason}
	}
	return wire.M{"result": wire.ResOK, "client_seq": clientSeq}
}

func handleResync(_ context.Context, s *Server, c *session.Conn, _ wire.M) wire.M {
	if !c.Seated() {
		return wire.M{"res": wire.ErrInvalidState}
	}
	t, ok := s.Tables.Find(c.TableID)
	if !ok {
		return wire.M{"res": wire.ErrInvalidState}
	}
	return wire.EncodeGameState(t.Snapshot(), c.Seat, nil)
}

func handleTables(_ context.Context, s *Server, _ *session.Conn, _ wire.M) wire.M {
	list := s.Tables.List()
	tables := make([]any, len(list))
	for i, t := range list {
		tables[i] = wire.M{
			"id":           t.ID,
			"name":         t.Name,
			"max_players":  t.MaxPlayers,
			"small_blind":  t.SmallBlind,
			"big_blind":    t.BigBlind,
			"seated_count": t.SeatedCount,
		}
	}
	return wire.M{"size": len(tables), "tables": tables}
}

func handleLeaveTable(_ context.Context, s *Server, c *session.Conn, _ wire.M) wire.M {
	if err := s.Tables.Leave(c); err != nil {
		return wire.M{"res": wire.ErrInvalidState}
	}
	return wire.M{"res": wire.ResOK}
}

func handleScoreboard(ctx context.Context, s *Server, _ *session.Conn, req wire.M) wire.M {
	limit := int(req.AsInt64("limit"))
	if limit <= 0 {
		limit = 50
	}
	entries, err := s.Store.Leaderboard(ctx, limit)
	if err != nil {
		return wire.M{"players": []any{}}
	}
	players := make([]any, len(entries))
	for i, e := range entries {
		players[i] = wire.M{
			"user_id":  e.UserID,
			"username": e.Username,
			"balance":  e.Balance,
			"rank":     e.Rank,
		}
	}
	return wire.M{"players": players}
}

func handleFriendList(ctx context.Context, s *Server, c *session.Conn, _ wire.M) wire.M {
	if !c.Authenticated {
		return wire.M{"friends": []any{}}
	}
	friends, err := s.Store.ListFriends(ctx, c.UserID)
	if err != nil {
		return wire.M{"friends": []any{}}
	}
	out := make([]any, len(friends))
	for i, f := range friends {
		_, online := s.Conns.Lookup(f.Username)
		out[i] = wire.M{
			"user_id":  f.UserID,
			"username": f.Username,
			"online":   online,
		}
	}
	return wire.M{"friends": out}
}

func handleFriendAdd(ctx context.Context, s *Server, c *session.Conn, req wire.M) wire.M {
	if !c.Authenticated {
		return wire.M{"res": wire.ErrForbidden}
	}
	friendConn, ok := s.Conns.Lookup(req.AsString("username"))
	if !ok {
		return wire.M{"res": wire.ErrBadAction}
	}
	if err := s.Store.AddFriend(ctx, c.UserID, friendConn.UserID); err != nil {
		return wire.M{"res": wire.ErrBadAction}
	}
	return wire.M{"res": wire.ResOK}
}

func handleFriendAccept(ctx context.Context, s *Server, c *session.Conn, req wire.M) wire.M {
	if !c.Authenticated {
		return wire.M{"res": wire.ErrForbidden}
	}
	friendConn, ok := s.Conns.Lookup(req.AsString("username"))
	if !ok {
		return wire.M{"res": wire.ErrBadAction}
	}
	if err := s.Store.AcceptFriend(ctx, c.UserID, friendConn.UserID); err != nil {
		return wire.M{"res": wire.ErrBadAction}
	}
	return wire.M{"res": wire.ResOK}
}

func handleFriendRemove(ctx context.Context, s *Server, c *session.Conn, req wire.M) wire.M {
	if !c.Authenticated {
		return wire.M{"res": wire.ErrForbidden}
	}
	friendConn, ok := s.Conns.Lookup(req.AsString("username"))
	if !ok {
		return wire.M{"res": wire.ErrBadAction}
	}
	if err := s.Store.RemoveFriend(ctx, c.UserID, friendConn.UserID); err != nil {
		return wire.M{"res": wire.ErrBadAction}
	}
	return wire.M{"res": wire.ResOK}
}

func handleFriendBlock(ctx context.Context, s *Server, c *session.Conn, req wire.M) wire.M {
	if !c.Authenticated {
		return wire.M{"res": wire.ErrForbidden}
	}
	friendConn, ok := s.Conns.Lookup(req.AsString("username"))
	if !ok {
		return wire.M{"res": wire.ErrBadAction}
	}
	if err := s.Store.BlockFriend(ctx, c.UserID, friendConn.UserID); err != nil {
		return wire.M{"res": wire.ErrBadAction}
	}
	return wire.M{"res": wire.ResOK}
}

// handleTableInvite lets a seated player invite another online user to
// their table, pushing a TABLE_INVITE frame immediately (spec.md §4.5:
// "used for push notifications, e.g. 'you have been invited to table
// T'") on top of the durable row InviteToTable records.
func handleTableInvite(ctx context.Context, s *Server, c *session.Conn, req wire.M) wire.M {
	if !c.Authenticated || !c.Seated() {
		return wire.M{"res": wire.ErrForbidden}
	}
	target, ok := s.Conns.Lookup(req.AsString("username"))
	if !ok {
		return wire.M{"res": wire.ErrBadAction}
	}
	if err := s.Store.InviteToTable(ctx, c.UserID, target.UserID, c.TableID); err != nil {
		return wire.M{"res": wire.ErrBadAction}
	}
	pushTableInvite(target, c.Username, c.TableID)
	return wire.M{"res": wire.ResOK}
}

func pushTableInvite(target *session.Conn, fromUsername string, tableID int) {
	payload, err := wire.EncodeMap(wire.M{"from": fromUsername, "table_id": tableID})
	if err != nil {
		return
	}
	frame, err := wire.Encode(wire.TypeTableInvite, payload)
	if err != nil {
		return
	}
	_ = target.WriteFrame(frame)
}

// handleTableInviteAccept joins the table named by a pending invite,
// then consumes it. It refuses tables the caller was never invited to,
// rather than degenerating into a second JOIN_TABLE.
func handleTableInviteAccept(ctx context.Context, s *Server, c *session.Conn, req wire.M) wire.M {
	if !c.Authenticated {
		return wire.M{"res": wire.ErrForbidden}
	}
	tableID := int(req.AsInt64("table_id"))

	invites, err := s.Store.ListPendingInvites(ctx, c.UserID)
	if err != nil {
		return wire.M{"res": wire.ErrBadAction}
	}
	invited := false
	for _, inv := range invites {
		if inv.TableID == tableID {
			invited = true
			break
		}
	}
	if !invited {
		return wire.M{"res": wire.ErrBadAction}
	}

	if err := s.Tables.Join(tableID, c, c.Balance()); err != nil {
		return wire.M{"res": wire.JoinNotOK}
	}
	_ = s.Store.DeclineInvite(ctx, c.UserID, tableID)

	t, _ := s.Tables.Find(tableID)
	return wire.EncodeGameState(t.Snapshot(), c.Seat, nil)
}

func handleTableInviteDecline(ctx context.Context, s *Server, c *session.Conn, req wire.M) wire.M {
	if !c.Authenticated {
		return wire.M{"res": wire.ErrForbidden}
	}
	tableID := int(req.AsInt64("table_id"))
	if err := s.Store.DeclineInvite(ctx, c.UserID, tableID); err != nil {
		return wire.M{"res": wire.ErrBadAction}
	}
	return wire.M{"res": wire.ResOK}
}
