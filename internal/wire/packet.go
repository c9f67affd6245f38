// Package wire implements the table server's binary protocol: packet
// framing, the stable type-code catalogue, and map-based CBOR encoding
// of request/response payloads. The numeric values in this file are
// part of the wire contract — existing clients depend on them and they
// must never be renumbered.
package wire

// ProtocolVersion is the handshake's accepted protocol byte.
const ProtocolVersion uint8 = 0x01

// Packet type codes, by logical packet.
const (
	TypePing = 10
	TypePong = 11

	TypeLogin = 100

	TypeSignup = 200

	TypeCreateTable = 300

	TypeJoinTable = 400

	TypeActionRequest = 450
	TypeActionResult  = 451

	TypeUpdateBundle = 460

	TypeResyncRequest  = 470
	TypeResyncResponse = 471

	TypeTables = 500

	TypeUpdateGameState = 600

	TypeLeaveTable = 700

	TypeScoreboard = 800

	TypeFriendList = 900
	// TypeFriendOpBase..TypeFriendOpMax bracket the 910-960 friend/invite
	// operation codes; handlers dispatch on the exact value within this
	// range. Individual op codes below are this implementation's own
	// assignment within that bracket (spec.md §6 leaves them "varies").
	TypeFriendOpBase = 910
	TypeFriendOpMax  = 960

	TypeFriendAdd          = 910
	TypeFriendAccept       = 915
	TypeFriendRemove       = 920
	TypeFriendBlock        = 930
	TypeTableInvite        = 940
	TypeTableInviteAccept  = 950
	TypeTableInviteDecline = 960

	TypeBalanceUpdate = 970
)

// Result/res codes embedded in response payloads. 0 and the 2xx codes
// are success; 4xx is a client error; 5xx is a server fault.
const (
	ResOK = 0

	LoginOK    = 101
	LoginNotOK = 102

	SignupOK    = 201
	SignupNotOK = 202

	CreateTableOK    = 301
	CreateTableNotOK = 302

	JoinOK   = 401
	JoinNotOK = 402
	JoinFull  = 403

	ErrBadAction    = 400
	ErrForbidden    = 403
	ErrInvalidState = 409

	ErrServerFault = 500
)
