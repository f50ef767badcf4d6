package wimax

// connection.go holds the connection abstraction: a named unidirectional
// queue between the subscriber station and its base station, identified by
// a 16-bit connection identifier (cid).  The four management connections
// use reserved or range-allocated cids; transport connections carry the
// service flow data and are the only connections the scheduler fragments

import (
	"fmt"
)

// CidType classifies a connection by the role its cid plays
type CidType int

const (
	CidInitialRanging CidType = iota
	CidBasic
	CidPrimary
	CidTransport
	CidBroadcast
)

// cidTypeFromStr returns the CidType corresponding to a string name for it
func cidTypeFromStr(cidType string) (CidType, error) {
	switch cidType {
	case "initialRanging", "InitialRanging":
		return CidInitialRanging, nil
	case "basic", "Basic":
		return CidBasic, nil
	case "primary", "Primary":
		return CidPrimary, nil
	case "transport", "Transport":
		return CidTransport, nil
	case "broadcast", "Broadcast":
		return CidBroadcast, nil
	}
	return CidTransport, fmt.Errorf("unrecognized connection type %s", cidType)
}

// cidTypeToStr returns the string name of a CidType
func cidTypeToStr(cidType CidType) string {
	switch cidType {
	case CidInitialRanging:
		return "initialRanging"
	case CidBasic:
		return "basic"
	case CidPrimary:
		return "primary"
	case CidTransport:
		return "transport"
	case CidBroadcast:
		return "broadcast"
	}
	return "transport"
}

func (cidType CidType) String() string {
	return cidTypeToStr(cidType)
}

// reserved cids
const (
	InitialRangingCid uint16 = 0x0000
	BroadcastCid      uint16 = 0xFFFF
)

// maxBasicCids sets the width of the basic cid range.  Basic cids occupy
// [1, maxBasicCids], primary cids the band above it, and transport cids
// run from there up to the broadcast cid
const maxBasicCids uint16 = 1000

var nxtBasicCid uint16 = 1
var nxtPrimaryCid uint16 = maxBasicCids + 1
var nxtTransportCid uint16 = 2*maxBasicCids + 1

// resetCidFactory returns the cid allocation counters to the bottoms of
// their bands
func resetCidFactory() {
	nxtBasicCid = 1
	nxtPrimaryCid = maxBasicCids + 1
	nxtTransportCid = 2*maxBasicCids + 1
}

// allocBasicCid hands out the next cid in the basic band
func allocBasicCid() uint16 {
	if nxtBasicCid > maxBasicCids {
		panic("basic cid space exhausted")
	}
	cid := nxtBasicCid
	nxtBasicCid += 1
	return cid
}

// allocPrimaryCid hands out the next cid in the primary band
func allocPrimaryCid() uint16 {
	if nxtPrimaryCid > 2*maxBasicCids {
		panic("primary cid space exhausted")
	}
	cid := nxtPrimaryCid
	nxtPrimaryCid += 1
	return cid
}

// allocTransportCid hands out the next cid in the transport band
func allocTransportCid() uint16 {
	if nxtTransportCid == BroadcastCid {
		panic("transport cid space exhausted")
	}
	cid := nxtTransportCid
	nxtTransportCid += 1
	return cid
}

// Connection binds a cid to the MAC queue that holds its outbound SDUs.
// A connection lives exactly as long as the station that owns it
type Connection struct {
	ID      uint16 // the cid
	Number  int    // object id, used in trace dictionaries
	cidType CidType
	queue   PacketQueue
}

// createConnection is a constructor.  The new connection is registered in
// the cid lookup map, and a duplicate cid is a configuration error.  The
// reserved ranging and broadcast cids are shared by every station and so
// stay out of the map
func createConnection(cidType CidType, cid uint16, queueLimit int) *Connection {
	reserved := cid == InitialRangingCid || cid == BroadcastCid
	if !reserved {
		_, present := ConnByCid[cid]
		if present {
			panic(fmt.Errorf("duplicated cid %d in createConnection", cid))
		}
	}
	conn := new(Connection)
	conn.ID = cid
	conn.Number = nxtID()
	conn.cidType = cidType
	conn.queue = CreateMacQueue(queueLimit)
	if !reserved {
		ConnByCid[cid] = conn
	}
	return conn
}

// Type returns the connection's CidType
func (conn *Connection) Type() CidType {
	return conn.cidType
}

// Queue exposes the connection's MAC queue
func (conn *Connection) Queue() PacketQueue {
	return conn.queue
}

// HasPackets tells whether the connection's queue holds any SDU
func (conn *Connection) HasPackets() bool {
	return conn.queue.HasPackets()
}

// HasPacketsOfType tells whether the connection's queue holds an SDU with
// the given header type
func (conn *Connection) HasPacketsOfType(hdr HeaderType) bool {
	return conn.queue.HasPacketsOfType(hdr)
}

// Enqueue delivers an SDU to the connection's queue
func (conn *Connection) Enqueue(payloadBytes uint32, hdr HeaderType, now float64) bool {
	return conn.queue.Enqueue(payloadBytes, hdr, now)
}

// Dequeue removes the whole head SDU of the given header type, stamping
// the resulting PDU with this connection's cid
func (conn *Connection) Dequeue(hdr HeaderType) *Packet {
	pckt := conn.queue.Dequeue(hdr)
	pckt.Cid = conn.ID
	return pckt
}

// DequeueFragment removes up to capBytes of the head SDU of the given
// header type as a fragment, stamping the PDU with this connection's cid
func (conn *Connection) DequeueFragment(hdr HeaderType, capBytes uint32) *Packet {
	pckt := conn.queue.DequeueFragment(hdr, capBytes)
	pckt.Cid = conn.ID
	return pckt
}
