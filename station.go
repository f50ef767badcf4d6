package wimax

// station.go holds the subscriber station: the owner of the four
// management connections, the service flow registry, the PHY handle, and
// the uplink scheduler.  The station is the capability bundle the
// scheduler draws on, and the delivery point where classified SDUs reach
// their connection queues

import (
	"fmt"
	"github.com/iti/evt/evtm"
	"github.com/iti/evt/vrtime"
	"github.com/iti/rngstream"
)

// SubscriberStation models one SS.  Exactly one of each management
// connection is created at bring-up; transport connections arrive with
// service flows
type SubscriberStation struct {
	Name   string
	Number int

	evtMgr   *evtm.EventManager
	phy      phyConverter
	traceMgr *TraceManager
	rngstrm  *rngstream.RngStream

	rangingConn   *Connection
	basicConn     *Connection
	primaryConn   *Connection
	broadcastConn *Connection

	sfMgr *ServiceFlowMgr
	sched *UplinkScheduler

	// running totals reported at the end of a run
	SdusDelivered int
	SduDrops      int
	Frames        int
	Bursts        int
	PcktsSent     int
	FragsSent     int
	BytesSent     uint64
}

// CreateSubscriberStation is a constructor.  An empty name selects a
// default one.  The event manager reference supplies current time during
// scheduling and may be nil when the station is exercised outside a
// simulation run
func CreateSubscriberStation(name string, phy phyConverter, evtMgr *evtm.EventManager,
	traceMgr *TraceManager) *SubscriberStation {

	ss := new(SubscriberStation)
	numberOfStations += 1

	if len(name) == 0 {
		name = fmt.Sprintf("ss.[%d]", numberOfStations)
	}
	_, present := StationByName[name]
	if present {
		panic(fmt.Errorf("duplicated station name %s in CreateSubscriberStation", name))
	}

	ss.Name = name
	ss.Number = nxtID()
	ss.evtMgr = evtMgr
	ss.phy = phy
	ss.traceMgr = traceMgr
	ss.rngstrm = rngstream.New(name)

	// the four management connections, one each.  The ranging and
	// broadcast cids are reserved values shared by every station, so those
	// connections stay out of the global cid map
	ss.rangingConn = createConnection(CidInitialRanging, InitialRangingCid, 0)
	ss.basicConn = createConnection(CidBasic, allocBasicCid(), 0)
	ss.primaryConn = createConnection(CidPrimary, allocPrimaryCid(), 0)
	ss.broadcastConn = createConnection(CidBroadcast, BroadcastCid, 0)

	ss.sfMgr = createServiceFlowMgr()
	ss.sched = CreateUplinkScheduler(ss)

	StationByName[name] = ss
	StationByID[ss.Number] = ss
	if traceMgr != nil {
		traceMgr.AddName(ss.Number, name, "station")
	}
	return ss
}

// InitialRangingConnection returns the station's initial ranging connection
func (ss *SubscriberStation) InitialRangingConnection() *Connection {
	return ss.rangingConn
}

// BasicConnection returns the station's basic management connection
func (ss *SubscriberStation) BasicConnection() *Connection {
	return ss.basicConn
}

// PrimaryConnection returns the station's primary management connection
func (ss *SubscriberStation) PrimaryConnection() *Connection {
	return ss.primaryConn
}

// BroadcastConnection returns the station's broadcast connection
func (ss *SubscriberStation) BroadcastConnection() *Connection {
	return ss.broadcastConn
}

// FlowsOfType returns the station's service flows of the given scheduling
// type, in the order they were added
func (ss *SubscriberStation) FlowsOfType(sfType SchedulingType) []*ServiceFlow {
	return ss.sfMgr.FlowsOfType(sfType)
}

// Phy returns the station's PHY handle
func (ss *SubscriberStation) Phy() phyConverter {
	return ss.phy
}

// CurrentSeconds reports simulation time, or zero when the station runs
// outside an event manager
func (ss *SubscriberStation) CurrentSeconds() float64 {
	if ss.evtMgr == nil {
		return 0.0
	}
	return ss.evtMgr.CurrentSeconds()
}

// Scheduler returns the station's uplink scheduler
func (ss *SubscriberStation) Scheduler() *UplinkScheduler {
	return ss.sched
}

// FlowMgr returns the station's service flow registry
func (ss *SubscriberStation) FlowMgr() *ServiceFlowMgr {
	return ss.sfMgr
}

// devRng returns the station's random number stream
func (ss *SubscriberStation) devRng() *rngstream.RngStream {
	return ss.rngstrm
}

// AddServiceFlow creates the transport connection and the service flow
// that rides on it, registers both, and returns the flow.  The interval
// argument is in milliseconds and applies to UGS and rtPS flows
func (ss *SubscriberStation) AddServiceFlow(name string, sfType SchedulingType,
	intervalMsec float64, queueLimit int) *ServiceFlow {

	conn := createConnection(CidTransport, allocTransportCid(), queueLimit)
	sf := createServiceFlow(name, sfType, conn, intervalMsec)
	ss.sfMgr.AddFlow(sf)
	if ss.traceMgr != nil {
		ss.traceMgr.AddName(conn.Number, sf.Name, "serviceFlow")
	}
	return sf
}

// DeliverSdu classifies an SDU onto a service flow's transport connection.
// Returns false when the connection's queue refused it
func (ss *SubscriberStation) DeliverSdu(sf *ServiceFlow, payloadBytes uint32) bool {
	now := ss.CurrentSeconds()
	accepted := sf.Connection().Enqueue(payloadBytes, HdrGeneric, now)
	if accepted {
		ss.SdusDelivered += 1
	} else {
		ss.SduDrops += 1
	}
	if ss.traceMgr != nil && ss.traceMgr.Active() {
		AddArrivalTrace(ss.traceMgr, vrtime.SecondsToTime(now), ss, sf.Connection(), payloadBytes, accepted)
	}
	return accepted
}

// DeliverMgmtSdu places a management SDU on the management connection of
// the given type, under the given MAC header format
func (ss *SubscriberStation) DeliverMgmtSdu(cidType CidType, payloadBytes uint32, hdr HeaderType) bool {
	var conn *Connection
	switch cidType {
	case CidInitialRanging:
		conn = ss.rangingConn
	case CidBasic:
		conn = ss.basicConn
	case CidPrimary:
		conn = ss.primaryConn
	case CidBroadcast:
		conn = ss.broadcastConn
	default:
		panic(fmt.Errorf("DeliverMgmtSdu given non-management connection type %s", cidTypeToStr(cidType)))
	}

	now := ss.CurrentSeconds()
	accepted := conn.Enqueue(payloadBytes, hdr, now)
	if accepted {
		ss.SdusDelivered += 1
	} else {
		ss.SduDrops += 1
	}
	if ss.traceMgr != nil && ss.traceMgr.Active() {
		AddArrivalTrace(ss.traceMgr, vrtime.SecondsToTime(now), ss, conn, payloadBytes, accepted)
	}
	return accepted
}

// PollMeRequested is consulted while building a bandwidth request header,
// passing along whether the scheduler wants best effort connections polled
func (ss *SubscriberStation) PollMeRequested() bool {
	return ss.sched.PollMe()
}

// Close tears the station down, severing the scheduler's back reference.
// Connection queues are not drained; they live and die with the station
func (ss *SubscriberStation) Close() {
	ss.sched.Close()
}
