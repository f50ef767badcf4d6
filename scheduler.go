package wimax

// scheduler.go holds the subscriber station's uplink scheduler: the policy
// that, once per grant, picks one connection by strict priority and drains
// its queue into a burst, fragmenting the head SDU when the remaining
// symbol budget cannot carry it whole

// The selection order is a ladder of rungs walked first-match-wins:
// initial ranging, basic, primary, then UGS / rtPS / nrtPS / BE service
// flows, then broadcast.  Management traffic preempts data, deadline
// bearing flows preempt best effort, and broadcast chatter goes last.
// Each rung is a candidate source paired with an eligibility predicate,
// so adding a traffic class is one more rung in the list

// phyConverter is the PHY capability the scheduler consumes: symbol/byte
// conversion under a burst profile, and the frame duration that extends
// the eligibility horizon
type phyConverter interface {
	BytesForSymbols(symbols uint16, mod ModulationType) uint32
	SymbolsForBytes(bytes uint32, mod ModulationType) uint16
	FrameDuration() float64
}

// schedulerStation is the capability bundle the scheduler needs from the
// station that owns it
type schedulerStation interface {
	InitialRangingConnection() *Connection
	BasicConnection() *Connection
	PrimaryConnection() *Connection
	BroadcastConnection() *Connection
	FlowsOfType(sfType SchedulingType) []*ServiceFlow
	Phy() phyConverter
	CurrentSeconds() float64
}

// rungCandidate pairs a connection with the service flow it rides on.
// Management and broadcast rungs have no flow
type rungCandidate struct {
	conn *Connection
	flow *ServiceFlow
}

// ladderRung is one priority level: a source of candidate connections, in
// the order they should be offered, and the predicate that admits one
type ladderRung struct {
	class      string
	candidates func() []rungCandidate
	eligible   func(cand rungCandidate, horizon float64) bool
}

// UplinkScheduler is created one-per-station.  It holds no packing state
// across calls; fragmentation progress lives in the queues.  The poll-me
// flag is the one piece of state it owns, consulted by the station when it
// builds bandwidth request headers
type UplinkScheduler struct {
	station schedulerStation
	ladder  []ladderRung
	pollMe  bool
}

// mgmtRung builds a ladder rung for a management or broadcast connection,
// eligible whenever any SDU is queued
func mgmtRung(class string, conn func() *Connection) ladderRung {
	return ladderRung{
		class: class,
		candidates: func() []rungCandidate {
			return []rungCandidate{{conn: conn()}}
		},
		eligible: func(cand rungCandidate, horizon float64) bool {
			return cand.conn.HasPackets()
		},
	}
}

// flowRung builds a ladder rung for the service flows of one scheduling
// type, offered in registry insertion order.  UGS eligibility looks at any
// queued SDU; the polling and best effort classes look only at SDUs sent
// under the generic header
func flowRung(st schedulerStation, class string, sfType SchedulingType, anyHdr bool) ladderRung {
	return ladderRung{
		class: class,
		candidates: func() []rungCandidate {
			flows := st.FlowsOfType(sfType)
			cands := make([]rungCandidate, 0, len(flows))
			for _, sf := range flows {
				cands = append(cands, rungCandidate{conn: sf.Connection(), flow: sf})
			}
			return cands
		},
		eligible: func(cand rungCandidate, horizon float64) bool {
			queued := false
			if anyHdr {
				queued = cand.conn.HasPackets()
			} else {
				queued = cand.conn.HasPacketsOfType(HdrGeneric)
			}
			return queued && cand.flow.deadlineReached(horizon)
		},
	}
}

// CreateUplinkScheduler is a constructor.  The ladder is built once, here
func CreateUplinkScheduler(st schedulerStation) *UplinkScheduler {
	sched := new(UplinkScheduler)
	sched.station = st
	sched.ladder = []ladderRung{
		mgmtRung("initialRanging", st.InitialRangingConnection),
		mgmtRung("basic", st.BasicConnection),
		mgmtRung("primary", st.PrimaryConnection),
		flowRung(st, "UGS", SfUGS, true),
		flowRung(st, "rtPS", SfRtPS, false),
		flowRung(st, "nrtPS", SfNrtPS, false),
		flowRung(st, "BE", SfBE, false),
		mgmtRung("broadcast", st.BroadcastConnection),
	}
	return sched
}

// SelectConnection walks the ladder and returns the first eligible
// connection, along with the service flow it rides on when the winning
// rung is a flow class.  Returns nil when nothing is eligible
func (sched *UplinkScheduler) SelectConnection() (*Connection, *ServiceFlow) {
	horizon := roundFloat(sched.station.CurrentSeconds()+sched.station.Phy().FrameDuration(), rdigits)
	for _, rung := range sched.ladder {
		for _, cand := range rung.candidates() {
			if rung.eligible(cand, horizon) {
				return cand.conn, cand.flow
			}
		}
	}
	return nil, nil
}

// satSubSymbols subtracts a symbol cost from the remaining budget,
// saturating at zero rather than wrapping the 16-bit counter
func satSubSymbols(budget, cost uint16) uint16 {
	if cost >= budget {
		return 0
	}
	return budget - cost
}

// Schedule packs one uplink allocation.  Given the granted symbol count,
// the burst profile, and the MAC header type being served, it selects a
// connection (unless the caller supplies one) and repeatedly moves the
// head SDU of that header type into the burst, whole when the budget
// covers it, as a fragment when the connection is transport type and at
// least a header and one payload byte still fit.  The burst is never nil;
// empty means nothing to send this grant.  Passing a connection with no
// queued packets violates the caller contract
func (sched *UplinkScheduler) Schedule(availableSymbols uint16, mod ModulationType,
	hdrType HeaderType, conn *Connection) (*Burst, *Connection) {

	burst := createBurst()

	var granted *ServiceFlow
	if conn == nil {
		conn, granted = sched.SelectConnection()
	} else if !conn.HasPackets() {
		panic("uplink scheduler handed a connection with no queued packets")
	}

	phy := sched.station.Phy()
	for conn != nil && conn.HasPacketsOfType(hdrType) {
		availableByte := phy.BytesForSymbols(availableSymbols, mod)
		requiredByte := conn.Queue().FirstRequiredBytes(hdrType)

		if availableByte >= requiredByte {
			// the whole head SDU fits
			pckt := conn.Dequeue(hdrType)
			burst.AddPacket(pckt)
			availableSymbols = satSubSymbols(availableSymbols, phy.SymbolsForBytes(pckt.Bytes, mod))
			continue
		}

		if conn.Type() != CidTransport {
			// management and broadcast traffic is never fragmented
			break
		}

		headerSize := conn.Queue().FirstHeaderBytes(hdrType)
		if !conn.Queue().FragmentationInProgress(hdrType) {
			// a fresh chain needs a subheader the queue has not yet counted
			headerSize += FragSubhdrBytes
		}
		if availableByte <= headerSize {
			// no room for a header plus one payload byte
			break
		}

		pckt := conn.DequeueFragment(hdrType, availableByte)
		burst.AddPacket(pckt)
		availableSymbols = satSubSymbols(availableSymbols, phy.SymbolsForBytes(pckt.Bytes, mod))
	}

	// a flow the ladder picked consumes its pending grant instant once
	// something was actually packed for it
	if granted != nil && burst.NumPackets() > 0 {
		granted.advanceGrantTime()
	}
	return burst, conn
}

// SetPollMe records whether best effort connections want the station to
// request polling in its next bandwidth request
func (sched *UplinkScheduler) SetPollMe(pollMe bool) {
	sched.pollMe = pollMe
}

// PollMe reports the poll request flag
func (sched *UplinkScheduler) PollMe() bool {
	return sched.pollMe
}

// Close severs the back reference to the owning station, called during
// station teardown.  Queues are not drained; they belong to connections
func (sched *UplinkScheduler) Close() {
	sched.station = nil
	sched.ladder = nil
}
