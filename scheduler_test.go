package wimax

import (
	"math"
	"testing"
)

// unitPhy converts one byte per symbol, making the byte budget in
// scheduler tests equal to the granted symbol count
type unitPhy struct {
	frameDur float64
}

func (phy *unitPhy) BytesForSymbols(symbols uint16, mod ModulationType) uint32 {
	return uint32(symbols)
}

func (phy *unitPhy) SymbolsForBytes(bytes uint32, mod ModulationType) uint16 {
	if bytes > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(bytes)
}

func (phy *unitPhy) FrameDuration() float64 {
	return phy.frameDur
}

func newSchedStation() *SubscriberStation {
	ClearState()
	return CreateSubscriberStation("", &unitPhy{frameDur: DefaultFrameDuration}, nil, nil)
}

func TestLadderPriorityOrder(t *testing.T) {
	ss := newSchedStation()
	ugs := ss.AddServiceFlow("voice", SfUGS, 20.0, 0)
	rtps := ss.AddServiceFlow("video", SfRtPS, 40.0, 0)
	nrtps := ss.AddServiceFlow("bulk", SfNrtPS, 0.0, 0)
	be := ss.AddServiceFlow("web", SfBE, 0.0, 0)

	// arrival order scrambled on purpose; selection runs on priority alone
	ss.DeliverSdu(be, 100)
	ss.DeliverMgmtSdu(CidBroadcast, 100, HdrGeneric)
	ss.DeliverMgmtSdu(CidPrimary, 100, HdrGeneric)
	ss.DeliverSdu(ugs, 100)
	ss.DeliverMgmtSdu(CidInitialRanging, 100, HdrGeneric)
	ss.DeliverSdu(rtps, 100)
	ss.DeliverSdu(nrtps, 100)
	ss.DeliverMgmtSdu(CidBasic, 100, HdrGeneric)

	want := []*Connection{
		ss.InitialRangingConnection(),
		ss.BasicConnection(),
		ss.PrimaryConnection(),
		ugs.Connection(),
		rtps.Connection(),
		nrtps.Connection(),
		be.Connection(),
		ss.BroadcastConnection(),
	}
	sched := ss.Scheduler()
	for idx := 0; idx < len(want); idx += 1 {
		burst, conn := sched.Schedule(2000, QPSK12, HdrGeneric, nil)
		if conn != want[idx] {
			t.Fatalf("grant %d served cid %d, want cid %d", idx, conn.ID, want[idx].ID)
		}
		if burst.NumPackets() != 1 {
			t.Fatalf("grant %d packed %d PDUs, want 1", idx, burst.NumPackets())
		}
	}

	// everything drained, a further grant selects nothing
	burst, conn := sched.Schedule(2000, QPSK12, HdrGeneric, nil)
	if conn != nil || burst.NumPackets() != 0 {
		t.Errorf("drained station still selected cid %v", conn)
	}
}

func TestScheduleWholePacketsThenFragment(t *testing.T) {
	ss := newSchedStation()
	be := ss.AddServiceFlow("web", SfBE, 0.0, 0)
	for idx := 0; idx < 3; idx += 1 {
		ss.DeliverSdu(be, 100)
	}

	// 250 bytes of budget: two whole 106 byte PDUs, then a 38 byte fragment
	burst, conn := ss.Scheduler().Schedule(250, QPSK12, HdrGeneric, nil)
	if conn != be.Connection() {
		t.Fatalf("grant served cid %d, want the best effort transport cid", conn.ID)
	}
	if burst.NumPackets() != 3 {
		t.Fatalf("burst packed %d PDUs, want 3", burst.NumPackets())
	}
	wantBytes := []uint32{106, 106, 38}
	for idx, pckt := range burst.Packets {
		if pckt.Bytes != wantBytes[idx] {
			t.Errorf("PDU %d carries %d bytes, want %d", idx, pckt.Bytes, wantBytes[idx])
		}
	}
	if burst.TotalBytes() != 250 {
		t.Errorf("burst total = %d bytes, want the full 250 budget", burst.TotalBytes())
	}
	if burst.NumFragments() != 1 {
		t.Errorf("burst holds %d fragments, want 1", burst.NumFragments())
	}

	q := be.Connection().Queue()
	if !q.FragmentationInProgress(HdrGeneric) {
		t.Fatalf("queue dropped the fragmentation chain")
	}
	if got := q.QueuedBytes(); got != 70 {
		t.Errorf("payload left behind = %d bytes, want 70", got)
	}

	// the next grant finishes the chain with a whole-packet dequeue
	burst, _ = ss.Scheduler().Schedule(300, QPSK12, HdrGeneric, nil)
	if burst.NumPackets() != 1 {
		t.Fatalf("follow-up burst packed %d PDUs, want 1", burst.NumPackets())
	}
	last := burst.Packets[0]
	if last.Bytes != 78 || !last.Fragment || last.FragNum != 1 {
		t.Errorf("closing fragment = %d bytes, fragment %v, seq %d; want 78, true, 1",
			last.Bytes, last.Fragment, last.FragNum)
	}
}

func TestFragmentChainAcrossGrants(t *testing.T) {
	ss := newSchedStation()
	be := ss.AddServiceFlow("web", SfBE, 0.0, 0)
	ss.DeliverSdu(be, 1000)

	// 300 byte grants against a 1006 byte PDU: three full fragments and a tail
	wantBytes := []uint32{300, 300, 300, 132}
	for idx := 0; idx < len(wantBytes); idx += 1 {
		burst, _ := ss.Scheduler().Schedule(300, QPSK12, HdrGeneric, nil)
		if burst.NumPackets() != 1 {
			t.Fatalf("grant %d packed %d PDUs, want 1", idx, burst.NumPackets())
		}
		pckt := burst.Packets[0]
		if pckt.Bytes != wantBytes[idx] {
			t.Errorf("fragment %d carries %d bytes, want %d", idx, pckt.Bytes, wantBytes[idx])
		}
		if !pckt.Fragment || pckt.FragNum != uint8(idx) {
			t.Errorf("fragment %d flagged %v seq %d", idx, pckt.Fragment, pckt.FragNum)
		}
	}
	if be.Connection().HasPackets() {
		t.Errorf("queue still populated after the chain completed")
	}
}

func TestManagementNeverFragmented(t *testing.T) {
	ss := newSchedStation()
	ss.DeliverMgmtSdu(CidBasic, 100, HdrGeneric)

	// too small a grant for the whole PDU, and management cannot fragment
	burst, conn := ss.Scheduler().Schedule(50, QPSK12, HdrGeneric, nil)
	if conn != ss.BasicConnection() {
		t.Fatalf("selection skipped the backlogged basic connection")
	}
	if burst.NumPackets() != 0 {
		t.Errorf("management PDU was split into the burst")
	}
	if got := ss.BasicConnection().Queue().QueuedBytes(); got != 100 {
		t.Errorf("management payload disturbed, %d bytes left of 100", got)
	}
}

func TestZeroSymbolGrantLeavesQueueIntact(t *testing.T) {
	ss := newSchedStation()
	be := ss.AddServiceFlow("web", SfBE, 0.0, 0)
	ss.DeliverSdu(be, 100)

	burst, _ := ss.Scheduler().Schedule(0, QPSK12, HdrGeneric, nil)
	if burst.NumPackets() != 0 {
		t.Fatalf("a zero symbol grant packed %d PDUs", burst.NumPackets())
	}
	if got := be.Connection().Queue().QueuedBytes(); got != 100 {
		t.Errorf("queue disturbed by an empty grant, %d bytes left of 100", got)
	}
	if got := be.NextGrantTime(); got != 0.0 {
		t.Errorf("empty burst advanced the flow's grant time to %f", got)
	}
}

func TestCallerSuppliedConnectionBypassesLadder(t *testing.T) {
	ss := newSchedStation()
	be := ss.AddServiceFlow("web", SfBE, 0.0, 0)
	ss.DeliverMgmtSdu(CidInitialRanging, 40, HdrGeneric)
	ss.DeliverSdu(be, 100)

	burst, conn := ss.Scheduler().Schedule(500, QPSK12, HdrGeneric, be.Connection())
	if conn != be.Connection() || burst.NumPackets() != 1 {
		t.Fatalf("supplied connection was not the one served")
	}
	if !ss.InitialRangingConnection().HasPackets() {
		t.Errorf("ladder ran despite the caller naming a connection")
	}
	// grant bookkeeping belongs to ladder selections only
	if got := be.NextGrantTime(); got != 0.0 {
		t.Errorf("caller-directed grant advanced the flow's grant time to %f", got)
	}
}

func TestSchedulePanicsOnEmptyConnection(t *testing.T) {
	ss := newSchedStation()
	be := ss.AddServiceFlow("web", SfBE, 0.0, 0)

	defer func() {
		if recover() == nil {
			t.Errorf("expected a panic for a supplied connection with nothing queued")
		}
	}()
	ss.Scheduler().Schedule(100, QPSK12, HdrGeneric, be.Connection())
}

func TestUgsEligibleOnAnyHeaderType(t *testing.T) {
	ss := newSchedStation()
	ugs := ss.AddServiceFlow("voice", SfUGS, 20.0, 0)
	be := ss.AddServiceFlow("web", SfBE, 0.0, 0)

	// both flows hold only bandwidth request PDUs
	ugs.Connection().Enqueue(0, HdrBandwidthRequest, 0.0)
	be.Connection().Enqueue(0, HdrBandwidthRequest, 0.0)

	// a generic grant still selects the UGS connection, but packs nothing,
	// so the flow's grant instant stays pending
	burst, conn := ss.Scheduler().Schedule(500, QPSK12, HdrGeneric, nil)
	if conn != ugs.Connection() {
		t.Fatalf("generic grant selected cid %v, want the UGS transport cid", conn)
	}
	if burst.NumPackets() != 0 {
		t.Fatalf("generic grant packed %d PDUs from a bandwidth request backlog", burst.NumPackets())
	}
	if got := ugs.NextGrantTime(); got != 0.0 {
		t.Fatalf("empty burst advanced the UGS grant time to %f", got)
	}

	// a bandwidth request grant drains it and consumes the grant instant
	burst, conn = ss.Scheduler().Schedule(500, QPSK12, HdrBandwidthRequest, nil)
	if conn != ugs.Connection() || burst.NumPackets() != 1 {
		t.Fatalf("bandwidth request grant did not drain the UGS connection")
	}
	if got := ugs.NextGrantTime(); got != 0.020 {
		t.Errorf("UGS grant time = %f, want 0.020", got)
	}

	// best effort is invisible to selection while it holds no generic SDUs
	_, conn = ss.Scheduler().Schedule(500, QPSK12, HdrGeneric, nil)
	if conn != nil {
		t.Errorf("bandwidth-request-only best effort flow was selected, cid %d", conn.ID)
	}
}

// clockStation satisfies the scheduler's station contract with a settable
// clock, so deadline tests can move time without an event manager
type clockStation struct {
	ranging   *Connection
	basic     *Connection
	primary   *Connection
	broadcast *Connection
	sfMgr     *ServiceFlowMgr
	phy       phyConverter
	now       float64
}

func (cs *clockStation) InitialRangingConnection() *Connection { return cs.ranging }
func (cs *clockStation) BasicConnection() *Connection          { return cs.basic }
func (cs *clockStation) PrimaryConnection() *Connection        { return cs.primary }
func (cs *clockStation) BroadcastConnection() *Connection      { return cs.broadcast }
func (cs *clockStation) Phy() phyConverter                     { return cs.phy }
func (cs *clockStation) CurrentSeconds() float64               { return cs.now }

func (cs *clockStation) FlowsOfType(sfType SchedulingType) []*ServiceFlow {
	return cs.sfMgr.FlowsOfType(sfType)
}

func createClockStation() *clockStation {
	ClearState()
	cs := new(clockStation)
	cs.ranging = createConnection(CidInitialRanging, InitialRangingCid, 0)
	cs.basic = createConnection(CidBasic, allocBasicCid(), 0)
	cs.primary = createConnection(CidPrimary, allocPrimaryCid(), 0)
	cs.broadcast = createConnection(CidBroadcast, BroadcastCid, 0)
	cs.sfMgr = createServiceFlowMgr()
	cs.phy = &unitPhy{frameDur: 0.010}
	return cs
}

func TestDeadlineGatesPollingFlows(t *testing.T) {
	cs := createClockStation()
	conn := createConnection(CidTransport, allocTransportCid(), 0)
	rtps := createServiceFlow("video", SfRtPS, conn, 20.0)
	cs.sfMgr.AddFlow(rtps)
	sched := CreateUplinkScheduler(cs)

	for idx := 0; idx < 4; idx += 1 {
		conn.Enqueue(100, HdrGeneric, cs.now)
	}

	// grant instant 0 falls inside the first frame horizon
	burst, _ := sched.Schedule(2000, QPSK12, HdrGeneric, nil)
	if burst.NumPackets() != 4 {
		t.Fatalf("first grant packed %d PDUs, want 4", burst.NumPackets())
	}
	if got := rtps.NextGrantTime(); got != 0.020 {
		t.Fatalf("grant time after service = %f, want 0.020", got)
	}

	// backlogged again, but the next grant instant is beyond the horizon
	conn.Enqueue(100, HdrGeneric, cs.now)
	if selected, _ := sched.SelectConnection(); selected != nil {
		t.Fatalf("flow selected before its grant interval elapsed")
	}

	// one frame later the horizon reaches the grant instant
	cs.now = 0.010
	if selected, _ := sched.SelectConnection(); selected != conn {
		t.Errorf("flow not selected once the horizon covers its grant instant")
	}
}

func TestBlockedDeadlineFallsThroughToLowerRung(t *testing.T) {
	cs := createClockStation()
	ugsConn := createConnection(CidTransport, allocTransportCid(), 0)
	ugs := createServiceFlow("voice", SfUGS, ugsConn, 20.0)
	cs.sfMgr.AddFlow(ugs)
	rtpsConn := createConnection(CidTransport, allocTransportCid(), 0)
	rtps := createServiceFlow("video", SfRtPS, rtpsConn, 20.0)
	cs.sfMgr.AddFlow(rtps)
	sched := CreateUplinkScheduler(cs)

	ugsConn.Enqueue(100, HdrGeneric, cs.now)
	rtpsConn.Enqueue(100, HdrGeneric, cs.now)

	// the higher rung is backlogged but its grant instant lies far out
	ugs.SetNextGrantTime(9.0)
	conn, flow := sched.SelectConnection()
	if conn != rtpsConn || flow != rtps {
		t.Errorf("selection did not fall through the blocked rung")
	}
}

func TestEmptySelectionIdempotent(t *testing.T) {
	cs := createClockStation()
	sched := CreateUplinkScheduler(cs)

	for idx := 0; idx < 2; idx += 1 {
		burst, conn := sched.Schedule(100, QPSK12, HdrGeneric, nil)
		if conn != nil || burst.NumPackets() != 0 {
			t.Fatalf("an idle station produced traffic on call %d", idx)
		}
	}
}

func TestFlowsOfSameClassServeInInsertionOrder(t *testing.T) {
	ss := newSchedStation()
	first := ss.AddServiceFlow("web1", SfBE, 0.0, 0)
	second := ss.AddServiceFlow("web2", SfBE, 0.0, 0)
	ss.DeliverSdu(second, 100)
	ss.DeliverSdu(first, 100)

	_, conn := ss.Scheduler().Schedule(500, QPSK12, HdrGeneric, nil)
	if conn != first.Connection() {
		t.Fatalf("rung offered the later flow first")
	}
	if !second.Connection().HasPackets() {
		t.Errorf("a single grant drained more than the selected connection")
	}
}

func TestBurstNeverExceedsByteBudget(t *testing.T) {
	ss := newSchedStation()
	be := ss.AddServiceFlow("web", SfBE, 0.0, 0)
	for _, payload := range []uint32{50, 40, 30} {
		ss.DeliverSdu(be, payload)
	}

	burst, _ := ss.Scheduler().Schedule(100, QPSK12, HdrGeneric, nil)
	if burst.TotalBytes() > 100 {
		t.Fatalf("burst total %d bytes exceeds the 100 byte budget", burst.TotalBytes())
	}
	// the 56 byte PDU fits whole, then the second SDU fragments into the
	// last 44 bytes of budget
	if burst.TotalBytes() != 100 || burst.NumPackets() != 2 {
		t.Errorf("burst = %d bytes in %d PDUs, want exactly 100 in 2",
			burst.TotalBytes(), burst.NumPackets())
	}
	if got := be.Connection().Queue().QueuedBytes(); got != 34 {
		t.Errorf("payload left behind = %d bytes, want 34", got)
	}
}

func TestPollMeIndependentOfScheduling(t *testing.T) {
	ss := newSchedStation()
	sched := ss.Scheduler()

	sched.SetPollMe(true)
	sched.Schedule(100, QPSK12, HdrGeneric, nil)
	if !sched.PollMe() || !ss.PollMeRequested() {
		t.Errorf("scheduling cleared the poll request flag")
	}
	sched.SetPollMe(false)
	if sched.PollMe() {
		t.Errorf("poll request flag stuck on")
	}
}

func TestSatSubSymbols(t *testing.T) {
	cases := []struct {
		budget, cost, want uint16
	}{
		{7, 5, 2},
		{5, 7, 0},
		{5, 5, 0},
		{0, 3, 0},
	}
	for _, tc := range cases {
		if got := satSubSymbols(tc.budget, tc.cost); got != tc.want {
			t.Errorf("satSubSymbols(%d, %d) = %d, want %d", tc.budget, tc.cost, got, tc.want)
		}
	}
}
