package wimax

// uplink.go holds the binding between the event loop and the MAC.  Grant
// generation belongs to the base station, which is outside this model, so
// the harness replays a configured allocation once per frame: each frame
// event runs the scheduler against the grant, accounts the burst, and
// schedules the next frame

import (
	"github.com/iti/evt/evtm"
	"github.com/iti/evt/vrtime"
)

// UplinkGrant describes the allocation awarded to the station each frame
type UplinkGrant struct {
	Symbols uint16
	Mod     ModulationType
	Hdr     HeaderType
}

// uplinkFrame is the context carried by the recurring frame event
type uplinkFrame struct {
	ss    *SubscriberStation
	grant *UplinkGrant

	// number of frames still to replay, 0 meaning until the simulation ends
	framesLeft int
}

// StartUplink schedules the station's first frame event, one frame
// duration out.  frames bounds the number of allocations replayed; zero
// means keep going until the event manager stops
func StartUplink(evtMgr *evtm.EventManager, ss *SubscriberStation, grant *UplinkGrant, frames int) {
	uf := new(uplinkFrame)
	uf.ss = ss
	uf.grant = grant
	uf.framesLeft = frames
	evtMgr.Schedule(uf, nil, uplinkFrameEvent, vrtime.SecondsToTime(ss.phy.FrameDuration()))
}

// uplinkFrameEvent fires once per frame.  It packs the grant through the
// scheduler, updates the station totals and poll request, records the
// grant trace, and reschedules itself
func uplinkFrameEvent(evtMgr *evtm.EventManager, context any, data any) any {
	uf := context.(*uplinkFrame)
	ss := uf.ss

	burst, conn := ss.sched.Schedule(uf.grant.Symbols, uf.grant.Mod, uf.grant.Hdr, nil)

	ss.Frames += 1
	if burst.NumPackets() > 0 {
		ss.Bursts += 1
		ss.PcktsSent += burst.NumPackets()
		ss.FragsSent += burst.NumFragments()
		ss.BytesSent += uint64(burst.TotalBytes())
	}

	// best effort backlog left behind asks the base station for a poll
	pollMe := false
	for _, sf := range ss.FlowsOfType(SfBE) {
		if sf.Connection().HasPacketsOfType(HdrGeneric) {
			pollMe = true
			break
		}
	}
	ss.sched.SetPollMe(pollMe)

	if ss.traceMgr != nil && ss.traceMgr.Active() {
		AddGrantTrace(ss.traceMgr, evtMgr.CurrentTime(), ss, uf.grant.Symbols, uf.grant.Hdr, conn, burst)
	}

	if uf.framesLeft > 0 {
		uf.framesLeft -= 1
		if uf.framesLeft == 0 {
			return nil
		}
	}
	evtMgr.Schedule(uf, nil, uplinkFrameEvent, vrtime.SecondsToTime(ss.phy.FrameDuration()))
	return nil
}
