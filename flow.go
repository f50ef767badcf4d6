package wimax

// flow.go holds the service flow structures.  A service flow is a QoS
// binding over one transport connection, classified by scheduling type.
// UGS and rtPS flows carry a timing attribute and a next-grant timestamp
// that gates their eligibility in the scheduler's priority ladder; nrtPS
// and BE flows have no timing state

import (
	"fmt"
)

// SchedulingType classifies a service flow's uplink service discipline
type SchedulingType int

const (
	SfUGS SchedulingType = iota
	SfRtPS
	SfNrtPS
	SfBE
)

// sfTypeFromStr returns the SchedulingType corresponding to a string name for it
func sfTypeFromStr(sfType string) (SchedulingType, error) {
	switch sfType {
	case "UGS", "ugs":
		return SfUGS, nil
	case "rtPS", "rtps", "RTPS":
		return SfRtPS, nil
	case "nrtPS", "nrtps", "NRTPS":
		return SfNrtPS, nil
	case "BE", "be":
		return SfBE, nil
	}
	return SfBE, fmt.Errorf("unrecognized scheduling type %s", sfType)
}

// sfTypeToStr returns the string name of a SchedulingType
func sfTypeToStr(sfType SchedulingType) string {
	switch sfType {
	case SfUGS:
		return "UGS"
	case SfRtPS:
		return "rtPS"
	case SfNrtPS:
		return "nrtPS"
	case SfBE:
		return "BE"
	}
	return "BE"
}

func (sfType SchedulingType) String() string {
	return sfTypeToStr(sfType)
}

// nxtSfid is the service flow identifier counter
var nxtSfid uint32 = 1

// ServiceFlow binds a scheduling discipline and its timing state to one
// transport connection
type ServiceFlow struct {
	Sfid   uint32
	Name   string
	sfType SchedulingType
	conn   *Connection

	// interval between unsolicited grants (UGS) or unsolicited polls
	// (rtPS), in seconds.  Zero for nrtPS and BE
	interval float64

	// absolute instant, in seconds, at which the flow next merits a grant.
	// Starts at zero so a backlogged flow is eligible immediately, and
	// advances by the interval each time the ladder grants the flow
	nextGrant float64
}

// createServiceFlow is a constructor.  The interval argument is in
// milliseconds, as flow descriptions express it, and applies only to UGS
// and rtPS flows.  The flow is registered under its sfid
func createServiceFlow(name string, sfType SchedulingType, conn *Connection, intervalMsec float64) *ServiceFlow {
	sf := new(ServiceFlow)
	numberOfFlows += 1

	// an empty string given as name flags that we should create a default one
	if len(name) == 0 {
		name = fmt.Sprintf("sf(%s).%d", sfTypeToStr(sfType), numberOfFlows)
	}
	sf.Sfid = nxtSfid
	nxtSfid += 1
	sf.Name = name
	sf.sfType = sfType
	sf.conn = conn
	if sfType == SfUGS || sfType == SfRtPS {
		sf.interval = intervalMsec / 1e3
	}
	FlowBySfid[sf.Sfid] = sf
	return sf
}

// Type returns the flow's scheduling discipline
func (sf *ServiceFlow) Type() SchedulingType {
	return sf.sfType
}

// Connection returns the transport connection the flow rides on
func (sf *ServiceFlow) Connection() *Connection {
	return sf.conn
}

// Interval returns the flow's grant or poll interval in seconds
func (sf *ServiceFlow) Interval() float64 {
	return sf.interval
}

// NextGrantTime returns the absolute instant at which the flow next merits
// a grant
func (sf *ServiceFlow) NextGrantTime() float64 {
	return sf.nextGrant
}

// SetNextGrantTime pins the flow's next-grant instant, used when building a
// model whose flows should not all start eligible
func (sf *ServiceFlow) SetNextGrantTime(when float64) {
	sf.nextGrant = when
}

// deadlineReached tells whether the flow merits a grant by the given
// horizon (the current time extended by one frame).  nrtPS and BE flows
// carry no deadline and are always past it
func (sf *ServiceFlow) deadlineReached(horizon float64) bool {
	if sf.sfType == SfNrtPS || sf.sfType == SfBE {
		return true
	}
	return sf.nextGrant <= horizon
}

// advanceGrantTime moves the next-grant instant forward by the flow's
// interval, called after the ladder grants the flow
func (sf *ServiceFlow) advanceGrantTime() {
	sf.nextGrant = roundFloat(sf.nextGrant+sf.interval, rdigits)
}

// ServiceFlowMgr is a station's registry of service flows.  Iteration
// order everywhere is insertion order, which the priority ladder depends on
type ServiceFlowMgr struct {
	flows []*ServiceFlow
}

// createServiceFlowMgr is a constructor
func createServiceFlowMgr() *ServiceFlowMgr {
	sfm := new(ServiceFlowMgr)
	sfm.flows = make([]*ServiceFlow, 0)
	return sfm
}

// AddFlow appends a flow to the registry
func (sfm *ServiceFlowMgr) AddFlow(sf *ServiceFlow) {
	sfm.flows = append(sfm.flows, sf)
}

// FlowsOfType returns the registry's flows of the given scheduling type, in
// insertion order
func (sfm *ServiceFlowMgr) FlowsOfType(sfType SchedulingType) []*ServiceFlow {
	matched := make([]*ServiceFlow, 0)
	for _, sf := range sfm.flows {
		if sf.sfType == sfType {
			matched = append(matched, sf)
		}
	}
	return matched
}

// AllFlows returns every registered flow, in insertion order
func (sfm *ServiceFlowMgr) AllFlows() []*ServiceFlow {
	return sfm.flows
}

// FlowForSfid looks a flow up by its identifier, returning nil when absent
func (sfm *ServiceFlowMgr) FlowForSfid(sfid uint32) *ServiceFlow {
	for _, sf := range sfm.flows {
		if sf.Sfid == sfid {
			return sf
		}
	}
	return nil
}
