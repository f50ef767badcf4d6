package wimax

// wimax.go holds the global structures used to register and look up the
// objects that make up a subscriber station model: stations, connections,
// and service flows.  Objects register themselves here at creation so that
// trace records and configuration references can be resolved by name or id

import (
	"github.com/iti/evt/evtm"
)

// NumIds holds the value of the most recently allocated object id.
// Every station, connection, and service flow gets one
var NumIds int = 0

// nxtID returns a unique integer identifier for objects as they are created
func nxtID() int {
	NumIds += 1
	return NumIds
}

// maps that let you use a name or identifier to look up an object
var StationByName map[string]*SubscriberStation = make(map[string]*SubscriberStation)
var StationByID map[int]*SubscriberStation = make(map[int]*SubscriberStation)
var ConnByCid map[uint16]*Connection = make(map[uint16]*Connection)
var FlowBySfid map[uint32]*ServiceFlow = make(map[uint32]*ServiceFlow)

// ClearState empties the global registries and resets the id and cid
// counters.  Called before building a model when an earlier one was
// assembled in the same process
func ClearState() {
	NumIds = 0
	StationByName = make(map[string]*SubscriberStation)
	StationByID = make(map[int]*SubscriberStation)
	ConnByCid = make(map[uint16]*Connection)
	FlowBySfid = make(map[uint32]*ServiceFlow)
	resetCidFactory()
	nxtSfid = 1
	numberOfStations = 0
	numberOfFlows = 0
	numberOfFatTrees = 0
}

// numberOfStations and numberOfFlows count the default instances of each
// object type created, used to generate unique default names
var numberOfStations int = 0
var numberOfFlows int = 0

// NullHandler exists to provide a link for data fields that call for
// an event handler, but no event handler is actually needed
func NullHandler(evtMgr *evtm.EventManager, context any, msg any) any {
	return nil
}
