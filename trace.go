package wimax

// trace.go holds the trace manager and the record types gathered during a
// run: one record per uplink grant and one per SDU arrival.  Traces are
// collected in memory, keyed by station id, and serialized to yaml or
// json at the end of a run

import (
	"encoding/json"
	"github.com/iti/evt/vrtime"
	"gopkg.in/yaml.v3"
	"os"
	"path"
	"strconv"
)

type TraceRecordType int

const (
	GrantType TraceRecordType = iota
	ArrivalType
)

var trtToStr map[TraceRecordType]string = map[TraceRecordType]string{GrantType: "grant", ArrivalType: "arrival"}

type TraceInst struct {
	TraceTime string
	TraceType string
	TraceStr  string
}

// NameType is an entry in a dictionary created for a trace
// that maps object id numbers to a (name,type) pair
type NameType struct {
	Name string
	Type string
}

// TraceManager gathers information about a station model and an execution
// of that model
type TraceManager struct {
	// experiment uses trace
	InUse bool `json:"inuse" yaml:"inuse"`

	// name of experiment
	ExpName string `json:"expname" yaml:"expname"`

	// text name associated with each objID
	NameByID map[int]NameType `json:"namebyid" yaml:"namebyid"`

	// all trace records for this experiment, keyed by station id
	Traces map[int][]TraceInst `json:"traces" yaml:"traces"`
}

// CreateTraceManager is a constructor.  It saves the name of the experiment
// and a flag indicating whether the trace manager is active.  By testing this
// flag we can inhibit the activity of gathering a trace when we don't want it,
// while embedding calls to its methods everywhere we need them when it is
func CreateTraceManager(ExpName string, active bool) *TraceManager {
	tm := new(TraceManager)
	tm.InUse = active
	tm.ExpName = ExpName
	tm.NameByID = make(map[int]NameType)
	tm.Traces = make(map[int][]TraceInst)
	return tm
}

// Active tells the caller whether the Trace Manager is actively being used
func (tm *TraceManager) Active() bool {
	return tm.InUse
}

// AddTrace creates a record of the trace using its calling arguments, and stores it
func (tm *TraceManager) AddTrace(vrt vrtime.Time, stationID int, trace TraceInst) {

	// return if we aren't using the trace manager
	if !tm.InUse {
		return
	}

	_, present := tm.Traces[stationID]
	if !present {
		tm.Traces[stationID] = make([]TraceInst, 0)
	}
	tm.Traces[stationID] = append(tm.Traces[stationID], trace)
}

// AddName is used to add an element to the id -> (name,type) dictionary for the trace file
func (tm *TraceManager) AddName(id int, name string, objDesc string) {
	if tm.InUse {
		_, present := tm.NameByID[id]
		if present {
			panic("duplicated id in AddName")
		}
		tm.NameByID[id] = NameType{Name: name, Type: objDesc}
	}
}

// WriteToFile stores the Traces struct to the file whose name is given.
// Serialization to json or to yaml is selected based on the extension of this name.
func (tm *TraceManager) WriteToFile(filename string) bool {
	if !tm.InUse {
		return false
	}
	pathExt := path.Ext(filename)
	var bytes []byte
	var merr error = nil

	if pathExt == ".yaml" || pathExt == ".YAML" || pathExt == ".yml" {
		bytes, merr = yaml.Marshal(*tm)
	} else if pathExt == ".json" || pathExt == ".JSON" {
		bytes, merr = json.MarshalIndent(*tm, "", "\t")
	}

	if merr != nil {
		panic(merr)
	}

	f, cerr := os.Create(filename)
	if cerr != nil {
		panic(cerr)
	}
	_, werr := f.WriteString(string(bytes[:]))
	if werr != nil {
		panic(werr)
	}
	f.Close()
	return true
}

// GrantTrace saves the outcome of one uplink allocation: what was granted,
// which connection the scheduler picked, and what the burst carried.
// Saved for post-run analysis
type GrantTrace struct {
	Time      float64 // time in float64
	Ticks     int64   // ticks variable of time
	Priority  int64   // priority field of time-stamp
	Station   string  // name of the station scheduling the grant
	Cid       int     // selected connection, -1 when nothing was eligible
	ConnType  string  // connection type of the selection
	Hdr       string  // MAC header type served
	Symbols   uint16  // granted symbol count
	BurstByte uint32  // bytes packed into the burst
	Pckts     int     // PDUs in the burst
	Frags     int     // PDUs carrying a fragmentation subheader
	PollMe    bool    // scheduler poll request flag at grant time
}

func (gt *GrantTrace) TraceType() TraceRecordType {
	return GrantType
}

func (gt *GrantTrace) Serialize() string {
	var bytes []byte
	var merr error

	bytes, merr = yaml.Marshal(*gt)

	if merr != nil {
		panic(merr)
	}
	return string(bytes[:])
}

// AddGrantTrace creates a record of an uplink grant and stores it with the
// scheduling station's traces
func AddGrantTrace(tm *TraceManager, vrt vrtime.Time, ss *SubscriberStation,
	symbols uint16, hdr HeaderType, conn *Connection, burst *Burst) {

	gt := new(GrantTrace)
	gt.Time = vrt.Seconds()
	gt.Ticks = vrt.Ticks()
	gt.Priority = vrt.Pri()
	gt.Station = ss.Name
	if conn != nil {
		gt.Cid = int(conn.ID)
		gt.ConnType = cidTypeToStr(conn.Type())
	} else {
		gt.Cid = -1
	}
	gt.Hdr = hdrToStr(hdr)
	gt.Symbols = symbols
	gt.BurstByte = burst.TotalBytes()
	gt.Pckts = burst.NumPackets()
	gt.Frags = burst.NumFragments()
	gt.PollMe = ss.sched.PollMe()

	gtStr := gt.Serialize()
	traceTime := strconv.FormatFloat(vrt.Seconds(), 'f', -1, 64)

	trcInst := TraceInst{TraceTime: traceTime, TraceType: "grant", TraceStr: gtStr}
	tm.AddTrace(vrt, ss.Number, trcInst)
}

// ArrivalTrace saves the delivery of one SDU to a connection queue
type ArrivalTrace struct {
	Time     float64 // time in float64
	Station  string  // station whose connection received the SDU
	Cid      int     // connection the SDU was classified onto
	SduBytes uint32  // payload length
	QLen     int     // queue length after the delivery
	Accepted bool    // false when the queue was full and dropped it
}

func (at *ArrivalTrace) TraceType() TraceRecordType {
	return ArrivalType
}

func (at *ArrivalTrace) Serialize() string {
	var bytes []byte
	var merr error

	bytes, merr = yaml.Marshal(*at)

	if merr != nil {
		panic(merr)
	}
	return string(bytes[:])
}

// AddArrivalTrace creates a record of an SDU delivery and stores it with
// the receiving station's traces
func AddArrivalTrace(tm *TraceManager, vrt vrtime.Time, ss *SubscriberStation,
	conn *Connection, sduBytes uint32, accepted bool) {

	at := new(ArrivalTrace)
	at.Time = vrt.Seconds()
	at.Station = ss.Name
	at.Cid = int(conn.ID)
	at.SduBytes = sduBytes
	at.QLen = conn.Queue().NumPackets()
	at.Accepted = accepted

	atStr := at.Serialize()
	traceTime := strconv.FormatFloat(vrt.Seconds(), 'f', -1, 64)

	trcInst := TraceInst{TraceTime: traceTime, TraceType: "arrival", TraceStr: atStr}
	tm.AddTrace(vrt, ss.Number, trcInst)
}
