package wimax

// traffic.go holds the traffic generation used to exercise a station
// model: SDU arrivals into service flow queues with exponential
// interarrivals, flow sizes drawn from an empirical CDF, incast bursts
// that land a fan-in of SDUs at once, and low rate management chatter.
// The same CDF machinery feeds the fat-tree traffic table builder

import (
	"fmt"
	"github.com/iti/evt/evtm"
	"github.com/iti/evt/vrtime"
	"github.com/iti/rngstream"
	"math"
)

var rdigits uint = 15

// round computed simulation time to avoid non-sensical comparisons
// induced by rounding error
func roundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// expRV returns a sample of an exponentially distributed random number
func expRV(u01, rate float64) float64 {
	return -math.Log(1.0-u01) / rate
}

// sampleExpRV has the function signature expected by the generators
// for drawing a next interarrival time
func sampleExpRV(u01 float64, params []float64) float64 {
	return expRV(u01, params[0])
}

// sampleConst has the function signature expected by the generators
// for drawing a next interarrival time, here, a constant
func sampleConst(u01 float64, params []float64) float64 {
	return 1.0 / params[0]
}

// CdfPoint pairs a flow size in bytes with the cumulative percentage of
// flows at or below it
type CdfPoint struct {
	Bytes uint32  `json:"bytes" yaml:"bytes"`
	Pct   float64 `json:"pct" yaml:"pct"`
}

// FlowSizeCdf is an empirical flow size distribution sampled by inverse
// transform with linear interpolation between its points
type FlowSizeCdf struct {
	points []CdfPoint
}

// CreateFlowSizeCdf is a constructor.  It validates that the table is a
// proper CDF: at least two points, sizes and percentages nondecreasing,
// and a final percentage of 100
func CreateFlowSizeCdf(points []CdfPoint) (*FlowSizeCdf, error) {
	if len(points) < 2 {
		return nil, fmt.Errorf("flow size cdf needs at least two points, got %d", len(points))
	}
	for idx := 1; idx < len(points); idx += 1 {
		if points[idx].Pct < points[idx-1].Pct {
			return nil, fmt.Errorf("flow size cdf percentage decreases at point %d", idx)
		}
		if points[idx].Bytes < points[idx-1].Bytes {
			return nil, fmt.Errorf("flow size cdf byte size decreases at point %d", idx)
		}
	}
	if points[0].Pct < 0.0 || points[len(points)-1].Pct != 100.0 {
		return nil, fmt.Errorf("flow size cdf must start at or above 0 and end at exactly 100")
	}
	cdf := new(FlowSizeCdf)
	cdf.points = points
	return cdf, nil
}

// HadoopCdf returns the Hadoop workload flow size distribution used as the
// default background traffic model
func HadoopCdf() *FlowSizeCdf {
	cdf, _ := CreateFlowSizeCdf([]CdfPoint{
		{0, 0.0},
		{100, 1.0},
		{200, 2.0},
		{300, 5.0},
		{350, 15.0},
		{400, 20.0},
		{500, 30.0},
		{600, 40.0},
		{700, 50.0},
		{1000, 60.0},
		{2000, 67.0},
		{7000, 70.0},
		{30000, 72.0},
		{50000, 82.0},
		{80000, 87.0},
		{120000, 90.0},
		{300000, 95.0},
		{1000000, 97.5},
		{2000000, 99.0},
		{10000000, 100.0},
	})
	return cdf
}

// SampleBytes draws a flow size from the distribution by inverse
// transform, interpolating linearly between bracketing points
func (cdf *FlowSizeCdf) SampleBytes(u01 float64) uint32 {
	pct := u01 * 100.0
	for idx := 0; idx < len(cdf.points); idx += 1 {
		if pct <= cdf.points[idx].Pct {
			if idx == 0 {
				return cdf.points[0].Bytes
			}
			prev := cdf.points[idx-1]
			next := cdf.points[idx]
			ratio := (pct - prev.Pct) / (next.Pct - prev.Pct)
			return prev.Bytes + uint32(ratio*float64(next.Bytes-prev.Bytes))
		}
	}
	return cdf.points[len(cdf.points)-1].Bytes
}

// AvgBytes computes the mean flow size implied by the table, weighting
// each point's size by the probability mass between it and its predecessor
func (cdf *FlowSizeCdf) AvgBytes() float64 {
	avg := 0.0
	for idx := 1; idx < len(cdf.points); idx += 1 {
		prob := cdf.points[idx].Pct - cdf.points[idx-1].Pct
		avg += float64(cdf.points[idx].Bytes) * prob / 100.0
	}
	return avg
}

// OfferedLoadRate derives an SDU arrival rate (per second) that presents
// the given load against the drain capacity of a recurring grant: the
// grant's bytes per frame over the frame duration, scaled by load and
// divided by the mean SDU size
func OfferedLoadRate(phy phyConverter, grant *UplinkGrant, load, avgSduBytes float64) float64 {
	drainBytesPerSec := float64(phy.BytesForSymbols(grant.Symbols, grant.Mod)) / phy.FrameDuration()
	return load * drainBytesPerSec / avgSduBytes
}

// TrafficGen delivers SDUs to one service flow with exponential
// interarrivals.  Sizes come from a CDF when one is given, otherwise every
// SDU is meanBytes long
type TrafficGen struct {
	ss        *SubscriberStation
	sf        *ServiceFlow
	cdf       *FlowSizeCdf
	meanBytes uint32
	rate      float64 // SDU arrivals per second
	horizon   float64 // no arrivals scheduled at or past this time
	rngstrm   *rngstream.RngStream

	// function that computes interarrival times.  First argument is a U01
	// random number, second is a vector of parameters for the distribution
	sampleNxtArrival func(float64, []float64) float64
}

// CreateTrafficGen is a constructor.  The generator shares its station's
// random number stream
func CreateTrafficGen(ss *SubscriberStation, sf *ServiceFlow, cdf *FlowSizeCdf,
	meanBytes uint32, rate, horizon float64) *TrafficGen {

	if rate <= 0.0 {
		panic(fmt.Errorf("traffic generator for flow %s given non-positive rate %f", sf.Name, rate))
	}
	tg := new(TrafficGen)
	tg.ss = ss
	tg.sf = sf
	tg.cdf = cdf
	tg.meanBytes = meanBytes
	tg.rate = rate
	tg.horizon = horizon
	tg.rngstrm = ss.devRng()
	tg.sampleNxtArrival = sampleExpRV
	return tg
}

// Start schedules the generator's first arrival
func (tg *TrafficGen) Start(evtMgr *evtm.EventManager) {
	tg.scheduleNxt(evtMgr)
}

// scheduleNxt draws the next interarrival and schedules the arrival event,
// unless it would land past the horizon
func (tg *TrafficGen) scheduleNxt(evtMgr *evtm.EventManager) {
	interArrival := tg.sampleNxtArrival(tg.rngstrm.RandU01(), []float64{tg.rate})
	if evtMgr.CurrentSeconds()+interArrival >= tg.horizon {
		return
	}
	evtMgr.Schedule(tg, nil, trafficArrivalEvent, vrtime.SecondsToTime(interArrival))
}

// trafficArrivalEvent delivers one SDU and schedules the next arrival
func trafficArrivalEvent(evtMgr *evtm.EventManager, context any, data any) any {
	tg := context.(*TrafficGen)
	sduBytes := tg.meanBytes
	if tg.cdf != nil {
		sduBytes = tg.cdf.SampleBytes(tg.rngstrm.RandU01())
	}
	tg.ss.DeliverSdu(tg.sf, sduBytes)
	tg.scheduleNxt(evtMgr)
	return nil
}

// IncastEpochRate derives the epoch rate (per second) that presents the
// given load against the drain capacity of a recurring grant, when each
// epoch delivers fanIn SDUs of senderBytes each
func IncastEpochRate(phy phyConverter, grant *UplinkGrant, load float64, fanIn int, senderBytes uint32) float64 {
	drainBytesPerSec := float64(phy.BytesForSymbols(grant.Symbols, grant.Mod)) / phy.FrameDuration()
	epochBytes := float64(fanIn) * float64(senderBytes)
	return load * drainBytesPerSec / epochBytes
}

// IncastGen delivers a fan-in of same-sized SDUs to one service flow at
// exponentially spaced epochs, modeling the synchronized arrivals of an
// incast workload
type IncastGen struct {
	ss          *SubscriberStation
	sf          *ServiceFlow
	fanIn       int
	senderBytes uint32
	rate        float64 // epochs per second
	horizon     float64
	rngstrm     *rngstream.RngStream

	Epochs int // epochs fired, for the end-of-run summary
}

// CreateIncastGen is a constructor
func CreateIncastGen(ss *SubscriberStation, sf *ServiceFlow, fanIn int,
	senderBytes uint32, rate, horizon float64) *IncastGen {

	if rate <= 0.0 {
		panic(fmt.Errorf("incast generator for flow %s given non-positive rate %f", sf.Name, rate))
	}
	ig := new(IncastGen)
	ig.ss = ss
	ig.sf = sf
	ig.fanIn = fanIn
	ig.senderBytes = senderBytes
	ig.rate = rate
	ig.horizon = horizon
	ig.rngstrm = ss.devRng()
	return ig
}

// Start schedules the generator's first epoch
func (ig *IncastGen) Start(evtMgr *evtm.EventManager) {
	ig.scheduleNxt(evtMgr)
}

func (ig *IncastGen) scheduleNxt(evtMgr *evtm.EventManager) {
	interArrival := expRV(ig.rngstrm.RandU01(), ig.rate)
	if evtMgr.CurrentSeconds()+interArrival >= ig.horizon {
		return
	}
	evtMgr.Schedule(ig, nil, incastEpochEvent, vrtime.SecondsToTime(interArrival))
}

// incastEpochEvent lands the whole fan-in on the flow's queue at once and
// schedules the next epoch
func incastEpochEvent(evtMgr *evtm.EventManager, context any, data any) any {
	ig := context.(*IncastGen)
	for sender := 0; sender < ig.fanIn; sender += 1 {
		ig.ss.DeliverSdu(ig.sf, ig.senderBytes)
	}
	ig.Epochs += 1
	ig.scheduleNxt(evtMgr)
	return nil
}

// MgmtGen delivers fixed-size management SDUs to one of the station's
// management connections at a low exponential rate, keeping the upper
// rungs of the priority ladder exercised
type MgmtGen struct {
	ss       *SubscriberStation
	cidType  CidType
	hdr      HeaderType
	sduBytes uint32
	rate     float64
	horizon  float64
	rngstrm  *rngstream.RngStream
}

// CreateMgmtGen is a constructor
func CreateMgmtGen(ss *SubscriberStation, cidType CidType, hdr HeaderType,
	sduBytes uint32, rate, horizon float64) *MgmtGen {

	if rate <= 0.0 {
		panic(fmt.Errorf("management generator for station %s given non-positive rate %f", ss.Name, rate))
	}
	mg := new(MgmtGen)
	mg.ss = ss
	mg.cidType = cidType
	mg.hdr = hdr
	mg.sduBytes = sduBytes
	mg.rate = rate
	mg.horizon = horizon
	mg.rngstrm = ss.devRng()
	return mg
}

// Start schedules the generator's first arrival
func (mg *MgmtGen) Start(evtMgr *evtm.EventManager) {
	mg.scheduleNxt(evtMgr)
}

func (mg *MgmtGen) scheduleNxt(evtMgr *evtm.EventManager) {
	interArrival := expRV(mg.rngstrm.RandU01(), mg.rate)
	if evtMgr.CurrentSeconds()+interArrival >= mg.horizon {
		return
	}
	evtMgr.Schedule(mg, nil, mgmtArrivalEvent, vrtime.SecondsToTime(interArrival))
}

// mgmtArrivalEvent delivers one management SDU and schedules the next
func mgmtArrivalEvent(evtMgr *evtm.EventManager, context any, data any) any {
	mg := context.(*MgmtGen)
	mg.ss.DeliverMgmtSdu(mg.cidType, mg.sduBytes, mg.hdr)
	mg.scheduleNxt(evtMgr)
	return nil
}
