package wimax

// desc-topo.go holds the structs and methods that build the fat-tree
// fabric description consumed by the route analysis and written out for
// downstream tools.  A "Frame" version of each structure is used during
// construction and holds pointers; its "Desc" counterpart replaces the
// pointers with names and is what gets serialized.  The file also holds
// the pre-sampled traffic table builder and the file-system probes the
// command line tools use to validate their inputs and outputs

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/iti/rngstream"
	"gopkg.in/yaml.v3"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// default fabric geometry and workload intensities for the scripted
// three-tier build
const (
	DefaultRacks          int = 20
	DefaultServersPerRack int = 16
	DefaultAggSwitches    int = 20
	DefaultCoreSwitches   int = 16

	DefaultIncastFanIn int    = 64
	DefaultIncastBytes uint32 = 20480
)

const (
	DefaultBackgroundLoad float64 = 0.5
	DefaultIncastLoad     float64 = 0.2
	DefaultSimTime        float64 = 5.0
)

// FabricParams carries the link and switch attributes shared by every
// device of a tier: edge and fabric link rates, propagation delay, switch
// buffering, and the PFC pause threshold
type FabricParams struct {
	ServerLinkGbps float64 `json:"serverlinkgbps" yaml:"serverlinkgbps"`
	SwitchLinkGbps float64 `json:"switchlinkgbps" yaml:"switchlinkgbps"`
	LinkDelaySec   float64 `json:"linkdelaysec" yaml:"linkdelaysec"`
	BufferBytes    int     `json:"bufferbytes" yaml:"bufferbytes"`
	PfcXoffBytes   int     `json:"pfcxoffbytes" yaml:"pfcxoffbytes"`
	AvgPacketSize  int     `json:"avgpacketsize" yaml:"avgpacketsize"`
}

// DefaultFabricParams returns the attribute block of the reference
// fabric: 100Gbps edge links, 400Gbps fabric links, 1 microsecond of
// propagation delay, 32MB of buffer per switch, and a 512KB XOFF threshold
func DefaultFabricParams() FabricParams {
	fp := new(FabricParams)
	fp.ServerLinkGbps = 100.0
	fp.SwitchLinkGbps = 400.0
	fp.LinkDelaySec = 1e-6
	fp.BufferBytes = 32 * 1024 * 1024
	fp.PfcXoffBytes = 512 * 1024
	fp.AvgPacketSize = 1500
	return *fp
}

// tier names used in SwitchDesc and in the up-down route validity check
const (
	TierServer string = "server"
	TierTor    string = "tor"
	TierAgg    string = "agg"
	TierCore   string = "core"
)

// A fabricDev is an endpoint a fabric link can attach to
type fabricDev interface {
	DevName() string
	DevTier() string
}

// ServerFrame describes a server during construction
type ServerFrame struct {
	Name string
	Rack int
}

// ServerDesc is the serializable version of a server description
type ServerDesc struct {
	Name string `json:"name" yaml:"name"`
	Rack int    `json:"rack" yaml:"rack"`
}

// DevName returns the server's name
func (srvr *ServerFrame) DevName() string {
	return srvr.Name
}

// DevTier returns the server's tier label
func (srvr *ServerFrame) DevTier() string {
	return TierServer
}

// Transform converts a ServerFrame and returns a ServerDesc, for serialization
func (srvr *ServerFrame) Transform() ServerDesc {
	sd := new(ServerDesc)
	sd.Name = srvr.Name
	sd.Rack = srvr.Rack
	return *sd
}

// SwitchFrame describes a switch during construction.  Tier is one of
// "tor", "agg", "core", and Index is the switch's position within its tier
type SwitchFrame struct {
	Name  string
	Tier  string
	Index int
}

// SwitchDesc is the serializable version of a switch description
type SwitchDesc struct {
	Name  string `json:"name" yaml:"name"`
	Tier  string `json:"tier" yaml:"tier"`
	Index int    `json:"index" yaml:"index"`
}

// DevName returns the switch's name
func (swtch *SwitchFrame) DevName() string {
	return swtch.Name
}

// DevTier returns the switch's tier label
func (swtch *SwitchFrame) DevTier() string {
	return swtch.Tier
}

// Transform converts a SwitchFrame and returns a SwitchDesc, for serialization
func (swtch *SwitchFrame) Transform() SwitchDesc {
	sd := new(SwitchDesc)
	sd.Name = swtch.Name
	sd.Tier = swtch.Tier
	sd.Index = swtch.Index
	return *sd
}

// LinkFrame describes a link during construction, with pointers to its
// endpoint devices
type LinkFrame struct {
	EndptA   fabricDev
	EndptB   fabricDev
	RateGbps float64
	DelaySec float64
}

// LinkDesc is the serializable version of a link description, where the
// endpoint pointers are replaced by the names of those devices
type LinkDesc struct {
	EndptA   string  `json:"endpta" yaml:"endpta"`
	EndptB   string  `json:"endptb" yaml:"endptb"`
	RateGbps float64 `json:"rategbps" yaml:"rategbps"`
	DelaySec float64 `json:"delaysec" yaml:"delaysec"`
}

// Transform converts a LinkFrame and returns a LinkDesc, for serialization
func (lnk *LinkFrame) Transform() LinkDesc {
	ld := new(LinkDesc)
	ld.EndptA = lnk.EndptA.DevName()
	ld.EndptB = lnk.EndptB.DevName()
	ld.RateGbps = lnk.RateGbps
	ld.DelaySec = lnk.DelaySec
	return *ld
}

var numberOfFatTrees int = 0

// DefaultFatTreeName returns a unique name for a fat-tree frame
func DefaultFatTreeName() string {
	return fmt.Sprintf("fattree.[%d]", numberOfFatTrees)
}

// The FatTreeFrame struct gives the highest level structure of the fabric,
// and is ultimately the encompassing dictionary in the serialization
type FatTreeFrame struct {
	Name     string
	Params   FabricParams
	Servers  []*ServerFrame
	Switches []*SwitchFrame
	Links    []*LinkFrame

	// names of devices a device has been linked to already, to catch
	// attempts to wire the same pair twice
	connected map[string][]string
}

// isConnected indicates whether two devices whose names are given are
// already joined by a link in this frame
func (ftf *FatTreeFrame) isConnected(name1, name2 string) bool {
	_, present := ftf.connected[name1]
	if !present {
		return false
	}
	for _, peer := range ftf.connected[name1] {
		if peer == name2 {
			return true
		}
	}
	return false
}

// markConnected modifies the connected map to reflect that the devices
// whose names are the arguments have been joined by a link
func (ftf *FatTreeFrame) markConnected(name1, name2 string) {
	ftf.connected[name1] = append(ftf.connected[name1], name2)
	ftf.connected[name2] = append(ftf.connected[name2], name1)
}

// connectDevs establishes a link between two devices at the given rate.
// A repeated pair is a construction error
func (ftf *FatTreeFrame) connectDevs(dev1, dev2 fabricDev, rateGbps float64) error {
	if ftf.isConnected(dev1.DevName(), dev2.DevName()) {
		return fmt.Errorf("attempt to link %s and %s twice", dev1.DevName(), dev2.DevName())
	}
	ftf.markConnected(dev1.DevName(), dev2.DevName())

	lnk := new(LinkFrame)
	lnk.EndptA = dev1
	lnk.EndptB = dev2
	lnk.RateGbps = rateGbps
	lnk.DelaySec = ftf.Params.LinkDelaySec
	ftf.Links = append(ftf.Links, lnk)
	return nil
}

// CreateFatTreeFrame is a constructor.  It builds the scripted three-tier
// fabric: serversPerRack servers under each of racks top-of-rack switches,
// every top-of-rack switch linked to every aggregation switch, and every
// aggregation switch linked to every core switch.  Server links run at the
// edge rate, switch-to-switch links at the fabric rate.  Nonsensical
// geometry is a configuration error and panics
func CreateFatTreeFrame(name string, racks, serversPerRack, aggCount, coreCount int, params FabricParams) *FatTreeFrame {
	if racks < 1 || serversPerRack < 1 || aggCount < 1 || coreCount < 1 {
		panic(fmt.Errorf("fat-tree geometry (%d racks, %d servers/rack, %d agg, %d core) needs every count positive",
			racks, serversPerRack, aggCount, coreCount))
	}

	ftf := new(FatTreeFrame)
	numberOfFatTrees += 1

	if len(name) == 0 {
		name = DefaultFatTreeName()
	}
	ftf.Name = name
	ftf.Params = params
	ftf.Servers = make([]*ServerFrame, 0)
	ftf.Switches = make([]*SwitchFrame, 0)
	ftf.Links = make([]*LinkFrame, 0)
	ftf.connected = make(map[string][]string)

	errList := []error{}

	// one top-of-rack switch per rack, serversPerRack servers beneath it
	tors := make([]*SwitchFrame, racks)
	for rack := 0; rack < racks; rack += 1 {
		tor := new(SwitchFrame)
		tor.Name = fmt.Sprintf("tor.[%d]", rack)
		tor.Tier = TierTor
		tor.Index = rack
		tors[rack] = tor
		ftf.Switches = append(ftf.Switches, tor)

		for slot := 0; slot < serversPerRack; slot += 1 {
			srvr := new(ServerFrame)
			srvr.Name = fmt.Sprintf("srv.[%d].[%d]", rack, slot)
			srvr.Rack = rack
			ftf.Servers = append(ftf.Servers, srvr)
			errList = append(errList, ftf.connectDevs(srvr, tor, params.ServerLinkGbps))
		}
	}

	// aggregation tier, each switch reaching every top-of-rack switch
	aggs := make([]*SwitchFrame, aggCount)
	for idx := 0; idx < aggCount; idx += 1 {
		agg := new(SwitchFrame)
		agg.Name = fmt.Sprintf("agg.[%d]", idx)
		agg.Tier = TierAgg
		agg.Index = idx
		aggs[idx] = agg
		ftf.Switches = append(ftf.Switches, agg)

		for rack := 0; rack < racks; rack += 1 {
			errList = append(errList, ftf.connectDevs(tors[rack], agg, params.SwitchLinkGbps))
		}
	}

	// core tier, each switch reaching every aggregation switch
	for idx := 0; idx < coreCount; idx += 1 {
		core := new(SwitchFrame)
		core.Name = fmt.Sprintf("core.[%d]", idx)
		core.Tier = TierCore
		core.Index = idx
		ftf.Switches = append(ftf.Switches, core)

		for aggIdx := 0; aggIdx < aggCount; aggIdx += 1 {
			errList = append(errList, ftf.connectDevs(aggs[aggIdx], core, params.SwitchLinkGbps))
		}
	}

	rerr := ReportErrs(errList)
	if rerr != nil {
		panic(rerr)
	}
	return ftf
}

// Type definitions for FatTreeCfg attributes
type ServerDescSlice []ServerDesc
type SwitchDescSlice []SwitchDesc
type LinkDescSlice []LinkDesc

// FatTreeCfg contains all of the servers, switches, and links of a
// fabric, as they are listed in the serialized file
type FatTreeCfg struct {
	Name     string          `json:"name" yaml:"name"`
	Params   FabricParams    `json:"params" yaml:"params"`
	Servers  ServerDescSlice `json:"servers" yaml:"servers"`
	Switches SwitchDescSlice `json:"switches" yaml:"switches"`
	Links    LinkDescSlice   `json:"links" yaml:"links"`
}

// Transform transforms the slices of pointers to fabric objects into
// slices of instances of those objects, for serialization
func (ftf *FatTreeFrame) Transform() FatTreeCfg {
	FD := new(FatTreeCfg)
	FD.Name = ftf.Name
	FD.Params = ftf.Params

	FD.Servers = make(ServerDescSlice, 0)
	for _, srvrf := range ftf.Servers {
		FD.Servers = append(FD.Servers, srvrf.Transform())
	}

	FD.Switches = make(SwitchDescSlice, 0)
	for _, switchf := range ftf.Switches {
		FD.Switches = append(FD.Switches, switchf.Transform())
	}

	FD.Links = make(LinkDescSlice, 0)
	for _, lnkf := range ftf.Links {
		FD.Links = append(FD.Links, lnkf.Transform())
	}

	return *FD
}

// WriteToFile serializes the FatTreeCfg and writes to the file whose name
// is given as an input argument.  Extension of the file name selects
// whether serialization is to json or to yaml format
func (dict *FatTreeCfg) WriteToFile(filename string) error {
	pathExt := path.Ext(filename)
	var bytes []byte
	var merr error = nil

	if pathExt == ".yaml" || pathExt == ".YAML" || pathExt == ".yml" {
		bytes, merr = yaml.Marshal(*dict)
	} else if pathExt == ".json" || pathExt == ".JSON" {
		bytes, merr = json.MarshalIndent(*dict, "", "\t")
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

	return werr
}

// ReadFatTreeCfg deserializes a slice of bytes into a FatTreeCfg.  If the
// input arg of bytes is empty, the file whose name is given as an argument
// is read.  Error returned if any part of the process generates one
func ReadFatTreeCfg(topoFileName string, useYAML bool, dict []byte) (*FatTreeCfg, error) {
	var err error

	// read from the file only if the byte slice is empty
	if len(dict) == 0 {
		fileInfo, err := os.Stat(topoFileName)
		if os.IsNotExist(err) || fileInfo.IsDir() {
			msg := fmt.Sprintf("fabric topology %s does not exist or cannot be read", topoFileName)
			fmt.Println(msg)

			return nil, errors.New(msg)
		}
		dict, err = os.ReadFile(topoFileName)
		if err != nil {
			return nil, err
		}
	}

	example := FatTreeCfg{}

	if useYAML {
		err = yaml.Unmarshal(dict, &example)
	} else {
		err = json.Unmarshal(dict, &example)
	}

	if err != nil {
		return nil, err
	}

	return &example, nil
}

// A FatTreeCfgDict holds instances of FatTreeCfg structures, in a map
// whose key is a name for the fabric.  Used to store pre-built fabrics
type FatTreeCfgDict struct {
	DictName string                `json:"dictname" yaml:"dictname"`
	Cfgs     map[string]FatTreeCfg `json:"cfgs" yaml:"cfgs"`
}

// CreateFatTreeCfgDict is a constructor.  Saves the dictionary name,
// initializes the FatTreeCfg map
func CreateFatTreeCfgDict(name string) *FatTreeCfgDict {
	ftcd := new(FatTreeCfgDict)
	ftcd.DictName = name
	ftcd.Cfgs = make(map[string]FatTreeCfg)

	return ftcd
}

// AddFatTreeCfg includes a FatTreeCfg into the dictionary, optionally
// returning an error if one with the same name has already been included
func (ftcd *FatTreeCfgDict) AddFatTreeCfg(ftc *FatTreeCfg, overwrite bool) error {
	if !overwrite {
		_, present := ftcd.Cfgs[ftc.Name]
		if present {
			return fmt.Errorf("attempt to overwrite FatTreeCfg %s in FatTreeCfgDict", ftc.Name)
		}
	}

	ftcd.Cfgs[ftc.Name] = *ftc

	return nil
}

// RecoverFatTreeCfg returns a copy (if one exists) of the FatTreeCfg with
// name equal to the input argument name, with a boolean indicating whether
// the entry was actually found
func (ftcd *FatTreeCfgDict) RecoverFatTreeCfg(name string) (*FatTreeCfg, bool) {
	ftc, present := ftcd.Cfgs[name]
	if present {
		return &ftc, true
	}

	return nil, false
}

// WriteToFile serializes the FatTreeCfgDict and writes to the file whose
// name is given as an input argument.  Extension of the file name selects
// whether serialization is to json or to yaml format
func (ftcd *FatTreeCfgDict) WriteToFile(filename string) error {
	pathExt := path.Ext(filename)
	var bytes []byte
	var merr error

	if pathExt == ".yaml" || pathExt == ".YAML" || pathExt == ".yml" {
		bytes, merr = yaml.Marshal(*ftcd)
	} else if pathExt == ".json" || pathExt == ".JSON" {
		bytes, merr = json.MarshalIndent(*ftcd, "", "\t")
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

	return werr
}

// ReadFatTreeCfgDict deserializes a slice of bytes into a FatTreeCfgDict.
// If the input arg of bytes is empty, the file whose name is given as an
// argument is read.  Error returned if any part of the process generates one
func ReadFatTreeCfgDict(cfgDictFileName string, useYAML bool, dict []byte) (*FatTreeCfgDict, error) {
	var err error

	if len(dict) == 0 {
		fileInfo, err := os.Stat(cfgDictFileName)
		if os.IsNotExist(err) || fileInfo.IsDir() {
			msg := fmt.Sprintf("fabric dict %s does not exist or cannot be read", cfgDictFileName)
			fmt.Println(msg)

			return nil, errors.New(msg)
		}
		dict, err = os.ReadFile(cfgDictFileName)
		if err != nil {
			return nil, err
		}
	}
	example := FatTreeCfgDict{}

	if useYAML {
		err = yaml.Unmarshal(dict, &example)
	} else {
		err = json.Unmarshal(dict, &example)
	}
	if err != nil {
		return nil, err
	}

	return &example, nil
}

// CheckFabric validates a FatTreeCfg: device names unique, tier labels
// recognized, link endpoints resolving to declared devices, every server
// attached by exactly one link, and positive rates.  The constituent
// complaints are aggregated into a single error
func CheckFabric(cfg *FatTreeCfg) error {
	errList := []error{}

	tierByName := make(map[string]string)
	for _, srvr := range cfg.Servers {
		_, present := tierByName[srvr.Name]
		if present {
			errList = append(errList, fmt.Errorf("device name %s duplicated", srvr.Name))
			continue
		}
		tierByName[srvr.Name] = TierServer
	}
	for _, swtch := range cfg.Switches {
		_, present := tierByName[swtch.Name]
		if present {
			errList = append(errList, fmt.Errorf("device name %s duplicated", swtch.Name))
			continue
		}
		if swtch.Tier != TierTor && swtch.Tier != TierAgg && swtch.Tier != TierCore {
			errList = append(errList, fmt.Errorf("switch %s carries unrecognized tier %s", swtch.Name, swtch.Tier))
			continue
		}
		tierByName[swtch.Name] = swtch.Tier
	}

	degree := make(map[string]int)
	for _, lnk := range cfg.Links {
		_, presentA := tierByName[lnk.EndptA]
		_, presentB := tierByName[lnk.EndptB]
		if !presentA {
			errList = append(errList, fmt.Errorf("link endpoint %s is not a declared device", lnk.EndptA))
		}
		if !presentB {
			errList = append(errList, fmt.Errorf("link endpoint %s is not a declared device", lnk.EndptB))
		}
		if lnk.RateGbps <= 0.0 {
			errList = append(errList, fmt.Errorf("link %s-%s carries non-positive rate", lnk.EndptA, lnk.EndptB))
		}
		degree[lnk.EndptA] += 1
		degree[lnk.EndptB] += 1
	}

	for _, srvr := range cfg.Servers {
		if degree[srvr.Name] != 1 {
			errList = append(errList, fmt.Errorf("server %s attached by %d links rather than one", srvr.Name, degree[srvr.Name]))
		}
	}

	return ReportErrs(errList)
}

// FlowEntry gives one pre-sampled background flow: start time, source and
// destination servers, and size
type FlowEntry struct {
	Start float64 `json:"start" yaml:"start"`
	Src   string  `json:"src" yaml:"src"`
	Dst   string  `json:"dst" yaml:"dst"`
	Bytes uint32  `json:"bytes" yaml:"bytes"`
}

// IncastEntry gives one pre-sampled incast epoch: start time, the
// receiving server, the fan-in of senders, and the bytes each sends
type IncastEntry struct {
	Start       float64  `json:"start" yaml:"start"`
	Dst         string   `json:"dst" yaml:"dst"`
	Senders     []string `json:"senders" yaml:"senders"`
	SenderBytes uint32   `json:"senderbytes" yaml:"senderbytes"`
}

// TrafficCfg holds the pre-sampled workload for a fabric: the background
// flow table and the incast epochs
type TrafficCfg struct {
	Name       string        `json:"name" yaml:"name"`
	Background []FlowEntry   `json:"background" yaml:"background"`
	Incasts    []IncastEntry `json:"incasts" yaml:"incasts"`
}

// randomServerPair draws a uniform source and a distinct uniform
// destination from the server list
func randomServerPair(servers []string, rng *rngstream.RngStream) (string, string) {
	src := servers[rng.RandInt(0, len(servers)-1)]
	dst := servers[rng.RandInt(0, len(servers)-1)]
	for dst == src {
		dst = servers[rng.RandInt(0, len(servers)-1)]
	}
	return src, dst
}

// incastSenders shuffles the servers other than the receiver and returns
// the first fanIn of them
func incastSenders(servers []string, dst string, fanIn int, rng *rngstream.RngStream) []string {
	pool := make([]string, 0, len(servers)-1)
	for _, name := range servers {
		if name != dst {
			pool = append(pool, name)
		}
	}
	for idx := len(pool) - 1; idx > 0; idx -= 1 {
		swap := rng.RandInt(0, idx)
		pool[idx], pool[swap] = pool[swap], pool[idx]
	}
	return pool[:fanIn]
}

// BuildTrafficCfg samples the whole workload for a fabric ahead of time.
// Background flows arrive as a Poisson stream whose rate presents bgLoad
// against the aggregate edge capacity, sizes drawn from the cdf, endpoints
// a uniform random distinct server pair.  Incast epochs arrive as a second
// Poisson stream presenting incastLoad, each delivering senderBytes from
// fanIn shuffled senders to a uniform random receiver.  Sampling for each
// stream stops at the first arrival falling at or past simTime
func BuildTrafficCfg(cfg *FatTreeCfg, cdf *FlowSizeCdf, bgLoad, incastLoad float64,
	fanIn int, senderBytes uint32, simTime float64, rng *rngstream.RngStream) *TrafficCfg {

	servers := make([]string, 0, len(cfg.Servers))
	for _, srvr := range cfg.Servers {
		servers = append(servers, srvr.Name)
	}
	if len(servers) < 2 {
		panic(fmt.Errorf("traffic table for fabric %s needs at least two servers", cfg.Name))
	}

	tc := new(TrafficCfg)
	tc.Name = cfg.Name
	tc.Background = make([]FlowEntry, 0)
	tc.Incasts = make([]IncastEntry, 0)

	edgeBitsPerSec := cfg.Params.ServerLinkGbps * 1e9

	if bgLoad > 0.0 {
		avgFlowBytes := cdf.AvgBytes()
		bgRate := bgLoad * edgeBitsPerSec * float64(len(servers)) / (avgFlowBytes * 8.0)

		now := 0.0
		for {
			interArrival := expRV(rng.RandU01(), bgRate)
			if now+interArrival >= simTime {
				break
			}
			now = roundFloat(now+interArrival, rdigits)
			src, dst := randomServerPair(servers, rng)
			tc.Background = append(tc.Background,
				FlowEntry{Start: now, Src: src, Dst: dst, Bytes: cdf.SampleBytes(rng.RandU01())})
		}
	}

	if incastLoad > 0.0 {
		if fanIn < 1 || fanIn >= len(servers) {
			panic(fmt.Errorf("incast fan-in %d needs to lie in [1, %d] for fabric %s",
				fanIn, len(servers)-1, cfg.Name))
		}
		epochBits := float64(senderBytes) * float64(fanIn) * 8.0
		incastRate := incastLoad * edgeBitsPerSec * float64(len(servers)) / epochBits

		now := 0.0
		for {
			interArrival := expRV(rng.RandU01(), incastRate)
			if now+interArrival >= simTime {
				break
			}
			now = roundFloat(now+interArrival, rdigits)
			dst := servers[rng.RandInt(0, len(servers)-1)]
			tc.Incasts = append(tc.Incasts,
				IncastEntry{Start: now, Dst: dst, Senders: incastSenders(servers, dst, fanIn, rng), SenderBytes: senderBytes})
		}
	}

	return tc
}

// WriteToFile serializes the TrafficCfg and writes to the file whose name
// is given as an input argument.  Extension of the file name selects
// whether serialization is to json or to yaml format
func (dict *TrafficCfg) WriteToFile(filename string) error {
	pathExt := path.Ext(filename)
	var bytes []byte
	var merr error = nil

	if pathExt == ".yaml" || pathExt == ".YAML" || pathExt == ".yml" {
		bytes, merr = yaml.Marshal(*dict)
	} else if pathExt == ".json" || pathExt == ".JSON" {
		bytes, merr = json.MarshalIndent(*dict, "", "\t")
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

	return werr
}

// ReadTrafficCfg deserializes a slice of bytes into a TrafficCfg.  If the
// input arg of bytes is empty, the file whose name is given as an argument
// is read.  Error returned if any part of the process generates one
func ReadTrafficCfg(trafficFileName string, useYAML bool, dict []byte) (*TrafficCfg, error) {
	var err error

	if len(dict) == 0 {
		fileInfo, err := os.Stat(trafficFileName)
		if os.IsNotExist(err) || fileInfo.IsDir() {
			msg := fmt.Sprintf("traffic table %s does not exist or cannot be read", trafficFileName)
			fmt.Println(msg)

			return nil, errors.New(msg)
		}
		dict, err = os.ReadFile(trafficFileName)
		if err != nil {
			return nil, err
		}
	}

	example := TrafficCfg{}

	if useYAML {
		err = yaml.Unmarshal(dict, &example)
	} else {
		err = json.Unmarshal(dict, &example)
	}

	if err != nil {
		return nil, err
	}

	return &example, nil
}

// ReportErrs transforms a list of errors and transforms the non-nil ones
// into a single error with comma-separated report of all the constituent
// errors, and returns it
func ReportErrs(errs []error) error {
	err_msg := make([]string, 0)
	for _, err := range errs {
		if err != nil {
			err_msg = append(err_msg, err.Error())
		}
	}
	if len(err_msg) == 0 {
		return nil
	}

	return errors.New(strings.Join(err_msg, ","))
}

// CheckDirectories probes the file system for the existence of every
// directory listed in the list of files.  Returns a boolean indicating
// whether all dirs are valid, and returns an aggregated error if any
// checks failed
func CheckDirectories(dirs []string) (bool, error) {
	// make sure that every directory name included exists
	failures := []string{}

	// for every offered (non-empty) directory
	for _, dir := range dirs {
		if len(dir) == 0 {
			continue
		}

		// look for a extension, if any.   Having one means not a directory
		ext := filepath.Ext(dir)

		// ext being empty means this is a directory, otherwise a path
		if ext != "" {
			failures = append(failures, fmt.Sprintf("%s not a directory", dir))

			continue
		}

		if _, err := os.Stat(dir); err != nil {
			failures = append(failures, fmt.Sprintf("%s not reachable", dir))

			continue
		}
	}
	if len(failures) == 0 {
		return true, nil
	}

	err := errors.New(strings.Join(failures, ","))

	return false, err
}

// CheckReadableFiles probes the file system to ensure that every one of
// the argument filenames exists and is readable
func CheckReadableFiles(names []string) (bool, error) {
	return CheckFiles(names, true)
}

// CheckOutputFiles probes the file system to ensure that every argument
// filename can be written
func CheckOutputFiles(names []string) (bool, error) {
	return CheckFiles(names, false)
}

// CheckFiles probes the file system for permitted access to all the
// argument filenames, optionally checking also for the existence of those
// files for the purposes of reading them
func CheckFiles(names []string, checkExistence bool) (bool, error) {
	// make sure that the directory of each named file exists
	errs := make([]error, 0)

	for _, name := range names {

		// skip non-existent files
		if len(name) == 0 || name == "/tmp" {
			continue
		}

		// split off the directory portion of the path
		directory, _ := filepath.Split(name)
		if _, err := os.Stat(directory); err != nil {
			errs = append(errs, err)
		}
	}

	// if required, check for the reachability and existence of each file
	if checkExistence {
		for _, name := range names {
			if _, err := os.Stat(name); err != nil {
				errs = append(errs, err)
			}
		}

		if len(errs) == 0 {
			return true, nil
		}

		rtnerr := ReportErrs(errs)
		return false, rtnerr
	}

	return true, nil
}
