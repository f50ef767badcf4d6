package wimax

// desc-cell.go holds the serializable configuration of a cell of
// subscriber stations: per-station burst profile and grant pattern,
// per-flow scheduling class and offered load, and the assembly function
// that turns a configuration into running stations, flows, and traffic
// generators.  The structures here are pure Desc, nothing in them holds
// pointers, so no Frame stage is needed

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/iti/evt/evtm"
	"gopkg.in/yaml.v3"
	"os"
	"path"
)

// management chatter SDU size used when a station description leaves it zero
const defaultMgmtSduBytes uint32 = 48

// FlowDesc describes one service flow of a station: its scheduling class,
// grant interval (UGS and rtPS), and the workload offered to it.  A zero
// Load leaves the flow idle.  A positive FanIn turns the workload into
// incast epochs of FanIn SDUs of SenderBytes each; otherwise SDUs arrive
// one at a time, sized MeanSdu or drawn from the Hadoop CDF when UseCdf
// is set
type FlowDesc struct {
	Name        string  `json:"name" yaml:"name"`
	SfType      string  `json:"sftype" yaml:"sftype"`
	IntervalMs  float64 `json:"intervalms" yaml:"intervalms"`
	Load        float64 `json:"load" yaml:"load"`
	MeanSdu     uint32  `json:"meansdu" yaml:"meansdu"`
	UseCdf      bool    `json:"usecdf" yaml:"usecdf"`
	QueueLimit  int     `json:"queuelimit" yaml:"queuelimit"`
	FanIn       int     `json:"fanin" yaml:"fanin"`
	SenderBytes uint32  `json:"senderbytes" yaml:"senderbytes"`
}

// StationDesc describes one subscriber station: the burst profile its
// uplink runs at, the recurring grant replayed every frame, optional
// management chatter, and its service flows
type StationDesc struct {
	Name         string     `json:"name" yaml:"name"`
	Modulation   string     `json:"modulation" yaml:"modulation"`
	GrantSymbols uint16     `json:"grantsymbols" yaml:"grantsymbols"`
	GrantHdr     string     `json:"granthdr" yaml:"granthdr"`
	MgmtRateHz   float64    `json:"mgmtratehz" yaml:"mgmtratehz"`
	MgmtSduBytes uint32     `json:"mgmtsdubytes" yaml:"mgmtsdubytes"`
	Flows        []FlowDesc `json:"flows" yaml:"flows"`
}

// CellCfg gathers the stations of a cell under a shared OFDM frame duration
type CellCfg struct {
	Name       string        `json:"name" yaml:"name"`
	FrameDurMs float64       `json:"framedurms" yaml:"framedurms"`
	Stations   []StationDesc `json:"stations" yaml:"stations"`
}

// DefaultCellCfg returns a two-station demonstration cell: one station
// carrying a flow of every scheduling class plus management chatter, and
// one station whose best effort flow takes incast bursts
func DefaultCellCfg() *CellCfg {
	cc := new(CellCfg)
	cc.Name = "cell"
	cc.FrameDurMs = 10.0

	mixed := StationDesc{
		Name:         "ss0",
		Modulation:   "QAM16_34",
		GrantSymbols: 120,
		GrantHdr:     "generic",
		MgmtRateHz:   2.0,
		Flows: []FlowDesc{
			{Name: "voice", SfType: "UGS", IntervalMs: 20.0, Load: 0.10, MeanSdu: 200},
			{Name: "video", SfType: "rtPS", IntervalMs: 40.0, Load: 0.25, MeanSdu: 1200},
			{Name: "bulk", SfType: "nrtPS", Load: 0.30, UseCdf: true, QueueLimit: 2000},
			{Name: "web", SfType: "BE", Load: 0.35, MeanSdu: 1500, QueueLimit: 2000},
		},
	}

	incast := StationDesc{
		Name:         "ss1",
		Modulation:   "QAM64_34",
		GrantSymbols: 160,
		GrantHdr:     "generic",
		Flows: []FlowDesc{
			{Name: "incast", SfType: "BE", Load: 0.20, FanIn: 8, SenderBytes: 20480, QueueLimit: 4000},
		},
	}

	cc.Stations = []StationDesc{mixed, incast}
	return cc
}

// CheckCell validates a CellCfg: station names unique, burst profiles and
// scheduling classes recognized, grants non-empty, periodic classes given
// an interval, and loaded flows given a workload size.  The constituent
// complaints are aggregated into a single error
func CheckCell(cfg *CellCfg) error {
	errList := []error{}

	if len(cfg.Stations) == 0 {
		errList = append(errList, fmt.Errorf("cell %s declares no stations", cfg.Name))
	}

	seen := make(map[string]bool)
	for _, sd := range cfg.Stations {
		if len(sd.Name) > 0 {
			if seen[sd.Name] {
				errList = append(errList, fmt.Errorf("station name %s duplicated", sd.Name))
			}
			seen[sd.Name] = true
		}

		_, merr := modFromStr(sd.Modulation)
		if merr != nil {
			errList = append(errList, fmt.Errorf("station %s: %s", sd.Name, merr.Error()))
		}
		if sd.GrantSymbols == 0 {
			errList = append(errList, fmt.Errorf("station %s replays an empty grant", sd.Name))
		}

		for _, fd := range sd.Flows {
			sfType, serr := sfTypeFromStr(fd.SfType)
			if serr != nil {
				errList = append(errList, fmt.Errorf("station %s flow %s: %s", sd.Name, fd.Name, serr.Error()))
				continue
			}
			if (sfType == SfUGS || sfType == SfRtPS) && fd.IntervalMs <= 0.0 {
				errList = append(errList,
					fmt.Errorf("station %s flow %s: scheduling type %s needs a positive grant interval",
						sd.Name, fd.Name, fd.SfType))
			}
			if fd.Load > 0.0 {
				if fd.FanIn > 0 && fd.SenderBytes == 0 {
					errList = append(errList,
						fmt.Errorf("station %s flow %s: incast fan-in needs positive sender bytes", sd.Name, fd.Name))
				}
				if fd.FanIn == 0 && !fd.UseCdf && fd.MeanSdu == 0 {
					errList = append(errList,
						fmt.Errorf("station %s flow %s: loaded flow needs a mean SDU size or the CDF", sd.Name, fd.Name))
				}
			}
		}
	}

	return ReportErrs(errList)
}

// BuildCell assembles the stations of a configuration, attaches their
// service flows, starts the traffic generators the flow descriptions call
// for, and starts each station's recurring uplink frame.  Generators stop
// scheduling arrivals at the horizon.  A configuration that fails
// validation panics
func BuildCell(cfg *CellCfg, evtMgr *evtm.EventManager, traceMgr *TraceManager, horizon float64) []*SubscriberStation {
	cerr := CheckCell(cfg)
	if cerr != nil {
		panic(cerr)
	}

	phy := CreateOfdmPhy(cfg.FrameDurMs)
	stations := make([]*SubscriberStation, 0, len(cfg.Stations))

	for _, sd := range cfg.Stations {
		mod, _ := modFromStr(sd.Modulation)
		ss := CreateSubscriberStation(sd.Name, phy, evtMgr, traceMgr)

		grant := new(UplinkGrant)
		grant.Symbols = sd.GrantSymbols
		grant.Mod = mod
		grant.Hdr = hdrFromStr(sd.GrantHdr)

		for _, fd := range sd.Flows {
			sfType, _ := sfTypeFromStr(fd.SfType)
			sf := ss.AddServiceFlow(fd.Name, sfType, fd.IntervalMs, fd.QueueLimit)
			if fd.Load <= 0.0 {
				continue
			}

			if fd.FanIn > 0 {
				rate := IncastEpochRate(phy, grant, fd.Load, fd.FanIn, fd.SenderBytes)
				ig := CreateIncastGen(ss, sf, fd.FanIn, fd.SenderBytes, rate, horizon)
				ig.Start(evtMgr)
			} else {
				var cdf *FlowSizeCdf
				meanBytes := float64(fd.MeanSdu)
				if fd.UseCdf {
					cdf = HadoopCdf()
					meanBytes = cdf.AvgBytes()
				}
				rate := OfferedLoadRate(phy, grant, fd.Load, meanBytes)
				tg := CreateTrafficGen(ss, sf, cdf, fd.MeanSdu, rate, horizon)
				tg.Start(evtMgr)
			}
		}

		if sd.MgmtRateHz > 0.0 {
			mgmtBytes := sd.MgmtSduBytes
			if mgmtBytes == 0 {
				mgmtBytes = defaultMgmtSduBytes
			}
			for _, cidType := range []CidType{CidInitialRanging, CidBasic, CidPrimary, CidBroadcast} {
				mg := CreateMgmtGen(ss, cidType, HdrGeneric, mgmtBytes, sd.MgmtRateHz, horizon)
				mg.Start(evtMgr)
			}
		}

		StartUplink(evtMgr, ss, grant, 0)
		stations = append(stations, ss)
	}

	return stations
}

// WriteToFile serializes the CellCfg and writes to the file whose name is
// given as an input argument.  Extension of the file name selects whether
// serialization is to json or to yaml format
func (dict *CellCfg) WriteToFile(filename string) error {
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

// ReadCellCfg deserializes a slice of bytes into a CellCfg.  If the input
// arg of bytes is empty, the file whose name is given as an argument is
// read.  Error returned if any part of the process generates one
func ReadCellCfg(cellFileName string, useYAML bool, dict []byte) (*CellCfg, error) {
	var err error

	if len(dict) == 0 {
		fileInfo, err := os.Stat(cellFileName)
		if os.IsNotExist(err) || fileInfo.IsDir() {
			msg := fmt.Sprintf("cell config %s does not exist or cannot be read", cellFileName)
			fmt.Println(msg)

			return nil, errors.New(msg)
		}
		dict, err = os.ReadFile(cellFileName)
		if err != nil {
			return nil, err
		}
	}

	example := CellCfg{}

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

// A CellCfgDict holds instances of CellCfg structures, in a map whose key
// is a name for the cell.  Used to store pre-built cell configurations
type CellCfgDict struct {
	DictName string             `json:"dictname" yaml:"dictname"`
	Cfgs     map[string]CellCfg `json:"cfgs" yaml:"cfgs"`
}

// CreateCellCfgDict is a constructor.  Saves the dictionary name,
// initializes the CellCfg map
func CreateCellCfgDict(name string) *CellCfgDict {
	ccd := new(CellCfgDict)
	ccd.DictName = name
	ccd.Cfgs = make(map[string]CellCfg)

	return ccd
}

// AddCellCfg includes a CellCfg into the dictionary, optionally returning
// an error if one with the same name has already been included
func (ccd *CellCfgDict) AddCellCfg(cc *CellCfg, overwrite bool) error {
	if !overwrite {
		_, present := ccd.Cfgs[cc.Name]
		if present {
			return fmt.Errorf("attempt to overwrite CellCfg %s in CellCfgDict", cc.Name)
		}
	}

	ccd.Cfgs[cc.Name] = *cc

	return nil
}

// RecoverCellCfg returns a copy (if one exists) of the CellCfg with name
// equal to the input argument name, with a boolean indicating whether the
// entry was actually found
func (ccd *CellCfgDict) RecoverCellCfg(name string) (*CellCfg, bool) {
	cc, present := ccd.Cfgs[name]
	if present {
		return &cc, true
	}

	return nil, false
}

// WriteToFile serializes the CellCfgDict and writes to the file whose
// name is given as an input argument.  Extension of the file name selects
// whether serialization is to json or to yaml format
func (ccd *CellCfgDict) WriteToFile(filename string) error {
	pathExt := path.Ext(filename)
	var bytes []byte
	var merr error

	if pathExt == ".yaml" || pathExt == ".YAML" || pathExt == ".yml" {
		bytes, merr = yaml.Marshal(*ccd)
	} else if pathExt == ".json" || pathExt == ".JSON" {
		bytes, merr = json.MarshalIndent(*ccd, "", "\t")
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

// ReadCellCfgDict deserializes a slice of bytes into a CellCfgDict.  If
// the input arg of bytes is empty, the file whose name is given as an
// argument is read.  Error returned if any part of the process generates one
func ReadCellCfgDict(cfgDictFileName string, useYAML bool, dict []byte) (*CellCfgDict, error) {
	var err error

	if len(dict) == 0 {
		fileInfo, err := os.Stat(cfgDictFileName)
		if os.IsNotExist(err) || fileInfo.IsDir() {
			msg := fmt.Sprintf("cell dict %s does not exist or cannot be read", cfgDictFileName)
			fmt.Println(msg)

			return nil, errors.New(msg)
		}
		dict, err = os.ReadFile(cfgDictFileName)
		if err != nil {
			return nil, err
		}
	}
	example := CellCfgDict{}

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
