package wimax

import (
	"errors"
	"github.com/iti/rngstream"
	"path/filepath"
	"strings"
	"testing"
)

func TestCreateFatTreeFrameGeometry(t *testing.T) {
	ftf := CreateFatTreeFrame("pod", 2, 2, 2, 2, DefaultFabricParams())

	if len(ftf.Servers) != 4 {
		t.Errorf("frame holds %d servers, want 4", len(ftf.Servers))
	}
	if len(ftf.Switches) != 6 {
		t.Errorf("frame holds %d switches, want 6", len(ftf.Switches))
	}

	// 4 server links, a 2x2 tor-agg mesh, and a 2x2 agg-core mesh
	if len(ftf.Links) != 12 {
		t.Fatalf("frame holds %d links, want 12", len(ftf.Links))
	}
	edge, fabric := 0, 0
	for _, lnk := range ftf.Links {
		switch lnk.RateGbps {
		case DefaultFabricParams().ServerLinkGbps:
			edge += 1
		case DefaultFabricParams().SwitchLinkGbps:
			fabric += 1
		}
	}
	if edge != 4 || fabric != 8 {
		t.Errorf("link rates split %d edge, %d fabric; want 4 and 8", edge, fabric)
	}
}

func TestCreateFatTreeFramePanicsOnBadGeometry(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected a panic for a zero rack count")
		}
	}()
	CreateFatTreeFrame("pod", 0, 2, 2, 2, DefaultFabricParams())
}

func TestCheckFabricAcceptsBuiltTopology(t *testing.T) {
	cfg := buildTestFabric()
	if err := CheckFabric(cfg); err != nil {
		t.Errorf("built topology flagged: %v", err)
	}
}

func TestCheckFabricFlagsDefects(t *testing.T) {
	// a link endpoint nobody declared
	cfg := buildTestFabric()
	cfg.Links[0].EndptA = "srv.[9].[9]"
	if err := CheckFabric(cfg); err == nil {
		t.Errorf("undeclared link endpoint not flagged")
	}

	// a duplicated device name
	cfg = buildTestFabric()
	cfg.Servers = append(cfg.Servers, cfg.Servers[0])
	if err := CheckFabric(cfg); err == nil {
		t.Errorf("duplicated server name not flagged")
	}

	// a server with two uplinks
	cfg = buildTestFabric()
	extra := cfg.Links[0]
	extra.EndptB = "agg.[0]"
	cfg.Links = append(cfg.Links, extra)
	if err := CheckFabric(cfg); err == nil {
		t.Errorf("multi-homed server not flagged")
	}

	// a link without capacity
	cfg = buildTestFabric()
	cfg.Links[0].RateGbps = 0.0
	if err := CheckFabric(cfg); err == nil {
		t.Errorf("zero rate link not flagged")
	}
}

func TestFatTreeCfgFileRoundTrip(t *testing.T) {
	cfg := buildTestFabric()
	fileName := filepath.Join(t.TempDir(), "pod.yaml")
	if err := cfg.WriteToFile(fileName); err != nil {
		t.Fatalf("WriteToFile returned %v", err)
	}

	back, err := ReadFatTreeCfg(fileName, true, nil)
	if err != nil {
		t.Fatalf("ReadFatTreeCfg returned %v", err)
	}
	if back.Name != cfg.Name || len(back.Servers) != len(cfg.Servers) ||
		len(back.Switches) != len(cfg.Switches) || len(back.Links) != len(cfg.Links) {
		t.Errorf("recovered topology does not match what was written")
	}
	if err := CheckFabric(back); err != nil {
		t.Errorf("recovered topology flagged: %v", err)
	}
}

func TestFatTreeCfgDict(t *testing.T) {
	cfg := buildTestFabric()
	dict := CreateFatTreeCfgDict("fabrics")

	if err := dict.AddFatTreeCfg(cfg, false); err != nil {
		t.Fatalf("AddFatTreeCfg returned %v", err)
	}
	if err := dict.AddFatTreeCfg(cfg, false); err == nil {
		t.Errorf("silent overwrite of a dictionary entry")
	}
	back, present := dict.RecoverFatTreeCfg(cfg.Name)
	if !present || len(back.Servers) != len(cfg.Servers) {
		t.Errorf("dictionary recovery failed for %s", cfg.Name)
	}
	if _, present = dict.RecoverFatTreeCfg("unheard-of"); present {
		t.Errorf("recovery invented an entry")
	}

	fileName := filepath.Join(t.TempDir(), "fabrics.yaml")
	if err := dict.WriteToFile(fileName); err != nil {
		t.Fatalf("WriteToFile returned %v", err)
	}
	again, err := ReadFatTreeCfgDict(fileName, true, nil)
	if err != nil {
		t.Fatalf("ReadFatTreeCfgDict returned %v", err)
	}
	if _, present = again.RecoverFatTreeCfg(cfg.Name); !present {
		t.Errorf("dictionary lost %s across the file round trip", cfg.Name)
	}
}

func TestBuildTrafficCfgProperties(t *testing.T) {
	cfg := buildTestFabric()
	rng := rngstream.New("traffic-test")
	simTime := 0.01

	tc := BuildTrafficCfg(cfg, HadoopCdf(), 0.05, 0.02, 2, 20480, simTime, rng)

	if len(tc.Background) == 0 || len(tc.Incasts) == 0 {
		t.Fatalf("workload sampled %d background flows and %d incasts",
			len(tc.Background), len(tc.Incasts))
	}

	lastStart := 0.0
	for _, fe := range tc.Background {
		if fe.Start <= 0.0 || fe.Start >= simTime {
			t.Fatalf("background flow starts at %f, outside (0, %f)", fe.Start, simTime)
		}
		if fe.Start < lastStart {
			t.Fatalf("background flow table out of time order")
		}
		lastStart = fe.Start
		if fe.Src == fe.Dst {
			t.Fatalf("background flow with identical endpoints %s", fe.Src)
		}
	}

	for _, ie := range tc.Incasts {
		if ie.Start <= 0.0 || ie.Start >= simTime {
			t.Fatalf("incast epoch starts at %f, outside (0, %f)", ie.Start, simTime)
		}
		if len(ie.Senders) != 2 {
			t.Fatalf("incast epoch has %d senders, want 2", len(ie.Senders))
		}
		for _, sender := range ie.Senders {
			if sender == ie.Dst {
				t.Fatalf("incast receiver %s among its own senders", ie.Dst)
			}
		}
		if ie.Senders[0] == ie.Senders[1] {
			t.Fatalf("incast sender %s listed twice", ie.Senders[0])
		}
	}

	fileName := filepath.Join(t.TempDir(), "traffic.yaml")
	if err := tc.WriteToFile(fileName); err != nil {
		t.Fatalf("WriteToFile returned %v", err)
	}
	back, err := ReadTrafficCfg(fileName, true, nil)
	if err != nil {
		t.Fatalf("ReadTrafficCfg returned %v", err)
	}
	if len(back.Background) != len(tc.Background) || len(back.Incasts) != len(tc.Incasts) {
		t.Errorf("workload table changed across the file round trip")
	}
}

func TestBuildTrafficCfgRejectsWideFanIn(t *testing.T) {
	cfg := buildTestFabric()
	rng := rngstream.New("fanin-test")

	defer func() {
		if recover() == nil {
			t.Errorf("expected a panic for a fan-in equal to the server count")
		}
	}()
	BuildTrafficCfg(cfg, HadoopCdf(), 0.0, 0.2, 4, 20480, 0.01, rng)
}

func TestIncastSendersExcludeReceiver(t *testing.T) {
	servers := []string{"a", "b", "c", "d", "e"}
	rng := rngstream.New("senders-test")

	for trial := 0; trial < 20; trial += 1 {
		senders := incastSenders(servers, "c", 3, rng)
		if len(senders) != 3 {
			t.Fatalf("drew %d senders, want 3", len(senders))
		}
		seen := make(map[string]bool)
		for _, sender := range senders {
			if sender == "c" {
				t.Fatalf("receiver drawn as a sender")
			}
			if seen[sender] {
				t.Fatalf("sender %s drawn twice in one epoch", sender)
			}
			seen[sender] = true
		}
	}
}

func TestCheckCellValidation(t *testing.T) {
	if err := CheckCell(DefaultCellCfg()); err != nil {
		t.Fatalf("demonstration cell flagged: %v", err)
	}

	cfg := DefaultCellCfg()
	cfg.Stations = nil
	if err := CheckCell(cfg); err == nil {
		t.Errorf("empty cell not flagged")
	}

	cfg = DefaultCellCfg()
	cfg.Stations[0].Modulation = "QAM1024_99"
	if err := CheckCell(cfg); err == nil {
		t.Errorf("unknown burst profile not flagged")
	}

	cfg = DefaultCellCfg()
	cfg.Stations[0].GrantSymbols = 0
	if err := CheckCell(cfg); err == nil {
		t.Errorf("empty recurring grant not flagged")
	}

	cfg = DefaultCellCfg()
	cfg.Stations[0].Flows[0].IntervalMs = 0.0
	if err := CheckCell(cfg); err == nil {
		t.Errorf("UGS flow without an interval not flagged")
	}

	cfg = DefaultCellCfg()
	cfg.Stations[0].Flows[3].MeanSdu = 0
	if err := CheckCell(cfg); err == nil {
		t.Errorf("loaded flow without a workload size not flagged")
	}

	cfg = DefaultCellCfg()
	cfg.Stations[1].Flows[0].SenderBytes = 0
	if err := CheckCell(cfg); err == nil {
		t.Errorf("incast flow without sender bytes not flagged")
	}

	cfg = DefaultCellCfg()
	cfg.Stations[1].Name = "ss0"
	if err := CheckCell(cfg); err == nil {
		t.Errorf("duplicated station name not flagged")
	}
}

func TestCellCfgFileRoundTrip(t *testing.T) {
	cfg := DefaultCellCfg()
	fileName := filepath.Join(t.TempDir(), "cell.json")
	if err := cfg.WriteToFile(fileName); err != nil {
		t.Fatalf("WriteToFile returned %v", err)
	}

	back, err := ReadCellCfg(fileName, false, nil)
	if err != nil {
		t.Fatalf("ReadCellCfg returned %v", err)
	}
	if back.Name != cfg.Name || len(back.Stations) != 2 || len(back.Stations[0].Flows) != 4 {
		t.Errorf("recovered cell does not match what was written")
	}
	if err := CheckCell(back); err != nil {
		t.Errorf("recovered cell flagged: %v", err)
	}
}

func TestCellCfgDict(t *testing.T) {
	cfg := DefaultCellCfg()
	dict := CreateCellCfgDict("cells")

	if err := dict.AddCellCfg(cfg, false); err != nil {
		t.Fatalf("AddCellCfg returned %v", err)
	}
	if err := dict.AddCellCfg(cfg, false); err == nil {
		t.Errorf("silent overwrite of a dictionary entry")
	}
	back, present := dict.RecoverCellCfg(cfg.Name)
	if !present || len(back.Stations) != len(cfg.Stations) {
		t.Errorf("dictionary recovery failed for %s", cfg.Name)
	}

	fileName := filepath.Join(t.TempDir(), "cells.yaml")
	if err := dict.WriteToFile(fileName); err != nil {
		t.Fatalf("WriteToFile returned %v", err)
	}
	again, err := ReadCellCfgDict(fileName, true, nil)
	if err != nil {
		t.Fatalf("ReadCellCfgDict returned %v", err)
	}
	if _, present = again.RecoverCellCfg(cfg.Name); !present {
		t.Errorf("dictionary lost %s across the file round trip", cfg.Name)
	}
}

func TestReportErrs(t *testing.T) {
	if ReportErrs(nil) != nil {
		t.Errorf("an empty error list produced an error")
	}
	if ReportErrs([]error{nil, nil}) != nil {
		t.Errorf("a list of nils produced an error")
	}

	err := ReportErrs([]error{nil, errors.New("first"), nil, errors.New("second")})
	if err == nil {
		t.Fatalf("real errors were swallowed")
	}
	if !strings.Contains(err.Error(), "first") || !strings.Contains(err.Error(), "second") {
		t.Errorf("aggregated error dropped a constituent: %s", err.Error())
	}
}

func TestCheckDirectoriesAndFiles(t *testing.T) {
	dir := t.TempDir()
	if ok, err := CheckDirectories([]string{dir}); !ok {
		t.Errorf("existing directory rejected: %v", err)
	}
	if ok, _ := CheckDirectories([]string{filepath.Join(dir, "absent")}); ok {
		t.Errorf("missing directory accepted")
	}

	if ok, _ := CheckReadableFiles([]string{filepath.Join(dir, "absent.yaml")}); ok {
		t.Errorf("missing input file accepted")
	}
	if ok, err := CheckOutputFiles([]string{filepath.Join(dir, "out.yaml")}); !ok {
		t.Errorf("writable output path rejected: %v", err)
	}
}
