package main

// cellsim.go runs a cell of subscriber stations against their recurring
// uplink grants.  A cell configuration is read from file, or a built-in
// demonstration cell is used when none is named.  After the run the
// per-station counters are reported and the trace, if active, written out

import (
	"fmt"
	"github.com/iti/cmdline"
	"github.com/iti/evt/evtm"
	"github.com/iti/wimax"
	"path"
	"strconv"
)

// cmdlineParameters configures for recognition of command line variables
func cmdlineParameters() *cmdline.CmdParser {
	// create an argument parser
	cp := cmdline.NewCmdParser()
	cp.AddFlag(cmdline.StringFlag, "cell", false)     // cell configuration file, built-in demo cell when absent
	cp.AddFlag(cmdline.StringFlag, "useYAML", false)  // input encoding override, otherwise taken from the extension
	cp.AddFlag(cmdline.StringFlag, "trace", false)    // trace output file, tracing off when absent
	cp.AddFlag(cmdline.StringFlag, "duration", false) // simulation length in seconds

	return cp
}

// strVar returns the command line variable with the given name, or the
// default when the variable was not given
func strVar(cp *cmdline.CmdParser, name, dflt string) string {
	value, ok := cp.GetVar(name).(string)
	if !ok || len(value) == 0 {
		return dflt
	}
	return value
}

// floatVar is strVar for float-valued variables
func floatVar(cp *cmdline.CmdParser, name string, dflt float64) float64 {
	value := strVar(cp, name, "")
	if len(value) == 0 {
		return dflt
	}
	number, err := strconv.ParseFloat(value, 64)
	if err != nil {
		panic(fmt.Errorf("command line variable %s carries non-float value %s", name, value))
	}
	return number
}

func main() {
	// configure command line variable recognition
	cp := cmdlineParameters()

	// parse the command line
	cp.Parse()

	cellFile := strVar(cp, "cell", "")
	traceFile := strVar(cp, "trace", "")
	duration := floatVar(cp, "duration", wimax.DefaultSimTime)

	var cfg *wimax.CellCfg
	if len(cellFile) > 0 {
		valid, err := wimax.CheckReadableFiles([]string{cellFile})
		if !valid {
			panic(err)
		}

		// extension selects the decoding unless the override is given
		ext := path.Ext(cellFile)
		useYAML := ext != ".json" && ext != ".JSON"
		if override := strVar(cp, "useYAML", ""); len(override) > 0 {
			useYAML, err = strconv.ParseBool(override)
			if err != nil {
				panic(fmt.Errorf("command line variable useYAML carries non-boolean value %s", override))
			}
		}

		cfg, err = wimax.ReadCellCfg(cellFile, useYAML, []byte{})
		if err != nil {
			panic(err)
		}
	} else {
		cfg = wimax.DefaultCellCfg()
	}

	if len(traceFile) > 0 {
		valid, err := wimax.CheckOutputFiles([]string{traceFile})
		if !valid {
			panic(err)
		}
	}

	traceMgr := wimax.CreateTraceManager(cfg.Name, len(traceFile) > 0)

	evtMgr := evtm.New()
	stations := wimax.BuildCell(cfg, evtMgr, traceMgr, duration)

	fmt.Printf("Running cell %s with %d stations for %.3f seconds\n",
		cfg.Name, len(stations), duration)
	evtMgr.Run(duration)

	for _, ss := range stations {
		fmt.Printf("station %s: %d frames, %d bursts, %d PDUs (%d fragments), %d bytes sent\n",
			ss.Name, ss.Frames, ss.Bursts, ss.PcktsSent, ss.FragsSent, ss.BytesSent)
		fmt.Printf("  SDUs delivered %d, dropped %d, poll-me %v\n",
			ss.SdusDelivered, ss.SduDrops, ss.Scheduler().PollMe())
		for _, sf := range ss.FlowMgr().AllFlows() {
			fmt.Printf("  flow %s (%s): %d SDUs still queued\n",
				sf.Name, sf.Type(), sf.Connection().Queue().NumPackets())
		}
	}

	if traceMgr.Active() {
		traceMgr.WriteToFile(traceFile)
		fmt.Println("Output files written!")
	}
}
