package main

// fattree.go builds the reference three-tier fabric description and its
// pre-sampled traffic table, writing both into an output library for
// later retrieval.  The fabric is validated and a sample of its ECMP
// route enumeration is reported before anything is written

import (
	"fmt"
	"github.com/iti/cmdline"
	"github.com/iti/rngstream"
	"github.com/iti/wimax"
	"path/filepath"
	"strconv"
)

// cmdlineParameters configures for recognition of command line variables
func cmdlineParameters() *cmdline.CmdParser {
	// create an argument parser
	cp := cmdline.NewCmdParser()
	cp.AddFlag(cmdline.StringFlag, "outputLib", true) // directory the descriptions are written into

	cp.AddFlag(cmdline.StringFlag, "topo", false)    // name of output file used for the fabric dictionary
	cp.AddFlag(cmdline.StringFlag, "traffic", false) // name of output file used for the traffic table

	// geometry overrides
	cp.AddFlag(cmdline.StringFlag, "racks", false)
	cp.AddFlag(cmdline.StringFlag, "serversPerRack", false)
	cp.AddFlag(cmdline.StringFlag, "agg", false)
	cp.AddFlag(cmdline.StringFlag, "core", false)

	// workload overrides
	cp.AddFlag(cmdline.StringFlag, "bgLoad", false)
	cp.AddFlag(cmdline.StringFlag, "incastLoad", false)
	cp.AddFlag(cmdline.StringFlag, "simTime", false)
	cp.AddFlag(cmdline.StringFlag, "rngseed", false) // name seeding the random number stream

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

// intVar is strVar for integer-valued variables
func intVar(cp *cmdline.CmdParser, name string, dflt int) int {
	value := strVar(cp, name, "")
	if len(value) == 0 {
		return dflt
	}
	number, err := strconv.Atoi(value)
	if err != nil {
		panic(fmt.Errorf("command line variable %s carries non-integer value %s", name, value))
	}
	return number
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

	// directory for the output library
	outputLib := cp.GetVar("outputLib").(string)

	// make sure this directory exists
	dirs := []string{outputLib}
	valid, err := wimax.CheckDirectories(dirs)
	if !valid {
		panic(err)
	}

	// join directory specifications with file name specifications
	topoFile := filepath.Join(outputLib, strVar(cp, "topo", "fattree.yaml"))
	trafficFile := filepath.Join(outputLib, strVar(cp, "traffic", "traffic.yaml"))

	// check files to be created
	valid, err = wimax.CheckOutputFiles([]string{topoFile, trafficFile})
	if !valid {
		panic(err)
	}

	racks := intVar(cp, "racks", wimax.DefaultRacks)
	serversPerRack := intVar(cp, "serversPerRack", wimax.DefaultServersPerRack)
	aggCount := intVar(cp, "agg", wimax.DefaultAggSwitches)
	coreCount := intVar(cp, "core", wimax.DefaultCoreSwitches)

	// build the fabric and flatten it for serialization
	ftf := wimax.CreateFatTreeFrame("fattree", racks, serversPerRack, aggCount, coreCount,
		wimax.DefaultFabricParams())
	ftc := ftf.Transform()

	cerr := wimax.CheckFabric(&ftc)
	if cerr != nil {
		panic(cerr)
	}
	fmt.Printf("Built fabric %s with %d servers, %d switches, %d links\n",
		ftc.Name, len(ftc.Servers), len(ftc.Switches), len(ftc.Links))

	// report the route diversity between a same-rack pair and a
	// cross-rack pair
	fg := wimax.BuildFabricGraph(&ftc)
	firstSrvr := ftc.Servers[0].Name
	sameRack := ftc.Servers[1].Name
	crossRack := ftc.Servers[len(ftc.Servers)-1].Name

	routes, rerr := fg.ECMPRoutes(firstSrvr, sameRack)
	if rerr != nil {
		panic(rerr)
	}
	fmt.Printf("%s to %s: %d equal-cost routes, e.g. %s\n",
		firstSrvr, sameRack, len(routes), wimax.ShowRoute(routes[0]))

	routes, rerr = fg.ECMPRoutes(firstSrvr, crossRack)
	if rerr != nil {
		panic(rerr)
	}
	picked, rerr := fg.RouteForFlow(1, firstSrvr, crossRack)
	if rerr != nil {
		panic(rerr)
	}
	fmt.Printf("%s to %s: %d equal-cost routes, flow 1 hashes onto %s\n",
		firstSrvr, crossRack, len(routes), wimax.ShowRoute(picked))

	// sample the workload
	rng := rngstream.New(strVar(cp, "rngseed", "fattree"))
	tc := wimax.BuildTrafficCfg(&ftc, wimax.HadoopCdf(),
		floatVar(cp, "bgLoad", wimax.DefaultBackgroundLoad),
		floatVar(cp, "incastLoad", wimax.DefaultIncastLoad),
		wimax.DefaultIncastFanIn, wimax.DefaultIncastBytes,
		floatVar(cp, "simTime", wimax.DefaultSimTime), rng)
	fmt.Printf("Sampled %d background flows and %d incast epochs\n",
		len(tc.Background), len(tc.Incasts))

	// store the fabric in a dictionary for later retrieval, the traffic
	// table on its own
	topoDict := wimax.CreateFatTreeCfgDict("FatTreeCfg-1")
	topoDict.AddFatTreeCfg(&ftc, false)
	topoDict.WriteToFile(topoFile)
	tc.WriteToFile(trafficFile)

	fmt.Println("Output files written!")
}
