package wimax

// routes.go provides functions to enumerate and choose among the
// equal-cost shortest paths through a fat-tree fabric

import (
	"fmt"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"hash/fnv"
	"math"
	"strings"
)

// The general approach is to convert the FatTreeCfg representation of the
// fabric into the data structures used by a graph package that has
// built-in path discovery algorithms.  Weighting each edge by 1, a
// shortest path minimizes the number of hops, which is what hop-count
// ECMP routing does.  The Dijkstra variant called here computes every
// shortest path between every pair at once; the per-pair enumerations
// pulled from it are converted back to device name sequences, screened
// for up-down validity, and cached.  A flow then hashes onto one member
// of its pair's enumeration

// rtEndpts is the route cache key
type rtEndpts struct {
	src, dst string
}

// FabricGraph wraps the graph representation of a fabric together with
// the maps that translate between device names and graph node ids
type FabricGraph struct {
	conn       *simple.WeightedUndirectedGraph
	idByName   map[string]int64
	nameByID   map[int64]string
	tierByName map[string]string

	// every-pair shortest path structure, built on first use
	allPaths      path.AllShortest
	allPathsBuilt bool

	// saved results of ECMP enumerations
	cachedECMP map[rtEndpts][][]string
}

// BuildFabricGraph returns a FabricGraph built from a FatTreeCfg.  A link
// endpoint that names no declared device is a configuration error
func BuildFabricGraph(cfg *FatTreeCfg) *FabricGraph {
	fg := new(FabricGraph)
	fg.conn = simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	fg.idByName = make(map[string]int64)
	fg.nameByID = make(map[int64]string)
	fg.tierByName = make(map[string]string)
	fg.cachedECMP = make(map[rtEndpts][][]string)

	addDev := func(name, tier string) {
		nodeId := int64(len(fg.idByName))
		fg.idByName[name] = nodeId
		fg.nameByID[nodeId] = name
		fg.tierByName[name] = tier
		fg.conn.AddNode(simple.Node(nodeId))
	}

	for _, srvr := range cfg.Servers {
		addDev(srvr.Name, TierServer)
	}
	for _, swtch := range cfg.Switches {
		addDev(swtch.Name, swtch.Tier)
	}

	// transform the links to edges in the graph module representation,
	// each with weight 1
	for _, lnk := range cfg.Links {
		idA, presentA := fg.idByName[lnk.EndptA]
		idB, presentB := fg.idByName[lnk.EndptB]
		if !presentA || !presentB {
			panic(fmt.Errorf("link %s-%s references an undeclared device", lnk.EndptA, lnk.EndptB))
		}
		weightedEdge := simple.WeightedEdge{F: simple.Node(idA), T: simple.Node(idB), W: 1.0}
		fg.conn.SetWeightedEdge(weightedEdge)
	}

	return fg
}

// ecmpTrees returns the every-pair shortest path structure, computing it
// on the first call and reusing it afterwards
func (fg *FabricGraph) ecmpTrees() path.AllShortest {
	if !fg.allPathsBuilt {
		fg.allPaths = path.DijkstraAllPaths(fg.conn)
		fg.allPathsBuilt = true
	}
	return fg.allPaths
}

// convertNodeSeq extracts the device names from a sequence of graph nodes
// (e.g. like a path) and returns that list
func (fg *FabricGraph) convertNodeSeq(nsQ []graph.Node) []string {
	rtn := []string{}
	for _, node := range nsQ {
		rtn = append(rtn, fg.nameByID[node.ID()])
	}

	return rtn
}

// tierRank orders the fabric tiers from the edge up
func tierRank(tier string) int {
	switch tier {
	case TierServer:
		return 0
	case TierTor:
		return 1
	case TierAgg:
		return 2
	case TierCore:
		return 3
	}
	panic(fmt.Errorf("unrecognized fabric tier %s", tier))
}

// validUpDown tells whether a route climbs the tiers to a single peak and
// then descends, the only shape a fat-tree forwards along.  Once a step
// goes down, no later step may go back up
func (fg *FabricGraph) validUpDown(route []string) bool {
	descending := false
	for idx := 1; idx < len(route); idx += 1 {
		prevRank := tierRank(fg.tierByName[route[idx-1]])
		thisRank := tierRank(fg.tierByName[route[idx]])
		if thisRank == prevRank {
			return false
		}
		if thisRank < prevRank {
			descending = true
		} else if descending {
			return false
		}
	}
	return true
}

// ECMPRoutes returns every equal-cost shortest route between two servers,
// each expressed as the sequence of device names visited, source and
// destination inclusive.  The enumeration is screened for up-down
// validity, sorted so the order is stable across runs, and cached
func (fg *FabricGraph) ECMPRoutes(src, dst string) ([][]string, error) {
	srcId, present := fg.idByName[src]
	if !present {
		return nil, fmt.Errorf("route source %s is not a declared device", src)
	}
	dstId, present := fg.idByName[dst]
	if !present {
		return nil, fmt.Errorf("route destination %s is not a declared device", dst)
	}
	if src == dst {
		return nil, fmt.Errorf("route endpoints %s and %s need to differ", src, dst)
	}

	endpoints := rtEndpts{src: src, dst: dst}
	routes, found := fg.cachedECMP[endpoints]
	if found {
		return routes, nil
	}

	nodePaths, _ := fg.ecmpTrees().AllBetween(srcId, dstId)
	if len(nodePaths) == 0 {
		return nil, fmt.Errorf("no route between %s and %s", src, dst)
	}

	routes = make([][]string, 0, len(nodePaths))
	for _, nodeSeq := range nodePaths {
		route := fg.convertNodeSeq(nodeSeq)
		if fg.validUpDown(route) {
			routes = append(routes, route)
		}
	}
	if len(routes) == 0 {
		return nil, fmt.Errorf("no up-down route between %s and %s", src, dst)
	}

	// the graph module enumerates in map order, so sort for a stable
	// pick across runs
	slices.SortFunc(routes, func(a, b []string) int {
		return slices.Compare(a, b)
	})

	fg.cachedECMP[endpoints] = routes

	return routes, nil
}

// RouteForFlow hashes a flow identifier onto one member of the ECMP
// enumeration for its endpoints, so a flow sticks to a single route while
// distinct flows spread across the equal-cost set
func (fg *FabricGraph) RouteForFlow(flowID int, src, dst string) ([]string, error) {
	routes, err := fg.ECMPRoutes(src, dst)
	if err != nil {
		return nil, err
	}

	hsh := fnv.New32a()
	fmt.Fprintf(hsh, "%d:%s:%s", flowID, src, dst)
	idx := int(hsh.Sum32() % uint32(len(routes)))

	return routes[idx], nil
}

// ShowRoute returns a string that lists the names of all the devices on
// a route
func ShowRoute(route []string) string {
	return strings.Join(route, ",")
}
