package loader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"graphetl/internal/graph"
	"graphetl/internal/graph/graphtest"
)

// memGraph simulates the MERGE semantics of the loader statements so tests
// can assert on resulting node and relationship counts.
type memGraph struct {
	mu sync.Mutex

	companies map[string]map[string]any
	addresses map[string]map[string]any
	countries map[string]any
	sicCodes  map[string]any
	previous  map[string]map[string]any

	hasAddress map[string]struct{}
	locatedIn  map[string]struct{}
	classified map[string]struct{}
	prevNamed  map[string]struct{}

	// failOn makes the statement with this exact text fail.
	failOn string
	// dropSICCodes discards SICCode writes, as if the lookup never happened.
	dropSICCodes bool
}

func newMemGraph() *memGraph {
	return &memGraph{
		companies:  map[string]map[string]any{},
		addresses:  map[string]map[string]any{},
		countries:  map[string]any{},
		sicCodes:   map[string]any{},
		previous:   map[string]map[string]any{},
		hasAddress: map[string]struct{}{},
		locatedIn:  map[string]struct{}{},
		classified: map[string]struct{}{},
		prevNamed:  map[string]struct{}{},
	}
}

// recorder returns a fresh Recorder backed by g.
func (g *memGraph) recorder() *graphtest.Recorder {
	return &graphtest.Recorder{Handler: g.handle}
}

func (g *memGraph) connector(rec *graphtest.Recorder) graph.Connector {
	return func(context.Context) (graph.Store, error) { return rec, nil }
}

func key(parts ...any) string {
	s := make([]string, len(parts))
	for i, p := range parts {
		s[i] = fmt.Sprint(p)
	}
	return strings.Join(s, "|")
}

func addrKey(row map[string]any) string {
	return key(row["addressLine1"], row["postTown"], row["postCode"])
}

func copyRow(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

var errInjected = errors.New("injected failure")

func (g *memGraph) handle(cypher string, params map[string]any) ([]map[string]any, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failOn != "" && cypher == g.failOn {
		return nil, errInjected
	}
	if strings.HasPrefix(cypher, "CREATE ") {
		return nil, nil
	}
	for _, t := range verifyTargets {
		if cypher == t.cypher() {
			return []map[string]any{{"count": g.count(t.name)}}, nil
		}
	}

	rows, _ := params[graph.BatchParam].([]map[string]any)
	for _, row := range rows {
		num := fmt.Sprint(row["companyNumber"])
		_, companyExists := g.companies[num]

		switch cypher {
		case countryCypher:
			g.countries[row["name"].(string)] = row["code"]
		case sicCodeCypher:
			if !g.dropSICCodes {
				g.sicCodes[row["code"].(string)] = row["description"]
			}
		case companyCypher:
			g.companies[num] = copyRow(row)
		case addressCypher:
			g.addresses[addrKey(row)] = copyRow(row)
		case hasAddressCypher:
			if _, ok := g.addresses[addrKey(row)]; ok && companyExists {
				g.hasAddress[key(num, addrKey(row))] = struct{}{}
			}
		case locatedInCypher:
			addr, addrOK := g.addresses[addrKey(row)]
			if !addrOK || addr["country"] != row["country"] {
				continue
			}
			if _, countryOK := g.countries[row["country"].(string)]; countryOK {
				g.locatedIn[key(addrKey(row), row["country"])] = struct{}{}
			}
		case classifiedAsCypher:
			if _, ok := g.sicCodes[row["sicCode"].(string)]; ok && companyExists {
				g.classified[key(num, row["sicCode"], row["rank"])] = struct{}{}
			}
		case previousNameCypher:
			if !companyExists {
				continue
			}
			pk := key(num, row["previousName"], row["sequence"])
			g.previous[pk] = copyRow(row)
			g.prevNamed[key(num, pk, row["sequence"])] = struct{}{}
		default:
			return nil, fmt.Errorf("memGraph: unexpected statement %q", cypher)
		}
	}
	return nil, nil
}

func (g *memGraph) count(name string) int64 {
	switch name {
	case "Company":
		return int64(len(g.companies))
	case "Address":
		return int64(len(g.addresses))
	case "Country":
		return int64(len(g.countries))
	case "SICCode":
		return int64(len(g.sicCodes))
	case "PreviousName":
		return int64(len(g.previous))
	case "HAS_ADDRESS":
		return int64(len(g.hasAddress))
	case "LOCATED_IN":
		return int64(len(g.locatedIn))
	case "CLASSIFIED_AS":
		return int64(len(g.classified))
	case "PREVIOUSLY_NAMED":
		return int64(len(g.prevNamed))
	}
	return -1
}
