// Package schema declares the graph constraints and indexes and applies them
// before any data is loaded.
//
// Every statement uses IF NOT EXISTS, so Apply is safe to repeat.
package schema

import (
	"context"
	"fmt"

	"graphetl/internal/graph"
	"graphetl/internal/logging"
)

// Kind distinguishes constraints from secondary indexes.
type Kind string

const (
	KindConstraint Kind = "constraint"
	KindIndex      Kind = "index"
)

// Definition is one named schema statement.
type Definition struct {
	Name   string
	Kind   Kind
	Cypher string
}

// Constraints enforce the natural key of every node label. Node keys also
// require the key properties to be present.
var Constraints = []Definition{
	{
		Name:   "company_number",
		Kind:   KindConstraint,
		Cypher: "CREATE CONSTRAINT company_number IF NOT EXISTS FOR (c:Company) REQUIRE c.companyNumber IS UNIQUE",
	},
	{
		Name:   "address_composite",
		Kind:   KindConstraint,
		Cypher: "CREATE CONSTRAINT address_composite IF NOT EXISTS FOR (a:Address) REQUIRE (a.addressLine1, a.postTown, a.postCode) IS NODE KEY",
	},
	{
		Name:   "country_name",
		Kind:   KindConstraint,
		Cypher: "CREATE CONSTRAINT country_name IF NOT EXISTS FOR (c:Country) REQUIRE c.name IS UNIQUE",
	},
	{
		Name:   "sic_code",
		Kind:   KindConstraint,
		Cypher: "CREATE CONSTRAINT sic_code IF NOT EXISTS FOR (s:SICCode) REQUIRE s.code IS UNIQUE",
	},
	{
		Name:   "previous_name_composite",
		Kind:   KindConstraint,
		Cypher: "CREATE CONSTRAINT previous_name_composite IF NOT EXISTS FOR (pn:PreviousName) REQUIRE (pn.companyNumber, pn.name, pn.sequence) IS NODE KEY",
	},
}

// Indexes cover the most commonly filtered scalar attributes.
var Indexes = []Definition{
	{Name: "company_name", Kind: KindIndex, Cypher: "CREATE INDEX company_name IF NOT EXISTS FOR (c:Company) ON (c.name)"},
	{Name: "company_status", Kind: KindIndex, Cypher: "CREATE INDEX company_status IF NOT EXISTS FOR (c:Company) ON (c.status)"},
	{Name: "company_category", Kind: KindIndex, Cypher: "CREATE INDEX company_category IF NOT EXISTS FOR (c:Company) ON (c.category)"},
	{Name: "address_postcode", Kind: KindIndex, Cypher: "CREATE INDEX address_postcode IF NOT EXISTS FOR (a:Address) ON (a.postCode)"},
	{Name: "address_posttown", Kind: KindIndex, Cypher: "CREATE INDEX address_posttown IF NOT EXISTS FOR (a:Address) ON (a.postTown)"},
}

// All returns constraints followed by indexes.
func All() []Definition {
	out := make([]Definition, 0, len(Constraints)+len(Indexes))
	out = append(out, Constraints...)
	return append(out, Indexes...)
}

// Result tallies the outcome of Apply.
type Result struct {
	Applied  int // statement succeeded
	Existing int // server reported the rule already exists
	Warnings int // other failure, logged and skipped
}

// Apply runs every definition in order.
//
// Failure policy per statement:
//   - already exists: counted, not logged
//   - store unavailable or ctx done: Apply stops and returns the error
//   - anything else (e.g. node keys on Community edition): warning, continue
func Apply(ctx context.Context, store graph.Store, defs []Definition, log logging.Logger) (Result, error) {
	if log == nil {
		log = logging.Nop()
	}
	var res Result
	for _, d := range defs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		_, err := store.Run(ctx, d.Cypher, nil)
		switch {
		case err == nil:
			res.Applied++
		case graph.IsUnavailable(err):
			return res, fmt.Errorf("schema: %s %s: %w", d.Kind, d.Name, err)
		case graph.IsAlreadyExists(err):
			res.Existing++
		default:
			res.Warnings++
			log.Warnf("%s %s not created: %v", d.Kind, d.Name, err)
		}
	}
	return res, nil
}
