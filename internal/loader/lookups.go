package loader

import (
	"context"
	"fmt"

	csvparser "graphetl/internal/parser/csv"
	"graphetl/internal/record"
)

// countrySet collects distinct country names in first-seen order.
type countrySet struct {
	seen  map[string]struct{}
	names []string
}

func newCountrySet() *countrySet {
	return &countrySet{seen: make(map[string]struct{})}
}

func (s *countrySet) observe(rec csvparser.Record) {
	for _, name := range record.CountryNames(rec) {
		if _, ok := s.seen[name]; ok {
			continue
		}
		s.seen[name] = struct{}{}
		s.names = append(s.names, name)
	}
}

func (s *countrySet) rows() []record.Row {
	out := make([]record.Row, 0, len(s.names))
	for _, name := range s.names {
		out = append(out, record.NewCountry(name).Params())
	}
	return out
}

// codeSet collects classification codes; the first description seen for a
// code wins across the whole file and across slots.
type codeSet struct {
	desc  map[string]string
	codes []string
}

func newCodeSet() *codeSet {
	return &codeSet{desc: make(map[string]string)}
}

func (s *codeSet) observe(rec csvparser.Record) {
	for _, c := range record.ClassificationCodes(rec) {
		if _, ok := s.desc[c.Code]; ok {
			continue
		}
		s.desc[c.Code] = c.Description
		s.codes = append(s.codes, c.Code)
	}
}

func (s *codeSet) rows() []record.Row {
	out := make([]record.Row, 0, len(s.codes))
	for _, code := range s.codes {
		out = append(out, record.ClassificationCode{Code: code, Description: s.desc[code]}.Params())
	}
	return out
}

// loadLookups extracts Country and SICCode sets and writes them. With
// FuseLookupScans both sets are built from one pass over the input.
func (l *Loader) loadLookups(ctx context.Context) (Stats, error) {
	countries, codes := newCountrySet(), newCodeSet()
	var st Stats

	if l.rt.FuseLookupScans {
		s, err := l.scan(ctx, "Scanning lookups", func(rec csvparser.Record) error {
			countries.observe(rec)
			codes.observe(rec)
			return nil
		})
		st.add(s)
		if err != nil {
			return st, err
		}
	} else {
		s, err := l.scan(ctx, "Scanning countries", func(rec csvparser.Record) error {
			countries.observe(rec)
			return nil
		})
		st.add(s)
		if err != nil {
			return st, err
		}
		s, err = l.scan(ctx, "Scanning SIC codes", func(rec csvparser.Record) error {
			codes.observe(rec)
			return nil
		})
		st.add(s)
		if err != nil {
			return st, err
		}
	}

	l.log.Infof("Found %d distinct countries and %d SIC codes", len(countries.names), len(codes.codes))

	for _, lk := range []struct {
		label  string
		cypher string
		rows   []record.Row
	}{
		{"Country", countryCypher, countries.rows()},
		{"SICCode", sicCodeCypher, codes.rows()},
	} {
		n, err := l.store.RunBatched(ctx, lk.cypher, lk.rows, l.rt.BatchSize)
		st.Batches += int64(n)
		if err != nil {
			return st, fmt.Errorf("write %s nodes: %w", lk.label, err)
		}
		st.Written += int64(len(lk.rows))
		l.log.Infof("Created %d %s nodes", len(lk.rows), lk.label)
	}
	return st, nil
}
