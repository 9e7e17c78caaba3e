package loader

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
)

// Count is the verified size of one label or relationship type.
type Count struct {
	Name         string
	Relationship bool
	Value        int64
}

type target struct {
	name         string
	relationship bool
}

var verifyTargets = []target{
	{name: "Company"},
	{name: "Address"},
	{name: "Country"},
	{name: "SICCode"},
	{name: "PreviousName"},
	{name: "HAS_ADDRESS", relationship: true},
	{name: "LOCATED_IN", relationship: true},
	{name: "CLASSIFIED_AS", relationship: true},
	{name: "PREVIOUSLY_NAMED", relationship: true},
}

func (t target) cypher() string {
	if t.relationship {
		return fmt.Sprintf("MATCH ()-[r:%s]->() RETURN count(r) AS count", t.name)
	}
	return fmt.Sprintf("MATCH (n:%s) RETURN count(n) AS count", t.name)
}

// verify counts every node label and relationship type and logs a table.
func (l *Loader) verify(ctx context.Context) ([]Count, error) {
	out := make([]Count, 0, len(verifyTargets))
	for _, t := range verifyTargets {
		rows, err := l.store.Run(ctx, t.cypher(), nil)
		if err != nil {
			return out, fmt.Errorf("count %s: %w", t.name, err)
		}
		out = append(out, Count{Name: t.name, Relationship: t.relationship, Value: countValue(rows)})
	}

	l.log.Infof("%-20s %15s", "Type", "Count")
	for _, c := range out {
		name := c.Name
		if c.Relationship {
			name = "[:" + name + "]"
		}
		l.log.Infof("%-20s %15s", name, humanize.Comma(c.Value))
	}
	return out, nil
}

func countValue(rows []map[string]any) int64 {
	if len(rows) == 0 {
		return 0
	}
	switch v := rows[0]["count"].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}
