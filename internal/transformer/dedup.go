package transformer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zeebo/xxh3"
)

// DeDup collapses rows sharing the same composite key within one batch.
//
// Policies:
//
//   - "keep-last"  : keep the latest occurrence in the batch (default)
//   - "keep-first" : keep the earliest occurrence
//
// Keys are hashed with xxh3 over the key fields joined by 0x1f; nil and
// missing fields hash as 0x00. Winners are returned in input order of their
// winning position. The graph constraints stay the backstop for duplicates
// across batches.
type DeDup struct {
	Keys   []string
	Policy string
}

func (d DeDup) Apply(in []map[string]any) []map[string]any {
	if len(in) < 2 || len(d.Keys) == 0 {
		return in
	}
	keepFirst := strings.EqualFold(strings.TrimSpace(d.Policy), "keep-first")

	winners := make(map[uint64]int, len(in))
	var b strings.Builder
	for i, r := range in {
		h := d.hash(&b, r)
		if _, seen := winners[h]; seen && keepFirst {
			continue
		}
		winners[h] = i
	}
	if len(winners) == len(in) {
		return in
	}

	idx := make([]int, 0, len(winners))
	for _, i := range winners {
		idx = append(idx, i)
	}
	sort.Ints(idx)

	out := make([]map[string]any, 0, len(idx))
	for _, i := range idx {
		out = append(out, in[i])
	}
	return out
}

func (d DeDup) hash(b *strings.Builder, r map[string]any) uint64 {
	b.Reset()
	for i, k := range d.Keys {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		switch v := r[k].(type) {
		case nil:
			b.WriteByte('\x00')
		case string:
			b.WriteString(v)
		default:
			b.WriteString(fmt.Sprint(v))
		}
	}
	return xxh3.HashString(b.String())
}
