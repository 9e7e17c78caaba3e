package loader

import (
	"fmt"

	"graphetl/internal/logging"

	"github.com/dustin/go-humanize"
)

// progress logs "label: processed / total (pct%)" every interval rows.
type progress struct {
	label    string
	total    int64
	interval int64
	log      logging.Logger
	n        int64
}

func newProgress(log logging.Logger, label string, total int64, interval int) *progress {
	return &progress{label: label, total: total, interval: int64(interval), log: log}
}

func (p *progress) tick() {
	p.n++
	if p.interval > 0 && p.n%p.interval == 0 {
		p.log.Infof("  %s", p.line())
	}
}

func (p *progress) line() string {
	if p.total <= 0 {
		return fmt.Sprintf("%s: %s", p.label, humanize.Comma(p.n))
	}
	pct := float64(p.n) / float64(p.total) * 100
	return fmt.Sprintf("%s: %s / %s (%.1f%%)",
		p.label, humanize.Comma(p.n), humanize.Comma(p.total), pct)
}
