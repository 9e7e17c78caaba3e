// Package loader runs the multi-phase bulk load of the company register into
// the graph store.
//
// Phases run strictly in order, each a precondition for the next:
//
//  1. preflight: input present, rows counted
//  2. schema: constraints and indexes
//  3. lookups: Country and SICCode sets
//  4. Company nodes
//  5. Address nodes with HAS_ADDRESS, then LOCATED_IN
//  6. CLASSIFIED_AS
//  7. PreviousName nodes with PREVIOUSLY_NAMED
//  8. verification counts
//
// Every pass re-reads the input from the start and writes one batch per
// transaction. All writes MERGE, so an interrupted run is resumed by running
// it again from scratch.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"graphetl/internal/config"
	"graphetl/internal/datasource"
	"graphetl/internal/graph"
	"graphetl/internal/logging"
	"graphetl/internal/metrics"
	csvparser "graphetl/internal/parser/csv"
	"graphetl/internal/schema"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// ErrInputMissing is returned when the input file does not exist.
var ErrInputMissing = errors.New("input file not found")

// DefaultJob names runs in logs and metrics when Options.Job is empty.
const DefaultJob = "companies_house"

const closeTimeout = 10 * time.Second

// Options configures a Loader. Input and Connect are required.
type Options struct {
	Job     string
	RunID   string // generated when empty
	Input   datasource.Source
	Parser  config.Options
	Runtime config.Runtime
	Connect graph.Connector
	Log     logging.Logger
}

// Loader runs one load. It is not safe for concurrent use.
type Loader struct {
	opts  Options
	rt    config.Runtime
	log   logging.Logger
	store graph.Store
	rows  int64
}

// New validates opts and fills defaults.
func New(opts Options) (*Loader, error) {
	if opts.Input == nil {
		return nil, errors.New("loader: input source is required")
	}
	if opts.Connect == nil {
		return nil, errors.New("loader: store connector is required")
	}
	if opts.Job == "" {
		opts.Job = DefaultJob
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	log := opts.Log
	if log == nil {
		log = logging.Nop()
	}

	rt := opts.Runtime
	if rt.BatchSize <= 0 {
		rt.BatchSize = config.DefaultBatchSize
	}
	if rt.LogInterval <= 0 {
		rt.LogInterval = config.DefaultLogInterval
	}
	if rt.ChannelBuffer <= 0 {
		rt.ChannelBuffer = config.DefaultChannelBuffer
	}
	return &Loader{opts: opts, rt: rt, log: log}, nil
}

// PhaseResult reports one completed (or failed) phase.
type PhaseResult struct {
	Number  int
	Name    string
	Stats   Stats
	Elapsed time.Duration
}

// Summary is what a run did.
type Summary struct {
	RunID   string
	Job     string
	Rows    int64 // data rows counted in preflight
	Schema  schema.Result
	Phases  []PhaseResult
	Counts  []Count
	Elapsed time.Duration
}

type phaseFunc func(ctx context.Context, sum *Summary) (Stats, error)

// Run executes every phase. The first failing phase aborts the run and its
// error is returned together with the partial Summary. The store is always
// closed before Run returns.
func (l *Loader) Run(ctx context.Context) (sum Summary, err error) {
	start := time.Now()
	sum = Summary{RunID: l.opts.RunID, Job: l.opts.Job}
	defer func() { sum.Elapsed = time.Since(start) }()

	l.log.Infof("Load %s started (run %s)", l.opts.Job, l.opts.RunID)

	if err := l.phase(ctx, &sum, 1, "PREFLIGHT", "preflight", l.preflight); err != nil {
		return sum, err
	}

	store, err := l.opts.Connect(ctx)
	if err != nil {
		return sum, fmt.Errorf("connect to graph store: %w", err)
	}
	l.store = store
	defer func() {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
		defer cancel()
		if cerr := store.Close(cctx); cerr != nil {
			l.log.Warnf("close graph store: %v", cerr)
		}
	}()

	phases := []struct {
		title string
		step  string
		run   phaseFunc
	}{
		{"SCHEMA SETUP", "schema", l.setupSchema},
		{"LOOKUP EXTRACTION", "lookups", func(ctx context.Context, _ *Summary) (Stats, error) { return l.loadLookups(ctx) }},
		{"COMPANY NODES", "company", l.streamPhase(l.companyPass())},
		{"ADDRESSES", "address", l.streamPhase(l.addressPass(), l.locatedInPass())},
		{"SIC CLASSIFICATIONS", "classification", l.streamPhase(l.classificationPass())},
		{"PREVIOUS NAMES", "history", l.streamPhase(l.historyPass())},
		{"VERIFICATION", "verify", l.verifyPhase},
	}
	for i, p := range phases {
		if err := l.phase(ctx, &sum, i+2, p.title, p.step, p.run); err != nil {
			return sum, err
		}
	}

	l.log.Infof("Load complete in %s", time.Since(start).Round(time.Millisecond))
	return sum, nil
}

// phase wraps one phase with its header, completion line and metrics.
func (l *Loader) phase(ctx context.Context, sum *Summary, n int, title, step string, run phaseFunc) error {
	l.log.Infof("--- PHASE %d: %s ---", n, title)
	start := time.Now()

	st, err := run(ctx, sum)
	d := time.Since(start)
	sum.Phases = append(sum.Phases, PhaseResult{Number: n, Name: step, Stats: st, Elapsed: d})

	metrics.RecordStep(l.opts.Job, step, err, d)
	metrics.RecordRow(l.opts.Job, metrics.KindRead, st.Read)
	metrics.RecordRow(l.opts.Job, metrics.KindWritten, st.Written)
	metrics.RecordRow(l.opts.Job, metrics.KindSkipped, st.Skipped)
	metrics.RecordRow(l.opts.Job, metrics.KindParseError, st.ParseErrors)
	metrics.RecordBatches(l.opts.Job, st.Batches)

	if err != nil {
		return fmt.Errorf("phase %d (%s): %w", n, step, err)
	}
	if st.Read > 0 || st.Written > 0 {
		l.log.Infof("Phase %d done in %s: %s read, %s written, %s skipped, %d batches",
			n, d.Round(time.Millisecond), humanize.Comma(st.Read), humanize.Comma(st.Written),
			humanize.Comma(st.Skipped), st.Batches)
	} else {
		l.log.Infof("Phase %d done in %s", n, d.Round(time.Millisecond))
	}
	return nil
}

type sized interface{ Size() (int64, error) }
type named interface{ Path() string }

func (l *Loader) preflight(ctx context.Context, sum *Summary) (Stats, error) {
	if p, ok := l.opts.Input.(named); ok {
		if s, ok := l.opts.Input.(sized); ok {
			if n, err := s.Size(); err == nil {
				l.log.Infof("Input: %s (%s)", p.Path(), humanize.Bytes(uint64(n)))
			}
		} else {
			l.log.Infof("Input: %s", p.Path())
		}
	}

	src, err := l.opts.Input.Open(ctx)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Stats{}, fmt.Errorf("%w: %v", ErrInputMissing, err)
		}
		return Stats{}, fmt.Errorf("open input: %w", err)
	}
	rows, err := csvparser.CountRows(ctx, src)
	if err != nil {
		return Stats{}, err
	}
	l.rows = rows
	sum.Rows = rows
	l.log.Infof("Input has %s data rows", humanize.Comma(rows))
	return Stats{Read: rows}, nil
}

func (l *Loader) setupSchema(ctx context.Context, sum *Summary) (Stats, error) {
	res, err := schema.Apply(ctx, l.store, schema.All(), l.log)
	sum.Schema = res
	if err != nil {
		return Stats{}, err
	}
	l.log.Infof("Schema: %d created, %d already present, %d warnings", res.Applied, res.Existing, res.Warnings)
	return Stats{}, nil
}

// streamPhase runs passes one after another and sums their stats.
func (l *Loader) streamPhase(passes ...pass) phaseFunc {
	return func(ctx context.Context, _ *Summary) (Stats, error) {
		var total Stats
		for _, p := range passes {
			l.log.Infof("Loading %s...", p.label)
			st, err := l.stream(ctx, p)
			total.add(st)
			if err != nil {
				return total, err
			}
			l.log.Infof("%s: %s rows written, %s records skipped", p.label, humanize.Comma(st.Written), humanize.Comma(st.Skipped))
		}
		return total, nil
	}
}

func (l *Loader) verifyPhase(ctx context.Context, sum *Summary) (Stats, error) {
	counts, err := l.verify(ctx)
	sum.Counts = counts
	return Stats{}, err
}
