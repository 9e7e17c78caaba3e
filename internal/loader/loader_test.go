package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"graphetl/internal/config"
	"graphetl/internal/datasource/file"
	"graphetl/internal/datasource/httpds"
	"graphetl/internal/graph"
	"graphetl/internal/logging"
	"graphetl/internal/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const header = "CompanyName, CompanyNumber ,RegAddress.AddressLine1,RegAddress.PostTown,RegAddress.PostCode," +
	"RegAddress.Country,CountryOfOrigin,IncorporationDate,Mortgages.NumMortCharges," +
	"SICCode.SicText_1,SICCode.SicText_2,PreviousName_1.CONDATE,PreviousName_1.CompanyName\n"

// threeRows is the duplicate-key scenario plus one row without a company number.
const threeRows = header +
	"ACME LTD,A,1 High St,Paris,75001,France,France,31/12/2020,,68209 - Other letting,99999 - Dormant Company,01/02/2010,ACME OLD LTD\n" +
	"BETA LTD,B,,,,,,13/13/2020,x,None Supplied,,,\n" +
	"ACME LTD,A,1 High St,Paris,75001,France,France,31/12/2020,,68209 - Other letting,99999 - Dormant Company,01/02/2010,ACME OLD LTD\n" +
	"NO NUMBER LTD,,2 Low Rd,Leeds,LS1 1AA,England,,,,,,,\n"

func writeInput(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "companies.csv")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func newTestLoader(t *testing.T, path string, connect graph.Connector, rt config.Runtime, log logging.Logger) *Loader {
	t.Helper()
	l, err := New(Options{
		Job:     "test",
		Input:   file.NewLocal(path),
		Runtime: rt,
		Connect: connect,
		Log:     log,
	})
	require.NoError(t, err)
	return l
}

func countsByName(cs []Count) map[string]int64 {
	out := make(map[string]int64, len(cs))
	for _, c := range cs {
		out[c.Name] = c.Value
	}
	return out
}

func phaseStats(t *testing.T, sum Summary, name string) Stats {
	t.Helper()
	for _, p := range sum.Phases {
		if p.Name == name {
			return p.Stats
		}
	}
	t.Fatalf("phase %q not in summary", name)
	return Stats{}
}

func TestRun_EndToEnd(t *testing.T) {
	g := newMemGraph()
	rec := g.recorder()
	path := writeInput(t, threeRows)

	l := newTestLoader(t, path, g.connector(rec), config.Runtime{BatchSize: 2, FuseLookupScans: true}, nil)
	sum, err := l.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, rec.Closed())
	assert.Equal(t, int64(4), sum.Rows)
	assert.Len(t, sum.Phases, 8)
	assert.NotEmpty(t, sum.RunID)

	assert.Equal(t, map[string]int64{
		"Company":          2,
		"Address":          1,
		"Country":          2, // France, England
		"SICCode":          2,
		"PreviousName":     1,
		"HAS_ADDRESS":      1,
		"LOCATED_IN":       1,
		"CLASSIFIED_AS":    2,
		"PREVIOUSLY_NAMED": 1,
	}, countsByName(sum.Counts))

	company := phaseStats(t, sum, "company")
	assert.Equal(t, int64(4), company.Read)
	assert.Equal(t, int64(1), company.Skipped)
	assert.Equal(t, int64(3), company.Written)
	assert.Equal(t, int64(2), company.Batches)

	acme := g.companies["A"]
	assert.Equal(t, "2020-12-31", acme["incorporationDate"])
	assert.Equal(t, int64(0), acme["numMortCharges"])
	beta := g.companies["B"]
	assert.Nil(t, beta["incorporationDate"])
	assert.Nil(t, beta["numMortCharges"])

	assert.Equal(t, "FR", g.countries["France"])
	assert.Equal(t, "GB", g.countries["England"])
	assert.Equal(t, "Other letting", g.sicCodes["68209"])
}

func TestRun_SharedAddressFollowsStoredCountry(t *testing.T) {
	g := newMemGraph()
	path := writeInput(t, header+
		"ACME LTD,A,1 High St,London,E1 1AA,England,,,,,,,\n"+
		"BETA LTD,B,1 High St,London,E1 1AA,United Kingdom,,,,,,,\n")

	sum, err := newTestLoader(t, path, g.connector(g.recorder()), config.Runtime{BatchSize: 10, FuseLookupScans: true}, nil).Run(context.Background())
	require.NoError(t, err)

	counts := countsByName(sum.Counts)
	assert.Equal(t, int64(1), counts["Address"])
	assert.Equal(t, int64(2), counts["Country"])
	assert.Equal(t, int64(2), counts["HAS_ADDRESS"])
	assert.Equal(t, int64(1), counts["LOCATED_IN"])

	stored := g.addresses[key("1 High St", "London", "E1 1AA")]["country"]
	assert.Equal(t, "United Kingdom", stored)
	assert.Contains(t, g.locatedIn, key("1 High St", "London", "E1 1AA", "United Kingdom"))
}

func TestRun_Idempotent(t *testing.T) {
	g := newMemGraph()
	path := writeInput(t, threeRows)
	rt := config.Runtime{BatchSize: 3, FuseLookupScans: true}

	first, err := newTestLoader(t, path, g.connector(g.recorder()), rt, nil).Run(context.Background())
	require.NoError(t, err)
	second, err := newTestLoader(t, path, g.connector(g.recorder()), rt, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, countsByName(first.Counts), countsByName(second.Counts))
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRun_SeparateLookupScans(t *testing.T) {
	path := writeInput(t, threeRows)

	fused := newMemGraph()
	fusedSum, err := newTestLoader(t, path, fused.connector(fused.recorder()),
		config.Runtime{FuseLookupScans: true}, nil).Run(context.Background())
	require.NoError(t, err)

	split := newMemGraph()
	splitSum, err := newTestLoader(t, path, split.connector(split.recorder()),
		config.Runtime{FuseLookupScans: false}, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, countsByName(fusedSum.Counts), countsByName(splitSum.Counts))
	assert.Equal(t, int64(4), phaseStats(t, fusedSum, "lookups").Read)
	assert.Equal(t, int64(8), phaseStats(t, splitSum, "lookups").Read)
}

func TestRun_MissingClassificationTargetCreatesNoEdge(t *testing.T) {
	g := newMemGraph()
	g.dropSICCodes = true
	path := writeInput(t, threeRows)

	sum, err := newTestLoader(t, path, g.connector(g.recorder()), config.Runtime{}, nil).Run(context.Background())
	require.NoError(t, err)

	counts := countsByName(sum.Counts)
	assert.Zero(t, counts["SICCode"])
	assert.Zero(t, counts["CLASSIFIED_AS"])
	assert.Equal(t, int64(4), phaseStats(t, sum, "classification").Written)
}

func TestRun_InputMissing(t *testing.T) {
	connected := false
	connect := func(context.Context) (graph.Store, error) {
		connected = true
		return newMemGraph().recorder(), nil
	}
	l := newTestLoader(t, filepath.Join(t.TempDir(), "absent.csv"), connect, config.Runtime{}, nil)

	sum, err := l.Run(context.Background())
	require.ErrorIs(t, err, ErrInputMissing)
	assert.False(t, connected, "store must not be opened before preflight passes")
	require.Len(t, sum.Phases, 1)
	assert.Equal(t, "preflight", sum.Phases[0].Name)
}

func TestRun_RemoteInputMissing(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	connected := false
	l, err := New(Options{
		Input: httpds.NewSource(httpds.NewClient(httpds.Config{}), srv.URL+"/companies.csv"),
		Connect: func(context.Context) (graph.Store, error) {
			connected = true
			return newMemGraph().recorder(), nil
		},
	})
	require.NoError(t, err)

	_, err = l.Run(context.Background())
	require.ErrorIs(t, err, ErrInputMissing)
	assert.False(t, connected)
}

func TestRun_WriteFailureAbortsAndCloses(t *testing.T) {
	g := newMemGraph()
	g.failOn = addressCypher
	rec := g.recorder()
	path := writeInput(t, threeRows)

	sum, err := newTestLoader(t, path, g.connector(rec), config.Runtime{}, nil).Run(context.Background())
	require.ErrorIs(t, err, errInjected)
	assert.Contains(t, err.Error(), "phase 5 (address)")
	assert.True(t, rec.Closed())
	assert.Empty(t, sum.Counts)
	assert.Zero(t, g.count("HAS_ADDRESS"))
	assert.Equal(t, int64(2), g.count("Company"), "earlier phases stay committed")
}

func TestRun_Cancelled(t *testing.T) {
	g := newMemGraph()
	rec := g.recorder()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestLoader(t, writeInput(t, threeRows), g.connector(rec), config.Runtime{}, nil).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRun_LogsPhaseHeaders(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	g := newMemGraph()
	path := writeInput(t, threeRows)

	_, err := newTestLoader(t, path, g.connector(g.recorder()),
		config.Runtime{LogInterval: 2}, logging.FromZap(zap.New(core))).Run(context.Background())
	require.NoError(t, err)

	var headers []string
	for _, e := range logs.All() {
		if strings.HasPrefix(e.Message, "--- PHASE") {
			headers = append(headers, e.Message)
		}
	}
	assert.Equal(t, []string{
		"--- PHASE 1: PREFLIGHT ---",
		"--- PHASE 2: SCHEMA SETUP ---",
		"--- PHASE 3: LOOKUP EXTRACTION ---",
		"--- PHASE 4: COMPANY NODES ---",
		"--- PHASE 5: ADDRESSES ---",
		"--- PHASE 6: SIC CLASSIFICATIONS ---",
		"--- PHASE 7: PREVIOUS NAMES ---",
		"--- PHASE 8: VERIFICATION ---",
	}, headers)
	assert.NotZero(t, logs.FilterMessageSnippet("Company: 2 / 4 (50.0%)").Len())
	assert.NotZero(t, logs.FilterMessageSnippet("[:HAS_ADDRESS]").Len())
}

// stepBackend attributes record and batch counters to the phase whose step
// counter was emitted last; the loader records the step before its rows.
type stepBackend struct {
	mu      sync.Mutex
	current string
	steps   map[string]string
	rows    map[string]map[string]float64
	batches map[string]float64
}

func newStepBackend() *stepBackend {
	return &stepBackend{
		steps:   map[string]string{},
		rows:    map[string]map[string]float64{},
		batches: map[string]float64{},
	}
}

func (b *stepBackend) IncCounter(name string, delta float64, labels metrics.Labels) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch name {
	case metrics.StepTotal:
		b.current = labels["step"]
		b.steps[b.current] = labels["status"]
	case metrics.RecordsTotal:
		if b.rows[b.current] == nil {
			b.rows[b.current] = map[string]float64{}
		}
		b.rows[b.current][labels["kind"]] += delta
	case metrics.BatchesTotal:
		b.batches[b.current] += delta
	}
}
func (b *stepBackend) ObserveHistogram(string, float64, metrics.Labels) {}
func (b *stepBackend) Flush() error                                     { return nil }

func TestRun_RecordsMetrics(t *testing.T) {
	b := newStepBackend()
	prev := metrics.SetBackend(b)
	defer metrics.SetBackend(prev)

	g := newMemGraph()
	_, err := newTestLoader(t, writeInput(t, threeRows), g.connector(g.recorder()), config.Runtime{}, nil).
		Run(context.Background())
	require.NoError(t, err)

	for _, step := range []string{"preflight", "schema", "lookups", "company", "address", "classification", "history", "verify"} {
		assert.Equal(t, "success", b.steps[step], "step %s", step)
	}
	assert.Equal(t, 4.0, b.rows["preflight"][metrics.KindRead])
	assert.Empty(t, b.rows["schema"])
}

func TestRun_RecordsEveryRowKindForPhase(t *testing.T) {
	b := newStepBackend()
	prev := metrics.SetBackend(b)
	defer metrics.SetBackend(prev)

	// The last row has one cell more than the header.
	input := threeRows + "BAD LTD,C,,,,,,,,,,,,extra\n"
	g := newMemGraph()
	l, err := New(Options{
		Job:     "test",
		Input:   file.NewLocal(writeInput(t, input)),
		Parser:  config.Options{"fields_per_record": float64(0)},
		Runtime: config.Runtime{BatchSize: 2, FuseLookupScans: true},
		Connect: g.connector(g.recorder()),
	})
	require.NoError(t, err)

	sum, err := l.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{
		metrics.KindRead:       4,
		metrics.KindWritten:    3,
		metrics.KindSkipped:    1,
		metrics.KindParseError: 1,
	}, b.rows["company"])
	assert.Equal(t, 2.0, b.batches["company"])

	company := phaseStats(t, sum, "company")
	assert.Equal(t, int64(1), company.ParseErrors)
	assert.Equal(t, int64(2), countsByName(sum.Counts)["Company"])
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{Connect: newMemGraph().connector(nil)})
	assert.Error(t, err)
	_, err = New(Options{Input: file.NewLocal("x.csv")})
	assert.Error(t, err)

	l, err := New(Options{Input: file.NewLocal("x.csv"), Connect: newMemGraph().connector(nil)})
	require.NoError(t, err)
	assert.Equal(t, DefaultJob, l.opts.Job)
	assert.Equal(t, config.DefaultBatchSize, l.rt.BatchSize)
	assert.Equal(t, config.DefaultLogInterval, l.rt.LogInterval)
	assert.Equal(t, config.DefaultChannelBuffer, l.rt.ChannelBuffer)
}
