package graph

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graphetl/internal/config"
	"graphetl/internal/logging"
)

// openTestClient connects to the database named by NEO4J_TEST_URI, or skips.
// The target database is wiped of :GraphetlProbe nodes before and after.
func openTestClient(t *testing.T) *Client {
	t.Helper()
	uri := os.Getenv("NEO4J_TEST_URI")
	if uri == "" {
		t.Skip("NEO4J_TEST_URI not set; skipping live Neo4j test")
	}
	cfg := config.Neo4j{
		URI:         uri,
		User:        envOr("NEO4J_TEST_USER", "neo4j"),
		Password:    os.Getenv("NEO4J_TEST_PASSWORD"),
		Database:    envOr("NEO4J_TEST_DATABASE", "neo4j"),
		Timeout:     10 * time.Second,
		MaxPoolSize: 4,
	}
	ctx := context.Background()
	c, err := Open(ctx, cfg, logging.Nop())
	require.NoError(t, err)

	cleanup := func() { _, _ = c.Run(ctx, "MATCH (n:GraphetlProbe) DETACH DELETE n", nil) }
	cleanup()
	t.Cleanup(func() {
		cleanup()
		_ = c.Close(ctx)
	})
	return c
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func TestClient_RunBatchedAndTransaction(t *testing.T) {
	c := openTestClient(t)
	ctx := context.Background()

	rows := make([]map[string]any, 0, 5)
	for i := 0; i < 5; i++ {
		rows = append(rows, map[string]any{"id": int64(i)})
	}
	n, err := c.RunBatched(ctx, "UNWIND $batch AS row MERGE (:GraphetlProbe {id: row.id})", rows, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// Idempotent second pass.
	_, err = c.RunBatched(ctx, "UNWIND $batch AS row MERGE (:GraphetlProbe {id: row.id})", rows, 2)
	require.NoError(t, err)

	res, err := c.Run(ctx, "MATCH (n:GraphetlProbe) RETURN count(n) AS count", nil)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, int64(5), res[0]["count"])

	// A failing statement rolls back the whole transaction.
	err = c.RunTransaction(ctx, []Statement{
		{Cypher: "CREATE (:GraphetlProbe {id: 99})"},
		{Cypher: "THIS IS NOT CYPHER"},
	})
	require.Error(t, err)

	res, err = c.Run(ctx, "MATCH (n:GraphetlProbe {id: 99}) RETURN count(n) AS count", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res[0]["count"])
}

func TestOpen_Unreachable(t *testing.T) {
	if os.Getenv("NEO4J_TEST_URI") == "" {
		t.Skip("NEO4J_TEST_URI not set; skipping live Neo4j test")
	}
	cfg := config.Neo4j{URI: "bolt://127.0.0.1:1", User: "neo4j", Timeout: time.Second, MaxPoolSize: 1}
	_, err := Open(context.Background(), cfg, nil)
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
}
