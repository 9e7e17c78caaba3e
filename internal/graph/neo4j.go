package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"graphetl/internal/batch"
	"graphetl/internal/config"
	"graphetl/internal/logging"
)

// Client is a Store backed by the Neo4j Go driver. It is safe for concurrent
// use; each call opens and closes its own session.
type Client struct {
	driver   neo4j.DriverWithContext
	database string
	log      logging.Logger
}

var _ Store = (*Client)(nil)

// Open creates a driver for cfg and verifies connectivity within cfg.Timeout.
// The driver is closed again when verification fails.
func Open(ctx context.Context, cfg config.Neo4j, log logging.Logger) (*Client, error) {
	if log == nil {
		log = logging.Nop()
	}
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""), func(c *neo4j.Config) {
		c.MaxConnectionPoolSize = cfg.MaxPoolSize
		c.SocketConnectTimeout = cfg.Timeout
	})
	if err != nil {
		return nil, fmt.Errorf("graph: init driver: %w", err)
	}

	vctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(vctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("graph: verify connectivity to %s: %w", cfg.URI, err)
	}

	log.Debugf("graph: connected uri=%s database=%s", cfg.URI, cfg.Database)
	return &Client{driver: driver, database: cfg.Database, log: log}, nil
}

func (c *Client) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return c.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: c.database,
	})
}

func (c *Client) Run(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	session := c.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("graph: run: %w", err)
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("graph: collect: %w", err)
	}
	out := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.AsMap())
	}
	return out, nil
}

func (c *Client) RunBatched(ctx context.Context, cypher string, rows []map[string]any, batchSize int) (int, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("graph: batch size must be > 0, got %d", batchSize)
	}
	session := c.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	committed := 0
	for _, chunk := range batch.Chunk(rows, batchSize) {
		_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			result, err := tx.Run(ctx, cypher, Batch(chunk))
			if err != nil {
				return nil, err
			}
			return result.Consume(ctx)
		})
		if err != nil {
			return committed, fmt.Errorf("graph: batch %d (%d rows): %w", committed+1, len(chunk), err)
		}
		committed++
	}
	return committed, nil
}

func (c *Client) RunTransaction(ctx context.Context, stmts []Statement) error {
	if len(stmts) == 0 {
		return nil
	}
	session := c.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for i, st := range stmts {
			result, err := tx.Run(ctx, st.Cypher, st.Params)
			if err != nil {
				return nil, fmt.Errorf("statement %d: %w", i+1, err)
			}
			if _, err := result.Consume(ctx); err != nil {
				return nil, fmt.Errorf("statement %d: %w", i+1, err)
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("graph: transaction: %w", err)
	}
	return nil
}

// Close releases the driver and its connection pool.
func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.driver == nil {
		return nil
	}
	err := c.driver.Close(ctx)
	c.driver = nil
	return err
}
