package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultEnvFiles are loaded, when present, before reading Neo4j settings.
// Variables already set in the process environment win.
var DefaultEnvFiles = []string{".env", ".env.local"}

// Neo4j holds the graph store connection settings.
type Neo4j struct {
	URI         string        `env:"NEO4J_URI" envDefault:"bolt://localhost:7687"`
	User        string        `env:"NEO4J_USER" envDefault:"neo4j"`
	Password    string        `env:"NEO4J_PASSWORD"`
	Database    string        `env:"NEO4J_DATABASE" envDefault:"neo4j"`
	Timeout     time.Duration `env:"NEO4J_TIMEOUT" envDefault:"10s"`
	MaxPoolSize int           `env:"NEO4J_MAX_POOL_SIZE" envDefault:"50"`
}

// Validate reports settings the driver cannot work with.
func (n Neo4j) Validate() error {
	if n.URI == "" {
		return fmt.Errorf("NEO4J_URI must not be empty")
	}
	if n.Timeout <= 0 {
		return fmt.Errorf("NEO4J_TIMEOUT must be positive, got %s", n.Timeout)
	}
	if n.MaxPoolSize <= 0 {
		return fmt.Errorf("NEO4J_MAX_POOL_SIZE must be positive, got %d", n.MaxPoolSize)
	}
	return nil
}

// LoadEnv loads the existing files among envFiles into the process
// environment and returns how many were found.
func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, f := range envFiles {
		if st, err := os.Stat(f); err == nil && !st.IsDir() {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return 0, fmt.Errorf("load env files: %w", err)
	}
	return len(existing), nil
}

// LoadNeo4j seeds the environment from envFiles and parses Neo4j settings.
func LoadNeo4j(envFiles ...string) (Neo4j, error) {
	if _, err := LoadEnv(envFiles); err != nil {
		return Neo4j{}, err
	}
	var n Neo4j
	if err := env.Parse(&n); err != nil {
		return Neo4j{}, fmt.Errorf("parse neo4j env: %w", err)
	}
	if err := n.Validate(); err != nil {
		return Neo4j{}, err
	}
	return n, nil
}
