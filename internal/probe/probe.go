// Package probe detects the version and edition of a live Neo4j database.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"graphetl/internal/graph"
)

// ComponentsQuery lists the kernel and Cypher components of the server.
const ComponentsQuery = `CALL dbms.components()
YIELD name, versions, edition
WHERE name IN ['Neo4j Kernel', 'Cypher']
RETURN name, versions, edition`

// Info is the probe result. On failure only Connected=false and Error are set.
type Info struct {
	Connected     bool
	Neo4jVersion  string
	CypherVersion []string
	Enterprise    bool
	Error         string
}

// MarshalJSON emits {connected, neo4j_version, cypher_version, enterprise}
// on success and {connected:false, error} on failure.
func (i Info) MarshalJSON() ([]byte, error) {
	if !i.Connected {
		return json.Marshal(struct {
			Connected bool   `json:"connected"`
			Error     string `json:"error"`
		}{false, i.Error})
	}
	return json.Marshal(struct {
		Connected     bool     `json:"connected"`
		Neo4jVersion  string   `json:"neo4j_version"`
		CypherVersion []string `json:"cypher_version"`
		Enterprise    bool     `json:"enterprise"`
	}{true, i.Neo4jVersion, i.CypherVersion, i.Enterprise})
}

// Edition returns "Enterprise" or "Community".
func (i Info) Edition() string {
	if i.Enterprise {
		return "Enterprise"
	}
	return "Community"
}

// ErrNoVersion is reported when the server answers but lists no kernel or
// Cypher component.
var ErrNoVersion = errors.New("unable to detect Neo4j or Cypher version from database")

// Detect connects, queries the server components and closes the store.
// It never returns an error: every failure is folded into Info.
func Detect(ctx context.Context, connect graph.Connector) Info {
	store, err := connect(ctx)
	if err != nil {
		return failed(err)
	}
	defer store.Close(ctx)

	rows, err := store.Run(ctx, ComponentsQuery, nil)
	if err != nil {
		return failed(err)
	}
	info, err := Parse(rows)
	if err != nil {
		return failed(err)
	}
	return info
}

// Parse builds Info from the rows of ComponentsQuery.
func Parse(rows []map[string]any) (Info, error) {
	var info Info
	for _, r := range rows {
		versions, _ := r["versions"].([]any)
		switch r["name"] {
		case "Neo4j Kernel":
			if len(versions) > 0 {
				info.Neo4jVersion = fmt.Sprint(versions[0])
			}
			info.Enterprise = r["edition"] == "enterprise"
		case "Cypher":
			info.CypherVersion = make([]string, 0, len(versions))
			for _, v := range versions {
				info.CypherVersion = append(info.CypherVersion, fmt.Sprint(v))
			}
		}
	}
	if info.Neo4jVersion == "" || len(info.CypherVersion) == 0 {
		return Info{}, ErrNoVersion
	}
	info.Connected = true
	return info, nil
}

func failed(err error) Info {
	return Info{Connected: false, Error: err.Error()}
}
