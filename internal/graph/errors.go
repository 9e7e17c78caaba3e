package graph

import (
	"context"
	"errors"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

var alreadyExistsCodes = map[string]struct{}{
	"Neo.ClientError.Schema.EquivalentSchemaRuleAlreadyExists": {},
	"Neo.ClientError.Schema.ConstraintAlreadyExists":           {},
	"Neo.ClientError.Schema.IndexAlreadyExists":                {},
	"Neo.ClientError.Schema.ConstraintWithNameAlreadyExists":   {},
	"Neo.ClientError.Schema.IndexWithNameAlreadyExists":        {},
}

// IsAlreadyExists reports whether err says a constraint or index is already
// present. Servers that do not send a schema code are matched on the message.
func IsAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	var ne *neo4j.Neo4jError
	if errors.As(err, &ne) {
		if _, ok := alreadyExistsCodes[ne.Code]; ok {
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "already exists")
}

// IsUnavailable reports whether err means the store cannot be used at all:
// connectivity loss, rejected credentials, an unavailable database, or a
// cancelled or expired context.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if neo4j.IsConnectivityError(err) {
		return true
	}
	var ne *neo4j.Neo4jError
	if errors.As(err, &ne) {
		switch {
		case strings.HasPrefix(ne.Code, "Neo.ClientError.Security."):
			return true
		case ne.Code == "Neo.TransientError.General.DatabaseUnavailable",
			ne.Code == "Neo.ClientError.Database.DatabaseNotFound":
			return true
		}
	}
	return false
}
