// Package cassandra adapts a gocql session to the datastore.Session
// interface.
package cassandra

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"

	"github.com/roach88/cqlc/internal/ir"
	"github.com/roach88/cqlc/internal/schema"
)

const (
	DefaultPort    = 9042
	DefaultTimeout = 10 * time.Second
)

// NewCluster builds a gocql cluster configuration from cfg.
//
// Plain-text authentication is enabled when a user is configured; a missing
// password authenticates with the empty string. With a local datacenter the
// host policy is token-aware over DC-aware round robin.
func NewCluster(cfg schema.Config) (*gocql.ClusterConfig, error) {
	if len(cfg.ContactPoints) == 0 {
		return nil, ir.ConfigError("", "", "at least one contact point is required")
	}

	cluster := gocql.NewCluster(cfg.ContactPoints...)
	cluster.Keyspace = cfg.Keyspace
	cluster.Port = DefaultPort
	if cfg.Port > 0 {
		cluster.Port = cfg.Port
	}
	cluster.Timeout = DefaultTimeout
	if cfg.Timeout > 0 {
		cluster.Timeout = cfg.Timeout
	}

	if cfg.Consistency != "" {
		c, err := gocql.ParseConsistencyWrapper(cfg.Consistency)
		if err != nil {
			return nil, ir.ConfigError("", "", "consistency: %v", err)
		}
		cluster.Consistency = c
	}

	if user, password, ok := cfg.Credentials(); ok {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: user,
			Password: password,
		}
	}

	if cfg.LocalDC != "" {
		cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(
			gocql.DCAwareRoundRobinPolicy(cfg.LocalDC),
		)
	}

	return cluster, nil
}

// Session runs statements on a gocql session.
type Session struct {
	session *gocql.Session
}

// Connect opens a session for cfg.
func Connect(cfg schema.Config) (*Session, error) {
	cluster, err := NewCluster(cfg)
	if err != nil {
		return nil, err
	}
	s, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("connect to cassandra: %w", err)
	}
	return &Session{session: s}, nil
}

// Wrap adapts an existing gocql session.
func Wrap(s *gocql.Session) *Session {
	return &Session{session: s}
}

// Execute runs a statement that returns no rows.
func (s *Session) Execute(ctx context.Context, cql string, values []any) error {
	return s.session.Query(cql, values...).WithContext(ctx).Exec()
}

// Iterate runs a statement and calls fn for each row keyed by column name.
// Iteration stops at the first error from fn, which is returned as is.
func (s *Session) Iterate(ctx context.Context, cql string, values []any, fn func(map[string]any) error) error {
	iter := s.session.Query(cql, values...).WithContext(ctx).Iter()
	for {
		row := make(map[string]any)
		if !iter.MapScan(row) {
			break
		}
		if err := fn(row); err != nil {
			iter.Close()
			return err
		}
	}
	return iter.Close()
}

// Close closes the underlying session.
func (s *Session) Close() {
	s.session.Close()
}
