package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/dafgraph/backend/pkg/common"
)

// Store implements store.GraphStorage and segment.Source against a Neo4j
// database. Source segments live as Text nodes; extraction writes Sugya
// and DialecticNode nodes next to them.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
}

// Params configures a new Store.
type Params struct {
	URI      string
	User     string
	Password string
	Database string

	ConnectTimeout time.Duration
	MaxPoolSize    int
}

// New connects to Neo4j and verifies connectivity. A missing URI is a
// configuration error: the graph store is required wiring.
func New(ctx context.Context, params Params) (*Store, error) {
	if params.URI == "" {
		return nil, fmt.Errorf("%w: graph store URI not set", common.ErrConfiguration)
	}
	user := params.User
	if user == "" {
		user = "neo4j"
	}
	timeout := params.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxPool := params.MaxPoolSize
	if maxPool <= 0 {
		maxPool = 50
	}

	driver, err := neo4j.NewDriverWithContext(params.URI, neo4j.BasicAuth(user, params.Password, ""), func(cfg *neo4j.Config) {
		cfg.MaxConnectionPoolSize = maxPool
		cfg.SocketConnectTimeout = timeout
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init neo4j driver: %w", err)
	}

	verifyCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to verify neo4j connectivity: %w", err)
	}

	return &Store{driver: driver, database: params.Database}, nil
}

// Close releases the underlying driver.
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.driver == nil {
		return nil
	}
	return s.driver.Close(ctx)
}

func (s *Store) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: s.database,
	})
}
