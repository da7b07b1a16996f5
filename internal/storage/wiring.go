package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dafgraph/backend/internal/util"
	"github.com/dafgraph/backend/pkg/common"
	"github.com/dafgraph/backend/pkg/logger"
	"github.com/dafgraph/backend/pkg/segment"
	"github.com/dafgraph/backend/pkg/store"
	neo4jstore "github.com/dafgraph/backend/pkg/store/neo4j"
	pgxstore "github.com/dafgraph/backend/pkg/store/pgx"
)

// Capabilities bundles the external capabilities a process needs: the graph
// store the pipeline writes to and the segment source it reads from. Both
// are selected by environment, so the server, the worker and the CLI share
// one wiring path.
type Capabilities struct {
	Storage store.GraphStorage
	Source  segment.Source

	// Pool is set when the graph store runs on postgres. Lease locks and
	// run statistics need raw connection access.
	Pool *pgxpool.Pool

	closers []func()
}

// InitCapabilities wires the graph store (GRAPH_STORE: neo4j or postgres)
// and the segment source (SEGMENT_SOURCE: neo4j or s3). The neo4j
// connection is shared when both sides use it.
func InitCapabilities(ctx context.Context) (*Capabilities, error) {
	caps := &Capabilities{}

	backend := util.GetEnvString("GRAPH_STORE", "neo4j")
	sourceKind := util.GetEnvString("SEGMENT_SOURCE", "neo4j")

	var neoStore *neo4jstore.Store
	newNeo4j := func() (*neo4jstore.Store, error) {
		if neoStore != nil {
			return neoStore, nil
		}
		s, err := neo4jstore.New(ctx, neo4jstore.Params{
			URI:      util.GetEnv("NEO4J_URI"),
			User:     util.GetEnv("NEO4J_USER"),
			Password: util.GetEnv("NEO4J_PASSWORD"),
			Database: util.GetEnvString("NEO4J_DATABASE", "neo4j"),
		})
		if err != nil {
			return nil, err
		}
		neoStore = s
		caps.closers = append(caps.closers, func() {
			if err := s.Close(context.Background()); err != nil {
				logger.Warn("Failed to close neo4j driver", "err", err)
			}
		})
		return s, nil
	}

	switch backend {
	case "postgres":
		conn, err := pgxpool.New(ctx, util.GetEnv("DATABASE_URL"))
		if err != nil {
			caps.Close()
			return nil, fmt.Errorf("%w: failed to connect to postgres: %v", common.ErrConfiguration, err)
		}
		caps.closers = append(caps.closers, conn.Close)

		migrationsPath := util.GetEnvString("MIGRATIONS_PATH", "migrations")
		if err := pgxstore.RunMigrations(util.GetEnv("DATABASE_URL"), migrationsPath); err != nil {
			caps.Close()
			return nil, fmt.Errorf("%w: %v", common.ErrConfiguration, err)
		}
		caps.Storage = pgxstore.NewGraphDBStorageWithConnection(conn)
		caps.Pool = conn
	case "neo4j":
		s, err := newNeo4j()
		if err != nil {
			caps.Close()
			return nil, err
		}
		caps.Storage = s
	default:
		return nil, fmt.Errorf("%w: unknown graph store %q", common.ErrConfiguration, backend)
	}

	switch sourceKind {
	case "s3":
		client := NewS3Client(ctx)
		if client == nil {
			caps.Close()
			return nil, fmt.Errorf("%w: failed to build s3 client", common.ErrConfiguration)
		}
		bucket := util.GetEnvString("AWS_BUCKET", "dafgraph")
		prefix := util.GetEnvString("AWS_SEGMENT_PREFIX", "exports")
		caps.Source = segment.NewS3Source(client, bucket, prefix)
	case "neo4j":
		s, err := newNeo4j()
		if err != nil {
			caps.Close()
			return nil, err
		}
		caps.Source = s
	default:
		caps.Close()
		return nil, fmt.Errorf("%w: unknown segment source %q", common.ErrConfiguration, sourceKind)
	}

	return caps, nil
}

// Close releases every connection the capabilities hold, in reverse order.
func (c *Capabilities) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
