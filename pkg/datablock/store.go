package datablock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

// Static store errors
var (
	ErrDataBlockNotFound = errors.New("data block not found")
)

// Store loads data block definitions.
type Store interface {
	// DataBlock resolves a data block by id, including its saved query.
	DataBlock(ctx context.Context, id uuid.UUID) (*DataBlock, error)
}

// Querier is the subset of pgxpool.Pool the store depends on.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type store struct {
	log logrus.FieldLogger
	db  Querier
}

// NewStore creates a data block store backed by postgres.
func NewStore(log logrus.FieldLogger, db Querier) Store {
	return &store{
		log: log.WithField("component", "datablock.store"),
		db:  db,
	}
}

func (s *store) DataBlock(ctx context.Context, id uuid.UUID) (*DataBlock, error) {
	block := DataBlock{ID: id}

	var rawQuery []byte

	err := s.db.QueryRow(ctx, `
		SELECT p.slug, r.slug, db.query
		FROM data_blocks db
		JOIN releases r ON r.id = db.release_id
		JOIN publications p ON p.id = r.publication_id
		WHERE db.id = $1
	`, id).Scan(&block.PublicationSlug, &block.ReleaseSlug, &rawQuery)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDataBlockNotFound
		}

		return nil, fmt.Errorf("data block lookup failed: %w", err)
	}

	if err := json.Unmarshal(rawQuery, &block.Query); err != nil {
		return nil, fmt.Errorf("failed to decode data block query: %w", err)
	}

	return &block, nil
}
