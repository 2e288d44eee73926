package vecindex

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/respiguard/backend/internal/domain/knowledge"
)

// PostgresIndex stores chunks in Postgres and searches via pgvector.
//
// Expected schema:
//
//	CREATE TABLE kb_chunks (
//	    id          TEXT PRIMARY KEY,
//	    source      TEXT NOT NULL,
//	    content     TEXT NOT NULL,
//	    token_count INT NOT NULL,
//	    embedding   VECTOR NOT NULL,
//	    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
//	);
type PostgresIndex struct {
	pool *pgxpool.Pool
}

// NewPostgresIndex constructs the index.
func NewPostgresIndex(pool *pgxpool.Pool) *PostgresIndex {
	return &PostgresIndex{pool: pool}
}

// Upsert inserts chunks, replacing rows whose content id already exists.
func (x *PostgresIndex) Upsert(ctx context.Context, chunks []knowledge.Chunk) error {
	batch := &pgx.Batch{}
	for _, chunk := range chunks {
		batch.Queue(`
			INSERT INTO kb_chunks (id, source, content, token_count, embedding)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE
			SET source = EXCLUDED.source, content = EXCLUDED.content,
			    token_count = EXCLUDED.token_count, embedding = EXCLUDED.embedding
		`, chunk.ID, chunk.Source, chunk.Content, chunk.TokenCount, pgvector.NewVector(chunk.Embedding))
	}
	return x.pool.SendBatch(ctx, batch).Close()
}

// Search returns the k nearest passages by cosine distance.
func (x *PostgresIndex) Search(ctx context.Context, embedding []float32, k int) ([]knowledge.Passage, error) {
	if k <= 0 {
		k = 3
	}
	rows, err := x.pool.Query(ctx, `
		SELECT content, source
		FROM kb_chunks
		ORDER BY embedding <=> $1 ASC
		LIMIT $2
	`, pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var passages []knowledge.Passage
	for rows.Next() {
		var p knowledge.Passage
		if err := rows.Scan(&p.Content, &p.Source); err != nil {
			return nil, err
		}
		passages = append(passages, p)
	}
	return passages, rows.Err()
}

var _ knowledge.Index = (*PostgresIndex)(nil)
