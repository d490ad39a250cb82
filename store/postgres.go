package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"askpepper/types"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

const uniqueViolation = "23505"

// PostgresStore keeps chunks in Postgres with pgvector. The tables themselves
// are the snapshot, so Load and Save have nothing to do.
type PostgresStore struct {
	pool *pgxpool.Pool
	dim  int
}

func NewPostgresStore(ctx context.Context, connStr string, dim int) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{
		pool: pool,
		dim:  dim,
	}, nil
}

func (p *PostgresStore) Init(ctx context.Context) error {
	return p.createRagTables(ctx)
}

func (p *PostgresStore) createRagTables(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, schemaSQL(p.dim))
	return err
}

// schemaSQL creates the tables and an HNSW cosine index, replacing the
// ivfflat index of older schemas.
func schemaSQL(dim int) string {
	return fmt.Sprintf(`
	CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS documents (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		url TEXT
	);

	CREATE TABLE IF NOT EXISTS chunks (
		id UUID PRIMARY KEY,
		doc_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
		position INT NOT NULL,
		content TEXT NOT NULL,
		embedding vector(%d)
	);

	DROP INDEX IF EXISTS idx_chunks_embedding;
	CREATE INDEX IF NOT EXISTS idx_chunks_embedding_hnsw ON chunks USING hnsw (embedding vector_cosine_ops);

	CREATE INDEX IF NOT EXISTS idx_chunks_doc_id ON chunks(doc_id);
	`, dim)
}

func (p *PostgresStore) WriteChunks(ctx context.Context, chunks []types.Chunk, policy DuplicatePolicy) (int, error) {
	docQuery := `INSERT INTO documents (id, title, url) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, url = EXCLUDED.url`

	var chunkQuery string
	switch policy {
	case PolicySkip:
		chunkQuery = `INSERT INTO chunks (id, doc_id, position, content, embedding)
		VALUES ($1, $2, $3, $4, $5) ON CONFLICT (id) DO NOTHING`
	case PolicyFail:
		chunkQuery = `INSERT INTO chunks (id, doc_id, position, content, embedding)
		VALUES ($1, $2, $3, $4, $5)`
	default:
		chunkQuery = `INSERT INTO chunks (id, doc_id, position, content, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			doc_id = EXCLUDED.doc_id,
			position = EXCLUDED.position,
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding`
	}

	written := 0
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		for _, c := range chunks {
			if _, err := tx.Exec(ctx, docQuery, c.DocID, c.Title, c.URL); err != nil {
				return err
			}
			tag, err := tx.Exec(ctx, chunkQuery, c.ID, c.DocID, c.Index, c.Content, pgvector.NewVector(c.Embedding))
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return fmt.Errorf("chunk %s: %w", c.ID, ErrDuplicateChunk)
			}
			if err != nil {
				return fmt.Errorf("chunk %s: %w", c.ID, err)
			}
			written += int(tag.RowsAffected())
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

func (p *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	err := p.pool.QueryRow(ctx, "SELECT count(*) FROM chunks").Scan(&n)
	return n, err
}

func (p *PostgresStore) Search(ctx context.Context, queryVec []float32, limit int) ([]types.Chunk, error) {
	if len(queryVec) == 0 {
		return nil, fmt.Errorf("empty query vector")
	}

	query := `
		SELECT pc.id, pc.doc_id, pc.position, pc.content, doc.title, doc.url,
		       1-(pc.embedding <=> $1) as score
		FROM chunks pc
		JOIN documents doc ON pc.doc_id = doc.id
		WHERE pc.embedding IS NOT NULL
		ORDER BY pc.embedding <=> $1
		LIMIT $2
	`
	rows, err := p.pool.Query(ctx, query, pgvector.NewVector(queryVec), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []types.Chunk
	for rows.Next() {
		var chunk types.Chunk
		err := rows.Scan(
			&chunk.ID,
			&chunk.DocID,
			&chunk.Index,
			&chunk.Content,
			&chunk.Title,
			&chunk.URL,
			&chunk.Score)
		if err != nil {
			return nil, err
		}
		log.Printf("[SEARCH] Found chunk: %s, Index: %d, (score: %.4f)\n", chunk.DocID, chunk.Index, chunk.Score)
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

func (p *PostgresStore) Exists(ctx context.Context) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM chunks)").Scan(&exists)
	return exists, err
}

func (p *PostgresStore) Load(context.Context) error { return nil }

func (p *PostgresStore) Save(context.Context) error { return nil }

func (p *PostgresStore) Close() error {
	if p.pool != nil {
		p.pool.Close()
		log.Println("Postgres connection pool is closed")
	}
	return nil
}
