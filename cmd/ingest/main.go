// Command ingest loads knowledge-base documents, chunks and embeds them,
// and upserts the result into the vector index. Documents are JSON files
// mapping section names to text; the source label is the file name without
// its extension. Content ids are stable hashes, so re-running the command
// never duplicates chunks.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/respiguard/backend/internal/domain/knowledge"
	"github.com/respiguard/backend/internal/infra/config"
	"github.com/respiguard/backend/internal/infra/knowledge/chunker"
	"github.com/respiguard/backend/internal/infra/knowledge/embedder"
	"github.com/respiguard/backend/internal/infra/knowledge/vecindex"
	"github.com/respiguard/backend/internal/infra/llm/chatgpt"
	"github.com/respiguard/backend/pkg/logger"
)

type document struct {
	Name     string
	Sections map[string]string
}

func main() {
	var (
		dir       = flag.String("dir", "", "local directory holding KB JSON documents")
		bucket    = flag.String("bucket", "", "S3-compatible bucket holding KB JSON documents")
		endpoint  = flag.String("endpoint", "", "S3 endpoint, e.g. minio.local:9000")
		secure    = flag.Bool("secure", true, "use TLS when talking to the S3 endpoint")
		maxTokens = flag.Int("max-tokens", 400, "chunk token budget")
		overlap   = flag.Int("overlap", 40, "chunk overlap in words")
	)
	flag.Parse()

	if (*dir == "") == (*bucket == "") {
		log.Fatal("exactly one of -dir or -bucket must be set")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logg := logger.New().With("component", "ingest")

	ctx := context.Background()

	docs, err := loadDocuments(ctx, *dir, *bucket, *endpoint, *secure)
	if err != nil {
		log.Fatalf("failed to load documents: %v", err)
	}
	if len(docs) == 0 {
		log.Fatal("no documents found")
	}
	logg.Info("documents loaded", "count", len(docs))

	emb, err := buildEmbedder(cfg, logg)
	if err != nil {
		log.Fatalf("failed to build embedder: %v", err)
	}
	index, cleanup, err := buildIndex(ctx, cfg, logg)
	if err != nil {
		log.Fatalf("failed to build index: %v", err)
	}
	defer cleanup()

	split := chunker.NewTokenChunker(*maxTokens, *overlap)

	total := 0
	for _, doc := range docs {
		chunks := chunkDocument(doc, split)
		if len(chunks) == 0 {
			logg.Warn("document produced no chunks", "source", doc.Name)
			continue
		}
		texts := make([]string, len(chunks))
		for i, chunk := range chunks {
			texts[i] = chunk.Content
		}
		vectors, err := emb.Embed(ctx, texts)
		if err != nil {
			log.Fatalf("failed to embed %s: %v", doc.Name, err)
		}
		if len(vectors) != len(chunks) {
			log.Fatalf("embedding count mismatch for %s: want %d got %d", doc.Name, len(chunks), len(vectors))
		}
		for i := range chunks {
			chunks[i].Embedding = vectors[i]
		}
		if err := index.Upsert(ctx, chunks); err != nil {
			log.Fatalf("failed to upsert %s: %v", doc.Name, err)
		}
		logg.Info("document ingested", "source", doc.Name, "chunks", len(chunks))
		total += len(chunks)
	}
	logg.Info("ingestion complete", "documents", len(docs), "chunks", total)
}

func chunkDocument(doc document, split *chunker.TokenChunker) []knowledge.Chunk {
	var out []knowledge.Chunk
	for section, text := range doc.Sections {
		for _, candidate := range split.Chunk(text) {
			out = append(out, knowledge.Chunk{
				ID:         contentID(doc.Name, section, candidate.Content),
				Source:     doc.Name,
				Content:    candidate.Content,
				TokenCount: candidate.TokenCount,
			})
		}
	}
	return out
}

func contentID(source, section, content string) string {
	sum := sha256.Sum256([]byte(source + "\x00" + section + "\x00" + content))
	return hex.EncodeToString(sum[:])
}

func loadDocuments(ctx context.Context, dir, bucket, endpoint string, secure bool) ([]document, error) {
	if dir != "" {
		return loadFromDir(dir)
	}
	return loadFromBucket(ctx, bucket, endpoint, secure)
}

func loadFromDir(dir string) ([]document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var docs []document
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		doc, err := parseDocument(entry.Name(), data)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func loadFromBucket(ctx context.Context, bucket, endpoint string, secure bool) ([]document, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY"), ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	var docs []document
	for object := range client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Recursive: true}) {
		if object.Err != nil {
			return nil, fmt.Errorf("list bucket: %w", object.Err)
		}
		if !strings.HasSuffix(object.Key, ".json") {
			continue
		}
		reader, err := client.GetObject(ctx, bucket, object.Key, minio.GetObjectOptions{})
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", object.Key, err)
		}
		data, err := io.ReadAll(reader)
		reader.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", object.Key, err)
		}
		doc, err := parseDocument(filepath.Base(object.Key), data)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func parseDocument(fileName string, data []byte) (document, error) {
	sections := make(map[string]string)
	if err := json.Unmarshal(data, &sections); err != nil {
		return document{}, fmt.Errorf("parse %s: %w", fileName, err)
	}
	return document{
		Name:     strings.TrimSuffix(fileName, filepath.Ext(fileName)),
		Sections: sections,
	}, nil
}

func buildEmbedder(cfg *config.Config, logg *slog.Logger) (knowledge.Embedder, error) {
	if cfg.Knowledge.Embedder == "hash" {
		logg.Info("deterministic embedder enabled")
		return embedder.NewDeterministicEmbedder(cfg.Knowledge.EmbeddingDim), nil
	}
	client, err := chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL)
	if err != nil {
		return nil, err
	}
	return embedder.NewChatGPTEmbedder(client, cfg.LLM.EmbeddingModel, logg), nil
}

func buildIndex(ctx context.Context, cfg *config.Config, logg *slog.Logger) (knowledge.Index, func(), error) {
	dsn := strings.TrimSpace(cfg.Postgres.DSN)
	if dsn == "" {
		return nil, nil, fmt.Errorf("postgres dsn is required for ingestion")
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid postgres dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize postgres pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres ping: %w", err)
	}
	logg.Info("pgvector index ready")
	return vecindex.NewPostgresIndex(pool), pool.Close, nil
}
