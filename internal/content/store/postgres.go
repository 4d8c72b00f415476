package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/thetaroot/blog-luistravels-website-sub000/internal/content"
	"github.com/thetaroot/blog-luistravels-website-sub000/pkg/postgres"
)

// PostgresStore reads published posts from the content database.
type PostgresStore struct {
	client *postgres.Client
	logger *slog.Logger
}

// NewPostgres creates a store backed by the given Postgres client.
func NewPostgres(client *postgres.Client) *PostgresStore {
	return &PostgresStore{
		client: client,
		logger: slog.Default().With("component", "content-store"),
	}
}

const loadAllQuery = `
SELECT slug, title, content, excerpt, tags, entities,
       COALESCE(location, ''), COALESCE(country, ''), COALESCE(cluster_key, ''),
       COALESCE(language, ''), COALESCE(category, ''),
       published_at, COALESCE(views, 0), COALESCE(reading_time, 0)
FROM posts
WHERE published_at IS NOT NULL
ORDER BY slug`

// LoadAll returns every published post, ordered by slug so downstream
// consumers see a stable corpus order.
func (s *PostgresStore) LoadAll(ctx context.Context) ([]content.Document, error) {
	rows, err := s.client.DB.QueryContext(ctx, loadAllQuery)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer rows.Close()

	var docs []content.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating posts: %w", err)
	}
	s.logger.Info("corpus loaded", "documents", len(docs))
	return docs, nil
}

func scanDocument(rows *sql.Rows) (content.Document, error) {
	var doc content.Document
	var tags pq.StringArray
	var entitiesJSON []byte
	err := rows.Scan(
		&doc.ID, &doc.Title, &doc.Content, &doc.Excerpt, &tags, &entitiesJSON,
		&doc.Location, &doc.Country, &doc.Cluster,
		&doc.Language, &doc.Category,
		&doc.PublishedAt, &doc.Views, &doc.ReadingTime,
	)
	if err != nil {
		return doc, fmt.Errorf("scanning post row: %w", err)
	}
	doc.Tags = []string(tags)
	if len(entitiesJSON) > 0 {
		if err := json.Unmarshal(entitiesJSON, &doc.Entities); err != nil {
			return doc, fmt.Errorf("decoding entities for post %s: %w", doc.ID, err)
		}
	}
	return doc, nil
}
