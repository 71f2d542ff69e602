// Package postgres implementa el port de blobs sobre una tabla bytea,
// para deployments que ya corren Postgres y no quieren un bucket aparte.
//
// Esquema esperado:
//
//	CREATE TABLE blobs (
//	    key          TEXT PRIMARY KEY,
//	    data         BYTEA NOT NULL,
//	    content_type TEXT NOT NULL DEFAULT '',
//	    etag         TEXT NOT NULL,
//	    uploaded_at  TIMESTAMPTZ NOT NULL
//	);
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"med-dashboard/internal/ports/blob"
)

// Open abre una conexión pool a Postgres usando pgx (database/sql).
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	// defaults razonables para un documento por deployment
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Put(ctx context.Context, key string, data []byte, opts blob.PutOptions) (blob.Object, error) {
	etag := blob.ComputeETag(data)
	now := time.Now().UTC()

	var res sql.Result
	var err error

	switch {
	case opts.IfMatch != "":
		// Escritura condicional: solo si el etag actual coincide.
		res, err = s.db.ExecContext(ctx, `
			UPDATE blobs
			SET data = $2, content_type = $3, etag = $4, uploaded_at = $5
			WHERE key = $1 AND etag = $6
		`, key, data, opts.ContentType, etag, now, opts.IfMatch)

	case !opts.Overwrite:
		// Create-only.
		res, err = s.db.ExecContext(ctx, `
			INSERT INTO blobs (key, data, content_type, etag, uploaded_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (key) DO NOTHING
		`, key, data, opts.ContentType, etag, now)

	default:
		res, err = s.db.ExecContext(ctx, `
			INSERT INTO blobs (key, data, content_type, etag, uploaded_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (key) DO UPDATE
			SET data = EXCLUDED.data,
			    content_type = EXCLUDED.content_type,
			    etag = EXCLUDED.etag,
			    uploaded_at = EXCLUDED.uploaded_at
		`, key, data, opts.ContentType, etag, now)
	}
	if err != nil {
		return blob.Object{}, err
	}

	n, _ := res.RowsAffected()
	if n == 0 {
		return blob.Object{}, blob.ErrPreconditionFailed
	}

	return blob.Object{
		Key:        key,
		URL:        "postgres://blobs/" + key,
		Size:       int64(len(data)),
		ETag:       etag,
		UploadedAt: now,
	}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, blob.Object, error) {
	var (
		data       []byte
		etag       string
		uploadedAt time.Time
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT data, etag, uploaded_at
		FROM blobs
		WHERE key = $1
	`, key).Scan(&data, &etag, &uploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, blob.Object{}, blob.ErrNotFound
	}
	if err != nil {
		return nil, blob.Object{}, err
	}

	return data, blob.Object{
		Key:        key,
		URL:        "postgres://blobs/" + key,
		Size:       int64(len(data)),
		ETag:       etag,
		UploadedAt: uploadedAt,
	}, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]blob.Object, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, length(data), etag, uploaded_at
		FROM blobs
		WHERE key LIKE $1 || '%'
		ORDER BY uploaded_at DESC
	`, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]blob.Object, 0)
	for rows.Next() {
		var o blob.Object
		if err := rows.Scan(&o.Key, &o.Size, &o.ETag, &o.UploadedAt); err != nil {
			return nil, err
		}
		o.URL = "postgres://blobs/" + o.Key
		out = append(out, o)
	}
	return out, rows.Err()
}
