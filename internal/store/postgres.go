package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"call-insights/internal/config"
)

// blobRow is one stored artifact in the blobs table.
type blobRow struct {
	bun.BaseModel `bun:"table:blobs,alias:b"`

	Key         string    `bun:"key,pk"`
	Data        []byte    `bun:"data,notnull"`
	ContentType string    `bun:"content_type"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// Postgres is a BlobStore backed by a Postgres blobs table via bun.
type Postgres struct {
	db *bun.DB
}

// ConnectDB opens the Postgres connection for the blob store.
func ConnectDB(cfg *config.DatabaseConfig) *sql.DB {
	return sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(cfg.URL+"?sslmode=disable"),
		pgdriver.WithPassword(cfg.Password),
	))
}

// NewPostgres wraps the connection with bun and ensures the blobs table.
func NewPostgres(ctx context.Context, sqldb *sql.DB, debug bool) (*Postgres, error) {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	if _, err := db.NewCreateTable().Model((*blobRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

// Close releases the underlying connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

func (p *Postgres) Put(ctx context.Context, key string, data []byte, contentType string) error {
	row := &blobRow{Key: key, Data: data, ContentType: contentType, UpdatedAt: time.Now()}
	_, err := p.db.NewInsert().
		Model(row).
		On("CONFLICT (key) DO UPDATE").
		Set("data = EXCLUDED.data").
		Set("content_type = EXCLUDED.content_type").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var row blobRow
	err := p.db.NewSelect().
		Model(&row).
		Where("key = ?", key).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.Data, nil
}

func (p *Postgres) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := p.db.NewSelect().
		Model((*blobRow)(nil)).
		Column("key").
		Where("key LIKE ?", prefix+"%").
		Order("key ASC").
		Scan(ctx, &keys)
	return keys, err
}

func (p *Postgres) Delete(ctx context.Context, keys ...string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	res, err := p.db.NewDelete().
		Model((*blobRow)(nil)).
		Where("key IN (?)", bun.In(keys)).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
