package storefront

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/nexora-dev/storefront/internal/config"
	"github.com/nexora-dev/storefront/internal/errors"
	"github.com/nexora-dev/storefront/pkg/session"
)

// openedStorage is a token backend plus the connection it owns.
type openedStorage struct {
	storage session.Storage
	db      *sql.DB
}

func (o openedStorage) close() error {
	err := o.storage.Close()
	if o.db != nil {
		if cerr := o.db.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// openStorage builds the backend named by cfg.Kind. SQL backends get their
// table created; Redis and PostgreSQL are pinged before use.
func openStorage(ctx context.Context, cfg StorageConfig) (openedStorage, error) {
	switch cfg.Kind {
	case config.StoreMemory:
		return openedStorage{storage: session.NewMemoryStorage()}, nil

	case config.StoreFile:
		path := cfg.Path
		if path == "" {
			p, err := session.DefaultFilePath()
			if err != nil {
				return openedStorage{}, errors.New("E220").Wrap(err)
			}
			path = p
		}
		return openedStorage{storage: session.NewFileStorage(path)}, nil

	case config.StoreSQLite:
		path := cfg.Path
		if path == "" {
			path = filepath.Join(config.DefaultDir(), "storefront.db")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return openedStorage{}, errors.New("E220").Wrap(err)
		}
		return openSQL(ctx, "sqlite", path, session.DialectSQLite, cfg.Table)

	case config.StorePostgres:
		if cfg.DSN == "" {
			return openedStorage{}, errors.New("E104").WithField("tokenStore.dsn")
		}
		return openSQL(ctx, "postgres", cfg.DSN, session.DialectPostgreSQL, cfg.Table)

	case config.StoreRedis:
		if cfg.URL == "" {
			return openedStorage{}, errors.New("E104").WithField("tokenStore.url")
		}
		opts := []session.RedisOption{session.WithRedisTTL(cfg.TTL)}
		if cfg.Prefix != "" {
			opts = append(opts, session.WithRedisPrefix(cfg.Prefix))
		}
		r, err := session.OpenRedis(ctx, cfg.URL, opts...)
		if err != nil {
			return openedStorage{}, errors.New("E220").Wrap(err)
		}
		return openedStorage{storage: r}, nil
	}
	return openedStorage{}, errors.New("E101").
		WithField("tokenStore.kind").
		WithDetail(fmt.Sprintf("%q is not a supported token store", cfg.Kind))
}

func openSQL(ctx context.Context, driver, dsn string, dialect session.SQLDialect, table string) (openedStorage, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return openedStorage{}, errors.New("E220").Wrap(err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return openedStorage{}, errors.New("E220").Wrap(err)
	}

	s := session.NewSQLStorage(db,
		session.WithSQLDialect(dialect),
		session.WithSQLTableName(table),
	)
	if err := s.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return openedStorage{}, errors.New("E221").Wrap(err)
	}
	return openedStorage{storage: s, db: db}, nil
}
