package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Dutta2005/Medi-Track/pkg/config"
	"github.com/Dutta2005/Medi-Track/pkg/db/models"
	"github.com/Dutta2005/Medi-Track/pkg/logger"
)

// Client owns the process-wide gorm handle.
type Client struct {
	conn *gorm.DB
}

// New opens the configured backend. Postgres goes through pgx with the simple
// protocol so it works behind PgBouncer; sqlite gets its schema from the
// models right away.
func New(ctx context.Context, cfg config.DBConfig, logg *logger.Logger) (*Client, error) {
	gcfg := gormConfig(newQueryLogger(logg, cfg.SlowQuery))

	if cfg.IsSQLite() {
		client, err := openSQLite(cfg.SQLitePath, gcfg)
		if err != nil {
			return nil, err
		}
		if err := client.AutoMigrate(); err != nil {
			return nil, errors.Join(err, client.Close())
		}
		if logg != nil {
			logg.Info(logg.WithField(ctx, "path", cfg.SQLitePath), "db.sqlite_ready")
		}
		return client, nil
	}

	if cfg.DSN == "" {
		return nil, errors.New("database DSN is required")
	}
	conn, err := gorm.Open(postgres.New(postgres.Config{DSN: cfg.DSN, PreferSimpleProtocol: true}), gcfg)
	if err != nil {
		return nil, fmt.Errorf("opening db connection: %w", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql db handle: %w", err)
	}
	tunePool(sqlDB, cfg)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, errors.Join(fmt.Errorf("pinging database: %w", err), sqlDB.Close())
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "max_open_conns", cfg.MaxOpenConns), "db.connected")
	}
	return &Client{conn: conn}, nil
}

// OpenSQLite opens path without a query logger. Tests use it with
// "file:<name>?mode=memory&cache=shared" DSNs.
func OpenSQLite(path string) (*Client, error) {
	return openSQLite(path, gormConfig(newQueryLogger(nil, 0)))
}

// openSQLite pins the pool to one connection: sqlite serializes writers and
// an in-memory database exists per connection otherwise.
func openSQLite(path string, gcfg *gorm.Config) (*Client, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	conn, err := gorm.Open(sqlite.Open(path), gcfg)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql db handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return &Client{conn: conn}, nil
}

func gormConfig(log gormlogger.Interface) *gorm.Config {
	return &gorm.Config{
		Logger:                 log,
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	}
}

// tunePool leaves database/sql defaults in place for zero values.
func tunePool(sqlDB *sql.DB, cfg config.DBConfig) {
	if n := cfg.MaxOpenConns; n > 0 {
		sqlDB.SetMaxOpenConns(n)
	}
	if n := cfg.MaxIdleConns; n > 0 {
		sqlDB.SetMaxIdleConns(n)
	}
	if d := cfg.ConnMaxLifetime; d > 0 {
		sqlDB.SetConnMaxLifetime(d)
	}
	if d := cfg.ConnMaxIdleTime; d > 0 {
		sqlDB.SetConnMaxIdleTime(d)
	}
}

// AutoMigrate creates or updates tables for every model.
func (c *Client) AutoMigrate() error {
	if err := c.conn.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto migrating models: %w", err)
	}
	return nil
}

func (c *Client) DB() *gorm.DB {
	return c.conn
}

func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (c *Client) Close() error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WithTx runs fn in a transaction committed only when fn returns nil.
func (c *Client) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return c.conn.WithContext(ctx).Transaction(fn)
}
