// Package pgstore 把商品记录写入 PostgreSQL,以商品ID为键覆盖旧数据
package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/LouYuanbo1/productreviews/internal/config"
	"github.com/LouYuanbo1/productreviews/internal/domain/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const tableName = "product_reviews"

type Store interface {
	EnsureSchema(ctx context.Context) error
	// Save 返回受影响的行数
	Save(ctx context.Context, records []model.ProductRecord) (int, error)
	Close()
}

// db pgxpool.Pool 中用到的部分
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type store struct {
	db        db
	table     string
	schema    string
	batchSize int
	now       func() time.Time
	closeFn   func()
	logger    *zap.Logger
}

func InitStore(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("解析数据库DSN失败: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}
	return newStore(pool, cfg.Schema, cfg.BatchSize, pool.Close, logger), nil
}

func newStore(db db, schema string, batchSize int, closeFn func(), logger *zap.Logger) *store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	if closeFn == nil {
		closeFn = func() {}
	}
	return &store{
		db:        db,
		table:     pgx.Identifier{schema, tableName}.Sanitize(),
		schema:    pgx.Identifier{schema}.Sanitize(),
		batchSize: batchSize,
		now:       time.Now,
		closeFn:   closeFn,
		logger:    logger.Named("pgstore"),
	}
}

func (s *store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `CREATE SCHEMA IF NOT EXISTS `+s.schema); err != nil {
		return fmt.Errorf("创建schema失败: %w", err)
	}
	ddl := `CREATE TABLE IF NOT EXISTS ` + s.table + ` (
		product_id    TEXT PRIMARY KEY,
		product_title TEXT NOT NULL,
		rating        TEXT,
		total_reviews INTEGER NOT NULL DEFAULT 0,
		price         TEXT NOT NULL,
		top_reviews   TEXT NOT NULL,
		url           TEXT,
		scraped_at    TIMESTAMPTZ NOT NULL
	)`
	if _, err := s.db.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("创建数据表失败: %w", err)
	}
	return nil
}

// Save 分批 upsert,没有商品ID的记录使用与索引文档相同的哈希ID
func (s *store) Save(ctx context.Context, records []model.ProductRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	upsert := `INSERT INTO ` + s.table + `
		(product_id, product_title, rating, total_reviews, price, top_reviews, url, scraped_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (product_id) DO UPDATE SET
			product_title = EXCLUDED.product_title,
			rating        = EXCLUDED.rating,
			total_reviews = EXCLUDED.total_reviews,
			price         = EXCLUDED.price,
			top_reviews   = EXCLUDED.top_reviews,
			url           = EXCLUDED.url,
			scraped_at    = EXCLUDED.scraped_at`

	scrapedAt := s.now().UTC()
	total := 0
	for i := 0; i < len(records); i += s.batchSize {
		j := min(i+s.batchSize, len(records))
		b := &pgx.Batch{}
		for _, rec := range records[i:j] {
			id := model.NewProductDoc(rec, scrapedAt).GetID()
			b.Queue(upsert, id, rec.Title, rec.Rating, rec.TotalReviews, rec.Price, rec.ReviewSample, rec.URL, scrapedAt)
		}
		n, err := s.flush(ctx, b)
		total += n
		if err != nil {
			return total, err
		}
	}
	s.logger.Info("已写入数据库", zap.Int("rows", total))
	return total, nil
}

func (s *store) flush(ctx context.Context, b *pgx.Batch) (int, error) {
	br := s.db.SendBatch(ctx, b)
	affected := 0
	for range b.Len() {
		tag, err := br.Exec()
		if err != nil {
			_ = br.Close()
			return affected, fmt.Errorf("写入数据库失败: %w", err)
		}
		affected += int(tag.RowsAffected())
	}
	if err := br.Close(); err != nil {
		return affected, fmt.Errorf("写入数据库失败: %w", err)
	}
	return affected, nil
}

func (s *store) Close() {
	s.closeFn()
}
