// Package store 赞助决策的审计记录
package store

import (
	"context"
	"fmt"

	"erc7677-proxy/config"
	"erc7677-proxy/models"
)

// Store 保存赞助记录
type Store interface {
	Record(ctx context.Context, rec models.SponsorshipRecord) error
	Close() error
}

// NoopStore 丢弃所有记录
type NoopStore struct{}

func (NoopStore) Record(context.Context, models.SponsorshipRecord) error { return nil }
func (NoopStore) Close() error                                          { return nil }

// New 按 cfg.StoreDriver 打开存储，未配置时返回 NoopStore
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StoreDriver {
	case "":
		return NoopStore{}, nil
	case config.StoreMySQL:
		db, err := config.ConnectDB(cfg.MySQLDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mysql: %w", err)
		}
		s, err := NewMySQLStore(ctx, db)
		if err != nil {
			db.Close()
			return nil, err
		}
		return s, nil
	case config.StoreMongo:
		client, err := config.GetMongoClient(ctx, cfg.MongoURI)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}
		return NewMongoStore(client, cfg.MongoDatabase), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
