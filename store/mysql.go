package store

import (
	"context"
	"database/sql"
	"fmt"

	"erc7677-proxy/models"
)

const createRecordsTable = `CREATE TABLE IF NOT EXISTS sponsorship_records (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	method VARCHAR(64) NOT NULL,
	chain_id BIGINT UNSIGNED NOT NULL,
	entry_point CHAR(42) NOT NULL,
	entry_point_version VARCHAR(8) NOT NULL,
	sender CHAR(42) NOT NULL,
	policy_id VARCHAR(128) NULL,
	outcome VARCHAR(32) NOT NULL,
	created_at DATETIME(6) NOT NULL,
	INDEX idx_sender (sender),
	INDEX idx_chain_created (chain_id, created_at)
)`

const insertRecord = `INSERT INTO sponsorship_records
	(method, chain_id, entry_point, entry_point_version, sender, policy_id, outcome, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// MySQLStore 写入 sponsorship_records 表
type MySQLStore struct {
	db     execer
	closer func() error
}

// NewMySQLStore 表不存在时自动创建
func NewMySQLStore(ctx context.Context, db *sql.DB) (*MySQLStore, error) {
	s := &MySQLStore{db: db, closer: db.Close}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MySQLStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createRecordsTable); err != nil {
		return fmt.Errorf("failed to create sponsorship_records: %w", err)
	}
	return nil
}

func (s *MySQLStore) Record(ctx context.Context, rec models.SponsorshipRecord) error {
	var policyID sql.NullString
	if rec.PolicyID != "" {
		policyID = sql.NullString{String: rec.PolicyID, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, insertRecord,
		rec.Method,
		rec.ChainID,
		rec.EntryPoint,
		rec.EntryPointVersion,
		rec.Sender,
		policyID,
		rec.Outcome,
		rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sponsorship record: %w", err)
	}
	return nil
}

func (s *MySQLStore) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}
