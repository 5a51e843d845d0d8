package config

import (
	"database/sql"

	_ "github.com/go-sql-driver/mysql"
)

// ConnectDB 打开 MySQL 连接并检查连通性
func ConnectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
