package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DBConfig конфигурация подключения к БД
type DBConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DedupDB обертка для работы с базой данных дедупликации.
// Хранит три связанные таблицы: канонические события, кластеры слияния
// и карту происхождения (lineage) от исходных записей к каноническим.
type DedupDB struct {
	conn *sql.DB
}

// NewDedupDB создает новое подключение к базе данных дедупликации
// и применяет миграции
func NewDedupDB(dbPath string) (*DedupDB, error) {
	config := DBConfig{}

	// Для in-memory SQLite требуется ровно одно соединение, иначе каждое
	// новое соединение получает пустую БД без таблиц
	if isInMemoryDB(dbPath) {
		config.MaxOpenConns = 1
		config.MaxIdleConns = 1
	}

	return NewDedupDBWithConfig(dbPath, config)
}

// NewDedupDBWithConfig создает подключение с явной конфигурацией пула
func NewDedupDBWithConfig(dbPath string, config DBConfig) (*DedupDB, error) {
	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open dedup database: %w", err)
	}

	// SQLite плохо переносит большое число одновременных соединений
	if config.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(config.MaxOpenConns)
	} else {
		conn.SetMaxOpenConns(10)
	}
	if config.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(config.MaxIdleConns)
	}
	if config.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping dedup database: %w", err)
	}

	// Внешние ключи в SQLite по умолчанию выключены
	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	db := &DedupDB{conn: conn}
	if err := db.Migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate dedup database: %w", err)
	}

	return db, nil
}

// isInMemoryDB определяет, что путь относится к in-memory SQLite
func isInMemoryDB(dbPath string) bool {
	if dbPath == ":memory:" {
		return true
	}
	return strings.HasPrefix(dbPath, "file:") && strings.Contains(dbPath, "mode=memory")
}

// Conn возвращает низкоуровневое соединение
func (db *DedupDB) Conn() *sql.DB {
	return db.conn
}

// Close закрывает соединение с базой данных
func (db *DedupDB) Close() error {
	return db.conn.Close()
}
