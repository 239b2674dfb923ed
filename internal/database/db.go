package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Options selects the driver and connection parameters.  For sqlite, Name
// is the file path or a full "file:" DSN.
type Options struct {
	Driver string
	User   string
	Pass   string
	Host   string
	Port   string
	Name   string
}

// Open connects to the configured database and verifies the connection.
func Open(o Options) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch o.Driver {
	case DriverMySQL, "":
		db, err = sql.Open("mysql", mysqlDSN(o))
		if err != nil {
			return nil, err
		}
		// Pool settings
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(30 * time.Minute)
	case DriverSQLite:
		db, err = sql.Open("sqlite3", sqliteDSN(o.Name))
		if err != nil {
			return nil, err
		}
		// sqlite allows one writer; a single connection also keeps an
		// in-memory database alive and shared.
		db.SetMaxOpenConns(1)
	default:
		return nil, fmt.Errorf("unsupported driver %q", o.Driver)
	}

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func mysqlDSN(o Options) string {
	auth := o.User
	if o.Pass != "" {
		auth = fmt.Sprintf("%s:%s", o.User, o.Pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, o.Host, o.Port, o.Name)
}

func sqliteDSN(name string) string {
	if strings.HasPrefix(name, "file:") {
		return name
	}
	return "file:" + name + "?_foreign_keys=1&_busy_timeout=5000"
}
