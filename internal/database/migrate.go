package database

import (
	"database/sql"
	"fmt"
	"time"

	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// The row types below only describe the schema for AutoMigrate; queries go
// through database/sql in the repository package.  Foreign keys are
// RESTRICT so that every cascade has to be spelled out by the repositories.

type userRow struct {
	ID                    string    `gorm:"primaryKey;type:varchar(36)"`
	Name                  string    `gorm:"type:varchar(60);not null"`
	Email                 string    `gorm:"type:varchar(255);not null;uniqueIndex:uq_users_email"`
	PasswordHash          string    `gorm:"type:varchar(255);not null"`
	Address               string    `gorm:"type:varchar(400);not null;default:''"`
	Role                  string    `gorm:"type:varchar(20);not null;index:idx_users_role"`
	RefreshTokenHash      *string   `gorm:"type:varchar(64);index:idx_users_refresh_token_hash"`
	RefreshTokenExpiresAt *time.Time
	CreatedAt             time.Time `gorm:"not null;index:idx_users_created_at"`
}

func (userRow) TableName() string { return "users" }

type storeRow struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	Name      string    `gorm:"type:varchar(60);not null;index:idx_stores_name"`
	Email     string    `gorm:"type:varchar(255);not null;uniqueIndex:uq_stores_email"`
	Address   string    `gorm:"type:varchar(400);not null"`
	OwnerID   string    `gorm:"type:varchar(36);not null;uniqueIndex:uq_stores_owner_id"`
	CreatedAt time.Time `gorm:"not null"`
	Owner     userRow   `gorm:"foreignKey:OwnerID;references:ID;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT"`
}

func (storeRow) TableName() string { return "stores" }

type ratingRow struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	Value     int       `gorm:"column:rating;not null;check:chk_ratings_rating,rating >= 1 AND rating <= 5"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:uq_ratings_user_store,priority:1"`
	StoreID   string    `gorm:"type:varchar(36);not null;uniqueIndex:uq_ratings_user_store,priority:2;index:idx_ratings_store_id"`
	CreatedAt time.Time `gorm:"not null"`
	User      userRow   `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT"`
	Store     storeRow  `gorm:"foreignKey:StoreID;references:ID;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT"`
}

func (ratingRow) TableName() string { return "ratings" }

// Migrate creates or updates the users, stores and ratings tables on db.
// The gorm handle wraps the existing pool and is not closed here.
func Migrate(db *sql.DB, driver string) error {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = &sqlite.Dialector{Conn: db}
	case DriverMySQL, "":
		dialector = gormmysql.New(gormmysql.Config{Conn: db})
	default:
		return fmt.Errorf("unsupported driver %q", driver)
	}
	gdb, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return fmt.Errorf("open migrator: %w", err)
	}
	if err := gdb.AutoMigrate(&userRow{}, &storeRow{}, &ratingRow{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
