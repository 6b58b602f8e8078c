package audit

import (
	"context"
	"time"

	"github.com/verident/registry/pkg/common/database"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Entry is one appended audit fact: who did what to which entity.
type Entry struct {
	Actor    string
	Action   string
	Entity   string
	EntityID string
	Payload  map[string]interface{}
}

type EntryModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Actor     string `gorm:"index"`
	Action    string `gorm:"index"`
	Entity    string
	EntityID  string            `gorm:"index"`
	Payload   datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt time.Time
}

func (EntryModel) TableName() string {
	return "audit_log"
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&EntryModel{})
}

type Repository struct {
	conn *database.Connector
}

func NewRepository(conn *database.Connector) *Repository {
	return &Repository{conn: conn}
}

func (r *Repository) Append(ctx context.Context, entry Entry) error {
	db, err := r.conn.DB()
	if err != nil {
		return err
	}

	row := EntryModel{
		Actor:     entry.Actor,
		Action:    entry.Action,
		Entity:    entry.Entity,
		EntityID:  entry.EntityID,
		Payload:   datatypes.JSONMap(entry.Payload),
		CreatedAt: time.Now().UTC(),
	}
	return db.WithContext(ctx).Create(&row).Error
}
