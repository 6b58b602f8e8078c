package records

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/verident/registry/pkg/common/database"
	"github.com/verident/registry/pkg/common/models"
	"gorm.io/gorm"
)

var (
	ErrRecordNotFound   = errors.New("record not found")
	ErrSSNAlreadyExists = errors.New("ssn already registered")
)

type Repository struct {
	conn *database.Connector
}

func NewRepository(conn *database.Connector) *Repository {
	return &Repository{conn: conn}
}

type RecordModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name             string    `gorm:"not null"`
	DateOfDeath      time.Time `gorm:"not null"`
	SSN              string    `gorm:"uniqueIndex;not null"`
	Status           string    `gorm:"index;default:pending"`
	DocumentVerified bool
	LastUpdated      time.Time `gorm:"index"`
	MedicalNotes     string
	VerifiedBy       string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (RecordModel) TableName() string {
	return "records"
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&RecordModel{})
}

type CreateRecordInput struct {
	Name             string
	DateOfDeath      time.Time
	SSN              string
	Status           string
	DocumentVerified bool
	LastUpdated      time.Time
	MedicalNotes     string
	VerifiedBy       string
}

func (r *Repository) Create(ctx context.Context, input CreateRecordInput) (models.Record, error) {
	db, err := r.conn.DB()
	if err != nil {
		return models.Record{}, err
	}

	var existing int64
	if err := db.WithContext(ctx).Model(&RecordModel{}).Where("ssn = ?", input.SSN).Count(&existing).Error; err != nil {
		return models.Record{}, err
	}
	if existing > 0 {
		return models.Record{}, ErrSSNAlreadyExists
	}

	record := RecordModel{
		ID:               uuid.New(),
		Name:             input.Name,
		DateOfDeath:      input.DateOfDeath,
		SSN:              input.SSN,
		Status:           input.Status,
		DocumentVerified: input.DocumentVerified,
		LastUpdated:      input.LastUpdated,
		MedicalNotes:     input.MedicalNotes,
		VerifiedBy:       input.VerifiedBy,
		CreatedAt:        time.Now().UTC(),
		UpdatedAt:        time.Now().UTC(),
	}

	if err := db.WithContext(ctx).Create(&record).Error; err != nil {
		// The unique index is the backstop for racing creates.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.Record{}, ErrSSNAlreadyExists
		}
		return models.Record{}, err
	}

	return mapRecordModel(record), nil
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (models.Record, error) {
	db, err := r.conn.DB()
	if err != nil {
		return models.Record{}, err
	}

	var record RecordModel
	err = db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Record{}, ErrRecordNotFound
	}
	if err != nil {
		return models.Record{}, err
	}
	return mapRecordModel(record), nil
}

func (r *Repository) List(ctx context.Context) ([]models.Record, error) {
	db, err := r.conn.DB()
	if err != nil {
		return nil, err
	}

	var rows []RecordModel
	if err := db.WithContext(ctx).Order("last_updated DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]models.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapRecordModel(row))
	}
	return out, nil
}

// Update applies the column map and returns the post-update record. The
// caller is responsible for always including last_updated in the map.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (models.Record, error) {
	db, err := r.conn.DB()
	if err != nil {
		return models.Record{}, err
	}

	result := db.WithContext(ctx).Model(&RecordModel{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return models.Record{}, ErrSSNAlreadyExists
		}
		return models.Record{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.Record{}, ErrRecordNotFound
	}

	var record RecordModel
	if err := db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return models.Record{}, err
	}
	return mapRecordModel(record), nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	db, err := r.conn.DB()
	if err != nil {
		return err
	}

	result := db.WithContext(ctx).Where("id = ?", id).Delete(&RecordModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Counts runs four independent count queries. The counts may be momentarily
// inconsistent under concurrent writes; no transaction is taken.
func (r *Repository) Counts(ctx context.Context) (models.RecordStats, error) {
	db, err := r.conn.DB()
	if err != nil {
		return models.RecordStats{}, err
	}

	var stats models.RecordStats
	if err := db.WithContext(ctx).Model(&RecordModel{}).Count(&stats.Total).Error; err != nil {
		return models.RecordStats{}, err
	}
	for status, dst := range map[string]*int64{
		models.StatusPending:   &stats.Pending,
		models.StatusVerified:  &stats.Verified,
		models.StatusProcessed: &stats.Processed,
	} {
		if err := db.WithContext(ctx).Model(&RecordModel{}).Where("status = ?", status).Count(dst).Error; err != nil {
			return models.RecordStats{}, err
		}
	}
	return stats, nil
}

func mapRecordModel(record RecordModel) models.Record {
	return models.Record{
		ID:               record.ID,
		Name:             record.Name,
		DateOfDeath:      record.DateOfDeath,
		SSN:              record.SSN,
		Status:           record.Status,
		DocumentVerified: record.DocumentVerified,
		LastUpdated:      record.LastUpdated,
		MedicalNotes:     record.MedicalNotes,
		VerifiedBy:       record.VerifiedBy,
		CreatedAt:        record.CreatedAt,
		UpdatedAt:        record.UpdatedAt,
	}
}
