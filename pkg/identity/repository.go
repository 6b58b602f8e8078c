package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/verident/registry/pkg/common/database"
	"github.com/verident/registry/pkg/common/models"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already registered")
)

type Repository struct {
	conn *database.Connector
}

func NewRepository(conn *database.Connector) *Repository {
	return &Repository{conn: conn}
}

// UserModel deliberately carries no unique index on username: the observed
// store never had one. Signup enforces the taken-username check itself.
type UserModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username     string    `gorm:"index"`
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (UserModel) TableName() string {
	return "users"
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&UserModel{})
}

type CreateUserInput struct {
	Username     string
	PasswordHash string
}

func (r *Repository) CreateUser(ctx context.Context, input CreateUserInput) (models.User, error) {
	db, err := r.conn.DB()
	if err != nil {
		return models.User{}, err
	}

	username := strings.TrimSpace(input.Username)

	var existing int64
	if err := db.WithContext(ctx).Model(&UserModel{}).Where("username = ?", username).Count(&existing).Error; err != nil {
		return models.User{}, err
	}
	if existing > 0 {
		return models.User{}, ErrUsernameTaken
	}

	user := UserModel{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: input.PasswordHash,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return models.User{}, err
	}

	return mapUserModel(user), nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	var user UserModel
	if err := r.findByUsername(ctx, username, &user); err != nil {
		return models.User{}, err
	}
	return mapUserModel(user), nil
}

func (r *Repository) GetPasswordHash(ctx context.Context, username string) (string, error) {
	var user UserModel
	if err := r.findByUsername(ctx, username, &user); err != nil {
		return "", err
	}
	return user.PasswordHash, nil
}

func (r *Repository) findByUsername(ctx context.Context, username string, dst *UserModel) error {
	db, err := r.conn.DB()
	if err != nil {
		return err
	}

	err = db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(dst).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}

func mapUserModel(user UserModel) models.User {
	return models.User{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
