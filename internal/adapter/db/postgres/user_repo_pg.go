package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-registry/internal/domain/user"
)

// UserRepoPG implements the Repository interface using GORM. It runs on
// PostgreSQL in production and on SQLite for local development and tests.
type UserRepoPG struct {
	db  *gorm.DB    // GORM database connection
	log *zap.Logger // Structured logger for database operations
}

// NewUserRepoPG creates a new instance of UserRepoPG.
func NewUserRepoPG(db *gorm.DB, log *zap.Logger) *UserRepoPG {
	return &UserRepoPG{db: db, log: log}
}

// UserSchema represents the database schema for the users table.
type UserSchema struct {
	ID    string `gorm:"primaryKey;size:24"`            // ObjectID hex assigned in BeforeCreate
	Name  string `gorm:"not null"`                      // User's trimmed name (required)
	Age   int    `gorm:"not null"`                      // Age in [0, 120]
	Email string `gorm:"not null;uniqueIndex;size:320"` // Normalized email, unique across users
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

// BeforeCreate assigns the identifier of a new row.
func (s *UserSchema) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = user.NewID()
	}
	return nil
}

func (s *UserSchema) toDomain() *user.User {
	return &user.User{
		ID:    s.ID,
		Name:  s.Name,
		Age:   s.Age,
		Email: s.Email,
	}
}

// Migrate creates or updates the users table and its unique email index.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&UserSchema{})
}

// List retrieves every user ordered by creation.
func (r *UserRepoPG) List(ctx context.Context) ([]user.User, error) {
	var models []UserSchema
	if err := r.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		r.log.Error("failed to list users from db", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]user.User, len(models))
	for i := range models {
		users[i] = *models[i].toDomain()
	}
	return users, nil
}

// GetByID retrieves a user from the database by their unique ID.
func (r *UserRepoPG) GetByID(ctx context.Context, id string) (*user.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("user not found", zap.String("id", id))
			return nil, nil
		}
		r.log.Error("failed to get user from db", zap.Error(err), zap.String("id", id))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return model.toDomain(), nil
}

// GetByEmail retrieves a user from the database by their email address.
func (r *UserRepoPG) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("user not found by email", zap.String("email", email))
			return nil, nil
		}
		r.log.Error("failed to get user by email from db", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return model.toDomain(), nil
}

// Create inserts a new user into the database.
func (r *UserRepoPG) Create(ctx context.Context, u *user.User) (*user.User, error) {
	if u == nil {
		return nil, errors.New("user cannot be nil")
	}

	model := UserSchema{
		Name:  u.Name,
		Age:   u.Age,
		Email: u.Email,
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, user.ErrDuplicateEmail
		}
		r.log.Error("failed to create user in db", zap.Error(err), zap.String("email", u.Email))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	r.log.Info("user created in db", zap.String("id", model.ID))
	return model.toDomain(), nil
}

// Update writes the patch fields of an existing user and returns the stored row.
func (r *UserRepoPG) Update(ctx context.Context, id string, p user.Patch) (*user.User, error) {
	if !p.IsEmpty() {
		if err := r.applyPatch(ctx, id, p); err != nil {
			return nil, err
		}
	}

	u, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, user.ErrNotFound
	}

	r.log.Info("user updated in db", zap.String("id", id))
	return u, nil
}

func (r *UserRepoPG) applyPatch(ctx context.Context, id string, p user.Patch) error {
	fields := make(map[string]any, 3)
	if p.Name != nil {
		fields["name"] = *p.Name
	}
	if p.Age != nil {
		fields["age"] = *p.Age
	}
	if p.Email != nil {
		fields["email"] = *p.Email
	}

	err := r.db.WithContext(ctx).Model(&UserSchema{}).Where("id = ?", id).Updates(fields).Error
	if err != nil {
		if isDuplicateKey(err) {
			return user.ErrDuplicateEmail
		}
		r.log.Error("failed to update user in db", zap.Error(err), zap.String("id", id))
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// Delete removes a user from the database by ID.
func (r *UserRepoPG) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&UserSchema{}, "id = ?", id)
	if res.Error != nil {
		r.log.Error("failed to delete user in db", zap.Error(res.Error), zap.String("id", id))
		return fmt.Errorf("failed to delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return user.ErrNotFound
	}

	r.log.Info("user deleted in db", zap.String("id", id))
	return nil
}

// isDuplicateKey reports whether err is a unique-constraint violation. The
// string checks cover dialects that do not translate errors for GORM.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
