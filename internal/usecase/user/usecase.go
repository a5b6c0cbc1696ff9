package user

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	domain "user-registry/internal/domain/user"
	apperrors "user-registry/pkg/errors"
	"user-registry/pkg/logger"
)

// Repository defines the interface for user data access operations.
// It abstracts the data layer, allowing different implementations
// (e.g., PostgreSQL, MongoDB) to be used interchangeably.
//
// GetByID and GetByEmail return (nil, nil) when nothing matches. Update and
// Delete return domain.ErrNotFound for a missing id; Create and Update return
// domain.ErrDuplicateEmail when the storage unique index rejects the write.
type Repository interface {
	List(ctx context.Context) ([]domain.User, error)                             // All users
	GetByID(ctx context.Context, id string) (*domain.User, error)                // Retrieve user by ID
	GetByEmail(ctx context.Context, email string) (*domain.User, error)          // Retrieve user by normalized email
	Create(ctx context.Context, u *domain.User) (*domain.User, error)            // Insert and return with assigned ID
	Update(ctx context.Context, id string, p domain.Patch) (*domain.User, error) // Write patch fields, return resulting user
	Delete(ctx context.Context, id string) error                                 // Remove permanently
}

// Usecase implements the business logic for user management operations.
// It provides a clean separation between the transport layer and data layer.
type Usecase struct {
	repo     Repository          // Repository for data access
	log      *zap.Logger         // Logger for structured logging
	validate *validator.Validate // Validator for request validation
}

// New creates a new instance of Usecase with the provided repository and logger.
func New(r Repository, log *zap.Logger) *Usecase {
	return &Usecase{repo: r, log: log, validate: newValidator()}
}

var _ UserUsecase = (*Usecase)(nil)

// ListUsers returns every registered user.
func (uc *Usecase) ListUsers(ctx context.Context) (*ListUsersResponse, error) {
	log := logger.WithContext(ctx, uc.log)

	domainUsers, err := uc.repo.List(ctx)
	if err != nil {
		log.Error("failed to list users", zap.Error(err))
		return nil, apperrors.NewPersistenceError("failed to list users", err)
	}

	users := make([]User, len(domainUsers))
	for i := range domainUsers {
		users[i] = toDTO(&domainUsers[i])
	}

	return &ListUsersResponse{Users: users}, nil
}

// GetUser retrieves a single user by ID.
func (uc *Usecase) GetUser(ctx context.Context, in GetUserRequest) (*GetUserResponse, error) {
	log := logger.WithContext(ctx, uc.log)

	u, err := uc.findExisting(ctx, log, in.ID)
	if err != nil {
		return nil, err
	}
	return &GetUserResponse{User: toDTO(u)}, nil
}

// CreateUser creates a new user after validating the request and checking email uniqueness.
func (uc *Usecase) CreateUser(ctx context.Context, in CreateUserRequest) (*CreateUserResponse, error) {
	log := logger.WithContext(ctx, uc.log)

	input := normalizeCreate(in)
	log.Info("creating user", zap.String("name", input.Name), zap.String("email", input.Email))

	if err := uc.validateCreate(input); err != nil {
		log.Warn("validate failed", zap.Error(err))
		return nil, err
	}

	if err := uc.ensureEmailAvailable(ctx, log, input.Email, ""); err != nil {
		return nil, err
	}

	created, err := uc.repo.Create(ctx, &domain.User{
		Name:  input.Name,
		Age:   *input.Age,
		Email: input.Email,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			log.Warn("email taken at insert", zap.String("email", input.Email))
			return nil, emailConflict()
		}
		log.Error("failed to create user", zap.Error(err))
		return nil, apperrors.NewPersistenceError("failed to create user", err)
	}

	log.Info("user created", zap.String("id", created.ID))
	return &CreateUserResponse{User: toDTO(created)}, nil
}

// UpdateUser writes the valid supplied fields of the request to an existing user.
// Invalid supplied fields are ignored. An update that ends up with no fields
// returns the user unchanged.
func (uc *Usecase) UpdateUser(ctx context.Context, in UpdateUserRequest) (*UpdateUserResponse, error) {
	log := logger.WithContext(ctx, uc.log).With(zap.String("id", in.ID))

	if _, err := uc.findExisting(ctx, log, in.ID); err != nil {
		return nil, err
	}

	patch, dropped := uc.buildPatch(in)
	if len(dropped) > 0 {
		log.Debug("ignoring invalid update fields", zap.Strings("fields", dropped))
	}

	if patch.Email != nil {
		if err := uc.ensureEmailAvailable(ctx, log, *patch.Email, in.ID); err != nil {
			return nil, err
		}
	}

	updated, err := uc.repo.Update(ctx, in.ID, patch)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			log.Warn("user vanished before update")
			return nil, userNotFound()
		case errors.Is(err, domain.ErrDuplicateEmail):
			log.Warn("email taken at update")
			return nil, emailConflict()
		}
		log.Error("failed to update user", zap.Error(err))
		return nil, apperrors.NewPersistenceError("failed to update user", err)
	}

	log.Info("user updated")
	return &UpdateUserResponse{User: toDTO(updated)}, nil
}

// DeleteUser permanently removes an existing user.
func (uc *Usecase) DeleteUser(ctx context.Context, in DeleteUserRequest) (*DeleteUserResponse, error) {
	log := logger.WithContext(ctx, uc.log).With(zap.String("id", in.ID))

	if _, err := uc.findExisting(ctx, log, in.ID); err != nil {
		return nil, err
	}

	if err := uc.repo.Delete(ctx, in.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn("user vanished before delete")
			return nil, userNotFound()
		}
		log.Error("failed to delete user", zap.Error(err))
		return nil, apperrors.NewPersistenceError("failed to delete user", err)
	}

	log.Info("user deleted")
	return &DeleteUserResponse{ID: in.ID}, nil
}

// findExisting validates id and loads the user it names.
func (uc *Usecase) findExisting(ctx context.Context, log *zap.Logger, id string) (*domain.User, error) {
	if !domain.IsValidID(id) {
		log.Warn("invalid user id", zap.String("id", id))
		return nil, apperrors.NewInvalidIdentifierError(id)
	}

	u, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		log.Error("failed to get user", zap.String("id", id), zap.Error(err))
		return nil, apperrors.NewPersistenceError("failed to get user", err)
	}
	if u == nil {
		log.Warn("user not found", zap.String("id", id))
		return nil, userNotFound()
	}
	return u, nil
}

// ensureEmailAvailable fails with a conflict when email belongs to a user
// other than selfID. An empty selfID means any owner is a conflict.
func (uc *Usecase) ensureEmailAvailable(ctx context.Context, log *zap.Logger, email, selfID string) error {
	existing, err := uc.repo.GetByEmail(ctx, email)
	if err != nil {
		log.Error("failed to check existing email", zap.String("email", email), zap.Error(err))
		return apperrors.NewPersistenceError("failed to validate email uniqueness", err)
	}
	if existing != nil && existing.ID != selfID {
		log.Warn("email already exists", zap.String("email", email), zap.String("existing_id", existing.ID))
		return emailConflict()
	}
	return nil
}

func userNotFound() error {
	return apperrors.NewNotFoundError("user", "user not found")
}

func emailConflict() error {
	return apperrors.NewConflictError("user", "email already registered")
}
