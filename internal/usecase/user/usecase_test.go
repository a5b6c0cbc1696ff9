package user

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domain "user-registry/internal/domain/user"
	apperrors "user-registry/pkg/errors"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, id string, p domain.Patch) (*domain.User, error) {
	args := m.Called(ctx, id, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func setupTestUsecase(t *testing.T) (*Usecase, *MockRepository) {
	mockRepo := new(MockRepository)
	uc := New(mockRepo, zaptest.NewLogger(t))
	return uc, mockRepo
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

const (
	anaID = "507f1f77bcf86cd799439011"
	bobID = "507f191e810c19729de860ea"
)

func ana() *domain.User {
	return &domain.User{ID: anaID, Name: "Ana", Age: 30, Email: "ana@x.com"}
}

// ==================== CREATE USER TESTS ====================

func TestCreateUser_NormalizesFields(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("GetByEmail", ctx, "ana@x.com").Return(nil, nil)
	mockRepo.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool {
		return u.ID == "" && u.Name == "Ana" && u.Age == 30 && u.Email == "ana@x.com"
	})).Return(ana(), nil)

	resp, err := uc.CreateUser(ctx, CreateUserRequest{
		Name:  strPtr(" Ana "),
		Age:   intPtr(30),
		Email: strPtr("ANA@X.com"),
	})

	require.NoError(t, err)
	assert.Equal(t, User{ID: anaID, Name: "Ana", Age: 30, Email: "ana@x.com"}, resp.User)
	mockRepo.AssertExpectations(t)
}

func TestCreateUser_AgeBoundaries(t *testing.T) {
	for _, age := range []int{0, 120} {
		uc, mockRepo := setupTestUsecase(t)
		ctx := context.Background()

		mockRepo.On("GetByEmail", ctx, "ana@x.com").Return(nil, nil)
		mockRepo.On("Create", ctx, mock.Anything).Return(&domain.User{ID: anaID, Name: "Ana", Age: age, Email: "ana@x.com"}, nil)

		resp, err := uc.CreateUser(ctx, CreateUserRequest{Name: strPtr("Ana"), Age: intPtr(age), Email: strPtr("ana@x.com")})
		require.NoError(t, err, "age %d", age)
		assert.Equal(t, age, resp.User.Age)
	}
}

func TestCreateUser_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		req    CreateUserRequest
		detail string
	}{
		{
			name:   "negative age",
			req:    CreateUserRequest{Name: strPtr("Ana"), Age: intPtr(-1), Email: strPtr("ana@x.com")},
			detail: "age must be an integer between 0 and 120",
		},
		{
			name:   "age above range",
			req:    CreateUserRequest{Name: strPtr("Ana"), Age: intPtr(121), Email: strPtr("ana@x.com")},
			detail: "age must be an integer between 0 and 120",
		},
		{
			name:   "missing age",
			req:    CreateUserRequest{Name: strPtr("Ana"), Email: strPtr("ana@x.com")},
			detail: "age must be an integer between 0 and 120",
		},
		{
			name:   "blank name",
			req:    CreateUserRequest{Name: strPtr("   "), Age: intPtr(30), Email: strPtr("ana@x.com")},
			detail: "name is required",
		},
		{
			name:   "missing name",
			req:    CreateUserRequest{Age: intPtr(30), Email: strPtr("ana@x.com")},
			detail: "name is required",
		},
		{
			name:   "blank email",
			req:    CreateUserRequest{Name: strPtr("Ana"), Age: intPtr(30), Email: strPtr(" \t")},
			detail: "email is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, mockRepo := setupTestUsecase(t)

			resp, err := uc.CreateUser(context.Background(), tt.req)

			assert.Nil(t, resp)
			var verr *apperrors.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Error(), tt.detail)
			mockRepo.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
			mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateUser_AggregatesAllViolations(t *testing.T) {
	uc, _ := setupTestUsecase(t)

	_, err := uc.CreateUser(context.Background(), CreateUserRequest{})

	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ElementsMatch(t, []string{"name is required", "age must be an integer between 0 and 120", "email is required"}, verr.Fields)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("GetByEmail", ctx, "ana@x.com").Return(ana(), nil)

	resp, err := uc.CreateUser(ctx, CreateUserRequest{Name: strPtr("Other"), Age: intPtr(22), Email: strPtr("  Ana@X.COM ")})

	assert.Nil(t, resp)
	var cerr *apperrors.ConflictError
	assert.ErrorAs(t, err, &cerr)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateUser_DuplicateRejectedByStore(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("GetByEmail", ctx, "ana@x.com").Return(nil, nil)
	mockRepo.On("Create", ctx, mock.Anything).Return(nil, domain.ErrDuplicateEmail)

	_, err := uc.CreateUser(ctx, CreateUserRequest{Name: strPtr("Ana"), Age: intPtr(30), Email: strPtr("ana@x.com")})

	var cerr *apperrors.ConflictError
	assert.ErrorAs(t, err, &cerr)
}

func TestCreateUser_RepositoryErrors(t *testing.T) {
	t.Run("email lookup fails", func(t *testing.T) {
		uc, mockRepo := setupTestUsecase(t)
		ctx := context.Background()
		mockRepo.On("GetByEmail", ctx, "ana@x.com").Return(nil, errors.New("connection refused"))

		_, err := uc.CreateUser(ctx, CreateUserRequest{Name: strPtr("Ana"), Age: intPtr(30), Email: strPtr("ana@x.com")})

		var perr *apperrors.PersistenceError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "connection refused", perr.Detail())
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("insert fails", func(t *testing.T) {
		uc, mockRepo := setupTestUsecase(t)
		ctx := context.Background()
		mockRepo.On("GetByEmail", ctx, "ana@x.com").Return(nil, nil)
		mockRepo.On("Create", ctx, mock.Anything).Return(nil, errors.New("disk full"))

		_, err := uc.CreateUser(ctx, CreateUserRequest{Name: strPtr("Ana"), Age: intPtr(30), Email: strPtr("ana@x.com")})

		var perr *apperrors.PersistenceError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "disk full", perr.Detail())
	})
}

// ==================== UPDATE USER TESTS ====================

func TestUpdateUser_InvalidID(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)

	_, err := uc.UpdateUser(context.Background(), UpdateUserRequest{ID: "123", Name: strPtr("Bia")})

	var ierr *apperrors.InvalidIdentifierError
	assert.ErrorAs(t, err, &ierr)
	mockRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestUpdateUser_NotFound(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, anaID).Return(nil, nil)

	_, err := uc.UpdateUser(ctx, UpdateUserRequest{ID: anaID, Name: strPtr("Bia")})

	var nerr *apperrors.NotFoundError
	assert.ErrorAs(t, err, &nerr)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateUser_FiltersInvalidFields(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, anaID).Return(ana(), nil)
	mockRepo.On("Update", ctx, anaID, domain.Patch{Name: strPtr("Bia")}).Return(&domain.User{ID: anaID, Name: "Bia", Age: 30, Email: "ana@x.com"}, nil)

	resp, err := uc.UpdateUser(ctx, UpdateUserRequest{
		ID:    anaID,
		Name:  strPtr("  Bia "),
		Age:   intPtr(150),
		Email: strPtr("   "),
	})

	require.NoError(t, err)
	assert.Equal(t, 30, resp.User.Age)
	assert.Equal(t, "Bia", resp.User.Name)
	mockRepo.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestUpdateUser_EmptyPatchIsNoop(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, anaID).Return(ana(), nil)
	mockRepo.On("Update", ctx, anaID, domain.Patch{}).Return(ana(), nil)

	resp, err := uc.UpdateUser(ctx, UpdateUserRequest{ID: anaID})

	require.NoError(t, err)
	assert.Equal(t, toDTO(ana()), resp.User)
	mockRepo.AssertExpectations(t)
}

func TestUpdateUser_OwnEmailIsNotConflict(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, anaID).Return(ana(), nil)
	mockRepo.On("GetByEmail", ctx, "ana@x.com").Return(ana(), nil)
	mockRepo.On("Update", ctx, anaID, domain.Patch{Email: strPtr("ana@x.com")}).Return(ana(), nil)

	resp, err := uc.UpdateUser(ctx, UpdateUserRequest{ID: anaID, Email: strPtr(" ANA@x.com")})

	require.NoError(t, err)
	assert.Equal(t, "ana@x.com", resp.User.Email)
	mockRepo.AssertExpectations(t)
}

func TestUpdateUser_EmailOwnedByOther(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, anaID).Return(ana(), nil)
	mockRepo.On("GetByEmail", ctx, "dup@x.com").Return(&domain.User{ID: bobID, Name: "Bob", Age: 40, Email: "dup@x.com"}, nil)

	_, err := uc.UpdateUser(ctx, UpdateUserRequest{ID: anaID, Email: strPtr("dup@x.com")})

	var cerr *apperrors.ConflictError
	assert.ErrorAs(t, err, &cerr)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateUser_StoreErrors(t *testing.T) {
	tests := []struct {
		name    string
		repoErr error
		target  any
	}{
		{"vanished", domain.ErrNotFound, new(*apperrors.NotFoundError)},
		{"duplicate", domain.ErrDuplicateEmail, new(*apperrors.ConflictError)},
		{"failure", errors.New("timeout"), new(*apperrors.PersistenceError)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, mockRepo := setupTestUsecase(t)
			ctx := context.Background()

			mockRepo.On("GetByID", ctx, anaID).Return(ana(), nil)
			mockRepo.On("GetByEmail", ctx, "new@x.com").Return(nil, nil)
			mockRepo.On("Update", ctx, anaID, mock.Anything).Return(nil, tt.repoErr)

			_, err := uc.UpdateUser(ctx, UpdateUserRequest{ID: anaID, Email: strPtr("new@x.com")})
			assert.ErrorAs(t, err, tt.target)
		})
	}
}

// ==================== DELETE USER TESTS ====================

func TestDeleteUser_Success(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, anaID).Return(ana(), nil)
	mockRepo.On("Delete", ctx, anaID).Return(nil)

	resp, err := uc.DeleteUser(ctx, DeleteUserRequest{ID: anaID})

	require.NoError(t, err)
	assert.Equal(t, anaID, resp.ID)
	mockRepo.AssertExpectations(t)
}

func TestDeleteUser_NotFoundTwice(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, anaID).Return(nil, nil)

	for i := 0; i < 2; i++ {
		_, err := uc.DeleteUser(ctx, DeleteUserRequest{ID: anaID})
		var nerr *apperrors.NotFoundError
		assert.ErrorAs(t, err, &nerr)
	}
	mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteUser_InvalidID(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)

	_, err := uc.DeleteUser(context.Background(), DeleteUserRequest{ID: "zzz"})

	var ierr *apperrors.InvalidIdentifierError
	assert.ErrorAs(t, err, &ierr)
	mockRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestDeleteUser_StoreFailure(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, anaID).Return(ana(), nil)
	mockRepo.On("Delete", ctx, anaID).Return(errors.New("boom"))

	_, err := uc.DeleteUser(ctx, DeleteUserRequest{ID: anaID})

	var perr *apperrors.PersistenceError
	assert.ErrorAs(t, err, &perr)
}

// ==================== READ TESTS ====================

func TestListUsers(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("List", ctx).Return([]domain.User{*ana(), {ID: bobID, Name: "Bob", Age: 40, Email: "bob@x.com"}}, nil)

	resp, err := uc.ListUsers(ctx)

	require.NoError(t, err)
	require.Len(t, resp.Users, 2)
	assert.Equal(t, "Ana", resp.Users[0].Name)
	assert.Equal(t, bobID, resp.Users[1].ID)
}

func TestListUsers_Empty(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("List", ctx).Return([]domain.User{}, nil)

	resp, err := uc.ListUsers(ctx)

	require.NoError(t, err)
	assert.NotNil(t, resp.Users)
	assert.Empty(t, resp.Users)
}

func TestListUsers_Failure(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("List", ctx).Return(nil, errors.New("boom"))

	_, err := uc.ListUsers(ctx)

	var perr *apperrors.PersistenceError
	assert.ErrorAs(t, err, &perr)
}

func TestGetUser(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, anaID).Return(ana(), nil)
	mockRepo.On("GetByID", ctx, bobID).Return(nil, nil)

	resp, err := uc.GetUser(ctx, GetUserRequest{ID: anaID})
	require.NoError(t, err)
	assert.Equal(t, "ana@x.com", resp.User.Email)

	_, err = uc.GetUser(ctx, GetUserRequest{ID: bobID})
	var nerr *apperrors.NotFoundError
	assert.ErrorAs(t, err, &nerr)
}
