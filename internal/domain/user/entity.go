package user

import "errors"

// Age bounds accepted for a user, inclusive.
const (
	MinAge = 0
	MaxAge = 120
)

var (
	// ErrNotFound is returned by repositories when no user matches the given id.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned by repositories when the storage unique
	// index on email rejects a write.
	ErrDuplicateEmail = errors.New("email already registered")
)

// User represents a user entity in the system.
type User struct {
	ID    string // ID is the ObjectID hex assigned at creation
	Name  string // Name is the trimmed display name
	Age   int    // Age in years, within [MinAge, MaxAge]
	Email string // Email is the normalized, unique address
}

// Patch holds the fields of a partial update. Nil fields are left untouched.
type Patch struct {
	Name  *string
	Age   *int
	Email *string
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Age == nil && p.Email == nil
}
