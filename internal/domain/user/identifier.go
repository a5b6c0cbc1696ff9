package user

import "go.mongodb.org/mongo-driver/bson/primitive"

// NewID returns a fresh identifier in ObjectID hex form.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// IsValidID reports whether id is a well-formed ObjectID hex string.
func IsValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}
