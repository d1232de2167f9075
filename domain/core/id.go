package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Use UUID v7 for time-ordered, sortable IDs
	// Falls back to v4 if v7 is not available (for compatibility)
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	TestID    ID
	UserID    ID
	VariantID ID
	EventID   ID
)

// String conversions for domain IDs
func (id TestID) String() string    { return ID(id).String() }
func (id UserID) String() string    { return ID(id).String() }
func (id VariantID) String() string { return ID(id).String() }
func (id EventID) String() string   { return ID(id).String() }

// IsEmpty checks for domain IDs
func (id TestID) IsEmpty() bool    { return ID(id).IsEmpty() }
func (id UserID) IsEmpty() bool    { return ID(id).IsEmpty() }
func (id VariantID) IsEmpty() bool { return ID(id).IsEmpty() }

// ParseTestID parses a string into TestID
func ParseTestID(s string) (TestID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("test ID cannot be empty")
	}
	return TestID(s), nil
}

// ParseUserID parses a string into UserID
func ParseUserID(s string) (UserID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("user ID cannot be empty")
	}
	return UserID(s), nil
}

// ParseVariantID parses a string into VariantID
func ParseVariantID(s string) (VariantID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("variant ID cannot be empty")
	}
	return VariantID(s), nil
}
