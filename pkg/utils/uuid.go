package utils

import (
	"strings"

	"github.com/google/uuid"

	"github.com/sangkips/bookshop-pos/pkg/apperror"
)

// ParseUUID parses a path or query parameter, reporting a 400 naming the parameter
func ParseUUID(value, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil, apperror.NewBadRequestError("Invalid " + name)
	}
	return id, nil
}

// ParseOptionalUUID returns nil for an empty value
func ParseOptionalUUID(value, name string) (*uuid.UUID, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	id, err := ParseUUID(value, name)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
