package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jqliu/bondflow/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrEmptySlice   = errors.New("slice cannot be empty")
	ErrInvalidBond  = errors.New("invalid bond")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateBonds validates a slice of bonds.
func validateBonds(bonds []model.Bond) error {
	if bonds == nil {
		return fmt.Errorf("%w: bonds", ErrNilParameter)
	}
	if len(bonds) == 0 {
		return fmt.Errorf("%w: bonds", ErrEmptySlice)
	}

	for i, bond := range bonds {
		if err := validateBond(&bond); err != nil {
			return fmt.Errorf("bond at index %d: %w", i, err)
		}
	}
	return nil
}

// validateBond validates a single bond.
func validateBond(bond *model.Bond) error {
	if bond == nil {
		return fmt.Errorf("%w: bond", ErrNilParameter)
	}
	if bond.ISIN == "" && bond.Code == "" {
		return fmt.Errorf("%w: missing both ISIN and code", ErrInvalidBond)
	}
	if bond.Issuer == "" {
		return fmt.Errorf("%w: missing issuer", ErrInvalidBond)
	}
	return nil
}
