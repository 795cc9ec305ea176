package policy

import (
	"context"
	"errors"
)

var ErrPolicyNotFound = errors.New("clinic policy not found")

// Repository reads and writes the singleton clinic policy row.
type Repository interface {
	// Get returns ErrPolicyNotFound when no row exists; callers that need
	// a usable policy go through Store.Current, which substitutes defaults.
	Get(ctx context.Context) (*ClinicPolicy, error)
	Upsert(ctx context.Context, p ClinicPolicy) (*ClinicPolicy, error)
}
