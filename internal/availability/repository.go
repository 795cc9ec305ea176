package availability

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository contains all DB interactions needed by the availability service.
type Repository interface {
	GetRule(ctx context.Context, providerID uuid.UUID, dayOfWeek int) (*Rule, error)
	ListRules(ctx context.Context, providerID uuid.UUID) ([]Rule, error)
	UpsertRule(ctx context.Context, r Rule) (*Rule, error)

	ListExceptions(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]Exception, error)
	CreateException(ctx context.Context, ex Exception) (*Exception, error)
}
