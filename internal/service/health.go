package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

type HealthRepository interface {
	Ping(ctx context.Context) error
}

// HealthCheck is a dependency the service cannot work without.
type HealthCheck struct {
	Name string
	Repo HealthRepository
}

type HealthService struct {
	log    *zap.Logger
	checks []HealthCheck
}

func NewHealthService(log *zap.Logger, checks ...HealthCheck) *HealthService {
	return &HealthService{
		log:    log,
		checks: checks,
	}
}

// IsOK pings every dependency and reports all of the unreachable ones.
func (s *HealthService) IsOK(ctx context.Context) (bool, error) {
	s.log.Debug("HealthService.IsOK()")

	var errs []error

	for _, check := range s.checks {
		if err := check.Repo.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s is unreachable: %w", check.Name, err))
		}
	}

	if len(errs) > 0 {
		return false, errors.Join(errs...)
	}

	return true, nil
}
