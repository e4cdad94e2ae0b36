package escalation

import (
	apperrors "github.com/spec-kit/ticket-escalation/pkg/util/errorutil"
)

// Sentinels matched with errors.Is; any DomainError with the same code matches.
var (
	ErrTargetNotFound         = apperrors.NewTargetNotFound("escalation target not found", nil)
	ErrConcurrentModification = apperrors.NewConcurrentModification(nil)
	ErrDependencyUnavailable  = apperrors.NewDependencyUnavailable("dependency", nil)
	ErrConfig                 = apperrors.NewConfigError("invalid escalation rule", nil)
)

func wrapUnavailable(dependency string, err error) error {
	return apperrors.NewDependencyUnavailable(dependency, err)
}
