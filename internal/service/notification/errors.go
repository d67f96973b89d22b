package notification

import (
	"fmt"

	"github.com/Alijeyrad/clinic_ledger/internal/domain"
)

var (
	ErrNotificationNotFound = fmt.Errorf("notification not found: %w", domain.ErrNotFound)
	ErrInvalidMilestone     = fmt.Errorf("%w: milestone size must be positive", domain.ErrValidation)
)
