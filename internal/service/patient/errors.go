package patient

import (
	"fmt"

	"github.com/Alijeyrad/clinic_ledger/internal/domain"
)

var (
	ErrPatientNotFound = fmt.Errorf("patient not found: %w", domain.ErrNotFound)
	ErrNameRequired    = fmt.Errorf("%w: name is required", domain.ErrValidation)
	ErrInvalidStatus   = fmt.Errorf("%w: invalid patient status", domain.ErrValidation)
	// ErrUnknownReference covers a disease or creator id that does not exist.
	ErrUnknownReference = fmt.Errorf("%w: disease or creator does not exist", domain.ErrValidation)
)
