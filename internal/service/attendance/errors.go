package attendance

import (
	"fmt"

	"github.com/Alijeyrad/clinic_ledger/internal/domain"
)

var (
	ErrPatientRequired = fmt.Errorf("%w: patient_id is required", domain.ErrValidation)
	ErrDateRequired    = fmt.Errorf("%w: date is required", domain.ErrValidation)
	ErrInvalidDate     = domain.ErrInvalidDay
	ErrNegativeAmount  = fmt.Errorf("%w: disease_amount must not be negative", domain.ErrValidation)
	ErrRecordsRequired = fmt.Errorf("%w: records must not be empty", domain.ErrValidation)
	ErrPatientNotFound = fmt.Errorf("patient not found: %w", domain.ErrNotFound)
)
