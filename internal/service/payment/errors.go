package payment

import (
	"fmt"

	"github.com/Alijeyrad/clinic_ledger/internal/domain"
)

var (
	ErrPatientRequired     = fmt.Errorf("%w: patient_id is required", domain.ErrValidation)
	ErrAmountRequired      = fmt.Errorf("%w: amount must be non-zero", domain.ErrValidation)
	ErrAmountPrecision     = fmt.Errorf("%w: amount has more than two decimal places", domain.ErrValidation)
	ErrPatientNotFound     = fmt.Errorf("patient not found: %w", domain.ErrNotFound)
	ErrTransactionNotFound = fmt.Errorf("transaction not found: %w", domain.ErrNotFound)
)
