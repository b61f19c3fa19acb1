package discount

import (
	"errors"
	"fmt"
)

var (
	ErrDiscountNotFound = errors.New("discount not found")
	ErrDiscountInvalid  = errors.New("discount invalid")
	ErrCodeExists       = errors.New("discount code already exists")
)

// InvalidError names the specific eligibility rule a code failed.
type InvalidError struct {
	Code   string
	Reason Reason
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("discount %s invalid: %s", e.Code, e.Reason)
}

func (e *InvalidError) Unwrap() error {
	return ErrDiscountInvalid
}
