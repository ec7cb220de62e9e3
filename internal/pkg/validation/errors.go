package validation

import "errors"

var ErrInvalidExpiry = errors.New("card expiry must be MM/YY")
