package normalizer

import "errors"

var (
	errInvalidAmount   = errors.New("is not a valid amount")
	errAmbiguousAmount = errors.New("has ambiguous decimal separator")
	errNegativeCost    = errors.New("converts to negative cost")
)
