package errors

import "errors"

var ErrInvalidAnalyticsRequest = errors.New("invalid analytics request")
