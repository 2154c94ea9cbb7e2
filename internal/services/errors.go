package services

import (
  "errors"
)

// Sentinels the handler layer maps onto HTTP statuses.
var (
  ErrInvalidArgument = errors.New("invalid argument")
  ErrNotFound        = errors.New("not found")
  ErrForbidden       = errors.New("forbidden")
)
