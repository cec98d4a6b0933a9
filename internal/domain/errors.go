package domain

import "errors"

var (
	// ErrCollectionNotFound is returned when a collection is not found
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrTokenNotFound is returned when a token is not found
	ErrTokenNotFound = errors.New("token not found")

	// ErrTradeNotFound is returned when a trade aggregate is not found
	ErrTradeNotFound = errors.New("trade not found")

	// ErrInvalidPeriod is returned for an aggregation period the upstream
	// source does not support
	ErrInvalidPeriod = errors.New("invalid aggregation period")
)
