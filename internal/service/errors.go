package service

import "errors"

var (
	ErrPortfolioUnavailable = errors.New("portfolio definition unavailable")
	ErrStorageNotConfigured = errors.New("cloud storage not configured")
)
