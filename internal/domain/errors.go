package domain

import "errors"

var (
	ErrThemeNotFound = errors.New("theme not found")
	ErrNoRankingData = errors.New("no ranking data")
)
