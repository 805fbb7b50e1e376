package shop

import (
	"errors"
	"time"
)

const (
	StatusActive      = "active"
	StatusUninstalled = "uninstalled"
)

var ErrNotFound = errors.New("shop not found")

type Shop struct {
	ID          string
	Domain      string
	AccessToken string
	Scope       string
	Plan        string
	Status      string
	InstalledAt time.Time
}

// Installed reports whether the shop still has a usable offline token.
func (s *Shop) Installed() bool {
	return s != nil && s.Status == StatusActive && s.AccessToken != ""
}
