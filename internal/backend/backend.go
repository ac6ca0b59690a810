// Package backend builds the persistence and event plumbing the ledger
// services run on, selected by configuration.
package backend

import (
	"fintrack/internal/services"
)

type Type string

const (
	SQLite   Type = "sqlite"
	Postgres Type = "postgres"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case SQLite, Postgres:
		return true
	}
	return false
}

// Result is what the services are wired from. Publisher is nil when AMQP is
// disabled or unreachable at startup.
type Result struct {
	Type       Type
	Repository services.Repository
	Publisher  services.EventPublisher
	Cleanup    func() error
}
