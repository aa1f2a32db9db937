package postgres

import (
	"gorm.io/gorm"

	"github.com/docukeep/session-guard/internal/ports"
)

type Repositories struct {
	Profiles ports.ProfileStore
	Attempts ports.PasscodeAttemptRepository
	Outbox   ports.OutboxRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Profiles: &profileStore{db: db},
		Attempts: &passcodeAttemptRepository{db: db},
		Outbox:   &outboxRepository{db: db},
	}
}
