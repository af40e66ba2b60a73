// Package repos contains the repository interfaces needed in Mitbringsel
// It exists to prevent circular dependencies between mitbringsel and the repo implementations
package repos

import (
	"fmt"

	"github.com/derWhity/mitbringsel/internal/models"
)

var (
	// ErrEntityNotExisting is fired by a repository when an entity that is requested does not exist
	ErrEntityNotExisting = fmt.Errorf("cannot update: Entity does not exist")
)

// EventRepo defines a repository that handles storing and loading events
//
// An event is persisted as one single record - every write replaces the full
// current state of the event (last writer wins, no merging)
type EventRepo interface {
	// GetByID returns the event with the given ID - including its host key
	GetByID(id string) (*models.Event, error)
	// Upsert writes the full current state of the event, creating the record if it
	// does not exist yet. The host key and the creation timestamp are written once
	// and never touched again
	Upsert(ev *models.Event) error
}
