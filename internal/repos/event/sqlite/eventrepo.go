// Package sqlite provides an event repository that stores its data inside a SQLite database
package sqlite

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/derWhity/mitbringsel/internal/log"
	"github.com/derWhity/mitbringsel/internal/models"
	"github.com/derWhity/mitbringsel/internal/repos"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// The business fields of an event are serialized into one JSON payload column;
// only id and hostKey live in proper columns since they are the only lookup fields
type eventPayload struct {
	Name        string        `json:"name"`
	Date        string        `json:"date"`
	Time        string        `json:"time"`
	Place       string        `json:"place"`
	Pin         string        `json:"pin"`
	Description string        `json:"description"`
	Items       []models.Item `json:"items"`
	CustomItems []models.Item `json:"customItems"`
}

// Raw database row for the Events table
type eventRow struct {
	ID        string    `db:"id"`
	HostKey   string    `db:"hostKey"`
	Payload   string    `db:"payload"`
	CreatedAt time.Time `db:"createdAt"`
	UpdatedAt time.Time `db:"updatedAt"`
}

// EventRepo is a repository that stores its data inside a SQLite database
type EventRepo struct {
	db     *sqlx.DB
	logger *logrus.Entry
}

// New creates a new event repository instance with the given database and logger
func New(db *sqlx.DB, logger *logrus.Entry) *EventRepo {
	return &EventRepo{
		db:     db,
		logger: logger,
	}
}

// GetByID returns the event with the given ID - including its host key
func (r *EventRepo) GetByID(id string) (*models.Event, error) {
	r.logger.WithField(log.FldEvent, id).Debug("Loading event")
	query := `SELECT id, hostKey, payload, createdAt, updatedAt FROM Events WHERE id = ?`
	var row eventRow
	if err := r.db.Get(&row, query, id); err != nil {
		if err == sql.ErrNoRows {
			// Nothing found
			return nil, repos.ErrEntityNotExisting
		}
		return nil, err
	}
	var pl eventPayload
	if err := json.Unmarshal([]byte(row.Payload), &pl); err != nil {
		return nil, errors.Wrapf(err, "GetByID: Corrupt payload for event '%s'", id)
	}
	ev := models.Event{
		ID:          row.ID,
		HostKey:     row.HostKey,
		Name:        pl.Name,
		Date:        pl.Date,
		Time:        pl.Time,
		Place:       pl.Place,
		Pin:         pl.Pin,
		Description: pl.Description,
		Items:       pl.Items,
		CustomItems: pl.CustomItems,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if ev.Items == nil {
		ev.Items = []models.Item{}
	}
	if ev.CustomItems == nil {
		ev.CustomItems = []models.Item{}
	}
	return &ev, nil
}

// Upsert writes the full current state of the event, creating the record if it does
// not exist yet. On an existing record only the payload and the update timestamp are
// replaced - host key and creation timestamp stay as they were first written
func (r *EventRepo) Upsert(ev *models.Event) error {
	r.logger.WithField(log.FldEvent, ev.ID).Debug("Writing event")
	pl := eventPayload{
		Name:        ev.Name,
		Date:        ev.Date,
		Time:        ev.Time,
		Place:       ev.Place,
		Pin:         ev.Pin,
		Description: ev.Description,
		Items:       ev.Items,
		CustomItems: ev.CustomItems,
	}
	raw, err := json.Marshal(&pl)
	if err != nil {
		return errors.Wrapf(err, "Upsert: Failed to serialize event '%s'", ev.ID)
	}
	query := `INSERT INTO Events(id, hostKey, payload, createdAt, updatedAt)
        VALUES(?, ?, ?, datetime('now'), datetime('now'))
        ON CONFLICT(id) DO UPDATE SET payload = excluded.payload, updatedAt = datetime('now')`
	if _, err := r.db.Exec(query, ev.ID, ev.HostKey, string(raw)); err != nil {
		return err
	}
	// Setting the date like this should be enough for now
	ev.UpdatedAt = time.Now()
	return nil
}
