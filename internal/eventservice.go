package internal

import (
	"fmt"
	"net/http"

	"github.com/derWhity/mitbringsel/internal/idgen"
	"github.com/derWhity/mitbringsel/internal/log"
	"github.com/derWhity/mitbringsel/internal/models"
	"github.com/derWhity/mitbringsel/internal/repos"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// EventService provides service functions for working with events and their items
//
// Host-only operations take the host key presented by the caller and compare it against
// the one stored with the event - possession of the correct key is the only thing that
// makes a caller the host. Guest operations need no credentials at all; guests act
// under whatever display name they supply.
//
// Every operation is one read-modify-write cycle against the repo. Two concurrent
// mutations of the same event can race and the later write wins - at the handful of
// guests a single event sees, this is an accepted tradeoff, not something to lock around
type EventService interface {
	// Create creates a new event and generates its ID and host key
	Create(ctx context.Context, req *CreateEventRequest) (*models.Event, error)
	// Get returns the event with the given ID - the full record if the correct host key
	// is presented, the stripped guest view otherwise
	Get(ctx context.Context, id string, hostKey string) (*models.Event, error)
	// UpdateDetails applies a partial update to the event's detail fields (host only)
	UpdateDetails(ctx context.Context, id string, hostKey string, patch *EventPatch) (*models.Event, error)
	// AddItem appends a new host-defined item to the event (host only)
	AddItem(ctx context.Context, id string, hostKey string, name string) (*models.Event, error)
	// RemoveItem deletes the item with the given ID from the event (host only)
	RemoveItem(ctx context.Context, id string, hostKey string, itemID string, isCustom bool) (*models.Event, error)
	// RemoveClaimant removes all claimants with the given name from an item (host only)
	RemoveClaimant(ctx context.Context, id string, hostKey string, itemID string, isCustom bool, claimant string) (*models.Event, error)
	// Claim adds a claimant to an item on behalf of a guest
	Claim(ctx context.Context, id string, itemID string, isCustom bool, name string, notes string) (*models.Event, error)
	// Unclaim removes the first claimant with the given name from an item
	Unclaim(ctx context.Context, id string, itemID string, isCustom bool, name string) (*models.Event, error)
	// AddCustomItem appends a guest-added item with one initial claimant
	AddCustomItem(ctx context.Context, id string, name string, claimedBy string, notes string) (*models.Event, error)
}

// -- EventService implementation --------------------------------------------------------------------------------------

// EventService implementation
type eventService struct {
	repo   repos.EventRepo
	logger *logrus.Entry
}

// NewEventService creates a new event service instance
func NewEventService(repo repos.EventRepo, logger *logrus.Entry) EventService {
	return &eventService{
		repo:   repo,
		logger: logger,
	}
}

// missingField builds the validation error for an empty required field
func missingField(name string) error {
	return MakeErrorWithData(
		http.StatusBadRequest,
		ErrCodeRequiredFieldMissing,
		fmt.Sprintf("Required field '%s' is missing", name),
		map[string]string{
			"field": name,
		},
	)
}

// load fetches the event with the given ID and maps a repo miss to a not-found error
func (s *eventService) load(id string) (*models.Event, error) {
	ev, err := s.repo.GetByID(id)
	if err != nil {
		if err == repos.ErrEntityNotExisting {
			return nil, MakeError(http.StatusNotFound, ErrCodeEventNotFound,
				fmt.Sprintf("Event '%s' does not exist", id),
			)
		}
		return nil, MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError,
			fmt.Sprintf("Error while retrieving event '%s'", id), err,
		)
	}
	return ev, nil
}

// loadForHost fetches the event and checks the presented host key against the stored one
func (s *eventService) loadForHost(id, hostKey string) (*models.Event, error) {
	ev, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if hostKey == "" || hostKey != ev.HostKey {
		return nil, MakeError(http.StatusForbidden, ErrCodeHostKeyMismatch,
			"Host key missing or not valid for this event",
		)
	}
	return ev, nil
}

// persist writes the event back and wraps a failing write into an HTTP error
func (s *eventService) persist(ev *models.Event) error {
	if err := s.repo.Upsert(ev); err != nil {
		return MakeErrorWithData(http.StatusInternalServerError, ErrCodeRepoError,
			fmt.Sprintf("Error while storing event '%s'", ev.ID), err,
		)
	}
	return nil
}

// Create creates a new event and generates its ID and host key
func (s *eventService) Create(ctx context.Context, req *CreateEventRequest) (*models.Event, error) {
	required := []struct {
		field string
		value string
	}{
		{"name", req.Name},
		{"date", req.Date},
		{"time", req.Time},
		{"place", req.Place},
	}
	for _, f := range required {
		if f.value == "" {
			return nil, missingField(f.field)
		}
	}
	ev := &models.Event{
		ID:          idgen.New(),
		HostKey:     idgen.New(),
		Name:        req.Name,
		Date:        req.Date,
		Time:        req.Time,
		Place:       req.Place,
		Pin:         req.Pin,
		Description: req.Description,
		Items:       make([]models.Item, 0, len(req.Items)),
		CustomItems: []models.Item{},
	}
	for _, in := range req.Items {
		id := in.ID
		if id == "" {
			id = idgen.New()
		}
		ev.Items = append(ev.Items, models.Item{
			ID:        id,
			Name:      in.Name,
			Claimants: []models.Claimant{},
		})
	}
	s.logger.WithField(log.FldEvent, ev.ID).Info("Creating new event")
	if err := s.persist(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// Get returns the event with the given ID
func (s *eventService) Get(ctx context.Context, id string, hostKey string) (*models.Event, error) {
	ev, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if hostKey != "" && hostKey == ev.HostKey {
		return ev, nil
	}
	return ev.Stripped(), nil
}

// UpdateDetails applies a partial update to the event's detail fields
func (s *eventService) UpdateDetails(ctx context.Context, id string, hostKey string, patch *EventPatch) (*models.Event, error) {
	ev, err := s.loadForHost(id, hostKey)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		ev.Name = *patch.Name
	}
	if patch.Date != nil {
		ev.Date = *patch.Date
	}
	if patch.Time != nil {
		ev.Time = *patch.Time
	}
	if patch.Place != nil {
		ev.Place = *patch.Place
	}
	if patch.Pin != nil {
		ev.Pin = *patch.Pin
	}
	if patch.Description != nil {
		ev.Description = *patch.Description
	}
	if err := s.persist(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// AddItem appends a new host-defined item to the event
func (s *eventService) AddItem(ctx context.Context, id string, hostKey string, name string) (*models.Event, error) {
	ev, err := s.loadForHost(id, hostKey)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, missingField("name")
	}
	ev.Items = append(ev.Items, models.Item{
		ID:        idgen.New(),
		Name:      name,
		Claimants: []models.Claimant{},
	})
	if err := s.persist(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// RemoveItem deletes the item with the given ID from the event
// Removing an item that does not exist is not an error - the current state is returned
func (s *eventService) RemoveItem(ctx context.Context, id string, hostKey string, itemID string, isCustom bool) (*models.Event, error) {
	ev, err := s.loadForHost(id, hostKey)
	if err != nil {
		return nil, err
	}
	list := &ev.Items
	if isCustom {
		list = &ev.CustomItems
	}
	out := make([]models.Item, 0, len(*list))
	for _, it := range *list {
		if it.ID != itemID {
			out = append(out, it)
		}
	}
	*list = out
	s.logger.WithFields(logrus.Fields{log.FldEvent: id, log.FldItem: itemID}).Debug("Removing item")
	if err := s.persist(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// RemoveClaimant removes all claimants with the given name from an item
// The write is skipped entirely when the item does not exist
func (s *eventService) RemoveClaimant(ctx context.Context, id string, hostKey string, itemID string, isCustom bool, claimant string) (*models.Event, error) {
	ev, err := s.loadForHost(id, hostKey)
	if err != nil {
		return nil, err
	}
	if it := ev.ItemByID(itemID, isCustom); it != nil {
		out := make([]models.Claimant, 0, len(it.Claimants))
		for _, c := range it.Claimants {
			if c.Name != claimant {
				out = append(out, c)
			}
		}
		it.Claimants = out
		if err := s.persist(ev); err != nil {
			return nil, err
		}
	}
	return ev, nil
}

// Claim adds a claimant to an item on behalf of a guest
// The same name may claim the same item more than once - no de-duplication happens here
func (s *eventService) Claim(ctx context.Context, id string, itemID string, isCustom bool, name string, notes string) (*models.Event, error) {
	ev, err := s.load(id)
	if err != nil {
		return nil, err
	}
	it := ev.ItemByID(itemID, isCustom)
	if it == nil {
		return nil, MakeError(http.StatusNotFound, ErrCodeItemNotFound, "Item not found")
	}
	if name == "" {
		return nil, missingField("name")
	}
	it.Claimants = append(it.Claimants, models.Claimant{Name: name, Notes: notes})
	s.logger.WithFields(logrus.Fields{log.FldEvent: id, log.FldItem: itemID}).Debug("Item claimed")
	if err := s.persist(ev); err != nil {
		return nil, err
	}
	return ev.Stripped(), nil
}

// Unclaim removes the first claimant with the given name from an item
// A missing item or claimant is not an error; the write only happens when a claimant
// was actually removed
func (s *eventService) Unclaim(ctx context.Context, id string, itemID string, isCustom bool, name string) (*models.Event, error) {
	ev, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, missingField("name")
	}
	if it := ev.ItemByID(itemID, isCustom); it != nil {
		for i := range it.Claimants {
			if it.Claimants[i].Name == name {
				it.Claimants = append(it.Claimants[:i], it.Claimants[i+1:]...)
				if err := s.persist(ev); err != nil {
					return nil, err
				}
				break
			}
		}
	}
	return ev.Stripped(), nil
}

// AddCustomItem appends a guest-added item with one initial claimant
func (s *eventService) AddCustomItem(ctx context.Context, id string, name string, claimedBy string, notes string) (*models.Event, error) {
	ev, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, missingField("name")
	}
	if claimedBy == "" {
		return nil, missingField("claimedBy")
	}
	ev.CustomItems = append(ev.CustomItems, models.Item{
		ID:   idgen.New(),
		Name: name,
		Claimants: []models.Claimant{
			{Name: claimedBy, Notes: notes},
		},
		IsCustom: true,
	})
	s.logger.WithField(log.FldEvent, id).Debug("Custom item added")
	if err := s.persist(ev); err != nil {
		return nil, err
	}
	return ev.Stripped(), nil
}
