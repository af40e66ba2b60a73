package models

import "time"

// A Claimant records a guest's commitment to bring an item to an event
type Claimant struct {
	// The display name the guest entered - this is also the identity used when unclaiming
	Name string `json:"name"`
	// An optional note, e.g. "bringing 2 bags"
	Notes string `json:"notes"`
}

// An Item is something to be brought to or done for an event
type Item struct {
	// Opaque identifier of the item - unique within the owning event
	ID string `json:"id"`
	// Name of the item
	Name string `json:"name"`
	// The guests that have claimed this item, in the order the claims came in
	Claimants []Claimant `json:"claimants"`
	// Set only on items guests have added themselves
	IsCustom bool `json:"isCustom,omitempty"`
}

// An Event describes a planned gathering together with the items needed for it
// The whole event including all items and claimants is stored as one record
type Event struct {
	// Public identifier of the event - this is what gets shared with the guests
	ID string `json:"id"`
	// Secret key granting host rights. Whoever presents this key is the host - the
	// guest-facing view never contains it
	HostKey string `json:"hostKey,omitempty"`
	// Name of the event
	Name string `json:"name"`
	// When does the event take place?
	Date string `json:"date"`
	Time string `json:"time"`
	// Where does the event take place?
	Place string `json:"place"`
	// An optional PIN the host wants to hand out alongside the location
	Pin string `json:"pin"`
	// A little description of the event
	Description string `json:"description"`
	// The items the host has put up
	Items []Item `json:"items"`
	// The items guests have added themselves
	CustomItems []Item `json:"customItems"`
	// Creation date of the database entry
	CreatedAt time.Time `json:"-"`
	// Date of the last update of the database entry
	UpdatedAt time.Time `json:"-"`
}

// Stripped returns a copy of the event with the host key removed - the view handed
// out to guests
func (e *Event) Stripped() *Event {
	ev := *e
	ev.HostKey = ""
	return &ev
}

// ItemByID returns a pointer to the item with the given ID - custom selects whether
// the guest-added list or the host's list is searched
func (e *Event) ItemByID(id string, custom bool) *Item {
	list := e.Items
	if custom {
		list = e.CustomItems
	}
	for i := range list {
		if list[i].ID == id {
			return &list[i]
		}
	}
	return nil
}
