package internal

// -- Request data -----------------------------------------------------------------------------------------------------

// CreateEventRequest carries the data needed to create a new event
type CreateEventRequest struct {
	Name        string            `json:"name"`
	Date        string            `json:"date"`
	Time        string            `json:"time"`
	Place       string            `json:"place"`
	Pin         string            `json:"pin"`
	Description string            `json:"description"`
	Items       []CreateItemInput `json:"items"`
}

// CreateItemInput is a single item sent along with an event creation request
// A missing ID gets generated on creation; claimants always start out empty
type CreateItemInput struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// EventPatch is a partial update of an event's detail fields
//
// A field that is left out of the JSON body stays untouched; a field that is present
// is applied even when it holds the empty string. The pointer types are what makes
// the two cases distinguishable after decoding
type EventPatch struct {
	Name        *string `json:"name"`
	Date        *string `json:"date"`
	Time        *string `json:"time"`
	Place       *string `json:"place"`
	Pin         *string `json:"pin"`
	Description *string `json:"description"`
}
