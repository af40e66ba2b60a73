package internal

import (
	"fmt"
	"net/http"

	"github.com/derWhity/mitbringsel/internal/models"
	"github.com/go-kit/kit/endpoint"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// EventEndpoints is a collection of endpoints for working with the event service
type EventEndpoints struct {
	Create         endpoint.Endpoint
	Get            endpoint.Endpoint
	Update         endpoint.Endpoint
	AddItem        endpoint.Endpoint
	RemoveItem     endpoint.Endpoint
	RemoveClaimant endpoint.Endpoint
	Claim          endpoint.Endpoint
	Unclaim        endpoint.Endpoint
	AddCustomItem  endpoint.Endpoint
}

// A request targeting a single event - the host key comes from the query string or
// the request body depending on the route
type eventRequest struct {
	ID      string
	HostKey string
}

// A partial event update made by the host
type updateEventRequest struct {
	eventRequest
	Patch *EventPatch
}

// A request for adding a new host-defined item
type addItemRequest struct {
	eventRequest
	Name string
}

// A request targeting a single item of an event
type itemRequest struct {
	eventRequest
	ItemID   string
	IsCustom bool
}

// A request for removing all claims a guest has made on one item
type removeClaimantRequest struct {
	itemRequest
	Claimant string
}

// A guest's claim on an item
type claimRequest struct {
	itemRequest
	Name  string
	Notes string
}

// A request for adding a guest-defined item including its first claim
type addCustomItemRequest struct {
	ID        string
	Name      string
	ClaimedBy string
	Notes     string
}

// The answer to a successful event creation - ID and host key are all the host needs,
// the rest can be fetched with them
type eventCreatedResponse struct {
	ID      string `json:"id"`
	HostKey string `json:"hostKey"`
}

// StatusCode makes the creation response answer with "201 Created"
func (eventCreatedResponse) StatusCode() int {
	return http.StatusCreated
}

// Wraps a full event that should be answered with "201 Created"
type itemCreatedResponse struct {
	*models.Event
}

// StatusCode makes the item creation response answer with "201 Created"
func (itemCreatedResponse) StatusCode() int {
	return http.StatusCreated
}

// MakeEventEndpoints builds the endpoints needed to communicate with the event service
func MakeEventEndpoints(s EventService, logger *logrus.Entry) EventEndpoints {
	return EventEndpoints{
		Create:         LogRequest("CreateEvent", logger)(makeCreateEventEndpoint(s)),
		Get:            LogRequest("GetEvent", logger)(makeGetEventEndpoint(s)),
		Update:         LogRequest("UpdateEvent", logger)(makeUpdateEventEndpoint(s)),
		AddItem:        LogRequest("AddItem", logger)(makeAddItemEndpoint(s)),
		RemoveItem:     LogRequest("RemoveItem", logger)(makeRemoveItemEndpoint(s)),
		RemoveClaimant: LogRequest("RemoveClaimant", logger)(makeRemoveClaimantEndpoint(s)),
		Claim:          LogRequest("ClaimItem", logger)(makeClaimEndpoint(s)),
		Unclaim:        LogRequest("UnclaimItem", logger)(makeUnclaimEndpoint(s)),
		AddCustomItem:  LogRequest("AddCustomItem", logger)(makeAddCustomItemEndpoint(s)),
	}
}

func makeCreateEventEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(*CreateEventRequest)
		if !ok {
			return nil, fmt.Errorf("illegal event creation request")
		}
		ev, err := s.Create(ctx, req)
		if err != nil {
			return nil, err
		}
		return eventCreatedResponse{ID: ev.ID, HostKey: ev.HostKey}, nil
	}
}

func makeGetEventEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(eventRequest)
		if !ok {
			return nil, fmt.Errorf("illegal event request")
		}
		return s.Get(ctx, req.ID, req.HostKey)
	}
}

func makeUpdateEventEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(updateEventRequest)
		if !ok {
			return nil, fmt.Errorf("illegal event update request")
		}
		return s.UpdateDetails(ctx, req.ID, req.HostKey, req.Patch)
	}
}

func makeAddItemEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(addItemRequest)
		if !ok {
			return nil, fmt.Errorf("illegal item request")
		}
		ev, err := s.AddItem(ctx, req.ID, req.HostKey, req.Name)
		if err != nil {
			return nil, err
		}
		return itemCreatedResponse{ev}, nil
	}
}

func makeRemoveItemEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(itemRequest)
		if !ok {
			return nil, fmt.Errorf("illegal item request")
		}
		return s.RemoveItem(ctx, req.ID, req.HostKey, req.ItemID, req.IsCustom)
	}
}

func makeRemoveClaimantEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(removeClaimantRequest)
		if !ok {
			return nil, fmt.Errorf("illegal claimant request")
		}
		return s.RemoveClaimant(ctx, req.ID, req.HostKey, req.ItemID, req.IsCustom, req.Claimant)
	}
}

func makeClaimEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(claimRequest)
		if !ok {
			return nil, fmt.Errorf("illegal claim request")
		}
		return s.Claim(ctx, req.ID, req.ItemID, req.IsCustom, req.Name, req.Notes)
	}
}

func makeUnclaimEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(claimRequest)
		if !ok {
			return nil, fmt.Errorf("illegal claim request")
		}
		return s.Unclaim(ctx, req.ID, req.ItemID, req.IsCustom, req.Name)
	}
}

func makeAddCustomItemEndpoint(s EventService) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req, ok := request.(addCustomItemRequest)
		if !ok {
			return nil, fmt.Errorf("illegal custom item request")
		}
		return s.AddCustomItem(ctx, req.ID, req.Name, req.ClaimedBy, req.Notes)
	}
}
