package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/derWhity/mitbringsel/internal/ctxhelper"
	"github.com/derWhity/mitbringsel/internal/log"
	"github.com/derWhity/mitbringsel/internal/models"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

const (
	apiBasePath = "/api"
)

// Defines an error that defines the HTTP status that should be returned
type httpStatuser interface {
	Status() int
}

// Defines an error that returns a machine-readable error code
type errorCoder interface {
	ErrorCode() string
}

// Defines an error that contains a data field with additional information
type dataBearer interface {
	Data() interface{}
}

// Allows a response to pick the HTTP status code it is sent with
type statusCoder interface {
	StatusCode() int
}

// The error body is part of the client contract - just the message, nothing else
type errorResponse struct {
	Error string `json:"error"`
}

// MakeHTTPHandler creates the main HTTP handler for the Mitbringsel service
func MakeHTTPHandler(es EventService, conf models.AppConfig, logger *logrus.Entry) http.Handler {
	r := mux.NewRouter()

	options := []httptransport.ServerOption{
		httptransport.ServerErrorEncoder(encodeError),
		httptransport.ServerBefore(makeContextInjector(logger)),
	}

	// -- Event service --------------------------------
	{
		evEp := MakeEventEndpoints(es, logger)

		// Create
		r.Methods(http.MethodPost).Path(apiBasePath + "/events").Handler(httptransport.NewServer(
			evEp.Create,
			decodeCreateEventRequest,
			encodeJSONResponse,
			options...,
		))

		// Get
		r.Methods(http.MethodGet).Path(apiBasePath + "/events/{id}").Handler(httptransport.NewServer(
			evEp.Get,
			decodeEventRequest,
			encodeJSONResponse,
			options...,
		))

		// Update
		r.Methods(http.MethodPut).Path(apiBasePath + "/events/{id}").Handler(httptransport.NewServer(
			evEp.Update,
			decodeUpdateEventRequest,
			encodeJSONResponse,
			options...,
		))

		// AddItem
		r.Methods(http.MethodPost).Path(apiBasePath + "/events/{id}/items").Handler(httptransport.NewServer(
			evEp.AddItem,
			decodeAddItemRequest,
			encodeJSONResponse,
			options...,
		))

		// RemoveItem
		r.Methods(http.MethodDelete).Path(apiBasePath + "/events/{id}/items/{itemId}").Handler(httptransport.NewServer(
			evEp.RemoveItem,
			decodeItemRequest,
			encodeJSONResponse,
			options...,
		))

		// RemoveClaimant
		r.Methods(http.MethodDelete).Path(apiBasePath + "/events/{id}/items/{itemId}/claimants/{name}").Handler(httptransport.NewServer(
			evEp.RemoveClaimant,
			decodeRemoveClaimantRequest,
			encodeJSONResponse,
			options...,
		))

		// Claim
		r.Methods(http.MethodPost).Path(apiBasePath + "/events/{id}/items/{itemId}/claim").Handler(httptransport.NewServer(
			evEp.Claim,
			decodeClaimRequest,
			encodeJSONResponse,
			options...,
		))

		// Unclaim
		r.Methods(http.MethodPost).Path(apiBasePath + "/events/{id}/items/{itemId}/unclaim").Handler(httptransport.NewServer(
			evEp.Unclaim,
			decodeClaimRequest,
			encodeJSONResponse,
			options...,
		))

		// AddCustomItem
		r.Methods(http.MethodPost).Path(apiBasePath + "/events/{id}/custom-items").Handler(httptransport.NewServer(
			evEp.AddCustomItem,
			decodeAddCustomItemRequest,
			encodeJSONResponse,
			options...,
		))
	}

	// Simple alive answer for checking if HTTP can be reached
	r.Methods(http.MethodGet).Path("/alive").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		data := map[string]bool{"ok": true}
		json.NewEncoder(w).Encode(data)
	})

	// Everything else belongs to the client application. Paths that do not map to a
	// file get the entry document so the client-side router can take over
	r.PathPrefix("/").Handler(makeSPAHandler(conf.UIDir))

	// The client may be served from another origin (e.g. a dev server)
	c := cors.New(cors.Options{
		AllowedOrigins: conf.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(r)
}

// makeSPAHandler serves the client application from the given directory
func makeSPAHandler(uiDir string) http.Handler {
	fs := http.FileServer(http.Dir(uiDir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := filepath.Join(uiDir, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
		if _, err := os.Stat(p); os.IsNotExist(err) {
			http.ServeFile(w, r, filepath.Join(uiDir, "index.html"))
			return
		}
		fs.ServeHTTP(w, r)
	})
}

// illegalJSON builds the error for a request body that could not be decoded
func illegalJSON(err error) error {
	return MakeError(
		http.StatusBadRequest,
		ErrCodeIllegalJSON,
		fmt.Sprintf("Failed to decode JSON body: %v", err),
	)
}

// hostKeyFromQuery reads the host key from the request's query string - used on the
// routes that have no request body
func hostKeyFromQuery(r *http.Request) string {
	return r.URL.Query().Get("hostKey")
}

// isCustomFromQuery checks whether the request targets the guest-added item list
func isCustomFromQuery(r *http.Request) bool {
	return r.URL.Query().Get("isCustom") == "true"
}

// decodeCreateEventRequest reads the data for a new event from the JSON body
func decodeCreateEventRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var req CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, illegalJSON(err)
	}
	return &req, nil
}

// decodeEventRequest reads the event ID from the path and the host key from the query string
func decodeEventRequest(_ context.Context, r *http.Request) (interface{}, error) {
	return eventRequest{
		ID:      mux.Vars(r)["id"],
		HostKey: hostKeyFromQuery(r),
	}, nil
}

// decodeUpdateEventRequest reads a partial event update from the JSON body
// The patch fields use pointers so that an absent field can be told apart from one
// that has deliberately been set to the empty string
func decodeUpdateEventRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var body struct {
		HostKey string `json:"hostKey"`
		EventPatch
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, illegalJSON(err)
	}
	return updateEventRequest{
		eventRequest: eventRequest{
			ID:      mux.Vars(r)["id"],
			HostKey: body.HostKey,
		},
		Patch: &body.EventPatch,
	}, nil
}

// decodeAddItemRequest reads the data for a new host-defined item from the JSON body
func decodeAddItemRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var body struct {
		HostKey string `json:"hostKey"`
		Name    string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, illegalJSON(err)
	}
	return addItemRequest{
		eventRequest: eventRequest{
			ID:      mux.Vars(r)["id"],
			HostKey: body.HostKey,
		},
		Name: body.Name,
	}, nil
}

// decodeItemRequest reads event and item IDs from the path and the host key and list
// selector from the query string
func decodeItemRequest(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	return itemRequest{
		eventRequest: eventRequest{
			ID:      vars["id"],
			HostKey: hostKeyFromQuery(r),
		},
		ItemID:   vars["itemId"],
		IsCustom: isCustomFromQuery(r),
	}, nil
}

// decodeRemoveClaimantRequest reads the data for removing a guest's claims from the
// path and query string. The router matches on the decoded path, so the name variable
// arrives already URL-decoded
func decodeRemoveClaimantRequest(ctx context.Context, r *http.Request) (interface{}, error) {
	req, err := decodeItemRequest(ctx, r)
	if err != nil {
		return nil, err
	}
	return removeClaimantRequest{
		itemRequest: req.(itemRequest),
		Claimant:    mux.Vars(r)["name"],
	}, nil
}

// decodeClaimRequest reads a guest's claim (or unclaim) on an item from the JSON body
func decodeClaimRequest(_ context.Context, r *http.Request) (interface{}, error) {
	vars := mux.Vars(r)
	var body struct {
		Name     string `json:"name"`
		Notes    string `json:"notes"`
		IsCustom bool   `json:"isCustom"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, illegalJSON(err)
	}
	return claimRequest{
		itemRequest: itemRequest{
			eventRequest: eventRequest{ID: vars["id"]},
			ItemID:       vars["itemId"],
			IsCustom:     body.IsCustom,
		},
		Name:  body.Name,
		Notes: body.Notes,
	}, nil
}

// decodeAddCustomItemRequest reads a guest-added item from the JSON body
func decodeAddCustomItemRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var body struct {
		Name      string `json:"name"`
		ClaimedBy string `json:"claimedBy"`
		Notes     string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, illegalJSON(err)
	}
	return addCustomItemRequest{
		ID:        mux.Vars(r)["id"],
		Name:      body.Name,
		ClaimedBy: body.ClaimedBy,
		Notes:     body.Notes,
	}, nil
}

// Encodes a typical JSON response
func encodeJSONResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if sc, ok := response.(statusCoder); ok {
		w.WriteHeader(sc.StatusCode())
	}
	return json.NewEncoder(w).Encode(response)
}

// Builds an error response based on the incoming error
// Only the message is sent to the client; status and machine-readable code end up in the log
func encodeError(ctx context.Context, err error, w http.ResponseWriter) {
	if err == nil {
		panic("encodeError with nil error")
	}
	status := http.StatusInternalServerError
	if st, ok := err.(httpStatuser); ok {
		status = st.Status()
	}
	fields := logrus.Fields{log.FldStatus: status}
	if cd, ok := err.(errorCoder); ok {
		fields[log.FldErrorCode] = cd.ErrorCode()
	}
	if db, ok := err.(dataBearer); ok {
		if data := db.Data(); data != nil {
			if dataErr, ok := data.(error); ok {
				data = dataErr.Error()
			}
			fields["details"] = data
		}
	}
	ctxhelper.Logger(ctx).WithError(err).WithFields(fields).Warn("Request failed")
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&errorResponse{Error: err.Error()})
}

func makeContextInjector(logger *logrus.Entry) httptransport.RequestFunc {
	return func(ctx context.Context, r *http.Request) context.Context {
		return context.WithValue(ctx, ctxhelper.KeyLogger, logger)
	}
}
