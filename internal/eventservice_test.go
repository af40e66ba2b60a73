package internal

import (
	"encoding/json"
	"io/ioutil"
	"net/http"
	"testing"

	"github.com/derWhity/mitbringsel/internal/models"
	"github.com/derWhity/mitbringsel/internal/repos"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"
)

// fakeEventRepo keeps events as serialized JSON - the same way the real repo stores
// its payload column. This gives the service proper copy semantics: mutations on a
// loaded event are invisible until Upsert is called
type fakeEventRepo struct {
	events  map[string]string
	upserts int
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: map[string]string{}}
}

func (r *fakeEventRepo) GetByID(id string) (*models.Event, error) {
	raw, ok := r.events[id]
	if !ok {
		return nil, repos.ErrEntityNotExisting
	}
	var ev models.Event
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

func (r *fakeEventRepo) Upsert(ev *models.Event) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	r.events[ev.ID] = string(raw)
	r.upserts++
	return nil
}

func quietLogger() *logrus.Entry {
	l := logrus.New()
	l.Out = ioutil.Discard
	return logrus.NewEntry(l)
}

func newTestService() (EventService, *fakeEventRepo) {
	repo := newFakeEventRepo()
	return NewEventService(repo, quietLogger()), repo
}

// requireHTTPStatus checks that the given error is an HTTPError carrying the expected status
func requireHTTPStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	he, ok := err.(*HTTPError)
	require.True(t, ok, "expected an *HTTPError, got %T", err)
	require.Equal(t, status, he.Status())
}

func picnicRequest() *CreateEventRequest {
	return &CreateEventRequest{
		Name:  "Picnic",
		Date:  "2024-07-04",
		Time:  "12:00",
		Place: "Park",
		Items: []CreateItemInput{
			{Name: "Chips"},
			{Name: "Salad"},
		},
	}
}

func TestCreateEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("generates identifiers and stores the event", func(t *testing.T) {
		svc, repo := newTestService()
		ev, err := svc.Create(ctx, picnicRequest())
		require.NoError(t, err)
		require.Len(t, ev.ID, 12)
		require.Len(t, ev.HostKey, 12)
		require.NotEqual(t, ev.ID, ev.HostKey)
		require.Len(t, ev.Items, 2)
		for _, it := range ev.Items {
			assert.Len(t, it.ID, 12)
			assert.Empty(t, it.Claimants)
			assert.NotNil(t, it.Claimants)
		}
		assert.Empty(t, ev.CustomItems)
		assert.NotNil(t, ev.CustomItems)

		stored, err := repo.GetByID(ev.ID)
		require.NoError(t, err)
		assert.Equal(t, "Picnic", stored.Name)
		assert.Equal(t, "2024-07-04", stored.Date)
		assert.Equal(t, "12:00", stored.Time)
		assert.Equal(t, "Park", stored.Place)
		assert.Equal(t, ev.HostKey, stored.HostKey)
	})

	t.Run("keeps item IDs supplied by the caller", func(t *testing.T) {
		svc, _ := newTestService()
		req := picnicRequest()
		req.Items = []CreateItemInput{{ID: "abcdefabcdef", Name: "Chips"}}
		ev, err := svc.Create(ctx, req)
		require.NoError(t, err)
		require.Equal(t, "abcdefabcdef", ev.Items[0].ID)
	})

	t.Run("rejects missing required fields", func(t *testing.T) {
		svc, repo := newTestService()
		for _, field := range []string{"name", "date", "time", "place"} {
			req := picnicRequest()
			switch field {
			case "name":
				req.Name = ""
			case "date":
				req.Date = ""
			case "time":
				req.Time = ""
			case "place":
				req.Place = ""
			}
			_, err := svc.Create(ctx, req)
			requireHTTPStatus(t, err, http.StatusBadRequest)
		}
		assert.Zero(t, repo.upserts, "a rejected creation must not write anything")
	})
}

func TestGetEvent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	ev, err := svc.Create(ctx, picnicRequest())
	require.NoError(t, err)

	t.Run("unknown event", func(t *testing.T) {
		_, err := svc.Get(ctx, "000000000000", "")
		requireHTTPStatus(t, err, http.StatusNotFound)
	})

	t.Run("strips the host key without credentials", func(t *testing.T) {
		got, err := svc.Get(ctx, ev.ID, "")
		require.NoError(t, err)
		assert.Empty(t, got.HostKey)
		assert.Equal(t, ev.ID, got.ID)
	})

	t.Run("strips the host key on a wrong key", func(t *testing.T) {
		got, err := svc.Get(ctx, ev.ID, "ffffffffffff")
		require.NoError(t, err)
		assert.Empty(t, got.HostKey)
	})

	t.Run("returns the full record for the host", func(t *testing.T) {
		got, err := svc.Get(ctx, ev.ID, ev.HostKey)
		require.NoError(t, err)
		assert.Equal(t, ev.HostKey, got.HostKey)
	})
}

func TestUpdateEventDetails(t *testing.T) {
	ctx := context.Background()

	str := func(s string) *string { return &s }

	t.Run("rejects a wrong or missing host key and leaves the record untouched", func(t *testing.T) {
		svc, repo := newTestService()
		ev, err := svc.Create(ctx, picnicRequest())
		require.NoError(t, err)
		before := repo.events[ev.ID]

		_, err = svc.UpdateDetails(ctx, ev.ID, "", &EventPatch{Name: str("Changed")})
		requireHTTPStatus(t, err, http.StatusForbidden)
		_, err = svc.UpdateDetails(ctx, ev.ID, "ffffffffffff", &EventPatch{Name: str("Changed")})
		requireHTTPStatus(t, err, http.StatusForbidden)

		assert.Equal(t, before, repo.events[ev.ID], "stored record must be byte-for-byte unchanged")
	})

	t.Run("applies only the fields present in the patch", func(t *testing.T) {
		svc, _ := newTestService()
		ev, err := svc.Create(ctx, picnicRequest())
		require.NoError(t, err)

		got, err := svc.UpdateDetails(ctx, ev.ID, ev.HostKey, &EventPatch{
			Place:       str("Beach"),
			Description: str("Bring sunscreen"),
		})
		require.NoError(t, err)
		assert.Equal(t, "Beach", got.Place)
		assert.Equal(t, "Bring sunscreen", got.Description)
		assert.Equal(t, "Picnic", got.Name, "absent fields stay untouched")
		assert.Equal(t, "2024-07-04", got.Date)
	})

	t.Run("a present empty field clears the stored value", func(t *testing.T) {
		svc, _ := newTestService()
		req := picnicRequest()
		req.Pin = "1234"
		ev, err := svc.Create(ctx, req)
		require.NoError(t, err)

		got, err := svc.UpdateDetails(ctx, ev.ID, ev.HostKey, &EventPatch{Pin: str("")})
		require.NoError(t, err)
		assert.Empty(t, got.Pin)
	})

	t.Run("unknown event", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.UpdateDetails(ctx, "000000000000", "ffffffffffff", &EventPatch{})
		requireHTTPStatus(t, err, http.StatusNotFound)
	})
}

func TestAddItem(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	ev, err := svc.Create(ctx, picnicRequest())
	require.NoError(t, err)

	t.Run("appends to the host item list", func(t *testing.T) {
		got, err := svc.AddItem(ctx, ev.ID, ev.HostKey, "Napkins")
		require.NoError(t, err)
		require.Len(t, got.Items, 3)
		added := got.Items[2]
		assert.Equal(t, "Napkins", added.Name)
		assert.Len(t, added.ID, 12)
		assert.Empty(t, added.Claimants)
		assert.Empty(t, got.CustomItems, "host items never land in the custom list")
		assert.Equal(t, ev.HostKey, got.HostKey, "the host gets the full record back")
	})

	t.Run("rejects an empty name", func(t *testing.T) {
		_, err := svc.AddItem(ctx, ev.ID, ev.HostKey, "")
		requireHTTPStatus(t, err, http.StatusBadRequest)
	})

	t.Run("rejects a wrong host key", func(t *testing.T) {
		_, err := svc.AddItem(ctx, ev.ID, "ffffffffffff", "Napkins")
		requireHTTPStatus(t, err, http.StatusForbidden)
	})
}

func TestRemoveItem(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()
	ev, err := svc.Create(ctx, picnicRequest())
	require.NoError(t, err)

	t.Run("removing an unknown item is a no-op", func(t *testing.T) {
		got, err := svc.RemoveItem(ctx, ev.ID, ev.HostKey, "000000000000", false)
		require.NoError(t, err)
		assert.Equal(t, ev.Items, got.Items)
		assert.Equal(t, ev.CustomItems, got.CustomItems)
	})

	t.Run("removes from the selected list only", func(t *testing.T) {
		// Removing a host item's ID from the custom list must not touch it
		got, err := svc.RemoveItem(ctx, ev.ID, ev.HostKey, ev.Items[0].ID, true)
		require.NoError(t, err)
		assert.Len(t, got.Items, 2)

		got, err = svc.RemoveItem(ctx, ev.ID, ev.HostKey, ev.Items[0].ID, false)
		require.NoError(t, err)
		require.Len(t, got.Items, 1)
		assert.Equal(t, ev.Items[1].ID, got.Items[0].ID)
	})
}

func TestClaimAndUnclaim(t *testing.T) {
	ctx := context.Background()

	t.Run("claim then unclaim restores the original claimant list", func(t *testing.T) {
		svc, _ := newTestService()
		ev, err := svc.Create(ctx, picnicRequest())
		require.NoError(t, err)
		itemID := ev.Items[0].ID

		got, err := svc.Claim(ctx, ev.ID, itemID, false, "Alice", "bringing 2 bags")
		require.NoError(t, err)
		assert.Empty(t, got.HostKey, "guests get the stripped view")
		require.Equal(t, []models.Claimant{{Name: "Alice", Notes: "bringing 2 bags"}}, got.ItemByID(itemID, false).Claimants)

		got, err = svc.Unclaim(ctx, ev.ID, itemID, false, "Alice")
		require.NoError(t, err)
		assert.Empty(t, got.ItemByID(itemID, false).Claimants)
	})

	t.Run("claiming twice with the same name produces two entries", func(t *testing.T) {
		svc, _ := newTestService()
		ev, err := svc.Create(ctx, picnicRequest())
		require.NoError(t, err)
		itemID := ev.Items[0].ID

		_, err = svc.Claim(ctx, ev.ID, itemID, false, "Alice", "")
		require.NoError(t, err)
		got, err := svc.Claim(ctx, ev.ID, itemID, false, "Alice", "second helping")
		require.NoError(t, err)
		require.Len(t, got.ItemByID(itemID, false).Claimants, 2)
	})

	t.Run("unclaim removes only the first match", func(t *testing.T) {
		svc, _ := newTestService()
		ev, err := svc.Create(ctx, picnicRequest())
		require.NoError(t, err)
		itemID := ev.Items[0].ID

		_, err = svc.Claim(ctx, ev.ID, itemID, false, "Alice", "first")
		require.NoError(t, err)
		_, err = svc.Claim(ctx, ev.ID, itemID, false, "Alice", "second")
		require.NoError(t, err)

		got, err := svc.Unclaim(ctx, ev.ID, itemID, false, "Alice")
		require.NoError(t, err)
		claimants := got.ItemByID(itemID, false).Claimants
		require.Len(t, claimants, 1)
		assert.Equal(t, "second", claimants[0].Notes)
	})

	t.Run("claiming an unknown item fails", func(t *testing.T) {
		svc, _ := newTestService()
		ev, err := svc.Create(ctx, picnicRequest())
		require.NoError(t, err)
		_, err = svc.Claim(ctx, ev.ID, "000000000000", false, "Alice", "")
		requireHTTPStatus(t, err, http.StatusNotFound)
	})

	t.Run("claiming without a name fails", func(t *testing.T) {
		svc, _ := newTestService()
		ev, err := svc.Create(ctx, picnicRequest())
		require.NoError(t, err)
		_, err = svc.Claim(ctx, ev.ID, ev.Items[0].ID, false, "", "")
		requireHTTPStatus(t, err, http.StatusBadRequest)
	})

	t.Run("unclaiming without a match skips the write", func(t *testing.T) {
		svc, repo := newTestService()
		ev, err := svc.Create(ctx, picnicRequest())
		require.NoError(t, err)
		writes := repo.upserts

		_, err = svc.Unclaim(ctx, ev.ID, ev.Items[0].ID, false, "Nobody")
		require.NoError(t, err)
		assert.Equal(t, writes, repo.upserts)

		// Same for an item that does not exist at all
		_, err = svc.Unclaim(ctx, ev.ID, "000000000000", false, "Nobody")
		require.NoError(t, err)
		assert.Equal(t, writes, repo.upserts)
	})
}

func TestRemoveClaimant(t *testing.T) {
	ctx := context.Background()

	t.Run("removes all claims of the given name", func(t *testing.T) {
		svc, _ := newTestService()
		ev, err := svc.Create(ctx, picnicRequest())
		require.NoError(t, err)
		itemID := ev.Items[0].ID

		_, err = svc.Claim(ctx, ev.ID, itemID, false, "Alice", "first")
		require.NoError(t, err)
		_, err = svc.Claim(ctx, ev.ID, itemID, false, "Bob", "")
		require.NoError(t, err)
		_, err = svc.Claim(ctx, ev.ID, itemID, false, "Alice", "second")
		require.NoError(t, err)

		got, err := svc.RemoveClaimant(ctx, ev.ID, ev.HostKey, itemID, false, "Alice")
		require.NoError(t, err)
		claimants := got.ItemByID(itemID, false).Claimants
		require.Len(t, claimants, 1)
		assert.Equal(t, "Bob", claimants[0].Name)
	})

	t.Run("an unknown item skips the write", func(t *testing.T) {
		svc, repo := newTestService()
		ev, err := svc.Create(ctx, picnicRequest())
		require.NoError(t, err)
		writes := repo.upserts

		_, err = svc.RemoveClaimant(ctx, ev.ID, ev.HostKey, "000000000000", false, "Alice")
		require.NoError(t, err)
		assert.Equal(t, writes, repo.upserts)
	})

	t.Run("requires the host key", func(t *testing.T) {
		svc, _ := newTestService()
		ev, err := svc.Create(ctx, picnicRequest())
		require.NoError(t, err)
		_, err = svc.RemoveClaimant(ctx, ev.ID, "", ev.Items[0].ID, false, "Alice")
		requireHTTPStatus(t, err, http.StatusForbidden)
	})
}

func TestAddCustomItem(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the item with its first claimant", func(t *testing.T) {
		svc, _ := newTestService()
		ev, err := svc.Create(ctx, picnicRequest())
		require.NoError(t, err)

		got, err := svc.AddCustomItem(ctx, ev.ID, "Drinks", "Bob", "")
		require.NoError(t, err)
		assert.Empty(t, got.HostKey)
		require.Len(t, got.CustomItems, 1)
		it := got.CustomItems[0]
		assert.True(t, it.IsCustom)
		assert.Equal(t, "Drinks", it.Name)
		assert.Len(t, it.ID, 12)
		require.Equal(t, []models.Claimant{{Name: "Bob", Notes: ""}}, it.Claimants)
		assert.Len(t, got.Items, 2, "the host's list stays untouched")
	})

	t.Run("validates its inputs", func(t *testing.T) {
		svc, _ := newTestService()
		ev, err := svc.Create(ctx, picnicRequest())
		require.NoError(t, err)

		_, err = svc.AddCustomItem(ctx, ev.ID, "", "Bob", "")
		requireHTTPStatus(t, err, http.StatusBadRequest)
		_, err = svc.AddCustomItem(ctx, ev.ID, "Drinks", "", "")
		requireHTTPStatus(t, err, http.StatusBadRequest)
		_, err = svc.AddCustomItem(ctx, "000000000000", "Drinks", "Bob", "")
		requireHTTPStatus(t, err, http.StatusNotFound)
	})
}
