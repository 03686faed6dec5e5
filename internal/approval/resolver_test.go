package approval

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/SundayYogurt/directory_service/internal/apperr"
	"github.com/SundayYogurt/directory_service/internal/domain"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

// memStore serializes resolves with a mutex, like a row lock would.
type memStore struct {
	mu   sync.Mutex
	rows map[string]domain.Record
}

func newMemStore(recs ...domain.Record) *memStore {
	s := &memStore{rows: map[string]domain.Record{}}
	for _, r := range recs {
		s.rows[r.Base().ID] = r
	}
	return s
}

func (s *memStore) get(id string) (domain.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	return r, ok
}

func (s *memStore) Resolve(_ context.Context, id, _ string, decide domain.Decider) (domain.Record, domain.Transition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.rows[id]
	if !ok {
		return nil, domain.Transition{}, apperr.NotFound(string(domain.EntityVenue), id)
	}
	tr, err := decide(domain.CloneRecord(rec))
	if err != nil {
		return nil, tr, err
	}
	if tr.Delete {
		delete(s.rows, id)
		return nil, tr, nil
	}

	next := domain.CloneRecord(rec)
	if len(tr.Apply) > 0 {
		b, _ := json.Marshal(tr.Apply)
		if err := json.Unmarshal(b, next); err != nil {
			return nil, tr, err
		}
		next.Base().Version++
	}
	rv := next.ReviewState()
	rv.AdminStatus = tr.Next
	rv.Changes = nil
	s.rows[id] = next
	return next, tr, nil
}

func pendingVenue(id string, ch *domain.ChangeSet) *domain.Venue {
	return &domain.Venue{
		Entity:    domain.Entity{ID: id, Version: 1},
		VenueName: "Old Hall",
		City:      "Mumbai",
		Review:    domain.Review{Status: domain.RecordStatusActive, AdminStatus: domain.AdminStatusPending, Changes: ch},
	}
}

func newResolver(store *memStore) *Resolver {
	return NewResolver(map[domain.EntityType]Store{domain.EntityVenue: store})
}

func TestParseDecision(t *testing.T) {
	d, err := ParseDecision(" Approve ")
	require.NoError(t, err)
	require.Equal(t, domain.DecisionApprove, d)

	_, err = ParseDecision("maybe")
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestNextTable(t *testing.T) {
	cases := []struct {
		change   domain.ChangeType
		decision domain.Decision
		next     domain.AdminStatus
		deleted  bool
	}{
		{domain.ChangeCreate, domain.DecisionApprove, domain.AdminStatusApproved, false},
		{domain.ChangeCreate, domain.DecisionReject, "", true},
		{domain.ChangeUpdate, domain.DecisionApprove, domain.AdminStatusApproved, false},
		{domain.ChangeUpdate, domain.DecisionReject, domain.AdminStatusApproved, false},
		{domain.ChangeDelete, domain.DecisionApprove, "", true},
		{domain.ChangeDelete, domain.DecisionReject, domain.AdminStatusApproved, false},
	}
	for _, tc := range cases {
		rec := pendingVenue("v1", &domain.ChangeSet{
			Type:          tc.change,
			UpdatedValues: map[string]any{"venue_name": "New Hall"},
			UserID:        "staff1",
		})
		tr, err := Next(rec, tc.decision)
		require.NoError(t, err)
		require.Equal(t, tc.next, tr.Next, "%s/%s", tc.change, tc.decision)
		require.Equal(t, tc.deleted, tr.Delete, "%s/%s", tc.change, tc.decision)
		require.Equal(t, "staff1", tr.ProposerID)

		if tc.change == domain.ChangeUpdate && tc.decision == domain.DecisionApprove {
			require.Equal(t, map[string]any{"venue_name": "New Hall"}, tr.Apply)
		} else {
			require.Empty(t, tr.Apply)
		}
		require.Equal(t, "Old Hall", rec.VenueName)
	}
}

func TestNextWithoutChangeSet(t *testing.T) {
	rec := pendingVenue("v1", nil)
	rec.AdminStatus = domain.AdminStatusApproved
	_, err := Next(rec, domain.DecisionApprove)
	require.ErrorIs(t, err, apperr.ErrNoPendingChange)
}

func TestMergeDropsUnknownAndCreateOnlyKeys(t *testing.T) {
	rec := &domain.Company{
		Entity:      domain.Entity{ID: "co1"},
		CompanyName: "Acme",
		Review: domain.Review{AdminStatus: domain.AdminStatusPending, Changes: &domain.ChangeSet{
			Type: domain.ChangeUpdate,
			UpdatedValues: map[string]any{
				"company_name": "Acme Ltd",
				"fax":          "0221234",
				"password":     "plain",
			},
		}},
	}
	tr, err := Next(rec, domain.DecisionApprove)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"company_name": "Acme Ltd"}, tr.Apply)
	require.Equal(t, []string{"fax", "password"}, tr.Dropped)
}

func TestResolveVenueScenario(t *testing.T) {
	store := newMemStore(pendingVenue("venue123", &domain.ChangeSet{
		Type:          domain.ChangeUpdate,
		Fields:        []string{"venue_name"},
		UpdatedValues: map[string]any{"venue_name": "New Hall"},
		UserID:        "staff1",
	}))
	res, err := newResolver(store).Resolve(context.Background(), domain.EntityVenue, "venue123", "approve", "admin1")
	require.NoError(t, err)
	require.False(t, res.Deleted)
	require.Equal(t, domain.ChangeUpdate, res.ChangeType)

	v := res.Record.(*domain.Venue)
	require.Equal(t, "New Hall", v.VenueName)
	require.Equal(t, "Mumbai", v.City)
	require.Equal(t, domain.AdminStatusApproved, v.AdminStatus)
	require.Nil(t, v.Changes)
}

func TestResolveRejectsBadDecisionWithoutMutation(t *testing.T) {
	rec := pendingVenue("v1", &domain.ChangeSet{Type: domain.ChangeDelete})
	store := newMemStore(rec)
	_, err := newResolver(store).Resolve(context.Background(), domain.EntityVenue, "v1", "archive", "admin1")
	require.ErrorIs(t, err, apperr.ErrValidation)

	got, ok := store.get("v1")
	require.True(t, ok)
	require.True(t, got.ReviewState().Pending())

	_, err = newResolver(store).Resolve(context.Background(), domain.EntityKeyContact, "v1", "approve", "admin1")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSecondResolveSeesNoPendingChange(t *testing.T) {
	store := newMemStore(pendingVenue("v1", &domain.ChangeSet{
		Type:          domain.ChangeUpdate,
		UpdatedValues: map[string]any{"city": "Pune"},
	}))
	r := newResolver(store)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = r.Resolve(context.Background(), domain.EntityVenue, "v1", "approve", "admin1")
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, apperr.ErrNoPendingChange)
	}
	require.Equal(t, 1, ok)
	got, _ := store.get("v1")
	require.Equal(t, "Pune", got.(*domain.Venue).City)
	require.Equal(t, 2, got.Base().Version)
}

func TestResolutionProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("reject of an update preserves fields and returns to approved", prop.ForAll(
		func(newName, newCity string) bool {
			store := newMemStore(pendingVenue("v1", &domain.ChangeSet{
				Type:          domain.ChangeUpdate,
				UpdatedValues: map[string]any{"venue_name": newName, "city": newCity},
			}))
			res, err := newResolver(store).Resolve(context.Background(), domain.EntityVenue, "v1", "reject", "admin1")
			if err != nil {
				return false
			}
			v := res.Record.(*domain.Venue)
			return v.VenueName == "Old Hall" && v.City == "Mumbai" &&
				v.AdminStatus == domain.AdminStatusApproved && v.Changes == nil
		},
		gen.OneConstOf("New Hall", "Hall B", "Grand Hall"),
		gen.OneConstOf("Pune", "Goa", ""),
	))

	properties.Property("every resolution leaves no change-set behind", prop.ForAll(
		func(change string, decision string) bool {
			store := newMemStore(pendingVenue("v1", &domain.ChangeSet{
				Type:          domain.ChangeType(change),
				UpdatedValues: map[string]any{"city": "Pune"},
			}))
			res, err := newResolver(store).Resolve(context.Background(), domain.EntityVenue, "v1", decision, "admin1")
			if err != nil {
				return false
			}
			got, exists := store.get("v1")
			if res.Deleted {
				return !exists
			}
			rv := got.ReviewState()
			return exists && rv.Changes == nil && rv.AdminStatus == domain.AdminStatusApproved
		},
		gen.OneConstOf("create", "update", "delete"),
		gen.OneConstOf("approve", "reject"),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
