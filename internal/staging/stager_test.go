package staging

import (
	"testing"
	"time"

	"github.com/SundayYogurt/directory_service/internal/apperr"
	"github.com/SundayYogurt/directory_service/internal/domain"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestStager() *Stager {
	return New(
		WithClock(func() time.Time { return fixedNow }),
		WithHasher(func(p string) (string, error) { return "hashed:" + p, nil }),
	)
}

func approvedVenue(name string) *domain.Venue {
	return &domain.Venue{
		Entity:    domain.Entity{ID: "venue123", Version: 3},
		VenueName: name,
		City:      "Mumbai",
		Phone:     "9845012345",
		Review:    domain.Review{Status: domain.RecordStatusActive, AdminStatus: domain.AdminStatusApproved},
	}
}

func TestProposeCreate(t *testing.T) {
	s := newTestStager()
	rec, err := s.ProposeCreate(domain.EntityCompany, map[string]any{
		"website":      "https://acme.example.com",
		"company_name": "Acme Events",
		"phone":        "+91 98450 12345",
		"featured":     true,
		"password":     "s3cret!!",
	}, "staff1")
	require.NoError(t, err)

	c := rec.(*domain.Company)
	require.Equal(t, "Acme Events", c.CompanyName)
	require.Equal(t, "919845012345", c.Phone)
	require.True(t, c.Featured)
	require.Equal(t, "hashed:s3cret!!", c.Password)

	rv := rec.ReviewState()
	require.Equal(t, domain.AdminStatusPending, rv.AdminStatus)
	require.Equal(t, domain.RecordStatusActive, rv.Status)
	require.NotNil(t, rv.Changes)
	require.Equal(t, domain.ChangeCreate, rv.Changes.Type)
	require.Equal(t, []string{"company_name", "phone", "website", "featured", "password"}, rv.Changes.Fields)
	require.Equal(t, "staff1", rv.Changes.UserID)
	require.Equal(t, fixedNow, rv.Changes.Date)
	require.Nil(t, rv.Changes.UpdatedValues)
}

func TestProposeCreateParsesDates(t *testing.T) {
	s := newTestStager()
	rec, err := s.ProposeCreate(domain.EntityConference, map[string]any{
		"full_name":  "Travel Summit",
		"start_date": "2024-05-01",
		"end_date":   "2024-05-03T00:00:00Z",
	}, "staff1")
	require.NoError(t, err)

	c := rec.(*domain.Conference)
	require.NotNil(t, c.StartDate)
	require.Equal(t, "2024-05-01", c.StartDate.Format("2006-01-02"))
	require.Equal(t, "2024-05-03", c.EndDate.Format("2006-01-02"))
}

func TestProposeCreateValidation(t *testing.T) {
	s := newTestStager()
	_, err := s.ProposeCreate(domain.EntityVenue, map[string]any{
		"website": "not a url",
		"phone":   "98-ABC",
		"colour":  "red",
	}, "staff1")
	require.ErrorIs(t, err, apperr.ErrValidation)

	fields := apperr.FieldsOf(err)
	require.Equal(t, "is required", fields["venue_name"])
	require.Equal(t, "must be a valid URL", fields["website"])
	require.Equal(t, "must be numeric", fields["phone"])
	require.Equal(t, "unknown field", fields["colour"])

	_, err = s.ProposeCreate(domain.EntityKeyContact, map[string]any{
		"contact_name": "Asha",
		"email":        "asha-at-example",
	}, "staff1")
	require.ErrorIs(t, err, apperr.ErrValidation)
	require.Equal(t, "must be a valid email", apperr.FieldsOf(err)["email"])

	_, err = s.ProposeCreate("planet", map[string]any{}, "staff1")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestProposeUpdateVenueScenario(t *testing.T) {
	s := newTestStager()
	existing := approvedVenue("Old Hall")

	rec, err := s.ProposeUpdate(existing, map[string]any{"venue_name": "New Hall"}, "staff1")
	require.NoError(t, err)

	staged := rec.(*domain.Venue)
	require.Equal(t, "Old Hall", staged.VenueName)
	require.Equal(t, domain.AdminStatusPending, staged.AdminStatus)
	require.Equal(t, map[string]any{"venue_name": "New Hall"}, staged.Changes.UpdatedValues)
	require.Equal(t, []string{"venue_name"}, staged.Changes.Fields)
	require.Equal(t, domain.ChangeUpdate, staged.Changes.Type)

	// the input record is left alone
	require.Equal(t, domain.AdminStatusApproved, existing.AdminStatus)
	require.Nil(t, existing.Changes)
}

func TestProposeUpdateRejectsCreateOnlyAndUnknown(t *testing.T) {
	s := newTestStager()
	company := &domain.Company{
		Entity:      domain.Entity{ID: "c1", Version: 1},
		CompanyName: "Acme",
		Review:      domain.Review{AdminStatus: domain.AdminStatusApproved},
	}
	_, err := s.ProposeUpdate(company, map[string]any{"password": "another1"}, "staff1")
	require.ErrorIs(t, err, apperr.ErrValidation)
	require.Equal(t, "can only be set on create", apperr.FieldsOf(err)["password"])

	_, err = s.ProposeUpdate(company, map[string]any{"version": 9}, "staff1")
	require.ErrorIs(t, err, apperr.ErrValidation)

	_, err = s.ProposeUpdate(company, map[string]any{"company_name": "  "}, "staff1")
	require.ErrorIs(t, err, apperr.ErrValidation)
	require.Equal(t, "is required", apperr.FieldsOf(err)["company_name"])

	_, err = s.ProposeUpdate(company, map[string]any{}, "staff1")
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestProposeDelete(t *testing.T) {
	s := newTestStager()
	rec, err := s.ProposeDelete(approvedVenue("Old Hall"), "staff2")
	require.NoError(t, err)
	rv := rec.ReviewState()
	require.Equal(t, domain.AdminStatusPending, rv.AdminStatus)
	require.Equal(t, domain.ChangeDelete, rv.Changes.Type)
	require.Empty(t, rv.Changes.Fields)
	require.Equal(t, "staff2", rv.Changes.UserID)
}

func TestProposalsOnNonApprovedRecordsConflict(t *testing.T) {
	s := newTestStager()
	rejected := approvedVenue("Old Hall")
	rejected.AdminStatus = domain.AdminStatusRejected

	_, err := s.ProposeUpdate(rejected, map[string]any{"city": "Pune"}, "staff1")
	require.ErrorIs(t, err, apperr.ErrConflict)
	_, err = s.ProposeDelete(rejected, "staff1")
	require.ErrorIs(t, err, apperr.ErrConflict)
}

func TestUpdateIsolationProperty(t *testing.T) {
	s := newTestStager()
	properties := gopter.NewProperties(nil)

	properties.Property("staging an update never leaks into live fields", prop.ForAll(
		func(name, city, newName, newCity string) bool {
			existing := approvedVenue(name)
			existing.City = city
			before := *existing

			rec, err := s.ProposeUpdate(existing, map[string]any{"venue_name": newName, "city": newCity}, "staff1")
			if err != nil {
				return false
			}
			staged := rec.(*domain.Venue)
			return staged.VenueName == before.VenueName &&
				staged.City == before.City &&
				staged.Phone == before.Phone &&
				existing.VenueName == before.VenueName &&
				existing.Changes == nil
		},
		gen.OneConstOf("Old Hall", "Expo Grounds", "Convention Centre"),
		gen.OneConstOf("Mumbai", "Delhi", ""),
		gen.OneConstOf("New Hall", "Expo Grounds II", "Hall 7"),
		gen.OneConstOf("Pune", "Chennai", ""),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestSinglePendingProperty(t *testing.T) {
	s := newTestStager()
	properties := gopter.NewProperties(nil)

	properties.Property("a pending record refuses every further proposal", prop.ForAll(
		func(first string, secondIsDelete bool) bool {
			var staged domain.Record
			var err error
			switch first {
			case "update":
				staged, err = s.ProposeUpdate(approvedVenue("Old Hall"), map[string]any{"city": "Pune"}, "staff1")
			case "delete":
				staged, err = s.ProposeDelete(approvedVenue("Old Hall"), "staff1")
			default:
				staged, err = s.ProposeCreate(domain.EntityVenue, map[string]any{"venue_name": "Hall"}, "staff1")
			}
			if err != nil {
				return false
			}
			if secondIsDelete {
				_, err = s.ProposeDelete(staged, "staff2")
			} else {
				_, err = s.ProposeUpdate(staged, map[string]any{"city": "Goa"}, "staff2")
			}
			return apperr.CategoryOf(err) == apperr.CategoryConflict
		},
		gen.OneConstOf("create", "update", "delete"),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
