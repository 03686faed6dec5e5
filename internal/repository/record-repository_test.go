package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/SundayYogurt/directory_service/infra/storage"
	"github.com/SundayYogurt/directory_service/internal/apperr"
	"github.com/SundayYogurt/directory_service/internal/approval"
	"github.com/SundayYogurt/directory_service/internal/domain"
	"github.com/SundayYogurt/directory_service/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := storage.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedVenue(t *testing.T, store repository.RecordStore, id, name string, status domain.AdminStatus) {
	t.Helper()
	v := &domain.Venue{
		Entity:    domain.Entity{ID: id},
		VenueName: name,
		City:      "Mumbai",
		Review:    domain.Review{Status: domain.RecordStatusActive, AdminStatus: status},
	}
	if status == domain.AdminStatusPending {
		v.Changes = &domain.ChangeSet{Type: domain.ChangeCreate, Fields: []string{"venue_name"}, UserID: "staff1"}
	}
	require.NoError(t, store.Create(context.Background(), v))
}

func updateChange(values map[string]any) domain.ChangeSet {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	return domain.ChangeSet{
		Type:          domain.ChangeUpdate,
		Fields:        keys,
		UpdatedValues: values,
		UserID:        "staff1",
		Date:          time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
	}
}

func TestVenueUpdateApprovedThroughStore(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	stores := repository.NewRecordStores(db)
	venues := stores[domain.EntityVenue]
	seedVenue(t, venues, "venue123", "Old Hall", domain.AdminStatusApproved)

	staged, err := venues.StagePending(ctx, "venue123", updateChange(map[string]any{"venue_name": "New Hall"}))
	require.NoError(t, err)
	v := staged.(*domain.Venue)
	require.Equal(t, "Old Hall", v.VenueName)
	require.Equal(t, domain.AdminStatusPending, v.AdminStatus)
	require.NotNil(t, v.Changes)
	require.Equal(t, domain.ChangeUpdate, v.Changes.Type)
	require.Equal(t, map[string]any{"venue_name": "New Hall"}, v.Changes.UpdatedValues)

	resolver := approval.NewResolver(map[domain.EntityType]approval.Store{domain.EntityVenue: venues})
	res, err := resolver.Resolve(ctx, domain.EntityVenue, "venue123", "approve", "admin1")
	require.NoError(t, err)
	require.False(t, res.Deleted)

	got, err := venues.FindByID(ctx, "venue123")
	require.NoError(t, err)
	v = got.(*domain.Venue)
	require.Equal(t, "New Hall", v.VenueName)
	require.Equal(t, "Mumbai", v.City)
	require.Equal(t, domain.AdminStatusApproved, v.AdminStatus)
	require.Nil(t, v.Changes)
	require.Equal(t, 2, v.Version)

	logs, err := repository.NewReviewLogRepository(db).ListByEntity(ctx, domain.EntityVenue, "venue123")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, domain.DecisionApprove, logs[0].Decision)
	require.Equal(t, "staff1", logs[0].ProposerID)
	require.Equal(t, "admin1", logs[0].AdminID)

	_, err = resolver.Resolve(ctx, domain.EntityVenue, "venue123", "approve", "admin1")
	require.ErrorIs(t, err, apperr.ErrNoPendingChange)
}

func TestRejectOfPendingCreateDeletes(t *testing.T) {
	ctx := context.Background()
	db := setupDB(t)
	stores := repository.NewRecordStores(db)
	assocs := stores[domain.EntityAssociation]

	require.NoError(t, assocs.Create(ctx, &domain.Association{
		Entity:          domain.Entity{ID: "assoc42"},
		AssociationName: "Hoteliers Guild",
		Review: domain.Review{
			Status:      domain.RecordStatusActive,
			AdminStatus: domain.AdminStatusPending,
			Changes:     &domain.ChangeSet{Type: domain.ChangeCreate, Fields: []string{"association_name"}, UserID: "staff1"},
		},
	}))

	resolver := approval.NewResolver(map[domain.EntityType]approval.Store{domain.EntityAssociation: assocs})
	res, err := resolver.Resolve(ctx, domain.EntityAssociation, "assoc42", "reject", "admin1")
	require.NoError(t, err)
	require.True(t, res.Deleted)
	require.Nil(t, res.Record)

	_, err = assocs.FindByID(ctx, "assoc42")
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = resolver.Resolve(ctx, domain.EntityAssociation, "assoc42", "approve", "admin1")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestStagePendingGuards(t *testing.T) {
	ctx := context.Background()
	stores := repository.NewRecordStores(setupDB(t))
	venues := stores[domain.EntityVenue]
	seedVenue(t, venues, "v1", "Hall", domain.AdminStatusApproved)

	_, err := venues.StagePending(ctx, "v1", updateChange(map[string]any{"city": "Pune"}))
	require.NoError(t, err)

	_, err = venues.StagePending(ctx, "v1", domain.ChangeSet{Type: domain.ChangeDelete, Fields: []string{}})
	require.ErrorIs(t, err, apperr.ErrConflict)

	_, err = venues.ApplyDirect(ctx, "v1", map[string]any{"city": "Goa"})
	require.ErrorIs(t, err, apperr.ErrConflict)

	require.ErrorIs(t, venues.DeleteApproved(ctx, "v1"), apperr.ErrConflict)

	_, err = venues.StagePending(ctx, "missing", updateChange(map[string]any{"city": "Pune"}))
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRejectUpdateKeepsFields(t *testing.T) {
	ctx := context.Background()
	stores := repository.NewRecordStores(setupDB(t))
	venues := stores[domain.EntityVenue]
	seedVenue(t, venues, "v1", "Hall", domain.AdminStatusApproved)

	_, err := venues.StagePending(ctx, "v1", updateChange(map[string]any{"venue_name": "Other", "city": "Pune"}))
	require.NoError(t, err)

	resolver := approval.NewResolver(map[domain.EntityType]approval.Store{domain.EntityVenue: venues})
	res, err := resolver.Resolve(ctx, domain.EntityVenue, "v1", "reject", "admin1")
	require.NoError(t, err)

	v := res.Record.(*domain.Venue)
	require.Equal(t, "Hall", v.VenueName)
	require.Equal(t, "Mumbai", v.City)
	require.Equal(t, domain.AdminStatusApproved, v.AdminStatus)
	require.Nil(t, v.Changes)
	require.Equal(t, 1, v.Version)
}

func TestDeleteFlow(t *testing.T) {
	ctx := context.Background()
	stores := repository.NewRecordStores(setupDB(t))
	venues := stores[domain.EntityVenue]
	seedVenue(t, venues, "v1", "Hall", domain.AdminStatusApproved)
	seedVenue(t, venues, "v2", "Annex", domain.AdminStatusApproved)
	resolver := approval.NewResolver(map[domain.EntityType]approval.Store{domain.EntityVenue: venues})

	for _, id := range []string{"v1", "v2"} {
		_, err := venues.StagePending(ctx, id, domain.ChangeSet{Type: domain.ChangeDelete, Fields: []string{}, UserID: "staff1"})
		require.NoError(t, err)
	}

	res, err := resolver.Resolve(ctx, domain.EntityVenue, "v1", "reject", "admin1")
	require.NoError(t, err)
	require.False(t, res.Deleted)
	_, err = venues.FindByID(ctx, "v1")
	require.NoError(t, err)

	res, err = resolver.Resolve(ctx, domain.EntityVenue, "v2", "approve", "admin1")
	require.NoError(t, err)
	require.True(t, res.Deleted)
	_, err = venues.FindByID(ctx, "v2")
	require.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, venues.DeleteApproved(ctx, "v1"))
	require.ErrorIs(t, venues.DeleteApproved(ctx, "v1"), apperr.ErrNotFound)
}

func TestApplyDirectBumpsVersion(t *testing.T) {
	ctx := context.Background()
	stores := repository.NewRecordStores(setupDB(t))
	venues := stores[domain.EntityVenue]
	seedVenue(t, venues, "v1", "Hall", domain.AdminStatusApproved)

	rec, err := venues.ApplyDirect(ctx, "v1", map[string]any{"city": "Goa", "featured": true})
	require.NoError(t, err)
	v := rec.(*domain.Venue)
	require.Equal(t, "Goa", v.City)
	require.True(t, v.Featured)
	require.Equal(t, 2, v.Version)
	require.Equal(t, domain.AdminStatusApproved, v.AdminStatus)
}

func TestListSearchPagingAndNames(t *testing.T) {
	ctx := context.Background()
	stores := repository.NewRecordStores(setupDB(t))
	venues := stores[domain.EntityVenue]
	seedVenue(t, venues, "v1", "Grand Hall", domain.AdminStatusApproved)
	seedVenue(t, venues, "v2", "Expo Grounds", domain.AdminStatusApproved)
	seedVenue(t, venues, "v3", "Small hall", domain.AdminStatusPending)

	rows, total, err := venues.List(ctx, repository.ListQuery{Keyword: "HALL", Page: 1, Limit: 10})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, rows, 2)

	rows, total, err = venues.List(ctx, repository.ListQuery{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, rows, 1)

	rows, total, err = venues.List(ctx, repository.ListQuery{Review: domain.AdminStatusPending, Page: 1, Limit: 10})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "v3", rows[0].Base().ID)

	names, err := venues.Names(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"v1": "Grand Hall", "v2": "Expo Grounds"}, names)
}

func TestCreateDuplicateIDConflicts(t *testing.T) {
	stores := repository.NewRecordStores(setupDB(t))
	venues := stores[domain.EntityVenue]
	seedVenue(t, venues, "v1", "Hall", domain.AdminStatusApproved)

	err := venues.Create(context.Background(), &domain.Venue{
		Entity:    domain.Entity{ID: "v1"},
		VenueName: "Again",
		Review:    domain.Review{AdminStatus: domain.AdminStatusApproved},
	})
	require.ErrorIs(t, err, apperr.ErrConflict)

	err = venues.Create(context.Background(), &domain.Association{AssociationName: "x"})
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestKeywordWildcardsMatchLiterally(t *testing.T) {
	ctx := context.Background()
	stores := repository.NewRecordStores(setupDB(t))
	venues := stores[domain.EntityVenue]
	seedVenue(t, venues, "v1", "100% Hall", domain.AdminStatusApproved)
	seedVenue(t, venues, "v2", "Hall_B", domain.AdminStatusApproved)
	seedVenue(t, venues, "v3", "HallXB", domain.AdminStatusApproved)
	seedVenue(t, venues, "v4", `Back\Room`, domain.AdminStatusApproved)

	cases := map[string][]string{
		"%":      {"v1"},
		"_":      {"v2"},
		"hall_b": {"v2"},
		`\`:      {"v4"},
		"hall":   {"v1", "v2", "v3"},
	}
	for kw, want := range cases {
		rows, total, err := venues.List(ctx, repository.ListQuery{Keyword: kw, Page: 1, Limit: 10})
		require.NoError(t, err, kw)
		ids := make([]string, 0, len(rows))
		for _, r := range rows {
			ids = append(ids, r.Base().ID)
		}
		require.ElementsMatch(t, want, ids, kw)
		require.EqualValues(t, len(want), total, kw)
	}
}

func TestListBoundsHugePageAndLimit(t *testing.T) {
	ctx := context.Background()
	stores := repository.NewRecordStores(setupDB(t))
	venues := stores[domain.EntityVenue]
	seedVenue(t, venues, "v1", "Hall", domain.AdminStatusApproved)

	rows, total, err := venues.List(ctx, repository.ListQuery{Page: 1, Limit: int(^uint(0) >> 1)})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, rows, 1)

	rows, _, err = venues.List(ctx, repository.ListQuery{Page: int(^uint(0) >> 1), Limit: 50})
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestResolveReturnsCommittedRow(t *testing.T) {
	ctx := context.Background()
	stores := repository.NewRecordStores(setupDB(t))
	venues := stores[domain.EntityVenue]
	seedVenue(t, venues, "v1", "Hall", domain.AdminStatusApproved)

	_, err := venues.StagePending(ctx, "v1", updateChange(map[string]any{"city": "Pune"}))
	require.NoError(t, err)

	rec, tr, err := venues.Resolve(ctx, "v1", "admin1", func(r domain.Record) (domain.Transition, error) {
		return domain.Transition{
			ChangeType: domain.ChangeUpdate,
			Decision:   domain.DecisionApprove,
			Next:       domain.AdminStatusApproved,
			Apply:      map[string]any{"city": "Pune"},
			ProposerID: "staff1",
		}, nil
	})
	require.NoError(t, err)
	require.Equal(t, domain.DecisionApprove, tr.Decision)
	v := rec.(*domain.Venue)
	require.Equal(t, "Pune", v.City)
	require.Equal(t, 2, v.Version)
	require.Equal(t, domain.AdminStatusApproved, v.AdminStatus)
	require.Nil(t, v.Changes)
}
