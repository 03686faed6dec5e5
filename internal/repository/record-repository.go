package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/SundayYogurt/directory_service/internal/apperr"
	"github.com/SundayYogurt/directory_service/internal/domain"
	"github.com/SundayYogurt/directory_service/internal/helper"
	"github.com/SundayYogurt/directory_service/internal/schema"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// List bounds. Offsets stay well inside int64 at the largest page.
const (
	MaxLimit = 10000
	MaxPage  = 1_000_000
)

type ListQuery struct {
	Keyword string
	Review  domain.AdminStatus
	Page    int
	Limit   int
}

// RecordStore persists one entity type. Every mutation on an existing row
// is a conditional statement on its review state, so the single pending
// change-set rule holds in the database and not only in memory.
type RecordStore interface {
	Entity() domain.EntityType
	FindByID(ctx context.Context, id string) (domain.Record, error)
	List(ctx context.Context, q ListQuery) ([]domain.Record, int64, error)
	Names(ctx context.Context) (map[string]string, error)
	Create(ctx context.Context, rec domain.Record) error
	StagePending(ctx context.Context, id string, ch domain.ChangeSet) (domain.Record, error)
	ApplyDirect(ctx context.Context, id string, values map[string]any) (domain.Record, error)
	DeleteApproved(ctx context.Context, id string) error
	Resolve(ctx context.Context, id, adminID string, decide domain.Decider) (domain.Record, domain.Transition, error)
}

type recordStore[T any, PT interface {
	*T
	domain.Record
}] struct {
	db     *gorm.DB
	entity domain.EntityType
	tbl    *schema.Table
}

func newRecordStore[T any, PT interface {
	*T
	domain.Record
}](db *gorm.DB, t domain.EntityType) *recordStore[T, PT] {
	tbl, err := schema.For(t)
	if err != nil {
		panic(err)
	}
	return &recordStore[T, PT]{db: db, entity: t, tbl: tbl}
}

// NewRecordStores returns one store per directory entity type.
func NewRecordStores(db *gorm.DB) map[domain.EntityType]RecordStore {
	return map[domain.EntityType]RecordStore{
		domain.EntityAssociation: newRecordStore[domain.Association](db, domain.EntityAssociation),
		domain.EntityCompany:     newRecordStore[domain.Company](db, domain.EntityCompany),
		domain.EntityConference:  newRecordStore[domain.Conference](db, domain.EntityConference),
		domain.EntityExhibition:  newRecordStore[domain.Exhibition](db, domain.EntityExhibition),
		domain.EntityVenue:       newRecordStore[domain.Venue](db, domain.EntityVenue),
		domain.EntityKeyContact:  newRecordStore[domain.KeyContact](db, domain.EntityKeyContact),
	}
}

func (s *recordStore[T, PT]) Entity() domain.EntityType {
	return s.entity
}

func (s *recordStore[T, PT]) FindByID(ctx context.Context, id string) (domain.Record, error) {
	var row T
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, s.mapErr(err, id)
	}
	return PT(&row), nil
}

func (s *recordStore[T, PT]) List(ctx context.Context, q ListQuery) ([]domain.Record, int64, error) {
	filter := func(db *gorm.DB) *gorm.DB {
		db = db.Model(new(T))
		if kw := strings.ToLower(strings.TrimSpace(q.Keyword)); kw != "" && len(s.tbl.Search) > 0 {
			like := "%" + escapeLike(kw) + "%"
			conds := make([]string, 0, len(s.tbl.Search))
			args := make([]any, 0, len(s.tbl.Search))
			for _, col := range s.tbl.Search {
				conds = append(conds, "LOWER("+col+`) LIKE ? ESCAPE '\'`)
				args = append(args, like)
			}
			db = db.Where("("+strings.Join(conds, " OR ")+")", args...)
		}
		if q.Review != "" {
			db = db.Where("admin_status = ?", q.Review)
		}
		return db
	}

	var total int64
	if err := s.db.WithContext(ctx).Scopes(filter).Count(&total).Error; err != nil {
		return nil, 0, s.mapErr(err, "")
	}

	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if page > MaxPage {
		page = MaxPage
	}

	var rows []T
	err := s.db.WithContext(ctx).
		Scopes(filter).
		Order("created_at DESC").
		Order("id ASC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, s.mapErr(err, "")
	}

	out := make([]domain.Record, len(rows))
	for i := range rows {
		out[i] = PT(&rows[i])
	}
	return out, total, nil
}

// Names maps ids of approved rows to their name column.
func (s *recordStore[T, PT]) Names(ctx context.Context) (map[string]string, error) {
	var rows []struct {
		ID   string
		Name string
	}
	err := s.db.WithContext(ctx).
		Model(new(T)).
		Select("id, "+s.tbl.NameField+" AS name").
		Where("admin_status = ?", domain.AdminStatusApproved).
		Scan(&rows).Error
	if err != nil {
		return nil, s.mapErr(err, "")
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.ID] = r.Name
	}
	return out, nil
}

func (s *recordStore[T, PT]) Create(ctx context.Context, rec domain.Record) error {
	if rec == nil || rec.EntityType() != s.entity {
		return apperr.Invalid("record does not belong to " + string(s.entity))
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return s.mapErr(err, rec.Base().ID)
	}
	return nil
}

// StagePending attaches ch to an approved row with no open change-set.
func (s *recordStore[T, PT]) StagePending(ctx context.Context, id string, ch domain.ChangeSet) (domain.Record, error) {
	payload, err := ch.JSON()
	if err != nil {
		return nil, err
	}
	res := s.db.WithContext(ctx).
		Model(new(T)).
		Where("id = ? AND admin_status = ? AND changes IS NULL", id, domain.AdminStatusApproved).
		Updates(map[string]any{
			"admin_status": domain.AdminStatusPending,
			"changes":      payload,
		})
	if res.Error != nil {
		return nil, s.mapErr(res.Error, id)
	}
	if res.RowsAffected == 0 {
		return nil, s.missOrConflict(ctx, id)
	}
	return s.FindByID(ctx, id)
}

// ApplyDirect writes column values onto an approved row and bumps its version.
func (s *recordStore[T, PT]) ApplyDirect(ctx context.Context, id string, values map[string]any) (domain.Record, error) {
	updates := make(map[string]any, len(values)+1)
	for k, v := range values {
		updates[k] = v
	}
	updates["version"] = gorm.Expr("version + 1")

	res := s.db.WithContext(ctx).
		Model(new(T)).
		Where("id = ? AND admin_status = ? AND changes IS NULL", id, domain.AdminStatusApproved).
		Updates(updates)
	if res.Error != nil {
		return nil, s.mapErr(res.Error, id)
	}
	if res.RowsAffected == 0 {
		return nil, s.missOrConflict(ctx, id)
	}
	return s.FindByID(ctx, id)
}

func (s *recordStore[T, PT]) DeleteApproved(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND admin_status = ? AND changes IS NULL", id, domain.AdminStatusApproved).
		Delete(new(T))
	if res.Error != nil {
		return s.mapErr(res.Error, id)
	}
	if res.RowsAffected == 0 {
		return s.missOrConflict(ctx, id)
	}
	return nil
}

// Resolve locks the row, lets decide pick the transition, then applies it
// with a pending guard and records the decision, all in one transaction.
func (s *recordStore[T, PT]) Resolve(ctx context.Context, id, adminID string, decide domain.Decider) (domain.Record, domain.Transition, error) {
	var tr domain.Transition
	var row T

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if tx.Dialector.Name() != "sqlite" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&row, "id = ?", id).Error; err != nil {
			return s.mapErr(err, id)
		}

		var err error
		tr, err = decide(PT(&row))
		if err != nil {
			return err
		}

		guard := tx.Model(new(T)).Where("id = ? AND admin_status = ? AND changes IS NOT NULL", id, domain.AdminStatusPending)
		var res *gorm.DB
		if tr.Delete {
			res = guard.Delete(new(T))
		} else {
			updates := make(map[string]any, len(tr.Apply)+3)
			for k, v := range tr.Apply {
				updates[k] = v
			}
			if len(tr.Apply) > 0 {
				updates["version"] = gorm.Expr("version + 1")
			}
			updates["admin_status"] = tr.Next
			updates["changes"] = nil
			res = guard.Updates(updates)
		}
		if res.Error != nil {
			return s.mapErr(res.Error, id)
		}
		if res.RowsAffected == 0 {
			return apperr.NoPendingChange(string(s.entity), id)
		}
		if !tr.Delete {
			// the committed row is the result; no read after commit
			row = *new(T)
			if err := tx.First(&row, "id = ?", id).Error; err != nil {
				return s.mapErr(err, id)
			}
		}

		return tx.Create(&domain.ReviewLog{
			Entity:     s.entity,
			EntityID:   id,
			ChangeType: tr.ChangeType,
			Decision:   tr.Decision,
			AdminID:    adminID,
			ProposerID: tr.ProposerID,
		}).Error
	})
	if err != nil {
		return nil, tr, err
	}
	if tr.Delete {
		return nil, tr, nil
	}
	return PT(&row), tr, nil
}

func (s *recordStore[T, PT]) missOrConflict(ctx context.Context, id string) error {
	var n int64
	if err := s.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Count(&n).Error; err != nil {
		return s.mapErr(err, id)
	}
	if n == 0 {
		return apperr.NotFound(string(s.entity), id)
	}
	return apperr.Conflict("")
}

func (s *recordStore[T, PT]) mapErr(err error, id string) error {
	var ae *apperr.Error
	switch {
	case errors.As(err, &ae):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound(string(s.entity), id)
	case helper.IsUniqueViolation(err):
		return apperr.Conflict(string(s.entity) + " already exists")
	}
	logrus.WithFields(logrus.Fields{
		"entity": s.entity,
		"id":     id,
	}).WithError(err).Error("record store query failed")
	return apperr.Wrap(err, apperr.CategoryDatabase, "DB_ERROR")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// escapeLike makes LIKE metacharacters in a keyword match literally.
func escapeLike(kw string) string {
	return likeEscaper.Replace(kw)
}
