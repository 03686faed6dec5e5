package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/SundayYogurt/directory_service/internal/apperr"
	"github.com/SundayYogurt/directory_service/internal/approval"
	"github.com/SundayYogurt/directory_service/internal/cache"
	"github.com/SundayYogurt/directory_service/internal/domain"
	"github.com/SundayYogurt/directory_service/internal/dto"
	"github.com/SundayYogurt/directory_service/internal/export"
	"github.com/SundayYogurt/directory_service/internal/interfaces"
	"github.com/SundayYogurt/directory_service/internal/metrics"
	"github.com/SundayYogurt/directory_service/internal/repository"
	"github.com/SundayYogurt/directory_service/internal/schema"
	"github.com/SundayYogurt/directory_service/internal/staging"
	"github.com/sirupsen/logrus"
)

const (
	refsCacheKey  = "refs"
	listKeyRoot   = "list:"
	exportMaxRows = 10000
	maxPageSize   = 100
)

// Actor is the authenticated caller of a directory operation.
type Actor struct {
	UserID string
	Admin  bool
}

type ListResult struct {
	Items       []staging.DisplayModel
	Total       int64
	CurrentPage int
	TotalPages  int
	HasMore     bool
}

type ResolveResult struct {
	Entity     domain.EntityType     `json:"entity"`
	ID         string                `json:"id"`
	Decision   domain.Decision       `json:"decision"`
	ChangeType domain.ChangeType     `json:"change_type"`
	Deleted    bool                  `json:"deleted"`
	Record     *staging.DisplayModel `json:"record,omitempty"`
}

type DeleteResult struct {
	Deleted bool                  `json:"deleted"`
	Record  *staging.DisplayModel `json:"record,omitempty"`
}

type DirectoryService interface {
	List(ctx context.Context, t domain.EntityType, params dto.ListParams) (ListResult, error)
	Get(ctx context.Context, t domain.EntityType, id string) (staging.DisplayModel, error)
	Create(ctx context.Context, t domain.EntityType, actor Actor, draft map[string]any) (staging.DisplayModel, error)
	Update(ctx context.Context, t domain.EntityType, actor Actor, id string, delta map[string]any) (staging.DisplayModel, error)
	Delete(ctx context.Context, t domain.EntityType, actor Actor, id string) (DeleteResult, error)
	Resolve(ctx context.Context, t domain.EntityType, id, decision, adminID string) (ResolveResult, error)
	Export(ctx context.Context, t domain.EntityType, keyword string) ([]byte, error)
	Reviews(ctx context.Context, t domain.EntityType, id string) ([]domain.ReviewLog, error)
}

type DirectoryOptions struct {
	MediaBaseURL string
	PageSize     int
}

type directoryService struct {
	stores   map[domain.EntityType]repository.RecordStore
	lookups  repository.LookupRepository
	logs     repository.ReviewLogRepository
	stager   *staging.Stager
	resolver *approval.Resolver
	cache    *cache.Cache
	producer interfaces.ProducerHandler
	metrics  *metrics.Metrics
	opts     DirectoryOptions
	now      func() time.Time
}

func NewDirectoryService(
	stores map[domain.EntityType]repository.RecordStore,
	lookups repository.LookupRepository,
	logs repository.ReviewLogRepository,
	stager *staging.Stager,
	listCache *cache.Cache,
	producer interfaces.ProducerHandler,
	m *metrics.Metrics,
	opts DirectoryOptions,
) DirectoryService {
	resolvers := make(map[domain.EntityType]approval.Store, len(stores))
	for t, s := range stores {
		resolvers[t] = s
	}
	if opts.PageSize < 1 {
		opts.PageSize = 10
	}
	if opts.PageSize > maxPageSize {
		opts.PageSize = maxPageSize
	}
	return &directoryService{
		stores:   stores,
		lookups:  lookups,
		logs:     logs,
		stager:   stager,
		resolver: approval.NewResolver(resolvers),
		cache:    listCache,
		producer: producer,
		metrics:  m,
		opts:     opts,
		now:      time.Now,
	}
}

func (s *directoryService) store(t domain.EntityType) (repository.RecordStore, error) {
	st, ok := s.stores[t]
	if !ok {
		return nil, apperr.NotFound("entity type", string(t))
	}
	return st, nil
}

func (s *directoryService) List(ctx context.Context, t domain.EntityType, params dto.ListParams) (ListResult, error) {
	st, err := s.store(t)
	if err != nil {
		return ListResult{}, err
	}

	q := repository.ListQuery{
		Keyword: strings.TrimSpace(params.Keyword),
		Page:    params.Page,
		Limit:   params.Limit,
	}
	if q.Keyword == "" {
		q.Keyword = strings.TrimSpace(params.Search)
	}
	if params.Review != "" {
		review := domain.AdminStatus(strings.ToLower(params.Review))
		if !review.Valid() {
			return ListResult{}, apperr.Validation(map[string]string{"review": "must be pending, approved or rejected"})
		}
		q.Review = review
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = s.opts.PageSize
	}
	if q.Limit > maxPageSize {
		q.Limit = maxPageSize
	}
	if q.Page > repository.MaxPage {
		q.Page = repository.MaxPage
	}

	key := listKey(t, q)
	var gen uint64
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			s.metrics.CacheHit()
			return v.(ListResult), nil
		}
		s.metrics.CacheMiss()
		gen = s.cache.Generation(key)
	}

	recs, total, err := st.List(ctx, q)
	if err != nil {
		return ListResult{}, err
	}
	refs, err := s.references(ctx)
	if err != nil {
		return ListResult{}, err
	}

	items := make([]staging.DisplayModel, 0, len(recs))
	for _, rec := range recs {
		m, err := staging.RenderAt(rec, refs, s.opts.MediaBaseURL, s.now())
		if err != nil {
			return ListResult{}, err
		}
		items = append(items, m)
	}

	totalPages := int((total + int64(q.Limit) - 1) / int64(q.Limit))
	res := ListResult{
		Items:       items,
		Total:       total,
		CurrentPage: q.Page,
		TotalPages:  totalPages,
		HasMore:     q.Page < totalPages,
	}
	if s.cache != nil {
		s.cache.SetIfGeneration(key, res, gen)
	}
	return res, nil
}

func listKey(t domain.EntityType, q repository.ListQuery) string {
	return fmt.Sprintf("%s%s|%s|%d|%d", listPrefix(t), strings.ToLower(q.Keyword), q.Review, q.Page, q.Limit)
}

func listPrefix(t domain.EntityType) string {
	return listKeyRoot + string(t) + "|"
}

func (s *directoryService) Get(ctx context.Context, t domain.EntityType, id string) (staging.DisplayModel, error) {
	st, err := s.store(t)
	if err != nil {
		return staging.DisplayModel{}, err
	}
	rec, err := st.FindByID(ctx, id)
	if err != nil {
		return staging.DisplayModel{}, err
	}
	return s.render(ctx, rec)
}

func (s *directoryService) Create(ctx context.Context, t domain.EntityType, actor Actor, draft map[string]any) (staging.DisplayModel, error) {
	st, err := s.store(t)
	if err != nil {
		return staging.DisplayModel{}, err
	}

	var rec domain.Record
	if actor.Admin {
		var fields []string
		rec, fields, err = s.stager.Build(t, draft)
		if err != nil {
			return staging.DisplayModel{}, err
		}
		rv := rec.ReviewState()
		rv.Status = domain.RecordStatusActive
		rv.AdminStatus = domain.AdminStatusApproved
		rv.Changes = nil
		logrus.WithFields(logrus.Fields{"entity": t, "fields": fields}).Debug("admin create")
	} else {
		rec, err = s.stager.ProposeCreate(t, draft, actor.UserID)
		if err != nil {
			return staging.DisplayModel{}, err
		}
	}

	if err := st.Create(ctx, rec); err != nil {
		return staging.DisplayModel{}, err
	}
	s.mutated(ctx, t, rec.Base().ID, domain.ChangeCreate, actor)
	return s.render(ctx, rec)
}

func (s *directoryService) Update(ctx context.Context, t domain.EntityType, actor Actor, id string, delta map[string]any) (staging.DisplayModel, error) {
	st, err := s.store(t)
	if err != nil {
		return staging.DisplayModel{}, err
	}
	existing, err := st.FindByID(ctx, id)
	if err != nil {
		return staging.DisplayModel{}, err
	}

	var rec domain.Record
	if actor.Admin {
		if existing.ReviewState().Pending() {
			return staging.DisplayModel{}, apperr.Conflict("")
		}
		values, err := s.stager.NormalizeDelta(t, delta)
		if err != nil {
			return staging.DisplayModel{}, err
		}
		tbl, _ := schema.For(t)
		columns, dropped := approval.Merge(tbl, values)
		if len(dropped) > 0 {
			return staging.DisplayModel{}, apperr.Invalid("cannot apply " + strings.Join(dropped, ", "))
		}
		rec, err = st.ApplyDirect(ctx, id, columns)
		if err != nil {
			return staging.DisplayModel{}, err
		}
	} else {
		proposed, err := s.stager.ProposeUpdate(existing, delta, actor.UserID)
		if err != nil {
			return staging.DisplayModel{}, err
		}
		rec, err = st.StagePending(ctx, id, *proposed.ReviewState().Changes)
		if err != nil {
			return staging.DisplayModel{}, err
		}
	}

	s.mutated(ctx, t, id, domain.ChangeUpdate, actor)
	return s.render(ctx, rec)
}

// Delete stages a delete for staff. For an admin it removes an approved
// record at once, and on a pending record it acts as the matching review
// decision: a pending create is rejected, a pending delete approved.
func (s *directoryService) Delete(ctx context.Context, t domain.EntityType, actor Actor, id string) (DeleteResult, error) {
	st, err := s.store(t)
	if err != nil {
		return DeleteResult{}, err
	}
	existing, err := st.FindByID(ctx, id)
	if err != nil {
		return DeleteResult{}, err
	}

	if !actor.Admin {
		proposed, err := s.stager.ProposeDelete(existing, actor.UserID)
		if err != nil {
			return DeleteResult{}, err
		}
		rec, err := st.StagePending(ctx, id, *proposed.ReviewState().Changes)
		if err != nil {
			return DeleteResult{}, err
		}
		s.mutated(ctx, t, id, domain.ChangeDelete, actor)
		m, err := s.render(ctx, rec)
		if err != nil {
			return DeleteResult{}, err
		}
		return DeleteResult{Record: &m}, nil
	}

	rv := existing.ReviewState()
	if !rv.Pending() {
		if err := st.DeleteApproved(ctx, id); err != nil {
			return DeleteResult{}, err
		}
		s.mutated(ctx, t, id, domain.ChangeDelete, actor)
		return DeleteResult{Deleted: true}, nil
	}

	var decision domain.Decision
	switch rv.Changes.Type {
	case domain.ChangeCreate:
		decision = domain.DecisionReject
	case domain.ChangeDelete:
		decision = domain.DecisionApprove
	default:
		return DeleteResult{}, apperr.Conflict("")
	}
	res, err := s.Resolve(ctx, t, id, string(decision), actor.UserID)
	if err != nil {
		return DeleteResult{}, err
	}
	return DeleteResult{Deleted: res.Deleted, Record: res.Record}, nil
}

func (s *directoryService) Resolve(ctx context.Context, t domain.EntityType, id, decision, adminID string) (ResolveResult, error) {
	res, err := s.resolver.Resolve(ctx, t, id, decision, adminID)
	if err != nil {
		return ResolveResult{}, err
	}

	s.invalidate(t)
	s.metrics.Resolved(string(t), string(res.ChangeType), string(res.Decision))
	s.publish(ctx, dto.ReviewEvent{
		Event:      dto.EventReviewResolved,
		Entity:     string(t),
		ID:         id,
		ChangeType: string(res.ChangeType),
		Decision:   string(res.Decision),
		UserID:     res.ProposerID,
		AdminID:    adminID,
	})

	out := ResolveResult{
		Entity:     res.Entity,
		ID:         res.ID,
		Decision:   res.Decision,
		ChangeType: res.ChangeType,
		Deleted:    res.Deleted,
	}
	if res.Record != nil {
		m, err := s.render(ctx, res.Record)
		if err != nil {
			return ResolveResult{}, err
		}
		out.Record = &m
	}
	return out, nil
}

func (s *directoryService) Export(ctx context.Context, t domain.EntityType, keyword string) ([]byte, error) {
	st, err := s.store(t)
	if err != nil {
		return nil, err
	}
	recs, _, err := st.List(ctx, repository.ListQuery{Keyword: keyword, Page: 1, Limit: exportMaxRows})
	if err != nil {
		return nil, err
	}
	refs, err := s.references(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]staging.DisplayModel, 0, len(recs))
	for _, rec := range recs {
		m, err := staging.RenderAt(rec, refs, s.opts.MediaBaseURL, s.now())
		if err != nil {
			return nil, err
		}
		rows = append(rows, m)
	}

	tbl, _ := schema.For(t)
	visible := tbl.Visible()
	labels := make([]string, len(visible))
	names := make([]string, len(visible))
	for i, fd := range visible {
		labels[i] = fd.Label
		names[i] = fd.Name
	}
	return export.XLSX(t.Plural(), labels, names, rows)
}

func (s *directoryService) Reviews(ctx context.Context, t domain.EntityType, id string) ([]domain.ReviewLog, error) {
	if _, err := s.store(t); err != nil {
		return nil, err
	}
	return s.logs.ListByEntity(ctx, t, id)
}

func (s *directoryService) render(ctx context.Context, rec domain.Record) (staging.DisplayModel, error) {
	refs, err := s.references(ctx)
	if err != nil {
		return staging.DisplayModel{}, err
	}
	return staging.RenderAt(rec, refs, s.opts.MediaBaseURL, s.now())
}

// references loads lookup names plus names of approved companies, venues
// and associations.
func (s *directoryService) references(ctx context.Context) (domain.ReferenceSet, error) {
	var gen uint64
	if s.cache != nil {
		if v, ok := s.cache.Get(refsCacheKey); ok {
			return v.(domain.ReferenceSet), nil
		}
		gen = s.cache.Generation(refsCacheKey)
	}

	refs := domain.ReferenceSet{}
	rows, err := s.lookups.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, l := range rows {
		refs.Add(l.Kind, l.ID, l.Name)
	}
	for _, kind := range []domain.RefKind{domain.RefCompany, domain.RefVenue, domain.RefAssociation} {
		t, _ := kind.EntityRef()
		st, ok := s.stores[t]
		if !ok {
			continue
		}
		names, err := st.Names(ctx)
		if err != nil {
			return nil, err
		}
		for id, name := range names {
			refs.Add(kind, id, name)
		}
	}

	if s.cache != nil {
		s.cache.SetIfGeneration(refsCacheKey, refs, gen)
	}
	return refs, nil
}

func (s *directoryService) mutated(ctx context.Context, t domain.EntityType, id string, ct domain.ChangeType, actor Actor) {
	s.invalidate(t)
	event := dto.ReviewEvent{
		Entity:     string(t),
		ID:         id,
		ChangeType: string(ct),
		UserID:     actor.UserID,
	}
	if actor.Admin {
		s.metrics.Direct(string(t), string(ct))
		event.Event = dto.EventDirectMutation
		event.AdminID = actor.UserID
	} else {
		s.metrics.Proposed(string(t), string(ct))
		event.Event = dto.EventReviewProposed
	}
	s.publish(ctx, event)
}

func (s *directoryService) invalidate(t domain.EntityType) {
	if s.cache == nil {
		return
	}
	switch t {
	case domain.EntityCompany, domain.EntityVenue, domain.EntityAssociation:
		// their names feed the reference set, which every list renders with
		s.cache.InvalidatePrefix(refsCacheKey)
		s.cache.InvalidatePrefix(listKeyRoot)
	default:
		s.cache.InvalidatePrefix(listPrefix(t))
	}
}

// publish never fails the request; a dropped event is only logged.
func (s *directoryService) publish(ctx context.Context, event dto.ReviewEvent) {
	if s.producer == nil {
		return
	}
	event.At = s.now().UTC()
	payload, err := json.Marshal(event)
	if err != nil {
		logrus.WithError(err).Error("marshal review event")
		return
	}
	if err := s.producer.PublishMessage(ctx, []byte(event.Event), payload); err != nil {
		logrus.WithFields(logrus.Fields{
			"event":  event.Event,
			"entity": event.Entity,
			"id":     event.ID,
		}).WithError(err).Warn("publish review event failed")
	}
}
