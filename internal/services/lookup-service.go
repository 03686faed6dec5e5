package services

import (
	"context"
	"strings"

	"github.com/SundayYogurt/directory_service/internal/apperr"
	"github.com/SundayYogurt/directory_service/internal/cache"
	"github.com/SundayYogurt/directory_service/internal/domain"
	"github.com/SundayYogurt/directory_service/internal/dto"
	"github.com/SundayYogurt/directory_service/internal/repository"
	"github.com/sirupsen/logrus"
)

type LookupService interface {
	List(ctx context.Context, kind string) ([]domain.Lookup, error)
	Create(ctx context.Context, input dto.LookupCreateRequest) (*domain.Lookup, error)
}

type lookupService struct {
	repo  repository.LookupRepository
	cache *cache.Cache
}

// NewLookupService shares listCache with the directory service so new
// lookup names show up in rendered records.
func NewLookupService(repo repository.LookupRepository, listCache *cache.Cache) LookupService {
	return &lookupService{repo: repo, cache: listCache}
}

func (s *lookupService) List(ctx context.Context, kind string) ([]domain.Lookup, error) {
	k, ok := domain.ParseLookupKind(kind)
	if !ok {
		return nil, apperr.NotFound("lookup kind", kind)
	}
	return s.repo.ListByKind(ctx, k)
}

func (s *lookupService) Create(ctx context.Context, input dto.LookupCreateRequest) (*domain.Lookup, error) {
	problems := map[string]string{}
	k, ok := domain.ParseLookupKind(input.Kind)
	if !ok {
		problems["kind"] = "unknown lookup kind"
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		problems["name"] = "is required"
	}
	if len(problems) > 0 {
		return nil, apperr.Validation(problems)
	}

	l := &domain.Lookup{Kind: k, Name: name}
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Clear()
	}
	logrus.WithFields(logrus.Fields{"kind": k, "id": l.ID}).Info("lookup created")
	return l, nil
}
