package approval

import (
	"context"

	"github.com/SundayYogurt/directory_service/internal/apperr"
	"github.com/SundayYogurt/directory_service/internal/domain"
	"github.com/sirupsen/logrus"
)

// Store applies a transition atomically. decide runs against the locked
// row; the returned record is nil when the transition deleted it.
type Store interface {
	Resolve(ctx context.Context, id, adminID string, decide domain.Decider) (domain.Record, domain.Transition, error)
}

type Resolution struct {
	Entity     domain.EntityType `json:"entity"`
	ID         string            `json:"id"`
	Decision   domain.Decision   `json:"decision"`
	ChangeType domain.ChangeType `json:"change_type"`
	Deleted    bool              `json:"deleted"`
	ProposerID string            `json:"proposer_id,omitempty"`
	Record     domain.Record     `json:"record,omitempty"`
}

type Resolver struct {
	stores map[domain.EntityType]Store
}

func NewResolver(stores map[domain.EntityType]Store) *Resolver {
	return &Resolver{stores: stores}
}

// Resolve fires exactly one transition on the pending record or fails
// without mutating it.
func (r *Resolver) Resolve(ctx context.Context, t domain.EntityType, id string, decision string, adminID string) (Resolution, error) {
	d, err := ParseDecision(decision)
	if err != nil {
		return Resolution{}, err
	}
	store, ok := r.stores[t]
	if !ok {
		return Resolution{}, apperr.NotFound("entity type", string(t))
	}

	log := logrus.WithFields(logrus.Fields{
		"entity":   t,
		"id":       id,
		"decision": d,
		"admin_id": adminID,
	})

	rec, tr, err := store.Resolve(ctx, id, adminID, func(locked domain.Record) (domain.Transition, error) {
		tr, err := Next(locked, d)
		if err != nil {
			return tr, err
		}
		if len(tr.Dropped) > 0 {
			log.WithField("dropped", tr.Dropped).Warn("dropping unknown updated values during merge")
		}
		return tr, nil
	})
	if err != nil {
		return Resolution{}, err
	}

	log.WithFields(logrus.Fields{
		"change_type": tr.ChangeType,
		"deleted":     tr.Delete,
	}).Info("change resolved")

	return Resolution{
		Entity:     t,
		ID:         id,
		Decision:   d,
		ChangeType: tr.ChangeType,
		Deleted:    tr.Delete,
		ProposerID: tr.ProposerID,
		Record:     rec,
	}, nil
}
