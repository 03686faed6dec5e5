// Package approval implements the admin decision state machine over
// pending change-sets.
package approval

import (
	"sort"
	"strings"

	"github.com/SundayYogurt/directory_service/internal/apperr"
	"github.com/SundayYogurt/directory_service/internal/domain"
	"github.com/SundayYogurt/directory_service/internal/schema"
)

func ParseDecision(s string) (domain.Decision, error) {
	switch d := domain.Decision(strings.ToLower(strings.TrimSpace(s))); d {
	case domain.DecisionApprove, domain.DecisionReject:
		return d, nil
	}
	return "", apperr.Validation(map[string]string{"decision": "must be approve or reject"})
}

// Next computes the transition d triggers on rec without mutating it.
//
//	create/approve -> approved    create/reject -> deleted
//	update/approve -> approved, updated values merged
//	update/reject  -> approved    delete/approve -> deleted
//	delete/reject  -> approved
func Next(rec domain.Record, d domain.Decision) (domain.Transition, error) {
	if _, err := ParseDecision(string(d)); err != nil {
		return domain.Transition{}, err
	}
	rv := rec.ReviewState()
	if rv.Changes == nil || rv.AdminStatus != domain.AdminStatusPending {
		return domain.Transition{}, apperr.NoPendingChange(string(rec.EntityType()), rec.Base().ID)
	}

	tr := domain.Transition{
		ChangeType: rv.Changes.Type,
		Decision:   d,
		Next:       domain.AdminStatusApproved,
		ProposerID: rv.Changes.UserID,
	}
	approve := d == domain.DecisionApprove

	switch rv.Changes.Type {
	case domain.ChangeCreate:
		tr.Delete = !approve
	case domain.ChangeDelete:
		tr.Delete = approve
	case domain.ChangeUpdate:
		if approve {
			tbl, err := schema.For(rec.EntityType())
			if err != nil {
				return domain.Transition{}, err
			}
			tr.Apply, tr.Dropped = Merge(tbl, rv.Changes.UpdatedValues)
		}
	default:
		return domain.Transition{}, apperr.Invalid("unknown change type " + string(rv.Changes.Type))
	}
	if tr.Delete {
		tr.Next = ""
	}
	return tr, nil
}

// Merge converts staged values into column values. Keys the table does not
// accept for update, or values that no longer normalize, are dropped.
func Merge(tbl *schema.Table, values map[string]any) (map[string]any, []string) {
	apply := make(map[string]any, len(values))
	var dropped []string
	for key, raw := range values {
		if !tbl.Updatable(key) {
			dropped = append(dropped, key)
			continue
		}
		fd, _ := tbl.Descriptor(key)
		v, err := schema.Normalize(fd, raw)
		if err != nil {
			dropped = append(dropped, key)
			continue
		}
		col, err := schema.ColumnValue(fd, v)
		if err != nil {
			dropped = append(dropped, key)
			continue
		}
		apply[key] = col
	}
	sort.Strings(dropped)
	return apply, dropped
}
