package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RefKind names a reference collection a foreign-key field points into.
type RefKind string

const (
	RefState           RefKind = "state"
	RefSegment         RefKind = "segment"
	RefCompanyType     RefKind = "company_type"
	RefAssociationType RefKind = "association_type"
	RefEventType       RefKind = "event_type"
	RefMonth           RefKind = "month"
	RefYear            RefKind = "year"
	RefFee             RefKind = "fee"

	// entity backed collections
	RefCompany     RefKind = "company"
	RefVenue       RefKind = "venue"
	RefAssociation RefKind = "association"
)

// LookupKinds are the admin managed lookup collections stored in lookups.
var LookupKinds = []RefKind{
	RefState,
	RefSegment,
	RefCompanyType,
	RefAssociationType,
	RefEventType,
	RefMonth,
	RefYear,
	RefFee,
}

func ParseLookupKind(s string) (RefKind, bool) {
	k := RefKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range LookupKinds {
		if k == known {
			return k, true
		}
	}
	return "", false
}

// EntityRef maps an entity backed collection to its entity type.
func (k RefKind) EntityRef() (EntityType, bool) {
	switch k {
	case RefCompany:
		return EntityCompany, true
	case RefVenue:
		return EntityVenue, true
	case RefAssociation:
		return EntityAssociation, true
	}
	return "", false
}

type Lookup struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Kind      RefKind   `gorm:"type:varchar(40);not null;uniqueIndex:uidx_lookups_kind_name" json:"kind"`
	Name      string    `gorm:"type:varchar(255);not null;uniqueIndex:uidx_lookups_kind_name" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// ReferenceSet holds id -> display name per collection.
type ReferenceSet map[RefKind]map[string]string

func (r ReferenceSet) Add(kind RefKind, id, name string) {
	if r[kind] == nil {
		r[kind] = map[string]string{}
	}
	r[kind][id] = name
}

func (r ReferenceSet) Name(kind RefKind, id string) (string, bool) {
	names, ok := r[kind]
	if !ok {
		return "", false
	}
	name, ok := names[id]
	return name, ok
}

func (l *Lookup) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
