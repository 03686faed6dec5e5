package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EntityType string

const (
	EntityAssociation EntityType = "association"
	EntityCompany     EntityType = "company"
	EntityConference  EntityType = "conference"
	EntityExhibition  EntityType = "exhibition"
	EntityVenue       EntityType = "venue"
	EntityKeyContact  EntityType = "keycontact"
)

var EntityTypes = []EntityType{
	EntityAssociation,
	EntityCompany,
	EntityConference,
	EntityExhibition,
	EntityVenue,
	EntityKeyContact,
}

func ParseEntityType(s string) (EntityType, bool) {
	t := EntityType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range EntityTypes {
		if t == known {
			return t, true
		}
	}
	return "", false
}

// Plural is the list key used by list responses, e.g. "venues".
func (t EntityType) Plural() string {
	if t == EntityCompany {
		return "companies"
	}
	return string(t) + "s"
}

// Record is implemented by the six directory models.
type Record interface {
	EntityType() EntityType
	Base() *Entity
	ReviewState() *Review
}

// Entity holds the bookkeeping columns shared by directory records.
type Entity struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Version   int       `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (e *Entity) Base() *Entity {
	return e
}

func (e *Entity) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Version == 0 {
		e.Version = 1
	}
	return nil
}

// NewRecord returns an empty model for the entity type.
func NewRecord(t EntityType) (Record, bool) {
	switch t {
	case EntityAssociation:
		return &Association{}, true
	case EntityCompany:
		return &Company{}, true
	case EntityConference:
		return &Conference{}, true
	case EntityExhibition:
		return &Exhibition{}, true
	case EntityVenue:
		return &Venue{}, true
	case EntityKeyContact:
		return &KeyContact{}, true
	}
	return nil, false
}
