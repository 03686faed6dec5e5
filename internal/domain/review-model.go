package domain

import (
	"encoding/json"
	"time"
)

type AdminStatus string

const (
	AdminStatusPending  AdminStatus = "pending"
	AdminStatusApproved AdminStatus = "approved"
	AdminStatusRejected AdminStatus = "rejected"
)

func (s AdminStatus) Valid() bool {
	switch s {
	case AdminStatusPending, AdminStatusApproved, AdminStatusRejected:
		return true
	}
	return false
}

// RecordStatus is the lifecycle flag of a record, independent of review state.
type RecordStatus string

const (
	RecordStatusActive   RecordStatus = "active"
	RecordStatusInactive RecordStatus = "inactive"
)

type ChangeType string

const (
	ChangeCreate ChangeType = "create"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// ChangeSet is the single open proposal attached to a pending record.
type ChangeSet struct {
	Type          ChangeType     `json:"type"`
	Fields        []string       `json:"fields"`
	UpdatedValues map[string]any `json:"updated_values,omitempty"`
	UserID        string         `json:"user_id"`
	Date          time.Time      `json:"date"`
}

// JSON encodes the change-set the way the changes column stores it.
func (c ChangeSet) JSON() (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Review is embedded by every directory record. Changes is non-nil iff
// AdminStatus is pending.
type Review struct {
	Status      RecordStatus `gorm:"type:varchar(20);not null;default:active" json:"status"`
	AdminStatus AdminStatus  `gorm:"type:varchar(20);not null;default:pending;index" json:"adminStatus"`
	Changes     *ChangeSet   `gorm:"type:text;serializer:json" json:"changes,omitempty"`
}

func (r *Review) ReviewState() *Review {
	return r
}

// Pending reports whether a change-set is currently open.
func (r *Review) Pending() bool {
	return r.AdminStatus == AdminStatusPending && r.Changes != nil
}

// Transition is the outcome of an admin decision on a pending record.
type Transition struct {
	ChangeType ChangeType     `json:"change_type"`
	Decision   Decision       `json:"decision"`
	Next       AdminStatus    `json:"next"`
	Delete     bool           `json:"delete"`
	Apply      map[string]any `json:"apply,omitempty"`
	Dropped    []string       `json:"dropped,omitempty"`
	ProposerID string         `json:"proposer_id,omitempty"`
}

// Decider computes the transition for a locked pending record.
type Decider func(Record) (Transition, error)
