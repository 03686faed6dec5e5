package domain

import "time"

// EventDetails is the shape shared by conferences and exhibitions.
type EventDetails struct {
	FullName            string     `gorm:"type:varchar(255);not null;index" json:"full_name"`
	ShortName           string     `gorm:"type:varchar(120)" json:"short_name"`
	StartDate           *time.Time `gorm:"type:date" json:"start_date"`
	EndDate             *time.Time `gorm:"type:date;index" json:"end_date"`
	Month               string     `gorm:"type:varchar(64)" json:"month"`
	Year                string     `gorm:"type:varchar(64)" json:"year"`
	Time                string     `gorm:"type:varchar(64)" json:"time"`
	Fee                 string     `gorm:"type:varchar(64)" json:"fee"`
	City                string     `gorm:"type:varchar(120)" json:"city"`
	State               string     `gorm:"type:varchar(64);index" json:"state"`
	Venue               string     `gorm:"type:varchar(64);index" json:"venue"`
	Website             string     `gorm:"type:varchar(500)" json:"website"`
	Frequency           string     `gorm:"type:varchar(64)" json:"frequency"`
	OrganizerCompany    string     `gorm:"type:varchar(64);index" json:"organizer_company"`
	Segment             string     `gorm:"type:varchar(64)" json:"segment"`
	NationalAssociation string     `gorm:"type:varchar(64)" json:"national_association"`
	HostingAssociation  string     `gorm:"type:varchar(64)" json:"hosting_association"`
	Logo                string     `gorm:"type:varchar(500)" json:"logo"`
	Featured            bool       `gorm:"not null;default:false" json:"featured"`
}

// Expired reports whether the event ended before the given day.
func (e *EventDetails) Expired(now time.Time) bool {
	if e.EndDate == nil {
		return false
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return e.EndDate.UTC().Before(today)
}

// StatusAt is the lifecycle status of rec on the given day. Conferences and
// exhibitions whose end date has passed read as inactive.
func StatusAt(rec Record, now time.Time) RecordStatus {
	rv := rec.ReviewState()
	if ev, ok := rec.(interface{ Expired(time.Time) bool }); ok && ev.Expired(now) {
		return RecordStatusInactive
	}
	if rv.Status == "" {
		return RecordStatusActive
	}
	return rv.Status
}

type Conference struct {
	Entity
	ConferenceType string `gorm:"type:varchar(64)" json:"conference_type"`
	EventDetails
	Review
}

func (Conference) TableName() string { return "conferences" }

func (*Conference) EntityType() EntityType { return EntityConference }

type Exhibition struct {
	Entity
	ExhibitionType string `gorm:"type:varchar(64)" json:"exhibition_type"`
	EventDetails
	ExhibitorProfile string `gorm:"type:text" json:"exhibitor_profile"`
	VisitorProfile   string `gorm:"type:text" json:"visitor_profile"`
	Review
}

func (Exhibition) TableName() string { return "exhibitions" }

func (*Exhibition) EntityType() EntityType { return EntityExhibition }
