package domain

type KeyContact struct {
	Entity
	ContactName      string `gorm:"type:varchar(255);not null;index" json:"contact_name"`
	Mobile           string `gorm:"type:varchar(20)" json:"mobile"`
	Email            string `gorm:"type:varchar(255)" json:"email"`
	State            string `gorm:"type:varchar(64);index" json:"state"`
	OrganizerCompany string `gorm:"type:varchar(64);index" json:"organizer_company"`
	Venue            string `gorm:"type:varchar(64);index" json:"venue"`
	Association      string `gorm:"type:varchar(64);index" json:"association"`
	Review
}

func (KeyContact) TableName() string { return "key_contacts" }

func (*KeyContact) EntityType() EntityType { return EntityKeyContact }
