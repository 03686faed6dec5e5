package domain

type Venue struct {
	Entity
	VenueName string `gorm:"type:varchar(255);not null;index" json:"venue_name"`
	City      string `gorm:"type:varchar(120)" json:"city"`
	State     string `gorm:"type:varchar(64);index" json:"state"`
	Address   string `gorm:"type:text" json:"address"`
	Phone     string `gorm:"type:varchar(20)" json:"phone"`
	Website   string `gorm:"type:varchar(500)" json:"website"`
	Map       string `gorm:"type:varchar(500)" json:"map"`
	Photo     string `gorm:"type:varchar(500)" json:"photo"`
	Layout    string `gorm:"type:varchar(500)" json:"layout"`
	Featured  bool   `gorm:"not null;default:false" json:"featured"`
	Review
}

func (Venue) TableName() string { return "venues" }

func (*Venue) EntityType() EntityType { return EntityVenue }
