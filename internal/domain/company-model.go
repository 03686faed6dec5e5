package domain

type Company struct {
	Entity
	CompanyName string `gorm:"type:varchar(255);not null;index" json:"company_name"`
	CompanyType string `gorm:"type:varchar(64)" json:"company_type"`
	City        string `gorm:"type:varchar(120)" json:"city"`
	State       string `gorm:"type:varchar(64);index" json:"state"`
	Address     string `gorm:"type:text" json:"address"`
	Phone       string `gorm:"type:varchar(20)" json:"phone"`
	Website     string `gorm:"type:varchar(500)" json:"website"`
	Map         string `gorm:"type:varchar(500)" json:"map"`
	Logo        string `gorm:"type:varchar(500)" json:"logo"`
	Featured    bool   `gorm:"not null;default:false" json:"featured"`
	UserID      string `gorm:"type:varchar(255);index" json:"user_id"`
	Password    string `gorm:"type:varchar(255)" json:"-"` // bcrypt hash
	Review
}

func (Company) TableName() string { return "companies" }

func (*Company) EntityType() EntityType { return EntityCompany }

func (c *Company) SetSecret(name, hashed string) {
	if name == "password" {
		c.Password = hashed
	}
}
