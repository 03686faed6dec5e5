package domain

type Association struct {
	Entity
	AssociationName string `gorm:"type:varchar(255);not null;index" json:"association_name"`
	Website         string `gorm:"type:varchar(500)" json:"website"`
	City            string `gorm:"type:varchar(120)" json:"city"`
	State           string `gorm:"type:varchar(64);index" json:"state"`
	Address         string `gorm:"type:text" json:"address"`
	AssociationType string `gorm:"type:varchar(64)" json:"association_type"`
	Review
}

func (Association) TableName() string { return "associations" }

func (*Association) EntityType() EntityType { return EntityAssociation }
