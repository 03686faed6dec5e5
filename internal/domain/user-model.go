package domain

import "gorm.io/gorm"

type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `json:"-"`
	DisplayName  string `json:"display_name"`
	Status       string `gorm:"type:varchar(20);not null;default:active" json:"status"`
	gorm.Model
}
