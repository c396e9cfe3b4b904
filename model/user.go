package model

type User struct {
	ID           string `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"unique;not null" json:"username"`
	Email        string `gorm:"unique;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Active       bool   `gorm:"default:true" json:"-"`

	Files []File `gorm:"foreignKey:UserID" json:"-"`
}
