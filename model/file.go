// Package model defines database models
package model

import "time"

type File struct {
	ID     string `gorm:"primaryKey" json:"id"`
	UserID string `gorm:"not null;uniqueIndex:user_file_path" json:"-"`

	// Logical name as the user uploaded it. Different users may own files
	// with the same name, the physical location is namespaced per user
	Name string `gorm:"not null;uniqueIndex:user_file_path" json:"name"`

	// Logical directory below the user's storage root, empty means root
	PathDir string `gorm:"uniqueIndex:user_file_path" json:"path_dir"`

	Size         int64     `gorm:"not null" json:"size"`
	Downloadable bool      `gorm:"default:true" json:"is_downloadable"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
