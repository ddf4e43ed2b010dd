package models

import "time"

// Team is the group of participants behind a project.
type Team struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Project is a hackathon submission competing in one or more challenges.
type Project struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Title       string      `gorm:"size:255;not null" json:"title"`
	TagLine     string      `gorm:"size:512" json:"tag_line"`
	Description string      `gorm:"type:text" json:"description"`
	TeamID      uint        `gorm:"not null" json:"team_id"`
	Hidden      bool        `gorm:"not null;default:false" json:"hidden"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Team        Team        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"team"`
	Challenges  []Challenge `gorm:"many2many:project_challenges" json:"challenges,omitempty"`
}
