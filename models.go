// models.go this is our database models
package main

import "time"

// Base holds the auto-increment primary key shared by every table.
type Base struct {
	ID uint `gorm:"primaryKey" json:"id"`
}

func (b *Base) Key() uint      { return b.ID }
func (b *Base) SetKey(id uint) { b.ID = id }

type AdminAccount struct {
	Base
	Name         string `gorm:"size:255;not null" json:"name" validate:"required"`
	Email        string `gorm:"size:255;not null;uniqueIndex" json:"email" validate:"required,email"`
	Phone        string `gorm:"column:number;size:15;not null" json:"number" validate:"required"`
	NationalID   string `gorm:"column:cnic;size:15;not null" json:"cnic" validate:"required"`
	PasswordHash string `gorm:"column:password;size:255;not null" json:"-"`
}

func (AdminAccount) TableName() string { return "admin" }

type Skill struct {
	Base
	Label      string `gorm:"column:skill;size:255;not null" json:"skill" validate:"required"`
	Percentage int    `gorm:"not null" json:"percentage" validate:"required"`
}

func (Skill) TableName() string { return "skills" }

type EducationEntry struct {
	Base
	Name        string `gorm:"size:255;not null" json:"name" validate:"required"`
	Description string `gorm:"type:text;not null" json:"description" validate:"required"`
}

func (EducationEntry) TableName() string { return "education" }

type ProjectEntry struct {
	Base
	Name     string `gorm:"size:255;not null" json:"name" validate:"required"`
	ImageURL string `gorm:"column:image_path;size:255;not null" json:"image_path" validate:"required"`
	Link     string `gorm:"size:255;not null" json:"link" validate:"required"`
}

func (ProjectEntry) TableName() string { return "project_manager" }

type ContactMessage struct {
	Base
	Name        string    `gorm:"size:255;not null" json:"name" validate:"required"`
	Email       string    `gorm:"size:255;not null" json:"email" validate:"required"`
	Description string    `gorm:"type:text;not null" json:"description" validate:"required"`
	SubmittedAt time.Time `gorm:"column:date" json:"date"`
}

func (ContactMessage) TableName() string { return "contact" }
