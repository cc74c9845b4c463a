package model

import "time"

// Category groups tasks by area (work, health, study, etc.).
type Category struct {
	ID        uint      `gorm:"primaryKey" yaml:"id"`
	UserID    uint      `gorm:"index:idx_user_category_name,unique" yaml:"user_id"`
	Name      string    `gorm:"index:idx_user_category_name,unique" yaml:"name"`
	CreatedAt time.Time `yaml:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at"`
	Tasks     []Task    `gorm:"foreignKey:CategoryID" yaml:"-"`
}
