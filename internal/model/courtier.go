package model

import "time"

// Courtier represents an insurance broker that entries are attributed to.
// Courtiers come from an external referential (Odoo) or are created by an
// admin; once entries reference one it can only be deactivated, not removed.
type Courtier struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;size:255;not null"`
	OdooID    *int      `json:"odoo_id,omitempty" gorm:"index"`
	IsActive  bool      `json:"is_active" gorm:"default:true;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
