package model

import (
	"time"

	"gorm.io/gorm"
)

// Layouts for the date and time-of-day fields as they travel over the API.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
	// PeriodLayout is the year-month reporting bucket derived from Date.
	PeriodLayout = "200601"
)

// ActeType enumerates the kinds of client interaction an entry can log.
type ActeType string

const (
	ActeGestionSinistre ActeType = "Gestion sinistre"
	ActeProduction      ActeType = "Production"
	ActeBlocRetour      ActeType = "Bloc retour"
)

// ActeTypes returns the known acte types in display order.
func ActeTypes() []ActeType {
	return []ActeType{ActeGestionSinistre, ActeProduction, ActeBlocRetour}
}

// Valid reports whether the acte type is one of the known kinds.
func (t ActeType) Valid() bool {
	switch t {
	case ActeGestionSinistre, ActeProduction, ActeBlocRetour:
		return true
	}
	return false
}

// Entry represents one logged unit of time spent on a client interaction.
// Entries are immutable after creation; corrections go through delete.
type Entry struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Date        time.Time `json:"-" gorm:"type:date;not null;index:idx_entry_user_date,priority:2;index:idx_entry_courtier_date,priority:2"`
	Time        string    `json:"time" gorm:"type:time;not null"`
	Period      string    `json:"period" gorm:"type:char(6);not null;index:idx_entry_period_user,priority:1"`
	UserID      uint      `json:"user_id" gorm:"not null;index:idx_entry_user_date,priority:1;index:idx_entry_period_user,priority:2"`
	CourtierID  uint      `json:"courtier_id" gorm:"not null;index:idx_entry_courtier_date,priority:1"`
	Minutes     int       `json:"minutes" gorm:"not null"`
	ActeType    ActeType  `json:"acte_type" gorm:"type:varchar(30);not null;index"`
	ActeGestion string    `json:"acte_de_gestion,omitempty" gorm:"column:acte_de_gestion;size:200"`
	Dossier     string    `json:"dossier,omitempty" gorm:"size:100"`
	ClientName  string    `json:"client_name" gorm:"size:255;index"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`

	// Relations
	User     User     `json:"-" gorm:"foreignKey:UserID"`
	Courtier Courtier `json:"-" gorm:"foreignKey:CourtierID"`
}

// BeforeSave derives Period from Date so the two can never drift.
func (e *Entry) BeforeSave(tx *gorm.DB) error {
	e.Period = e.Date.Format(PeriodLayout)
	return nil
}

// EntryView is the wire representation of an entry: dates rendered in API
// layouts and the referenced names resolved for display.
type EntryView struct {
	ID           uint     `json:"id"`
	Date         string   `json:"date"`
	Time         string   `json:"time"`
	Period       string   `json:"period"`
	UserID       uint     `json:"user_id"`
	UserName     string   `json:"user_name,omitempty"`
	CourtierID   uint     `json:"courtier_id"`
	CourtierName string   `json:"courtier_name,omitempty"`
	Minutes      int      `json:"minutes"`
	ActeType     ActeType `json:"acte_type"`
	ActeGestion  string   `json:"acte_de_gestion,omitempty"`
	Dossier      string   `json:"dossier,omitempty"`
	ClientName   string   `json:"client_name"`
	Description  string   `json:"description,omitempty"`
	CreatedAt    string   `json:"created_at"`
}

// View renders the entry for API responses and push events. Relation names
// are filled when the association was preloaded.
func (e *Entry) View() EntryView {
	return EntryView{
		ID:           e.ID,
		Date:         e.Date.Format(DateLayout),
		Time:         e.Time,
		Period:       e.Period,
		UserID:       e.UserID,
		UserName:     e.User.FullName,
		CourtierID:   e.CourtierID,
		CourtierName: e.Courtier.Name,
		Minutes:      e.Minutes,
		ActeType:     e.ActeType,
		ActeGestion:  e.ActeGestion,
		Dossier:      e.Dossier,
		ClientName:   e.ClientName,
		Description:  e.Description,
		CreatedAt:    e.CreatedAt.UTC().Format(time.RFC3339),
	}
}
