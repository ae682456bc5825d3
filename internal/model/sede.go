package model

import "github.com/google/uuid"

// Sede is a physical clinic location owned by a company.
type Sede struct {
	Base
	CompanyID    string         `db:"company_id" json:"companyId,omitempty"`
	Name         string         `db:"name" json:"name"`
	Address      string         `db:"address" json:"address,omitempty"`
	Phone        string         `db:"phone" json:"phone,omitempty"`
	Email        string         `db:"email" json:"email,omitempty"`
	WhatsApp     string         `db:"whatsapp" json:"whatsapp,omitempty"`
	Availability WeeklySchedule `db:"availability" json:"availability"`
	// LocalOnly marks a sede whose identity was generated locally after the
	// durable store refused the insert.
	LocalOnly bool `db:"-" json:"localOnly,omitempty"`
}

// Clone deep-copies the availability map.
func (s *Sede) Clone() *Sede {
	c := *s
	c.Availability = s.Availability.Clone()
	return &c
}

// SedeDetails are the editable display and contact fields.
type SedeDetails struct {
	CompanyID string `json:"companyId"`
	Name      string `json:"name" binding:"required,max=120"`
	Address   string `json:"address" binding:"max=255"`
	Phone     string `json:"phone" binding:"max=40"`
	Email     string `json:"email" binding:"omitempty,email"`
	WhatsApp  string `json:"whatsapp" binding:"max=40"`
}

// Apply copies the details onto s.
func (d SedeDetails) Apply(s *Sede) {
	s.CompanyID = d.CompanyID
	s.Name = d.Name
	s.Address = d.Address
	s.Phone = d.Phone
	s.Email = d.Email
	s.WhatsApp = d.WhatsApp
}

// DefaultSedes is the built-in directory used when the store has nothing.
func DefaultSedes() []*Sede {
	return []*Sede{
		{
			Base:         Base{ID: uuid.MustParse("00000000-0000-0000-0000-000000000001")},
			Name:         "Sede Principal",
			Availability: DefaultWeeklySchedule(),
		},
	}
}
