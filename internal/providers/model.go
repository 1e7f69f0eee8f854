// Package providers holds the public-facing doctor profiles: specialty,
// fees, languages, and the weekly availability template patients book
// against.
package providers

import (
	"strings"
	"time"
)

// Profile is a doctor's public listing.
type Profile struct {
	DoctorID        string    `json:"doctorId"`
	Specialty       string    `json:"specialty"`
	Bio             string    `json:"bio,omitempty"`
	YearsExperience int       `json:"yearsExperience"`
	FeeCents        int       `json:"consultationFee"`
	Languages       []string  `json:"languages,omitempty"`
	Location        string    `json:"location,omitempty"`
	Rating          float64   `json:"rating"`
	RatingCount     int       `json:"ratingCount"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// UpsertRequest is the body for creating or replacing the caller's profile.
type UpsertRequest struct {
	Specialty       string   `json:"specialty"`
	Bio             string   `json:"bio"`
	YearsExperience int      `json:"yearsExperience"`
	FeeCents        int      `json:"consultationFee"`
	Languages       []string `json:"languages"`
	Location        string   `json:"location"`
}

// Validate checks required fields and normalizes whitespace.
func (r *UpsertRequest) Validate() error {
	r.Specialty = strings.TrimSpace(r.Specialty)
	r.Bio = strings.TrimSpace(r.Bio)
	r.Location = strings.TrimSpace(r.Location)

	if r.Specialty == "" {
		return ErrMissingSpecialty
	}
	if r.YearsExperience < 0 || r.FeeCents < 0 {
		return ErrNegativeValue
	}
	for i, lang := range r.Languages {
		r.Languages[i] = strings.TrimSpace(lang)
	}
	return nil
}

// SearchFilter narrows profile listings. Zero values mean "no constraint".
type SearchFilter struct {
	Specialty string
	Location  string
	Language  string
	Limit     int
	Offset    int
}
