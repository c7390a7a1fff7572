package domain

import "github.com/paulmach/orb"

type Pharmacy struct {
	ID           int64    `db:"id" json:"id"`
	OwnerID      *int64   `db:"owner_id" json:"owner_id,omitempty"`
	Name         string   `db:"name" json:"name"`
	Latitude     *float64 `db:"latitude" json:"latitude"`
	Longitude    *float64 `db:"longitude" json:"longitude"`
	Address      *string  `db:"address" json:"address"`
	ContactPhone *string  `db:"contact_phone" json:"contact_phone"`
	CreatedAt    string   `db:"created_at" json:"created_at"`
}

// Location returns the pharmacy coordinates, or false when either is unset.
func (p Pharmacy) Location() (orb.Point, bool) {
	if p.Latitude == nil || p.Longitude == nil {
		return orb.Point{}, false
	}
	return orb.Point{*p.Longitude, *p.Latitude}, true
}

// PharmacyDetail is a pharmacy joined with its owner's public identity.
type PharmacyDetail struct {
	Pharmacy
	OwnerName  *string `db:"owner_name" json:"owner_name"`
	OwnerEmail *string `db:"owner_email" json:"owner_email"`
}

// NearbyPharmacy is a pharmacy listing entry with its distance from the caller.
type NearbyPharmacy struct {
	Pharmacy
	DistanceKm *float64 `db:"-" json:"distance_km,omitempty"`
}
