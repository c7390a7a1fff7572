package store

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"

	"github.com/arihooper/Pharmfind/domain"
	"github.com/arihooper/Pharmfind/internal/apperr"
	"github.com/arihooper/Pharmfind/internal/geo"
)

const pharmacyColumns = `id, owner_id, name, latitude, longitude, address, contact_phone, created_at`

// PharmacyUpdate carries optional profile changes; nil fields are kept.
type PharmacyUpdate struct {
	Name         *string
	Latitude     *float64
	Longitude    *float64
	Address      *string
	ContactPhone *string
}

// Proximity restricts a listing to a circle around Center.
type Proximity struct {
	Center   orb.Point
	RadiusKm float64
}

// CreatePharmacy stores p for its owner. An owner may hold one pharmacy.
func (s *Store) CreatePharmacy(ctx context.Context, p domain.Pharmacy) (domain.Pharmacy, error) {
	var created domain.Pharmacy
	err := s.get(ctx, &created, `INSERT INTO pharmacies (owner_id, name, latitude, longitude, address, contact_phone)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING `+pharmacyColumns,
		p.OwnerID, p.Name, p.Latitude, p.Longitude, p.Address, p.ContactPhone)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Pharmacy{}, apperr.Conflict("Pharmacy already exists for this account").WithCause(err)
		}
		return domain.Pharmacy{}, errors.Wrap(err, "insert pharmacy")
	}
	return created, nil
}

// PharmacyByOwner resolves the pharmacy owned by userID.
func (s *Store) PharmacyByOwner(ctx context.Context, userID int64) (domain.Pharmacy, error) {
	var p domain.Pharmacy
	err := s.get(ctx, &p, `SELECT `+pharmacyColumns+` FROM pharmacies WHERE owner_id = ?`, userID)
	if err != nil {
		return domain.Pharmacy{}, notFound(err, "No pharmacy associated with this account", "select pharmacy by owner")
	}
	return p, nil
}

// PharmacyDetail returns the pharmacy with its owner's name and email.
func (s *Store) PharmacyDetail(ctx context.Context, id int64) (domain.PharmacyDetail, error) {
	var d domain.PharmacyDetail
	err := s.get(ctx, &d, `SELECT p.id, p.owner_id, p.name, p.latitude, p.longitude, p.address,
			p.contact_phone, p.created_at, u.name AS owner_name, u.email AS owner_email
		FROM pharmacies p
		LEFT JOIN users u ON u.id = p.owner_id
		WHERE p.id = ?`, id)
	if err != nil {
		return domain.PharmacyDetail{}, notFound(err, "Pharmacy not found", "select pharmacy detail")
	}
	return d, nil
}

// UpdatePharmacy applies upd to the pharmacy owned by ownerID.
func (s *Store) UpdatePharmacy(ctx context.Context, ownerID int64, upd PharmacyUpdate) (domain.Pharmacy, error) {
	var p domain.Pharmacy
	err := s.get(ctx, &p, `UPDATE pharmacies SET
			name = COALESCE(?, name),
			latitude = COALESCE(?, latitude),
			longitude = COALESCE(?, longitude),
			address = COALESCE(?, address),
			contact_phone = COALESCE(?, contact_phone)
		WHERE owner_id = ?
		RETURNING `+pharmacyColumns,
		upd.Name, upd.Latitude, upd.Longitude, upd.Address, upd.ContactPhone, ownerID)
	if err != nil {
		return domain.Pharmacy{}, notFound(err, "No pharmacy associated with this account", "update pharmacy")
	}
	return p, nil
}

// ListPharmacies lists pharmacies by name, or nearest first when near is set.
// With near set, pharmacies without coordinates are left out.
func (s *Store) ListPharmacies(ctx context.Context, near *Proximity) ([]domain.NearbyPharmacy, error) {
	query := `SELECT ` + pharmacyColumns + ` FROM pharmacies`
	var (
		clauses []string
		args    []interface{}
	)
	if near != nil {
		clauses, args = boundClauses("", near.Center, near.RadiusKm)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY name, id"

	var rows []domain.Pharmacy
	if err := s.selectAll(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "select pharmacies")
	}

	out := make([]domain.NearbyPharmacy, 0, len(rows))
	for _, p := range rows {
		entry := domain.NearbyPharmacy{Pharmacy: p}
		if near != nil {
			loc, ok := p.Location()
			if !ok {
				continue
			}
			d := geo.DistanceKm(near.Center, loc)
			if d > near.RadiusKm {
				continue
			}
			entry.DistanceKm = &d
		}
		out = append(out, entry)
	}
	if near != nil {
		slices.SortStableFunc(out, func(a, b domain.NearbyPharmacy) int {
			return cmp.Compare(*a.DistanceKm, *b.DistanceKm)
		})
	}
	return out, nil
}

// boundClauses returns the SQL prefilter for points within radiusKm of
// center: coordinates must be present and, when the box does not wrap, inside
// it. prefix qualifies the columns, e.g. "p.".
func boundClauses(prefix string, center orb.Point, radiusKm float64) ([]string, []interface{}) {
	clauses := []string{
		prefix + "latitude IS NOT NULL",
		prefix + "longitude IS NOT NULL",
	}
	b, ok := geo.Bound(center, radiusKm)
	if !ok {
		return clauses, nil
	}
	clauses = append(clauses,
		prefix+"latitude BETWEEN ? AND ?",
		prefix+"longitude BETWEEN ? AND ?",
	)
	return clauses, []interface{}{b.Min.Lat(), b.Max.Lat(), b.Min.Lon(), b.Max.Lon()}
}
