package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"

	"github.com/arihooper/Pharmfind/domain"
	"github.com/arihooper/Pharmfind/internal/apperr"
	"github.com/arihooper/Pharmfind/internal/geo"
)

// SearchParams filters a medicine search. Near is optional.
type SearchParams struct {
	Query string
	Near  *Proximity
}

// UpsertInventory sets price and quantity for one medicine of a pharmacy in a
// single statement. The row is only written when the medicine exists;
// otherwise NOT_FOUND is returned.
func (s *Store) UpsertInventory(ctx context.Context, pharmacyID, medicineID int64, price float64, quantity int64) (domain.InventoryItem, error) {
	var item domain.InventoryItem
	err := s.get(ctx, &item, `INSERT INTO inventory (pharmacy_id, medicine_id, price, quantity)
		SELECT CAST(? AS INTEGER), m.id, CAST(? AS DOUBLE PRECISION), CAST(? AS INTEGER)
		FROM medicines m
		WHERE m.id = ?
		ON CONFLICT (pharmacy_id, medicine_id) DO UPDATE SET
			price = excluded.price,
			quantity = excluded.quantity,
			last_updated = CURRENT_TIMESTAMP
		RETURNING pharmacy_id, medicine_id, price, quantity, last_updated`,
		pharmacyID, price, quantity, medicineID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return domain.InventoryItem{}, apperr.NotFound("Medicine not found")
		}
		return domain.InventoryItem{}, errors.Wrap(err, "upsert inventory")
	}
	return item, nil
}

// PharmacyInventory lists a pharmacy's stock ordered by brand name. With
// inStockOnly, rows with no quantity are left out.
func (s *Store) PharmacyInventory(ctx context.Context, pharmacyID int64, inStockOnly bool) ([]domain.StockedMedicine, error) {
	query := `SELECT m.id, m.brand_name, m.generic_name, m.form, m.strength, m.created_at,
			i.price, i.quantity, i.last_updated
		FROM inventory i
		JOIN medicines m ON m.id = i.medicine_id
		WHERE i.pharmacy_id = ?`
	if inStockOnly {
		query += ` AND i.quantity > 0`
	}
	query += ` ORDER BY m.brand_name, m.id`

	items := []domain.StockedMedicine{}
	if err := s.selectAll(ctx, &items, query, pharmacyID); err != nil {
		return nil, errors.Wrap(err, "select pharmacy inventory")
	}
	return items, nil
}

// InventoryStats counts a pharmacy's stock by status and totals its value.
// Quantities at or below lowThreshold count as low stock.
func (s *Store) InventoryStats(ctx context.Context, pharmacyID, lowThreshold int64) (domain.InventoryStats, error) {
	var stats domain.InventoryStats
	err := s.get(ctx, &stats, `SELECT
			COUNT(*) AS total_medicines,
			COALESCE(SUM(CASE WHEN quantity > ? THEN 1 ELSE 0 END), 0) AS in_stock,
			COALESCE(SUM(CASE WHEN quantity > 0 AND quantity <= ? THEN 1 ELSE 0 END), 0) AS low_stock,
			COALESCE(SUM(CASE WHEN quantity <= 0 THEN 1 ELSE 0 END), 0) AS out_of_stock,
			COALESCE(SUM(price * quantity), 0) AS inventory_value
		FROM inventory
		WHERE pharmacy_id = ?`, lowThreshold, lowThreshold, pharmacyID)
	if err != nil {
		return domain.InventoryStats{}, errors.Wrap(err, "select inventory stats")
	}
	return stats, nil
}

// SearchMedicines finds in-stock offers whose brand or generic name contains
// the query, case-insensitively, cheapest first and most recently updated
// among equal prices. With Near set only offers within the radius are kept
// and each carries its distance.
func (s *Store) SearchMedicines(ctx context.Context, params SearchParams) ([]domain.SearchResult, error) {
	pattern := "%" + strings.ToLower(params.Query) + "%"
	clauses := []string{
		`i.quantity > 0`,
		`(LOWER(m.brand_name) LIKE ? OR LOWER(m.generic_name) LIKE ?)`,
	}
	args := []interface{}{pattern, pattern}
	if params.Near != nil {
		extra, extraArgs := boundClauses("p.", params.Near.Center, params.Near.RadiusKm)
		clauses = append(clauses, extra...)
		args = append(args, extraArgs...)
	}

	query := `SELECT m.id, m.brand_name, m.generic_name, m.form, m.strength,
			p.id AS pharmacy_id, p.name AS pharmacy_name, p.latitude, p.longitude,
			p.address, p.contact_phone, i.price, i.quantity, i.last_updated
		FROM inventory i
		JOIN medicines m ON m.id = i.medicine_id
		JOIN pharmacies p ON p.id = i.pharmacy_id
		WHERE ` + strings.Join(clauses, " AND ") + `
		ORDER BY i.price ASC, i.last_updated DESC`

	var rows []domain.SearchResult
	if err := s.selectAll(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "search medicines")
	}
	if params.Near == nil {
		if rows == nil {
			rows = []domain.SearchResult{}
		}
		return rows, nil
	}

	kept := make([]domain.SearchResult, 0, len(rows))
	for _, row := range rows {
		if row.Latitude == nil || row.Longitude == nil {
			continue
		}
		d := geo.DistanceKm(params.Near.Center, orb.Point{*row.Longitude, *row.Latitude})
		if d > params.Near.RadiusKm {
			continue
		}
		row.DistanceKm = &d
		kept = append(kept, row)
	}
	return kept, nil
}
