package store

import (
	"context"

	"github.com/pkg/errors"

	"github.com/arihooper/Pharmfind/domain"
	"github.com/arihooper/Pharmfind/internal/apperr"
)

const medicineColumns = `id, brand_name, generic_name, form, strength, created_at`

// ListMedicines pages through the catalog ordered by brand name.
func (s *Store) ListMedicines(ctx context.Context, limit, offset int) ([]domain.Medicine, error) {
	meds := []domain.Medicine{}
	err := s.selectAll(ctx, &meds, `SELECT `+medicineColumns+` FROM medicines
		ORDER BY brand_name, id
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "select medicines")
	}
	return meds, nil
}

func (s *Store) MedicineByID(ctx context.Context, id int64) (domain.Medicine, error) {
	var m domain.Medicine
	err := s.get(ctx, &m, `SELECT `+medicineColumns+` FROM medicines WHERE id = ?`, id)
	if err != nil {
		return domain.Medicine{}, notFound(err, "Medicine not found", "select medicine")
	}
	return m, nil
}

// CreateMedicine adds a catalog entry. Unset optional fields are stored empty.
func (s *Store) CreateMedicine(ctx context.Context, m domain.Medicine) (domain.Medicine, error) {
	var created domain.Medicine
	err := s.get(ctx, &created, `INSERT INTO medicines (brand_name, generic_name, form, strength)
		VALUES (?, ?, ?, ?)
		RETURNING `+medicineColumns,
		m.BrandName, deref(m.GenericName), deref(m.Form), deref(m.Strength))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Medicine{}, apperr.Conflict("Medicine already exists").WithCause(err)
		}
		return domain.Medicine{}, errors.Wrap(err, "insert medicine")
	}
	return created, nil
}
