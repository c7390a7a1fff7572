package domain

type Medicine struct {
	ID          int64   `db:"id" json:"id"`
	BrandName   string  `db:"brand_name" json:"brand_name"`
	GenericName *string `db:"generic_name" json:"generic_name"`
	Form        *string `db:"form" json:"form"`
	Strength    *string `db:"strength" json:"strength"`
	CreatedAt   string  `db:"created_at" json:"created_at,omitempty"`
}
