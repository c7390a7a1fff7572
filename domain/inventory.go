package domain

// Stock statuses shown on the dashboard inventory table.
const (
	StockIn  = "In Stock"
	StockLow = "Low Stock"
	StockOut = "Out of Stock"
)

type InventoryItem struct {
	PharmacyID  int64   `db:"pharmacy_id" json:"pharmacy_id"`
	MedicineID  int64   `db:"medicine_id" json:"medicine_id"`
	Price       float64 `db:"price" json:"price"`
	Quantity    int64   `db:"quantity" json:"quantity"`
	LastUpdated string  `db:"last_updated" json:"last_updated"`
}

// StockedMedicine is a catalog entry together with one pharmacy's stock of it.
type StockedMedicine struct {
	Medicine
	Price       float64 `db:"price" json:"price"`
	Quantity    int64   `db:"quantity" json:"quantity"`
	LastUpdated string  `db:"last_updated" json:"last_updated"`
	Status      string  `db:"-" json:"status,omitempty"`
}

// StockStatus classifies a quantity against the low stock threshold.
func StockStatus(quantity, lowThreshold int64) string {
	switch {
	case quantity <= 0:
		return StockOut
	case quantity <= lowThreshold:
		return StockLow
	default:
		return StockIn
	}
}

// SearchResult is one flattened medicine/pharmacy/price row of a search.
type SearchResult struct {
	ID           int64    `db:"id" json:"id"`
	BrandName    string   `db:"brand_name" json:"brand_name"`
	GenericName  *string  `db:"generic_name" json:"generic_name"`
	Form         *string  `db:"form" json:"form"`
	Strength     *string  `db:"strength" json:"strength"`
	PharmacyID   int64    `db:"pharmacy_id" json:"pharmacy_id"`
	PharmacyName string   `db:"pharmacy_name" json:"pharmacy_name"`
	Latitude     *float64 `db:"latitude" json:"latitude"`
	Longitude    *float64 `db:"longitude" json:"longitude"`
	Address      *string  `db:"address" json:"address"`
	ContactPhone *string  `db:"contact_phone" json:"contact_phone"`
	Price        float64  `db:"price" json:"price"`
	Quantity     int64    `db:"quantity" json:"quantity"`
	LastUpdated  string   `db:"last_updated" json:"last_updated"`
	DistanceKm   *float64 `db:"-" json:"distance_km,omitempty"`
}

// InventoryStats are the counters shown on the pharmacy dashboard.
type InventoryStats struct {
	TotalMedicines int64   `db:"total_medicines" json:"total_medicines"`
	InStock        int64   `db:"in_stock" json:"in_stock"`
	LowStock       int64   `db:"low_stock" json:"low_stock"`
	OutOfStock     int64   `db:"out_of_stock" json:"out_of_stock"`
	InventoryValue float64 `db:"inventory_value" json:"inventory_value"`
}
