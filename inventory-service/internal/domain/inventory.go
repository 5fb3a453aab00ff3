package domain

// Inventory is the stock level of a single catalogue item, keyed by product name.
type Inventory struct {
	ID          int64
	ProductName string
	Quantity    int
}

// InStock reports whether at least one unit is available.
func (i Inventory) InStock() bool {
	return i.Quantity > 0
}

// StockStatus is the wire shape of a stock check. ProductName is a pointer
// because the unauthenticated fallback reply carries a JSON null there.
type StockStatus struct {
	ProductName *string `json:"productName"`
	IsInStock   bool    `json:"isInStock"`
}

func NewStockStatus(i Inventory) StockStatus {
	name := i.ProductName
	return StockStatus{ProductName: &name, IsInStock: i.InStock()}
}

// UnauthorizedStatus is the single-element reply returned to callers whose
// token the authority rejected, when strict auth is off.
func UnauthorizedStatus() []StockStatus {
	return []StockStatus{{ProductName: nil, IsInStock: false}}
}
