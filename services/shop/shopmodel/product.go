package shopmodel

import (
	"fmt"

	"github.com/MarcGrol/smartshop/lib/myerrors"
)

// Product is a catalog entry. Carts hold pointers to products, so stock changes made while
// placing an order are visible to every holder of the same pointer.
type Product struct {
	UID           string
	Name          string
	Price         int64 // minor currency units
	Currency      string
	StockQuantity int
}

func NewProduct(uid string, name string, price int64, stockQuantity int) (*Product, error) {
	if uid == "" {
		return nil, myerrors.NewInvalidInputErrorf("product uid is required")
	}
	if price < 0 {
		return nil, myerrors.NewInvalidInputErrorf("price of %s cannot be negative", name)
	}
	if stockQuantity < 0 {
		return nil, myerrors.NewInvalidInputErrorf("stock of %s cannot be negative", name)
	}
	return &Product{
		UID:           uid,
		Name:          name,
		Price:         price,
		Currency:      DefaultCurrency,
		StockQuantity: stockQuantity,
	}, nil
}

func (p *Product) ReduceStock(amount int) error {
	if amount <= 0 {
		return myerrors.NewInvalidInputErrorf("amount must be positive")
	}
	if amount > p.StockQuantity {
		return myerrors.NewInvalidInputErrorf("insufficient stock for %s: requested %d, available %d", p.Name, amount, p.StockQuantity)
	}
	p.StockQuantity -= amount
	return nil
}

func (p *Product) AddStock(amount int) error {
	if amount <= 0 {
		return myerrors.NewInvalidInputErrorf("amount must be positive")
	}
	p.StockQuantity += amount
	return nil
}

func (p *Product) IsSoldOut() bool {
	return p.StockQuantity == 0
}

func (p Product) String() string {
	return fmt.Sprintf("Product[ID=%s, Name=%s, Price=%s, Stock=%d]", p.UID, p.Name, FormatAmount(p.Currency, p.Price), p.StockQuantity)
}
