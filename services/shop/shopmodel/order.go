package shopmodel

import (
	"fmt"
	"time"
)

// Order is the immutable record of a placed cart.
type Order struct {
	uid          string
	customerUID  string
	customerName string
	products     []*Product
	total        int64
	createdAt    time.Time
}

func newOrder(uid string, customer *Customer, products []*Product, total int64, createdAt time.Time) Order {
	snapshot := make([]*Product, len(products))
	copy(snapshot, products)
	return Order{
		uid:          uid,
		customerUID:  customer.uid,
		customerName: customer.name,
		products:     snapshot,
		total:        total,
		createdAt:    createdAt,
	}
}

// RestoreOrder rebuilds an order from persisted state.
func RestoreOrder(uid string, customerUID string, customerName string, products []*Product, total int64, createdAt time.Time) Order {
	snapshot := make([]*Product, len(products))
	copy(snapshot, products)
	return Order{
		uid:          uid,
		customerUID:  customerUID,
		customerName: customerName,
		products:     snapshot,
		total:        total,
		createdAt:    createdAt,
	}
}

func (o Order) UID() string {
	return o.uid
}

func (o Order) CustomerUID() string {
	return o.customerUID
}

func (o Order) CustomerName() string {
	return o.customerName
}

func (o Order) Products() []*Product {
	products := make([]*Product, len(o.products))
	copy(products, o.products)
	return products
}

func (o Order) Size() int {
	return len(o.products)
}

func (o Order) Total() int64 {
	return o.total
}

func (o Order) CreatedAt() time.Time {
	return o.createdAt
}

func (o Order) Lines() []Line {
	return groupLines(o.products)
}

func (o Order) String() string {
	return fmt.Sprintf("Order[ID=%s, Customer=%s, Items=%d, Total=%s]", o.uid, o.customerUID, len(o.products), FormatAmount(DefaultCurrency, o.total))
}

// Line summarizes the entries of one product, in order of first appearance.
type Line struct {
	ProductUID string
	Name       string
	UnitPrice  int64
	Currency   string
	Quantity   int
}

func (l Line) TotalPrice() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

func groupLines(products []*Product) []Line {
	lines := []Line{}
	index := map[string]int{}
	for _, p := range products {
		i, found := index[p.UID]
		if !found {
			index[p.UID] = len(lines)
			lines = append(lines, Line{
				ProductUID: p.UID,
				Name:       p.Name,
				UnitPrice:  p.Price,
				Currency:   p.Currency,
			})
			i = len(lines) - 1
		}
		lines[i].Quantity++
	}
	return lines
}
