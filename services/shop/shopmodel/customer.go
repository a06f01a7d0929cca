package shopmodel

import (
	"fmt"
	"math"
	"time"

	"github.com/MarcGrol/smartshop/lib/myerrors"
	"github.com/MarcGrol/smartshop/lib/myuuid"
)

const orderUIDPrefix = "ORD-"

// Customer owns a shopping cart in which every purchased unit occupies its own entry.
// A Customer is not safe for concurrent use; callers serialize access per customer.
type Customer struct {
	uid       string
	name      string
	cart      []*Product
	cartTotal int64
}

func NewCustomer(uid string, name string) (*Customer, error) {
	if uid == "" {
		return nil, myerrors.NewInvalidInputErrorf("customer uid is required")
	}
	return &Customer{
		uid:  uid,
		name: name,
		cart: []*Product{},
	}, nil
}

// RestoreCustomer rebuilds a customer from persisted state without re-validating stock.
func RestoreCustomer(uid string, name string, cart []*Product, cartTotal int64) *Customer {
	c := &Customer{
		uid:       uid,
		name:      name,
		cart:      make([]*Product, len(cart)),
		cartTotal: cartTotal,
	}
	copy(c.cart, cart)
	return c
}

func (c *Customer) UID() string {
	return c.uid
}

func (c *Customer) Name() string {
	return c.name
}

// Cart returns a copy; mutating it does not affect the customer.
func (c *Customer) Cart() []*Product {
	cart := make([]*Product, len(c.cart))
	copy(cart, c.cart)
	return cart
}

func (c *Customer) CartTotal() int64 {
	return c.cartTotal
}

func (c *Customer) CartSize() int {
	return len(c.cart)
}

func (c *Customer) IsCartEmpty() bool {
	return len(c.cart) == 0
}

func (c *Customer) CountOf(productUID string) int {
	count := 0
	for _, p := range c.cart {
		if p.UID == productUID {
			count++
		}
	}
	return count
}

func (c *Customer) CartLines() []Line {
	return groupLines(c.cart)
}

func (c *Customer) AddToCart(product *Product, quantity int) error {
	if product == nil {
		return myerrors.NewInvalidInputErrorf("product cannot be nil")
	}
	if quantity <= 0 {
		return myerrors.NewInvalidInputErrorf("quantity must be positive")
	}
	if quantity > product.StockQuantity {
		return myerrors.NewInvalidInputErrorf("insufficient stock for %s", product.Name)
	}
	amount, ok := priceOf(product, quantity)
	if !ok || c.cartTotal > math.MaxInt64-amount {
		return myerrors.NewInvalidInputErrorf("cart total cannot hold %d x %s", quantity, product.Name)
	}

	for i := 0; i < quantity; i++ {
		c.cart = append(c.cart, product)
	}
	c.cartTotal += amount

	return nil
}

// RemoveFromCart drops the first quantity entries matching the product uid. The total is
// lowered using the price of the product passed in, not the price of the removed entries.
func (c *Customer) RemoveFromCart(product *Product, quantity int) error {
	if product == nil {
		return myerrors.NewInvalidInputErrorf("product cannot be nil")
	}
	if quantity <= 0 {
		return myerrors.NewInvalidInputErrorf("quantity must be positive")
	}
	if c.CountOf(product.UID) < quantity {
		return myerrors.NewInvalidInputErrorf("not enough items in cart")
	}
	amount, ok := priceOf(product, quantity)
	if !ok || c.cartTotal < math.MinInt64+amount {
		return myerrors.NewInvalidInputErrorf("cart total cannot drop %d x %s", quantity, product.Name)
	}

	remaining := make([]*Product, 0, len(c.cart)-quantity)
	removed := 0
	for _, p := range c.cart {
		if removed < quantity && p.UID == product.UID {
			removed++
			c.cartTotal -= product.Price
			continue
		}
		remaining = append(remaining, p)
	}
	c.cart = remaining

	return nil
}

// priceOf returns price times quantity, or false when that does not fit in an int64.
func priceOf(product *Product, quantity int) (int64, bool) {
	if product.Price < 0 || (product.Price > 0 && int64(quantity) > math.MaxInt64/product.Price) {
		return 0, false
	}
	return product.Price * int64(quantity), true
}

func (c *Customer) ClearCart() {
	c.cart = []*Product{}
	c.cartTotal = 0
}

// PlaceOrder converts the cart into an order: stock of every product is lowered by the number
// of entries referring to it and the cart is emptied. Nothing changes when an error is returned.
func (c *Customer) PlaceOrder(uuider myuuid.UUIDer, createdAt time.Time) (Order, error) {
	if c.IsCartEmpty() {
		return Order{}, myerrors.NewInvalidStateErrorf("cannot place order with empty cart")
	}

	snapshot := c.Cart()

	unitsPerProduct := map[*Product]int{}
	for _, p := range snapshot {
		unitsPerProduct[p]++
	}
	for p, units := range unitsPerProduct {
		if units > p.StockQuantity {
			return Order{}, myerrors.NewInvalidStateErrorf("insufficient stock for %s: %d in cart, %d available", p.Name, units, p.StockQuantity)
		}
	}

	order := newOrder(orderUIDPrefix+uuider.Create(), c, snapshot, c.cartTotal, createdAt)

	for _, p := range snapshot {
		// cannot fail: availability was checked above
		_ = p.ReduceStock(1)
	}

	c.ClearCart()

	return order, nil
}

func (c *Customer) String() string {
	return fmt.Sprintf("Customer[ID=%s, Name=%s, CartTotal=%s]", c.uid, c.name, FormatAmount(DefaultCurrency, c.cartTotal))
}
