package shopmodel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/smartshop/lib/myerrors"
	"github.com/MarcGrol/smartshop/lib/mytime"
	"github.com/MarcGrol/smartshop/lib/myuuid"
)

func newTestProduct(t *testing.T, uid string, price int64, stock int) *Product {
	p, err := NewProduct(uid, "Product "+uid, price, stock)
	assert.NoError(t, err)
	return p
}

func newTestCustomer(t *testing.T) *Customer {
	c, err := NewCustomer("cust_1", "Eva")
	assert.NoError(t, err)
	return c
}

func cartTotalOf(c *Customer) int64 {
	var total int64
	for _, p := range c.Cart() {
		total += p.Price
	}
	return total
}

func TestNewCustomer(t *testing.T) {
	t.Run("Starts empty", func(t *testing.T) {
		c := newTestCustomer(t)
		assert.Equal(t, "cust_1", c.UID())
		assert.Equal(t, "Eva", c.Name())
		assert.True(t, c.IsCartEmpty())
		assert.Equal(t, int64(0), c.CartTotal())
		assert.Equal(t, "Customer[ID=cust_1, Name=Eva, CartTotal=UGX 0.00]", c.String())
	})

	t.Run("Missing uid", func(t *testing.T) {
		_, err := NewCustomer("", "Eva")
		assert.True(t, myerrors.IsInvalidInput(err))
	})
}

func TestAddToCart(t *testing.T) {
	t.Run("Adds one entry per unit", func(t *testing.T) {
		c := newTestCustomer(t)
		racket := newTestProduct(t, "racket", 1000, 5)

		err := c.AddToCart(racket, 2)

		assert.NoError(t, err)
		assert.Equal(t, 2, c.CartSize())
		assert.Equal(t, int64(2000), c.CartTotal())
		assert.Equal(t, 5, racket.StockQuantity, "stock is only checked when adding")
	})

	t.Run("Total tracks sum of entries", func(t *testing.T) {
		c := newTestCustomer(t)
		racket := newTestProduct(t, "racket", 16900, 3)
		balls := newTestProduct(t, "balls", 1000, 10)
		shoes := newTestProduct(t, "shoes", 12000, 1)

		assert.NoError(t, c.AddToCart(racket, 1))
		assert.NoError(t, c.AddToCart(balls, 6))
		assert.NoError(t, c.AddToCart(shoes, 1))
		assert.NoError(t, c.AddToCart(racket, 2))

		assert.Equal(t, 10, c.CartSize())
		assert.Equal(t, cartTotalOf(c), c.CartTotal())
		assert.Equal(t, int64(16900*3+1000*6+12000), c.CartTotal())
		assert.Equal(t, 3, c.CountOf("racket"))
	})

	testCases := []struct {
		name     string
		product  *Product
		quantity int
	}{
		{name: "Nil product", product: nil, quantity: 1},
		{name: "Zero quantity", product: &Product{UID: "p", Price: 100, StockQuantity: 5}, quantity: 0},
		{name: "Negative quantity", product: &Product{UID: "p", Price: 100, StockQuantity: 5}, quantity: -1},
		{name: "Quantity exceeds stock", product: &Product{UID: "p", Name: "ball", Price: 100, StockQuantity: 5}, quantity: 6},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			c := newTestCustomer(t)
			existing := newTestProduct(t, "existing", 250, 10)
			assert.NoError(t, c.AddToCart(existing, 2))

			// when
			err := c.AddToCart(tc.product, tc.quantity)

			// then
			assert.Error(t, err)
			assert.True(t, myerrors.IsInvalidInput(err))
			assert.Equal(t, 2, c.CartSize())
			assert.Equal(t, int64(500), c.CartTotal())
		})
	}

	t.Run("Insufficient stock names the product", func(t *testing.T) {
		c := newTestCustomer(t)
		err := c.AddToCart(&Product{UID: "p", Name: "Tennis balls", StockQuantity: 1}, 2)
		assert.ErrorContains(t, err, "insufficient stock for Tennis balls")
	})

	t.Run("Total that does not fit is rejected", func(t *testing.T) {
		// given
		c := newTestCustomer(t)
		gold := newTestProduct(t, "gold", math.MaxInt64/2+1, 5)

		// when
		err := c.AddToCart(gold, 2)

		// then
		assert.True(t, myerrors.IsInvalidInput(err))
		assert.True(t, c.IsCartEmpty())
		assert.Equal(t, int64(0), c.CartTotal())
	})

	t.Run("Total that overflows after earlier adds is rejected", func(t *testing.T) {
		// given
		c := newTestCustomer(t)
		gold := newTestProduct(t, "gold", math.MaxInt64/2+1, 5)
		assert.NoError(t, c.AddToCart(gold, 1))

		// when
		err := c.AddToCart(gold, 1)

		// then
		assert.True(t, myerrors.IsInvalidInput(err))
		assert.Equal(t, 1, c.CartSize())
		assert.Equal(t, gold.Price, c.CartTotal())
		assert.Equal(t, cartTotalOf(c), c.CartTotal())
	})

	t.Run("Total up to the maximum is accepted", func(t *testing.T) {
		c := newTestCustomer(t)
		assert.NoError(t, c.AddToCart(newTestProduct(t, "gold", math.MaxInt64, 1), 1))
		assert.Equal(t, int64(math.MaxInt64), c.CartTotal())
	})
}

func TestRemoveFromCart(t *testing.T) {
	t.Run("Add then remove restores cart", func(t *testing.T) {
		c := newTestCustomer(t)
		racket := newTestProduct(t, "racket", 1000, 5)
		balls := newTestProduct(t, "balls", 300, 10)
		assert.NoError(t, c.AddToCart(racket, 1))
		before := c.Cart()
		beforeTotal := c.CartTotal()

		assert.NoError(t, c.AddToCart(balls, 3))
		assert.NoError(t, c.RemoveFromCart(balls, 3))

		assert.Equal(t, before, c.Cart())
		assert.Equal(t, beforeTotal, c.CartTotal())
	})

	t.Run("Removes first matches in order", func(t *testing.T) {
		c := newTestCustomer(t)
		a := newTestProduct(t, "a", 100, 5)
		b := newTestProduct(t, "b", 200, 5)
		assert.NoError(t, c.AddToCart(a, 1))
		assert.NoError(t, c.AddToCart(b, 1))
		assert.NoError(t, c.AddToCart(a, 2))

		assert.NoError(t, c.RemoveFromCart(a, 2))

		assert.Equal(t, []*Product{b, a}, c.Cart())
		assert.Equal(t, int64(300), c.CartTotal())
	})

	t.Run("Not enough items", func(t *testing.T) {
		c := newTestCustomer(t)
		a := newTestProduct(t, "a", 100, 5)
		assert.NoError(t, c.AddToCart(a, 2))

		err := c.RemoveFromCart(a, 3)

		assert.True(t, myerrors.IsInvalidInput(err))
		assert.ErrorContains(t, err, "not enough items in cart")
		assert.Equal(t, 2, c.CartSize())
		assert.Equal(t, int64(200), c.CartTotal())
	})

	t.Run("Product not in cart", func(t *testing.T) {
		c := newTestCustomer(t)
		err := c.RemoveFromCart(newTestProduct(t, "a", 100, 5), 1)
		assert.True(t, myerrors.IsInvalidInput(err))
	})

	t.Run("Invalid arguments", func(t *testing.T) {
		c := newTestCustomer(t)
		a := newTestProduct(t, "a", 100, 5)
		assert.NoError(t, c.AddToCart(a, 1))

		assert.True(t, myerrors.IsInvalidInput(c.RemoveFromCart(nil, 1)))
		assert.True(t, myerrors.IsInvalidInput(c.RemoveFromCart(a, 0)))
		assert.True(t, myerrors.IsInvalidInput(c.RemoveFromCart(a, -2)))
		assert.Equal(t, 1, c.CartSize())
	})

	t.Run("Total uses price of the passed product", func(t *testing.T) {
		// given
		c := newTestCustomer(t)
		stored := newTestProduct(t, "a", 1000, 5)
		assert.NoError(t, c.AddToCart(stored, 2))
		repriced := &Product{UID: "a", Name: stored.Name, Price: 700, StockQuantity: 5}

		// when
		err := c.RemoveFromCart(repriced, 1)

		// then: the total no longer matches the remaining entries
		assert.NoError(t, err)
		assert.Equal(t, 1, c.CartSize())
		assert.Equal(t, int64(1300), c.CartTotal())
		assert.NotEqual(t, cartTotalOf(c), c.CartTotal())
	})

	t.Run("Total that would underflow is rejected", func(t *testing.T) {
		// given
		c := newTestCustomer(t)
		assert.NoError(t, c.AddToCart(newTestProduct(t, "a", 0, 5), 2))
		repriced := &Product{UID: "a", Name: "Product a", Price: math.MaxInt64, StockQuantity: 5}
		assert.NoError(t, c.RemoveFromCart(repriced, 1))

		// when
		err := c.RemoveFromCart(repriced, 1)

		// then
		assert.True(t, myerrors.IsInvalidInput(err))
		assert.Equal(t, 1, c.CartSize())
		assert.Equal(t, -int64(math.MaxInt64), c.CartTotal())
	})
}

func TestClearCart(t *testing.T) {
	c := newTestCustomer(t)
	assert.NoError(t, c.AddToCart(newTestProduct(t, "a", 100, 5), 3))

	c.ClearCart()

	assert.True(t, c.IsCartEmpty())
	assert.Equal(t, int64(0), c.CartTotal())
}

func TestCartCopy(t *testing.T) {
	c := newTestCustomer(t)
	a := newTestProduct(t, "a", 100, 5)
	assert.NoError(t, c.AddToCart(a, 2))

	cart := c.Cart()
	cart[0] = nil

	assert.Equal(t, []*Product{a, a}, c.Cart())
}

func TestPlaceOrder(t *testing.T) {
	t.Run("Example session", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		uuider := myuuid.NewMockUUIDer(ctrl)
		uuider.EXPECT().Create().Return("123")
		c := newTestCustomer(t)
		p := newTestProduct(t, "racket", 1000, 5)
		assert.NoError(t, c.AddToCart(p, 2))
		assert.Equal(t, int64(2000), c.CartTotal())
		assert.Equal(t, 2, c.CartSize())
		assert.NoError(t, c.RemoveFromCart(p, 1))
		assert.Equal(t, int64(1000), c.CartTotal())
		assert.Equal(t, 1, c.CartSize())

		// when
		order, err := c.PlaceOrder(uuider, mytime.ExampleTime)

		// then
		assert.NoError(t, err)
		assert.Equal(t, "ORD-123", order.UID())
		assert.Equal(t, "cust_1", order.CustomerUID())
		assert.Equal(t, "Eva", order.CustomerName())
		assert.Equal(t, int64(1000), order.Total())
		assert.Equal(t, 1, order.Size())
		assert.Equal(t, mytime.ExampleTime, order.CreatedAt())
		assert.True(t, c.IsCartEmpty())
		assert.Equal(t, int64(0), c.CartTotal())
		assert.Equal(t, 4, p.StockQuantity)
	})

	t.Run("Snapshot and stock per entry", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		uuider := myuuid.NewMockUUIDer(ctrl)
		uuider.EXPECT().Create().Return("456")
		c := newTestCustomer(t)
		a := newTestProduct(t, "a", 100, 5)
		b := newTestProduct(t, "b", 250, 2)
		assert.NoError(t, c.AddToCart(a, 3))
		assert.NoError(t, c.AddToCart(b, 2))
		cartBefore := c.Cart()
		totalBefore := c.CartTotal()

		// when
		order, err := c.PlaceOrder(uuider, mytime.ExampleTime)

		// then
		assert.NoError(t, err)
		assert.Equal(t, cartBefore, order.Products())
		assert.Equal(t, totalBefore, order.Total())
		assert.Equal(t, 2, a.StockQuantity)
		assert.Equal(t, 0, b.StockQuantity)
		assert.True(t, b.IsSoldOut())
		assert.Equal(t, []Line{
			{ProductUID: "a", Name: "Product a", UnitPrice: 100, Currency: "UGX", Quantity: 3},
			{ProductUID: "b", Name: "Product b", UnitPrice: 250, Currency: "UGX", Quantity: 2},
		}, order.Lines())

		// later cart mutation does not leak into the order
		assert.NoError(t, c.AddToCart(a, 1))
		assert.Equal(t, 5, order.Size())
		assert.Equal(t, totalBefore, order.Total())
	})

	t.Run("Empty cart", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		uuider := myuuid.NewMockUUIDer(ctrl)
		c := newTestCustomer(t)

		order, err := c.PlaceOrder(uuider, mytime.ExampleTime)

		assert.True(t, myerrors.IsInvalidState(err))
		assert.ErrorContains(t, err, "cannot place order with empty cart")
		assert.Equal(t, Order{}, order)
	})

	t.Run("Stock sold out after add", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// given
		uuider := myuuid.NewMockUUIDer(ctrl)
		c := newTestCustomer(t)
		a := newTestProduct(t, "a", 100, 3)
		b := newTestProduct(t, "b", 100, 3)
		assert.NoError(t, c.AddToCart(a, 1))
		assert.NoError(t, c.AddToCart(b, 3))
		assert.NoError(t, b.ReduceStock(2))

		// when
		_, err := c.PlaceOrder(uuider, mytime.ExampleTime)

		// then nothing changed
		assert.True(t, myerrors.IsInvalidState(err))
		assert.Equal(t, 3, a.StockQuantity)
		assert.Equal(t, 1, b.StockQuantity)
		assert.Equal(t, 4, c.CartSize())
		assert.Equal(t, int64(400), c.CartTotal())
	})
}

func TestRestoreCustomer(t *testing.T) {
	a := newTestProduct(t, "a", 100, 5)
	cart := []*Product{a, a}

	c := RestoreCustomer("cust_2", "Marc", cart, 200)
	cart[0] = nil

	assert.Equal(t, "cust_2", c.UID())
	assert.Equal(t, []*Product{a, a}, c.Cart())
	assert.Equal(t, int64(200), c.CartTotal())
	assert.Equal(t, []Line{{ProductUID: "a", Name: "Product a", UnitPrice: 100, Currency: "UGX", Quantity: 2}}, c.CartLines())
}
