package shop

import (
	"context"
	"fmt"
	"sort"

	"github.com/MarcGrol/smartshop/lib/myerrors"
	"github.com/MarcGrol/smartshop/lib/mylog"
	"github.com/MarcGrol/smartshop/lib/mystore"
	"github.com/MarcGrol/smartshop/services/shop/shopevents"
	"github.com/MarcGrol/smartshop/services/shop/shopmodel"
)

// maxUnitsPerRequest bounds a single cart mutation, since every unit occupies its own cart entry.
const maxUnitsPerRequest = 1000

func checkQuantity(quantity int) error {
	if quantity > maxUnitsPerRequest {
		return myerrors.NewInvalidInputErrorf("quantity %d exceeds maximum of %d per request", quantity, maxUnitsPerRequest)
	}
	return nil
}

func (s *service) createCustomer(c context.Context, customerUID string, name string) (CustomerView, error) {
	s.logger.Log(c, customerUID, mylog.SeverityInfo, "Create customer %s", customerUID)

	customer, err := shopmodel.NewCustomer(customerUID, name)
	if err != nil {
		return CustomerView{}, err
	}

	now := s.nower.Now()

	err = s.customerStore.RunInTransaction(c, func(c context.Context) error {
		_, exists, err := s.customerStore.Get(c, customerUID)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		if exists {
			return myerrors.NewInvalidInputErrorf("customer with uid %s already exists", customerUID)
		}

		err = s.customerStore.Put(c, customerUID, CustomerRecord{
			UID:             customerUID,
			Name:            name,
			CartProductUIDs: []string{},
			CreatedAt:       now,
		})
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return CustomerView{}, err
	}

	return newCustomerView(customer), nil
}

func (s *service) getCustomer(c context.Context, customerUID string) (CustomerView, error) {
	s.logger.Log(c, customerUID, mylog.SeverityInfo, "Fetch customer %s", customerUID)

	customer, _, _, err := s.loadCustomer(c, customerUID)
	if err != nil {
		return CustomerView{}, err
	}

	return newCustomerView(customer), nil
}

func (s *service) putProduct(c context.Context, productUID string, name string, price int64, currency string, stock int) (ProductView, error) {
	s.logger.Log(c, productUID, mylog.SeverityInfo, "Put product %s", productUID)

	product, err := shopmodel.NewProduct(productUID, name, price, stock)
	if err != nil {
		return ProductView{}, err
	}
	if currency != "" {
		product.Currency = currency
	}

	err = s.productStore.Put(c, productUID, *product)
	if err != nil {
		return ProductView{}, myerrors.NewInternalError(err)
	}

	return newProductView(*product), nil
}

func (s *service) getProduct(c context.Context, productUID string) (ProductView, error) {
	s.logger.Log(c, productUID, mylog.SeverityInfo, "Fetch product %s", productUID)

	product, err := s.fetchProduct(c, productUID)
	if err != nil {
		return ProductView{}, err
	}

	return newProductView(*product), nil
}

func (s *service) listProducts(c context.Context) ([]ProductView, error) {
	s.logger.Log(c, "", mylog.SeverityInfo, "Fetch all products")

	products, err := s.productStore.List(c)
	if err != nil {
		return nil, myerrors.NewInternalError(err)
	}

	sort.Slice(products, func(i, j int) bool {
		return products[i].UID < products[j].UID
	})

	views := []ProductView{}
	for _, p := range products {
		views = append(views, newProductView(p))
	}
	return views, nil
}

func (s *service) restockProduct(c context.Context, productUID string, amount int) (ProductView, error) {
	s.logger.Log(c, productUID, mylog.SeverityInfo, "Restock product %s with %d", productUID, amount)

	var product *shopmodel.Product
	err := s.productStore.RunInTransaction(c, func(c context.Context) error {
		var err error
		product, err = s.fetchProduct(c, productUID)
		if err != nil {
			return err
		}

		err = product.AddStock(amount)
		if err != nil {
			return err
		}

		err = s.productStore.Put(c, productUID, *product)
		if err != nil {
			return myerrors.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return ProductView{}, err
	}

	return newProductView(*product), nil
}

func (s *service) addToCart(c context.Context, customerUID string, productUID string, quantity int) (CustomerView, error) {
	s.logger.Log(c, customerUID, mylog.SeverityInfo, "Add %d x %s to cart of customer %s", quantity, productUID, customerUID)

	err := checkQuantity(quantity)
	if err != nil {
		return CustomerView{}, err
	}

	return s.mutateCart(c, customerUID, "add", func(c context.Context, customer *shopmodel.Customer, products map[string]*shopmodel.Product) error {
		product, err := s.sharedProduct(c, products, productUID)
		if err != nil {
			return err
		}
		return customer.AddToCart(product, quantity)
	})
}

func (s *service) removeFromCart(c context.Context, customerUID string, productUID string, quantity int) (CustomerView, error) {
	s.logger.Log(c, customerUID, mylog.SeverityInfo, "Remove %d x %s from cart of customer %s", quantity, productUID, customerUID)

	err := checkQuantity(quantity)
	if err != nil {
		return CustomerView{}, err
	}

	return s.mutateCart(c, customerUID, "remove", func(c context.Context, customer *shopmodel.Customer, products map[string]*shopmodel.Product) error {
		// the cart total is lowered with the current catalog price
		product, err := s.sharedProduct(c, products, productUID)
		if err != nil {
			return err
		}
		return customer.RemoveFromCart(product, quantity)
	})
}

func (s *service) clearCart(c context.Context, customerUID string) (CustomerView, error) {
	s.logger.Log(c, customerUID, mylog.SeverityInfo, "Clear cart of customer %s", customerUID)

	return s.mutateCart(c, customerUID, "clear", func(c context.Context, customer *shopmodel.Customer, products map[string]*shopmodel.Product) error {
		customer.ClearCart()
		return nil
	})
}

func (s *service) mutateCart(c context.Context, customerUID string, operation string,
	mutate func(c context.Context, customer *shopmodel.Customer, products map[string]*shopmodel.Product) error) (CustomerView, error) {

	now := s.nower.Now()

	var customer *shopmodel.Customer
	err := s.customerStore.RunInTransaction(c, func(c context.Context) error {
		var record CustomerRecord
		var products map[string]*shopmodel.Product
		var err error
		customer, products, record, err = s.loadCustomer(c, customerUID)
		if err != nil {
			return err
		}

		err = mutate(c, customer, products)
		if err != nil {
			return err
		}

		record.LastModified = &now
		return s.saveCustomer(c, record, customer)
	})
	if err != nil {
		return CustomerView{}, err
	}

	s.metrics.CartMutations.WithLabelValues(operation).Inc()

	return newCustomerView(customer), nil
}

func (s *service) placeOrder(c context.Context, customerUID string) (OrderView, error) {
	s.logger.Log(c, customerUID, mylog.SeverityInfo, "Place order for customer %s", customerUID)

	now := s.nower.Now()

	var order shopmodel.Order
	depleted := []string{}
	err := s.runInTransaction(c, func(c context.Context) error {
		customer, products, record, err := s.loadCustomer(c, customerUID)
		if err != nil {
			return err
		}

		order, err = customer.PlaceOrder(s.uuider, now)
		if err != nil {
			return err
		}

		productUIDs := []string{}
		for uid := range products {
			productUIDs = append(productUIDs, uid)
		}
		sort.Strings(productUIDs)

		depleted = []string{}
		for _, uid := range productUIDs {
			err = s.productStore.Put(c, uid, *products[uid])
			if err != nil {
				return myerrors.NewInternalError(err)
			}
			if products[uid].IsSoldOut() {
				depleted = append(depleted, uid)
			}
		}

		err = s.orderStore.Put(c, order.UID(), newOrderRecord(order))
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		record.LastModified = &now
		err = s.saveCustomer(c, record, customer)
		if err != nil {
			return err
		}

		orderedUIDs := []string{}
		for _, p := range order.Products() {
			orderedUIDs = append(orderedUIDs, p.UID)
		}
		err = s.publisher.Publish(c, shopevents.TopicName, shopevents.OrderPlaced{
			OrderUID:    order.UID(),
			CustomerUID: customerUID,
			Total:       order.Total(),
			Currency:    shopmodel.DefaultCurrency,
			ProductUIDs: orderedUIDs,
		})
		if err != nil {
			return myerrors.NewInternalError(err)
		}

		for _, uid := range depleted {
			err = s.publisher.Publish(c, shopevents.TopicName, shopevents.StockDepleted{
				ProductUID: uid,
			})
			if err != nil {
				return myerrors.NewInternalError(err)
			}
		}

		return nil
	})
	if err != nil {
		if myerrors.IsInvalidState(err) {
			s.metrics.RejectedOrders.Inc()
		}
		return OrderView{}, err
	}

	s.metrics.OrdersPlaced.Inc()
	s.metrics.OrderAmount.WithLabelValues(shopmodel.DefaultCurrency).Add(float64(order.Total()))
	s.metrics.StockDepleted.Add(float64(len(depleted)))

	s.logger.Log(c, customerUID, mylog.SeverityInfo, "Placed %s", order.String())

	return newOrderView(order), nil
}

func (s *service) getOrder(c context.Context, orderUID string) (OrderView, error) {
	s.logger.Log(c, orderUID, mylog.SeverityInfo, "Fetch order %s", orderUID)

	record, found, err := s.orderStore.Get(c, orderUID)
	if err != nil {
		return OrderView{}, myerrors.NewInternalError(err)
	}
	if !found {
		return OrderView{}, myerrors.NewNotFoundError(fmt.Errorf("order with uid %s not found", orderUID))
	}

	return newOrderView(record.toOrder()), nil
}

func (s *service) listOrders(c context.Context, customerUID string) ([]OrderView, error) {
	s.logger.Log(c, customerUID, mylog.SeverityInfo, "Fetch orders of customer %s", customerUID)

	_, found, err := s.customerStore.Get(c, customerUID)
	if err != nil {
		return nil, myerrors.NewInternalError(err)
	}
	if !found {
		return nil, myerrors.NewNotFoundError(fmt.Errorf("customer with uid %s not found", customerUID))
	}

	records, err := s.orderStore.Query(c, []mystore.Filter{{Field: "CustomerUID", Compare: "=", Value: customerUID}}, "")
	if err != nil {
		return nil, myerrors.NewInternalError(err)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	views := []OrderView{}
	for _, r := range records {
		views = append(views, newOrderView(r.toOrder()))
	}
	return views, nil
}

// runInTransaction spans customers, products, orders and the event outbox. Stores are always
// entered in this order.
func (s *service) runInTransaction(c context.Context, f func(c context.Context) error) error {
	return s.customerStore.RunInTransaction(c, func(c context.Context) error {
		return s.productStore.RunInTransaction(c, func(c context.Context) error {
			return s.orderStore.RunInTransaction(c, func(c context.Context) error {
				return s.publisher.RunInTransaction(c, f)
			})
		})
	})
}

func (s *service) fetchProduct(c context.Context, productUID string) (*shopmodel.Product, error) {
	product, found, err := s.productStore.Get(c, productUID)
	if err != nil {
		return nil, myerrors.NewInternalError(err)
	}
	if !found {
		return nil, myerrors.NewNotFoundError(fmt.Errorf("product with uid %s not found", productUID))
	}
	return &product, nil
}

// sharedProduct returns the instance already referenced by the cart, so that every entry
// of one product points to the same stock.
func (s *service) sharedProduct(c context.Context, products map[string]*shopmodel.Product, productUID string) (*shopmodel.Product, error) {
	product, found := products[productUID]
	if found {
		return product, nil
	}

	product, err := s.fetchProduct(c, productUID)
	if err != nil {
		return nil, err
	}
	products[productUID] = product
	return product, nil
}

func (s *service) loadCustomer(c context.Context, customerUID string) (*shopmodel.Customer, map[string]*shopmodel.Product, CustomerRecord, error) {
	record, found, err := s.customerStore.Get(c, customerUID)
	if err != nil {
		return nil, nil, record, myerrors.NewInternalError(err)
	}
	if !found {
		return nil, nil, record, myerrors.NewNotFoundError(fmt.Errorf("customer with uid %s not found", customerUID))
	}

	products := map[string]*shopmodel.Product{}
	cart := []*shopmodel.Product{}
	for _, uid := range record.CartProductUIDs {
		product, err := s.sharedProduct(c, products, uid)
		if err != nil {
			return nil, nil, record, myerrors.NewInternalError(fmt.Errorf("cart of customer %s refers to product %s: %w", customerUID, uid, err))
		}
		cart = append(cart, product)
	}

	return shopmodel.RestoreCustomer(record.UID, record.Name, cart, record.CartTotal), products, record, nil
}

func (s *service) saveCustomer(c context.Context, record CustomerRecord, customer *shopmodel.Customer) error {
	record.CartProductUIDs = []string{}
	for _, p := range customer.Cart() {
		record.CartProductUIDs = append(record.CartProductUIDs, p.UID)
	}
	record.CartTotal = customer.CartTotal()

	err := s.customerStore.Put(c, record.UID, record)
	if err != nil {
		return myerrors.NewInternalError(err)
	}
	return nil
}
