package shop

import (
	"time"

	"github.com/MarcGrol/smartshop/services/shop/shopmodel"
)

// CustomerRecord is the persisted form of a customer: cart entries refer to the catalog by uid.
type CustomerRecord struct {
	UID             string
	Name            string
	CartProductUIDs []string `datastore:",noindex"`
	CartTotal       int64
	CreatedAt       time.Time
	LastModified    *time.Time
}

// OrderRecord is the persisted form of an order. Products are copied so that later catalog
// changes do not alter the order.
type OrderRecord struct {
	UID          string
	CustomerUID  string
	CustomerName string
	Products     []OrderedProduct `datastore:",noindex"`
	Total        int64
	Currency     string
	CreatedAt    time.Time
}

type OrderedProduct struct {
	UID      string
	Name     string
	Price    int64
	Currency string
}

func newOrderRecord(order shopmodel.Order) OrderRecord {
	products := []OrderedProduct{}
	for _, p := range order.Products() {
		products = append(products, OrderedProduct{
			UID:      p.UID,
			Name:     p.Name,
			Price:    p.Price,
			Currency: p.Currency,
		})
	}
	return OrderRecord{
		UID:          order.UID(),
		CustomerUID:  order.CustomerUID(),
		CustomerName: order.CustomerName(),
		Products:     products,
		Total:        order.Total(),
		Currency:     shopmodel.DefaultCurrency,
		CreatedAt:    order.CreatedAt(),
	}
}

func (r OrderRecord) toOrder() shopmodel.Order {
	shared := map[string]*shopmodel.Product{}
	products := []*shopmodel.Product{}
	for _, op := range r.Products {
		p, found := shared[op.UID]
		if !found {
			p = &shopmodel.Product{
				UID:      op.UID,
				Name:     op.Name,
				Price:    op.Price,
				Currency: op.Currency,
			}
			shared[op.UID] = p
		}
		products = append(products, p)
	}
	return shopmodel.RestoreOrder(r.UID, r.CustomerUID, r.CustomerName, products, r.Total, r.CreatedAt)
}

type LineView struct {
	ProductUID     string
	Name           string
	UnitPrice      int64
	Quantity       int
	TotalPrice     int64
	FormattedPrice string
}

type CustomerView struct {
	UID            string
	Name           string
	Lines          []LineView
	CartSize       int
	CartTotal      int64
	FormattedTotal string
}

type OrderView struct {
	UID            string
	CustomerUID    string
	CustomerName   string
	Lines          []LineView
	Size           int
	Total          int64
	FormattedTotal string
	CreatedAt      time.Time
}

type ProductView struct {
	UID            string
	Name           string
	Price          int64
	Currency       string
	StockQuantity  int
	FormattedPrice string
}

func newLineViews(lines []shopmodel.Line) []LineView {
	views := []LineView{}
	for _, l := range lines {
		views = append(views, LineView{
			ProductUID:     l.ProductUID,
			Name:           l.Name,
			UnitPrice:      l.UnitPrice,
			Quantity:       l.Quantity,
			TotalPrice:     l.TotalPrice(),
			FormattedPrice: shopmodel.FormatAmount(l.Currency, l.TotalPrice()),
		})
	}
	return views
}

func newCustomerView(customer *shopmodel.Customer) CustomerView {
	return CustomerView{
		UID:            customer.UID(),
		Name:           customer.Name(),
		Lines:          newLineViews(customer.CartLines()),
		CartSize:       customer.CartSize(),
		CartTotal:      customer.CartTotal(),
		FormattedTotal: shopmodel.FormatAmount(shopmodel.DefaultCurrency, customer.CartTotal()),
	}
}

func newOrderView(order shopmodel.Order) OrderView {
	return OrderView{
		UID:            order.UID(),
		CustomerUID:    order.CustomerUID(),
		CustomerName:   order.CustomerName(),
		Lines:          newLineViews(order.Lines()),
		Size:           order.Size(),
		Total:          order.Total(),
		FormattedTotal: shopmodel.FormatAmount(shopmodel.DefaultCurrency, order.Total()),
		CreatedAt:      order.CreatedAt(),
	}
}

func newProductView(p shopmodel.Product) ProductView {
	return ProductView{
		UID:            p.UID,
		Name:           p.Name,
		Price:          p.Price,
		Currency:       p.Currency,
		StockQuantity:  p.StockQuantity,
		FormattedPrice: shopmodel.FormatAmount(p.Currency, p.Price),
	}
}
