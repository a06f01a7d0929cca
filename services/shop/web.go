package shop

import (
	"context"
	"fmt"
	"net/http"

	formcodec "github.com/go-playground/form/v4"
	"github.com/gorilla/mux"

	"github.com/MarcGrol/smartshop/lib/mycontext"
	"github.com/MarcGrol/smartshop/lib/myerrors"
	"github.com/MarcGrol/smartshop/lib/myhttp"
	"github.com/MarcGrol/smartshop/lib/mylog"
	"github.com/MarcGrol/smartshop/lib/mymetrics"
	"github.com/MarcGrol/smartshop/lib/mypublisher"
	"github.com/MarcGrol/smartshop/lib/mypubsub"
	"github.com/MarcGrol/smartshop/lib/mystore"
	"github.com/MarcGrol/smartshop/lib/mytime"
	"github.com/MarcGrol/smartshop/lib/myuuid"
	"github.com/MarcGrol/smartshop/services/shop/shopevents"
	"github.com/MarcGrol/smartshop/services/shop/shopmodel"
)

type webService struct {
	logger  mylog.Logger
	service *service
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewService(customerStore mystore.Store[CustomerRecord], productStore mystore.Store[shopmodel.Product], orderStore mystore.Store[OrderRecord],
	nower mytime.Nower, uuider myuuid.UUIDer, subscriber mypubsub.PubSub, pub mypublisher.Publisher, metrics *mymetrics.ShopMetrics) *webService {
	logger := mylog.New("shop")
	return &webService{
		logger:  logger,
		service: newService(customerStore, productStore, orderStore, nower, uuider, logger, subscriber, pub, metrics),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/api/customer", s.createCustomer()).Methods("POST")
	router.HandleFunc("/api/customer/{customerUID}", s.getCustomer()).Methods("GET")

	router.HandleFunc("/api/product", s.listProducts()).Methods("GET")
	router.HandleFunc("/api/product/{productUID}", s.getProduct()).Methods("GET")
	router.HandleFunc("/api/product/{productUID}", s.putProduct()).Methods("PUT")
	router.HandleFunc("/api/product/{productUID}/restock", s.restockProduct()).Methods("POST")

	router.HandleFunc("/api/customer/{customerUID}/cart/{productUID}", s.addToCart()).Methods("PUT")
	router.HandleFunc("/api/customer/{customerUID}/cart/{productUID}", s.removeFromCart()).Methods("DELETE")
	router.HandleFunc("/api/customer/{customerUID}/cart", s.clearCart()).Methods("DELETE")

	router.HandleFunc("/api/customer/{customerUID}/order", s.placeOrder()).Methods("POST")
	router.HandleFunc("/api/customer/{customerUID}/order", s.listOrders()).Methods("GET")
	router.HandleFunc("/api/order/{orderUID}", s.getOrder()).Methods("GET")

	router.HandleFunc("/api/shop/event", s.handleEvent()).Methods("POST")

	err := s.service.Subscribe(c)
	if err != nil {
		return err
	}

	return nil
}

type customerForm struct {
	UID  string `form:"uid"`
	Name string `form:"name"`
}

type productForm struct {
	Name     string `form:"name"`
	Price    int64  `form:"price"`
	Currency string `form:"currency"`
	Stock    int    `form:"stock"`
}

type quantityForm struct {
	Quantity int `form:"quantity"`
}

type restockForm struct {
	Amount int `form:"amount"`
}

// parseForm decodes both the query string and, for POST and PUT, the url-encoded body.
func parseForm(r *http.Request, target any) error {
	err := r.ParseForm()
	if err != nil {
		return myerrors.NewInvalidInputError(err)
	}

	err = formcodec.NewDecoder().Decode(target, r.Form)
	if err != nil {
		return myerrors.NewInvalidInputError(fmt.Errorf("error decoding form: %s", err))
	}

	return nil
}

func (s *webService) createCustomer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		form := customerForm{}
		err := parseForm(r, &form)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		customer, err := s.service.createCustomer(c, form.UID, form.Name)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusCreated, customer)
	}
}

func (s *webService) getCustomer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		customer, err := s.service.getCustomer(c, mux.Vars(r)["customerUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, customer)
	}
}

func (s *webService) listProducts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		products, err := s.service.listProducts(c)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, products)
	}
}

func (s *webService) getProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		product, err := s.service.getProduct(c, mux.Vars(r)["productUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, product)
	}
}

func (s *webService) putProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		form := productForm{}
		err := parseForm(r, &form)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		product, err := s.service.putProduct(c, mux.Vars(r)["productUID"], form.Name, form.Price, form.Currency, form.Stock)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, product)
	}
}

func (s *webService) restockProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		form := restockForm{}
		err := parseForm(r, &form)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		product, err := s.service.restockProduct(c, mux.Vars(r)["productUID"], form.Amount)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, product)
	}
}

func (s *webService) addToCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		form := quantityForm{}
		err := parseForm(r, &form)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		customer, err := s.service.addToCart(c, mux.Vars(r)["customerUID"], mux.Vars(r)["productUID"], form.Quantity)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, customer)
	}
}

func (s *webService) removeFromCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		form := quantityForm{}
		err := parseForm(r, &form)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		customer, err := s.service.removeFromCart(c, mux.Vars(r)["customerUID"], mux.Vars(r)["productUID"], form.Quantity)
		if err != nil {
			errorWriter.WriteError(c, w, 2, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, customer)
	}
}

func (s *webService) clearCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		customer, err := s.service.clearCart(c, mux.Vars(r)["customerUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, customer)
	}
}

func (s *webService) placeOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		order, err := s.service.placeOrder(c, mux.Vars(r)["customerUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusCreated, order)
	}
}

func (s *webService) listOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		orders, err := s.service.listOrders(c, mux.Vars(r)["customerUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, orders)
	}
}

func (s *webService) getOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		order, err := s.service.getOrder(c, mux.Vars(r)["orderUID"])
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, order)
	}
}

func (s *webService) handleEvent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		err := shopevents.DispatchEvent(c, r.Body, s.service)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{})
	}
}
