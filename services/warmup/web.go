package warmup

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/smartshop/lib/mycontext"
	"github.com/MarcGrol/smartshop/lib/myerrors"
	"github.com/MarcGrol/smartshop/lib/myhttp"
	"github.com/MarcGrol/smartshop/lib/mylog"
	"github.com/MarcGrol/smartshop/lib/mystore"
	"github.com/MarcGrol/smartshop/services/shop/shopmodel"
)

type webService struct {
	logger       mylog.Logger
	productStore mystore.Store[shopmodel.Product]
}

// Use dependency injection to isolate the infrastructure and ease testing
func NewService(productStore mystore.Store[shopmodel.Product]) *webService {
	return &webService{
		logger:       mylog.New("warmup"),
		productStore: productStore,
	}
}

func (s webService) RegisterEndpoints(c context.Context, router *mux.Router) {
	router.HandleFunc("/_ah/warmup", s.warmupPage()).Methods("GET")
}

// warmupPage opens the datastore connection before the first shopper arrives
func (s *webService) warmupPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		products, err := s.productStore.List(c)
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewUnavailableError(err))
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{
			Message: fmt.Sprintf("Successfully processed warmup request: %d products in catalog", len(products)),
		})
	}
}
