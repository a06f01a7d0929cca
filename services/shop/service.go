package shop

import (
	"github.com/MarcGrol/smartshop/lib/mylog"
	"github.com/MarcGrol/smartshop/lib/mymetrics"
	"github.com/MarcGrol/smartshop/lib/mypublisher"
	"github.com/MarcGrol/smartshop/lib/mypubsub"
	"github.com/MarcGrol/smartshop/lib/mystore"
	"github.com/MarcGrol/smartshop/lib/mytime"
	"github.com/MarcGrol/smartshop/lib/myuuid"
	"github.com/MarcGrol/smartshop/services/shop/shopmodel"
)

type service struct {
	customerStore mystore.Store[CustomerRecord]
	productStore  mystore.Store[shopmodel.Product]
	orderStore    mystore.Store[OrderRecord]
	nower         mytime.Nower
	uuider        myuuid.UUIDer
	logger        mylog.Logger
	subscriber    mypubsub.PubSub
	publisher     mypublisher.Publisher
	metrics       *mymetrics.ShopMetrics
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(customerStore mystore.Store[CustomerRecord], productStore mystore.Store[shopmodel.Product], orderStore mystore.Store[OrderRecord],
	nower mytime.Nower, uuider myuuid.UUIDer, logger mylog.Logger, subscriber mypubsub.PubSub, pub mypublisher.Publisher, metrics *mymetrics.ShopMetrics) *service {
	return &service{
		customerStore: customerStore,
		productStore:  productStore,
		orderStore:    orderStore,
		nower:         nower,
		uuider:        uuider,
		logger:        logger,
		subscriber:    subscriber,
		publisher:     pub,
		metrics:       metrics,
	}
}
