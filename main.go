package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/smartshop/lib/mymetrics"
	"github.com/MarcGrol/smartshop/lib/mypublisher"
	"github.com/MarcGrol/smartshop/lib/mypubsub"
	"github.com/MarcGrol/smartshop/lib/myqueue"
	"github.com/MarcGrol/smartshop/lib/mystore"
	"github.com/MarcGrol/smartshop/lib/mytime"
	"github.com/MarcGrol/smartshop/lib/myuuid"
	"github.com/MarcGrol/smartshop/services/shop"
	"github.com/MarcGrol/smartshop/services/shop/shopmodel"
	"github.com/MarcGrol/smartshop/services/warmup"
)

func main() {
	c := context.Background()

	router := mux.NewRouter()

	nower := mytime.RealNower{}
	uuider := myuuid.RealUUIDer{}

	pubsub, pubsubCleanup, err := mypubsub.New(c)
	if err != nil {
		log.Fatalf("Error creating pubsub: %s", err)
	}
	defer pubsubCleanup()

	queue, queueCleanup, err := myqueue.New(c)
	if err != nil {
		log.Fatalf("Error creating queue: %s", err)
	}
	defer queueCleanup()

	publisher, publisherCleanup, err := mypublisher.New(c, pubsub, queue, nower)
	if err != nil {
		log.Fatalf("Error creating publisher: %s", err)
	}
	defer publisherCleanup()
	publisher.RegisterEndpoints(c, router)

	customerStore, customerStoreCleanup, err := mystore.New[shop.CustomerRecord](c)
	if err != nil {
		log.Fatalf("Error creating customer store: %s", err)
	}
	defer customerStoreCleanup()

	productStore, productStoreCleanup, err := mystore.New[shopmodel.Product](c)
	if err != nil {
		log.Fatalf("Error creating product store: %s", err)
	}
	defer productStoreCleanup()

	orderStore, orderStoreCleanup, err := mystore.New[shop.OrderRecord](c)
	if err != nil {
		log.Fatalf("Error creating order store: %s", err)
	}
	defer orderStoreCleanup()

	metrics := mymetrics.NewShopMetrics()
	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	shopService := shop.NewService(customerStore, productStore, orderStore, nower, uuider, pubsub, publisher, metrics)
	err = shopService.RegisterEndpoints(c, router)
	if err != nil {
		log.Fatalf("Error registering shop endpoints: %s", err)
	}

	catalogFile := os.Getenv("CATALOG_FILE")
	if catalogFile != "" {
		_, err = shopService.ImportCatalog(c, catalogFile)
		if err != nil {
			log.Fatalf("Error importing catalog: %s", err)
		}
	}

	warmupService := warmup.NewService(productStore)
	warmupService.RegisterEndpoints(c, router)

	startWebServerBlocking(router)
}

func startWebServerBlocking(router *mux.Router) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting webserver on port %s (try http://localhost:%s)", port, port)
	err := http.ListenAndServe(fmt.Sprintf(":%s", port), router)
	if err != nil {
		log.Fatalf("Error starting webserver on port %s: %s", port, err)
	}
}
