package shop

import (
	"context"
	"fmt"

	"github.com/MarcGrol/smartshop/lib/myhttp"
	"github.com/MarcGrol/smartshop/lib/mylog"
	"github.com/MarcGrol/smartshop/services/shop/shopevents"
)

func (s *service) Subscribe(c context.Context) error {
	err := s.publisher.CreateTopic(c, shopevents.TopicName)
	if err != nil {
		return fmt.Errorf("error creating topic %s: %s", shopevents.TopicName, err)
	}

	err = s.subscriber.Subscribe(c, shopevents.TopicName, myhttp.GuessHostnameWithScheme()+"/api/shop/event")
	if err != nil {
		return fmt.Errorf("error subscribing to topic %s: %s", shopevents.TopicName, err)
	}

	return nil
}

func (s *service) OnOrderPlaced(c context.Context, topic string, event shopevents.OrderPlaced) error {
	s.logger.Log(c, event.OrderUID, mylog.SeverityInfo, "Event: order %s of customer %s placed with %d item(s)", event.OrderUID, event.CustomerUID, len(event.ProductUIDs))

	return nil
}

func (s *service) OnStockDepleted(c context.Context, topic string, event shopevents.StockDepleted) error {
	s.logger.Log(c, event.ProductUID, mylog.SeverityWarn, "Event: product %s sold out", event.ProductUID)

	return nil
}
