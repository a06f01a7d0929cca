package shopevents

import (
	"context"
	"fmt"
	"io"

	"github.com/MarcGrol/smartshop/lib/myerrors"
	"github.com/MarcGrol/smartshop/lib/myevents"
)

const (
	TopicName         = "shop"
	orderPlacedName   = TopicName + ".order.placed"
	stockDepletedName = TopicName + ".stock.depleted"
)

type ShopEventService interface {
	Subscribe(c context.Context) error
	OnOrderPlaced(c context.Context, topic string, event OrderPlaced) error
	OnStockDepleted(c context.Context, topic string, event StockDepleted) error
}

func DispatchEvent(c context.Context, reader io.Reader, service ShopEventService) error {
	envelope, err := myevents.ParseEventEnvelope(reader)
	if err != nil {
		return myerrors.NewInvalidInputError(err)
	}

	switch envelope.EventTypeName {
	case orderPlacedName:
		{
			event := OrderPlaced{}
			err := myevents.ParsePayload(envelope, &event)
			if err != nil {
				return myerrors.NewInvalidInputError(err)
			}
			return service.OnOrderPlaced(c, envelope.Topic, event)
		}
	case stockDepletedName:
		{
			event := StockDepleted{}
			err := myevents.ParsePayload(envelope, &event)
			if err != nil {
				return myerrors.NewInvalidInputError(err)
			}
			return service.OnStockDepleted(c, envelope.Topic, event)
		}
	default:
		return myerrors.NewNotImplementedError(fmt.Errorf("unsupported event type %s", envelope.EventTypeName))
	}
}

type OrderPlaced struct {
	OrderUID    string
	CustomerUID string
	Total       int64
	Currency    string
	ProductUIDs []string
}

func (e OrderPlaced) GetEventTypeName() string {
	return orderPlacedName
}

func (e OrderPlaced) GetAggregateName() string {
	return e.OrderUID
}

type StockDepleted struct {
	ProductUID string
}

func (e StockDepleted) GetEventTypeName() string {
	return stockDepletedName
}

func (e StockDepleted) GetAggregateName() string {
	return e.ProductUID
}
