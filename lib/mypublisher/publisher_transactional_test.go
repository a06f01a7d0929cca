package mypublisher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/smartshop/lib/myevents"
	"github.com/MarcGrol/smartshop/lib/mypubsub"
	"github.com/MarcGrol/smartshop/lib/myqueue"
	"github.com/MarcGrol/smartshop/lib/mystore"
	"github.com/MarcGrol/smartshop/lib/mytime"
)

type restocked struct {
	ProductUID string
	Amount     int
}

func (e restocked) GetEventTypeName() string {
	return "test.restocked"
}

func (e restocked) GetAggregateName() string {
	return e.ProductUID
}

func setup(t *testing.T) (*TransactionalPublisher, mystore.Store[myevents.EventEnvelope], *mypubsub.FakePubSub, *myqueue.FakeTaskQueue) {
	ctrl := gomock.NewController(t)
	nower := mytime.NewMockNower(ctrl)
	nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()

	outbox, _, _ := mystore.NewInMemoryStore[myevents.EventEnvelope](context.TODO())
	pubsub := mypubsub.NewFake()
	queue := myqueue.NewFake()

	return newTransactionalPublisher(outbox, pubsub, queue, nower), outbox, pubsub, queue
}

func TestPublisher(t *testing.T) {
	c := context.TODO()

	t.Run("publish stores envelope and enqueues trigger", func(t *testing.T) {
		// given
		sut, outbox, pubsub, queue := setup(t)

		// when
		err := sut.Publish(c, "shop", restocked{ProductUID: "p1", Amount: 3})

		// then
		assert.NoError(t, err)
		envelopes, _ := outbox.List(c)
		assert.Len(t, envelopes, 1)
		assert.Equal(t, "shop", envelopes[0].Topic)
		assert.Equal(t, "p1", envelopes[0].AggregateUID)
		assert.Equal(t, "test.restocked", envelopes[0].EventTypeName)
		assert.Equal(t, `{"ProductUID":"p1","Amount":3}`, envelopes[0].EventPayload)
		assert.Equal(t, mytime.ExampleTime, envelopes[0].CreatedAt)
		assert.False(t, envelopes[0].Published)

		assert.Len(t, queue.Tasks, 1)
		assert.Equal(t, "/pubsub/shop/"+envelopes[0].UID, queue.Tasks[0].WebhookURLPath)
		assert.Empty(t, pubsub.Published)
	})

	t.Run("same event twice yields one envelope", func(t *testing.T) {
		// given
		sut, outbox, _, queue := setup(t)

		// when
		assert.NoError(t, sut.Publish(c, "shop", restocked{ProductUID: "p1", Amount: 3}))
		assert.NoError(t, sut.Publish(c, "shop", restocked{ProductUID: "p1", Amount: 3}))

		// then
		envelopes, _ := outbox.List(c)
		assert.Len(t, envelopes, 1)
		assert.Len(t, queue.Tasks, 1)
	})

	t.Run("publish is rolled back with the enclosing transaction", func(t *testing.T) {
		// given
		sut, outbox, _, _ := setup(t)

		// when
		err := outbox.RunInTransaction(c, func(c context.Context) error {
			err := sut.Publish(c, "shop", restocked{ProductUID: "p1", Amount: 3})
			if err != nil {
				return err
			}
			return errors.New("abort")
		})

		// then
		assert.EqualError(t, err, "abort")
		envelopes, _ := outbox.List(c)
		assert.Empty(t, envelopes)
	})

	t.Run("publish is rolled back with a transaction entered through the publisher", func(t *testing.T) {
		// given
		sut, outbox, _, _ := setup(t)
		names, _, _ := mystore.NewInMemoryStore[string](c)

		// when
		err := names.RunInTransaction(c, func(c context.Context) error {
			return sut.RunInTransaction(c, func(c context.Context) error {
				err := names.Put(c, "p1", "Mouse")
				if err != nil {
					return err
				}
				err = sut.Publish(c, "shop", restocked{ProductUID: "p1", Amount: 3})
				if err != nil {
					return err
				}
				return errors.New("abort")
			})
		})

		// then
		assert.EqualError(t, err, "abort")
		envelopes, _ := outbox.List(c)
		assert.Empty(t, envelopes)
		_, found, _ := names.Get(c, "p1")
		assert.False(t, found)
	})

	t.Run("failing trigger asks the queue for remaining attempts", func(t *testing.T) {
		// given
		ctrl := gomock.NewController(t)
		nower := mytime.NewMockNower(ctrl)
		nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()
		pubsub := mypubsub.NewMockPubSub(ctrl)
		queue := myqueue.NewMockTaskQueuer(ctrl)
		outbox, _, _ := mystore.NewInMemoryStore[myevents.EventEnvelope](c)
		sut := newTransactionalPublisher(outbox, pubsub, queue, nower)

		queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(nil)
		assert.NoError(t, sut.Publish(c, "shop", restocked{ProductUID: "p1", Amount: 3}))
		pubsub.EXPECT().Publish(gomock.Any(), "shop", gomock.Any()).Return(errors.New("pubsub down"))
		queue.EXPECT().IsLastAttempt(gomock.Any(), "task-1").Return(int32(5), int32(5))

		// when
		published, err := sut.ProcessTrigger(c, "shop", "task-1")

		// then
		assert.Error(t, err)
		assert.Equal(t, 0, published)
		pending, _ := outbox.Query(c, []mystore.Filter{{Field: "Published", Compare: "=", Value: false}}, "")
		assert.Len(t, pending, 1)
	})

	t.Run("trigger publishes pending envelopes once", func(t *testing.T) {
		// given
		sut, outbox, pubsub, _ := setup(t)
		assert.NoError(t, sut.Publish(c, "shop", restocked{ProductUID: "p1", Amount: 3}))
		assert.NoError(t, sut.Publish(c, "shop", restocked{ProductUID: "p2", Amount: 1}))

		// when
		published, err := sut.ProcessTrigger(c, "shop", "any")

		// then
		assert.NoError(t, err)
		assert.Equal(t, 2, published)
		assert.Len(t, pubsub.Published["shop"], 2)
		pending, _ := outbox.Query(c, []mystore.Filter{{Field: "Published", Compare: "=", Value: false}}, "")
		assert.Empty(t, pending)

		// when
		published, err = sut.ProcessTrigger(c, "shop", "any")

		// then
		assert.NoError(t, err)
		assert.Equal(t, 0, published)
		assert.Len(t, pubsub.Published["shop"], 2)
	})

	t.Run("trigger endpoint", func(t *testing.T) {
		// given
		sut, _, pubsub, _ := setup(t)
		assert.NoError(t, sut.Publish(c, "shop", restocked{ProductUID: "p1", Amount: 3}))
		router := mux.NewRouter()
		sut.RegisterEndpoints(c, router)

		// when
		request, err := http.NewRequest(http.MethodPut, "/pubsub/shop/abc", nil)
		assert.NoError(t, err)
		request.Host = "localhost:8888"
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusOK, response.Code)
		assert.Contains(t, response.Body.String(), "Successfully published 1 event(s)")
		assert.Len(t, pubsub.Published["shop"], 1)
	})
}
