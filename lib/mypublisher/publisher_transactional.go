package mypublisher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/smartshop/lib/mycontext"
	"github.com/MarcGrol/smartshop/lib/myevents"
	"github.com/MarcGrol/smartshop/lib/myhttp"
	"github.com/MarcGrol/smartshop/lib/mylog"
	"github.com/MarcGrol/smartshop/lib/mypubsub"
	"github.com/MarcGrol/smartshop/lib/myqueue"
	"github.com/MarcGrol/smartshop/lib/mystore"
	"github.com/MarcGrol/smartshop/lib/mytime"
)

// TransactionalPublisher stores events in an outbox within the caller's transaction. A queued
// trigger publishes the outbox once the transaction has committed.
type TransactionalPublisher struct {
	outbox    mystore.Store[myevents.EventEnvelope]
	queue     myqueue.TaskQueuer
	enveloper enveloper
	pubsub    mypubsub.PubSub
	logger    mylog.Logger
}

func New(c context.Context, pubsub mypubsub.PubSub, queue myqueue.TaskQueuer, nower mytime.Nower) (*TransactionalPublisher, func(), error) {
	store, storeCleanup, err := mystore.New[myevents.EventEnvelope](c)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating outbox: %w", err)
	}

	return newTransactionalPublisher(store, pubsub, queue, nower), storeCleanup, nil
}

func newTransactionalPublisher(outbox mystore.Store[myevents.EventEnvelope], pubsub mypubsub.PubSub, queue myqueue.TaskQueuer, nower mytime.Nower) *TransactionalPublisher {
	return &TransactionalPublisher{
		outbox:    outbox,
		queue:     queue,
		enveloper: newEnveloper(nower),
		pubsub:    pubsub,
		logger:    mylog.New("publisher"),
	}
}

func (p *TransactionalPublisher) RegisterEndpoints(c context.Context, router *mux.Router) {
	router.HandleFunc("/pubsub/{topic}/{uid}", p.processTriggerPage()).Methods("PUT")
}

func (p *TransactionalPublisher) CreateTopic(c context.Context, topicName string) error {
	return p.pubsub.CreateTopic(c, topicName)
}

// RunInTransaction enlists the outbox in the caller's transaction: envelopes are discarded
// together with the state change they describe.
func (p *TransactionalPublisher) RunInTransaction(c context.Context, f func(c context.Context) error) error {
	return p.outbox.RunInTransaction(c, f)
}

func (p *TransactionalPublisher) Publish(c context.Context, topic string, event myevents.Event) error {
	envelope, err := p.enveloper.do(topic, event)
	if err != nil {
		return fmt.Errorf("error creating envelope: %w", err)
	}

	err = p.outbox.Put(c, envelope.UID, envelope)
	if err != nil {
		return fmt.Errorf("error storing envelope %s: %w", envelope.UID, err)
	}

	err = p.queue.Enqueue(c, myqueue.Task{
		UID:            envelope.UID,
		WebhookURLPath: fmt.Sprintf("/pubsub/%s/%s", envelope.Topic, envelope.UID),
		Payload:        []byte{},
	})
	if err != nil {
		return fmt.Errorf("error queueing publication-trigger %s: %w", envelope.UID, err)
	}

	p.logger.Log(c, envelope.AggregateUID, mylog.SeverityInfo, "Enqueued event %s", envelope.String())

	return nil
}

func (p *TransactionalPublisher) processTriggerPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(p.logger)

		topicName := mux.Vars(r)["topic"]
		taskUID := mux.Vars(r)["uid"]

		published, err := p.ProcessTrigger(c, topicName, taskUID)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{
			Message: fmt.Sprintf("Successfully published %d event(s)", published),
		})
	}
}

// ProcessTrigger publishes every envelope in the outbox that has not been published yet,
// oldest first, and returns how many were published. The uid is the one of the queued task.
func (p *TransactionalPublisher) ProcessTrigger(c context.Context, topicName string, uid string) (int, error) {
	published := 0

	err := p.outbox.RunInTransaction(c, func(c context.Context) error {
		envelopes, err := p.outbox.Query(c, []mystore.Filter{{Field: "Published", Compare: "=", Value: false}}, "CreatedAt")
		if err != nil {
			return fmt.Errorf("error fetching unpublished envelopes: %w", err)
		}

		p.logger.Log(c, uid, mylog.SeverityInfo, "Trigger %s on topic %s: found %d unpublished events", uid, topicName, len(envelopes))

		for _, envelope := range envelopes {
			jsonBytes, err := json.Marshal(envelope)
			if err != nil {
				return fmt.Errorf("error serializing envelope %s: %w", envelope.UID, err)
			}

			err = p.pubsub.Publish(c, envelope.Topic, string(jsonBytes))
			if err != nil {
				return fmt.Errorf("error publishing envelope %s: %w", envelope.UID, err)
			}

			envelope.Published = true
			err = p.outbox.Put(c, envelope.UID, envelope)
			if err != nil {
				return fmt.Errorf("error marking envelope %s as published: %w", envelope.UID, err)
			}
			published++
		}
		return nil
	})
	if err != nil {
		dispatchCount, maxAttempts := p.queue.IsLastAttempt(c, uid)
		if maxAttempts > 0 && dispatchCount >= maxAttempts {
			p.logger.Log(c, uid, mylog.SeverityError, "Giving up on trigger %s on topic %s after %d attempts: %s", uid, topicName, dispatchCount, err)
		}
		return 0, err
	}

	return published, nil
}
