package mypubsub

import (
	"context"
	"log"
	"os"
	"sync"
)

func init() {
	if os.Getenv("GOOGLE_CLOUD_PROJECT") == "" {
		New = func(c context.Context) (PubSub, func(), error) {
			return NewFake(), func() {}, nil
		}
	}
}

// FakePubSub keeps everything in memory so a local instance runs without Google Cloud.
type FakePubSub struct {
	sync.Mutex
	Subscriptions map[string][]string
	Published     map[string][]string
}

func NewFake() *FakePubSub {
	return &FakePubSub{
		Subscriptions: map[string][]string{},
		Published:     map[string][]string{},
	}
}

func (ps *FakePubSub) Subscribe(c context.Context, topic string, urlToPostTo string) error {
	ps.Lock()
	defer ps.Unlock()

	ps.Subscriptions[topic] = append(ps.Subscriptions[topic], urlToPostTo)
	return nil
}

func (ps *FakePubSub) CreateTopic(c context.Context, topic string) error {
	return nil
}

func (ps *FakePubSub) Publish(c context.Context, topic string, data string) error {
	ps.Lock()
	defer ps.Unlock()

	ps.Published[topic] = append(ps.Published[topic], data)
	log.Printf("Fake-published on topic %s to %d subscriber(s)", topic, len(ps.Subscriptions[topic]))
	return nil
}
