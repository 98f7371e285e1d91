package events

import (
	"context"

	"github.com/nats-io/nats.go"
)

const keyHeader = "Event-Key"

// NATSPublisher publishes each event on the subject named by the event topic.
type NATSPublisher struct {
	nc *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("topup-store"))
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{nc: nc}, nil
}

func (p *NATSPublisher) Publish(_ context.Context, topic, key string, payload interface{}) error {
	data, err := encode(payload)
	if err != nil {
		return err
	}
	msg := nats.NewMsg(topic)
	msg.Header.Set(keyHeader, key)
	msg.Data = data
	return p.nc.PublishMsg(msg)
}

func (p *NATSPublisher) Close() error {
	return p.nc.Drain()
}
