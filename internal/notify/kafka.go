package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/sells-group/quake-cli/internal/apperr"
)

// publishBatchTimeout bounds how long a synchronous WriteMessages call waits
// for a batch to fill. kafka-go defaults to one second.
const publishBatchTimeout = 10 * time.Millisecond

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// KafkaPublisher writes one message per event, keyed by usgs_id.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a producer for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, apperr.Configuration(eris.New("notify: no kafka brokers configured"))
	}
	if topic == "" {
		return nil, apperr.Configuration(eris.New("notify: kafka topic is required"))
	}
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: publishBatchTimeout,
	}
	return &KafkaPublisher{writer: w}, nil
}

// Publish serializes events and sends them in a single WriteMessages call.
func (p *KafkaPublisher) Publish(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msg, err := toMessage(events[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return apperr.Transport(eris.Wrapf(err, "notify: publish %d events", len(events)))
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func toMessage(e Event) (kafkago.Message, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return kafkago.Message{}, eris.Wrapf(err, "notify: serialize %s", e.USGSID)
	}
	return kafkago.Message{
		Key:   []byte(e.USGSID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "table", Value: []byte(e.Table)},
			{Key: "ingested_at", Value: []byte(e.IngestedAt.Format(time.RFC3339))},
		},
	}, nil
}
