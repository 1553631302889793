package kafka

import (
	"context"
	"fmt"
	"sync"

	"portfolio-ledger/conf"

	"github.com/segmentio/kafka-go"
)

var (
	writers sync.Map // map[string]*kafka.Writer
)

// GetWriter returns the shared writer of topic, creating it on first use.
func GetWriter(topic string) *kafka.Writer {
	val, ok := writers.Load(topic)
	if ok {
		return val.(*kafka.Writer)
	}
	brokers := conf.GetConf().Kafka.Brokers
	if len(brokers) == 0 {
		panic("Kafka brokers not configured")
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
	actual, _ := writers.LoadOrStore(topic, writer)
	return actual.(*kafka.Writer)
}

// InitWriters creates a writer for every configured topic.
func InitWriters() {
	for _, topic := range conf.GetConf().Kafka.Topics {
		GetWriter(topic)
	}
}

// TestKafkaConnection dials the first broker.
func TestKafkaConnection() {
	brokers := conf.GetConf().Kafka.Brokers
	if len(brokers) == 0 {
		panic("Kafka brokers not configured")
	}
	conn, err := kafka.DialContext(context.Background(), "tcp", brokers[0])
	if err != nil {
		panic(fmt.Sprintf("failed to connect to kafka: %v", err))
	}
	_ = conn.Close()
}

func CloseAllWriters() {
	writers.Range(func(key, value interface{}) bool {
		if w, ok := value.(*kafka.Writer); ok {
			_ = w.Close()
		}
		return true
	})
}

// Init checks the brokers and prepares writers, it does nothing when no broker is configured.
func Init() {
	if len(conf.GetConf().Kafka.Brokers) == 0 {
		return
	}
	TestKafkaConnection()
	InitWriters()
}
