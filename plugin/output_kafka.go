package plugin

import (
	"encoding/json"
	"strings"

	"github.com/Shopify/sarama"
)

// KafkaOutputConfig is the representation of kafka output configuration
type KafkaOutputConfig struct {
	Host  string `json:"output-kafka-host"`
	Topic string `json:"output-kafka-topic"`
}

// KafkaOutput publishes pair reports to a kafka topic.
type KafkaOutput struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaOutput(config KafkaOutputConfig) (*KafkaOutput, error) {
	c := sarama.NewConfig()
	c.Producer.RequiredAcks = sarama.WaitForLocal
	c.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(strings.Split(config.Host, ","), c)
	if err != nil {
		return nil, err
	}
	return newKafkaOutput(producer, config.Topic), nil
}

func newKafkaOutput(producer sarama.SyncProducer, topic string) *KafkaOutput {
	return &KafkaOutput{producer: producer, topic: topic}
}

func (o *KafkaOutput) Write(report *PairReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	_, _, err = o.producer.SendMessage(&sarama.ProducerMessage{
		Topic: o.topic,
		Value: sarama.ByteEncoder(data),
	})
	return err
}

func (o *KafkaOutput) Close() error {
	return o.producer.Close()
}
