package logger

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/infra/producer"
	"github.com/segmentio/kafka-go"
)

const writeTimeout = 3 * time.Second

// KafkaLogWriter 把 zerolog 的每一行送到 kafka
// key 使用遞增序號，讓 log 平均分散到各 partition
type KafkaLogWriter struct {
	w     producer.Writer
	logId atomic.Uint64
}

func NewKafkaLogWriter(w producer.Writer) *KafkaLogWriter {
	return &KafkaLogWriter{w: w}
}

// NewAsyncKafkaWriter log 不等待 broker ack
func NewAsyncKafkaWriter(brokers []string, topic string) *kafka.Writer {
	w := producer.NewKafkaWriter(brokers, topic)
	w.Balancer = &kafka.RoundRobin{}
	w.Async = true
	return w
}

func (kw *KafkaLogWriter) Write(p []byte) (int, error) {
	if kw == nil || kw.w == nil {
		return 0, fmt.Errorf("kafka log writer is not init")
	}
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, kw.logId.Add(1))
	// zerolog 會重用 buffer
	value := make([]byte, len(p))
	copy(value, p)

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := kw.w.WriteMessages(ctx, kafka.Message{Key: key, Value: value}); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (kw *KafkaLogWriter) Close() error {
	return kw.w.Close()
}
