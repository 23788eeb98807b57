package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"CareCompanion/pkg/logger"
	pkgmq "CareCompanion/pkg/mq"
)

var (
	publisherCh *amqp.Channel
	pubMutex    sync.RWMutex
)

// getPublisherChannel 复用一个发布 channel，关闭后下次发布时重建
func getPublisherChannel() (*amqp.Channel, error) {
	pubMutex.RLock()
	if publisherCh != nil && !publisherCh.IsClosed() {
		ch := publisherCh
		pubMutex.RUnlock()
		return ch, nil
	}
	pubMutex.RUnlock()

	pubMutex.Lock()
	defer pubMutex.Unlock()

	if publisherCh != nil && !publisherCh.IsClosed() {
		return publisherCh, nil
	}

	if conn == nil {
		return nil, fmt.Errorf("RabbitMQ connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open publish channel: %w", err)
	}
	publisherCh = ch

	closed := ch.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		<-closed
		pubMutex.Lock()
		if publisherCh == ch {
			publisherCh = nil
		}
		pubMutex.Unlock()

		logger.Logger.Warn("Publisher channel closed, will recreate on next publish",
			zap.String("component", "rabbitmq"),
		)
	}()

	logger.Logger.Info("Publisher channel created",
		zap.String("component", "rabbitmq"),
	)

	return ch, nil
}

// PublishDelayedMessage 通过延迟交换机发送消息
func PublishDelayedMessage(ctx context.Context, exchange, routingKey, messageID string, delay time.Duration, body interface{}) error {
	return publish(ctx, exchange, routingKey, messageID, body, amqp.Table{
		"x-delay": delay.Milliseconds(),
	})
}

// PublishMessage 发送普通消息
func PublishMessage(ctx context.Context, exchange, routingKey, messageID string, body interface{}) error {
	return publish(ctx, exchange, routingKey, messageID, body, nil)
}

func publish(ctx context.Context, exchange, routingKey, messageID string, body interface{}, headers amqp.Table) (err error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    messageID,
		Body:         bodyBytes,
		Headers:      headers,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	}

	start := time.Now()
	ctx, span := pkgmq.StartPublish(ctx, exchange, routingKey, &msg)
	defer func() { pkgmq.End(ctx, span, "publish", routingKey, start, err) }()

	ch, err := getPublisherChannel()
	if err != nil {
		return err
	}

	if err = ch.PublishWithContext(ctx, exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}
