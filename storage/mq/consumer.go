package mq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"CareCompanion/pkg/errors"
	"CareCompanion/pkg/logger"
	pkgmq "CareCompanion/pkg/mq"
)

type MessageHandler func(ctx context.Context, body []byte) error

type ConsumeOptions struct {
	Queue         string
	ConsumerTag   string
	PrefetchCount int
	Handler       MessageHandler
}

// Consume 阻塞消费直到 ctx 取消或 channel 关闭
// 处理成功或 SkipMessageError 时 ack，NonRetryableError 丢弃，其余错误重新入队
func Consume(ctx context.Context, opts ConsumeOptions) error {
	if conn == nil {
		return fmt.Errorf("RabbitMQ connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if opts.PrefetchCount > 0 {
		if err := ch.Qos(opts.PrefetchCount, 0, false); err != nil {
			return fmt.Errorf("failed to set QoS: %w", err)
		}
	}

	msgs, err := ch.Consume(opts.Queue, opts.ConsumerTag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	logger.Logger.Info("Started consuming messages",
		zap.String("queue", opts.Queue),
		zap.String("consumer_tag", opts.ConsumerTag),
		zap.Int("prefetch_count", opts.PrefetchCount),
	)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed for queue %s", opts.Queue)
			}
			handle(ctx, opts, msg)
		}
	}
}

func handle(ctx context.Context, opts ConsumeOptions, msg amqp.Delivery) {
	start := time.Now()
	msgCtx, span := pkgmq.StartConsume(ctx, opts.Queue, msg)

	err := opts.Handler(msgCtx, msg.Body)
	pkgmq.End(msgCtx, span, "consume", opts.Queue, start, err)

	switch {
	case err == nil:
		_ = msg.Ack(false)
	case errors.IsSkipMessageError(err):
		logger.Logger.Info("Message skipped",
			zap.String("queue", opts.Queue),
			zap.String("message_id", msg.MessageId),
			zap.Error(err),
		)
		_ = msg.Ack(false)
	case errors.IsNonRetryableError(err):
		logger.Logger.Error("Dropping message after non-retryable error",
			zap.String("queue", opts.Queue),
			zap.String("message_id", msg.MessageId),
			zap.Error(err),
		)
		_ = msg.Nack(false, false)
	default:
		logger.Logger.Error("Failed to process message",
			zap.String("queue", opts.Queue),
			zap.String("consumer_tag", opts.ConsumerTag),
			zap.Error(err),
		)
		_ = msg.Nack(false, true)
	}
}
