package kafka

import (
	"context"
	"encoding/json"
	"time"

	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/zlog"

	"github.com/pixshare/imageserve/internal/config"
	"github.com/pixshare/imageserve/internal/dto"
	appretry "github.com/pixshare/imageserve/internal/retry"
)

type MessageHandler func(ctx context.Context, task *dto.WarmImageTask) error

type Consumer struct {
	client  *wbfkafka.Consumer
	handler MessageHandler
	topic   string
}

func NewConsumer(cfg *config.KafkaConfig, handler MessageHandler) (*Consumer, error) {
	client := wbfkafka.NewConsumer(cfg.Brokers, cfg.Topic, cfg.GroupID)

	zlog.Logger.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Str("group_id", cfg.GroupID).
		Msg("Kafka consumer initialized (wbf)")

	return &Consumer{
		client:  client,
		handler: handler,
		topic:   cfg.Topic,
	}, nil
}

func (c *Consumer) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			zlog.Logger.Info().Msg("Kafka consumer stopped")
			return nil
		default:
			msg, err := c.client.FetchWithRetry(ctx, appretry.DefaultStrategy)
			if err != nil {
				zlog.Logger.Error().Err(err).Msg("Failed to fetch Kafka message")
				time.Sleep(time.Second)
				continue
			}

			var task dto.WarmImageTask
			if err := json.Unmarshal(msg.Value, &task); err != nil {
				zlog.Logger.Error().
					Err(err).
					Bytes("msg", msg.Value).
					Msg("Failed to unmarshal warm task")
				continue
			}

			if task.ImageID == "" {
				zlog.Logger.Error().Str("task_id", task.TaskID).Msg("Invalid warm task: empty ImageID")
				continue
			}

			zlog.Logger.Info().
				Str("task_id", task.TaskID).
				Str("image_id", task.ImageID).
				Strs("presets", task.Presets).
				Msg("Received warm task")

			if err := c.handler(ctx, &task); err != nil {
				zlog.Logger.Error().
					Err(err).
					Str("task_id", task.TaskID).
					Str("image_id", task.ImageID).
					Msg("Warm task processing failed")
				continue
			}

			if err := c.client.Commit(ctx, msg); err != nil {
				zlog.Logger.Error().
					Err(err).
					Str("task_id", task.TaskID).
					Msg("Failed to commit message")
				continue
			}

			zlog.Logger.Info().
				Str("task_id", task.TaskID).
				Str("image_id", task.ImageID).
				Msg("Warm task processed and committed")
		}
	}
}

func (c *Consumer) Close() error {
	if err := c.client.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("Failed to close Kafka consumer")
		return err
	}
	zlog.Logger.Info().Msg("Kafka consumer closed successfully")
	return nil
}
