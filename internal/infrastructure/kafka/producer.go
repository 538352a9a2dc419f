package kafka

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/zlog"

	"github.com/pixshare/imageserve/internal/config"
	"github.com/pixshare/imageserve/internal/dto"
	appretry "github.com/pixshare/imageserve/internal/retry"
)

type Producer struct {
	client *wbfkafka.Producer
	topic  string
}

// NewProducer builds the warm-task producer via wbf.
func NewProducer(cfg *config.KafkaConfig) *Producer {
	client := wbfkafka.NewProducer(cfg.Brokers, cfg.Topic)
	zlog.Logger.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Msg("Kafka producer initialized (wbf)")
	return &Producer{
		client: client,
		topic:  cfg.Topic,
	}
}

// PublishWarmTask enqueues a pre-render task for the worker, with
// bounded retries against broker hiccups.
func (p *Producer) PublishWarmTask(ctx context.Context, imageID string, presets []string) error {
	task := dto.WarmImageTask{
		TaskID:  uuid.New().String(),
		ImageID: imageID,
		Presets: presets,
	}

	data, err := json.Marshal(task)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("image_id", imageID).Msg("Failed to marshal warm task")
		return err
	}

	if err := p.client.SendWithRetry(ctx, appretry.DefaultStrategy, nil, data); err != nil {
		zlog.Logger.Error().
			Err(err).
			Str("image_id", imageID).
			Strs("presets", presets).
			Msg("Failed to send warm task to Kafka")
		return err
	}

	zlog.Logger.Info().
		Str("task_id", task.TaskID).
		Str("image_id", imageID).
		Strs("presets", presets).
		Msg("Warm task sent to Kafka")
	return nil
}

func (p *Producer) Close() error {
	if err := p.client.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("Failed to close Kafka producer")
		return err
	}
	zlog.Logger.Info().Msg("Kafka producer closed successfully")
	return nil
}
