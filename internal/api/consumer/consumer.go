package consumer

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/Zereker/adboard/internal/domain"
	"github.com/Zereker/adboard/internal/service"
	"github.com/Zereker/adboard/pkg/log"
	"github.com/Zereker/adboard/pkg/mq"
)

// DefaultMetricsTopic 广告投放指标 topic
const DefaultMetricsTopic = "ad-metrics"

// defaultGroup 未配置消费者时使用的消费组
const defaultGroup = "adboard-metrics"

// Consumer 广告指标消费者，把投放端上报的指标合并到每日统计
type Consumer struct {
	logger    *slog.Logger
	analytics *service.AnalyticsService
	topic     string
	consumers []*mq.KafkaConsumer
}

// Config 消费者配置
type Config struct {
	Kafka        mq.KafkaConfig
	MetricsTopic string
}

// NewConsumer 创建消费者。Kafka 未启用时不创建 Kafka 消费者，
// 可通过 Subscribe 挂到内存队列上。
func NewConsumer(analytics *service.AnalyticsService, cfg Config) (*Consumer, error) {
	if cfg.MetricsTopic == "" {
		cfg.MetricsTopic = DefaultMetricsTopic
	}

	c := &Consumer{
		logger:    log.Logger("consumer"),
		analytics: analytics,
		topic:     cfg.MetricsTopic,
	}

	if !cfg.Kafka.Enabled {
		c.logger.Info("kafka disabled, metrics consumed from in-memory queue only")
		return c, nil
	}

	consumers := cfg.Kafka.Consumers
	if len(consumers) == 0 {
		consumers = []mq.ConsumerConfig{{
			Name:   "metrics",
			Group:  defaultGroup,
			Topics: []string{cfg.MetricsTopic},
		}}
	}

	for _, cc := range consumers {
		kc, err := mq.NewKafkaConsumer(cfg.Kafka, cc, c.HandleMetric)
		if err != nil {
			c.closeAll()
			return nil, errors.WithMessagef(err, "create consumer %s", cc.Group)
		}
		c.consumers = append(c.consumers, kc)
	}

	return c, nil
}

// Topic 返回指标 topic
func (c *Consumer) Topic() string {
	return c.topic
}

// Subscribe 订阅内存队列上的指标 topic
func (c *Consumer) Subscribe(queue mq.MessageQueue) error {
	return queue.Subscribe(c.topic, c.HandleMetric)
}

// HandleMetric 解析一条指标消息并合并到 (campaign, date) 的统计记录。
// 无法解析或校验失败的消息只记录日志，不返回错误，避免阻塞后续消息。
func (c *Consumer) HandleMetric(_ context.Context, topic string, message []byte) error {
	var event domain.MetricEvent
	if err := json.Unmarshal(message, &event); err != nil {
		c.logger.Warn("skip malformed metric", "topic", topic, "error", err)
		return nil
	}

	record, err := c.analytics.Merge(event)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			c.logger.Warn("skip invalid metric", "campaign_id", event.CampaignID, "error", err)
			return nil
		}
		return errors.WithMessage(err, "merge metric")
	}

	c.logger.Debug("metric merged",
		"campaign_id", record.CampaignID,
		"date", record.Date,
		"impressions", record.Metrics.Impressions,
	)
	return nil
}

// Start 启动所有 Kafka 消费者
func (c *Consumer) Start(ctx context.Context) error {
	if len(c.consumers) == 0 {
		c.logger.Info("no kafka consumers configured, skipping start")
		return nil
	}

	c.logger.Info("starting consumers", "count", len(c.consumers))

	g, ctx := errgroup.WithContext(ctx)
	for _, consumer := range c.consumers {
		g.Go(func() error {
			return consumer.Start(ctx)
		})
	}

	return g.Wait()
}

// Stop 停止所有消费者
func (c *Consumer) Stop() error {
	c.logger.Info("stopping consumers")
	c.closeAll()
	return nil
}

func (c *Consumer) closeAll() {
	for _, consumer := range c.consumers {
		if err := consumer.Stop(); err != nil {
			c.logger.Error("failed to stop consumer", "error", err)
		}
	}
}
