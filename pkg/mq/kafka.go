package mq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"
)

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	Brokers     []string         `toml:"brokers"`
	ClientID    string           `toml:"client_id"`
	EventsTopic string           `toml:"events_topic"` // 活动生命周期事件
	Consumers   []ConsumerConfig `toml:"consumers"`
	Enabled     bool             `toml:"enabled"`
}

// ConsumerConfig 单个消费者配置
type ConsumerConfig struct {
	Name   string   `toml:"name"`   // 消费者名称（用于日志）
	Group  string   `toml:"group"`  // 消费组
	Topics []string `toml:"topics"` // 订阅的 topics
}

// DefaultEventsTopic 默认的活动事件 topic
const DefaultEventsTopic = "campaign-events"

// Validate 验证配置
func (c *KafkaConfig) Validate() error {
	if c.EventsTopic == "" {
		c.EventsTopic = DefaultEventsTopic
	}
	if !c.Enabled {
		return nil
	}
	if len(c.Brokers) == 0 {
		return fmt.Errorf("brokers is required when kafka is enabled")
	}
	for i, consumer := range c.Consumers {
		if consumer.Group == "" {
			return fmt.Errorf("consumers[%d].group is required", i)
		}
		if len(consumer.Topics) == 0 {
			return fmt.Errorf("consumers[%d].topics is required", i)
		}
	}
	return nil
}

func (c *KafkaConfig) saramaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	if c.ClientID != "" {
		cfg.ClientID = c.ClientID
	}
	return cfg
}

// KafkaConsumer Kafka 消费者
type KafkaConsumer struct {
	logger  *slog.Logger
	name    string
	topics  []string
	client  sarama.ConsumerGroup
	handler MessageHandler
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewKafkaConsumer 创建 Kafka 消费者
func NewKafkaConsumer(cfg KafkaConfig, consumer ConsumerConfig, handler MessageHandler) (*KafkaConsumer, error) {
	saramaConfig := cfg.saramaConfig()
	saramaConfig.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaConfig.Consumer.Return.Errors = true

	client, err := sarama.NewConsumerGroup(cfg.Brokers, consumer.Group, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	name := consumer.Name
	if name == "" {
		name = consumer.Group
	}

	return &KafkaConsumer{
		logger:  slog.Default().With("module", "kafka-consumer", "name", name),
		name:    name,
		topics:  consumer.Topics,
		client:  client,
		handler: handler,
	}, nil
}

// Start 启动消费者，等待首次分区分配完成或 ctx 取消后返回
func (c *KafkaConsumer) Start(ctx context.Context) error {
	if c == nil {
		return nil
	}

	ctx, c.cancel = context.WithCancel(ctx)
	ready := make(chan struct{})
	var once sync.Once

	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		for err := range c.client.Errors() {
			c.logger.Error("consumer group error", "error", err)
		}
	}()
	go func() {
		defer c.wg.Done()
		for {
			handler := &consumerGroupHandler{
				onSetup: func() { once.Do(func() { close(ready) }) },
				handler: c.handler,
				logger:  c.logger,
			}

			if err := c.client.Consume(ctx, c.topics, handler); err != nil {
				if ctx.Err() != nil {
					return
				}
				c.logger.Error("consumer error", "error", err)
				time.Sleep(time.Second)
			}

			if ctx.Err() != nil {
				return
			}
		}
	}()

	// 等待消费者就绪
	select {
	case <-ready:
		c.logger.Info("consumer started", "topics", c.topics)
	case <-ctx.Done():
	}

	return nil
}

// Stop 停止消费者
func (c *KafkaConsumer) Stop() error {
	if c == nil {
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}

	var err error
	if c.client != nil {
		// 关闭后 Errors() 通道随之关闭
		err = c.client.Close()
	}

	c.wg.Wait()
	return err
}

// consumerGroupHandler 实现 sarama.ConsumerGroupHandler
type consumerGroupHandler struct {
	onSetup func()
	handler MessageHandler
	logger  *slog.Logger
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	if h.onSetup != nil {
		h.onSetup()
	}
	return nil
}

func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			h.logger.Debug("received message",
				"topic", message.Topic,
				"partition", message.Partition,
				"offset", message.Offset,
			)

			if err := h.handler(session.Context(), message.Topic, message.Value); err != nil {
				h.logger.Error("failed to handle message",
					"topic", message.Topic,
					"offset", message.Offset,
					"error", err,
				)
				// 继续处理下一条消息，不阻塞
			}

			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

// KafkaProducer Kafka 生产者
type KafkaProducer struct {
	logger *slog.Logger
	client sarama.SyncProducer
}

// 确保 KafkaProducer 实现 Publisher 接口
var _ Publisher = (*KafkaProducer)(nil)

// NewKafkaProducer 创建 Kafka 生产者
func NewKafkaProducer(cfg KafkaConfig) (*KafkaProducer, error) {
	saramaConfig := cfg.saramaConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 3

	client, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}

	return newKafkaProducer(client), nil
}

func newKafkaProducer(client sarama.SyncProducer) *KafkaProducer {
	return &KafkaProducer{
		logger: slog.Default().With("module", "kafka-producer"),
		client: client,
	}
}

// Publish 发布消息。SyncProducer 不支持取消，ctx 已结束时直接返回
func (p *KafkaProducer) Publish(ctx context.Context, topic string, message []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(message),
	}

	partition, offset, err := p.client.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	p.logger.Debug("message sent",
		"topic", topic,
		"partition", partition,
		"offset", offset,
	)

	return nil
}

// Close 关闭生产者
func (p *KafkaProducer) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}
