package mq

import (
	"context"
	"sync"
)

// InMemoryQueue 内存消息队列（用于测试和未启用 Kafka 的部署）
type InMemoryQueue struct {
	mu       sync.RWMutex
	handlers map[string][]MessageHandler
	messages map[string][][]byte
}

// 确保 InMemoryQueue 实现 MessageQueue 接口
var _ MessageQueue = (*InMemoryQueue)(nil)

// NewInMemoryQueue 创建内存消息队列
func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]MessageHandler),
		messages: make(map[string][][]byte),
	}
}

// Publish 发布消息（同步调用所有 handler，遇到第一个错误即返回）
func (q *InMemoryQueue) Publish(ctx context.Context, topic string, message []byte) error {
	q.mu.Lock()
	q.messages[topic] = append(q.messages[topic], message)
	handlers := append([]MessageHandler(nil), q.handlers[topic]...)
	q.mu.Unlock()

	for _, handler := range handlers {
		if err := handler(ctx, topic, message); err != nil {
			return err
		}
	}
	return nil
}

// Subscribe 订阅 topic
func (q *InMemoryQueue) Subscribe(topic string, handler MessageHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

// Close 关闭
func (q *InMemoryQueue) Close() error {
	return nil
}

// Messages 获取指定 topic 的所有消息（用于测试）
func (q *InMemoryQueue) Messages(topic string) [][]byte {
	q.mu.RLock()
	defer q.mu.RUnlock()

	return append([][]byte(nil), q.messages[topic]...)
}
