package admin

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

// TopicConfig 代表主題配置
type TopicConfig struct {
	Name              string            `yaml:"name"`
	Partitions        int               `yaml:"partitions"`
	ReplicationFactor int               `yaml:"replication_factor"`
	Configs           map[string]string `yaml:"configs"`
}

func (t TopicConfig) toKafka() kafka.TopicConfig {
	partitions := t.Partitions
	if partitions <= 0 {
		partitions = 1
	}
	replication := t.ReplicationFactor
	if replication <= 0 {
		replication = 1
	}

	keys := make([]string, 0, len(t.Configs))
	for k := range t.Configs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	entries := make([]kafka.ConfigEntry, 0, len(keys))
	for _, k := range keys {
		entries = append(entries, kafka.ConfigEntry{ConfigName: k, ConfigValue: t.Configs[k]})
	}

	return kafka.TopicConfig{
		Topic:             t.Name,
		NumPartitions:     partitions,
		ReplicationFactor: replication,
		ConfigEntries:     entries,
	}
}

// Admin 連線到 controller broker，用於建立 topic
type Admin struct {
	conn *kafka.Conn
}

// NewAdmin 依序嘗試每個 broker 直到找到 controller
func NewAdmin(ctx context.Context, brokers []string) (*Admin, error) {
	var lastErr error
	dialer := &kafka.Dialer{Timeout: 10 * time.Second}
	for _, broker := range brokers {
		conn, err := dialer.DialContext(ctx, "tcp", broker)
		if err != nil {
			lastErr = err
			continue
		}

		controller, err := conn.Controller()
		if err != nil {
			conn.Close()
			lastErr = err
			continue
		}

		addr := net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port))
		if addr != broker {
			conn.Close()
			conn, err = dialer.DialContext(ctx, "tcp", addr)
			if err != nil {
				lastErr = err
				continue
			}
		}
		return &Admin{conn: conn}, nil
	}
	return nil, fmt.Errorf("failed to connect to any broker and find controller: %w", lastErr)
}

func (a *Admin) Close() error {
	return a.conn.Close()
}

func (a *Admin) ListTopics() ([]string, error) {
	partitions, err := a.conn.ReadPartitions()
	if err != nil {
		return nil, fmt.Errorf("failed to read partitions: %w", err)
	}

	seen := make(map[string]struct{})
	topics := make([]string, 0)
	for _, p := range partitions {
		if _, ok := seen[p.Topic]; ok {
			continue
		}
		seen[p.Topic] = struct{}{}
		topics = append(topics, p.Topic)
	}
	return topics, nil
}

// EnsureTopic topic 不存在時建立，已存在時不檢查分區數
func (a *Admin) EnsureTopic(ctx context.Context, topic TopicConfig) (created bool, err error) {
	topics, err := a.ListTopics()
	if err != nil {
		return false, err
	}
	for _, t := range topics {
		if t == topic.Name {
			return false, nil
		}
	}

	if err := a.conn.CreateTopics(topic.toKafka()); err != nil {
		return false, fmt.Errorf("failed to create topic %s: %w", topic.Name, err)
	}
	return true, a.WaitForTopics(ctx, []string{topic.Name}, 30*time.Second)
}

// WaitForTopics 等待主題創建完成
func (a *Admin) WaitForTopics(ctx context.Context, topics []string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		existing, err := a.ListTopics()
		if err != nil {
			return err
		}
		if containsAll(existing, topics) {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for topics to be created: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

func containsAll(have, want []string) bool {
	set := make(map[string]struct{}, len(have))
	for _, h := range have {
		set[h] = struct{}{}
	}
	for _, w := range want {
		if _, ok := set[w]; !ok {
			return false
		}
	}
	return true
}
