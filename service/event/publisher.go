/*
 * @module service/event/publisher
 * @description 清洗运行事件发布器，支持 Kafka 与 MQTT 两种消息通道
 * @architecture 适配器模式 - 封装第三方消息客户端，提供统一的发布接口
 * @documentReference ai_docs/data_cleansing_pipeline.md
 * @stateFlow 运行结束 -> 序列化事件 -> 写入 Kafka topic / 发布 MQTT 主题
 * @rules 事件以运行ID为键，JSON 编码；发布失败不影响运行结果
 * @dependencies github.com/segmentio/kafka-go, github.com/eclipse/paho.mqtt.golang
 * @refs event_service.go
 */

package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"datahub-cleanser/service/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/segmentio/kafka-go"
)

// Publisher 事件发布器
type Publisher interface {
	Name() string
	Publish(ctx context.Context, evt *models.CleaningRunEvent) error
	Close() error
}

func encodeEvent(evt *models.CleaningRunEvent) ([]byte, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("序列化事件失败: %w", err)
	}
	return payload, nil
}

// KafkaPublisher Kafka发布器
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher 创建Kafka发布器
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

func (p *KafkaPublisher) Name() string { return "kafka" }

// Publish 写入一条事件消息
func (p *KafkaPublisher) Publish(ctx context.Context, evt *models.CleaningRunEvent) error {
	payload, err := encodeEvent(evt)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(evt.RunID),
		Value: payload,
		Time:  evt.FinishedAt,
		Headers: []kafka.Header{
			{Key: "status", Value: []byte(evt.Status)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("发送Kafka消息失败: %w", err)
	}

	slog.Debug("事件已发送到Kafka", "topic", p.writer.Topic, "run_id", evt.RunID)
	return nil
}

// Close 关闭生产者
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// MQTTPublisher MQTT发布器
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
	qos    byte
}

// NewMQTTPublisher 连接 broker 并创建MQTT发布器
func NewMQTTPublisher(broker, clientID, topic string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		slog.Warn("MQTT连接断开", "broker", broker, "error", err)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT连接失败: %w", token.Error())
	}

	slog.Info("MQTT发布器已连接", "broker", broker, "topic", topic)
	return &MQTTPublisher{client: client, topic: topic, qos: 1}, nil
}

func (p *MQTTPublisher) Name() string { return "mqtt" }

// Publish 发布一条事件消息
func (p *MQTTPublisher) Publish(ctx context.Context, evt *models.CleaningRunEvent) error {
	payload, err := encodeEvent(evt)
	if err != nil {
		return err
	}

	token := p.client.Publish(p.topic, p.qos, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("发布MQTT消息失败: %w", err)
	}

	slog.Debug("事件已发布到MQTT", "topic", p.topic, "run_id", evt.RunID)
	return nil
}

// Close 断开连接
func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(250)
	return nil
}
