// Package notify publishes pump alarm records to MQTT so
// home-automation listeners can react without polling the target store.
package notify

import (
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/jwoglom/tconnectsync-sub000/internal/models"
)

// Notifier publishes alarm events to a fixed topic.
type Notifier struct {
	client mqtt.Client
	topic  string
	logger *zap.Logger
}

// NewNotifier connects to the broker.
func NewNotifier(broker, clientID, topic, username, password string, logger *zap.Logger) (*Notifier, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(clientID)
	if username != "" {
		opts.SetUsername(username)
	}
	if password != "" {
		opts.SetPassword(password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &Notifier{
		client: client,
		topic:  topic,
		logger: logger,
	}, nil
}

// PublishAlarm publishes one alarm record as JSON.
func (n *Notifier) PublishAlarm(t *models.Treatment) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal alarm: %w", err)
	}

	token := n.client.Publish(n.topic, 1, false, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish alarm: %w", token.Error())
	}

	n.logger.Debug("Published alarm notification",
		zap.String("topic", n.topic),
		zap.String("notes", t.Notes),
	)
	return nil
}

// Close disconnects from the broker.
func (n *Notifier) Close() {
	n.client.Disconnect(250)
}
