package mqtt

import (
	"errors"
	"log"
	"time"

	MQTT "github.com/eclipse/paho.mqtt.golang"
)

// StateTopicWildcard is the device namespace the hub listens on
const StateTopicWildcard = "home/#"

const publishTimeout = 5 * time.Second

// Client wraps the paho client with a fire-and-forget publish surface
type Client struct {
	paho MQTT.Client
}

// NewClient connects to the broker and wires reconnection. When an ingestor is
// given, the wildcard subscription is (re)established on every connect, so a
// broker restart does not silently stop ingestion.
func NewClient(broker, clientID string, ing *Ingestor) (*Client, error) {
	opts := MQTT.NewClientOptions().AddBroker(broker).SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectionLostHandler(func(_ MQTT.Client, err error) {
		log.Printf("MQTT: connection lost: %v", err)
	})
	if ing != nil {
		opts.SetOnConnectHandler(func(c MQTT.Client) {
			log.Printf("MQTT: connected, subscribing to %s", StateTopicWildcard)
			if token := c.Subscribe(StateTopicWildcard, 1, ing.HandleMessage); token.Wait() && token.Error() != nil {
				log.Printf("MQTT: subscribe to %s failed: %v", StateTopicWildcard, token.Error())
			}
		})
	}

	client := MQTT.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &Client{paho: client}, nil
}

// Publish sends one message at QoS 1. The wait is bounded so a wedged broker
// connection cannot block rule evaluation.
func (c *Client) Publish(topic string, payload []byte) error {
	token := c.paho.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return errors.New("publish timed out")
	}
	return token.Error()
}

// Disconnect closes the broker connection
func (c *Client) Disconnect() {
	c.paho.Disconnect(250)
}
