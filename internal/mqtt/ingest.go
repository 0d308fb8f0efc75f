package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"homehub/internal/statestore"

	MQTT "github.com/eclipse/paho.mqtt.golang"
)

// ErrMissingDeviceID marks a payload without a usable device identity
var ErrMissingDeviceID = errors.New("payload has no deviceId")

type update struct {
	deviceID string
	fields   map[string]interface{}
}

// Ingestor moves decoded device updates from the broker callback into the
// state store through a bounded queue, so network cadence and store-update
// cadence stay decoupled. Malformed payloads are dropped and logged, never
// propagated.
type Ingestor struct {
	store   *statestore.Store
	updates chan update
	notify  func(deviceID string)
}

// NewIngestor creates an ingestor writing into store. notify, when non-nil, is
// called from the consumer goroutine after each applied update.
func NewIngestor(store *statestore.Store, queueSize int, notify func(deviceID string)) *Ingestor {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Ingestor{
		store:   store,
		updates: make(chan update, queueSize),
		notify:  notify,
	}
}

// HandleMessage is the paho message callback. It must not block: when the
// queue is full the message is dropped and logged.
func (i *Ingestor) HandleMessage(_ MQTT.Client, msg MQTT.Message) {
	deviceID, fields, err := DecodePayload(msg.Payload())
	if err != nil {
		log.Printf("MQTT: dropping message on %s: %v", msg.Topic(), err)
		return
	}
	select {
	case i.updates <- update{deviceID: deviceID, fields: fields}:
	default:
		log.Printf("MQTT: ingest queue full, dropping update from %s", deviceID)
	}
}

// Run consumes queued updates until Close is called. Per-device ordering
// follows arrival order because a single consumer applies all updates.
func (i *Ingestor) Run() {
	for u := range i.updates {
		i.store.Update(u.deviceID, u.fields, time.Now())
		if i.notify != nil {
			i.notify(u.deviceID)
		}
	}
	log.Println("MQTT: ingestor stopped")
}

// Close stops Run after the queue drains
func (i *Ingestor) Close() {
	close(i.updates)
}

// DecodePayload parses an inbound device message of the form
// {"deviceId": "...", "<sensor_key>": <value>, ...} and returns the device
// identity and the remaining sensor fields. Zero sensor fields is valid (a
// bare heartbeat still refreshes last_seen).
func DecodePayload(payload []byte) (string, map[string]interface{}, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return "", nil, fmt.Errorf("undecodable payload: %w", err)
	}
	idValue, ok := raw[statestore.ReservedIDKey]
	if !ok {
		return "", nil, ErrMissingDeviceID
	}
	deviceID, ok := idValue.(string)
	if !ok || deviceID == "" {
		return "", nil, ErrMissingDeviceID
	}
	delete(raw, statestore.ReservedIDKey)
	return deviceID, raw, nil
}
