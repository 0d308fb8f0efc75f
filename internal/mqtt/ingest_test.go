package mqtt

import (
	"errors"
	"testing"

	"homehub/internal/statestore"
)

// fakeMessage implements the paho Message interface for handler tests
type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 1 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

func TestDecodePayload(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		deviceID string
		wantErr  bool
	}{
		{"numeric and string fields", `{"deviceId":"Device01","temperature":21.5,"door":"OPEN"}`, "Device01", false},
		{"heartbeat with no sensors", `{"deviceId":"Device02"}`, "Device02", false},
		{"missing deviceId", `{"temperature":21.5}`, "", true},
		{"deviceId not a string", `{"deviceId":42,"temperature":21.5}`, "", true},
		{"empty deviceId", `{"deviceId":""}`, "", true},
		{"not an object", `"ON"`, "", true},
		{"garbage", `{{{`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deviceID, fields, err := DecodePayload([]byte(tt.payload))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected decode error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if deviceID != tt.deviceID {
				t.Errorf("deviceID = %q, want %q", deviceID, tt.deviceID)
			}
			if _, ok := fields[statestore.ReservedIDKey]; ok {
				t.Error("decoded fields must not carry the reserved identity key")
			}
		})
	}
}

func TestMissingDeviceIDError(t *testing.T) {
	_, _, err := DecodePayload([]byte(`{"temperature":1}`))
	if !errors.Is(err, ErrMissingDeviceID) {
		t.Errorf("err = %v, want ErrMissingDeviceID", err)
	}
}

func TestIngestorAppliesUpdatesInOrder(t *testing.T) {
	store := statestore.New()
	var notified []string
	ing := NewIngestor(store, 16, func(id string) { notified = append(notified, id) })

	ing.HandleMessage(nil, &fakeMessage{topic: "home/Device01/state", payload: []byte(`{"deviceId":"Device01","temperature":20}`)})
	ing.HandleMessage(nil, &fakeMessage{topic: "home/Device01/state", payload: []byte(`{"deviceId":"Device01","temperature":25}`)})
	ing.HandleMessage(nil, &fakeMessage{topic: "home/Device01/relay/command", payload: []byte(`ON`)}) // command echo, dropped
	ing.Close()
	ing.Run() // drains synchronously once closed

	value, ok := store.Get("Device01", "temperature")
	if !ok || value != 25.0 {
		t.Errorf("temperature = %v ok=%t, want 25 (last write wins)", value, ok)
	}
	if len(notified) != 2 {
		t.Errorf("notify called %d times, want 2", len(notified))
	}
}

func TestIngestorDropsWhenQueueFull(t *testing.T) {
	store := statestore.New()
	ing := NewIngestor(store, 1, nil)

	ing.HandleMessage(nil, &fakeMessage{payload: []byte(`{"deviceId":"a","v":1}`)})
	// queue is full, this one must be dropped without blocking
	ing.HandleMessage(nil, &fakeMessage{payload: []byte(`{"deviceId":"b","v":1}`)})
	ing.Close()
	ing.Run()

	if !store.Contains("a") {
		t.Error("first update should have been applied")
	}
	if store.Contains("b") {
		t.Error("overflow update should have been dropped")
	}
}
