package dispatch

import (
	"errors"
	"fmt"
	"log"
	"time"

	"homehub/internal/models"
)

// Relay actions understood by the devices. Anything else is a configuration
// error and must never reach the broker.
const (
	ActionOn  = "ON"
	ActionOff = "OFF"
)

// ErrInvalidAction is returned for any action other than ON or OFF
var ErrInvalidAction = errors.New("invalid relay action, use ON or OFF")

// Publisher is the transport surface the dispatcher needs
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Dispatcher validates and publishes relay commands. Publishes are
// fire-and-forget: no actuation acknowledgement is awaited.
type Dispatcher struct {
	pub   Publisher
	audit func(models.DispatchRecord)
}

// New creates a dispatcher publishing through pub
func New(pub Publisher) *Dispatcher {
	return &Dispatcher{pub: pub}
}

// SetAudit installs the audit sink invoked for every dispatch attempt,
// delivered or not. Wired to the task queue by main.
func (d *Dispatcher) SetAudit(fn func(models.DispatchRecord)) {
	d.audit = fn
}

// CommandTopic derives the command topic for a relay device
func CommandTopic(relayDeviceID string) string {
	return fmt.Sprintf("home/%s/relay/command", relayDeviceID)
}

// Send validates action and publishes it to the relay's command topic. source
// and sourceID identify the originating rule, timer or manual request for the
// audit trail. Validation failures perform no publish.
func (d *Dispatcher) Send(source string, sourceID int64, relayDeviceID, action string) error {
	if action != ActionOn && action != ActionOff {
		return fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}

	topic := CommandTopic(relayDeviceID)
	err := d.pub.Publish(topic, []byte(action))
	delivered := err == nil
	log.Printf("DISPATCH: %s %d -> relay %s %s (topic %s, delivered=%t)",
		source, sourceID, relayDeviceID, action, topic, delivered)

	if d.audit != nil {
		d.audit(models.DispatchRecord{
			Source:        source,
			SourceID:      sourceID,
			RelayDeviceID: relayDeviceID,
			Action:        action,
			DispatchedAt:  time.Now(),
			Delivered:     delivered,
		})
	}

	if err != nil {
		return fmt.Errorf("publish relay command: %w", err)
	}
	return nil
}
