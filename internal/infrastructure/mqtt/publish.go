package mqtt

import (
	"encoding/json"
	"fmt"
)

// maxPayloadSize caps a single message (1MB).
const maxPayloadSize = 1 << 20

// CodeMessage is the retained payload for one IR command.
type CodeMessage struct {
	Name     string `json:"name"`
	Protocol string `json:"protocol"`
	Constant string `json:"constant"`
	Hex      string `json:"hex"`
	Bits     uint   `json:"bits"`
	Repeat   int    `json:"repeat"`

	// Payload is the OMOTE "0xHEX:bits:repeat" string, ready to hand to
	// the firmware's IR sender.
	Payload string `json:"payload"`
}

// Publish sends a message to topic.
//
// Parameters:
//   - topic: The topic to publish to (e.g., "omote/ir/tv_living/POWER")
//   - payload: The message payload (max 1MB)
//   - qos: Quality of Service level (0, 1, or 2)
//   - retained: Whether the broker should keep the message for new subscribers
//
// Returns:
//   - error: nil on success, or wrapped error describing the failure
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// PublishRetained publishes a retained message with the configured QoS.
func (c *Client) PublishRetained(topic string, payload []byte) error {
	return c.Publish(topic, payload, byte(c.cfg.QoS), true)
}

// PublishCode publishes msg, retained, to <prefix>/ir/<device>/<command>.
func (c *Client) PublishCode(device, command string, msg CodeMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: encoding %s/%s: %w", ErrPublishFailed, device, command, err)
	}
	return c.PublishRetained(c.topics.IRCommand(device, command), payload)
}
