package mqtt

import "strings"

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "omote"

// Topics builds topic names under a common prefix.
//
//	t := mqtt.NewTopics("omote")
//	t.IRCommand("tv_living", "POWER") // "omote/ir/tv_living/POWER"
type Topics struct {
	prefix string
}

// NewTopics returns topic builders rooted at prefix. Trailing slashes are
// trimmed; an empty prefix means DefaultTopicPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the root of every topic.
func (t Topics) Prefix() string { return t.prefix }

// IRCommand returns the retained topic for one command of a device.
//
// Example: omote/ir/tv_living/POWER
func (t Topics) IRCommand(device, command string) string {
	return t.prefix + "/ir/" + topicSegment(device) + "/" + topicSegment(command)
}

// DeviceCommands returns a wildcard matching every command of a device.
//
// Example: omote/ir/tv_living/+
func (t Topics) DeviceCommands(device string) string {
	return t.prefix + "/ir/" + topicSegment(device) + "/+"
}

// SystemStatus returns the generator's online/offline status topic.
//
// Example: omote/system/status
func (t Topics) SystemStatus() string {
	return t.prefix + "/system/status"
}

var segmentReplacer = strings.NewReplacer("/", "_", "+", "_", "#", "_")

// topicSegment makes s safe as a single topic level.
func topicSegment(s string) string {
	s = segmentReplacer.Replace(strings.TrimSpace(s))
	if s == "" {
		return "_"
	}
	return s
}
