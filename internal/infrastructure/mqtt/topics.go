package mqtt

import "fmt"

// Topic prefixes for the Tether MQTT namespace.
//
// Feature topics use the flat scheme: tether/feature/{capability}/{kind}
// where {capability} is a capability identifier such as "feature.haptics".
const (
	// TopicPrefix is the base for all Tether topics.
	TopicPrefix = "tether"

	// TopicPrefixFeature is the base for feature bridge topics.
	TopicPrefixFeature = "tether/feature"

	// TopicPrefixHub is the base for hub diagnostic topics.
	TopicPrefixHub = "tether/hub"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "tether/system"
)

// Topics provides builders for Tether MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	eventTopic := topics.FeatureEvent("feature.haptics")
//	// Returns: "tether/feature/feature.haptics/event"
type Topics struct{}

// FeatureEvent returns the topic on which the feature bridge publishes
// rendered feature events (haptic pulses, toasts).
//
// Example: tether/feature/feature.haptics/event
func (Topics) FeatureEvent(capability string) string {
	return fmt.Sprintf("%s/%s/event", TopicPrefixFeature, capability)
}

// FeatureCommand returns the topic for commands directed at a feature
// implementation attached to the broker.
//
// Example: tether/feature/feature.notifier/command
func (Topics) FeatureCommand(capability string) string {
	return fmt.Sprintf("%s/%s/command", TopicPrefixFeature, capability)
}

// FeatureAck returns the topic for command acknowledgements from a
// broker-attached feature implementation.
//
// Example: tether/feature/feature.haptics/ack
func (Topics) FeatureAck(capability string) string {
	return fmt.Sprintf("%s/%s/ack", TopicPrefixFeature, capability)
}

// HubRecord returns the topic on which diagnostic records for a hub are
// streamed when the hub is in debug mode.
//
// Example: tether/hub/default/record
func (Topics) HubRecord(hub string) string {
	return fmt.Sprintf("%s/%s/record", TopicPrefixHub, hub)
}

// SystemStatus returns the system status topic. Online/offline presence
// for the core process is published here, including the Last Will.
//
// Example: tether/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// SystemShutdown returns the shutdown signal topic.
//
// Example: tether/system/shutdown
func (Topics) SystemShutdown() string {
	return fmt.Sprintf("%s/shutdown", TopicPrefixSystem)
}

// AllFeatureEvents returns a pattern matching every feature event.
//
// Pattern: tether/feature/+/event
func (Topics) AllFeatureEvents() string {
	return fmt.Sprintf("%s/+/event", TopicPrefixFeature)
}

// AllFeatureCommands returns a pattern matching every feature command.
//
// Pattern: tether/feature/+/command
func (Topics) AllFeatureCommands() string {
	return fmt.Sprintf("%s/+/command", TopicPrefixFeature)
}

// AllFeatureAcks returns a pattern matching every feature acknowledgement.
//
// Pattern: tether/feature/+/ack
func (Topics) AllFeatureAcks() string {
	return fmt.Sprintf("%s/+/ack", TopicPrefixFeature)
}

// AllHubRecords returns a pattern matching diagnostic records from all hubs.
//
// Pattern: tether/hub/+/record
func (Topics) AllHubRecords() string {
	return fmt.Sprintf("%s/+/record", TopicPrefixHub)
}

// AllTopics returns a pattern matching all Tether topics.
// Use with caution - this receives ALL traffic.
//
// Pattern: tether/#
func (Topics) AllTopics() string {
	return TopicPrefix + "/#"
}
