// Package mqttfeat provides MQTT-backed implementations of the standard
// feature contracts.
//
// It is the reference platform adapter: instead of driving native UI
// hardware, it renders haptics and toasts by publishing event messages to
// an MQTT broker, where a broker-attached device (a wall panel, a mobile
// shim, a development dashboard) picks them up and performs the actual
// effect.
//
// Architecture:
//
//	┌─────────────┐     Vibrate/Show      ┌──────────────┐
//	│ Capability  │──────────────────────▶│   mqttfeat   │
//	│    Hub      │                       │    Bridge    │
//	└─────────────┘                       └──────┬───────┘
//	                                             │ JSON events
//	                                             ▼
//	                                      tether/feature/
//	                                        {capability}/event
//	                                             │
//	                                             ▼
//	                                      ┌──────────────┐
//	                                      │ MQTT Broker  │──▶ renderers
//	                                      └──────────────┘
//
// The bridge registers its implementations into a hub via RegisterInto,
// after which shared code resolves them through the normal contracts in
// the feature package. Both implementations also satisfy feature.Commander
// so the inspection API can trigger them remotely during development.
//
// Commands flow the other way: StartCommandStream subscribes to
// {prefix}/feature/+/command and dispatches each decoded command through
// the hub to whatever feature.Commander is registered for the capability
// named in the topic, acknowledging the outcome on the matching ack
// topic. Broker-attached tooling can drive capabilities without touching
// the HTTP API.
//
// Event publishing is fire-and-forget at the configured QoS; the bridge
// does not wait for a renderer acknowledgement. A disconnected broker
// surfaces as an error from Vibrate or Show so callers can decide whether
// the effect was essential.
package mqttfeat
