// Package mqtt provides MQTT client connectivity for Tether Core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// Tether uses MQTT as the transport behind the reference feature bridge:
// capability implementations that render haptics and toasts on a
// broker-attached device publish and receive through this client, and
// inbound feature commands arrive on the bridge's command subscription.
// Hubs in debug mode can also stream diagnostic records to the broker.
//
//	Tether Core ↔ MQTT Broker ↔ Device-side feature renderers
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to feature acknowledgements
//	err = client.Subscribe(mqtt.Topics{}.AllFeatureAcks(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish a feature event
//	topic := mqtt.Topics{}.FeatureEvent("feature.haptics")
//	client.Publish(topic, []byte(`{"pattern":"light"}`), 1, false)
package mqtt
