package mqttfeat

import "errors"

var (
	// ErrNilPublisher is returned when a bridge is constructed without an
	// MQTT publisher.
	ErrNilPublisher = errors.New("mqttfeat: publisher is nil")

	// ErrInvalidPattern is returned when Vibrate is called with a pattern
	// outside the known vocabulary.
	ErrInvalidPattern = errors.New("mqttfeat: invalid haptic pattern")

	// ErrEmptyToast is returned when Show is called with no text.
	ErrEmptyToast = errors.New("mqttfeat: toast text is empty")

	// ErrUnknownCommand is returned by Command for an unrecognised
	// operation name.
	ErrUnknownCommand = errors.New("mqttfeat: unknown command")

	// ErrPublishFailed wraps broker-side publish failures.
	ErrPublishFailed = errors.New("mqttfeat: publish failed")

	// ErrNilSubscriber is returned when the command stream is started
	// without an MQTT subscriber.
	ErrNilSubscriber = errors.New("mqttfeat: subscriber is nil")

	// ErrNilHub is returned when the command stream is started without a
	// hub to dispatch into.
	ErrNilHub = errors.New("mqttfeat: hub is nil")

	// ErrNotCommandable is reported in a command ack when the registered
	// capability does not accept remote commands.
	ErrNotCommandable = errors.New("mqttfeat: capability is not commandable")
)
