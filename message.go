package mqttcore

// MqttPublish is an immutable inbound or outbound publish once it has
// passed topic/payload validation. It carries no PID; PID assignment is a
// QoS>0, outbound-direction concern external to this tuple.
type MqttPublish struct {
	Topic     Topic
	Payload   Payload
	QoS       QoS
	Retain    bool
	Duplicate bool
}
