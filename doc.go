// Package mqttv5 provides the protocol engine for an MQTT v5.0 client: wire
// codec, session state machine, and the dispatcher that multiplexes the
// application-facing API against a single connection.
//
// This package implements the MQTT Version 5.0 OASIS Standard:
// https://docs.oasis-open.org/mqtt/mqtt/v5.0/mqtt-v5.0.html
//
// # Features
//
//   - All 15 MQTT v5.0 control packet types
//   - Complete properties system (42 property identifiers)
//   - QoS 0, 1, 2 message flows with state machines
//   - Topic matching with wildcard support (+, #)
//   - Transport: TCP, TLS
//   - Pluggable interfaces for session and enhanced (SCRAM) authentication
//
// # Packet Types
//
// The package provides structs for all MQTT v5.0 control packets:
//
//   - ConnectPacket, ConnackPacket: Connection establishment
//   - PublishPacket, PubackPacket, PubrecPacket, PubrelPacket, PubcompPacket: Message delivery
//   - SubscribePacket, SubackPacket: Topic subscription
//   - UnsubscribePacket, UnsubackPacket: Topic unsubscription
//   - PingreqPacket, PingrespPacket: Keep-alive
//   - DisconnectPacket: Connection termination
//   - AuthPacket: Enhanced authentication
//
// Use ReadPacket and WritePacket to read/write packets from/to connections:
//
//	// Read a packet
//	pkt, n, err := mqttv5.ReadPacket(conn, maxPacketSize)
//
//	// Write a packet
//	n, err := mqttv5.WritePacket(conn, packet, maxPacketSize)
//
// # Client
//
// Use the high-level Client API for connecting to MQTT brokers:
//
//	client, err := mqttv5.Dial(
//	    mqttv5.WithServers("tcp://localhost:1883"),
//	    mqttv5.WithClientID("my-client"),
//	    mqttv5.WithKeepAlive(60),
//	)
//	defer client.Close()
//
// TLS connections:
//
//	client, err := mqttv5.Dial(
//	    mqttv5.WithServers("tls://localhost:8883"),
//	    mqttv5.WithTLS(&tls.Config{}),
//	)
//
// # Session Management
//
// Session state can be managed using the Session and SessionStore interfaces.
// A reference implementation is provided with MemorySession and MemorySessionStore:
//
//	store := mqttv5.NewMemorySessionStore()
//	session := mqttv5.NewMemorySession("client-id")
//	store.Create(session)
//
// Sessions track subscriptions, pending messages, and packet IDs:
//
//	session.AddSubscription(mqttv5.Subscription{
//	    TopicFilter: "sensors/#",
//	    QoS: 1,
//	})
//	packetID := session.NextPacketID()
//
// # QoS State Machines
//
// For QoS 1 and 2 message flows, use the provided state machines:
//
//	// QoS 1 tracking
//	tracker := mqttv5.NewQoS1Tracker(retryTimeout, maxRetries)
//	tracker.Track(packetID, message)
//	tracker.Acknowledge(packetID)
//
//	// QoS 2 tracking
//	tracker := mqttv5.NewQoS2Tracker(retryTimeout, maxRetries)
//	tracker.TrackSend(packetID, message)
//	tracker.HandlePubrec(packetID)
//	tracker.HandlePubcomp(packetID)
//
// # Flow Control
//
// Flow control prevents overwhelming clients with too many in-flight messages:
//
//	fc := mqttv5.NewFlowController(receiveMaximum)
//	if fc.CanSend() {
//	    fc.Acquire()
//	}
//	fc.Release()
//
// # Topic Matching
//
// Topic validation and matching support MQTT wildcards:
//
//	// Validate topic names and filters
//	err := mqttv5.ValidateTopicName("sensors/temperature")
//	err = mqttv5.ValidateTopicFilter("sensors/+/status")
//
//	// Match topics against filters
//	matched := mqttv5.TopicMatch("sensors/#", "sensors/room1/temp")
//
//	// Parse shared subscriptions
//	shared, _ := mqttv5.ParseSharedSubscription("$share/group/topic")
//
// # Enhanced Authentication
//
// MQTT v5 enhanced authentication (CONNECT/AUTH challenge-response) is
// available via ClientEnhancedAuthenticator. A SCRAM implementation is
// built in:
//
//	client, err := mqttv5.Dial(
//	    mqttv5.WithServers("tls://localhost:8883"),
//	    mqttv5.WithEnhancedAuthentication(
//	        mqttv5.NewSCRAMClientAuthenticator("alice", "secret", mqttv5.SCRAMHashSHA256),
//	    ),
//	)
//
// # Metrics
//
// Pass a Metrics implementation via WithMetrics to record connection,
// message, and packet counters. NewMemoryMetrics provides an in-process
// implementation suitable for tests and simple deployments; implement
// the Metrics interface directly to export to a monitoring system:
//
//	client, err := mqttv5.Dial(
//	    mqttv5.WithServers("tcp://localhost:1883"),
//	    mqttv5.WithMetrics(mqttv5.NewMemoryMetrics()),
//	)
//
// # Logging
//
// Implement the Logger interface for structured logging:
//
//	logger := mqttv5.NewStdLogger(os.Stdout, mqttv5.LogLevelInfo)
//	logger.Info("client connected", mqttv5.LogFields{"client_id": "test"})
package mqttv5
