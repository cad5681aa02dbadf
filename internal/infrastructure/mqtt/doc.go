// Package mqtt publishes encoded IR commands to an MQTT broker.
//
// An IR blaster bridge (an ESP32 running OMOTE firmware, or any device
// that can transmit a "0xHEX:bits:repeat" payload) subscribes to the
// command topics and learns the codes without a firmware rebuild.
//
// # Topics
//
//	<prefix>/ir/<device>/<command>   retained CodeMessage JSON
//	<prefix>/system/status           retained online/offline status (LWT)
//
// Topic segments are sanitised: "/", "+" and "#" become "_".
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishCode("tv_living", "POWER", mqtt.CodeMessage{
//	    Protocol: "SIRC12",
//	    Constant: "IR_PROTOCOL_SONY12",
//	    Hex:      "0xA90",
//	    Bits:     12,
//	    Repeat:   2,
//	})
package mqtt
