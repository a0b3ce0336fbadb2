package config_test

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	config "gitlab.com/smartguard1/sg.access_relay/src/production/SG.Config"
)

func TestLoadRelayConfigDefaults(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")

	Convey("Given only the required environment", t, func() {
		cfg, err := config.LoadRelayConfig()

		Convey("Then defaults are applied", func() {
			So(err, ShouldBeNil)
			So(cfg.MQTT.BrokerHost, ShouldEqual, "localhost")
			So(cfg.MQTT.BrokerPort, ShouldEqual, 1883)
			So(cfg.Topics.Card, ShouldEqual, "smartguard/verify/card")
			So(cfg.Topics.Fingerprint, ShouldEqual, "smartguard/verify/fingerprint")
			So(cfg.Topics.LockOpen, ShouldEqual, "smartguard/lock/open")
			So(cfg.Mongo.Database, ShouldEqual, "smartguard")
			So(cfg.Mongo.Collection, ShouldEqual, "students")
			So(cfg.Mongo.QueryTimeout, ShouldEqual, 5*time.Second)
			So(cfg.Server.Port, ShouldEqual, "9004")
		})
	})
}

func TestLoadRelayConfigOverrides(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("BROKER_HOST", "broker.emqx.io")
	t.Setenv("BROKER_PORT", "8883")
	t.Setenv("BROKER_TLS", "true")
	t.Setenv("MQTT_TOPIC_CARD", "lab/verify/card")
	t.Setenv("MONGO_QUERY_TIMEOUT", "2s")

	Convey("Given overriding environment variables", t, func() {
		cfg, err := config.LoadRelayConfig()

		Convey("Then the overrides take effect", func() {
			So(err, ShouldBeNil)
			So(cfg.MQTT.BrokerHost, ShouldEqual, "broker.emqx.io")
			So(cfg.MQTT.BrokerPort, ShouldEqual, 8883)
			So(cfg.MQTT.UseTLS, ShouldBeTrue)
			So(cfg.Topics.Card, ShouldEqual, "lab/verify/card")
			So(cfg.Mongo.QueryTimeout, ShouldEqual, 2*time.Second)
		})

		Convey("And the broker URL uses the TLS scheme", func() {
			So(cfg.GetMQTTBrokerURL(), ShouldEqual, "tcps://broker.emqx.io:8883")
		})
	})
}

func TestLoadRelayConfigTopicCollisions(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("MQTT_TOPIC_CARD", "smartguard/verify/all")
	t.Setenv("MQTT_TOPIC_FINGERPRINT", "smartguard/verify/all")

	Convey("Given verify topics that collide", t, func() {
		_, err := config.LoadRelayConfig()

		So(err, ShouldNotBeNil)
	})
}

func TestLoadRelayConfigLockTopicOverlap(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("MQTT_TOPIC_LOCK_OPEN", "smartguard/verify/card")

	Convey("Given a lock-open topic overlapping a verify topic", t, func() {
		_, err := config.LoadRelayConfig()

		So(err, ShouldNotBeNil)
	})
}

func TestGetMQTTBrokerURL(t *testing.T) {
	Convey("Given a plain-TCP broker config", t, func() {
		cfg := &config.RelayConfig{
			MQTT: config.MQTTConfig{BrokerHost: "localhost", BrokerPort: 1883},
		}

		Convey("Then the URL uses the tcp scheme", func() {
			So(cfg.GetMQTTBrokerURL(), ShouldEqual, "tcp://localhost:1883")
		})
	})
}
