package sgrelay

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	config "gitlab.com/smartguard1/sg.access_relay/src/production/SG.Config"
	logger "gitlab.com/smartguard1/sg.access_relay/src/production/SG.Logger"
	sgmodels "gitlab.com/smartguard1/sg.access_relay/src/production/SG.Models"
	interfaces "gitlab.com/smartguard1/sg.access_relay/src/production/SG.Repository/Interfaces"
)

// unlockPayload is the literal published to the lock-open topic. The lock
// firmware matches on this exact string.
const unlockPayload = "OK"

const (
	methodCard        = "card"
	methodFingerprint = "fingerprint"
)

// Relay subscribes to the card and fingerprint verification topics,
// checks each presented identifier against the student directory, and
// publishes the unlock signal when a registered student matches.
// Each inbound event is handled independently: no retries, no dedupe.
type Relay struct {
	cfg        *config.RelayConfig
	students   interfaces.StudentRepository
	mqttClient mqtt.Client
	logger     *logger.Logger
	baseCtx    context.Context
}

func New(cfg *config.RelayConfig, students interfaces.StudentRepository, log *logger.Logger) *Relay {
	return &Relay{
		cfg:      cfg,
		students: students,
		logger:   log.WithComponent("relay"),
	}
}

func (r *Relay) Start(ctx context.Context) error {
	r.baseCtx = ctx

	// Random suffix so replicas never collide on client id.
	clientID := fmt.Sprintf("%s-%s", r.cfg.MQTT.ClientID, uuid.NewString()[:8])

	opts := mqtt.NewClientOptions().
		AddBroker(r.cfg.GetMQTTBrokerURL()).
		SetClientID(clientID).
		SetOrderMatters(false).
		SetKeepAlive(r.cfg.MQTT.KeepAlive).
		SetPingTimeout(r.cfg.MQTT.PingTimeout).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetCleanSession(false)

	if r.cfg.MQTT.BrokerUser != "" {
		opts.SetUsername(r.cfg.MQTT.BrokerUser)
		opts.SetPassword(r.cfg.MQTT.BrokerPass)
	}

	if r.cfg.MQTT.UseTLS {
		tlsCfg, err := r.tlsConfig(r.cfg.MQTT.CACertPath)
		if err != nil {
			return err
		}
		opts.SetTLSConfig(tlsCfg)
	}

	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		r.logger.Logger.Error().Err(err).Msg("MQTT connection lost")
	}
	// Subscriptions are re-established here on every reconnect.
	opts.OnConnect = func(c mqtt.Client) {
		r.logger.Logger.Info().
			Str("card_topic", r.cfg.Topics.Card).
			Str("fingerprint_topic", r.cfg.Topics.Fingerprint).
			Msg("MQTT connected, subscribing to verify topics")
		if token := c.Subscribe(r.cfg.Topics.Card, 1, r.handleCard); token.Wait() && token.Error() != nil {
			r.logger.Logger.Error().Err(token.Error()).Str("topic", r.cfg.Topics.Card).Msg("Failed to subscribe to card topic")
		}
		if token := c.Subscribe(r.cfg.Topics.Fingerprint, 1, r.handleFingerprint); token.Wait() && token.Error() != nil {
			r.logger.Logger.Error().Err(token.Error()).Str("topic", r.cfg.Topics.Fingerprint).Msg("Failed to subscribe to fingerprint topic")
		}
	}

	r.mqttClient = mqtt.NewClient(opts)
	if tk := r.mqttClient.Connect(); tk.Wait() && tk.Error() != nil {
		return tk.Error()
	}

	return nil
}

func (r *Relay) Stop() {
	if r.mqttClient != nil && r.mqttClient.IsConnected() {
		r.mqttClient.Disconnect(500)
	}
}

func (r *Relay) IsConnected() bool {
	return r.mqttClient != nil && r.mqttClient.IsConnected()
}

func (r *Relay) handleCard(_ mqtt.Client, m mqtt.Message) {
	r.logger.Logger.Debug().Str("topic", m.Topic()).Str("payload", string(m.Payload())).Msg("Received card verification message")

	event, err := sgmodels.DecodeCardEvent(m.Payload())
	if err != nil {
		r.logger.Logger.Warn().Err(err).Str("payload", string(m.Payload())).Msg("Discarding malformed card message")
		r.publishDenied(methodCard, "invalid_payload", err.Error())
		return
	}

	ctx, cancel := r.lookupContext()
	defer cancel()

	student, err := r.students.GetByCardID(ctx, event.CardID)
	if err != nil {
		// A failed lookup denies access; the process stays up.
		r.logger.Logger.Error().Err(err).Str("card_id", event.CardID).Msg("Directory lookup failed, denying access")
		r.publishDenied(methodCard, "lookup_failed", event.CardID)
		return
	}
	if student == nil {
		r.logger.Logger.Info().Str("card_id", event.CardID).Int("card_reader", event.CardReader).Msg("Access denied: card not registered in directory")
		r.publishDenied(methodCard, "unknown_card", event.CardID)
		return
	}
	if !student.Registered {
		r.logger.Logger.Info().Str("card_id", event.CardID).Str("name", student.Name).Msg("Access denied: student not registered")
		r.publishDenied(methodCard, "not_registered", event.CardID)
		return
	}

	r.logger.Logger.Info().
		Str("card_id", event.CardID).
		Int("card_reader", event.CardReader).
		Str("name", student.Name).
		Str("student_id", student.StudentID).
		Msg("Card verified, unlocking")
	r.publishUnlock()
}

func (r *Relay) handleFingerprint(_ mqtt.Client, m mqtt.Message) {
	r.logger.Logger.Debug().Str("topic", m.Topic()).Str("payload", string(m.Payload())).Msg("Received fingerprint verification message")

	event, err := sgmodels.DecodeFingerprintEvent(m.Payload())
	if err != nil {
		r.logger.Logger.Warn().Err(err).Str("payload", string(m.Payload())).Msg("Discarding malformed fingerprint message")
		r.publishDenied(methodFingerprint, "invalid_payload", err.Error())
		return
	}

	ctx, cancel := r.lookupContext()
	defer cancel()

	student, err := r.students.FindByFingerprintID(ctx, event.FingerprintID)
	if err != nil {
		r.logger.Logger.Error().Err(err).Int("fingerprint_id", event.FingerprintID).Msg("Directory scan failed, denying access")
		r.publishDenied(methodFingerprint, "lookup_failed", fmt.Sprintf("%d", event.FingerprintID))
		return
	}
	if student == nil {
		r.logger.Logger.Info().Int("fingerprint_id", event.FingerprintID).Int("fingerprint_reader", event.FingerprintReader).Msg("Access denied: fingerprint not enrolled for any student")
		r.publishDenied(methodFingerprint, "unknown_fingerprint", fmt.Sprintf("%d", event.FingerprintID))
		return
	}
	if !student.Registered {
		r.logger.Logger.Info().Int("fingerprint_id", event.FingerprintID).Str("card_id", student.CardID).Str("name", student.Name).Msg("Access denied: student not registered")
		r.publishDenied(methodFingerprint, "not_registered", student.CardID)
		return
	}

	r.logger.Logger.Info().
		Int("fingerprint_id", event.FingerprintID).
		Int("fingerprint_reader", event.FingerprintReader).
		Str("card_id", student.CardID).
		Str("name", student.Name).
		Str("student_id", student.StudentID).
		Msg("Fingerprint verified, unlocking")
	r.publishUnlock()
}

// publishUnlock publishes the unlock signal once. No acknowledgment from
// the lock is awaited beyond the broker token.
func (r *Relay) publishUnlock() {
	token := r.mqttClient.Publish(r.cfg.Topics.LockOpen, 1, false, []byte(unlockPayload))
	if token.Wait() && token.Error() != nil {
		r.logger.Logger.Error().Err(token.Error()).Str("topic", r.cfg.Topics.LockOpen).Msg("Failed to publish unlock signal")
	} else {
		r.logger.Logger.Info().Str("topic", r.cfg.Topics.LockOpen).Msg("Published unlock signal")
	}
}

// publishDenied publishes a structured denial notice for reader feedback
// and auditing. Best effort; a denial is already terminal.
func (r *Relay) publishDenied(method, reason, detail string) {
	if r.mqttClient == nil || !r.mqttClient.IsConnected() {
		return
	}

	deniedPayload := map[string]interface{}{
		"method":    method,
		"reason":    reason,
		"detail":    detail,
		"timestamp": time.Now().UTC(),
	}

	payloadJSON, err := json.Marshal(deniedPayload)
	if err != nil {
		r.logger.Logger.Error().Err(err).Msg("Failed to marshal denial payload")
		return
	}

	token := r.mqttClient.Publish(r.cfg.Topics.AccessDenied, 1, false, payloadJSON)
	if token.Wait() && token.Error() != nil {
		r.logger.Logger.Error().Err(token.Error()).Str("topic", r.cfg.Topics.AccessDenied).Msg("Failed to publish denial notice")
	}
}

func (r *Relay) lookupContext() (context.Context, context.CancelFunc) {
	base := r.baseCtx
	if base == nil {
		base = context.Background()
	}
	return context.WithTimeout(base, r.cfg.Mongo.QueryTimeout)
}

func (r *Relay) tlsConfig(caFile string) (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if caFile == "" {
		return cfg, nil
	}
	ca, err := os.ReadFile(caFile)
	if err != nil {
		return nil, err
	}
	cp := x509.NewCertPool()
	if !cp.AppendCertsFromPEM(ca) {
		return nil, fmt.Errorf("bad CA file")
	}
	cfg.RootCAs = cp
	return cfg, nil
}
