package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/ridedispatch/core/model"
	coremqtt "github.com/kilianp07/ridedispatch/core/mqtt"
	"github.com/kilianp07/ridedispatch/infra/logger"
)

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// PahoClient notifies vehicles of their assignments and receives ride
// requests using Eclipse Paho.
type PahoClient struct {
	cli    pahoClient
	cfg    Config
	logger logger.Logger

	backoff    time.Duration
	ackTimeout time.Duration

	mu       sync.Mutex
	ackChans map[string]chan struct{}
	requests chan<- model.RideRequest
	reqCtx   context.Context
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPahoClient connects to the MQTT broker and subscribes to the ack topic.
func NewPahoClient(cfg Config, log logger.Logger) (*PahoClient, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.New("mqtt_client")
	}
	pc := &PahoClient{
		cfg:        cfg,
		logger:     log,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		ackTimeout: time.Duration(cfg.AckTimeoutMS) * time.Millisecond,
		ackChans:   make(map[string]chan struct{}),
	}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		pc.subscribeAll(c)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	pc.cli = c
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return pc, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// subscribeAll is run on every (re)connect.
func (p *PahoClient) subscribeAll(c pahoClient) {
	if p.ackTimeout > 0 {
		if token := c.Subscribe(p.cfg.AckTopic, p.cfg.qos("ack"), p.onAck); token.Wait() && token.Error() != nil {
			p.logger.Errorf("subscribe %s: %v", p.cfg.AckTopic, token.Error())
		}
	}
	p.mu.Lock()
	listening := p.requests != nil
	p.mu.Unlock()
	if listening {
		if token := c.Subscribe(p.cfg.RequestTopic, p.cfg.qos("request"), p.onRequest); token.Wait() && token.Error() != nil {
			p.logger.Errorf("subscribe %s: %v", p.cfg.RequestTopic, token.Error())
		}
	}
}

func (p *PahoClient) onAck(_ paho.Client, msg paho.Message) {
	var m coremqtt.AckMessage
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		p.logger.Errorf("failed to decode ack: %v", err)
		return
	}
	p.mu.Lock()
	ch, ok := p.ackChans[m.MessageID]
	if ok {
		select {
		case ch <- struct{}{}:
		default:
		}
		p.logger.Debugf("received ack %s", m.MessageID)
	}
	p.mu.Unlock()
}

func (p *PahoClient) onRequest(_ paho.Client, msg paho.Message) {
	var m coremqtt.RequestMessage
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		p.logger.Warnf("discarding ride request on %s: %v", msg.Topic(), err)
		return
	}
	req, err := m.Request()
	if err != nil {
		p.logger.Warnf("discarding ride request on %s: %v", msg.Topic(), err)
		return
	}
	p.mu.Lock()
	out, ctx := p.requests, p.reqCtx
	p.mu.Unlock()
	if out == nil {
		return
	}
	select {
	case out <- req:
	case <-ctx.Done():
	}
}

// SubscribeRequests delivers ride requests received on the request topic to
// out until ctx is done. Malformed payloads are logged and skipped.
func (p *PahoClient) SubscribeRequests(ctx context.Context, out chan<- model.RideRequest) error {
	p.mu.Lock()
	p.requests = out
	p.reqCtx = ctx
	p.mu.Unlock()
	token := p.cli.Subscribe(p.cfg.RequestTopic, p.cfg.qos("request"), p.onRequest)
	token.Wait()
	if err := token.Error(); err != nil {
		p.mu.Lock()
		p.requests = nil
		p.mu.Unlock()
		return fmt.Errorf("subscribe %s: %w", p.cfg.RequestTopic, err)
	}
	p.logger.Infof("listening for ride requests on %s", p.cfg.RequestTopic)
	go func() {
		<-ctx.Done()
		p.mu.Lock()
		p.requests = nil
		p.mu.Unlock()
	}()
	return nil
}

// NotifyAssignment publishes the assignment to the vehicle topic. When an
// ack timeout is configured it also waits for the vehicle to acknowledge.
func (p *PahoClient) NotifyAssignment(ctx context.Context, out model.Outcome) error {
	if !out.Assigned() {
		return nil
	}
	msgID := uuid.NewString()
	payload, err := json.Marshal(coremqtt.NewAssignmentMessage(msgID, out, time.Now()))
	if err != nil {
		return err
	}
	if p.ackTimeout > 0 {
		p.mu.Lock()
		p.ackChans[msgID] = make(chan struct{}, 1)
		p.mu.Unlock()
	}

	topic := coremqtt.AssignmentTopic(out.VehicleID)
	if err := p.publish(ctx, topic, payload); err != nil {
		p.forget(msgID)
		return err
	}
	p.logger.Infof("sent assignment %s to %s", msgID, topic)
	if p.ackTimeout <= 0 {
		return nil
	}
	return p.WaitForAck(ctx, msgID, p.ackTimeout)
}

func (p *PahoClient) publish(ctx context.Context, topic string, payload []byte) error {
	qos := p.cfg.qos("assignment")
	var publishErr error
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		token := p.cli.Publish(topic, qos, false, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			return nil
		}
		p.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt == p.cfg.MaxRetries {
			break
		}
		select {
		case <-time.After(p.backoff * time.Duration(1<<attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("publish %s: %w", topic, publishErr)
}

// WaitForAck blocks until an ack for the given message id is received, the
// timeout expires or ctx is done.
func (p *PahoClient) WaitForAck(ctx context.Context, msgID string, timeout time.Duration) error {
	p.mu.Lock()
	ch := p.ackChans[msgID]
	p.mu.Unlock()
	if ch == nil {
		return fmt.Errorf("%w: %s", coremqtt.ErrUnknownMessage, msgID)
	}
	defer p.forget(msgID)

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: %s", coremqtt.ErrAckTimeout, msgID)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *PahoClient) forget(msgID string) {
	p.mu.Lock()
	delete(p.ackChans, msgID)
	p.mu.Unlock()
}

// Disconnect gracefully closes the MQTT connection.
func (p *PahoClient) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
