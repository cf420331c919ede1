//go:build !no_containers

package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/ridedispatch/core/logger"
	"github.com/kilianp07/ridedispatch/core/model"
	coremqtt "github.com/kilianp07/ridedispatch/core/mqtt"
)

func waitForMQTTReady(broker string, timeout time.Duration) error {
	opts := paho.NewClientOptions().AddBroker(broker).SetClientID("readiness-check")
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		cli := paho.NewClient(opts)
		token := cli.Connect()
		token.Wait()
		if token.Error() == nil {
			cli.Disconnect(100)
			return nil
		}
		lastErr = token.Error()
		time.Sleep(100 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for broker")
	}
	return lastErr
}

func startMosquitto(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	conf := "listener 1883\nallow_anonymous true\npersistence false\nlog_dest stdout\n"
	path := filepath.Join(t.TempDir(), "mosquitto.conf")
	require.NoError(t, os.WriteFile(path, []byte(conf), 0o644))

	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2.0",
		ExposedPorts: []string{"1883/tcp"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
		Files: []tc.ContainerFile{{
			HostFilePath:      path,
			ContainerFilePath: "/mosquitto/config/mosquitto.conf",
			FileMode:          0o644,
		}},
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("container start: %v", err)
	}
	host, err := cont.Host(ctx)
	require.NoError(t, err)
	port, err := cont.MappedPort(ctx, "1883")
	require.NoError(t, err)
	broker := fmt.Sprintf("tcp://%s:%s", host, port.Port())
	if err := waitForMQTTReady(broker, 5*time.Second); err != nil {
		_ = cont.Terminate(ctx)
		t.Skipf("mosquitto not ready at %s: %v", broker, err)
	}
	return cont, broker
}

// connectVehicle acks every assignment it receives.
func connectVehicle(t *testing.T, broker string, got chan<- coremqtt.AssignmentMessage) paho.Client {
	t.Helper()
	cli := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("vehicle-sim"))
	token := cli.Connect()
	token.Wait()
	require.NoError(t, token.Error())
	token = cli.Subscribe("vehicle/+/assignment", 1, func(c paho.Client, m paho.Message) {
		var msg coremqtt.AssignmentMessage
		if err := json.Unmarshal(m.Payload(), &msg); err != nil {
			return
		}
		got <- msg
		ack, _ := json.Marshal(coremqtt.AckMessage{MessageID: msg.MessageID})
		c.Publish(fmt.Sprintf("vehicle/%d/ack", msg.VehicleID), 1, false, ack)
	})
	token.Wait()
	require.NoError(t, token.Error())
	return cli
}

func TestAssignmentRoundTripWithMosquitto(t *testing.T) {
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not installed")
	}
	ctx := context.Background()
	cont, broker := startMosquitto(ctx, t)
	defer func() { _ = cont.Terminate(ctx) }()

	got := make(chan coremqtt.AssignmentMessage, 1)
	vehicle := connectVehicle(t, broker, got)
	defer vehicle.Disconnect(100)

	cli, err := NewPahoClient(Config{
		Enabled:      true,
		Broker:       broker,
		ClientID:     "dispatcher",
		AckTimeoutMS: 5000,
		QoS:          map[string]byte{"assignment": 1, "ack": 1, "request": 1},
	}, logger.NopLogger{})
	require.NoError(t, err)
	defer cli.Disconnect()

	require.NoError(t, cli.NotifyAssignment(ctx, assignedOutcome(4)))
	select {
	case msg := <-got:
		assert.Equal(t, 4, msg.VehicleID)
		assert.Equal(t, "trip-10", msg.TripID)
	case <-time.After(5 * time.Second):
		t.Fatal("assignment not received")
	}

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	reqs := make(chan model.RideRequest, 1)
	require.NoError(t, cli.SubscribeRequests(reqCtx, reqs))
	token := vehicle.Publish(DefaultRequestTopic, 1, false, []byte(`{"id":9,"pickup":{"x":1,"y":1},"destination":{"x":2,"y":2}}`))
	token.Wait()
	require.NoError(t, token.Error())
	select {
	case req := <-reqs:
		assert.Equal(t, 9, req.ID)
		assert.Equal(t, model.Loc(2, 2), req.Destination)
	case <-time.After(5 * time.Second):
		t.Fatal("ride request not received")
	}
}
