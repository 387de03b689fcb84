//go:build integration

package containers

import (
	"context"
	"testing"

	"github.com/testcontainers/testcontainers-go"
	tcredpanda "github.com/testcontainers/testcontainers-go/modules/redpanda"
	"github.com/twmb/franz-go/pkg/kgo"
)

// RedpandaContainer wraps a testcontainers Redpanda instance for Kafka tests.
type RedpandaContainer struct {
	Container testcontainers.Container
	Brokers   []string
}

// NewRedpandaContainer starts a new Redpanda container.
func NewRedpandaContainer(t *testing.T) *RedpandaContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcredpanda.Run(ctx, "redpandadata/redpanda:v24.2.4")
	if err != nil {
		t.Fatalf("failed to start redpanda container: %v", err)
	}

	broker, err := container.KafkaSeedBroker(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get redpanda broker address: %v", err)
	}

	// Verify the broker answers before handing it to tests.
	client, err := kgo.NewClient(kgo.SeedBrokers(broker))
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to create kafka client: %v", err)
	}
	defer client.Close()
	if err := client.Ping(ctx); err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping redpanda: %v", err)
	}

	return &RedpandaContainer{
		Container: container,
		Brokers:   []string{broker},
	}
}
