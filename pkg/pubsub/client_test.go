package pubsub

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/collette-backend/pkg/config"
)

func TestResourceName(t *testing.T) {
	cases := []struct {
		name    string
		project string
		input   string
		want    string
	}{
		{name: "short id", project: "collette", input: "orders", want: "projects/collette/topics/orders"},
		{name: "trimmed", project: " collette ", input: " orders ", want: "projects/collette/topics/orders"},
		{name: "fully qualified", project: "other", input: "projects/collette/topics/orders", want: "projects/collette/topics/orders"},
		{name: "empty name", project: "collette", input: "", want: ""},
		{name: "missing project", project: "", input: "orders", want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ResourceName(tc.project, "topics", tc.input))
		})
	}
}

func TestTopicNamesSkipsBlankAndDuplicates(t *testing.T) {
	names := topicNames(config.PubSubConfig{OrdersTopic: "events", InventoryTopic: " events "})
	require.Equal(t, []string{"events"}, names)

	require.Empty(t, topicNames(config.PubSubConfig{}))
}

func TestNewClientRequiresProject(t *testing.T) {
	_, err := NewClient(context.Background(), config.GCPConfig{}, config.PubSubConfig{OrdersTopic: "o"}, nil)
	require.ErrorIs(t, err, errProjectIDRequired)
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	require.Nil(t, c.Publisher("orders"))
	require.Error(t, c.Ping(context.Background()))
	require.NoError(t, c.Close())
}
