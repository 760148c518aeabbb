package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wegman-software/osm-footprints/internal/config"
	"github.com/wegman-software/osm-footprints/internal/pipeline"
	"github.com/wegman-software/osm-footprints/internal/store"
)

func TestNewSinkFollowsConfig(t *testing.T) {
	c := config.DefaultConfig()
	c.OutputDir = t.TempDir()

	sink, closeSink, err := newSink(context.Background(), c)
	require.NoError(t, err)
	defer closeSink()
	assert.IsType(t, &store.DirStore{}, sink)

	c.Sink = config.SinkHTTP
	c.SaveURL = "http://localhost:5000"
	sink, closeSink, err = newSink(context.Background(), c)
	require.NoError(t, err)
	defer closeSink()
	assert.IsType(t, &store.HTTPSink{}, sink)
}

func TestListenersPersistToGivenSink(t *testing.T) {
	c := config.DefaultConfig()
	c.OutputDir = t.TempDir()
	sink := store.NewHTTPSink("http://localhost:5000", c.Timeout)

	var persistence *pipeline.PersistenceListener
	for _, l := range listeners(c, sink, false) {
		if p, ok := l.(*pipeline.PersistenceListener); ok {
			persistence = p
		}
	}
	require.NotNil(t, persistence)
	assert.Same(t, sink, persistence.Sink)
}
