package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigController(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, DefaultController, cfg.Controller())

	cfg.Values.Adapter = "hci1"
	assert.Equal(t, "hci1", cfg.Controller())

	cfg.Values.AnyController = true
	assert.Equal(t, "", cfg.Controller(), "the any-controller mode overrides the adapter selection")
}
