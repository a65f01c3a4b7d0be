package main

import (
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/palletledger/internal/infrastructure/config"
	"github.com/iho/palletledger/internal/infrastructure/eventpublisher"
)

func TestTokenVerifier(t *testing.T) {
	v, err := tokenVerifier(&config.Config{AuthEnabled: false, JWTSecret: "s"})
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = tokenVerifier(&config.Config{AuthEnabled: true})
	assert.Error(t, err)

	v, err = tokenVerifier(&config.Config{AuthEnabled: true, JWTSecret: "s", JWTExpiration: time.Hour})
	require.NoError(t, err)
	assert.NotNil(t, v)
}

func TestNewPublisher(t *testing.T) {
	p, closeFn := newPublisher(&config.Config{}, zerolog.Nop())
	defer closeFn()
	assert.IsType(t, &eventpublisher.LogPublisher{}, p)

	p, closeFn = newPublisher(&config.Config{KafkaBrokers: []string{"localhost:9092"}, KafkaTopic: "palletledger.events"}, zerolog.Nop())
	defer closeFn()
	assert.IsType(t, &eventpublisher.BreakerPublisher{}, p)
}

func TestNewServer(t *testing.T) {
	cfg := &config.Config{
		HTTPPort:         "9090",
		HTTPReadTimeout:  5 * time.Second,
		HTTPWriteTimeout: 6 * time.Second,
		HTTPIdleTimeout:  7 * time.Second,
	}

	srv := newServer(cfg, http.NotFoundHandler())

	assert.Equal(t, ":9090", srv.Addr)
	assert.Equal(t, 5*time.Second, srv.ReadTimeout)
	assert.Equal(t, 6*time.Second, srv.WriteTimeout)
	assert.Equal(t, 7*time.Second, srv.IdleTimeout)
}
