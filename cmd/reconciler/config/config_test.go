package config_test

import (
	"testing"
	"time"

	"github.com/MichalMitros/vendor-feed-reconciler/cmd/reconciler/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitLoad(t *testing.T) {
	tests := map[string]struct {
		env     map[string]string
		wantErr bool
	}{
		"consumer": {
			env: map[string]string{
				"DATABASE_URL": "postgres://localhost/reconciler",
				"RABBITMQ_URL": "amqp://localhost",
			},
		},
		"single memory run": {
			env: map[string]string{
				"STORAGE_BACKEND": "memory",
				"RUN_VENDOR":      "acme",
			},
		},
		"missing database url": {
			env: map[string]string{
				"RABBITMQ_URL": "amqp://localhost",
			},
			wantErr: true,
		},
		"missing rabbitmq url": {
			env: map[string]string{
				"DATABASE_URL": "postgres://localhost/reconciler",
			},
			wantErr: true,
		},
		"invalid batch size": {
			env: map[string]string{
				"STORAGE_BACKEND": "memory",
				"RUN_VENDOR":      "all",
				"BATCH_SIZE":      "0",
			},
			wantErr: true,
		},
		"invalid duration": {
			env: map[string]string{
				"STORAGE_BACKEND": "memory",
				"RUN_VENDOR":      "all",
				"HTTP_TIMEOUT":    "soon",
			},
			wantErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"DATABASE_URL", "STORAGE_BACKEND", "RABBITMQ_URL", "RUN_VENDOR"} {
				t.Setenv(key, tt.env[key])
			}
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			cfg, err := config.Load()

			if tt.wantErr {
				require.Error(t, err, "should return error")
				return
			}
			require.NoError(t, err, "shouldn't return any error")
			assert.Equal(t, 30*time.Second, cfg.HTTPTimeout, "should set default http timeout")
			assert.Equal(t, 50, cfg.BatchSize, "should set default batch size")
			assert.Equal(t, 6*time.Hour, cfg.StaleRunAfter, "should set default stale run age")
			assert.Equal(t, 3, cfg.Retry.MaxAttempts, "should set default retry attempts")
			assert.Equal(t, "vendor-feed-reconciler.runs", cfg.RabbitMQ.SummaryRoutingKey, "should set default routing key")
		})
	}
}
