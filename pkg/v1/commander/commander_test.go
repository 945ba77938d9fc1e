package commander_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/MichalMitros/vendor-feed-reconciler/pkg/v1/commander"
	"github.com/MichalMitros/vendor-feed-reconciler/pkg/v1/commander/mocks"
	"github.com/go-faker/faker/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUnitSendReconcileCommand(t *testing.T) {
	vendorID := faker.Word()
	body := []byte(fmt.Sprintf(`{"vendorId":"%s"}`, vendorID))

	tests := map[string]struct {
		senderError error
		wantErr     error
	}{
		"ok": {},
		"sender error": {
			senderError: assert.AnError,
			wantErr:     assert.AnError,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			sender := mocks.NewSender(t)
			sender.On("Send", mock.Anything, body).Return(tt.senderError)

			cmndr := commander.NewReconcileCommander(sender)
			err := cmndr.SendReconcileCommand(context.TODO(), vendorID)

			require.ErrorIs(t, err, tt.wantErr, "should return correct error")
		})
	}
}

func TestUnitSendReconcileCommandWithoutVendor(t *testing.T) {
	cmndr := commander.NewReconcileCommander(mocks.NewSender(t))

	err := cmndr.SendReconcileCommand(context.TODO(), "")

	require.ErrorIs(t, err, commander.ErrMissingVendor, "should reject command without vendor")
}

func TestUnitSendReconcileAllCommand(t *testing.T) {
	sender := mocks.NewSender(t)
	sender.On("Send", mock.Anything, []byte(`{"all":true}`)).Return(nil)

	err := commander.NewReconcileCommander(sender).SendReconcileAllCommand(context.TODO())

	require.NoError(t, err, "shouldn't return any error")
}

func TestUnitDecodeRunSummary(t *testing.T) {
	summary, err := commander.DecodeRunSummary([]byte(`{"runId":7,"vendorId":"acme","success":true,"created":2,"unmatched":1}`))

	require.NoError(t, err, "shouldn't return any error")
	assert.Equal(t, 7, summary.RunID, "should decode run id")
	assert.Equal(t, "acme", summary.VendorID, "should decode vendor id")
	assert.True(t, summary.Success, "should decode status")
	assert.Equal(t, int32(2), summary.Created, "should decode counters")
	assert.Equal(t, int32(1), summary.Unmatched, "should decode counters")

	_, err = commander.DecodeRunSummary([]byte(`{`))
	require.Error(t, err, "should return decoding error")
}
