package sns

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/go-push-dispatch/internal/application/push"
	"github.com/go-push-dispatch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*sns.PublishOutput)
	return out, args.Error(1)
}

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

func TestMessenger_SendPublishesJSONStructure(t *testing.T) {
	p := &mockPublisher{}
	var captured *sns.PublishInput
	p.On("Publish", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*sns.PublishInput) }).
		Return(&sns.PublishOutput{MessageId: aws.String("mid-1")}, nil)

	n := &domain.Notification{NotificationID: "n1", Type: domain.TypeNewFollower, Title: "Hey", Body: "new follower"}
	id, err := (&Messenger{client: p}).Send(context.Background(), push.BuildMessage(n, "arn:aws:sns:us-east-1:1:endpoint/APNS/app/abc"))
	require.NoError(t, err)
	assert.Equal(t, "mid-1", id)

	require.NotNil(t, captured)
	assert.Equal(t, "arn:aws:sns:us-east-1:1:endpoint/APNS/app/abc", aws.ToString(captured.TargetArn))
	assert.Equal(t, "json", aws.ToString(captured.MessageStructure))

	env := decode(t, aws.ToString(captured.Message))
	assert.Equal(t, "new follower", env["default"])

	apns := decode(t, env["APNS"].(string))
	apsBody := apns["aps"].(map[string]any)
	assert.Equal(t, "SOCIAL", apsBody["category"])
	assert.EqualValues(t, 1, apsBody["badge"])
	assert.EqualValues(t, 1, apsBody["mutable-content"])
	assert.Equal(t, "n1", apns["notificationId"])

	gcm := decode(t, env["GCM"].(string))
	assert.Equal(t, "high", gcm["priority"])
	assert.Equal(t, "new_follower", gcm["data"].(map[string]any)["type"])
}

func TestEnvelope_SilentHasNoAlert(t *testing.T) {
	raw, err := envelope(push.BuildBadgeMessage("arn", 4))
	require.NoError(t, err)

	env := decode(t, raw)
	assert.Equal(t, "", env["default"])
	apsBody := decode(t, env["APNS"].(string))["aps"].(map[string]any)
	assert.NotContains(t, apsBody, "alert")
	assert.EqualValues(t, 4, apsBody["badge"])
	assert.EqualValues(t, 1, apsBody["content-available"])
	assert.NotContains(t, decode(t, env["GCM"].(string)), "notification")
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind push.FailureKind
	}{
		{"endpoint disabled", &types.EndpointDisabledException{Message: aws.String("Endpoint is disabled")}, push.FailureInvalidToken},
		{"endpoint missing", &types.NotFoundException{Message: aws.String("gone")}, push.FailureInvalidToken},
		{"throttled", &types.ThrottledException{Message: aws.String("slow down")}, push.FailureTransient},
		{"internal", &types.InternalErrorException{Message: aws.String("oops")}, push.FailureTransient},
		{"plain", errors.New("dial tcp: timeout"), push.FailureUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Classify(tc.err)
			assert.Equal(t, tc.kind, c.Kind)
			assert.NotEmpty(t, c.Code)
		})
	}
	assert.Equal(t, "EndpointDisabled", Classify(&types.EndpointDisabledException{}).Code)
}
