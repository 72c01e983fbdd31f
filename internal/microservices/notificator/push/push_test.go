package push

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/aws/aws-sdk-go-v2/aws"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"table-orders/internal/common/logger"
	"table-orders/internal/domain"
	"table-orders/internal/microservices/notificator/payload"
)

func sampleMessage(token string) payload.Message {
	o := domain.Order{
		ID:        "o-1",
		TableName: "Table A",
		Status:    domain.StatusUnprovided,
		Items:     []domain.OrderItem{{ID: "m1", Name: "Coffee", Price: 300, Quantity: 2}},
	}
	return payload.NewBuilder(payload.DefaultOptions()).Build(o).ForToken(token)
}

func TestFCMCredentials_Validate(t *testing.T) {
	full := FCMCredentials{ProjectID: "p", ClientEmail: "e@x", PrivateKey: "k"}
	require.NoError(t, full.Validate())

	cases := []struct {
		name  string
		creds FCMCredentials
		want  string
	}{
		{"project", FCMCredentials{ClientEmail: "e", PrivateKey: "k"}, "Missing FIREBASE_PROJECT_ID"},
		{"email", FCMCredentials{ProjectID: "p", PrivateKey: "k"}, "Missing FIREBASE_CLIENT_EMAIL"},
		{"key", FCMCredentials{ProjectID: "p", ClientEmail: "e"}, "Missing FIREBASE_PRIVATE_KEY"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.creds.Validate()
			require.ErrorIs(t, err, domain.ErrMissingCredentials)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

type fakeFCM struct {
	mu   sync.Mutex
	sent []*messaging.Message
}

func (f *fakeFCM) Send(_ context.Context, m *messaging.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, m)
	return "projects/p/messages/1", nil
}

func TestFCM_InitializesOnce(t *testing.T) {
	var dials atomic.Int32
	client := &fakeFCM{}
	f := NewFCM(FCMCredentials{ProjectID: "p", ClientEmail: "e", PrivateKey: "k"})
	f.dial = func(context.Context, FCMCredentials) (fcmClient, error) {
		dials.Add(1)
		return client, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.Send(context.Background(), sampleMessage("tok"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, dials.Load())
	assert.Len(t, client.sent, 20)
}

func TestFCM_MissingCredentialsNeverDials(t *testing.T) {
	f := NewFCM(FCMCredentials{ProjectID: "p"})
	f.dial = func(context.Context, FCMCredentials) (fcmClient, error) {
		t.Fatal("dial must not be called")
		return nil, nil
	}
	require.ErrorIs(t, f.Ready(), domain.ErrMissingCredentials)
	_, err := f.Send(context.Background(), sampleMessage("tok"))
	require.ErrorIs(t, err, domain.ErrMissingCredentials)
}

func TestToFCM(t *testing.T) {
	msg := sampleMessage("tok-9")
	m := ToFCM(msg)

	assert.Equal(t, "tok-9", m.Token)
	assert.Equal(t, msg.Data, m.Data)
	assert.Equal(t, "新しい注文", m.Notification.Title)
	assert.Equal(t, "Table Aから注文が入りました", m.Notification.Body)
	assert.Equal(t, "high", m.Android.Priority)
	assert.Equal(t, "notify", m.Android.Notification.Sound)
	assert.Equal(t, "orders", m.Android.Notification.ChannelID)
	assert.Equal(t, "notify.caf", m.APNS.Payload.Aps.Sound)

	m.Data["orderId"] = "changed"
	assert.Equal(t, "o-1", msg.Data["orderId"])
}

type fakeSNS struct {
	mu        sync.Mutex
	endpoints int
	published []*awssns.PublishInput
}

func (f *fakeSNS) CreatePlatformEndpoint(_ context.Context, in *awssns.CreatePlatformEndpointInput, _ ...func(*awssns.Options)) (*awssns.CreatePlatformEndpointOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.endpoints++
	return &awssns.CreatePlatformEndpointOutput{EndpointArn: aws.String("arn:endpoint/" + aws.ToString(in.Token))}, nil
}

func (f *fakeSNS) Publish(_ context.Context, in *awssns.PublishInput, _ ...func(*awssns.Options)) (*awssns.PublishOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, in)
	return &awssns.PublishOutput{MessageId: aws.String("mid-1")}, nil
}

func TestSNS_SendCachesEndpoints(t *testing.T) {
	api := &fakeSNS{}
	s := newSNS(api, "arn:app")

	for i := 0; i < 3; i++ {
		id, err := s.Send(context.Background(), sampleMessage("tok-1"))
		require.NoError(t, err)
		assert.Equal(t, "mid-1", id)
	}
	assert.Equal(t, 1, api.endpoints)
	require.Len(t, api.published, 3)
	assert.Equal(t, "arn:endpoint/tok-1", aws.ToString(api.published[0].TargetArn))
	assert.Equal(t, "json", aws.ToString(api.published[0].MessageStructure))
}

func TestSNS_MissingPlatformARN(t *testing.T) {
	s := newSNS(&fakeSNS{}, "")
	err := s.Ready()
	require.ErrorIs(t, err, domain.ErrMissingCredentials)
	assert.Contains(t, err.Error(), "SNS_PLATFORM_ARN")
}

func TestSNSMessage_ProtocolValuesAreStrings(t *testing.T) {
	body, err := SNSMessage(sampleMessage("tok"))
	require.NoError(t, err)

	var doc map[string]string
	require.NoError(t, json.Unmarshal([]byte(body), &doc))
	assert.Equal(t, "Table Aから注文が入りました", doc["default"])

	var gcm struct {
		Notification map[string]string `json:"notification"`
		Data         map[string]string `json:"data"`
		Priority     string            `json:"priority"`
	}
	require.NoError(t, json.Unmarshal([]byte(doc["GCM"]), &gcm))
	assert.Equal(t, "notify", gcm.Notification["sound"])
	assert.Equal(t, "o-1", gcm.Data["orderId"])
	assert.Equal(t, "high", gcm.Priority)

	var apns struct {
		Aps struct {
			Sound string `json:"sound"`
		} `json:"aps"`
	}
	require.NoError(t, json.Unmarshal([]byte(doc["APNS"]), &apns))
	assert.Equal(t, "notify.caf", apns.Aps.Sound)
}

type flakyTransport struct {
	failures int32
	calls    atomic.Int32
}

func (f *flakyTransport) Ready() error { return nil }

func (f *flakyTransport) Send(context.Context, payload.Message) (string, error) {
	n := f.calls.Add(1)
	if n <= f.failures {
		return "", errors.New("unavailable")
	}
	return "ok", nil
}

func TestWithRetry(t *testing.T) {
	t.Run("zero attempts returns the transport unchanged", func(t *testing.T) {
		tr := &flakyTransport{}
		assert.Same(t, tr, WithRetry(tr, 0, time.Millisecond))
	})

	t.Run("succeeds within budget", func(t *testing.T) {
		tr := &flakyTransport{failures: 2}
		id, err := WithRetry(tr, 2, time.Millisecond).Send(context.Background(), sampleMessage("t"))
		require.NoError(t, err)
		assert.Equal(t, "ok", id)
		assert.EqualValues(t, 3, tr.calls.Load())
	})

	t.Run("gives up after budget", func(t *testing.T) {
		tr := &flakyTransport{failures: 10}
		_, err := WithRetry(tr, 2, time.Millisecond).Send(context.Background(), sampleMessage("t"))
		require.EqualError(t, err, "unavailable")
		assert.EqualValues(t, 3, tr.calls.Load())
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		tr := &flakyTransport{failures: 10}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := WithRetry(tr, 5, time.Hour).Send(ctx, sampleMessage("t"))
		require.ErrorIs(t, err, context.Canceled)
		assert.EqualValues(t, 1, tr.calls.Load())
	})
}

func TestWithRateLimit(t *testing.T) {
	t.Run("zero rate returns the transport unchanged", func(t *testing.T) {
		tr := &flakyTransport{}
		assert.Same(t, tr, WithRateLimit(tr, 0, 5))
	})

	t.Run("burst passes then waits", func(t *testing.T) {
		tr := &flakyTransport{}
		lt := WithRateLimit(tr, 20, 2)
		start := time.Now()
		for i := 0; i < 3; i++ {
			_, err := lt.Send(context.Background(), sampleMessage("t"))
			require.NoError(t, err)
		}
		assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
		assert.EqualValues(t, 3, tr.calls.Load())
	})

	t.Run("cancelled wait never sends", func(t *testing.T) {
		tr := &flakyTransport{}
		lt := WithRateLimit(tr, 0.001, 1)
		_, err := lt.Send(context.Background(), sampleMessage("t"))
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err = lt.Send(ctx, sampleMessage("t"))
		require.Error(t, err)
		assert.EqualValues(t, 1, tr.calls.Load())
	})
}

func TestLogSender(t *testing.T) {
	s := NewLogSender(logger.Discard())
	require.NoError(t, s.Ready())
	a, err := s.Send(context.Background(), sampleMessage("t"))
	require.NoError(t, err)
	b, _ := s.Send(context.Background(), sampleMessage("t"))
	assert.NotEqual(t, a, b)
}
