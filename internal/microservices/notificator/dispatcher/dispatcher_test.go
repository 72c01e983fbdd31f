package dispatcher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"table-orders/internal/common/logger"
	"table-orders/internal/domain"
	"table-orders/internal/microservices/notificator/payload"
)

// scriptedSender fails tokens listed in fail and blocks tokens listed in hang
// until the send context ends.
type scriptedSender struct {
	fail  map[string]bool
	hang  map[string]bool
	calls atomic.Int32

	mu   sync.Mutex
	seen []string
}

func (s *scriptedSender) Send(ctx context.Context, msg payload.Message) (string, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.seen = append(s.seen, msg.Token)
	s.mu.Unlock()

	if s.hang[msg.Token] {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if s.fail[msg.Token] {
		return "", errors.New("unregistered token")
	}
	return "mid-" + msg.Token, nil
}

func testPayload() payload.Payload {
	return payload.NewBuilder(payload.DefaultOptions()).Build(domain.Order{
		ID:        "o-1",
		TableName: "Table A",
		Status:    domain.StatusUnprovided,
	})
}

func TestDispatch_EmptyTargetsSendsNothing(t *testing.T) {
	s := &scriptedSender{}
	d := New(s, logger.Discard(), 0)

	sum, err := d.Dispatch(context.Background(), testPayload(), nil)
	require.ErrorIs(t, err, domain.ErrNoTargets)
	assert.Equal(t, Summary{}, sum)
	assert.EqualValues(t, 0, s.calls.Load())
}

func TestDispatch_AllSucceed(t *testing.T) {
	s := &scriptedSender{}
	d := New(s, logger.Discard(), 0)

	sum, err := d.Dispatch(context.Background(), testPayload(), []string{"t1", "t2"})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Total)
	assert.Equal(t, 2, sum.Successful)
	assert.Equal(t, 0, sum.Failed)
	assert.ElementsMatch(t, []string{"t1", "t2"}, s.seen)
	for _, o := range sum.Outcomes {
		assert.Equal(t, "mid-"+o.Token, o.MessageID)
	}
}

func TestDispatch_FailureIsIsolated(t *testing.T) {
	s := &scriptedSender{fail: map[string]bool{"bad": true}}
	d := New(s, logger.Discard(), 0)

	sum, err := d.Dispatch(context.Background(), testPayload(), []string{"a", "bad", "b"})
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 2, sum.Successful)
	assert.Equal(t, 1, sum.Failed)
	assert.EqualValues(t, 3, s.calls.Load())
}

func TestDispatch_RepeatedTokensSendOnce(t *testing.T) {
	s := &scriptedSender{}
	d := New(s, logger.Discard(), 0)

	sum, err := d.Dispatch(context.Background(), testPayload(), []string{"t1", "t1", "t2", "", "t1"})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Total)
	assert.Equal(t, 2, sum.Successful)
	assert.EqualValues(t, 2, s.calls.Load())
	assert.ElementsMatch(t, []string{"t1", "t2"}, s.seen)
}

func TestDispatch_OnlyBlankTokens(t *testing.T) {
	s := &scriptedSender{}
	_, err := New(s, logger.Discard(), 0).Dispatch(context.Background(), testPayload(), []string{"", ""})
	require.ErrorIs(t, err, domain.ErrNoTargets)
	assert.EqualValues(t, 0, s.calls.Load())
}

func TestDispatch_SummaryArithmetic(t *testing.T) {
	cases := []struct {
		targets []string
		fail    map[string]bool
	}{
		{[]string{"a"}, nil},
		{[]string{"a"}, map[string]bool{"a": true}},
		{[]string{"a", "b", "c", "d"}, map[string]bool{"b": true, "d": true}},
		{[]string{"a", "b", "c"}, map[string]bool{"a": true, "b": true, "c": true}},
	}
	for _, tc := range cases {
		d := New(&scriptedSender{fail: tc.fail}, logger.Discard(), 0)
		sum, err := d.Dispatch(context.Background(), testPayload(), tc.targets)
		require.NoError(t, err)
		assert.Equal(t, len(tc.targets), sum.Total)
		assert.Equal(t, sum.Total, sum.Successful+sum.Failed)
		assert.Equal(t, len(tc.fail), sum.Failed)
		assert.Len(t, sum.Outcomes, sum.Total)
	}
}

func TestDispatch_DeadlineFailsPendingTokens(t *testing.T) {
	s := &scriptedSender{hang: map[string]bool{"slow1": true, "slow2": true}}
	d := New(s, logger.Discard(), 50*time.Millisecond)

	start := time.Now()
	sum, err := d.Dispatch(context.Background(), testPayload(), []string{"fast", "slow1", "slow2"})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)

	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, sum.Total, sum.Successful+sum.Failed)
	assert.GreaterOrEqual(t, sum.Failed, 2)
	for _, o := range sum.Outcomes {
		if o.Token != "fast" {
			assert.ErrorIs(t, o.Err, context.DeadlineExceeded)
		}
	}
}

func TestDispatch_CallerCancel(t *testing.T) {
	s := &scriptedSender{hang: map[string]bool{"a": true}}
	d := New(s, logger.Discard(), 0)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	sum, err := d.Dispatch(ctx, testPayload(), []string{"a"})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Failed)
	assert.ErrorIs(t, sum.Outcomes[0].Err, context.Canceled)
}
