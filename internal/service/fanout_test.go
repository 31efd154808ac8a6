package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/matcharestock/internal/pkg/email"
	"github.com/qs3c/matcharestock/internal/testutil"
)

func recipients(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("user%03d@example.com", i)
	}
	return out
}

func TestChunks(t *testing.T) {
	tests := []struct {
		n, size int
		want    []int
	}{
		{0, 100, nil},
		{1, 100, []int{1}},
		{100, 100, []int{100}},
		{101, 100, []int{100, 1}},
		{250, 100, []int{100, 100, 50}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.n, tt.size), func(t *testing.T) {
			chunks := Chunks(recipients(tt.n), tt.size)
			var sizes []int
			for _, c := range chunks {
				sizes = append(sizes, len(c))
			}
			assert.Equal(t, tt.want, sizes)
		})
	}
}

func TestFanout_Send(t *testing.T) {
	sender := testutil.NewFakeSender()
	f := NewFanout(email.NewService(sender, "https://matcharestock.test"), 100, 0)

	res := f.Send(context.Background(), "Ippodo", []email.Product{{Name: "Ummon"}}, recipients(250))

	assert.Equal(t, 3, sender.BatchCalls(), "250 recipients need ceil(250/100) calls")
	assert.Equal(t, 250, res.Notified)
	assert.Zero(t, res.Failed)
	assert.Equal(t, 3, res.Batches)
	assert.NoError(t, res.Err)
}

func TestFanout_FailedBatchDoesNotAbort(t *testing.T) {
	sender := testutil.NewFakeSender()
	sender.FailCall[0] = errors.New("provider down")
	f := NewFanout(email.NewService(sender, "https://matcharestock.test"), 2, 0)

	res := f.Send(context.Background(), "Ippodo", []email.Product{{Name: "Ummon"}}, recipients(5))

	assert.Equal(t, 3, sender.BatchCalls())
	assert.Equal(t, 3, res.Notified)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, 1, res.FailedBatches)
	assert.False(t, res.Outright())
}

func TestFanout_PartialBatchError(t *testing.T) {
	sender := testutil.NewFakeSender()
	sender.FailCall[0] = &email.BatchError{Failed: []string{"user000@example.com"}, Err: errors.New("rejected")}
	f := NewFanout(email.NewService(sender, "https://matcharestock.test"), 100, 0)

	res := f.Send(context.Background(), "Ippodo", nil, recipients(3))
	assert.Equal(t, 2, res.Notified)
	assert.Equal(t, 1, res.Failed)
}

func TestFanout_AllFailed(t *testing.T) {
	sender := testutil.NewFakeSender()
	sender.FailCall[0] = errors.New("unauthorized")
	f := NewFanout(email.NewService(sender, "https://matcharestock.test"), 100, 0)

	res := f.Send(context.Background(), "Ippodo", nil, recipients(3))
	assert.True(t, res.Outright())
	assert.Zero(t, res.Notified)
}

func TestFanout_DelayBetweenBatches(t *testing.T) {
	sender := testutil.NewFakeSender()
	f := NewFanout(email.NewService(sender, "https://matcharestock.test"), 1, 50*time.Millisecond)

	start := time.Now()
	res := f.Send(context.Background(), "Ippodo", nil, recipients(3))
	require.Equal(t, 3, res.Notified)
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond, "two waits between three batches")
}

func TestFanout_NoRecipients(t *testing.T) {
	sender := testutil.NewFakeSender()
	f := NewFanout(email.NewService(sender, ""), 100, 0)

	res := f.Send(context.Background(), "Ippodo", nil, nil)
	assert.Zero(t, sender.BatchCalls())
	assert.Zero(t, res.Notified)
}

func TestNewFanout_ClampsBatchSize(t *testing.T) {
	f := NewFanout(email.NewService(testutil.NewFakeSender(), ""), 500, 0)
	assert.Equal(t, 100, f.batchSize)
}
