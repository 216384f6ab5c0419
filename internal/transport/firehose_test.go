package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/firehose"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcpport0/chimera-logging/record"
)

type fakeFirehoseAPI struct {
	mu          sync.Mutex
	calls       []*firehose.PutRecordBatchInput
	failedCount int32
	err         error
}

func (f *fakeFirehoseAPI) PutRecordBatch(_ context.Context, params *firehose.PutRecordBatchInput, _ ...func(*firehose.Options)) (*firehose.PutRecordBatchOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, params)
	if f.err != nil {
		return nil, f.err
	}
	return &firehose.PutRecordBatchOutput{FailedPutCount: aws.Int32(f.failedCount)}, nil
}

func (f *fakeFirehoseAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func makeBatch(n int) []record.Record {
	batch := make([]record.Record, 0, n)
	for i := 0; i < n; i++ {
		batch = append(batch, record.Record{
			Meta:   map[string]any{"tag": "test", "timestamp": float64(i)},
			Fields: map[string]any{"message": fmt.Sprintf("message %d", i), "level": "INFO"},
		})
	}
	return batch
}

func TestFirehoseTransport_Deliver(t *testing.T) {
	api := &fakeFirehoseAPI{}
	tr := NewFirehoseWithClient("chimera-log-fh", api)

	out := tr.Deliver(context.Background(), makeBatch(3))

	assert.Equal(t, Outcome{Sent: 3, Failed: 0}, out)
	require.Equal(t, 1, api.callCount())

	call := api.calls[0]
	assert.Equal(t, "chimera-log-fh", aws.ToString(call.DeliveryStreamName))
	require.Len(t, call.Records, 3)

	// Each record is one JSON document followed by a newline.
	for _, entry := range call.Records {
		assert.True(t, bytes.HasSuffix(entry.Data, []byte("\n")))
		var rec record.Record
		require.NoError(t, json.Unmarshal(entry.Data, &rec))
		assert.Equal(t, "test", rec.Meta["tag"])
	}
}

func TestFirehoseTransport_PartialFailure(t *testing.T) {
	api := &fakeFirehoseAPI{failedCount: 2}
	tr := NewFirehoseWithClient("chimera-log-fh", api)

	out := tr.Deliver(context.Background(), makeBatch(5))

	assert.Equal(t, Outcome{Sent: 3, Failed: 2}, out)
}

func TestFirehoseTransport_RequestError(t *testing.T) {
	api := &fakeFirehoseAPI{err: fmt.Errorf("stream not found")}
	tr := NewFirehoseWithClient("chimera-log-fh", api)

	out := tr.Deliver(context.Background(), makeBatch(4))

	assert.Equal(t, Outcome{Sent: 0, Failed: 4}, out)
}

func TestFirehoseTransport_Disabled(t *testing.T) {
	tr := NewFirehoseWithClient("chimera-log-fh", nil)

	assert.False(t, tr.Active())

	// A disabled transport reports everything failed and never panics.
	out := tr.Deliver(context.Background(), makeBatch(7))
	assert.Equal(t, Outcome{Sent: 0, Failed: 7}, out)
}

func TestFirehoseTransport_EmptyBatch(t *testing.T) {
	api := &fakeFirehoseAPI{}
	tr := NewFirehoseWithClient("chimera-log-fh", api)

	out := tr.Deliver(context.Background(), nil)

	assert.Equal(t, Outcome{}, out)
	assert.Equal(t, 0, api.callCount())
}

func TestFirehoseTransport_Active(t *testing.T) {
	assert.True(t, NewFirehoseWithClient("s", &fakeFirehoseAPI{}).Active())
	assert.False(t, NewFirehoseWithClient("s", nil).Active())
}
