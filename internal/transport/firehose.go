package transport

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/firehose"
	"github.com/aws/aws-sdk-go-v2/service/firehose/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tcpport0/chimera-logging/internal/diag"
	"github.com/tcpport0/chimera-logging/record"
)

// FirehoseAPI is the subset of the Kinesis Firehose client the transport
// uses. Tests substitute a fake.
type FirehoseAPI interface {
	PutRecordBatch(ctx context.Context, params *firehose.PutRecordBatchInput, optFns ...func(*firehose.Options)) (*firehose.PutRecordBatchOutput, error)
}

// FirehoseTransport ships batches to a Kinesis Firehose delivery stream,
// one JSON line per record per batch-put call.
type FirehoseTransport struct {
	streamName string
	client     FirehoseAPI
}

// NewFirehose resolves AWS configuration and builds the Firehose client.
// Construction failure does not error: the transport comes back permanently
// disabled and every delivery reports all records as failed.
func NewFirehose(ctx context.Context, streamName, region string) *FirehoseTransport {
	t := &FirehoseTransport{streamName: streamName}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		diag.L().Error("firehose transport disabled",
			zap.String("stream", streamName),
			zap.Error(errors.Wrap(err, "load aws config")))
		return t
	}

	t.client = firehose.NewFromConfig(cfg)
	return t
}

// NewFirehoseWithClient builds a transport around an existing client.
func NewFirehoseWithClient(streamName string, client FirehoseAPI) *FirehoseTransport {
	return &FirehoseTransport{streamName: streamName, client: client}
}

func (t *FirehoseTransport) Active() bool { return t.client != nil }

func (t *FirehoseTransport) Close() {}

func (t *FirehoseTransport) Deliver(ctx context.Context, batch []record.Record) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			diag.L().Error("firehose delivery panicked", zap.Any("panic", r))
			out = Outcome{Failed: len(batch)}
		}
	}()

	if len(batch) == 0 {
		return Outcome{}
	}
	if t.client == nil {
		return Outcome{Failed: len(batch)}
	}

	entries := make([]types.Record, 0, len(batch))
	for _, rec := range batch {
		data, err := json.Marshal(rec)
		if err != nil {
			diag.L().Warn("record not serializable", zap.Error(err))
			return Outcome{Failed: len(batch)}
		}
		entries = append(entries, types.Record{Data: append(data, '\n')})
	}

	resp, err := t.client.PutRecordBatch(ctx, &firehose.PutRecordBatchInput{
		DeliveryStreamName: aws.String(t.streamName),
		Records:            entries,
	})
	if err != nil {
		diag.L().Warn("firehose batch put failed",
			zap.String("stream", t.streamName),
			zap.Int("records", len(batch)),
			zap.Error(err))
		return Outcome{Failed: len(batch)}
	}

	failed := int(aws.ToInt32(resp.FailedPutCount))
	return Outcome{Sent: len(batch) - failed, Failed: failed}
}
