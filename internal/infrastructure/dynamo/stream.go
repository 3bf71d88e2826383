package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodbstreams"
	streamtypes "github.com/aws/aws-sdk-go-v2/service/dynamodbstreams/types"
	"github.com/go-push-dispatch/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var streamRecords = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "push_stream_records_total",
	Help: "Notification stream records received, by event name.",
}, []string{"event"})

// NotificationEvents receives decoded notification table changes. Each call is
// an independent invocation; implementations contain their own failures.
type NotificationEvents interface {
	OnCreated(ctx context.Context, n *domain.Notification)
	OnUpdated(ctx context.Context, before, after *domain.Notification)
}

// StreamsAPI is the subset of *dynamodbstreams.Client the listener uses.
type StreamsAPI interface {
	DescribeStream(ctx context.Context, in *dynamodbstreams.DescribeStreamInput, optFns ...func(*dynamodbstreams.Options)) (*dynamodbstreams.DescribeStreamOutput, error)
	GetShardIterator(ctx context.Context, in *dynamodbstreams.GetShardIteratorInput, optFns ...func(*dynamodbstreams.Options)) (*dynamodbstreams.GetShardIteratorOutput, error)
	GetRecords(ctx context.Context, in *dynamodbstreams.GetRecordsInput, optFns ...func(*dynamodbstreams.Options)) (*dynamodbstreams.GetRecordsOutput, error)
}

// TableDescriber resolves the table's current stream ARN.
type TableDescriber interface {
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// StreamListener turns the notifications table stream into trigger invocations:
// INSERT fires OnCreated, MODIFY fires OnUpdated, REMOVE is ignored.
// Delivery is at-least-once; handlers must tolerate repeats.
type StreamListener struct {
	Streams      StreamsAPI
	Tables       TableDescriber
	TableName    string
	PollInterval time.Duration
	RefreshEvery time.Duration
	Log          *zap.Logger
}

// Run polls every shard until ctx is done. Shards open at startup are read from
// LATEST; shards that appear later are read from TRIM_HORIZON so nothing written
// after startup is skipped.
func (l *StreamListener) Run(ctx context.Context, h NotificationEvents) error {
	arn, err := l.streamARN(ctx)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	seen := make(map[string]bool)
	first := true

	refresh := func() error {
		shards, err := l.listShards(ctx, arn)
		if err != nil {
			return err
		}
		for _, s := range shards {
			shardID := aws.ToString(s.ShardId)
			if seen[shardID] {
				continue
			}
			seen[shardID] = true
			closed := s.SequenceNumberRange != nil && s.SequenceNumberRange.EndingSequenceNumber != nil
			if first && closed {
				continue
			}
			iterType := streamtypes.ShardIteratorTypeTrimHorizon
			if first {
				iterType = streamtypes.ShardIteratorTypeLatest
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				l.pollShard(ctx, arn, shardID, iterType, h)
			}()
		}
		first = false
		return nil
	}

	if err := refresh(); err != nil {
		return fmt.Errorf("list shards: %w", err)
	}
	l.Log.Info("stream listener started", zap.String("stream_arn", arn), zap.Int("shards", len(seen)))

	every := l.RefreshEvery
	if every <= 0 {
		every = time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		case <-ticker.C:
			if err := refresh(); err != nil && ctx.Err() == nil {
				l.Log.Warn("shard refresh failed", zap.Error(err))
			}
		}
	}
}

func (l *StreamListener) streamARN(ctx context.Context) (string, error) {
	out, err := l.Tables.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(l.TableName)})
	if err != nil {
		return "", fmt.Errorf("describe table %s: %w", l.TableName, err)
	}
	if out.Table == nil || out.Table.LatestStreamArn == nil {
		return "", fmt.Errorf("table %s has no stream enabled", l.TableName)
	}
	return *out.Table.LatestStreamArn, nil
}

func (l *StreamListener) listShards(ctx context.Context, arn string) ([]streamtypes.Shard, error) {
	var shards []streamtypes.Shard
	var start *string
	for {
		out, err := l.Streams.DescribeStream(ctx, &dynamodbstreams.DescribeStreamInput{
			StreamArn:             aws.String(arn),
			ExclusiveStartShardId: start,
		})
		if err != nil {
			return nil, err
		}
		if out.StreamDescription == nil {
			return shards, nil
		}
		shards = append(shards, out.StreamDescription.Shards...)
		if out.StreamDescription.LastEvaluatedShardId == nil {
			return shards, nil
		}
		start = out.StreamDescription.LastEvaluatedShardId
	}
}

func (l *StreamListener) pollShard(ctx context.Context, arn, shardID string, iterType streamtypes.ShardIteratorType, h NotificationEvents) {
	log := l.Log.With(zap.String("shard_id", shardID))

	iter, err := l.shardIterator(ctx, arn, shardID, iterType, "")
	if err != nil {
		log.Warn("get shard iterator failed", zap.Error(err))
		return
	}

	var lastSeq string
	for iter != nil {
		out, err := l.Streams.GetRecords(ctx, &dynamodbstreams.GetRecordsInput{
			ShardIterator: iter,
			Limit:         aws.Int32(100),
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			var expired *streamtypes.ExpiredIteratorException
			if errors.As(err, &expired) {
				iter, err = l.resume(ctx, arn, shardID, lastSeq)
				if err != nil {
					log.Warn("re-acquire shard iterator failed", zap.Error(err))
					return
				}
				continue
			}
			log.Warn("get records failed", zap.Error(err))
			if !sleep(ctx, l.PollInterval) {
				return
			}
			continue
		}

		l.dispatch(ctx, out.Records, h)
		if n := len(out.Records); n > 0 && out.Records[n-1].Dynamodb != nil {
			lastSeq = aws.ToString(out.Records[n-1].Dynamodb.SequenceNumber)
		}

		iter = out.NextShardIterator
		if len(out.Records) == 0 && !sleep(ctx, l.PollInterval) {
			return
		}
	}
	log.Debug("shard closed")
}

func (l *StreamListener) resume(ctx context.Context, arn, shardID, lastSeq string) (*string, error) {
	if lastSeq == "" {
		return l.shardIterator(ctx, arn, shardID, streamtypes.ShardIteratorTypeLatest, "")
	}
	return l.shardIterator(ctx, arn, shardID, streamtypes.ShardIteratorTypeAfterSequenceNumber, lastSeq)
}

func (l *StreamListener) shardIterator(ctx context.Context, arn, shardID string, iterType streamtypes.ShardIteratorType, seq string) (*string, error) {
	in := &dynamodbstreams.GetShardIteratorInput{
		StreamArn:         aws.String(arn),
		ShardId:           aws.String(shardID),
		ShardIteratorType: iterType,
	}
	if seq != "" {
		in.SequenceNumber = aws.String(seq)
	}
	out, err := l.Streams.GetShardIterator(ctx, in)
	if err != nil {
		return nil, err
	}
	return out.ShardIterator, nil
}

// dispatch runs every record of a batch concurrently and waits for all of them.
func (l *StreamListener) dispatch(ctx context.Context, records []streamtypes.Record, h NotificationEvents) {
	var wg sync.WaitGroup
	for _, rec := range records {
		streamRecords.WithLabelValues(string(rec.EventName)).Inc()
		if rec.Dynamodb == nil {
			continue
		}
		switch rec.EventName {
		case streamtypes.OperationTypeInsert:
			n, err := decodeImage(rec.Dynamodb.NewImage)
			if err != nil {
				l.Log.Warn("skip undecodable insert", zap.String("event_id", aws.ToString(rec.EventID)), zap.Error(err))
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				h.OnCreated(ctx, n)
			}()
		case streamtypes.OperationTypeModify:
			before, err := decodeImage(rec.Dynamodb.OldImage)
			if err != nil {
				l.Log.Warn("skip undecodable modify", zap.String("event_id", aws.ToString(rec.EventID)), zap.Error(err))
				continue
			}
			after, err := decodeImage(rec.Dynamodb.NewImage)
			if err != nil {
				l.Log.Warn("skip undecodable modify", zap.String("event_id", aws.ToString(rec.EventID)), zap.Error(err))
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				h.OnUpdated(ctx, before, after)
			}()
		}
	}
	wg.Wait()
}

func decodeImage(img map[string]streamtypes.AttributeValue) (*domain.Notification, error) {
	if len(img) == 0 {
		return nil, errors.New("empty stream image")
	}
	item, err := attributevalue.FromDynamoDBStreamsMap(img)
	if err != nil {
		return nil, fmt.Errorf("convert stream image: %w", err)
	}
	var n domain.Notification
	if err := attributevalue.UnmarshalMap(item, &n); err != nil {
		return nil, fmt.Errorf("unmarshal notification: %w", err)
	}
	return &n, nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
