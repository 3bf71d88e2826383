package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-push-dispatch/internal/domain"
)

// maxTransactItems is DynamoDB's per-transaction item cap.
const maxTransactItems = 100

// NotificationRepo provides typed DynamoDB operations for the notifications table.
type NotificationRepo struct {
	client    API
	tableName string
}

func NewNotificationRepo(client API, tableName string) *NotificationRepo {
	return &NotificationRepo{client: client, tableName: tableName}
}

// Create inserts a new record. An existing id is reported as domain.ErrConflict.
func (r *NotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	n.Kind = domain.NotificationKind
	item, err := attributevalue.MarshalMap(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": fieldNotificationID},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("notification %s exists: %w", n.NotificationID, domain.ErrConflict)
	}
	return err
}

func (r *NotificationRepo) Get(ctx context.Context, notificationID string) (*domain.Notification, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldNotificationID, notificationID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("notification not found: %w", domain.ErrNotFound)
	}
	var n domain.Notification
	if err := attributevalue.UnmarshalMap(out.Item, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// ListUnread queries the recipient_id-created_at GSI newest first and filters for is_read=false.
func (r *NotificationRepo) ListUnread(ctx context.Context, recipientID string) ([]domain.Notification, error) {
	input := r.unreadQuery(recipientID)
	input.ScanIndexForward = aws.Bool(false)

	var notifications []domain.Notification
	for {
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, err
		}
		var page []domain.Notification
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		notifications = append(notifications, page...)
		if len(out.LastEvaluatedKey) == 0 {
			return notifications, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// CountUnread returns how many of the recipient's records still have is_read=false,
// never counting excludeID. The index is eventually consistent, so a record that
// was just marked read may still show as unread there; excluding it by id keeps
// the count correct regardless.
func (r *NotificationRepo) CountUnread(ctx context.Context, recipientID, excludeID string) (int, error) {
	input := r.unreadQuery(recipientID)
	input.Select = types.SelectCount
	if excludeID != "" {
		input.FilterExpression = aws.String("#read = :false AND #id <> :exclude")
		input.ExpressionAttributeNames["#id"] = fieldNotificationID
		input.ExpressionAttributeValues[":exclude"] = &types.AttributeValueMemberS{Value: excludeID}
	}

	total := 0
	for {
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return 0, err
		}
		total += int(out.Count)
		if len(out.LastEvaluatedKey) == 0 {
			return total, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func (r *NotificationRepo) unreadQuery(recipientID string) *dynamodb.QueryInput {
	return &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexRecipientCreated),
		KeyConditionExpression: aws.String("#rid = :rid"),
		FilterExpression:       aws.String("#read = :false"),
		ExpressionAttributeNames: map[string]string{
			"#rid":  fieldRecipientID,
			"#read": fieldIsRead,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":rid":   &types.AttributeValueMemberS{Value: recipientID},
			":false": &types.AttributeValueMemberBOOL{Value: false},
		},
	}
}

// MarkAsRead sets is_read=true and returns the updated record. Re-marking is a no-op write.
func (r *NotificationRepo) MarkAsRead(ctx context.Context, notificationID string) (*domain.Notification, error) {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldIsRead: true})
	if err != nil {
		return nil, err
	}
	ue.Names["#id"] = fieldNotificationID
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldNotificationID, notificationID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if isConditionFailed(err) {
		return nil, fmt.Errorf("notification not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var n domain.Notification
	if err := attributevalue.UnmarshalMap(out.Attributes, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// MarkSent records a successful delivery.
func (r *NotificationRepo) MarkSent(ctx context.Context, notificationID string, sentAt time.Time, messageID string) error {
	return r.markTerminal(ctx, notificationID, map[string]interface{}{
		fieldSentAt:       sentAt.UTC(),
		fieldFCMMessageID: messageID,
	})
}

// MarkFailed records a failed delivery.
func (r *NotificationRepo) MarkFailed(ctx context.Context, notificationID, message, code string) error {
	return r.markTerminal(ctx, notificationID, map[string]interface{}{
		fieldError:     message,
		fieldErrorCode: code,
	})
}

// markTerminal writes the outcome only while neither outcome is present, so a
// record is written at most once after creation. A lost race is domain.ErrConflict.
func (r *NotificationRepo) markTerminal(ctx context.Context, notificationID string, updates map[string]interface{}) error {
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	ue.Names["#id"] = fieldNotificationID
	ue.Names["#sent"] = fieldSentAt
	ue.Names["#err"] = fieldError
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldNotificationID, notificationID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#id) AND attribute_not_exists(#sent) AND attribute_not_exists(#err)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("notification %s already terminal or gone: %w", notificationID, domain.ErrConflict)
	}
	return err
}

// ListCreatedBefore returns up to limit ids of records created strictly before cutoff,
// oldest first, via the kind-created_at GSI. This is not a table scan.
func (r *NotificationRepo) ListCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexKindCreated),
		KeyConditionExpression: aws.String("#kind = :kind AND #created < :cutoff"),
		ProjectionExpression:   aws.String("#id"),
		ExpressionAttributeNames: map[string]string{
			"#kind":    fieldKind,
			"#created": fieldCreatedAt,
			"#id":      fieldNotificationID,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":kind":   &types.AttributeValueMemberS{Value: domain.NotificationKind},
			":cutoff": &types.AttributeValueMemberN{Value: strconv.FormatInt(cutoff.Unix(), 10)},
		},
	}

	var ids []string
	for len(ids) < limit {
		input.Limit = aws.Int32(int32(limit - len(ids)))
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, err
		}
		for _, item := range out.Items {
			if v, ok := item[fieldNotificationID].(*types.AttributeValueMemberS); ok {
				ids = append(ids, v.Value)
			}
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	return ids, nil
}

// DeleteBatch removes the given records. Each chunk of up to 100 deletes is one
// transaction; the first failing chunk aborts the rest, and chunks already
// committed are not rolled back.
func (r *NotificationRepo) DeleteBatch(ctx context.Context, ids []string) error {
	for _, part := range chunk(ids, maxTransactItems) {
		items := make([]types.TransactWriteItem, 0, len(part))
		for _, id := range part {
			items = append(items, types.TransactWriteItem{
				Delete: &types.Delete{
					TableName: aws.String(r.tableName),
					Key:       strKey(fieldNotificationID, id),
				},
			})
		}
		if _, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
			TransactItems: items,
		}); err != nil {
			return fmt.Errorf("delete %d notifications: %w", len(part), err)
		}
	}
	return nil
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return err != nil && errors.As(err, &ccf)
}
