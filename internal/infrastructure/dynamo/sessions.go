package dynamo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shop-auth-api/internal/domain"
)

// sessionAPI is the slice of the DynamoDB client the session repo uses.
type sessionAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// SessionRepo provides typed DynamoDB operations for the sessions table.
// Sessions are only ever inserted and deleted — a row's existence is the
// validity predicate, so there is no update path.
type SessionRepo struct {
	client    sessionAPI
	tableName string
}

func NewSessionRepo(client *dynamodb.Client, tableName string) *SessionRepo {
	return &SessionRepo{client: client, tableName: tableName}
}

func (r *SessionRepo) Put(ctx context.Context, s *domain.Session) error {
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *SessionRepo) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("session_id", sessionID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("session not found: %w", domain.ErrNotFound)
	}
	var s domain.Session
	if err := attributevalue.UnmarshalMap(out.Item, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Delete removes the row and reports how many rows existed (0 or 1), so
// revocation stays idempotent for callers that retry.
func (r *SessionRepo) Delete(ctx context.Context, sessionID string) (int, error) {
	out, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(r.tableName),
		Key:          strKey("session_id", sessionID),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return 0, err
	}
	if out.Attributes == nil {
		return 0, nil
	}
	return 1, nil
}

// DeleteByPrincipal removes every session row for a principal via the
// principal_id GSI. Used when a password changes or a restriction lands, so
// existing tokens die immediately.
func (r *SessionRepo) DeleteByPrincipal(ctx context.Context, principalID string) error {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("principal_id-index"),
		KeyConditionExpression: aws.String("principal_id = :pid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pid": &types.AttributeValueMemberS{Value: principalID},
		},
	}
	var firstErr error
	for {
		out, err := r.client.Query(ctx, input)
		if err != nil {
			return err
		}
		for _, item := range out.Items {
			sidAttr, ok := item["session_id"].(*types.AttributeValueMemberS)
			if !ok {
				continue
			}
			if _, err := r.Delete(ctx, sidAttr.Value); err != nil {
				slog.Warn("failed to delete session during principal revocation", "session_id", sidAttr.Value, "principal_id", principalID, "err", err)
				if firstErr == nil {
					firstErr = err
				}
			}
		}
		// Revocation must be total: keep paging until the index is drained.
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	return firstErr
}
