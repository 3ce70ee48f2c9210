package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/shop-auth-api/internal/domain"
)

// OperationRepo manages recovery operation rows.
// PK: principal_id, SK: name — Put on the same pair overwrites, which is how
// a new start supersedes a prior operation.
type OperationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOperationRepo(client *dynamodb.Client, tableName string) *OperationRepo {
	return &OperationRepo{client: client, tableName: tableName}
}

func (r *OperationRepo) Put(ctx context.Context, op *domain.RecoveryOperation) error {
	item, err := attributevalue.MarshalMap(op)
	if err != nil {
		return fmt.Errorf("marshal operation: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *OperationRepo) Get(ctx context.Context, principalID, name string) (*domain.RecoveryOperation, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey("principal_id", principalID, "name", name),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("operation not found: %w", domain.ErrNotFound)
	}
	var op domain.RecoveryOperation
	if err := attributevalue.UnmarshalMap(out.Item, &op); err != nil {
		return nil, err
	}
	return &op, nil
}

func (r *OperationRepo) UpdateStatus(ctx context.Context, principalID, name, status string) error {
	ue, err := buildUpdateExpr(map[string]interface{}{fieldStatus: status})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       compositeKey("principal_id", principalID, "name", name),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

func (r *OperationRepo) Delete(ctx context.Context, principalID, name string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey("principal_id", principalID, "name", name),
	})
	return err
}
