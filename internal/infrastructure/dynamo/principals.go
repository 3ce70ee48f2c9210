package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shop-auth-api/internal/domain"
)

// PrincipalRepo provides typed DynamoDB operations for one principal
// partition. The users and admins tables share the same item shape, so the
// same repo type is instantiated once per table.
type PrincipalRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewPrincipalRepo(client *dynamodb.Client, tableName string) *PrincipalRepo {
	return &PrincipalRepo{client: client, tableName: tableName}
}

func (r *PrincipalRepo) Put(ctx context.Context, p *domain.Principal) error {
	item, err := attributevalue.MarshalMap(p)
	if err != nil {
		return fmt.Errorf("marshal principal: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *PrincipalRepo) Get(ctx context.Context, principalID string) (*domain.Principal, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("principal_id", principalID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("principal not found: %w", domain.ErrNotFound)
	}
	var p domain.Principal
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PrincipalRepo) GetByUsername(ctx context.Context, username string) (*domain.Principal, error) {
	return r.queryGSI(ctx, "username-index", "username", username)
}

func (r *PrincipalRepo) GetByEmail(ctx context.Context, email string) (*domain.Principal, error) {
	return r.queryGSI(ctx, "email-index", "email", email)
}

func (r *PrincipalRepo) Update(ctx context.Context, principalID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("principal_id", principalID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

// SetRestricted flips the restricted flag. Revoking the principal's sessions
// is the caller's job — the repo stays a thin row mutator.
func (r *PrincipalRepo) SetRestricted(ctx context.Context, principalID string, restricted bool) error {
	return r.Update(ctx, principalID, map[string]interface{}{fieldRestricted: restricted})
}

func (r *PrincipalRepo) queryGSI(ctx context.Context, index, attr, value string) (*domain.Principal, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: value}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("principal not found: %w", domain.ErrNotFound)
	}
	var p domain.Principal
	if err := attributevalue.UnmarshalMap(out.Items[0], &p); err != nil {
		return nil, err
	}
	return &p, nil
}
