package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/folio/folio/internal/models"
	"github.com/sirupsen/logrus"
)

type CoverTokenRepository struct {
	client    DynamoAPI
	tableName string
	logger    *logrus.Logger
}

func NewCoverTokenRepository(client DynamoAPI, tableName string, logger *logrus.Logger) *CoverTokenRepository {
	return &CoverTokenRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

func coverTokenPK(token string) string {
	return "COVER_TOKEN#" + token
}

func (r *CoverTokenRepository) Create(ctx context.Context, t *models.CoverToken) error {
	item, err := marshalItem(t, coverTokenPK(t.Token), metadataSK)
	if err != nil {
		return err
	}

	// table TTL attribute; expired items are also rejected on read
	item["ttl"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", t.ExpiresAt.Unix())}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to store cover token in DynamoDB")
		return fmt.Errorf("failed to store cover token: %w", err)
	}

	return nil
}

func (r *CoverTokenRepository) Get(ctx context.Context, token string) (*models.CoverToken, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       keyOf(coverTokenPK(token), metadataSK),
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to get cover token from DynamoDB")
		return nil, fmt.Errorf("failed to get cover token: %w", err)
	}

	if result.Item == nil {
		return nil, ErrNotFound
	}

	var t models.CoverToken
	if err := attributevalue.UnmarshalMap(result.Item, &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cover token: %w", err)
	}

	return &t, nil
}
