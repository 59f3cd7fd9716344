package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/folio/folio/internal/models"
	"github.com/sirupsen/logrus"
)

type AccessRepository struct {
	client    DynamoAPI
	tableName string
	logger    *logrus.Logger
}

func NewAccessRepository(client DynamoAPI, tableName string, logger *logrus.Logger) *AccessRepository {
	return &AccessRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// IsActive reports whether email has an active allow-list entry.
func (r *AccessRepository) IsActive(ctx context.Context, email string) (bool, error) {
	entry := &models.AccessEntry{Email: email}

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            keyOf(entry.GetPK(), entry.GetSK()),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to get access entry from DynamoDB")
		return false, fmt.Errorf("failed to get access entry: %w", err)
	}

	if result.Item == nil {
		return false, nil
	}

	if err := attributevalue.UnmarshalMap(result.Item, entry); err != nil {
		return false, fmt.Errorf("failed to unmarshal access entry: %w", err)
	}

	return entry.IsActive, nil
}

// Upsert creates or replaces an allow-list entry.
func (r *AccessRepository) Upsert(ctx context.Context, entry *models.AccessEntry) error {
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	item, err := marshalItem(entry, entry.GetPK(), entry.GetSK())
	if err != nil {
		return err
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to upsert access entry in DynamoDB")
		return fmt.Errorf("failed to upsert access entry: %w", err)
	}

	return nil
}
