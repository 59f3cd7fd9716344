package repository

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/folio/folio/internal/models"
	"github.com/sirupsen/logrus"
)

type ContactRepository struct {
	client    DynamoAPI
	tableName string
	logger    *logrus.Logger
}

func NewContactRepository(client DynamoAPI, tableName string, logger *logrus.Logger) *ContactRepository {
	return &ContactRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

func (r *ContactRepository) Create(ctx context.Context, m *models.ContactMessage) error {
	item, err := marshalItem(m, "CONTACT#"+m.ID, metadataSK)
	if err != nil {
		return err
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to store contact message in DynamoDB")
		return fmt.Errorf("failed to store contact message: %w", err)
	}

	return nil
}
