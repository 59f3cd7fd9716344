package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/folio/folio/internal/models"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

const projectPKPrefix = "PROJECT#"

type ProjectRepository struct {
	client    DynamoAPI
	tableName string
	logger    *logrus.Logger
}

func NewProjectRepository(client DynamoAPI, tableName string, logger *logrus.Logger) *ProjectRepository {
	return &ProjectRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// List returns projects newest first.
func (r *ProjectRepository) List(ctx context.Context, publishedOnly bool) ([]models.Project, error) {
	input := &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("begins_with(PK, :prefix) AND SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":prefix": &types.AttributeValueMemberS{Value: projectPKPrefix},
			":sk":     &types.AttributeValueMemberS{Value: metadataSK},
		},
	}

	var projects []models.Project
	paginator := dynamodb.NewScanPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			r.logger.WithError(err).Error("Failed to scan projects from DynamoDB")
			return nil, fmt.Errorf("failed to list projects: %w", err)
		}

		var batch []models.Project
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("failed to unmarshal projects: %w", err)
		}
		projects = append(projects, batch...)
	}

	if publishedOnly {
		projects = lo.Filter(projects, func(p models.Project, _ int) bool {
			return p.Published
		})
	}

	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].CreatedAt.After(projects[j].CreatedAt)
	})

	return projects, nil
}

func (r *ProjectRepository) GetBySlug(ctx context.Context, slug string) (*models.Project, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       keyOf(projectPKPrefix+slug, metadataSK),
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to get project from DynamoDB")
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	if result.Item == nil {
		return nil, ErrNotFound
	}

	var project models.Project
	if err := attributevalue.UnmarshalMap(result.Item, &project); err != nil {
		return nil, fmt.Errorf("failed to unmarshal project: %w", err)
	}

	return &project, nil
}

// Create stores p. It returns ErrConflict if the slug is taken.
func (r *ProjectRepository) Create(ctx context.Context, p *models.Project) error {
	item, err := marshalItem(p, p.GetPK(), p.GetSK())
	if err != nil {
		return err
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return ErrConflict
		}
		r.logger.WithError(err).Error("Failed to create project in DynamoDB")
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

// Update replaces the project stored under oldSlug with p. A slug change
// moves the item; the target slug must be free.
func (r *ProjectRepository) Update(ctx context.Context, oldSlug string, p *models.Project) error {
	item, err := marshalItem(p, p.GetPK(), p.GetSK())
	if err != nil {
		return err
	}

	if oldSlug == p.Slug {
		_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:           aws.String(r.tableName),
			Item:                item,
			ConditionExpression: aws.String("attribute_exists(PK)"),
		})
		if err != nil {
			if isConditionFailed(err) {
				return ErrNotFound
			}
			r.logger.WithError(err).Error("Failed to update project in DynamoDB")
			return fmt.Errorf("failed to update project: %w", err)
		}
		return nil
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Delete: &types.Delete{
					TableName:           aws.String(r.tableName),
					Key:                 keyOf(projectPKPrefix+oldSlug, metadataSK),
					ConditionExpression: aws.String("attribute_exists(PK)"),
				},
			},
			{
				Put: &types.Put{
					TableName:           aws.String(r.tableName),
					Item:                item,
					ConditionExpression: aws.String("attribute_not_exists(PK)"),
				},
			},
		},
	})
	if err != nil {
		if reasons := cancelReasons(err); reasons != nil {
			if len(reasons) > 0 && reasons[0] == "ConditionalCheckFailed" {
				return ErrNotFound
			}
			return ErrConflict
		}
		r.logger.WithError(err).Error("Failed to move project in DynamoDB")
		return fmt.Errorf("failed to update project: %w", err)
	}

	return nil
}

func (r *ProjectRepository) Delete(ctx context.Context, slug string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 keyOf(projectPKPrefix+slug, metadataSK),
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		if isConditionFailed(err) {
			return ErrNotFound
		}
		r.logger.WithError(err).Error("Failed to delete project from DynamoDB")
		return fmt.Errorf("failed to delete project: %w", err)
	}

	return nil
}
