package repository

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
	"github.com/folio/folio/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	otpSlotSK      = "SLOT"
	otpRecordSKPfx = "CODE#"

	// sortable, fixed width so SK order equals creation order
	otpSKTimeLayout = "20060102T150405.000000000Z"

	// one item of the transaction is the slot, one is the new record
	maxInvalidatePerTx = 98
)

// OTPRepository stores every issued code under the identity's partition:
//
//	PK=OTP#<email> SK=SLOT                      version counter for rotation CAS
//	PK=OTP#<email> SK=CODE#<created>#<id>       one item per issued code
type OTPRepository struct {
	client    DynamoAPI
	tableName string
	logger    *logrus.Logger
}

func NewOTPRepository(client DynamoAPI, tableName string, logger *logrus.Logger) *OTPRepository {
	return &OTPRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

func otpPK(email string) string {
	return "OTP#" + email
}

func otpSK(rec *models.OTPRecord) string {
	return otpRecordSKPfx + rec.CreatedAt.UTC().Format(otpSKTimeLayout) + "#" + rec.ID
}

// Rotate marks every unused code for rec.Email as used and stores rec, in one
// transaction. A concurrent rotation for the same identity makes the slot
// version check fail and Rotate returns ErrConflict.
func (r *OTPRepository) Rotate(ctx context.Context, rec *models.OTPRecord) (int, error) {
	pk := otpPK(rec.Email)

	version, err := r.slotVersion(ctx, pk)
	if err != nil {
		return 0, err
	}

	unused, err := r.query(ctx, pk, true, true)
	if err != nil {
		return 0, err
	}

	// overflow beyond one transaction is invalidated up front; those codes
	// are being retired regardless of how the transaction ends
	for len(unused) > maxInvalidatePerTx {
		if err := r.MarkUsed(ctx, &unused[len(unused)-1]); err != nil && !errors.Is(err, ErrAlreadyUsed) {
			return 0, err
		}
		unused = unused[:len(unused)-1]
	}

	item, err := marshalItem(rec, pk, otpSK(rec))
	if err != nil {
		return 0, err
	}

	table := aws.String(r.tableName)
	writes := make([]types.TransactWriteItem, 0, len(unused)+2)
	writes = append(writes, types.TransactWriteItem{
		Update: &types.Update{
			TableName:           table,
			Key:                 keyOf(pk, otpSlotSK),
			UpdateExpression:    aws.String("SET version = :next, latest_sk = :sk"),
			ConditionExpression: aws.String("attribute_not_exists(PK) OR version = :cur"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":next": &types.AttributeValueMemberN{Value: strconv.FormatInt(version+1, 10)},
				":cur":  &types.AttributeValueMemberN{Value: strconv.FormatInt(version, 10)},
				":sk":   &types.AttributeValueMemberS{Value: otpSK(rec)},
			},
		},
	})
	for i := range unused {
		writes = append(writes, types.TransactWriteItem{
			Update: &types.Update{
				TableName:           table,
				Key:                 keyOf(pk, otpSK(&unused[i])),
				UpdateExpression:    aws.String("SET used = :true"),
				ConditionExpression: aws.String("used = :false"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":true":  &types.AttributeValueMemberBOOL{Value: true},
					":false": &types.AttributeValueMemberBOOL{Value: false},
				},
			},
		})
	}
	writes = append(writes, types.TransactWriteItem{
		Put: &types.Put{
			TableName:           table,
			Item:                item,
			ConditionExpression: aws.String("attribute_not_exists(PK)"),
		},
	})

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: writes,
	})
	if err != nil {
		if isTxConflict(err) {
			return 0, ErrConflict
		}
		r.logger.WithError(err).Error("Failed to rotate OTP in DynamoDB")
		return 0, fmt.Errorf("failed to rotate OTP: %w", err)
	}

	return len(unused), nil
}

// FindActive returns the most recently created unused code for email that
// has not expired at now.
func (r *OTPRepository) FindActive(ctx context.Context, email string, now time.Time) (*models.OTPRecord, error) {
	records, err := r.query(ctx, otpPK(email), true, false)
	if err != nil {
		return nil, err
	}

	// newest first; expiry is compared in Go, not in a filter expression,
	// because RFC3339Nano strings do not sort by time
	for i := range records {
		if records[i].Active(now) {
			return &records[i], nil
		}
	}

	return nil, ErrNotFound
}

// MarkUsed flips used to true. It returns ErrAlreadyUsed if another request
// got there first.
func (r *OTPRepository) MarkUsed(ctx context.Context, rec *models.OTPRecord) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 keyOf(otpPK(rec.Email), otpSK(rec)),
		UpdateExpression:    aws.String("SET used = :true"),
		ConditionExpression: aws.String("used = :false"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":true":  &types.AttributeValueMemberBOOL{Value: true},
			":false": &types.AttributeValueMemberBOOL{Value: false},
		},
	})
	if err != nil {
		if isConditionFailed(err) {
			return ErrAlreadyUsed
		}
		r.logger.WithError(err).Error("Failed to mark OTP used in DynamoDB")
		return fmt.Errorf("failed to mark OTP used: %w", err)
	}

	rec.Used = true
	return nil
}

func (r *OTPRepository) slotVersion(ctx context.Context, pk string) (int64, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            keyOf(pk, otpSlotSK),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get OTP slot: %w", err)
	}

	if result.Item == nil {
		return 0, nil
	}

	var slot struct {
		Version int64 `dynamodbav:"version"`
	}
	if err := attributevalue.UnmarshalMap(result.Item, &slot); err != nil {
		return 0, fmt.Errorf("failed to unmarshal OTP slot: %w", err)
	}

	return slot.Version, nil
}

// query lists code items for pk, optionally only unused ones.
func (r *OTPRepository) query(ctx context.Context, pk string, unusedOnly, oldestFirst bool) ([]models.OTPRecord, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: pk},
			":prefix": &types.AttributeValueMemberS{Value: otpRecordSKPfx},
		},
		ScanIndexForward: aws.Bool(oldestFirst),
		ConsistentRead:   aws.Bool(true),
	}
	if unusedOnly {
		input.FilterExpression = aws.String("used = :false")
		input.ExpressionAttributeValues[":false"] = &types.AttributeValueMemberBOOL{Value: false}
	}

	var records []models.OTPRecord
	paginator := dynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query OTP records: %w", err)
		}

		var batch []models.OTPRecord
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("failed to unmarshal OTP records: %w", err)
		}
		records = append(records, batch...)
	}

	return records, nil
}
