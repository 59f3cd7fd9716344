package repository

import (
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/folio/folio/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalItem_StampsKeys(t *testing.T) {
	entry := &models.AccessEntry{Email: "admin@example.com", IsActive: true}

	item, err := marshalItem(entry, entry.GetPK(), entry.GetSK())
	require.NoError(t, err)

	assert.Equal(t, &types.AttributeValueMemberS{Value: "ADMIN_ACCESS#admin@example.com"}, item["PK"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: metadataSK}, item["SK"])

	var decoded models.AccessEntry
	require.NoError(t, attributevalue.UnmarshalMap(item, &decoded))
	assert.Equal(t, entry.Email, decoded.Email)
	assert.True(t, decoded.IsActive)
}

func TestOTPSK_SortsByCreation(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	var keys []string
	for i := 9; i >= 0; i-- {
		rec := &models.OTPRecord{ID: fmt.Sprintf("id-%d", i), CreatedAt: base.Add(time.Duration(i) * time.Millisecond)}
		keys = append(keys, otpSK(rec))
	}
	sort.Strings(keys)

	for i, key := range keys {
		assert.Contains(t, key, fmt.Sprintf("#id-%d", i))
	}
	assert.Equal(t, "CODE#20240301T120000.000000000Z#id-0", keys[0])
}

func TestOTPSK_UsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	a := &models.OTPRecord{ID: "x", CreatedAt: time.Date(2024, 3, 1, 17, 0, 0, 0, loc)}
	b := &models.OTPRecord{ID: "x", CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}

	assert.Equal(t, otpSK(b), otpSK(a))
}

func TestIsConditionFailed(t *testing.T) {
	ccf := &types.ConditionalCheckFailedException{Message: aws.String("failed")}

	assert.True(t, isConditionFailed(ccf))
	assert.True(t, isConditionFailed(fmt.Errorf("put: %w", ccf)))
	assert.False(t, isConditionFailed(errors.New("throttled")))
}

func TestCancelReasons(t *testing.T) {
	tce := &types.TransactionCanceledException{
		CancellationReasons: []types.CancellationReason{
			{Code: aws.String("ConditionalCheckFailed")},
			{Code: aws.String("None")},
			{},
		},
	}

	assert.Equal(t, []string{"ConditionalCheckFailed", "None", ""}, cancelReasons(fmt.Errorf("tx: %w", tce)))
	assert.Nil(t, cancelReasons(errors.New("boom")))
}

func TestIsTxConflict(t *testing.T) {
	cancelled := func(codes ...string) error {
		tce := &types.TransactionCanceledException{}
		for _, c := range codes {
			tce.CancellationReasons = append(tce.CancellationReasons, types.CancellationReason{Code: aws.String(c)})
		}
		return fmt.Errorf("tx: %w", tce)
	}

	assert.True(t, isTxConflict(cancelled("ConditionalCheckFailed", "None")))
	assert.True(t, isTxConflict(cancelled("None", "TransactionConflict")))
	assert.False(t, isTxConflict(cancelled("ThrottlingError", "None")))
	assert.False(t, isTxConflict(errors.New("boom")))
}
