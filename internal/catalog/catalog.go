// internal/catalog/catalog.go
package catalog

import (
	"context"

	commonaws "dining-concierge/internal/common/aws"
	cerrors "dining-concierge/internal/common/errors"
	"dining-concierge/internal/common/logger"
	"dining-concierge/internal/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Store reads full restaurant records from the catalog table by businessId.
type Store struct {
	db     commonaws.DynamoDBAPI
	table  string
	logger logger.Logger
}

func NewStore(db commonaws.DynamoDBAPI, table string, log logger.Logger) *Store {
	return &Store{db: db, table: table, logger: log}
}

// BatchGet returns the records found for the given ids. Missing ids are
// simply absent from the result; partial results are not an error.
func (s *Store) BatchGet(ctx context.Context, ids []string) (map[string]models.RestaurantRecord, error) {
	records := make(map[string]models.RestaurantRecord, len(ids))
	if len(ids) == 0 {
		return records, nil
	}

	keys := make([]map[string]types.AttributeValue, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, map[string]types.AttributeValue{
			"businessId": &types.AttributeValueMemberS{Value: id},
		})
	}

	out, err := s.db.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
		RequestItems: map[string]types.KeysAndAttributes{
			s.table: {Keys: keys},
		},
	})
	if err != nil {
		return nil, cerrors.NewCatalogUnavailableError(err)
	}

	for _, item := range out.Responses[s.table] {
		var record models.RestaurantRecord
		if err := attributevalue.UnmarshalMap(item, &record); err != nil {
			s.logger.WithError(err).Warn("Skipping unreadable catalog record")
			continue
		}
		records[record.BusinessID] = record
	}

	if len(records) < len(ids) {
		s.logger.WithFields(map[string]interface{}{
			"requested": len(ids),
			"found":     len(records),
		}).Debug("Catalog batch-get returned partial results")
	}
	return records, nil
}
