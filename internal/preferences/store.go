// internal/preferences/store.go
package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	commonaws "dining-concierge/internal/common/aws"
	cerrors "dining-concierge/internal/common/errors"
	"dining-concierge/internal/common/logger"
	"dining-concierge/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/redis/go-redis/v9"
)

// Store persists a session's last-used location and cuisine in DynamoDB with
// a Redis cache-aside in front. The cache is optional; a nil client disables
// it. Cache failures are never surfaced.
type Store struct {
	db       commonaws.DynamoDBAPI
	cache    *redis.Client
	table    string
	cacheTTL time.Duration
	logger   logger.Logger

	now func() time.Time
}

func NewStore(db commonaws.DynamoDBAPI, cache *redis.Client, table string, cacheTTL time.Duration, log logger.Logger) *Store {
	return &Store{
		db:       db,
		cache:    cache,
		table:    table,
		cacheTTL: cacheTTL,
		logger:   log,
		now:      time.Now,
	}
}

func cacheKey(sessionID string) string {
	return "pref:" + sessionID
}

// Get returns the stored preference for a session, or (nil, nil) when none
// exists. Callers treat the error case as absent; the dialog must never
// abort on a preference lookup.
func (s *Store) Get(ctx context.Context, sessionID string) (*models.Preference, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey(sessionID)).Result(); err == nil {
			var pref models.Preference
			if err := json.Unmarshal([]byte(data), &pref); err == nil {
				return &pref, nil
			}
		}
	}

	out, err := s.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"sessionId": &types.AttributeValueMemberS{Value: sessionID},
		},
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			s.logger.WithFields(map[string]interface{}{
				"session_id": sessionID,
				"error_code": apiErr.ErrorCode(),
			}).Warn("Preference lookup failed")
		}
		return nil, cerrors.NewPreferenceStoreFailedError(err)
	}
	if out.Item == nil {
		return nil, nil
	}

	var pref models.Preference
	if err := attributevalue.UnmarshalMap(out.Item, &pref); err != nil {
		return nil, cerrors.NewPreferenceStoreFailedError(err)
	}

	s.writeCache(ctx, &pref)
	return &pref, nil
}

// Save upserts the preference for a session. Persistence is best-effort;
// the caller logs and swallows the returned error.
func (s *Store) Save(ctx context.Context, sessionID, location, cuisine string) error {
	pref := models.Preference{
		SessionID:    sessionID,
		LastLocation: location,
		LastCuisine:  cuisine,
		UpdatedAt:    s.now().UTC().Format(time.RFC3339),
	}

	item, err := attributevalue.MarshalMap(pref)
	if err != nil {
		return cerrors.NewPreferenceStoreFailedError(err)
	}

	if _, err := s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}); err != nil {
		return cerrors.NewPreferenceStoreFailedError(err)
	}

	s.writeCache(ctx, &pref)
	return nil
}

func (s *Store) writeCache(ctx context.Context, pref *models.Preference) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(pref)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(pref.SessionID), data, s.cacheTTL).Err(); err != nil {
		s.logger.WithError(err).WithFields(map[string]interface{}{
			"session_id": pref.SessionID,
		}).Debug("Preference cache write failed")
	}
}
