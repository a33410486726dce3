// Package dynamodb implements ports.StateStore on an Amazon DynamoDB table.
//
// The table needs a string partition key named "conversationId". When a TTL is
// configured, enable DynamoDB TTL on the "expiresAt" attribute.
package dynamodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/ports"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const keyAttribute = "conversationId"

// API is the part of the DynamoDB client used by the store.
type API interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// record is the persisted item. The state is kept as JSON so every store
// round-trips user data the same way.
type record struct {
	ConversationID string `dynamodbav:"conversationId"`
	State          string `dynamodbav:"state"`
	Version        string `dynamodbav:"version,omitempty"`
	UpdatedAt      string `dynamodbav:"updatedAt"`
	ExpiresAt      int64  `dynamodbav:"expiresAt,omitempty"`
}

// Store implements ports.StateStore using DynamoDB.
type Store struct {
	client API
	table  string
	ttl    time.Duration
	now    func() time.Time
}

var _ ports.StateStore = (*Store)(nil)

// Option configures the Store.
type Option func(*Store)

// WithTTL sets the expiration for conversations.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a store on table.
func New(client API, table string, opts ...Option) (*Store, error) {
	if client == nil {
		return nil, errors.New("dynamodb: client cannot be nil")
	}
	if table == "" {
		return nil, errors.New("dynamodb: table name cannot be empty")
	}
	s := &Store{client: client, table: table, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func key(conversationID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		keyAttribute: &types.AttributeValueMemberS{Value: conversationID},
	}
}

// Save persists the conversation state.
func (s *Store) Save(ctx context.Context, conversationID string, state *domain.ConversationState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	now := s.now().UTC()
	rec := record{
		ConversationID: conversationID,
		State:          string(data),
		Version:        state.Version,
		UpdatedAt:      now.Format(time.RFC3339Nano),
	}
	if s.ttl > 0 {
		rec.ExpiresAt = now.Add(s.ttl).Unix()
	}

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

// Load retrieves the conversation state.
// Items past their TTL are treated as missing; DynamoDB deletes them lazily.
func (s *Store) Load(ctx context.Context, conversationID string) (*domain.ConversationState, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            key(conversationID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	if out.Item == nil {
		return nil, domain.ErrSessionNotFound
	}

	var rec record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode item: %w", err)
	}
	if rec.ExpiresAt > 0 && rec.ExpiresAt <= s.now().Unix() {
		return nil, domain.ErrSessionNotFound
	}

	var state domain.ConversationState
	if err := json.Unmarshal([]byte(rec.State), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return &state, nil
}

// Delete removes the conversation state.
func (s *Store) Delete(ctx context.Context, conversationID string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       key(conversationID),
	})
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

// List returns the ids of all live conversations, sorted.
// It scans the table; meant for operator tooling, not the turn path.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := s.now().Unix()
	var ids []string
	input := &dynamodb.ScanInput{
		TableName:            aws.String(s.table),
		ProjectionExpression: aws.String("#id, expiresAt"),
		ExpressionAttributeNames: map[string]string{
			"#id": keyAttribute,
		},
	}
	for {
		out, err := s.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to list conversations: %w", err)
		}
		for _, item := range out.Items {
			var rec record
			if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
				return nil, fmt.Errorf("failed to decode item: %w", err)
			}
			if rec.ExpiresAt > 0 && rec.ExpiresAt <= now {
				continue
			}
			ids = append(ids, rec.ConversationID)
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
	sort.Strings(ids)
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}
