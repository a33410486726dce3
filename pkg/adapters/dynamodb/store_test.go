package dynamodb_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	folioddb "github.com/aretw0/folio/pkg/adapters/dynamodb"
	"github.com/aretw0/folio/pkg/domain"
	"github.com/aretw0/folio/pkg/ports"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamo keeps items in memory and pages scans two items at a time.
type fakeDynamo struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
	scans int
	err   error
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func idOf(key map[string]types.AttributeValue) string {
	return key["conversationId"].(*types.AttributeValueMemberS).Value
}

func (f *fakeDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.items[idOf(in.Item)] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.GetItemOutput{Item: f.items[idOf(in.Key)]}, nil
}

func (f *fakeDynamo) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, idOf(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDynamo) Scan(ctx context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans++

	ids := make([]string, 0, len(f.items))
	for id := range f.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	start := 0
	if in.ExclusiveStartKey != nil {
		after := idOf(in.ExclusiveStartKey)
		start = sort.SearchStrings(ids, after) + 1
	}
	end := min(start+2, len(ids))

	out := &dynamodb.ScanOutput{}
	for _, id := range ids[start:end] {
		out.Items = append(out.Items, f.items[id])
	}
	if end < len(ids) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"conversationId": &types.AttributeValueMemberS{Value: ids[end-1]},
		}
	}
	return out, nil
}

func TestDynamoStore_Contract(t *testing.T) {
	store, err := folioddb.New(newFakeDynamo(), "conversations")
	require.NoError(t, err)
	ports.RunStateStoreContract(t, store)
}

func TestDynamoStore_ListPaginates(t *testing.T) {
	fake := newFakeDynamo()
	store, err := folioddb.New(fake, "conversations")
	require.NoError(t, err)
	ctx := context.Background()

	for _, id := range []string{"e", "a", "d", "c", "b"} {
		require.NoError(t, store.Save(ctx, id, domain.NewConversationState(id, "")))
	}

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids)
	assert.Equal(t, 3, fake.scans)
}

func TestDynamoStore_TTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	fake := newFakeDynamo()
	store, err := folioddb.New(fake, "conversations", folioddb.WithTTL(time.Hour), folioddb.WithClock(clock))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "c1", domain.NewConversationState("c1", "u1")))
	expires := fake.items["c1"]["expiresAt"].(*types.AttributeValueMemberN).Value
	assert.Equal(t, "1767272400", expires)

	_, err = store.Load(ctx, "c1")
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	_, err = store.Load(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestDynamoStore_Errors(t *testing.T) {
	_, err := folioddb.New(nil, "t")
	assert.Error(t, err)
	_, err = folioddb.New(newFakeDynamo(), "")
	assert.Error(t, err)

	fake := newFakeDynamo()
	fake.err = errors.New("throttled")
	store, err := folioddb.New(fake, "conversations")
	require.NoError(t, err)

	assert.ErrorIs(t, store.Save(context.Background(), "c1", domain.NewConversationState("c1", "")), fake.err)
	_, err = store.Load(context.Background(), "c1")
	assert.ErrorIs(t, err, fake.err)
}

func TestDynamoStore_CorruptState(t *testing.T) {
	fake := newFakeDynamo()
	fake.items["c1"] = map[string]types.AttributeValue{
		"conversationId": &types.AttributeValueMemberS{Value: "c1"},
		"state":          &types.AttributeValueMemberS{Value: "{not json"},
		"updatedAt":      &types.AttributeValueMemberS{Value: "2026-01-01T00:00:00Z"},
	}
	store, err := folioddb.New(fake, "conversations")
	require.NoError(t, err)

	_, err = store.Load(context.Background(), "c1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSessionNotFound)
}
