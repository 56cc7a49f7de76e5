package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"chatbot/config"
	"chatbot/models"
)

// dynamoAPI is the subset of the DynamoDB client the store uses.
type dynamoAPI interface {
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, opts ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, opts ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoStore records exchanges in a DynamoDB table keyed by exchange ID.
type DynamoStore struct {
	db     dynamoAPI
	table  string
	logger *zap.SugaredLogger
}

// NewDynamoStore connects to cfg.DynamoEndpoint (DynamoDB Local by
// default) and creates the table if it is missing.
func NewDynamoStore(ctx context.Context, cfg config.StoreConfig, logger *zap.SugaredLogger) (*DynamoStore, error) {
	customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.DynamoEndpoint == "" {
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		}
		return aws.Endpoint{URL: cfg.DynamoEndpoint}, nil
	})

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.DynamoRegion),
		awsconfig.WithEndpointResolverWithOptions(customResolver),
	}
	if cfg.DynamoEndpoint != "" {
		// DynamoDB Local accepts any credentials.
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.StaticCredentialsProvider{
			Value: aws.Credentials{AccessKeyID: "dummy", SecretAccessKey: "dummy", SessionToken: "dummy"},
		}))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	store := newDynamoStore(dynamodb.NewFromConfig(awsCfg), cfg.DynamoTable, logger)
	if err := store.ensureTable(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func newDynamoStore(db dynamoAPI, table string, logger *zap.SugaredLogger) *DynamoStore {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &DynamoStore{db: db, table: table, logger: logger}
}

func (s *DynamoStore) ensureTable(ctx context.Context) error {
	_, err := s.db.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(s.table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String("ID"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String("ID"), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			return nil
		}
		return fmt.Errorf("create table %s: %w", s.table, err)
	}
	s.logger.Infow("created dynamodb table", "table", s.table)
	return nil
}

func (s *DynamoStore) Save(ctx context.Context, ex models.Exchange) error {
	_, err := s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      exchangeToItem(ex),
	})
	if err != nil {
		return fmt.Errorf("put exchange %s: %w", ex.ID, err)
	}
	return nil
}

// Recent scans the whole table. The exchange log is small and read
// rarely, so there is no secondary index on Timestamp.
func (s *DynamoStore) Recent(ctx context.Context, limit int) ([]models.Exchange, error) {
	var (
		exchanges []models.Exchange
		startKey  map[string]types.AttributeValue
	)
	for {
		out, err := s.db.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.table),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.table, err)
		}
		for _, item := range out.Items {
			ex, err := itemToExchange(item)
			if err != nil {
				s.logger.Warnw("skipping unreadable exchange item", "error", err)
				continue
			}
			exchanges = append(exchanges, ex)
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}
	return newestFirst(exchanges, limit), nil
}

func (s *DynamoStore) Close() error { return nil }

func exchangeToItem(ex models.Exchange) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"ID":          &types.AttributeValueMemberS{Value: ex.ID},
		"UserMessage": &types.AttributeValueMemberS{Value: ex.UserMessage},
		"Reply":       &types.AttributeValueMemberS{Value: ex.Reply},
		"Provider":    &types.AttributeValueMemberS{Value: ex.Provider},
		"Timestamp":   &types.AttributeValueMemberS{Value: ex.Timestamp.UTC().Format(time.RFC3339Nano)},
	}
}

func itemToExchange(item map[string]types.AttributeValue) (models.Exchange, error) {
	get := func(name string) (string, error) {
		v, ok := item[name].(*types.AttributeValueMemberS)
		if !ok {
			return "", fmt.Errorf("attribute %s missing or not a string", name)
		}
		return v.Value, nil
	}

	var ex models.Exchange
	var err error
	if ex.ID, err = get("ID"); err != nil {
		return ex, err
	}
	if ex.UserMessage, err = get("UserMessage"); err != nil {
		return ex, err
	}
	if ex.Reply, err = get("Reply"); err != nil {
		return ex, err
	}
	// Provider is optional.
	ex.Provider, _ = get("Provider")

	ts, err := get("Timestamp")
	if err != nil {
		return ex, err
	}
	if ex.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
		return ex, fmt.Errorf("parse timestamp %q: %w", ts, err)
	}
	return ex, nil
}
