package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Dynamo implements Adapter against DynamoDB.
type Dynamo struct {
	client *dynamodb.Client
}

var _ Adapter = (*Dynamo)(nil)

// NewDynamo creates a DynamoDB-backed store adapter.
func NewDynamo(client *dynamodb.Client) *Dynamo {
	return &Dynamo{client: client}
}

// Get retrieves an item by key, returning ErrNotFound if missing.
func (d *Dynamo) Get(ctx context.Context, table string, key Key) (Item, error) {
	av, err := marshalKey(key)
	if err != nil {
		return nil, err
	}
	result, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key:       av,
	})
	if err != nil {
		return nil, mapError(err)
	}
	if result.Item == nil {
		return nil, ErrNotFound
	}
	return unmarshalItem(result.Item)
}

// Put writes an item, honoring the optional condition.
func (d *Dynamo) Put(ctx context.Context, table string, item Item, cond *Condition) error {
	av, err := attributevalue.MarshalMap(map[string]any(item))
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      av,
	}
	if cond != nil {
		expr, names, values, err := buildCondition(cond)
		if err != nil {
			return err
		}
		input.ConditionExpression = aws.String(expr)
		if len(names) > 0 {
			input.ExpressionAttributeNames = names
		}
		if len(values) > 0 {
			input.ExpressionAttributeValues = values
		}
	}

	_, err = d.client.PutItem(ctx, input)
	return mapError(err)
}

// Update applies patch as a SET expression with the optional condition and
// returns the stored item after the write.
func (d *Dynamo) Update(ctx context.Context, table string, key Key, patch Item, cond *Condition) (Item, error) {
	keyAV, err := marshalKey(key)
	if err != nil {
		return nil, err
	}

	exprNames := map[string]string{}
	exprValues := map[string]types.AttributeValue{}

	var setClauses []string
	i := 0
	for _, k := range sortedKeys(patch) {
		av, err := attributevalue.Marshal(patch[k])
		if err != nil {
			return nil, fmt.Errorf("marshal patch attribute %q: %w", k, err)
		}
		nameKey := fmt.Sprintf("#attr%d", i)
		valueKey := fmt.Sprintf(":val%d", i)
		exprNames[nameKey] = k
		exprValues[valueKey] = av
		setClauses = append(setClauses, fmt.Sprintf("%s = %s", nameKey, valueKey))
		i++
	}
	if len(setClauses) == 0 {
		return nil, fmt.Errorf("ontology: empty update patch")
	}

	input := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(table),
		Key:                       keyAV,
		UpdateExpression:          aws.String("SET " + strings.Join(setClauses, ", ")),
		ExpressionAttributeNames:  exprNames,
		ExpressionAttributeValues: exprValues,
		ReturnValues:              types.ReturnValueAllNew,
	}
	if cond != nil {
		expr, names, values, err := buildCondition(cond)
		if err != nil {
			return nil, err
		}
		input.ConditionExpression = aws.String(expr)
		for k, v := range names {
			exprNames[k] = v
		}
		for k, v := range values {
			exprValues[k] = v
		}
	}

	result, err := d.client.UpdateItem(ctx, input)
	if err != nil {
		return nil, mapError(err)
	}
	return unmarshalItem(result.Attributes)
}

// Delete removes an item, honoring the optional condition.
func (d *Dynamo) Delete(ctx context.Context, table string, key Key, cond *Condition) error {
	keyAV, err := marshalKey(key)
	if err != nil {
		return err
	}

	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(table),
		Key:       keyAV,
	}
	if cond != nil {
		expr, names, values, err := buildCondition(cond)
		if err != nil {
			return err
		}
		input.ConditionExpression = aws.String(expr)
		if len(names) > 0 {
			input.ExpressionAttributeNames = names
		}
		if len(values) > 0 {
			input.ExpressionAttributeValues = values
		}
	}

	_, err = d.client.DeleteItem(ctx, input)
	return mapError(err)
}

// Query reads one page by hash-key equality on a table or secondary index.
func (d *Dynamo) Query(ctx context.Context, in QueryInput) (*Page, error) {
	exprNames := map[string]string{}
	exprValues := map[string]types.AttributeValue{}

	var keyClauses []string
	i := 0
	for _, k := range sortedKeys(in.Key) {
		av, err := attributevalue.Marshal(in.Key[k])
		if err != nil {
			return nil, fmt.Errorf("marshal key condition %q: %w", k, err)
		}
		nameKey := fmt.Sprintf("#key%d", i)
		valueKey := fmt.Sprintf(":keyval%d", i)
		exprNames[nameKey] = k
		exprValues[valueKey] = av
		keyClauses = append(keyClauses, fmt.Sprintf("%s = %s", nameKey, valueKey))
		i++
	}
	if len(keyClauses) == 0 {
		return nil, fmt.Errorf("ontology: query requires a key condition")
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(in.Table),
		KeyConditionExpression:    aws.String(strings.Join(keyClauses, " AND ")),
		ExpressionAttributeNames:  exprNames,
		ExpressionAttributeValues: exprValues,
	}
	if in.Index != "" {
		input.IndexName = aws.String(in.Index)
	}
	if in.Limit > 0 {
		input.Limit = aws.Int32(in.Limit)
	}
	if len(in.Filter) > 0 {
		filterExpr, err := addFilter(in.Filter, exprNames, exprValues)
		if err != nil {
			return nil, err
		}
		input.FilterExpression = aws.String(filterExpr)
	}
	if in.StartToken != "" {
		start, err := decodeToken(in.StartToken)
		if err != nil {
			return nil, err
		}
		input.ExclusiveStartKey = start
	}

	result, err := d.client.Query(ctx, input)
	if err != nil {
		return nil, mapError(err)
	}
	return buildPage(result.Items, result.LastEvaluatedKey)
}

// Scan reads one page of the whole table with an optional filter.
func (d *Dynamo) Scan(ctx context.Context, in ScanInput) (*Page, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(in.Table),
	}
	if in.Limit > 0 {
		input.Limit = aws.Int32(in.Limit)
	}
	if len(in.Filter) > 0 {
		exprNames := map[string]string{}
		exprValues := map[string]types.AttributeValue{}
		filterExpr, err := addFilter(in.Filter, exprNames, exprValues)
		if err != nil {
			return nil, err
		}
		input.FilterExpression = aws.String(filterExpr)
		input.ExpressionAttributeNames = exprNames
		input.ExpressionAttributeValues = exprValues
	}
	if in.StartToken != "" {
		start, err := decodeToken(in.StartToken)
		if err != nil {
			return nil, err
		}
		input.ExclusiveStartKey = start
	}

	result, err := d.client.Scan(ctx, input)
	if err != nil {
		return nil, mapError(err)
	}
	return buildPage(result.Items, result.LastEvaluatedKey)
}

// buildCondition renders a Condition into a DynamoDB condition expression.
func buildCondition(cond *Condition) (string, map[string]string, map[string]types.AttributeValue, error) {
	names := map[string]string{}
	values := map[string]types.AttributeValue{}
	var clauses []string

	if cond.NotExists != "" {
		names["#cne"] = cond.NotExists
		clauses = append(clauses, "attribute_not_exists(#cne)")
	}
	if cond.Exists != "" {
		names["#cex"] = cond.Exists
		clauses = append(clauses, "attribute_exists(#cex)")
	}
	i := 0
	for _, k := range sortedKeys(cond.Equals) {
		av, err := attributevalue.Marshal(cond.Equals[k])
		if err != nil {
			return "", nil, nil, fmt.Errorf("marshal condition value %q: %w", k, err)
		}
		nameKey := fmt.Sprintf("#cond%d", i)
		valueKey := fmt.Sprintf(":condval%d", i)
		names[nameKey] = k
		values[valueKey] = av
		clauses = append(clauses, fmt.Sprintf("%s = %s", nameKey, valueKey))
		i++
	}
	if len(clauses) == 0 {
		return "", nil, nil, fmt.Errorf("ontology: empty condition")
	}
	return strings.Join(clauses, " AND "), names, values, nil
}

func addFilter(filter map[string]any, names map[string]string, values map[string]types.AttributeValue) (string, error) {
	var clauses []string
	i := 0
	for _, k := range sortedKeys(filter) {
		av, err := attributevalue.Marshal(filter[k])
		if err != nil {
			return "", fmt.Errorf("marshal filter value %q: %w", k, err)
		}
		nameKey := fmt.Sprintf("#f%d", i)
		valueKey := fmt.Sprintf(":fval%d", i)
		names[nameKey] = k
		values[valueKey] = av
		clauses = append(clauses, fmt.Sprintf("%s = %s", nameKey, valueKey))
		i++
	}
	return strings.Join(clauses, " AND "), nil
}

func buildPage(raw []map[string]types.AttributeValue, last map[string]types.AttributeValue) (*Page, error) {
	page := &Page{}
	for _, r := range raw {
		item, err := unmarshalItem(r)
		if err != nil {
			return nil, err
		}
		page.Items = append(page.Items, item)
	}
	page.Count = len(page.Items)
	if len(last) > 0 {
		token, err := encodeToken(last)
		if err != nil {
			return nil, err
		}
		page.NextToken = token
	}
	return page, nil
}

func marshalKey(key Key) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.MarshalMap(map[string]any(key))
	if err != nil {
		return nil, fmt.Errorf("marshal key: %w", err)
	}
	return av, nil
}

func unmarshalItem(raw map[string]types.AttributeValue) (Item, error) {
	var item map[string]any
	if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	return Item(item), nil
}

// encodeToken serializes a LastEvaluatedKey into an opaque pagination token.
func encodeToken(last map[string]types.AttributeValue) (string, error) {
	var plain map[string]any
	if err := attributevalue.UnmarshalMap(last, &plain); err != nil {
		return "", fmt.Errorf("encode token: %w", err)
	}
	b, err := json.Marshal(plain)
	if err != nil {
		return "", fmt.Errorf("encode token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func decodeToken(token string) (map[string]types.AttributeValue, error) {
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrBadToken
	}
	var plain map[string]any
	if err := json.Unmarshal(b, &plain); err != nil {
		return nil, ErrBadToken
	}
	av, err := attributevalue.MarshalMap(plain)
	if err != nil {
		return nil, ErrBadToken
	}
	return av, nil
}

// mapError translates DynamoDB failures into the store error taxonomy.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return ErrConditionFailed
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
