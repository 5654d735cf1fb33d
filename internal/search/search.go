/*
Copyright 2024 Lucky Gas Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/typesense/typesense-go/typesense"
	"github.com/typesense/typesense-go/typesense/api"
)

const (
	CollectionCustomers  = "customers"
	CollectionOrders     = "orders"
	CollectionRoutes     = "routes"
	CollectionDrivers    = "drivers"
	CollectionDeliveries = "deliveries"
)

// CollectionConfig holds configuration for a specific collection.
type CollectionConfig struct {
	Schema     *api.CollectionSchema
	IDField    string
	TimeFields []string
}

var collectionConfigs map[string]CollectionConfig

func init() {
	collectionConfigs = map[string]CollectionConfig{
		CollectionCustomers: {
			Schema:     getCustomerSchema(),
			IDField:    "customer_id",
			TimeFields: []string{"created_at", "updated_at"},
		},
		CollectionOrders: {
			Schema:     getOrderSchema(),
			IDField:    "order_id",
			TimeFields: []string{"created_at", "updated_at", "scheduled_date", "delivered_at"},
		},
		CollectionRoutes: {
			Schema:     getRouteSchema(),
			IDField:    "route_id",
			TimeFields: []string{"created_at", "updated_at", "date"},
		},
		CollectionDrivers: {
			Schema:     getDriverSchema(),
			IDField:    "driver_id",
			TimeFields: []string{"created_at", "last_seen_at"},
		},
		CollectionDeliveries: {
			Schema:     getDeliverySchema(),
			IDField:    "delivery_id",
			TimeFields: []string{"created_at", "completed_at"},
		},
	}
}

// TypesenseClient wraps the Typesense client and provides methods to interact with it.
type TypesenseClient struct {
	Client *typesense.Client
}

// NotificationPayload represents the payload structure for notifications, containing the table and data.
type NotificationPayload struct {
	Table string                 `json:"table"`
	Data  map[string]interface{} `json:"data"`
}

// NewTypesenseClient initializes and returns a new Typesense client instance.
func NewTypesenseClient(apiKey string, hosts []string) *TypesenseClient {
	client := typesense.NewClient(
		typesense.WithServer(hosts[0]),
		typesense.WithAPIKey(apiKey),
		typesense.WithConnectionTimeout(5*time.Second),
		typesense.WithCircuitBreakerMaxRequests(50),
		typesense.WithCircuitBreakerInterval(2*time.Minute),
		typesense.WithCircuitBreakerTimeout(1*time.Minute),
	)
	return &TypesenseClient{Client: client}
}

// EnsureCollectionsExist ensures that all the necessary collections exist in the Typesense schema.
// If a collection doesn't exist, it will create the collection based on the latest schema.
func (t *TypesenseClient) EnsureCollectionsExist(ctx context.Context) error {
	for name, config := range collectionConfigs {
		if _, err := t.CreateCollection(ctx, config.Schema); err != nil {
			return fmt.Errorf("failed to create collection %s: %w", name, err)
		}
	}
	return nil
}

// CreateCollection creates a collection in Typesense based on the provided schema.
// If the collection already exists, it will return without error.
func (t *TypesenseClient) CreateCollection(ctx context.Context, schema *api.CollectionSchema) (*api.CollectionResponse, error) {
	resp, err := t.Client.Collections().Create(ctx, schema)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return nil, nil
		}
		return nil, err
	}
	return resp, nil
}

// Search performs a search query on a specific collection with the provided search parameters.
func (t *TypesenseClient) Search(ctx context.Context, collection string, searchParams *api.SearchCollectionParams) (*api.SearchResult, error) {
	return t.Client.Collection(collection).Documents().Search(ctx, searchParams)
}

// MultiSearch performs multiple searches in one round trip.
func (t *TypesenseClient) MultiSearch(ctx context.Context, searchRequests api.MultiSearchSearchesParameter) (*api.MultiSearchResult, error) {
	return t.Client.MultiSearch.Perform(ctx, &api.MultiSearchParams{}, searchRequests)
}

// HandleNotification processes incoming notifications and updates Typesense collections based on the table and data.
// It ensures the required fields exist and upserts the data into Typesense.
func (t *TypesenseClient) HandleNotification(ctx context.Context, table string, data map[string]interface{}) error {
	config, ok := collectionConfigs[table]
	if !ok {
		return fmt.Errorf("unknown collection: %s", table)
	}

	if err := t.processMetadata(data); err != nil {
		return err
	}
	t.ensureSchemaFields(config, data)
	t.normalizeTimeFields(config, data)

	return t.upsertDocument(ctx, table, data)
}

// processMetadata handles metadata field normalization for object schemas
func (t *TypesenseClient) processMetadata(data map[string]interface{}) error {
	if metaData, ok := data["meta_data"]; ok {
		if metaData == nil {
			// If metadata is null, provide an empty object for object type schemas
			data["meta_data"] = make(map[string]interface{})
		} else if metaDataMap, ok := metaData.(map[string]interface{}); ok {
			data["meta_data"] = metaDataMap
		} else {
			// For backward compatibility, convert to string for old schemas
			jsonString, err := json.Marshal(metaData)
			if err != nil {
				return fmt.Errorf("failed to marshal meta_data: %w", err)
			}
			data["meta_data"] = string(jsonString)
		}
	}
	return nil
}

// ensureSchemaFields ensures all required schema fields are present with default values
func (t *TypesenseClient) ensureSchemaFields(config CollectionConfig, data map[string]interface{}) {
	latestSchema := config.Schema

	optionalFieldMap := make(map[string]bool)
	for _, field := range latestSchema.Fields {
		if field.Optional != nil && *field.Optional {
			optionalFieldMap[field.Name] = true
		}
	}

	for _, field := range latestSchema.Fields {
		if _, ok := data[field.Name]; !ok {
			isOptional := field.Optional != nil && *field.Optional
			if !isOptional {
				data[field.Name] = getDefaultValue(field.Type)
			}
		}
	}

	for key, value := range data {
		if optionalFieldMap[key] {
			if strVal, ok := value.(string); ok && strVal == "" {
				delete(data, key)
			}
		}
	}
}

// normalizeTimeFields converts time fields to Unix timestamps
func (t *TypesenseClient) normalizeTimeFields(config CollectionConfig, data map[string]interface{}) {
	for _, field := range config.TimeFields {
		if fieldValue, ok := data[field]; ok {
			switch v := fieldValue.(type) {
			case time.Time:
				data[field] = v.Unix()
			case int64:
				// Time already in Unix format, no action needed
			default:
				data[field] = time.Now().Unix()
			}
		}
	}
}

// getIDField returns the primary ID field name for a given table
func (t *TypesenseClient) getIDField(table string) string {
	if config, ok := collectionConfigs[table]; ok {
		return config.IDField
	}
	return ""
}

// upsertDocument handles the final upsert operation to Typesense
func (t *TypesenseClient) upsertDocument(ctx context.Context, table string, data map[string]interface{}) error {
	idField := t.getIDField(table)

	if idField != "" {
		if id, ok := data[idField].(string); ok && id != "" {
			data["id"] = id
		}
	}

	_, err := t.Client.Collection(table).Documents().Upsert(ctx, data)
	if err != nil {
		return fmt.Errorf("failed to upsert document in Typesense: %w", err)
	}

	return nil
}

// MigrateTypeSenseSchema adds new fields from the latest schema to the existing collection schema in Typesense.
// This is useful when the schema has been updated, and new fields need to be added.
func (t *TypesenseClient) MigrateTypeSenseSchema(ctx context.Context, collectionName string) error {
	collection := t.Client.Collection(collectionName)

	currentSchemaResponse, err := collection.Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve current schema: %w", err)
	}

	currentSchema := &api.CollectionSchema{
		Name:   currentSchemaResponse.Name,
		Fields: currentSchemaResponse.Fields,
	}

	config, ok := collectionConfigs[collectionName]
	if !ok {
		return fmt.Errorf("unknown collection: %s", collectionName)
	}
	latestSchema := config.Schema

	newFields := compareSchemas(currentSchema, latestSchema)

	for _, field := range newFields {
		updateSchema := &api.CollectionUpdateSchema{
			Fields: []api.Field{field},
		}

		_, err := collection.Update(ctx, updateSchema)
		if err != nil {
			return fmt.Errorf("failed to add field %s: %w", field.Name, err)
		}
		logrus.Infof("Added new field %s to collection %s", field.Name, collectionName)
	}

	return nil
}

// compareSchemas compares the old schema with the new schema and returns any new fields that are present in the new schema but not in the old one.
func compareSchemas(oldSchema, newSchema *api.CollectionSchema) []api.Field {
	var newFields []api.Field
	oldFieldMap := make(map[string]bool)

	for _, field := range oldSchema.Fields {
		oldFieldMap[field.Name] = true
	}

	for _, field := range newSchema.Fields {
		if !oldFieldMap[field.Name] {
			newFields = append(newFields, field)
		}
	}

	return newFields
}

// getDefaultValue returns the default value for a given field type in Typesense.
func getDefaultValue(fieldType string) interface{} {
	switch fieldType {
	case "string":
		return ""
	case "int32", "int64":
		return int64(0)
	case "float":
		return float64(0)
	case "bool":
		return false
	case "string[]":
		return []string{}
	default:
		return nil
	}
}

// getCustomerSchema returns the schema for the "customers" collection.
func getCustomerSchema() *api.CollectionSchema {
	facet := true
	optional := true
	sortBy := "created_at"
	enableNested := true
	return &api.CollectionSchema{
		Name: CollectionCustomers,
		Fields: []api.Field{
			{Name: "customer_id", Type: "string", Facet: &facet},
			{Name: "name", Type: "string"},
			{Name: "phone", Type: "string"},
			{Name: "address", Type: "string"},
			{Name: "district", Type: "string", Facet: &facet},
			{Name: "cylinder_type", Type: "string", Facet: &facet},
			{Name: "is_active", Type: "bool", Facet: &facet},
			{Name: "created_at", Type: "int64"},
			{Name: "updated_at", Type: "int64", Optional: &optional},
			{Name: "meta_data", Type: "object", Optional: &optional},
		},
		DefaultSortingField: &sortBy,
		EnableNestedFields:  &enableNested,
	}
}

// getOrderSchema returns the schema for the "orders" collection.
func getOrderSchema() *api.CollectionSchema {
	facet := true
	optional := true
	sortBy := "created_at"
	enableNested := true
	return &api.CollectionSchema{
		Name: CollectionOrders,
		Fields: []api.Field{
			{Name: "order_id", Type: "string", Facet: &facet},
			{Name: "customer_id", Type: "string", Facet: &facet},
			{Name: "route_id", Type: "string", Facet: &facet, Optional: &optional},
			{Name: "status", Type: "string", Facet: &facet},
			{Name: "total", Type: "string", Optional: &optional},
			{Name: "scheduled_date", Type: "int64", Optional: &optional},
			{Name: "delivered_at", Type: "int64", Optional: &optional},
			{Name: "created_at", Type: "int64"},
			{Name: "updated_at", Type: "int64", Optional: &optional},
			{Name: "meta_data", Type: "object", Optional: &optional},
		},
		DefaultSortingField: &sortBy,
		EnableNestedFields:  &enableNested,
	}
}

// getRouteSchema returns the schema for the "routes" collection.
func getRouteSchema() *api.CollectionSchema {
	facet := true
	optional := true
	sortBy := "created_at"
	enableNested := true
	return &api.CollectionSchema{
		Name: CollectionRoutes,
		Fields: []api.Field{
			{Name: "route_id", Type: "string", Facet: &facet},
			{Name: "name", Type: "string"},
			{Name: "driver_id", Type: "string", Facet: &facet, Optional: &optional},
			{Name: "status", Type: "string", Facet: &facet},
			{Name: "date", Type: "int64"},
			{Name: "created_at", Type: "int64"},
			{Name: "updated_at", Type: "int64", Optional: &optional},
			{Name: "meta_data", Type: "object", Optional: &optional},
		},
		DefaultSortingField: &sortBy,
		EnableNestedFields:  &enableNested,
	}
}

// getDriverSchema returns the schema for the "drivers" collection.
func getDriverSchema() *api.CollectionSchema {
	facet := true
	optional := true
	sortBy := "created_at"
	enableNested := true
	return &api.CollectionSchema{
		Name: CollectionDrivers,
		Fields: []api.Field{
			{Name: "driver_id", Type: "string", Facet: &facet},
			{Name: "name", Type: "string"},
			{Name: "phone", Type: "string"},
			{Name: "vehicle", Type: "string", Optional: &optional},
			{Name: "is_available", Type: "bool", Facet: &facet},
			{Name: "last_seen_at", Type: "int64", Optional: &optional},
			{Name: "created_at", Type: "int64"},
			{Name: "meta_data", Type: "object", Optional: &optional},
		},
		DefaultSortingField: &sortBy,
		EnableNestedFields:  &enableNested,
	}
}

// getDeliverySchema returns the schema for the "deliveries" collection.
func getDeliverySchema() *api.CollectionSchema {
	facet := true
	optional := true
	sortBy := "created_at"
	enableNested := true
	return &api.CollectionSchema{
		Name: CollectionDeliveries,
		Fields: []api.Field{
			{Name: "delivery_id", Type: "string", Facet: &facet},
			{Name: "order_id", Type: "string", Facet: &facet},
			{Name: "route_id", Type: "string", Facet: &facet, Optional: &optional},
			{Name: "driver_id", Type: "string", Facet: &facet},
			{Name: "cylinders_delivered", Type: "int32"},
			{Name: "cylinders_collected", Type: "int32"},
			{Name: "completed_at", Type: "int64"},
			{Name: "created_at", Type: "int64"},
			{Name: "meta_data", Type: "object", Optional: &optional},
		},
		DefaultSortingField: &sortBy,
		EnableNestedFields:  &enableNested,
	}
}
