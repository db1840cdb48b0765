package surreal

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/surrealdb/surrealdb.go"
)

type Client struct {
	db *surrealdb.DB
}

// identifierRegex ensures that table names and fields only contain alphanumeric characters and underscores
var identifierRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

func validateIdentifier(s string) error {
	if !identifierRegex.MatchString(s) {
		return fmt.Errorf("invalid identifier: %s", s)
	}
	return nil
}

func NewClient(host, user, pass, namespace, database string) (*Client, error) {
	db, err := surrealdb.New(host)
	if err != nil {
		return nil, fmt.Errorf("failed to create surrealdb client: %w", err)
	}

	if _, err = db.SignIn(context.Background(), map[string]interface{}{
		"user": user,
		"pass": pass,
	}); err != nil {
		return nil, fmt.Errorf("failed to signin to surrealdb: %w", err)
	}

	if err = db.Use(context.Background(), namespace, database); err != nil {
		return nil, fmt.Errorf("failed to use surrealdb namespace/database: %w", err)
	}

	return &Client{db: db}, nil
}

// NormalizeHost turns a bare host into a websocket RPC endpoint.
func NormalizeHost(host string) string {
	if host == "" || strings.HasPrefix(host, "ws://") || strings.HasPrefix(host, "wss://") {
		return host
	}
	return "wss://" + host + "/rpc"
}

func (c *Client) Close() {
	c.db.Close(context.Background())
}

// Query runs a SurrealQL statement and returns the result of the last statement.
func (c *Client) Query(sql string, vars map[string]interface{}) (interface{}, error) {
	if vars == nil {
		vars = map[string]interface{}{}
	}
	result, err := surrealdb.Query[interface{}](context.Background(), c.db, sql, vars)
	if err != nil {
		return nil, err
	}

	// Unwrap the result: *RawQueryResponse -> Result field
	rv := reflect.ValueOf(result)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}

	if rv.Kind() == reflect.Struct {
		resField := rv.FieldByName("Result")
		if resField.IsValid() {
			return resField.Interface(), nil
		}
	} else if rv.Kind() == reflect.Slice {
		// Return the result of the last query (or the only one)
		if rv.Len() > 0 {
			lastElem := rv.Index(rv.Len() - 1)
			if lastElem.Kind() == reflect.Struct {
				resField := lastElem.FieldByName("Result")
				if resField.IsValid() {
					return resField.Interface(), nil
				}
			}
		}
	}

	return result, nil
}

func (c *Client) Create(thing string, data interface{}) (interface{}, error) {
	result, err := surrealdb.Create[interface{}](context.Background(), c.db, thing, data)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SelectRecord returns the record table:id, or nil when it does not exist.
func (c *Client) SelectRecord(table, id string) (interface{}, error) {
	if err := validateIdentifier(table); err != nil {
		return nil, err
	}
	result, err := c.Query(`SELECT * FROM type::thing($table, $id);`, map[string]interface{}{
		"table": table,
		"id":    id,
	})
	if err != nil {
		return nil, err
	}

	rows, ok := result.([]interface{})
	if !ok || len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// UpsertRecord replaces the content of table:id, creating it if needed.
func (c *Client) UpsertRecord(table, id string, content interface{}) error {
	if err := validateIdentifier(table); err != nil {
		return err
	}
	_, err := c.Query(`UPSERT type::thing($table, $id) CONTENT $content;`, map[string]interface{}{
		"table":   table,
		"id":      id,
		"content": content,
	})
	return err
}

// DeleteRecord removes table:id. Deleting a missing record is not an error.
func (c *Client) DeleteRecord(table, id string) error {
	if err := validateIdentifier(table); err != nil {
		return err
	}
	_, err := c.Query(`DELETE type::thing($table, $id);`, map[string]interface{}{
		"table": table,
		"id":    id,
	})
	return err
}

// DeleteWhere removes every row of table matching all filter fields.
func (c *Client) DeleteWhere(table string, filter map[string]interface{}) error {
	if len(filter) == 0 {
		return fmt.Errorf("refusing to delete from %s without a filter", table)
	}
	sql, err := buildDelete(table, filter)
	if err != nil {
		return err
	}
	_, err = c.Query(sql, filter)
	return err
}

// SelectWhere returns rows of table matching every filter field, ordered by
// orderBy descending when set. A non-positive limit returns all rows.
func (c *Client) SelectWhere(table string, filter map[string]interface{}, orderBy string, limit int) ([]interface{}, error) {
	sql, err := buildSelect(table, filter, orderBy, limit)
	if err != nil {
		return nil, err
	}

	vars := make(map[string]interface{}, len(filter))
	for k, v := range filter {
		vars[k] = v
	}

	result, err := c.Query(sql, vars)
	if err != nil {
		return nil, err
	}

	rows, ok := result.([]interface{})
	if !ok {
		if result == nil {
			return []interface{}{}, nil
		}
		return nil, fmt.Errorf("unexpected result type: %T", result)
	}
	return rows, nil
}

func buildSelect(table string, filter map[string]interface{}, orderBy string, limit int) (string, error) {
	// Validate inputs to prevent SQL injection
	if err := validateIdentifier(table); err != nil {
		return "", err
	}
	whereClause, err := buildWhereClause(filter)
	if err != nil {
		return "", err
	}

	sql := fmt.Sprintf("SELECT * FROM %s WHERE %s", table, whereClause)
	if orderBy != "" {
		if err := validateIdentifier(orderBy); err != nil {
			return "", err
		}
		sql += fmt.Sprintf(" ORDER BY %s DESC", orderBy)
	}
	if limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", limit)
	}
	return sql + ";", nil
}

func buildDelete(table string, filter map[string]interface{}) (string, error) {
	if err := validateIdentifier(table); err != nil {
		return "", err
	}
	whereClause, err := buildWhereClause(filter)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("DELETE %s WHERE %s;", table, whereClause), nil
}

func buildWhereClause(filter map[string]interface{}) (string, error) {
	if len(filter) == 0 {
		return "true", nil
	}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		// Validate filter keys
		if err := validateIdentifier(k); err != nil {
			return "", err
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s = $%s", k, k)
	}
	return strings.Join(parts, " AND "), nil
}
