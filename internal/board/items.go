// Package board maps user records onto board item mutations.
package board

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/JonMunkholm/boardimport/internal/core"
	"github.com/JonMunkholm/boardimport/internal/graphql"
)

// CreateItemMutation creates one item with column values.
const CreateItemMutation = `
mutation($boardId: ID!, $itemName: String!, $columnValues: JSON!, $groupId: String) {
  create_item(board_id: $boardId, item_name: $itemName, column_values: $columnValues, group_id: $groupId) { id }
}
`

// Doer sends one GraphQL operation. *graphql.Client satisfies it.
type Doer interface {
	Do(ctx context.Context, query string, variables map[string]any) (*graphql.Response, error)
}

// Columns maps record fields onto board columns.
type Columns struct {
	BoardID  string
	IDColumn string
	// NameColumn and GroupID are optional.
	NameColumn string
	GroupID    string
}

// Creator creates one board item per user record.
type Creator struct {
	client Doer
	cols   Columns
}

// NewCreator returns a Creator writing to the board described by cols.
func NewCreator(client Doer, cols Columns) *Creator {
	return &Creator{client: client, cols: cols}
}

// CreateItem sends the create_item mutation for rec. Client errors are
// returned unchanged.
func (c *Creator) CreateItem(ctx context.Context, rec core.UserRecord) (*graphql.Response, error) {
	vars, err := Variables(c.cols, rec)
	if err != nil {
		return nil, err
	}
	return c.client.Do(ctx, CreateItemMutation, vars)
}

// Variables builds the mutation variables for rec. The item is named after
// the user, falling back to the id. The name column is only written when
// both the column and a name exist.
func Variables(cols Columns, rec core.UserRecord) (map[string]any, error) {
	values := map[string]string{cols.IDColumn: rec.ID}
	if cols.NameColumn != "" && rec.HasName() {
		values[cols.NameColumn] = rec.Name
	}

	encoded, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("encode column values: %w", err)
	}

	var group any
	if cols.GroupID != "" {
		group = cols.GroupID
	}

	return map[string]any{
		"boardId":      cols.BoardID,
		"itemName":     rec.DisplayName(),
		"columnValues": string(encoded),
		"groupId":      group,
	}, nil
}

type createItemData struct {
	CreateItem struct {
		ID string `json:"id"`
	} `json:"create_item"`
}

// ItemID extracts data.create_item.id from a create_item response.
func ItemID(resp *graphql.Response) (string, error) {
	if resp == nil || len(resp.Data) == 0 {
		return "", fmt.Errorf("empty create_item response")
	}
	var d createItemData
	if err := json.Unmarshal(resp.Data, &d); err != nil {
		return "", fmt.Errorf("decode create_item: %w", err)
	}
	if d.CreateItem.ID == "" {
		return "", fmt.Errorf("create_item returned no id")
	}
	return d.CreateItem.ID, nil
}
