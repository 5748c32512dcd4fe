package board

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/boardimport/internal/core"
	"github.com/JonMunkholm/boardimport/internal/graphql"
)

type stubDoer struct {
	query string
	vars  map[string]any
	resp  *graphql.Response
	err   error
}

func (s *stubDoer) Do(_ context.Context, query string, vars map[string]any) (*graphql.Response, error) {
	s.query = query
	s.vars = vars
	return s.resp, s.err
}

func columnValues(t *testing.T, vars map[string]any) map[string]string {
	t.Helper()
	raw, ok := vars["columnValues"].(string)
	require.True(t, ok, "columnValues must be a JSON string")
	var out map[string]string
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

func TestVariables(t *testing.T) {
	tests := []struct {
		name       string
		cols       Columns
		rec        core.UserRecord
		wantName   string
		wantValues map[string]string
		wantGroup  any
	}{
		{
			name:       "name and name column",
			cols:       Columns{BoardID: "42", IDColumn: "text_id", NameColumn: "text_name", GroupID: "topics"},
			rec:        core.UserRecord{ID: "1001", Name: "דנה לוי"},
			wantName:   "דנה לוי",
			wantValues: map[string]string{"text_id": "1001", "text_name": "דנה לוי"},
			wantGroup:  "topics",
		},
		{
			name:       "no name falls back to id",
			cols:       Columns{BoardID: "42", IDColumn: "text_id", NameColumn: "text_name"},
			rec:        core.UserRecord{ID: "1002"},
			wantName:   "1002",
			wantValues: map[string]string{"text_id": "1002"},
			wantGroup:  nil,
		},
		{
			name:       "name without name column",
			cols:       Columns{BoardID: "42", IDColumn: "text_id"},
			rec:        core.UserRecord{ID: "1003", Name: "Eli"},
			wantName:   "Eli",
			wantValues: map[string]string{"text_id": "1003"},
			wantGroup:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vars, err := Variables(tt.cols, tt.rec)
			require.NoError(t, err)

			assert.Equal(t, "42", vars["boardId"])
			assert.Equal(t, tt.wantName, vars["itemName"])
			assert.Equal(t, tt.wantValues, columnValues(t, vars))
			assert.Equal(t, tt.wantGroup, vars["groupId"])
		})
	}
}

func TestGroupIDEncodesAsNull(t *testing.T) {
	vars, err := Variables(Columns{BoardID: "1", IDColumn: "c"}, core.UserRecord{ID: "x"})
	require.NoError(t, err)

	raw, err := json.Marshal(vars)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"groupId":null`)
}

func TestCreateItemDelegates(t *testing.T) {
	stub := &stubDoer{resp: &graphql.Response{Data: json.RawMessage(`{"create_item":{"id":"77"}}`)}}
	c := NewCreator(stub, Columns{BoardID: "42", IDColumn: "text_id"})

	resp, err := c.CreateItem(context.Background(), core.UserRecord{ID: "1001"})
	require.NoError(t, err)
	assert.Equal(t, CreateItemMutation, stub.query)
	assert.Equal(t, "1001", stub.vars["itemName"])

	id, err := ItemID(resp)
	require.NoError(t, err)
	assert.Equal(t, "77", id)
}

func TestCreateItemPropagatesError(t *testing.T) {
	failed := &core.RequestFailed{Attempts: 8, Cause: errors.New("HTTP 500")}
	c := NewCreator(&stubDoer{err: failed}, Columns{BoardID: "42", IDColumn: "text_id"})

	_, err := c.CreateItem(context.Background(), core.UserRecord{ID: "1"})
	assert.Same(t, failed, err)
}

func TestItemID(t *testing.T) {
	tests := []struct {
		name    string
		resp    *graphql.Response
		want    string
		wantErr bool
	}{
		{"ok", &graphql.Response{Data: json.RawMessage(`{"create_item":{"id":"5"}}`)}, "5", false},
		{"nil response", nil, "", true},
		{"missing id", &graphql.Response{Data: json.RawMessage(`{"create_item":{}}`)}, "", true},
		{"bad json", &graphql.Response{Data: json.RawMessage(`[`)}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ItemID(tt.resp)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
