package response

import "github.com/oreo-io/delta-sharing-server/internal/sharing/model"

// Share is the listing/get JSON shape for a share, per original_source's
// src/response/mod.rs.
type Share struct {
	Name string `json:"name"`
	ID   string `json:"id,omitempty"`
}

type ListSharesResponse struct {
	Items         []Share `json:"items"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
}

type GetShareResponse struct {
	Share Share `json:"share"`
}

// Schema is the listing JSON shape for a schema. The share field is
// literally named "share", not "shareName".
type Schema struct {
	Name  string `json:"name"`
	Share string `json:"share"`
}

type ListSchemasResponse struct {
	Items         []Schema `json:"items"`
	NextPageToken string   `json:"nextPageToken,omitempty"`
}

// Table is the listing JSON shape for a table reference.
type Table struct {
	Name    string `json:"name"`
	Schema  string `json:"schema"`
	Share   string `json:"share"`
	ShareID string `json:"shareId,omitempty"`
	ID      string `json:"id,omitempty"`
}

type ListTablesResponse struct {
	Items         []Table `json:"items"`
	NextPageToken string  `json:"nextPageToken,omitempty"`
}

func ShareFromModel(s model.Share) Share {
	return Share{Name: s.Name, ID: s.ID}
}

func SchemaFromModel(s model.Schema) Schema {
	return Schema{Name: s.Name, Share: s.ShareName}
}

func TableFromModel(t model.Table) Table {
	return Table{Name: t.Name, Schema: t.SchemaName, Share: t.ShareName, ShareID: t.ShareID, ID: t.ID}
}

func SharesPage(page model.Page[model.Share]) ListSharesResponse {
	items := make([]Share, len(page.Items))
	for i, s := range page.Items {
		items[i] = ShareFromModel(s)
	}
	return ListSharesResponse{Items: items, NextPageToken: page.NextPageToken}
}

func SchemasPage(page model.Page[model.Schema]) ListSchemasResponse {
	items := make([]Schema, len(page.Items))
	for i, s := range page.Items {
		items[i] = SchemaFromModel(s)
	}
	return ListSchemasResponse{Items: items, NextPageToken: page.NextPageToken}
}

func TablesPage(page model.Page[model.Table]) ListTablesResponse {
	items := make([]Table, len(page.Items))
	for i, t := range page.Items {
		items[i] = TableFromModel(t)
	}
	return ListTablesResponse{Items: items, NextPageToken: page.NextPageToken}
}
