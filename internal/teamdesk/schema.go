package teamdesk

import (
	"context"

	"teamdesk/internal/soap"
)

// AppDescription is the application summary returned by DescribeApp.
type AppDescription struct {
	ID          int            `xml:"Id" json:"id" yaml:"id"`
	Name        string         `xml:"Name" json:"name" yaml:"name"`
	Description string         `xml:"Description" json:"description,omitempty" yaml:"description,omitempty"`
	Culture     string         `xml:"Culture" json:"culture,omitempty" yaml:"culture,omitempty"`
	TimeZone    string         `xml:"TimeZone" json:"time_zone,omitempty" yaml:"time_zone,omitempty"`
	Tables      []TableSummary `xml:"-" json:"tables" yaml:"tables"`
}

// TableSummary names one table of the application.
type TableSummary struct {
	ID           int    `xml:"Id" json:"id" yaml:"id"`
	RecordName   string `xml:"RecordName" json:"record_name" yaml:"record_name"`
	SingularName string `xml:"SingularName" json:"singular_name,omitempty" yaml:"singular_name,omitempty"`
	PluralName   string `xml:"PluralName" json:"plural_name,omitempty" yaml:"plural_name,omitempty"`
	Alias        string `xml:"Alias" json:"alias,omitempty" yaml:"alias,omitempty"`
}

// TableDescription is the table and column metadata returned by
// DescribeTable.
type TableDescription struct {
	TableSummary `yaml:",inline"`

	KeyColumn string              `xml:"Key" json:"key,omitempty" yaml:"key,omitempty"`
	Columns   []ColumnDescription `xml:"-" json:"columns" yaml:"columns"`
}

// ColumnDescription describes one column of a table.
type ColumnDescription struct {
	Name      string `xml:"Name" json:"name" yaml:"name"`
	Alias     string `xml:"Alias" json:"alias,omitempty" yaml:"alias,omitempty"`
	Type      string `xml:"Type" json:"type" yaml:"type"`
	Kind      string `xml:"Kind" json:"kind,omitempty" yaml:"kind,omitempty"`
	Required  bool   `xml:"Required" json:"required" yaml:"required"`
	Unique    bool   `xml:"Unique" json:"unique" yaml:"unique"`
	ReadOnly  bool   `xml:"ReadOnly" json:"read_only" yaml:"read_only"`
	Default   string `xml:"Default" json:"default,omitempty" yaml:"default,omitempty"`
	MaxLength int    `xml:"Length" json:"max_length,omitempty" yaml:"max_length,omitempty"`
}

// DescribeApp returns the application and its tables.
func (c *Client) DescribeApp(ctx context.Context) (*AppDescription, error) {
	result, err := c.call(ctx, "DescribeApp", nil)
	if err != nil {
		return nil, err
	}
	var app AppDescription
	if err := result.Decode(&app); err != nil {
		return nil, err
	}
	for _, node := range elements(result.Node().Child("Tables")) {
		var table TableSummary
		if err := decodeNode(result.Method(), node, &table); err != nil {
			return nil, err
		}
		app.Tables = append(app.Tables, table)
	}
	return &app, nil
}

// DescribeTable returns metadata for one table, named by its RecordName.
func (c *Client) DescribeTable(ctx context.Context, table string) (*TableDescription, error) {
	var params soap.Params
	params.Set("table", table)
	result, err := c.call(tableContext(ctx, table), "DescribeTable", params)
	if err != nil {
		return nil, err
	}
	if result.Kind() == ResultEmpty {
		return nil, invalidResponse(result.Method(), "empty result")
	}
	return decodeTable(result.Method(), result.Node())
}

// DescribeTables is the list form of DescribeTable.
func (c *Client) DescribeTables(ctx context.Context, tables []string) ([]TableDescription, error) {
	var params soap.Params
	params.Set("tables", tables)
	result, err := c.call(ctx, "DescribeTables", params)
	if err != nil {
		return nil, err
	}
	if result.Kind() == ResultEmpty {
		return nil, nil
	}
	out := make([]TableDescription, 0, len(result.Node().Children))
	for _, node := range result.Node().Children {
		desc, err := decodeTable(result.Method(), node)
		if err != nil {
			return nil, err
		}
		out = append(out, *desc)
	}
	return out, nil
}

func decodeTable(method string, node *soap.Node) (*TableDescription, error) {
	var desc TableDescription
	if err := decodeNode(method, node, &desc); err != nil {
		return nil, err
	}
	for _, columnNode := range elements(node.Child("Columns")) {
		var column ColumnDescription
		if err := decodeNode(method, columnNode, &column); err != nil {
			return nil, err
		}
		desc.Columns = append(desc.Columns, column)
	}
	return &desc, nil
}

func elements(node *soap.Node) []*soap.Node {
	if node == nil {
		return nil
	}
	return node.Children
}

func decodeNode(method string, node *soap.Node, v any) error {
	if err := node.Decode(v); err != nil {
		return invalidResponse(method, "%v", err)
	}
	return nil
}
