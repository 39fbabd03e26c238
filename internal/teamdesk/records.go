package teamdesk

import (
	"context"
	"time"

	"teamdesk/internal/services"
	"teamdesk/internal/soap"
)

// Create inserts the records described by data, an XML document of rows, and
// returns the new record ids.
func (c *Client) Create(ctx context.Context, table, data string) ([]int, error) {
	var params soap.Params
	params.Set("table", table)
	params.Set("data", data)
	return c.callInts(tableContext(ctx, table), "Create", params)
}

// Delete removes the records with the given ids.
func (c *Client) Delete(ctx context.Context, table string, ids []int) error {
	var params soap.Params
	params.Set("table", table)
	params.Set("ids", ids)
	_, err := c.call(tableContext(ctx, table), "Delete", params)
	return err
}

// GetDeleted lists ids of records deleted from table between start and end.
func (c *Client) GetDeleted(ctx context.Context, table string, start, end time.Time) ([]int, error) {
	return c.callInts(tableContext(ctx, table), "GetDeleted", timespan(table, start, end))
}

// GetUpdated lists ids of records added or changed in table between start and
// end.
func (c *Client) GetUpdated(ctx context.Context, table string, start, end time.Time) ([]int, error) {
	return c.callInts(tableContext(ctx, table), "GetUpdated", timespan(table, start, end))
}

// Query runs a statement of the form
//
//	SELECT [TOP n] <columns> | * FROM <table> [WHERE <condition>] [ORDER BY <columns>]
//
// and returns the matching rows. A result without a readable payload yields
// nil data and no error.
func (c *Client) Query(ctx context.Context, query string) (*Data, error) {
	var params soap.Params
	params.Set("query", query)
	result, err := c.call(ctx, "Query", params)
	if err != nil {
		return nil, err
	}
	return lenientPayload(result)
}

// Retrieve fetches columns of the records with the given ids. A result
// without a readable payload yields nil data and no error.
func (c *Client) Retrieve(ctx context.Context, table string, columns []string, ids []int) (*Data, error) {
	var params soap.Params
	params.Set("table", table)
	params.Set("columns", columns)
	params.Set("ids", ids)
	result, err := c.call(tableContext(ctx, table), "Retrieve", params)
	if err != nil {
		return nil, err
	}
	return lenientPayload(result)
}

// Update changes existing records described by xml.
func (c *Client) Update(ctx context.Context, table, xml string) ([]int, error) {
	var params soap.Params
	params.Set("table", table)
	params.Set("xml", xml)
	return c.callInts(tableContext(ctx, table), "Update", params)
}

// Upsert creates or updates records, matching existing ones on matchColumn.
func (c *Client) Upsert(ctx context.Context, table, xml, matchColumn string) ([]int, error) {
	var params soap.Params
	params.Set("table", table)
	params.Set("xml", xml)
	params.Set("matchColumn", matchColumn)
	return c.callInts(tableContext(ctx, table), "Upsert", params)
}

func (c *Client) callInts(ctx context.Context, method string, params soap.Params) ([]int, error) {
	result, err := c.call(ctx, method, params)
	if err != nil {
		return nil, err
	}
	return result.Ints()
}

func timespan(table string, start, end time.Time) soap.Params {
	var params soap.Params
	params.Set("table", table)
	params.Set("startTime", start)
	params.Set("endTime", end)
	return params
}

func tableContext(ctx context.Context, table string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return services.WithTable(ctx, table)
}
