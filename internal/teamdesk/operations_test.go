package teamdesk_test

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"teamdesk/internal/teamdesk"
	"teamdesk/internal/testsupport"
)

func TestCreateReturnsIDs(t *testing.T) {
	fake := testsupport.NewFakeServer(t)
	fake.Handle("Create", testsupport.ResultReply("Create", "<int>12</int><int>13</int>"))
	client := newClient(t, fake)

	ids, err := client.Create(context.Background(), "Website", "<Data><r><Name>Example</Name></r></Data>")
	require.NoError(t, err)
	require.Equal(t, []int{12, 13}, ids)

	call, _ := fake.LastCall("Create")
	table, _ := call.Param("table")
	data, _ := call.Param("data")
	require.Equal(t, "Website", table)
	require.Equal(t, "<Data><r><Name>Example</Name></r></Data>", data)
}

func TestCreateRejectsNonIntegerIDs(t *testing.T) {
	fake := testsupport.NewFakeServer(t)
	fake.Handle("Create", testsupport.ResultReply("Create", "<int>twelve</int>"))
	client := newClient(t, fake)

	_, err := client.Create(context.Background(), "Website", "<Data/>")
	require.ErrorIs(t, err, teamdesk.ErrInvalidResponse)
}

func TestDeleteSendsIDList(t *testing.T) {
	fake := testsupport.NewFakeServer(t)
	client := newClient(t, fake)

	require.NoError(t, client.Delete(context.Background(), "Website", []int{3, 5, 8}))
	call, _ := fake.LastCall("Delete")
	require.Equal(t, []string{"3", "5", "8"}, call.Items("ids"))
}

func TestGetDeletedAndUpdatedFormatTimes(t *testing.T) {
	fake := testsupport.NewFakeServer(t)
	fake.Handle("GetDeleted", testsupport.ResultReply("GetDeleted", "<int>1</int>"))
	fake.Handle("GetUpdated", testsupport.ResultReply("GetUpdated", "<int>2</int><int>3</int>"))
	client := newClient(t, fake)

	start := time.Date(2011, 6, 20, 0, 0, 0, 0, time.UTC)
	end := time.Date(2011, 6, 21, 8, 30, 0, 0, time.FixedZone("CEST", 2*60*60))

	deleted, err := client.GetDeleted(context.Background(), "Website", start, end)
	require.NoError(t, err)
	require.Equal(t, []int{1}, deleted)

	updated, err := client.GetUpdated(context.Background(), "Website", start, end)
	require.NoError(t, err)
	require.Equal(t, []int{2, 3}, updated)

	for _, op := range []string{"GetDeleted", "GetUpdated"} {
		call, _ := fake.LastCall(op)
		startTime, _ := call.Param("startTime")
		endTime, _ := call.Param("endTime")
		require.Equal(t, "2011-06-20T00:00:00Z", startTime)
		require.Equal(t, "2011-06-21T08:30:00+02:00", endTime)
	}
}

func TestQueryWithoutPayloadReturnsNil(t *testing.T) {
	cases := map[string]testsupport.Reply{
		"empty response": testsupport.EmptyReply("Query"),
		"empty result":   testsupport.ResultReply("Query", ""),
		"unparsable":     testsupport.ResultReply("Query", "<any>&lt;Data&gt;&lt;r&gt;</any>"),
		"no data":        testsupport.ResultReply("Query", "<Root><Other/></Root>"),
	}
	for name, reply := range cases {
		t.Run(name, func(t *testing.T) {
			fake := testsupport.NewFakeServer(t)
			fake.Handle("Query", reply)
			client := newClient(t, fake)

			data, err := client.Query(context.Background(), "SELECT * FROM [Website]")
			require.NoError(t, err)
			require.Nil(t, data)

			call, _ := fake.LastCall("Query")
			query, _ := call.Param("query")
			require.Equal(t, "SELECT * FROM [Website]", query)
		})
	}
}

func TestQueryParsesInlinePayload(t *testing.T) {
	fake := testsupport.NewFakeServer(t)
	fake.Handle("Query", testsupport.ResultReply("Query",
		`<Root><Data><r><Name>Example</Name><Due_x0020_Date>2024-01-02</Due_x0020_Date></r><r><Name>Other</Name><URL>https://example.com</URL></r></Data></Root>`))
	client := newClient(t, fake)

	data, err := client.Query(context.Background(), "SELECT * FROM [Website]")
	require.NoError(t, err)
	require.NotNil(t, data)
	require.Len(t, data.Rows, 2)
	require.Equal(t, []teamdesk.Field{{Name: "Name", Value: "Example"}, {Name: "Due Date", Value: "2024-01-02"}}, data.Rows[0].Fields)
	url, ok := data.Rows[1].Get("URL")
	require.True(t, ok)
	require.Equal(t, "https://example.com", url)
	require.Equal(t, []string{"Name", "Due Date", "URL"}, data.Columns())
}

func TestRetrieveParsesEscapedPayload(t *testing.T) {
	fake := testsupport.NewFakeServer(t)
	fake.Handle("Retrieve", testsupport.ResultReply("Retrieve",
		`<any>&lt;Root&gt;&lt;Data&gt;&lt;r&gt;&lt;Name&gt;Example&lt;/Name&gt;&lt;/r&gt;&lt;/Data&gt;&lt;/Root&gt;</any>`))
	client := newClient(t, fake)

	data, err := client.Retrieve(context.Background(), "Website", []string{"Name", "URL"}, []int{1, 2})
	require.NoError(t, err)
	require.NotNil(t, data)
	require.Len(t, data.Rows, 1)
	name, _ := data.Rows[0].Get("Name")
	require.Equal(t, "Example", name)

	call, _ := fake.LastCall("Retrieve")
	require.Equal(t, []string{"Name", "URL"}, call.Items("columns"))
	require.Equal(t, []string{"1", "2"}, call.Items("ids"))
}

func TestUpdateAndUpsertParameters(t *testing.T) {
	fake := testsupport.NewFakeServer(t)
	fake.Handle("Upsert", testsupport.ResultReply("Upsert", "<int>4</int>"))
	client := newClient(t, fake)

	_, err := client.Update(context.Background(), "Website", "<Data/>")
	require.NoError(t, err)
	ids, err := client.Upsert(context.Background(), "Website", "<Data/>", "URL")
	require.NoError(t, err)
	require.Equal(t, []int{4}, ids)

	update, _ := fake.LastCall("Update")
	xmlText, _ := update.Param("xml")
	require.Equal(t, "<Data/>", xmlText)

	upsert, _ := fake.LastCall("Upsert")
	match, _ := upsert.Param("matchColumn")
	require.Equal(t, "URL", match)
}

func TestDescribeTableDecodesColumns(t *testing.T) {
	fake := testsupport.NewFakeServer(t)
	fake.Handle("DescribeTable", testsupport.ResultReply("DescribeTable", `
		<Id>5</Id><RecordName>Website</RecordName><SingularName>Website</SingularName><PluralName>Websites</PluralName><Key>Id</Key>
		<Columns>
			<ColumnInfo><Name>Name</Name><Type>Text</Type><Required>true</Required><Unique>true</Unique><Length>100</Length></ColumnInfo>
			<ColumnInfo><Name>URL</Name><Type>URL</Type><ReadOnly>false</ReadOnly></ColumnInfo>
		</Columns>`))
	client := newClient(t, fake)

	desc, err := client.DescribeTable(context.Background(), "Website")
	require.NoError(t, err)
	require.Equal(t, 5, desc.ID)
	require.Equal(t, "Websites", desc.PluralName)
	require.Equal(t, "Id", desc.KeyColumn)
	require.Len(t, desc.Columns, 2)
	require.Equal(t, teamdesk.ColumnDescription{Name: "Name", Type: "Text", Required: true, Unique: true, MaxLength: 100}, desc.Columns[0])
	require.Equal(t, "URL", desc.Columns[1].Name)
}

func TestDescribeTablesAndApp(t *testing.T) {
	fake := testsupport.NewFakeServer(t)
	fake.Handle("DescribeTables", testsupport.ResultReply("DescribeTables",
		`<TableDescription><RecordName>Website</RecordName></TableDescription><TableDescription><RecordName>People</RecordName><Columns/></TableDescription>`))
	fake.Handle("DescribeApp", testsupport.ResultReply("DescribeApp",
		`<Id>9</Id><Name>CRM</Name><Tables><TableInfo><Id>1</Id><RecordName>Website</RecordName></TableInfo><TableInfo><Id>2</Id><RecordName>People</RecordName></TableInfo></Tables>`))
	client := newClient(t, fake)

	tables, err := client.DescribeTables(context.Background(), []string{"Website", "People"})
	require.NoError(t, err)
	require.Len(t, tables, 2)
	require.Equal(t, "People", tables[1].RecordName)
	call, _ := fake.LastCall("DescribeTables")
	require.Equal(t, []string{"Website", "People"}, call.Items("tables"))

	app, err := client.DescribeApp(context.Background())
	require.NoError(t, err)
	require.Equal(t, 9, app.ID)
	require.Equal(t, []teamdesk.TableSummary{{ID: 1, RecordName: "Website"}, {ID: 2, RecordName: "People"}}, app.Tables)
}

func TestAttachments(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("hello attachment"))
	fake := testsupport.NewFakeServer(t)
	fake.Handle("GetAttachment", testsupport.ResultReply("GetAttachment",
		"<FileName>hello.txt</FileName><MimeType>text/plain</MimeType><Revision>2</Revision><Data>"+payload+"</Data>"))
	fake.Handle("GetAttachmentInfo", testsupport.ResultReply("GetAttachmentInfo",
		`<AttachmentInfo><Revision>2</Revision><Name>hello.txt</Name><Size>16</Size><Created>2024-02-01T10:00:00</Created></AttachmentInfo>`))
	client := newClient(t, fake)
	ctx := context.Background()

	att, err := client.GetAttachment(ctx, "Invoice", "Tender", 2, teamdesk.CurrentRevision)
	require.NoError(t, err)
	require.Equal(t, "hello.txt", att.FileName)
	require.Equal(t, "text/plain", att.MimeType)
	require.Equal(t, []byte("hello attachment"), att.Data)
	get, _ := fake.LastCall("GetAttachment")
	revision, _ := get.Param("revision")
	require.Equal(t, "0", revision)

	infos, err := client.GetAttachmentInfo(ctx, "Invoice", "Tender", 2, 10)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	require.Equal(t, "hello.txt", infos[0].FileName)
	require.Equal(t, int64(16), infos[0].Size)
	created, ok := infos[0].CreatedAt()
	require.True(t, ok)
	require.Equal(t, 2024, created.Year())
	info, _ := fake.LastCall("GetAttachmentInfo")
	revisions, _ := info.Param("revisions")
	require.Equal(t, "10", revisions)

	require.NoError(t, client.SetAttachment(ctx, "Invoice", "Tender", 2, "hello.txt", "text/plain", payload))
	set, _ := fake.LastCall("SetAttachment")
	for name, want := range map[string]string{
		"table": "Invoice", "column": "Tender", "id": "2",
		"fileName": "hello.txt", "mimeType": "text/plain", "data": payload,
	} {
		got, ok := set.Param(name)
		require.True(t, ok, name)
		require.Equal(t, want, got, name)
	}
}

func TestGetAttachmentRejectsBadBase64(t *testing.T) {
	fake := testsupport.NewFakeServer(t)
	fake.Handle("GetAttachment", testsupport.ResultReply("GetAttachment", "<FileName>x</FileName><Data>!!!</Data>"))
	client := newClient(t, fake)

	_, err := client.GetAttachment(context.Background(), "Invoice", "Tender", 1, 0)
	require.ErrorIs(t, err, teamdesk.ErrInvalidResponse)
}

func TestGetUserInfo(t *testing.T) {
	fake := testsupport.NewFakeServer(t)
	fake.Handle("GetUserInfo", testsupport.ResultReply("GetUserInfo",
		"<Id>42</Id><Email>tester@example.com</Email><FirstName>Test</FirstName><LastName>User</LastName>"))
	client := newClient(t, fake)

	info, err := client.GetUserInfo(context.Background())
	require.NoError(t, err)
	require.Equal(t, &teamdesk.UserInfo{ID: 42, Email: "tester@example.com", FirstName: "Test", LastName: "User"}, info)
}

func TestSendMailOmitsMissingCopies(t *testing.T) {
	fake := testsupport.NewFakeServer(t)
	client := newClient(t, fake)
	ctx := context.Background()

	mail := teamdesk.Mail{From: "from@example.com", To: "to@example.com", Subject: "subject", Format: "text", Body: "body"}
	require.NoError(t, client.SendMail(ctx, mail))

	call, _ := fake.LastCall("SendMail")
	require.Nil(t, call.Request.Child("cc"))
	require.Nil(t, call.Request.Child("bcc"))
	subject, _ := call.Param("subject")
	require.Equal(t, "subject", subject)
	names := make([]string, 0, len(call.Request.Children))
	for _, child := range call.Request.Children {
		names = append(names, child.Name())
	}
	require.Equal(t, []string{"from", "to", "subject", "format", "body"}, names)

	mail.CC = "cc@example.com"
	mail.BCC = "bcc@example.com"
	require.NoError(t, client.SendMail(ctx, mail))
	call, _ = fake.LastCall("SendMail")
	cc, ok := call.Param("cc")
	require.True(t, ok)
	require.Equal(t, "cc@example.com", cc)
	bcc, ok := call.Param("bcc")
	require.True(t, ok)
	require.Equal(t, "bcc@example.com", bcc)
}
