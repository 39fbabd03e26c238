package teamdesk

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"teamdesk/internal/soap"
)

// CurrentRevision selects the latest revision of an attachment.
const CurrentRevision = 0

// Attachment is a file stored in an attachment column.
type Attachment struct {
	FileName string `json:"file_name" yaml:"file_name"`
	MimeType string `json:"mime_type" yaml:"mime_type"`
	Revision int    `json:"revision" yaml:"revision"`
	Data     []byte `json:"-" yaml:"-"`
}

// AttachmentInfo describes one stored revision of an attachment.
type AttachmentInfo struct {
	Revision int    `xml:"Revision" json:"revision" yaml:"revision"`
	FileName string `xml:"FileName" json:"file_name" yaml:"file_name"`
	Name     string `xml:"Name" json:"-" yaml:"-"`
	MimeType string `xml:"MimeType" json:"mime_type" yaml:"mime_type"`
	Size     int64  `xml:"Size" json:"size" yaml:"size"`
	Created  string `xml:"Created" json:"created,omitempty" yaml:"created,omitempty"`
	Author   string `xml:"Author" json:"author,omitempty" yaml:"author,omitempty"`
}

// CreatedAt parses Created, which the service sends with or without a zone.
func (i AttachmentInfo) CreatedAt() (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, strings.TrimSpace(i.Created)); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

type attachmentData struct {
	FileName string `xml:"FileName"`
	Name     string `xml:"Name"`
	MimeType string `xml:"MimeType"`
	Revision int    `xml:"Revision"`
	Data     string `xml:"Data"`
}

// GetAttachment fetches file data of the given revision; pass CurrentRevision
// for the latest.
func (c *Client) GetAttachment(ctx context.Context, table, column string, id, revision int) (*Attachment, error) {
	params := attachmentParams(table, column, id)
	params.Set("revision", revision)
	result, err := c.call(tableContext(ctx, table), "GetAttachment", params)
	if err != nil {
		return nil, err
	}
	var raw attachmentData
	if err := result.Decode(&raw); err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(stripSpace(raw.Data))
	if err != nil {
		return nil, invalidResponse(result.Method(), "attachment data is not base64: %v", err)
	}
	return &Attachment{
		FileName: firstNonEmpty(raw.FileName, raw.Name),
		MimeType: raw.MimeType,
		Revision: raw.Revision,
		Data:     data,
	}, nil
}

// GetAttachmentInfo lists stored revisions of an attachment. revisions is
// passed through to the service unchanged.
func (c *Client) GetAttachmentInfo(ctx context.Context, table, column string, id, revisions int) ([]AttachmentInfo, error) {
	params := attachmentParams(table, column, id)
	params.Set("revisions", revisions)
	result, err := c.call(tableContext(ctx, table), "GetAttachmentInfo", params)
	if err != nil {
		return nil, err
	}
	if result.Kind() == ResultEmpty {
		return nil, nil
	}
	var out []AttachmentInfo
	for _, node := range result.Node().Children {
		var info AttachmentInfo
		if err := decodeNode(result.Method(), node, &info); err != nil {
			return nil, err
		}
		info.FileName = firstNonEmpty(info.FileName, info.Name)
		out = append(out, info)
	}
	return out, nil
}

// SetAttachment stores a file in an attachment column. data must already be
// base64 encoded.
func (c *Client) SetAttachment(ctx context.Context, table, column string, id int, fileName, mimeType, data string) error {
	params := attachmentParams(table, column, id)
	params.Set("fileName", fileName)
	params.Set("mimeType", mimeType)
	params.Set("data", data)
	_, err := c.call(tableContext(ctx, table), "SetAttachment", params)
	return err
}

func attachmentParams(table, column string, id int) soap.Params {
	var params soap.Params
	params.Set("table", table)
	params.Set("column", column)
	params.Set("id", id)
	return params
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
