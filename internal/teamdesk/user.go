package teamdesk

import (
	"context"

	"teamdesk/internal/soap"
)

// UserInfo describes the user the session belongs to.
type UserInfo struct {
	ID        int    `xml:"Id" json:"id" yaml:"id"`
	Email     string `xml:"Email" json:"email" yaml:"email"`
	FirstName string `xml:"FirstName" json:"first_name" yaml:"first_name"`
	LastName  string `xml:"LastName" json:"last_name" yaml:"last_name"`
	Culture   string `xml:"Culture" json:"culture,omitempty" yaml:"culture,omitempty"`
	TimeZone  string `xml:"TimeZone" json:"time_zone,omitempty" yaml:"time_zone,omitempty"`
}

// GetUserInfo returns the logged-in user.
func (c *Client) GetUserInfo(ctx context.Context) (*UserInfo, error) {
	result, err := c.call(ctx, "GetUserInfo", nil)
	if err != nil {
		return nil, err
	}
	var info UserInfo
	if err := result.Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Mail is a message sent through the service. Empty CC and BCC are left out
// of the request.
type Mail struct {
	From    string
	To      string
	CC      string
	BCC     string
	Subject string
	Format  string
	Body    string
}

// SendMail sends a message through the service's mail relay.
func (c *Client) SendMail(ctx context.Context, mail Mail) error {
	var params soap.Params
	params.Set("from", mail.From)
	params.Set("to", mail.To)
	if mail.CC != "" {
		params.Set("cc", mail.CC)
	}
	if mail.BCC != "" {
		params.Set("bcc", mail.BCC)
	}
	params.Set("subject", mail.Subject)
	params.Set("format", mail.Format)
	params.Set("body", mail.Body)
	_, err := c.call(ctx, "SendMail", params)
	return err
}
