package soap_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"teamdesk/internal/soap"
)

const userInfoXML = `<GetUserInfoResponse xmlns="urn:soap.teamdesk.net">
  <GetUserInfoResult>
    <Id>7</Id>
    <FirstName>Tijs</FirstName>
    <LastName>Verkoyen</LastName>
    <Email>tijs@example.com</Email>
  </GetUserInfoResult>
</GetUserInfoResponse>`

func TestNodeLookupAndDecode(t *testing.T) {
	root, err := soap.Parse([]byte(userInfoXML))
	require.NoError(t, err)

	result := root.Lookup("GetUserInfoResult")
	require.NotNil(t, result)
	require.Equal(t, "Tijs", result.Child("FirstName").Value())
	require.Nil(t, root.Lookup("GetUserInfoResult", "Missing", "Deeper"))

	var user struct {
		ID        int    `xml:"Id"`
		FirstName string `xml:"FirstName"`
		Email     string `xml:"Email"`
	}
	require.NoError(t, result.Decode(&user))
	require.Equal(t, 7, user.ID)
	require.Equal(t, "tijs@example.com", user.Email)
}

func TestNodeEmpty(t *testing.T) {
	root, err := soap.Parse([]byte(`<SendMailResponse xmlns="urn:x">
  </SendMailResponse>`))
	require.NoError(t, err)
	require.True(t, root.Empty())

	var missing *soap.Node
	require.True(t, missing.Empty())
	require.Nil(t, missing.Child("x"))
	require.Equal(t, "", missing.Value())
}

func TestNodeKeepsLeafWhitespaceAndAttrs(t *testing.T) {
	root, err := soap.Parse([]byte(`<r id="3" xmlns:q="urn:q"><c>  padded  </c></r>`))
	require.NoError(t, err)
	require.Equal(t, "  padded  ", root.Child("c").Value())

	id, ok := root.Attr("id")
	require.True(t, ok)
	require.Equal(t, "3", id)
	_, ok = root.Attr("q")
	require.False(t, ok)
}

func TestNodeXMLRendersLocalNames(t *testing.T) {
	root, err := soap.Parse([]byte(`<a:Data xmlns:a="urn:a"><a:r><Name>x &amp; y</Name></a:r></a:Data>`))
	require.NoError(t, err)
	require.Equal(t, "<Data>\n  <r>\n    <Name>x &amp; y</Name>\n  </r>\n</Data>", root.XML())
}

func TestParseDecodesDeclaredCharset(t *testing.T) {
	root, err := soap.Parse([]byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><v>caf\xe9</v>"))
	require.NoError(t, err)
	require.Equal(t, "café", root.Value())
}
