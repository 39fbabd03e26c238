// Package teamdesk is a client for the TeamDesk SOAP integration API.
//
// A Client holds the service endpoint and credentials, creates its SOAP
// transport on first use, and logs in implicitly before the first call that
// needs a session. Every public operation funnels through one dispatch path
// that normalizes outgoing text to UTF-8 and unwraps the <Method>Result
// element of the response:
//
//	client, err := teamdesk.New("me@example.com", "secret", "https://www.teamdesk.net/secure/api/21/12345/service.asmx")
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//	ids, err := client.Create(ctx, "Website", `<Data><r><Name>Example</Name></r></Data>`)
//
// Remote faults surface as *FaultError (matching ErrRemoteFault), responses of
// an unexpected shape as ErrInvalidResponse. The session is never refreshed:
// once the service invalidates it, every call fails until the client is
// closed or rebuilt. A Client is not safe for concurrent use.
package teamdesk
