// Package soap is a small SOAP 1.1 document/literal transport.
//
// A Client discovers the service endpoint, target namespace and per-operation
// SOAPAction values from the service description (WSDL) on first use, then
// posts envelopes built from ordered Params plus any out-of-band Headers.
// Responses are decoded into a generic Node tree so callers can inspect
// result shapes that vary per operation. Faults come back as *Fault errors.
//
// The package knows nothing about a particular service; the teamdesk package
// layers sessions and result conventions on top of it.
package soap
