// Package textenc converts outgoing text to UTF-8 before it is placed on the
// wire.
//
// The TeamDesk service only accepts UTF-8, while callers frequently hand over
// strings read from legacy sources. A Normalizer leaves valid UTF-8 untouched
// and decodes anything else from a configured IANA charset (ISO-8859-1 by
// default). CharsetReader plugs the same charset table into encoding/xml for
// responses that declare a non UTF-8 encoding.
package textenc
