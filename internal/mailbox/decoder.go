package mailbox

import (
	"bytes"
	"io"
	"unicode/utf8"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset" // register common charsets
	"golang.org/x/text/encoding/charmap"

	"github.com/gastoslab/gastos-tracker/internal/common"
)

// DecodeBody extracts the best-effort plain-text body from one raw message.
//
// Multipart messages are walked in order and the first text/plain part wins;
// when no plain-text part exists, the first part found becomes the fallback
// payload (HTML bodies are acceptable: extraction patterns tolerate markup).
// Non-multipart messages decode the single payload directly.
//
// Character decoding never fails the message: UTF-8 is attempted first, then
// Latin-1. A body that cannot be recovered at all is returned as the empty
// string, which callers treat as "skip this message".
func DecodeBody(raw RawMessage) (string, error) {
	ent, err := message.Read(bytes.NewReader(raw.Raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return "", &common.DecodeError{Cause: err}
	}

	var plain, fallback []byte
	collectParts(ent, &plain, &fallback)
	if plain != nil {
		return decodeText(plain), nil
	}
	return decodeText(fallback), nil
}

// collectParts walks a (possibly nested) multipart structure, recording the
// first text/plain payload and the first payload of any type.
func collectParts(ent *message.Entity, plain, fallback *[]byte) {
	if mr := ent.MultipartReader(); mr != nil {
		for {
			part, err := mr.NextPart()
			if err != nil {
				// io.EOF ends the walk; a malformed tail ends it early
				// without failing the parts already collected.
				return
			}
			collectParts(part, plain, fallback)
			if *plain != nil {
				return
			}
		}
	}

	body, err := io.ReadAll(ent.Body)
	if err != nil || len(body) == 0 {
		return
	}
	mediaType, _, _ := ent.Header.ContentType()
	if mediaType == "text/plain" && *plain == nil {
		*plain = body
		return
	}
	if *fallback == nil {
		*fallback = body
	}
}

// decodeText decodes bytes as UTF-8 with a Latin-1 fallback. Latin-1 maps
// every byte, so this never fails; undecodable input comes back empty.
func decodeText(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	if utf8.Valid(b) {
		return string(b)
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return ""
	}
	return string(out)
}
