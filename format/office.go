package format

import (
	"bytes"

	"github.com/datakit-io/datakit/document"
)

// containerCodec handles Office container formats (docx, pptx) as
// opaque payloads. The layer stores and retrieves the bytes without
// interpreting them; producing the container is the caller's job.
type containerCodec struct {
	ext Extension
}

var _ DocumentCodec = (*containerCodec)(nil)

func (c *containerCodec) EncodeDocument(d *document.Document) ([]byte, error) {
	if !d.IsRaw() {
		return nil, invalidPayload("%s: document has no opaque payload to store", c.ext)
	}
	return d.Raw, nil
}

func (c *containerCodec) DecodeDocument(data []byte) (*document.Document, error) {
	if !bytes.HasPrefix(data, []byte("PK")) {
		return nil, invalidPayload("%s: not a zip container", c.ext)
	}
	return document.FromBytes(data), nil
}
