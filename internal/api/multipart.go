package api

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/minddock/minddock/internal/types"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// multipartForm accumulates fields and files. The first write error sticks.
type multipartForm struct {
	buffer *bytes.Buffer
	writer *multipart.Writer
	err    error
}

func newMultipartForm() *multipartForm {
	buffer := &bytes.Buffer{}
	return &multipartForm{buffer: buffer, writer: multipart.NewWriter(buffer)}
}

func (f *multipartForm) field(name, value string) {
	if f.err != nil {
		return
	}
	f.err = f.writer.WriteField(name, value)
}

// file writes a file part carrying the upload's own content type.
func (f *multipartForm) file(name string, upload *types.Upload) {
	if f.err != nil {
		return
	}
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, quoteEscaper.Replace(name), quoteEscaper.Replace(upload.Filename)))
	header.Set("Content-Type", contentType)
	part, err := f.writer.CreatePart(header)
	if err != nil {
		f.err = err
		return
	}
	_, f.err = part.Write(upload.Content)
}

func (f *multipartForm) close() ([]byte, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	if err := f.writer.Close(); err != nil {
		return nil, "", err
	}
	return f.buffer.Bytes(), f.writer.FormDataContentType(), nil
}

func unmarshal(resp *response, out any) error {
	if err := json.Unmarshal(resp.body, out); err != nil {
		return errors.Wrap(err, "unmarshaling response")
	}
	return nil
}
