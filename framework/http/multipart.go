package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strings"

	"github.com/km-arc/go-uploads/framework/http/validation"
)

// ErrBodyTooLarge is returned by ReadMultipart when the body exceeds its limit.
var ErrBodyTooLarge = errors.New("request body too large")

// ReadMultipart decodes a buffered multipart body part by part. Unlike
// http.Request.ParseMultipartForm it does not give up on a truncated file
// part: the part becomes a validation.FailedUpload carrying the bytes that
// arrived, and validation reports it against its field.
//
// Serverless transports (API Gateway) hand the whole body over at once,
// which is what this is for. A limit of 0 or less means DefaultMaxMemory.
func ReadMultipart(body io.Reader, contentType string, limit int64, authorized bool) (*validation.Input, error) {
	mt, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mt, "multipart/") {
		return nil, fmt.Errorf("%w: content type %q is not multipart", ErrMalformedBody, contentType)
	}
	boundary := params["boundary"]
	if boundary == "" {
		return nil, fmt.Errorf("%w: missing multipart boundary", ErrMalformedBody)
	}
	if limit <= 0 {
		limit = DefaultMaxMemory
	}

	mr := multipart.NewReader(body, boundary)
	values := make(map[string]validation.Value)
	files := make(map[string][]*validation.UploadedFile)
	var read int64

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			if len(values)+len(files) == 0 {
				return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
			}
			// Trailing garbage after complete parts; keep what we have.
			break
		}

		name := part.FormName()
		if name == "" {
			part.Close()
			continue
		}

		var buf bytes.Buffer
		n, copyErr := io.Copy(&buf, io.LimitReader(part, limit-read+1))
		read += n
		part.Close()
		if read > limit {
			return nil, ErrBodyTooLarge
		}

		if part.FileName() == "" {
			if copyErr != nil {
				return nil, fmt.Errorf("%w: field %q: %v", ErrMalformedBody, name, copyErr)
			}
			if _, seen := values[name]; !seen {
				values[name] = validation.Text(buf.String())
			}
			continue
		}

		ctype := part.Header.Get("Content-Type")
		if copyErr != nil {
			files[name] = append(files[name], validation.FailedUpload(part.FileName(), n, copyErr))
			break
		}
		files[name] = append(files[name], validation.FileFromBytes(part.FileName(), ctype, buf.Bytes()))
	}

	for name, fs := range files {
		if len(fs) == 1 {
			values[name] = validation.Upload(fs[0])
			continue
		}
		values[name] = validation.Uploads(fs...)
	}
	return validation.NewInput(values, authorized), nil
}
