package validation

import (
	"bytes"
	"mime"
	"mime/multipart"
	"net/url"
	"path/filepath"
	"sort"
	"strings"
)

// ── Uploaded files ───────────────────────────────────────────────────────────

// UploadedFile is a handle on one file part of a request, Laravel's
// Illuminate\Http\UploadedFile. The bytes stay where the multipart reader
// left them (memory or temp file) until Open is called.
type UploadedFile struct {
	Filename    string
	ContentType string
	Size        int64

	header *multipart.FileHeader
	data   []byte
	err    error
}

// NewUploadedFile wraps a parsed multipart file header.
func NewUploadedFile(fh *multipart.FileHeader) *UploadedFile {
	if fh == nil {
		return nil
	}
	return &UploadedFile{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		header:      fh,
	}
}

// FileFromBytes builds an in-memory upload.
//
//	f := validation.FileFromBytes("report.pdf", "application/pdf", body)
func FileFromBytes(filename, contentType string, data []byte) *UploadedFile {
	return &UploadedFile{
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		data:        data,
	}
}

// FailedUpload represents a file part the transport could not read completely.
// size is what was received before the failure.
func FailedUpload(filename string, size int64, err error) *UploadedFile {
	return &UploadedFile{Filename: filename, Size: size, err: err}
}

// Err returns the transport error recorded for a failed upload.
func (f *UploadedFile) Err() error { return f.err }

// Valid reports whether the handle points at readable, non-empty content.
func (f *UploadedFile) Valid() bool {
	if f == nil || f.err != nil || f.Size <= 0 {
		return false
	}
	return f.header != nil || f.data != nil
}

// Extension returns the lower-cased extension without the dot ("pdf").
func (f *UploadedFile) Extension() string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(f.Filename), "."))
}

// MediaType returns the declared content type without parameters.
func (f *UploadedFile) MediaType() string {
	mt, _, err := mime.ParseMediaType(f.ContentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(f.ContentType))
	}
	return mt
}

// Open returns a reader over the file content.
func (f *UploadedFile) Open() (multipart.File, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.header != nil {
		return f.header.Open()
	}
	return memFile{bytes.NewReader(f.data)}, nil
}

type memFile struct{ *bytes.Reader }

func (memFile) Close() error { return nil }

// ── Values ───────────────────────────────────────────────────────────────────

type valueKind uint8

const (
	kindNull valueKind = iota
	kindText
	kindFile
	kindFiles
)

// Value is what a request carries for one field: null, a scalar string,
// a single upload, or a list of uploads.
type Value struct {
	kind  valueKind
	text  string
	files []*UploadedFile
}

// Null is an explicitly empty value.
func Null() Value { return Value{} }

// Text is a scalar value.
func Text(s string) Value { return Value{kind: kindText, text: s} }

// Upload is a single file value. A nil handle is Null.
func Upload(f *UploadedFile) Value {
	if f == nil {
		return Null()
	}
	return Value{kind: kindFile, files: []*UploadedFile{f}}
}

// Uploads is a list of files sent under one field name.
func Uploads(fs ...*UploadedFile) Value {
	return Value{kind: kindFiles, files: append([]*UploadedFile(nil), fs...)}
}

func (v Value) IsNull() bool { return v.kind == kindNull }

// Text returns the scalar and whether the value is one.
func (v Value) Text() (string, bool) { return v.text, v.kind == kindText }

// File returns the single upload and whether the value is one.
func (v Value) File() (*UploadedFile, bool) {
	if v.kind != kindFile {
		return nil, false
	}
	return v.files[0], true
}

// Files returns every upload carried by the value.
func (v Value) Files() []*UploadedFile { return append([]*UploadedFile(nil), v.files...) }

// IsEmpty mirrors Laravel's "required" notion of emptiness: null, a blank
// string, a zero-length upload, or an empty list.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case kindText:
		return strings.TrimSpace(v.text) == ""
	case kindFile:
		return v.files[0].Size <= 0
	case kindFiles:
		return len(v.files) == 0
	default:
		return true
	}
}

// ── Input ────────────────────────────────────────────────────────────────────

// Input is an immutable view of a parsed request: field values plus the
// authorization flag resolved by upstream middleware.
type Input struct {
	values     map[string]Value
	authorized bool
}

// NewInput copies values into a new Input.
func NewInput(values map[string]Value, authorized bool) *Input {
	in := &Input{values: make(map[string]Value, len(values)), authorized: authorized}
	for k, v := range values {
		in.values[k] = v
	}
	return in
}

// FromValues builds an Input from url-encoded form or query values.
// The first value of a repeated key wins, like Request::input.
func FromValues(values url.Values, authorized bool) *Input {
	in := &Input{values: make(map[string]Value, len(values)), authorized: authorized}
	for k, vs := range values {
		if len(vs) == 0 {
			in.values[k] = Null()
			continue
		}
		in.values[k] = Text(vs[0])
	}
	return in
}

// FromForm builds an Input from a parsed multipart form. A file part wins
// over a text part with the same name.
func FromForm(form *multipart.Form, authorized bool) *Input {
	if form == nil {
		return NewInput(nil, authorized)
	}
	in := FromValues(form.Value, authorized)
	for k, fhs := range form.File {
		switch len(fhs) {
		case 0:
		case 1:
			in.values[k] = Upload(NewUploadedFile(fhs[0]))
		default:
			files := make([]*UploadedFile, 0, len(fhs))
			for _, fh := range fhs {
				files = append(files, NewUploadedFile(fh))
			}
			in.values[k] = Uploads(files...)
		}
	}
	return in
}

// Get returns the value for field, Null when absent.
func (in *Input) Get(field string) Value { return in.values[field] }

// Has reports whether the request carried field at all (even empty).
func (in *Input) Has(field string) bool {
	_, ok := in.values[field]
	return ok
}

// Text returns the scalar for field or "".
func (in *Input) Text(field string) string {
	s, _ := in.values[field].Text()
	return s
}

// File returns the single upload for field or nil.
func (in *Input) File(field string) *UploadedFile {
	f, _ := in.values[field].File()
	return f
}

// Authorized reports the flag set by upstream auth middleware.
func (in *Input) Authorized() bool { return in.authorized }

// Fields returns the present field names, sorted.
func (in *Input) Fields() []string {
	out := make([]string, 0, len(in.values))
	for k := range in.values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Only returns a new Input restricted to the given fields (Request::only).
func (in *Input) Only(fields ...string) *Input {
	out := &Input{values: make(map[string]Value, len(fields)), authorized: in.authorized}
	for _, f := range fields {
		if v, ok := in.values[f]; ok {
			out.values[f] = v
		}
	}
	return out
}
