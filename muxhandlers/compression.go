package muxhandlers

import (
	"compress/flate"
	"compress/gzip"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/vitalvas/oasgen/mux"
)

// ErrInvalidCompressionLevel is returned when CompressionConfig.Level is
// outside the flate level range.
var ErrInvalidCompressionLevel = errors.New("compression: invalid compression level")

// CompressionConfig configures CompressionMiddleware.
type CompressionConfig struct {
	// Level applies to gzip and deflate. Zero means flate.DefaultCompression.
	Level int `toml:"level"`

	// MinLength is the smallest body, in bytes, that gets compressed.
	MinLength int `toml:"min_length"`
}

// Validate checks the compression level.
func (c CompressionConfig) Validate() error {
	if c.Level != 0 && (c.Level < flate.HuffmanOnly || c.Level > flate.BestCompression) {
		return ErrInvalidCompressionLevel
	}
	if c.MinLength < 0 {
		return errors.New("compression: min_length must not be negative")
	}
	return nil
}

type compressor interface {
	io.WriteCloser
	Flush() error
	Reset(w io.Writer)
}

// encoder is one supported content coding with its writer pool.
type encoder struct {
	name string
	pool *sync.Pool
}

// CompressionMiddleware compresses response bodies with gzip or deflate,
// whichever the client prefers in Accept-Encoding. Gzip wins ties.
// Responses that already carry Content-Encoding, or whose Content-Type is
// a compressed format, pass through unchanged.
//
// See: https://www.rfc-editor.org/rfc/rfc9110#field.accept-encoding
func CompressionMiddleware(cfg CompressionConfig) (mux.MiddlewareFunc, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := cfg.Level
	if level == 0 {
		level = flate.DefaultCompression
	}

	gz := encoder{name: "gzip", pool: &sync.Pool{New: func() any {
		w, _ := gzip.NewWriterLevel(io.Discard, level)
		return w
	}}}
	fl := encoder{name: "deflate", pool: &sync.Pool{New: func() any {
		w, _ := flate.NewWriter(io.Discard, level)
		return w
	}}}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var enc encoder
			switch negotiateEncoding(r.Header.Get("Accept-Encoding")) {
			case "gzip":
				enc = gz
			case "deflate":
				enc = fl
			default:
				next.ServeHTTP(w, r)
				return
			}

			cw := &compressWriter{ResponseWriter: w, enc: enc, minLength: cfg.MinLength}
			defer cw.close()
			next.ServeHTTP(cw, r)
		})
	}, nil
}

// negotiateEncoding returns "gzip", "deflate" or "".
func negotiateEncoding(header string) string {
	q := map[string]float64{"gzip": -1, "deflate": -1, "*": -1}

	for part := range strings.SplitSeq(header, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		name = strings.ToLower(strings.TrimSpace(name))
		if _, ok := q[name]; !ok {
			continue
		}
		q[name] = quality(params)
	}

	for _, name := range []string{"gzip", "deflate"} {
		if q[name] < 0 {
			q[name] = q["*"]
		}
	}

	switch {
	case q["gzip"] > 0 && q["gzip"] >= q["deflate"]:
		return "gzip"
	case q["deflate"] > 0:
		return "deflate"
	}
	return ""
}

// quality parses a "q=0.5" parameter. A missing value means 1.
func quality(params string) float64 {
	key, val, ok := strings.Cut(strings.TrimSpace(params), "=")
	if !ok || strings.TrimSpace(key) != "q" {
		return 1
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		return 0
	}
	return v
}

var compressedTypes = []string{
	"image/",
	"video/",
	"audio/",
	"application/zip",
	"application/gzip",
	"application/x-gzip",
	"application/zstd",
}

func isCompressedType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	for _, prefix := range compressedTypes {
		if strings.HasPrefix(ct, prefix) {
			return true
		}
	}
	return false
}

// compressWriter buffers up to minLength bytes before deciding whether to
// compress.
type compressWriter struct {
	http.ResponseWriter
	enc       encoder
	minLength int

	w       compressor
	buf     []byte
	status  int
	decided bool
}

func (cw *compressWriter) WriteHeader(status int) {
	if cw.status != 0 {
		return
	}
	cw.status = status
	if cw.decided {
		cw.ResponseWriter.WriteHeader(status)
	}
}

func (cw *compressWriter) Write(b []byte) (int, error) {
	if cw.status == 0 {
		cw.WriteHeader(http.StatusOK)
	}
	if cw.decided {
		if cw.w != nil {
			return cw.w.Write(b)
		}
		return cw.ResponseWriter.Write(b)
	}

	cw.buf = append(cw.buf, b...)
	if len(cw.buf) >= cw.minLength {
		if err := cw.decide(true); err != nil {
			return 0, err
		}
	}
	return len(b), nil
}

// decide sends the header and the buffered bytes, compressed when allowed
// and the content qualifies.
func (cw *compressWriter) decide(allowed bool) error {
	cw.decided = true

	h := cw.Header()
	if allowed && h.Get("Content-Encoding") == "" && !isCompressedType(h.Get("Content-Type")) {
		h.Set("Content-Encoding", cw.enc.name)
		h.Add("Vary", "Accept-Encoding")
		h.Del("Content-Length")

		cw.w = cw.enc.pool.Get().(compressor)
		cw.w.Reset(cw.ResponseWriter)
	}

	cw.ResponseWriter.WriteHeader(cw.status)
	buf := cw.buf
	cw.buf = nil
	if len(buf) == 0 {
		return nil
	}
	if cw.w != nil {
		_, err := cw.w.Write(buf)
		return err
	}
	_, err := cw.ResponseWriter.Write(buf)
	return err
}

func (cw *compressWriter) close() {
	if !cw.decided && cw.status != 0 {
		// bodies below minLength go out uncompressed
		_ = cw.decide(false)
	}
	if cw.w != nil {
		_ = cw.w.Close()
		cw.enc.pool.Put(cw.w)
		cw.w = nil
	}
}

// Flush implements http.Flusher.
func (cw *compressWriter) Flush() {
	if !cw.decided && cw.status != 0 {
		_ = cw.decide(len(cw.buf) > 0)
	}
	if cw.w != nil {
		_ = cw.w.Flush()
	}
	if f, ok := cw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap returns the underlying ResponseWriter.
func (cw *compressWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}
