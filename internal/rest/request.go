package rest

import (
	"maps"
	"net/http"

	"github.com/bytedance/sonic"
)

// HeaderRequestID carries the ID shared by every attempt of one logical request
const HeaderRequestID = "X-Request-ID"

var methods = map[string]bool{
	http.MethodGet:     true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodHead:    true,
	http.MethodOptions: true,
}

// ValidMethod reports whether m is a supported HTTP verb
func ValidMethod(m string) bool {
	return methods[m]
}

// Request describes one logical call relative to the client's base URL.
//
// Request is passed by value. The client copies Header when Send starts and
// derives a new value for every retry, so the caller's copy never changes.
type Request struct {
	Method string
	Path   string
	Header map[string]string
	Body   interface{}

	// Retry is the number of retries already spent on this request
	Retry int
}

// NewRequest creates a descriptor with an empty header set
func NewRequest(method, path string) Request {
	return Request{Method: method, Path: path, Header: map[string]string{}}
}

// WithHeader returns a copy of r with the header set
func (r Request) WithHeader(key, value string) Request {
	r.Header = maps.Clone(r.Header)
	if r.Header == nil {
		r.Header = map[string]string{}
	}
	r.Header[key] = value
	return r
}

// WithBearer returns a copy of r authorised with token and sending JSON
func (r Request) WithBearer(token string) Request {
	return r.WithHeader("Authorization", "Bearer "+token).
		WithHeader("Content-Type", "application/json")
}

// WithBody returns a copy of r with the body set
func (r Request) WithBody(body interface{}) Request {
	r.Body = body
	return r
}

// WithRetry returns a copy of r carrying the given retry counter
func (r Request) WithRetry(n int) Request {
	r.Retry = n
	return r
}

// Response is a successful (2xx) reply
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v
func (r *Response) Decode(v interface{}) error {
	return sonic.Unmarshal(r.Body, v)
}
