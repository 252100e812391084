// Package rpc implements the JSON-over-TCP channel used to reach the
// bibliographic backend services (AccessStats, PublicationStats, Citedby,
// RatchetStats, ArticleMeta).
//
// Protocol: newline-delimited JSON frames over a TCP connection. Each
// request carries a method name in "Service.Method" form; each response
// carries either a data payload or an error string.
package rpc

import "encoding/json"

// Request is the wire format for an RPC request.
type Request struct {
	Method string          `json:"method"`
	ID     string          `json:"id"`
	Params json.RawMessage `json:"params"`
}

// Response is the wire format for an RPC response.
type Response struct {
	ID    string `json:"id"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// KV is a free-form query parameter forwarded to the backend alongside a
// search body (for example size overrides).
type KV struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SearchRequest is the input to the AccessStats.Search and
// PublicationStats.Search methods. Body is a serialized query document;
// the response data is the backend's raw JSON result, returned as a string.
type SearchRequest struct {
	DocType    string `json:"doc_type,omitempty"`
	Body       string `json:"body"`
	Parameters []KV   `json:"parameters,omitempty"`
}

// CitedbyPIDRequest is the input to Citedby.CitedbyPID.
type CitedbyPIDRequest struct {
	Code     string `json:"code"`
	Metaonly bool   `json:"metaonly"`
}

// CitedbyMetaRequest is the input to Citedby.CitedbyMeta.
type CitedbyMetaRequest struct {
	Title         string `json:"title"`
	AuthorSurname string `json:"author_surname"`
	Year          string `json:"year"`
	Metaonly      bool   `json:"metaonly"`
}

// GeneralRequest is the input to RatchetStats.General.
type GeneralRequest struct {
	Code string `json:"code"`
}

// DocumentsRequest pages through the ArticleMeta document feed.
type DocumentsRequest struct {
	Collection string `json:"collection"`
	ISSN       string `json:"issn,omitempty"`
	From       int    `json:"from"`
	Limit      int    `json:"limit"`
}
