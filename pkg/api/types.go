package api

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind   string
	Port   int
	APIKey string // empty disables authentication
}

// Condition is one clause of a query request. Values is used by the "in"
// operator; every other operator reads Value.
type Condition struct {
	Column string        `json:"column"`
	Op     string        `json:"op"`
	Value  interface{}   `json:"value,omitempty"`
	Values []interface{} `json:"values,omitempty"`
}

// QueryRequest is the body of POST /tables/{table}/query.
type QueryRequest struct {
	Where []Condition `json:"where"`
}

// QueryResponse lists matching records in primary key order.
type QueryResponse struct {
	Count   int                      `json:"count"`
	Records []map[string]interface{} `json:"records"`
}

// NormalizeResponse reports how a value would be bound as a query parameter.
type NormalizeResponse struct {
	Input  string `json:"input"`
	Kind   string `json:"kind"` // "binary" or "passthrough"
	Binary string `json:"binary,omitempty"`
}

// TableResponse describes a configured table.
type TableResponse struct {
	Name    string   `json:"name"`
	Primary string   `json:"primary"`
	Columns []string `json:"columns"`
	DDL     string   `json:"ddl"`
}
