package api

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ssargent/oidcast/pkg/model"
	"github.com/ssargent/oidcast/pkg/objectid"
	"github.com/ssargent/oidcast/pkg/query"
	"github.com/ssargent/oidcast/pkg/schema"
	"github.com/ssargent/oidcast/pkg/store"
)

// Server holds the API server state
type Server struct {
	repos   map[string]*model.Repository
	tables  []string
	config  ServerConfig
	metrics *Metrics
	logger  *slog.Logger
}

// NewServer creates a new API server over one repository per table. metrics
// and logger may be nil.
func NewServer(repos []*model.Repository, config ServerConfig, metrics *Metrics, logger *slog.Logger) *Server {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		repos:   make(map[string]*model.Repository, len(repos)),
		config:  config,
		metrics: metrics,
		logger:  logger,
	}
	for _, repo := range repos {
		name := repo.Definition().Table().Name
		s.repos[name] = repo
		s.tables = append(s.tables, name)
	}
	return s
}

func (s *Server) repository(w http.ResponseWriter, r *http.Request) (*model.Repository, bool) {
	table := chi.URLParam(r, "table")
	repo, ok := s.repos[table]
	if !ok {
		sendError(w, fmt.Sprintf("Unknown table %q", table), http.StatusNotFound)
		return nil, false
	}
	return repo, true
}

// handleHealth godoc
//
//	@Summary		Health check
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Router			/health [get]
//	@Security		ApiKeyAuth
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleListTables godoc
//
//	@Summary		List tables
//	@Tags			tables
//	@Produce		json
//	@Success		200	{array}	TableResponse
//	@Router			/tables [get]
//	@Security		ApiKeyAuth
func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	out := make([]TableResponse, 0, len(s.tables))
	for _, name := range s.tables {
		t := s.repos[name].Definition().Table()
		pk, _ := t.PrimaryKey()
		cols := make([]string, 0, len(t.Columns))
		for _, c := range t.Columns {
			cols = append(cols, c.Name)
		}
		out = append(out, TableResponse{Name: t.Name, Primary: pk.Name, Columns: cols, DDL: t.DDL()})
	}
	sendSuccess(w, out)
}

// handleCreateRecord godoc
//
//	@Summary		Create a record
//	@Description	Identifier columns accept a 24 character hex string. A missing or malformed identifier primary key is assigned.
//	@Tags			records
//	@Accept			json
//	@Produce		json
//	@Param			table	path	string	true	"Table"
//	@Success		201	{object}	map[string]interface{}
//	@Router			/tables/{table}/records [post]
//	@Security		ApiKeyAuth
func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	repo, ok := s.repository(w, r)
	if !ok {
		return
	}

	var body map[string]interface{}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	table := repo.Definition().Table()
	attrs := make(map[string]any, len(body))
	for name, raw := range body {
		col, ok := table.Column(name)
		if !ok {
			sendError(w, fmt.Sprintf("Unknown column %q", name), http.StatusBadRequest)
			return
		}
		v, err := attribute(col, raw)
		if err != nil {
			sendError(w, err.Error(), http.StatusBadRequest)
			return
		}
		attrs[name] = v
	}

	rec, err := repo.Create(r.Context(), attrs)
	switch {
	case errors.Is(err, store.ErrDuplicateKey):
		sendError(w, "Record already exists", http.StatusConflict)
		return
	case errors.Is(err, model.ErrNotNull), errors.Is(err, model.ErrMissingKey):
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		s.logger.Error("create failed", "table", table.Name, "error", err, "request_id", RequestID(r.Context()))
		sendError(w, fmt.Sprintf("Failed to create record: %v", err), http.StatusInternalServerError)
		return
	}
	sendJSON(w, http.StatusCreated, RenderRecord(rec))
}

// handleGetRecord godoc
//
//	@Summary		Get a record by primary key
//	@Tags			records
//	@Produce		json
//	@Param			table	path	string	true	"Table"
//	@Param			id		path	string	true	"Primary key"
//	@Success		200	{object}	map[string]interface{}
//	@Failure		404	{object}	APIResponse
//	@Router			/tables/{table}/records/{id} [get]
//	@Security		ApiKeyAuth
func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	repo, ok := s.repository(w, r)
	if !ok {
		return
	}
	rec, err := s.find(r, repo)
	if errors.Is(err, model.ErrNotFound) {
		sendError(w, "Record not found", http.StatusNotFound)
		return
	}
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to get record: %v", err), http.StatusInternalServerError)
		return
	}
	sendSuccess(w, RenderRecord(rec))
}

// handleDeleteRecord godoc
//
//	@Summary		Delete a record by primary key
//	@Tags			records
//	@Produce		json
//	@Param			table	path	string	true	"Table"
//	@Param			id		path	string	true	"Primary key"
//	@Success		200	{object}	map[string]string
//	@Failure		404	{object}	APIResponse
//	@Router			/tables/{table}/records/{id} [delete]
//	@Security		ApiKeyAuth
func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	repo, ok := s.repository(w, r)
	if !ok {
		return
	}
	rec, err := s.find(r, repo)
	if errors.Is(err, model.ErrNotFound) {
		sendError(w, "Record not found", http.StatusNotFound)
		return
	}
	if err == nil {
		err = repo.Delete(r.Context(), rec)
	}
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to delete record: %v", err), http.StatusInternalServerError)
		return
	}
	sendSuccess(w, map[string]string{"deleted": chi.URLParam(r, "id")})
}

// find looks up the record named by the {id} path parameter.
func (s *Server) find(r *http.Request, repo *model.Repository) (*model.Record, error) {
	pk, err := repo.Definition().Table().PrimaryKey()
	if err != nil {
		return nil, err
	}
	id := chi.URLParam(r, "id")
	key, err := pathKey(pk, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrNotFound, err)
	}
	return repo.Find(r.Context(), key)
}

// handleQuery godoc
//
//	@Summary		Query records
//	@Description	Every condition must hold. Values for identifier columns are normalized, so hex strings match stored identifiers.
//	@Tags			records
//	@Accept			json
//	@Produce		json
//	@Param			table	path	string			true	"Table"
//	@Param			query	body	QueryRequest	true	"Conditions"
//	@Success		200	{object}	QueryResponse
//	@Router			/tables/{table}/query [post]
//	@Security		ApiKeyAuth
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	repo, ok := s.repository(w, r)
	if !ok {
		return
	}

	var req QueryRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	preds, err := s.predicates(repo.Definition().Table(), req.Where)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	recs, err := repo.Where(r.Context(), preds...)
	if err != nil {
		if errors.Is(err, query.ErrInvalidOperator) || errors.Is(err, query.ErrUnknownColumn) {
			sendError(w, err.Error(), http.StatusBadRequest)
			return
		}
		sendError(w, fmt.Sprintf("Query failed: %v", err), http.StatusInternalServerError)
		return
	}

	resp := QueryResponse{Count: len(recs), Records: make([]map[string]interface{}, 0, len(recs))}
	for _, rec := range recs {
		resp.Records = append(resp.Records, RenderRecord(rec))
	}
	sendSuccess(w, resp)
}

func (s *Server) predicates(table schema.Table, where []Condition) ([]query.Predicate, error) {
	preds := make([]query.Predicate, 0, len(where))
	for _, c := range where {
		op, err := query.ParseOperator(c.Op)
		if err != nil {
			return nil, err
		}
		col, ok := table.Column(c.Column)
		if !ok {
			return nil, fmt.Errorf("%w: %s", query.ErrUnknownColumn, c.Column)
		}

		if op == query.OpIn {
			values := make([]any, 0, len(c.Values))
			for _, raw := range c.Values {
				v, err := s.parameter(col, raw)
				if err != nil {
					return nil, err
				}
				values = append(values, v)
			}
			preds = append(preds, query.In(col.Name, values...))
			continue
		}

		v, err := s.parameter(col, c.Value)
		if err != nil {
			return nil, err
		}
		preds = append(preds, query.Where(col.Name, op, v))
	}
	return preds, nil
}

// parameter converts a JSON value into a query parameter for col.
// Identifier columns go through objectid.Normalize, so text that is not an
// identifier is bound unchanged and simply matches nothing.
func (s *Server) parameter(col schema.Column, raw interface{}) (any, error) {
	if col.IsObjectID() {
		v := objectid.Normalize(raw)
		if _, ok := v.([]byte); ok {
			s.metrics.RecordNormalize("binary")
		} else {
			s.metrics.RecordNormalize("passthrough")
		}
		return v, nil
	}
	return attribute(col, raw)
}

// handleNormalize godoc
//
//	@Summary		Normalize a value
//	@Description	Reports whether a string would be bound as a binary identifier or passed through unchanged.
//	@Tags			diagnostics
//	@Produce		json
//	@Param			value	query	string	true	"Value"
//	@Success		200	{object}	NormalizeResponse
//	@Router			/normalize [get]
//	@Security		ApiKeyAuth
func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	if !r.URL.Query().Has("value") {
		sendError(w, "value is required", http.StatusBadRequest)
		return
	}
	input := r.URL.Query().Get("value")

	resp := NormalizeResponse{Input: input, Kind: "passthrough"}
	if b, ok := objectid.Normalize(input).([]byte); ok {
		resp.Kind = "binary"
		resp.Binary = hex.EncodeToString(b)
	}
	s.metrics.RecordNormalize(resp.Kind)
	sendSuccess(w, resp)
}

// handleStats godoc
//
//	@Summary		Table statistics
//	@Tags			diagnostics
//	@Produce		json
//	@Param			table	path	string	true	"Table"
//	@Success		200	{object}	store.TableStats
//	@Router			/tables/{table}/stats [get]
//	@Security		ApiKeyAuth
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	repo, ok := s.repository(w, r)
	if !ok {
		return
	}
	stats, err := repo.Stats(r.Context())
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to get stats: %v", err), http.StatusInternalServerError)
		return
	}
	s.metrics.UpdateTableStats(stats.Table, stats.Rows, stats.Bytes)
	sendSuccess(w, stats)
}

// attribute converts a decoded JSON value into the runtime form of col.
func attribute(col schema.Column, raw interface{}) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch {
	case col.IsObjectID():
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("column %s expects a hex identifier", col.Name)
		}
		if id, err := objectid.FromHex(s); err == nil {
			return id, nil
		}
		// the identifier cast stores anything else as NULL
		return s, nil
	case col.Type == schema.TypeBinary:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("column %s expects base64 text", col.Name)
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("column %s: %v", col.Name, err)
		}
		return b, nil
	case col.Type == schema.TypeInt64:
		n, ok := raw.(json.Number)
		if !ok {
			return nil, fmt.Errorf("column %s expects an integer", col.Name)
		}
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("column %s expects an integer", col.Name)
		}
		return i, nil
	default:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("column %s expects text", col.Name)
		}
		return s, nil
	}
}

// pathKey converts a primary key taken from the URL.
func pathKey(pk schema.Column, id string) (any, error) {
	if pk.IsObjectID() || pk.Type == schema.TypeString {
		return id, nil
	}
	if pk.Type == schema.TypeInt64 {
		return attribute(pk, json.Number(id))
	}
	return base64.RawURLEncoding.DecodeString(id)
}

// RenderRecord returns rec's attributes as JSON-friendly values. Identifiers are
// rendered as hex.
func RenderRecord(rec *model.Record) map[string]interface{} {
	out := make(map[string]interface{})
	for _, col := range rec.Definition().Table().Columns {
		switch v := rec.Get(col.Name).(type) {
		case objectid.ID:
			out[col.Name] = v.Hex()
		default:
			out[col.Name] = v
		}
	}
	return out
}
