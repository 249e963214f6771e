package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/doorsync/internal/core"
	"github.com/JonMunkholm/doorsync/internal/logging"
	"github.com/JonMunkholm/doorsync/internal/output"
	"github.com/JonMunkholm/doorsync/internal/source"
)

// Multipart field names of a reconciliation request.
const (
	fieldDirectory = "directory"
	fieldCodes     = "codes"
	fieldDeleted   = "deleted"
	fieldAccount   = "account"
	fieldFormat    = "format"
	fieldSkipRows  = "skip_rows"
)

// multipartMemory is how much of a form is buffered before spilling to disk.
const multipartMemory = 8 << 20

// runRequest is a parsed reconciliation upload.
type runRequest struct {
	tables  core.Tables
	account string
	format  output.Format
}

// PreviewResponse is returned by POST /api/preview.
type PreviewResponse struct {
	RunID      string       `json:"runId"`
	Account    string       `json:"account"`
	Headers    []string     `json:"headers"`
	Summary    core.Summary `json:"summary"`
	Entries    []core.Entry `json:"entries"`
	DurationMs int64        `json:"durationMs"`
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status  string                `json:"status"`
	Account string                `json:"account"`
	Runs    core.RunLimiterStatus `json:"runs"`
}

// handleIndex renders the upload page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexPage(s.service.Settings().AccountName).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render index", "error", err)
	}
}

// handleHealth reports liveness and run slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, HealthResponse{
		Status:  "ok",
		Account: s.service.Settings().AccountName,
		Runs:    s.service.LimiterStatus(),
	})
}

// handleHeaders returns the column headers of the import document.
func (s *Server) handleHeaders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"headers": core.Headers(),
		"line":    core.HeaderLine(),
	})
}

// handlePreview reconciles the uploaded tables and returns the entries as JSON.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRunRequest(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.run(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, PreviewResponse{
		RunID:      result.RunID,
		Account:    req.account,
		Headers:    core.Headers(),
		Summary:    result.Summary,
		Entries:    result.Entries,
		DurationMs: result.Duration.Milliseconds(),
	})
}

// handleReconcile reconciles the uploaded tables and returns the import
// document as a download.
func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRunRequest(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.run(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeDocument(w, r, req, result)
}

// handleSync fetches the tables from the configured source, reconciles
// them and returns the import document. The format query parameter
// selects csv or xlsx.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if s.source == nil {
		s.respondError(w, r, errNoSource)
		return
	}
	format, err := output.ParseFormat(r.URL.Query().Get(fieldFormat))
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %w", errBadUpload, err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Upload.Timeout)
	defer cancel()

	tables, err := s.source.Fetch(ctx)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	req := &runRequest{tables: tables, account: s.service.Settings().AccountName, format: format}
	result, err := s.run(ctx, req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.writeDocument(w, r, req, result)
}

// writeDocument sends the import document as a download.
func (s *Server) writeDocument(w http.ResponseWriter, r *http.Request, req *runRequest, result *core.RunResult) {
	// Render fully before writing headers so a failure can still be reported.
	var buf bytes.Buffer
	if err := output.Write(&buf, req.format, req.account, result.Entries); err != nil {
		s.respondError(w, r, fmt.Errorf("render document: %w", err))
		return
	}

	w.Header().Set("Content-Type", req.format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="doorking%s"`, req.format.Extension()))
	w.Header().Set("X-Run-ID", result.RunID)
	w.Header().Set("X-Entry-Count", strconv.Itoa(result.Summary.Entries))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logging.FromContext(r.Context()).Error("write document", "run_id", result.RunID, "error", err)
	}
}

// run executes one reconciliation under the upload timeout.
func (s *Server) run(ctx context.Context, req *runRequest) (*core.RunResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Upload.Timeout)
	defer cancel()
	return s.service.Run(ctx, req.tables)
}

// parseRunRequest reads the three table uploads and the options. The
// directory and codes tables are required; deleted codes are optional.
func (s *Server) parseRunRequest(w http.ResponseWriter, r *http.Request) (*runRequest, error) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, 3*maxSize+multipartMemory)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, fmt.Errorf("%w: %w", source.ErrFileTooLarge, err)
		}
		return nil, fmt.Errorf("%w: invalid multipart form: %w", errBadUpload, err)
	}

	format, err := output.ParseFormat(r.FormValue(fieldFormat))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errBadUpload, err)
	}

	skip := 0
	if v := strings.TrimSpace(r.FormValue(fieldSkipRows)); v != "" {
		skip, err = strconv.Atoi(v)
		if err != nil || skip < 0 {
			return nil, fmt.Errorf("%w: skip_rows must be a non-negative number", errBadUpload)
		}
	}

	account := strings.TrimSpace(r.FormValue(fieldAccount))
	if account == "" {
		account = s.service.Settings().AccountName
	}

	req := &runRequest{account: account, format: format}
	for _, t := range []struct {
		field    string
		required bool
		dst      *[]core.Row
		offset   *int
	}{
		{fieldDirectory, true, &req.tables.Directory, &req.tables.DirectoryOffset},
		{fieldCodes, true, &req.tables.Codes, &req.tables.CodesOffset},
		{fieldDeleted, false, &req.tables.Deleted, &req.tables.DeletedOffset},
	} {
		rows, err := readTable(r, t.field, t.required, maxSize)
		if err != nil {
			return nil, err
		}
		*t.dst = source.SkipRows(rows, skip)
		*t.offset = skip
	}
	return req, nil
}

// readTable parses one uploaded table. A missing optional table yields no rows.
func readTable(r *http.Request, field string, required bool, maxSize int64) ([]core.Row, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		if required {
			return nil, fmt.Errorf("%w: no file provided for %s", errBadUpload, field)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errBadUpload, field, err)
	}
	defer file.Close()

	rows, err := source.ReadUpload(header.Filename, file, maxSize)
	if err != nil {
		if errors.Is(err, source.ErrFileTooLarge) {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
		return nil, fmt.Errorf("%w: %s: %w", errBadUpload, field, err)
	}
	return rows, nil
}
