package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"tpgen-hq/tpgen/pkg/catalog"
	"tpgen-hq/tpgen/pkg/document/lint"
	"tpgen-hq/tpgen/pkg/document/parser"
	"tpgen-hq/tpgen/pkg/plan"
	"tpgen-hq/tpgen/pkg/telemetry/logging"
)

// readText reads the raw request body, enforcing the body size cap. It
// writes the error response itself and reports false on failure.
func (s *Server) readText(w http.ResponseWriter, r *http.Request) (string, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.deps.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large",
				fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit))
			return "", false
		}
		writeError(w, http.StatusBadRequest, "bad_request", "Failed to read request body")
		return "", false
	}
	return string(body), true
}

// decodeJSON decodes the request body into v under the body size cap.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.deps.MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large",
				fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit))
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid_json", "Invalid JSON in request body: "+err.Error())
		return false
	}
	return true
}

// withDocument tags the request context with the ?name= query parameter.
func withDocument(r *http.Request) *http.Request {
	if name := strings.TrimSpace(r.URL.Query().Get("name")); name != "" {
		return r.WithContext(logging.WithDocument(r.Context(), name))
	}
	return r
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var sel plan.Selection
	if !s.decodeJSON(w, r, &sel) {
		return
	}

	now := s.deps.Now()
	in, err := catalog.BuildInput(r.Context(), s.deps.Catalog, sel, now)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "unknown_reference", err.Error())
			return
		}
		s.logger.ErrorContext(r.Context(), "catalog lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "catalog_error", "Catalog lookup failed")
		return
	}

	doc, err := plan.NewBuilder(nil).Build(in)
	if err != nil {
		var be *plan.BuildError
		if errors.As(err, &be) {
			writeError(w, http.StatusBadRequest, "invalid_selection", be.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "build_error", err.Error())
		return
	}

	rep := s.deps.Checker.CheckValue(r.Context(), doc)
	writeJSON(w, http.StatusOK, GenerateResponse{
		Document:    rep.Document,
		Filename:    plan.Filename(now),
		LineNumbers: plan.LineNumbers(rep.Document),
		Report:      rep,
	})
}

func (s *Server) handleLint(w http.ResponseWriter, r *http.Request) {
	text, ok := s.readText(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, lint.Lint(text))
}

func (s *Server) handleValidateDocument(w http.ResponseWriter, r *http.Request) {
	text, ok := s.readText(w, r)
	if !ok {
		return
	}
	r = withDocument(r)
	writeJSON(w, http.StatusOK, s.deps.Checker.Check(r.Context(), text))
}

func (s *Server) handleValidateConfiguration(w http.ResponseWriter, r *http.Request) {
	var req ConfigurationRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.YAMLData == nil || req.YAMLData.IsNull() {
		writeError(w, http.StatusBadRequest, "missing_yaml_data", "Missing yamlData in request body")
		return
	}
	r = withDocument(r)
	rep := s.deps.Checker.CheckValue(r.Context(), *req.YAMLData)
	writeJSON(w, http.StatusOK, newConfigurationResult(rep))
}

func (s *Server) handleCompatibility(w http.ResponseWriter, r *http.Request) {
	text, ok := s.readText(w, r)
	if !ok {
		return
	}
	doc, _, err := parser.Decode(text)
	if err != nil {
		body := errorBody{Error: "parse_error", Message: "Document could not be parsed: " + err.Error()}
		var se *parser.SyntaxError
		if errors.As(err, &se) {
			body.Line = se.Line
		}
		writeJSON(w, http.StatusBadRequest, body)
		return
	}
	rep, err := catalog.Compatibility(r.Context(), s.deps.Catalog, doc)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "compatibility analysis failed", "error", err)
		writeError(w, http.StatusInternalServerError, "catalog_error", "Compatibility analysis failed")
		return
	}
	writeJSON(w, http.StatusOK, CompatibilityResponse{Report: rep})
}

func (s *Server) handleMachines(w http.ResponseWriter, r *http.Request) {
	machines, err := s.deps.Catalog.Machines(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to list machines", "error", err)
		writeError(w, http.StatusInternalServerError, "catalog_error", "Failed to list machines")
		return
	}
	writeJSON(w, http.StatusOK, MachinesResponse{Machines: machines})
}

func (s *Server) handleTestCases(w http.ResponseWriter, r *http.Request) {
	cases, err := s.deps.Catalog.TestCases(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to list test cases", "error", err)
		writeError(w, http.StatusInternalServerError, "catalog_error", "Failed to list test cases")
		return
	}
	writeJSON(w, http.StatusOK, TestCasesResponse{TestCases: cases})
}
