package server

import (
	"encoding/json"
	"net/http"

	"tpgen-hq/tpgen/pkg/catalog"
	"tpgen-hq/tpgen/pkg/check"
	"tpgen-hq/tpgen/pkg/plan"
)

// errorBody is the JSON shape of every non-2xx response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// GenerateResponse is returned by POST /api/v1/plans/generate.
type GenerateResponse struct {
	Document    string        `json:"document"`
	Filename    string        `json:"filename"`
	LineNumbers []int         `json:"lineNumbers"`
	Report      *check.Report `json:"report"`
}

// ConfigurationRequest is the body of POST /api/v1/configurations/validate.
type ConfigurationRequest struct {
	YAMLData *plan.Value `json:"yamlData"`
}

// ConfigurationResult is the answer to a configuration check.
type ConfigurationResult struct {
	Success bool                `json:"success"`
	Verdict string              `json:"verdict,omitempty"`
	Error   *ConfigurationError `json:"error,omitempty"`
}

// ConfigurationError locates the first failure in the serialized
// configuration.
type ConfigurationError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Key        string `json:"key,omitempty"`
	LineNumber int    `json:"lineNumber,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// MachinesResponse lists the catalog machines.
type MachinesResponse struct {
	Machines []plan.Machine `json:"machines"`
}

// TestCasesResponse lists the catalog test cases.
type TestCasesResponse struct {
	TestCases []plan.TestCase `json:"testCases"`
}

// CompatibilityResponse wraps a catalog compatibility report.
type CompatibilityResponse struct {
	*catalog.Report
}

func newConfigurationResult(rep *check.Report) ConfigurationResult {
	res := ConfigurationResult{Success: rep.Valid, Verdict: rep.Verdict}
	if rep.Valid {
		return res
	}
	code := rep.Code()
	if code == "" {
		code = string(rep.Stage)
	}
	msg := rep.ErrorCode
	if msg == "" {
		msg = rep.Message
	}
	res.Error = &ConfigurationError{
		Code:       code,
		Message:    msg,
		Key:        rep.KeyPath,
		LineNumber: rep.Line,
		Suggestion: rep.Suggestion,
	}
	return res
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, kind, message string) {
	writeJSON(w, code, errorBody{Error: kind, Message: message})
}
