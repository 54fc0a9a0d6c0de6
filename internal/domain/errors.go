package domain

import "errors"

// Codigos estaveis para a camada de conversa traduzir em mensagens ao usuario.
const (
	CodeMasterMissing          = "MASTER_MISSING"
	CodeProductNotFound        = "PRODUCT_NOT_FOUND"
	CodeUnsupportedFixing      = "UNSUPPORTED_FIXING"
	CodeSourceOfTruthViolation = "SOURCE_OF_TRUTH_VIOLATION"
	CodeFormulaNotFound        = "FORMULA_NOT_FOUND"
	CodeInvalidRequest         = "INVALID_REQUEST"
	CodeInvalidLayer           = "INVALID_LAYER"
	CodeSpanExceeded           = "SPAN_EXCEEDED"
)

// QuoteError is the typed failure returned by the engine. Two QuoteErrors
// match under errors.Is when their codes match.
type QuoteError struct {
	Code   string
	Detail string
}

func (e *QuoteError) Error() string {
	if e.Detail == "" {
		return e.Code
	}
	return e.Code + ": " + e.Detail
}

func (e *QuoteError) Is(target error) bool {
	t, ok := target.(*QuoteError)
	return ok && t.Code == e.Code
}

var (
	ErrMasterMissing          = &QuoteError{Code: CodeMasterMissing, Detail: "no level 1 knowledge layer"}
	ErrProductNotFound        = &QuoteError{Code: CodeProductNotFound}
	ErrUnsupportedFixing      = &QuoteError{Code: CodeUnsupportedFixing}
	ErrSourceOfTruthViolation = &QuoteError{Code: CodeSourceOfTruthViolation}
	ErrFormulaNotFound        = &QuoteError{Code: CodeFormulaNotFound}
	ErrInvalidRequest         = &QuoteError{Code: CodeInvalidRequest}
	ErrInvalidLayer           = &QuoteError{Code: CodeInvalidLayer}
)

// ErrorCode extracts the engine code from any wrapped error, or "" when the
// error did not originate in the engine.
func ErrorCode(err error) string {
	var qe *QuoteError
	if errors.As(err, &qe) {
		return qe.Code
	}
	return ""
}
