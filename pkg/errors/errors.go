package errors

import "fmt"

// Error codes
const (
	CodeGachaError = "GACHA_ERROR"
	CodeFetch      = "FETCH_ERROR"
	CodeParse      = "PARSE_ERROR"
	CodePipeline   = "PIPELINE_ERROR"
	CodeValidation = "VALIDATION_ERROR"
	CodeCache      = "CACHE_ERROR"
)

type GachaError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *GachaError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *GachaError) Unwrap() error {
	return e.Cause
}

func NewGachaError(message, code string, statusCode int, context map[string]any) *GachaError {
	return &GachaError{
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		Context:    context,
	}
}

func (e *GachaError) WithCause(cause error) *GachaError {
	e.Cause = cause
	return e
}

// FetchError reports a network-layer failure for one source page.
type FetchError struct {
	*GachaError
	Source string
	URL    string
}

func NewFetchError(message, source, url string, cause error) *FetchError {
	return &FetchError{
		GachaError: &GachaError{
			Message:    message,
			Code:       CodeFetch,
			StatusCode: 502,
			Context: map[string]any{
				"source": source,
				"url":    url,
			},
			Cause: cause,
		},
		Source: source,
		URL:    url,
	}
}

// ParseError reports a single banner table that could not be parsed.
type ParseError struct {
	*GachaError
	Source     string
	TableIndex int
}

func NewParseError(message, source string, tableIndex int, cause error) *ParseError {
	return &ParseError{
		GachaError: &GachaError{
			Message:    message,
			Code:       CodeParse,
			StatusCode: 500,
			Context: map[string]any{
				"source":      source,
				"table_index": tableIndex,
			},
			Cause: cause,
		},
		Source:     source,
		TableIndex: tableIndex,
	}
}

// PipelineError is returned once every fetch-and-parse attempt has failed.
type PipelineError struct {
	*GachaError
	Attempts int
}

func NewPipelineError(message string, attempts int, cause error) *PipelineError {
	return &PipelineError{
		GachaError: &GachaError{
			Message:    message,
			Code:       CodePipeline,
			StatusCode: 500,
			Context: map[string]any{
				"attempts": attempts,
			},
			Cause: cause,
		},
		Attempts: attempts,
	}
}

type ValidationError struct {
	*GachaError
	Field string
	Value interface{}
}

func NewValidationError(message, field string, value interface{}) *ValidationError {
	return &ValidationError{
		GachaError: &GachaError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: 400,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

type CacheError struct {
	*GachaError
	Operation string
	Key       string
}

func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		GachaError: &GachaError{
			Message:    message,
			Code:       CodeCache,
			StatusCode: 500,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

// StatusCode returns the HTTP status carried by err, or fallback.
func StatusCode(err error, fallback int) int {
	for err != nil {
		switch e := err.(type) {
		case *PipelineError:
			return e.StatusCode
		case *FetchError:
			return e.StatusCode
		case *ParseError:
			return e.StatusCode
		case *CacheError:
			return e.StatusCode
		case *ValidationError:
			return e.StatusCode
		case *GachaError:
			return e.StatusCode
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return fallback
		}
		err = u.Unwrap()
	}
	return fallback
}
