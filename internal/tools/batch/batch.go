package batch

import (
	"context"
	"encoding/json"
	"fmt"
)

// Item statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is the outcome of one command in a batch.
type Result struct {
	Command  string `json:"command"`
	Status   string `json:"status"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

// BatchResult represents the aggregated results of a batch operation
type BatchResult struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Results    []Result `json:"results"`
}

// ParseStringOrArray parses a parameter that can be either a single string or an array of strings
func ParseStringOrArray(param any, paramName string) ([]string, error) {
	if param == nil {
		return nil, fmt.Errorf("%s is required", paramName)
	}

	var result []string

	switch v := param.(type) {
	case string:
		if v == "" {
			return nil, fmt.Errorf("%s cannot be empty", paramName)
		}
		result = []string{v}
	case []any:
		if len(v) == 0 {
			return nil, fmt.Errorf("%s cannot be empty", paramName)
		}
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", paramName, i)
			}
			if str == "" {
				return nil, fmt.Errorf("%s[%d] cannot be empty", paramName, i)
			}
			result = append(result, str)
		}
	case []string:
		if len(v) == 0 {
			return nil, fmt.Errorf("%s cannot be empty", paramName)
		}
		result = append(result, v...)
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", paramName)
	}

	return result, nil
}

// Summarize aggregates results.
func Summarize(results []Result) BatchResult {
	br := BatchResult{
		Total:   len(results),
		Results: results,
	}
	for _, r := range results {
		if r.Status == StatusSuccess {
			br.Successful++
		} else {
			br.Failed++
		}
	}
	return br
}

// FormatResults creates a formatted JSON string from batch results
func FormatResults(results []Result) string {
	jsonBytes, _ := json.MarshalIndent(Summarize(results), "", "  ")
	return string(jsonBytes)
}

// ProcessBatch runs fn on each command in order. Once ctx is done the
// remaining commands are not run and are reported with the context error.
func ProcessBatch(ctx context.Context, commands []string, fn func(ctx context.Context, command string) (string, error)) []Result {
	results := make([]Result, 0, len(commands))

	for _, command := range commands {
		if err := ctx.Err(); err != nil {
			results = append(results, NewErrorResult(command, err))
			continue
		}

		res, err := fn(ctx, command)
		if err != nil {
			results = append(results, NewErrorResult(command, err))
			continue
		}
		results = append(results, NewSuccessResult(command, res))
	}

	return results
}

// NewSuccessResult creates a success result
func NewSuccessResult(command, response string) Result {
	return Result{
		Command:  command,
		Status:   StatusSuccess,
		Response: response,
	}
}

// NewErrorResult creates an error result
func NewErrorResult(command string, err error) Result {
	return Result{
		Command: command,
		Status:  StatusError,
		Error:   err.Error(),
	}
}
