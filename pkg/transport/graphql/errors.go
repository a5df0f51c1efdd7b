package graphql

import (
	"strings"

	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Code classifies a GraphQL layer failure
type Code string

const (
	CodeInvalidQuery          Code = "invalid-query"
	CodeInvalidPersistedQuery Code = "invalid-persisted-query"
	CodeGraphQLError          Code = "graphql-error"
	CodeException             Code = "exception"
)

// Error is the error half of a Result
type Error struct {
	Code          Code
	Message       string
	Errors        gqlerror.List // errors reported by the server, if any
	OperationName string
}

func (e *Error) Error() string {
	return "graphql " + string(e.Code) + ": " + e.Message
}

// notFoundMessage is what servers report for an unknown persisted query hash
const notFoundMessage = "PersistedQueryNotFound"

func persistedQueryNotFound(list gqlerror.List) bool {
	for _, err := range list {
		if err.Message == notFoundMessage {
			return true
		}
		if code, _ := err.Extensions["code"].(string); code == "PERSISTED_QUERY_NOT_FOUND" {
			return true
		}
	}
	return false
}

func fromList(list gqlerror.List, operationName string) *Error {
	msgs := make([]string, 0, len(list))
	for _, err := range list {
		msgs = append(msgs, err.Message)
	}
	return &Error{
		Code:          CodeGraphQLError,
		Message:       strings.Join(msgs, ", "),
		Errors:        list,
		OperationName: operationName,
	}
}
