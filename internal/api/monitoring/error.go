package monitoring

import (
	"ProctorGolang/pkg/response"
	"net/http"
)

var (
	ErrAttemptNotFound   = response.NewError(http.StatusNotFound, "exam attempt not found")
	ErrWarningNotFound   = response.NewError(http.StatusNotFound, "warning not found")
	ErrExpulsionNotFound = response.NewError(http.StatusNotFound, "expulsion not found")
	ErrConfigNotFound    = response.NewError(http.StatusNotFound, "monitoring config not found")
	ErrConfigExists      = response.NewError(http.StatusConflict, "monitoring config already exists for exam")
	ErrExpulsionExists   = response.NewError(http.StatusConflict, "expulsion already exists for attempt")
	ErrUnknownEventKind  = response.NewError(http.StatusBadRequest, "unknown event kind")
)
