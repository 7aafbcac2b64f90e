package analysis

import (
	"ProctorGolang/pkg/response"
	"net/http"
)

var (
	ErrModelNotLoaded  = response.NewError(http.StatusServiceUnavailable, "landmark model not loaded")
	ErrDetectionFailed = response.NewError(http.StatusBadGateway, "landmark detection failed")
)
