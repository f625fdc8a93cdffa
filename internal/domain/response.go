package domain

import (
	stderrors "errors"

	"github.com/kapu/genshin-gacha-api/pkg/errors"
)

const fetchErrorPrefix = "unable to fetch gacha data"

// GachaResponse is the success body of GET /gacha and of offline exports.
type GachaResponse struct {
	LastUpdated    string          `json:"last_updated"`
	TotalPools     int             `json:"total_pools"`
	LatestVersions []string        `json:"latest_versions"`
	GachaData      []*BannerRecord `json:"gacha_data"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// NewErrorResponse renders err as a failure body. Pipeline errors already carry
// the prefix.
func NewErrorResponse(err error) ErrorResponse {
	var pipeErr *errors.PipelineError
	if stderrors.As(err, &pipeErr) {
		return ErrorResponse{Error: pipeErr.Error()}
	}
	return ErrorResponse{Error: fetchErrorPrefix + ": " + err.Error()}
}

type HealthStatus string

const (
	HealthStatusHealthy HealthStatus = "healthy"
)

type HealthResponse struct {
	Status    HealthStatus `json:"status"`
	Timestamp string       `json:"timestamp"`
}
