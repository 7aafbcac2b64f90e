package analysisService

import (
	"ProctorGolang/internal/entity"
	"ProctorGolang/pkg/vision"
	"context"

	"github.com/sirupsen/logrus"
)

type IAnalysisService interface {
	// AnalyzeFrame turns one encoded camera frame into measurements and
	// integrity events. Degraded inputs (undecodable image, no face) yield
	// a populated result, not an error; the only error is an unavailable
	// landmark provider.
	AnalyzeFrame(ctx context.Context, frame []byte) (entity.FrameAnalysisResult, error)
	Health() vision.Status
}

type analysisService struct {
	log      *logrus.Logger
	provider vision.ILandmarkProvider
}

func New(log *logrus.Logger, provider vision.ILandmarkProvider) IAnalysisService {
	return &analysisService{
		log:      log,
		provider: provider,
	}
}

func (s *analysisService) Health() vision.Status {
	return s.provider.Status()
}
