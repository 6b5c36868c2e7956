// Package generation runs the fixed six-pose composite sequence against the
// image-edit provider, strictly one request at a time.
package generation

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/providers/genai"
)

// Editor is the provider contract the orchestrator drives.
type Editor interface {
	EditImage(ctx context.Context, req genai.ImageEditRequest) (*genai.ImageAsset, error)
}

// ResultFunc receives each completed composite, in pose order, before the next
// request is issued. It is the sole progress-streaming mechanism.
type ResultFunc func(index int, artifact *domain.Artifact)

// Orchestrator issues the pose catalog sequentially and aborts the remainder
// of a run on the first failure.
type Orchestrator struct {
	editor  Editor
	limiter *rate.Limiter
	logger  *infra.Logger
}

// NewOrchestrator wires the provider and the pacing interval between calls.
// Pacing exists because the upstream service rate-limits aggressively; the
// first call of a run is never delayed.
func NewOrchestrator(editor Editor, interval time.Duration, logger *infra.Logger) (*Orchestrator, error) {
	if editor == nil {
		return nil, fmt.Errorf("generation: editor is required")
	}
	if logger == nil {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if interval > 0 {
		limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
	return &Orchestrator{editor: editor, limiter: limiter, logger: logger}, nil
}

// GenerateAll runs the six catalog poses in order. Both artifacts must be
// present; absence fails before any external call. Each success is delivered
// through onEachResult before the next request starts. Any failure aborts the
// remaining poses and is returned after the partials already delivered.
func (o *Orchestrator) GenerateAll(
	ctx context.Context,
	model, doll *domain.Artifact,
	background domain.Background,
	ratio domain.AspectRatio,
	runID string,
	onEachResult ResultFunc,
) ([]*domain.Artifact, error) {
	if model == nil || doll == nil {
		return nil, domain.ErrMissingInput
	}

	sources := []genai.SourceImage{
		{Data: model.Data, MIME: model.MIME},
		{Data: doll.Data, MIME: doll.MIME},
	}

	results := make([]*domain.Artifact, 0, len(Poses))
	for i, pose := range Poses {
		if err := o.limiter.Wait(ctx); err != nil {
			return results, fmt.Errorf("pose %d/%d: %w", i+1, len(Poses), err)
		}

		o.logger.Info().
			Str("run_id", runID).
			Str("pose", pose.ID).
			Int("index", i+1).
			Msg("generation: requesting composite")

		asset, err := o.editor.EditImage(ctx, genai.ImageEditRequest{
			Instruction: BuildInstruction(pose, background, ratio),
			Sources:     sources,
			AspectRatio: string(ratio),
			RequestID:   fmt.Sprintf("%s-%02d", runID, i+1),
		})
		if err != nil {
			o.logger.Warn().
				Err(err).
				Str("run_id", runID).
				Str("pose", pose.ID).
				Msg("generation: aborting run")
			return results, fmt.Errorf("pose %d/%d (%s): %w", i+1, len(Poses), pose.ID, err)
		}

		artifact := domain.NewArtifact(asset.Data, asset.MIME, asset.Width, asset.Height)
		results = append(results, artifact)
		if onEachResult != nil {
			onEachResult(i, artifact)
		}
	}

	o.logger.Info().
		Str("run_id", runID).
		Int("count", len(results)).
		Msg("generation: run completed")

	return results, nil
}
