package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sakif/art-market/internal/apperror"
	"github.com/sakif/art-market/internal/metrics"
	"github.com/sakif/art-market/internal/model"
	"github.com/sakif/art-market/internal/storage"
)

// DefaultTimeout bounds one ingestion end to end.
const DefaultTimeout = 30 * time.Second

// slowIngest is the point after which a successful ingestion is logged as slow.
const slowIngest = 10 * time.Second

// Ingestor turns raw upload bytes into a stored original+thumbnail pair.
//
// TIMEOUT SEMANTICS:
// The work runs on its own goroutine. If the deadline passes first, Ingest
// returns ProcessingTimeout and the goroutine's result is dropped. The
// goroutine is not killed; it checks the deadline before persisting, so in
// the common case it writes nothing. A write already in flight when the
// deadline hits leaves an orphaned file that nothing references.
type Ingestor struct {
	validator *Validator
	store     storage.Store
	timeout   time.Duration
	logger    *slog.Logger
	newID     func() string
}

// NewIngestor wires an Ingestor. timeout <= 0 means DefaultTimeout.
func NewIngestor(validator *Validator, store storage.Store, timeout time.Duration, logger *slog.Logger) *Ingestor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Ingestor{
		validator: validator,
		store:     store,
		timeout:   timeout,
		logger:    logger,
		newID:     func() string { return uuid.New().String() },
	}
}

type ingestResult struct {
	artifact *model.Artifact
	err      error
}

// Ingest validates, resizes, encodes and persists data.
//
// The caller's cancellation is not propagated into the pipeline; only the
// ingestion deadline bounds it. Errors are apperror kinds: the validator's
// kinds unchanged, ImageProcessing, or ProcessingTimeout.
func (i *Ingestor) Ingest(ctx context.Context, data []byte) (*model.Artifact, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), i.timeout)
	defer cancel()

	// Buffered so the worker never blocks on send after we stop listening.
	done := make(chan ingestResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- ingestResult{err: apperror.ImageProcessing(fmt.Errorf("panic: %v", r))}
			}
		}()
		art, err := i.process(ctx, data)
		done <- ingestResult{artifact: art, err: err}
	}()

	var res ingestResult
	select {
	case res = <-done:
	case <-ctx.Done():
		// A result that landed together with the deadline still counts.
		select {
		case res = <-done:
		default:
			res = ingestResult{err: apperror.ProcessingTimeout()}
		}
	}
	// A failure after the deadline is the deadline's doing, whatever the
	// worker reported.
	if res.err != nil && ctx.Err() != nil {
		res.err = apperror.ProcessingTimeout()
	}

	elapsed := time.Since(start)
	metrics.RecordIngest(outcome(res.err), elapsed)

	if res.err != nil {
		i.logger.Warn("image ingestion failed",
			slog.String("error", res.err.Error()),
			slog.Duration("duration", elapsed),
		)
		return nil, res.err
	}

	if elapsed > slowIngest {
		i.logger.Warn("slow image ingestion",
			slog.String("artifactID", res.artifact.ID),
			slog.Duration("duration", elapsed),
			slog.Int("width", res.artifact.Width),
			slog.Int("height", res.artifact.Height),
		)
	}
	i.logger.Info("image ingested",
		slog.String("artifactID", res.artifact.ID),
		slog.String("format", res.artifact.Format),
		slog.Int("thumbWidth", res.artifact.ThumbWidth),
		slog.Int("thumbHeight", res.artifact.ThumbHeight),
	)

	return res.artifact, nil
}

// process is the all-or-nothing body of Ingest.
//
// Both encodings are produced in memory before anything is written, and a
// failed thumbnail write removes the original again.
func (i *Ingestor) process(ctx context.Context, data []byte) (*model.Artifact, error) {
	res, err := i.validator.Validate(data)
	if err != nil {
		return nil, err
	}

	id := i.newID()
	ext := Extension(res.Format)
	contentType := ContentType(res.Format)

	thumb := Thumbnail(res.Image)
	encoded, err := Encode(thumb, res.Format)
	if err != nil {
		return nil, apperror.ImageProcessing(err)
	}

	if ctx.Err() != nil {
		return nil, apperror.ProcessingTimeout()
	}

	art := &model.Artifact{
		ID:            id,
		OriginalName:  ArtifactName(id, storage.Originals, ext),
		ThumbnailName: ArtifactName(id, storage.Thumbnails, ext),
		Format:        res.Format,
		Width:         res.Width,
		Height:        res.Height,
		ThumbWidth:    thumb.Bounds().Dx(),
		ThumbHeight:   thumb.Bounds().Dy(),
	}

	if err := i.store.Put(ctx, storage.Originals, art.OriginalName, data, contentType); err != nil {
		return nil, i.persistError(ctx, err)
	}

	if err := i.store.Put(ctx, storage.Thumbnails, art.ThumbnailName, encoded, contentType); err != nil {
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if delErr := i.store.Delete(cleanupCtx, storage.Originals, art.OriginalName); delErr != nil {
			i.logger.Error("failed to remove original after thumbnail write error",
				slog.String("name", art.OriginalName),
				slog.String("error", delErr.Error()),
			)
		}
		return nil, i.persistError(ctx, err)
	}

	return art, nil
}

// persistError reports a write cut short by the ingestion deadline as a
// timeout rather than a processing failure.
func (i *Ingestor) persistError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return apperror.ProcessingTimeout()
	}
	return apperror.ImageProcessing(err)
}

// ArtifactName builds {id}_{original|thumbnail}.{ext}.
func ArtifactName(id string, ns storage.Namespace, ext string) string {
	kind := "original"
	if ns == storage.Thumbnails {
		kind = "thumbnail"
	}
	return fmt.Sprintf("%s_%s.%s", id, kind, ext)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, apperror.ErrProcessingTimeout):
		return metrics.OutcomeTimeout
	case errors.Is(err, apperror.ErrValidation):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeFailed
	}
}
