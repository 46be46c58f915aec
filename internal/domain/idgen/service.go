// Package idgen exposes ID allocation and decoding to the transport layer.
// It turns allocator failures into AppErrors and traces every call.
package idgen

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"snowid/internal/core/apperror"
	"snowid/internal/core/snowflake"
	"snowid/pkg/logger"
)

var tracer = otel.Tracer("snowid/idgen")

// Service allocates and decodes Snowflake IDs.
type Service struct {
	gen snowflake.Generator
}

// NewService creates a Service on top of gen.
func NewService(gen snowflake.Generator) *Service {
	return &Service{gen: gen}
}

// Next allocates a new ID.
func (s *Service) Next(ctx context.Context) (snowflake.ID, error) {
	if s == nil || s.gen == nil {
		return 0, apperror.NewInternal(fmt.Errorf("idgen service is not initialized"))
	}

	ctx, span := tracer.Start(ctx, "idgen.Next", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	id, err := s.gen.Allocate()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "allocate")
		return 0, s.mapAllocateError(ctx, err)
	}

	span.SetAttributes(
		attribute.String("snowid.id", id.String()),
		attribute.Int("snowid.node_id", int(id.NodeID())),
		attribute.Int("snowid.sequence", int(id.Sequence())),
	)
	log(ctx).Debugw("id allocated", "id", id.String())

	return id, nil
}

// MaxBatch bounds NextN.
const MaxBatch = 1000

// NextN allocates n IDs in order. Either all n are returned or none.
func (s *Service) NextN(ctx context.Context, n int) ([]snowflake.ID, error) {
	if n < 1 || n > MaxBatch {
		return nil, apperror.NewInvalidInput("count", n).
			WithDetail("min", 1).
			WithDetail("max", MaxBatch)
	}

	ctx, span := tracer.Start(ctx, "idgen.NextN", trace.WithAttributes(attribute.Int("snowid.count", n)))
	defer span.End()

	ids := make([]snowflake.ID, 0, n)
	for i := 0; i < n; i++ {
		id, err := s.Next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "allocate")
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Timestamp parses raw as an ID and returns its Unix millisecond timestamp.
func (s *Service) Timestamp(ctx context.Context, raw string) (int64, error) {
	_, span := tracer.Start(ctx, "idgen.Timestamp")
	defer span.End()

	id, err := parse(raw)
	if err != nil {
		span.SetStatus(codes.Error, "parse")
		return 0, err
	}
	return snowflake.DecodeTimestamp(id), nil
}

// Inspect parses raw as an ID and splits it into its fields.
func (s *Service) Inspect(ctx context.Context, raw string) (snowflake.Parts, error) {
	_, span := tracer.Start(ctx, "idgen.Inspect")
	defer span.End()

	id, err := parse(raw)
	if err != nil {
		span.SetStatus(codes.Error, "parse")
		return snowflake.Parts{}, err
	}
	return snowflake.Decompose(id), nil
}

func log(ctx context.Context) *logger.Logger {
	return logger.FromContext(ctx).WithComponent("idgen")
}

func parse(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseID(raw)
	if err != nil {
		return 0, apperror.NewInvalidInput("id", raw).WithCause(err)
	}
	return id, nil
}

func (s *Service) mapAllocateError(ctx context.Context, err error) error {
	var clockErr *snowflake.ClockError
	switch {
	case errors.As(err, &clockErr):
		log(ctx).Warnw("clock moved backward, refusing to allocate",
			"last_ms", clockErr.Last+snowflake.Epoch,
			"now_ms", clockErr.Now+snowflake.Epoch,
			"behind_ms", clockErr.Last-clockErr.Now,
		)
		return apperror.NewClockMovedBackward(clockErr.Last + snowflake.Epoch).
			WithDetail("behind_ms", clockErr.Last-clockErr.Now).
			WithCause(err)
	case errors.Is(err, snowflake.ErrClockMovedBackward):
		log(ctx).Warnw("clock moved backward, refusing to allocate", "error", err)
		return apperror.NewClockMovedBackward(0).WithCause(err)
	case errors.Is(err, snowflake.ErrTimestampOutOfRange):
		log(ctx).Errorw("system clock outside id range", "error", err)
		return apperror.NewTimestampOutOfRange().WithCause(err)
	default:
		return apperror.NewInternal(err)
	}
}
