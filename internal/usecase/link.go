package usecase

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/tubesage"
	"github.com/totegamma/tubesage/platform"
)

type LinkUsecase struct {
	resolver Resolver
}

func NewLinkUsecase(resolver Resolver) *LinkUsecase {
	return &LinkUsecase{resolver: resolver}
}

// Resolve maps a raw URL or a (platform, id) pair to a canonical key. Errors
// are domain.InputError, domain.ResolutionError or domain.ProbeError.
func (uc *LinkUsecase) Resolve(ctx context.Context, q platform.Query) (tubesage.ResourceKey, error) {
	ctx, span := tracer.Start(ctx, "Usecase.Link.Resolve")
	defer span.End()

	key, err := uc.resolver.Resolve(ctx, q)
	if err != nil {
		span.RecordError(err)
		return tubesage.ResourceKey{}, err
	}
	span.SetAttributes(attribute.String("key", key.String()))
	return key, nil
}
