package providers

import (
	"context"

	"github.com/carelink/er-routing/internal/domain/entities"
)

// RecommendationPublisher receives finished result sets at the presentation
// boundary. Implementations must not mutate the recommendation.
type RecommendationPublisher interface {
	Publish(ctx context.Context, rec *entities.Recommendation)
}
