package ports

import (
	"context"
	"delivery-quote-service/internal/domain"
)

// Port: hands an accepted delivery draft to downstream consumers.
type QuotePublisher interface {
	PublishAccepted(ctx context.Context, draft domain.DeliveryDraft) error
}
