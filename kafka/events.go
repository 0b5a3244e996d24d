package kafka

import "time"

// ProductCreatedEvent is emitted when a new listing is created
type ProductCreatedEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	ProductID uint      `json:"product_id"`
	OwnerID   uint      `json:"owner_id"`
	Title     string    `json:"title"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// FavoriteToggledEvent is emitted when favorite membership flips
type FavoriteToggledEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	UserID    uint      `json:"user_id"`
	ProductID uint      `json:"product_id"`
	Favorited bool      `json:"favorited"`
	Timestamp time.Time `json:"timestamp"`
}

// Event types
const (
	EventTypeProductCreated  = "product.created"
	EventTypeFavoriteToggled = "favorite.toggled"
)

// Kafka topics
const (
	TopicProductCreated  = "product-created"
	TopicFavoriteToggled = "favorite-toggled"
)
