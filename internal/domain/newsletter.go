package domain

import "time"

// NewsletterSubscription — подписка на рассылку.
type NewsletterSubscription struct {
	Email     string
	CreatedAt time.Time
}
