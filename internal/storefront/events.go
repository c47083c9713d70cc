package storefront

// EventKind names what changed on a controller.
type EventKind string

const (
	SessionChanged       EventKind = "session_changed"
	CartChanged          EventKind = "cart_changed"
	CatalogRefreshed     EventKind = "catalog_refreshed"
	SoldCountsChanged    EventKind = "sold_counts_changed"
	CheckoutStateChanged EventKind = "checkout_state_changed"
	Notice               EventKind = "notice"
)

// Event is delivered to subscribers after the controller state has changed.
// Message is set for notices.
type Event struct {
	Kind    EventKind `json:"kind"`
	Message string    `json:"message,omitempty"`
}

// CheckoutState is the state of the latest checkout attempt.
type CheckoutState string

const (
	CheckoutIdle      CheckoutState = "idle"
	CheckoutUploading CheckoutState = "uploading"
	CheckoutSuccess   CheckoutState = "success"
	CheckoutFailed    CheckoutState = "failed"
)
