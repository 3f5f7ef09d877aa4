package domain

import "time"

type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// Unlimited marks a limit that does not apply (premium tier).
const Unlimited = -1

// Account identifies a signed-in user as reported by the sign-in provider.
type Account struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl,omitempty"`
	Provider    string `json:"provider,omitempty"`
}

// BoundingBox locates a detection within the image, normalized to 0..1.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DetectedFurniture is a single detection returned by the vision backend.
type DetectedFurniture struct {
	ID         string      `json:"id"`
	Label      string      `json:"label"`
	Confidence float64     `json:"confidence"`
	Box        BoundingBox `json:"boundingBox"`
}

// ProductMatch is a retail product matched to a detected item.
type ProductMatch struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Currency   string  `json:"currency"`
	ImageURL   string  `json:"imageUrl"`
	ProductURL string  `json:"productUrl"`
	Retailer   string  `json:"retailer"`
	Similarity float64 `json:"similarity"`
}

// Room is an organizational container for saved items.
type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ItemCount int       `json:"itemCount"`
	CreatedAt time.Time `json:"createdAt"`
}

// SavedItem links a detection and its chosen product match to a room.
type SavedItem struct {
	ID        string            `json:"id"`
	RoomID    string            `json:"roomId"`
	Furniture DetectedFurniture `json:"furniture"`
	Product   ProductMatch      `json:"selectedProduct"`
	ImageURL  string            `json:"imageUrl,omitempty"`
	SavedAt   time.Time         `json:"savedAt"`
}

// AccessDecision is the set of gating decisions the UI branches on.
// Derived fresh on every query, never persisted.
type AccessDecision struct {
	IsAuthenticated bool `json:"isAuthenticated"`
	IsPremium       bool `json:"isPremium"`

	CanScan              bool `json:"canScan"`
	ShouldShowSoftPrompt bool `json:"shouldShowSoftPrompt"`
	ShouldShowHardGate   bool `json:"shouldShowHardGate"`

	CanSave       bool `json:"canSave"`
	CanCreateRoom bool `json:"canCreateRoom"`

	// ScansRemaining, RoomLimit and MatchLimit report Unlimited (-1)
	// for premium accounts.
	ScansRemaining int `json:"scansRemaining"`
	RoomCount      int `json:"roomCount"`
	RoomLimit      int `json:"roomLimit"`
	MatchLimit     int `json:"matchLimit"`

	LifetimeScans int `json:"totalScansEver"`
}
