// Package app wires the entitlement core, persistence, and the scan
// pipeline into the operations the local API exposes.
package app

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"roomscan/internal/billing"
	"roomscan/internal/entitlement"
	"roomscan/internal/rooms"
	"roomscan/internal/scanbudget"
	"roomscan/internal/scanclient"
	"roomscan/internal/session"
	"roomscan/internal/signin"
	"roomscan/pkg/domain"
	"roomscan/pkg/kvstore"
	"roomscan/pkg/storage"
	"roomscan/pkg/store"
)

const (
	persistTimeout = 3 * time.Second
	imageURLExpiry = 24 * time.Hour
	premiumMatches = 10 // backend cap; what premium requests
)

// Config holds runtime dependencies for the core application.
type Config struct {
	Limits   entitlement.Limits
	KV       kvstore.KV        // nil: in-memory
	Store    store.Store       // nil: in-memory
	Scans    *scanclient.Client
	Images   storage.ImageStore // nil: scans keep no durable image
	Verifier *signin.Verifier   // nil: sign-in disabled
	Clock    entitlement.Clock  // nil: time.Now
}

// App is the core application service.
type App struct {
	limits   entitlement.Limits
	session  *session.Session
	budget   *scanbudget.Budget
	ledger   *rooms.Ledger
	eval     *entitlement.Evaluator
	gate     *entitlement.Gatekeeper
	sessions *session.Repository
	budgets  *scanbudget.Repository
	scans    *scanclient.Client
	images   storage.ImageStore
	verifier *signin.Verifier
}

// New restores persisted client state and wires the core together.
func New(cfg Config) (*App, error) {
	if cfg.Scans == nil {
		return nil, fmt.Errorf("scan client required")
	}
	kv := cfg.KV
	if kv == nil {
		kv = kvstore.NewMemoryKV()
	}
	dataStore := cfg.Store
	if dataStore == nil {
		dataStore = store.NewMemoryStore()
	}
	limits := cfg.Limits.WithDefaults()

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	sessionRepo := session.NewRepository(kv, "")
	sess := session.New()
	if st, ok, err := sessionRepo.Load(ctx); err != nil {
		return nil, err
	} else if ok {
		sess = session.Restore(st)
	}

	budgetRepo := scanbudget.NewRepository(kv, "")
	budget := scanbudget.New(limits.FreeMonthlyScans, sess.Tier)
	if st, ok, err := budgetRepo.Load(ctx); err != nil {
		return nil, err
	} else if ok {
		budget = scanbudget.Restore(limits.FreeMonthlyScans, sess.Tier, st)
	}

	ledger, err := rooms.NewLedger(dataStore)
	if err != nil {
		return nil, err
	}

	eval := entitlement.NewEvaluator(limits, sess, budget, ledger)
	gate := entitlement.NewGatekeeper(eval, sess, budget, cfg.Clock)

	return &App{
		limits:   limits,
		session:  sess,
		budget:   budget,
		ledger:   ledger,
		eval:     eval,
		gate:     gate,
		sessions: sessionRepo,
		budgets:  budgetRepo,
		scans:    cfg.Scans,
		images:   cfg.Images,
		verifier: cfg.Verifier,
	}, nil
}

// Access returns the current entitlement decision. Pure read.
func (a *App) Access() domain.AccessDecision {
	return a.eval.Evaluate()
}

// ScanResult is the outcome of a scan attempt.
type ScanResult struct {
	Permitted  bool                       `json:"permitted"`
	Decision   domain.AccessDecision      `json:"decision"`
	ImageURL   string                     `json:"imageUrl,omitempty"`
	Detections []domain.DetectedFurniture `json:"detections,omitempty"`
	Matches    [][]domain.ProductMatch    `json:"matches,omitempty"`
}

// AttemptScan gates the scan and, when permitted, runs the pipeline:
// store the frame, detect furniture, fetch product matches per
// detection. Counters are consumed when the gate opens; a downstream
// pipeline failure does not refund them (client-side accounting,
// accepted trade-off).
func (a *App) AttemptScan(ctx context.Context, image []byte, filename, contentType string) (ScanResult, error) {
	if len(image) == 0 {
		return ScanResult{}, ErrEmptyImage
	}
	if !a.gate.OnScanAttempted() {
		return ScanResult{Permitted: false, Decision: a.eval.Evaluate()}, nil
	}
	a.persistBudget()
	a.persistSession()

	res := ScanResult{Permitted: true}

	if a.images != nil {
		key := "scans/" + uuid.NewString() + path.Ext(filename)
		if err := a.images.Put(ctx, key, bytes.NewReader(image), int64(len(image)), contentType); err != nil {
			slog.Warn("store scan image failed", "err", err)
		} else if url, err := a.images.PresignGet(ctx, key, imageURLExpiry); err != nil {
			slog.Warn("presign scan image failed", "err", err)
		} else {
			res.ImageURL = url
		}
	}

	detections, err := a.scans.Detect(ctx, image, filename, contentType)
	if err != nil {
		return res, fmt.Errorf("%w: %v", ErrScanServiceError, err)
	}
	res.Detections = detections

	if len(detections) > 0 {
		limit := a.eval.Evaluate().MatchLimit
		if limit == domain.Unlimited {
			limit = premiumMatches
		}
		matches, err := a.scans.MatchAll(ctx, detections, limit)
		if err != nil {
			return res, fmt.Errorf("%w: %v", ErrScanServiceError, err)
		}
		res.Matches = matches
	}

	res.Decision = a.eval.Evaluate()
	return res, nil
}

// SignIn verifies a provider ID token and records the identity. An
// empty token means the user abandoned the provider flow; that is
// reported as signin.ErrCancelled and mutates nothing.
func (a *App) SignIn(idToken string) (domain.Account, error) {
	if strings.TrimSpace(idToken) == "" {
		return domain.Account{}, signin.ErrCancelled
	}
	if a.verifier == nil {
		return domain.Account{}, ErrSignInDisabled
	}
	account, err := a.verifier.VerifyIDToken(idToken)
	if err != nil {
		return domain.Account{}, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}
	a.session.Authenticate(account)
	a.persistSession()
	return account, nil
}

// SignOut drops the identity and resets the tier to free.
func (a *App) SignOut() {
	a.session.SignOut()
	a.persistSession()
}

// ApplyTierChange applies a confirmed billing outcome.
func (a *App) ApplyTierChange(change billing.TierChange) error {
	if err := billing.Apply(a.session, change); err != nil {
		return err
	}
	a.persistSession()
	return nil
}

// DismissSoftPrompt records the nudge as shown without sign-in.
func (a *App) DismissSoftPrompt() {
	a.gate.DismissSoftPrompt()
	a.persistSession()
}

// AcceptSoftPrompt records the nudge as shown; the shell opens sign-in.
func (a *App) AcceptSoftPrompt() {
	a.gate.AcceptSoftPrompt()
	a.persistSession()
}

// CreateRoom creates a room when entitlement permits.
func (a *App) CreateRoom(name string) (domain.Room, error) {
	if !a.gate.OnRoomCreateAttempted() {
		return domain.Room{}, ErrNotPermitted
	}
	return a.ledger.AddRoom(name)
}

// RenameRoom updates a room's name.
func (a *App) RenameRoom(id, name string) (domain.Room, error) {
	return a.ledger.RenameRoom(id, name)
}

// RemoveRoom deletes a room and its items.
func (a *App) RemoveRoom(id string) error {
	return a.ledger.RemoveRoom(id)
}

// Rooms lists rooms with item counts.
func (a *App) Rooms() ([]domain.Room, error) {
	return a.ledger.Rooms()
}

// SaveItem saves a matched product to a room when entitlement permits.
func (a *App) SaveItem(roomID string, furniture domain.DetectedFurniture, product domain.ProductMatch, imageURL string) (domain.SavedItem, error) {
	if !a.gate.OnSaveAttempted() {
		return domain.SavedItem{}, ErrNotPermitted
	}
	return a.ledger.SaveItem(roomID, furniture, product, imageURL)
}

// RemoveItem deletes a saved item.
func (a *App) RemoveItem(id string) error {
	return a.ledger.RemoveItem(id)
}

// ItemsByRoom lists items saved to a room.
func (a *App) ItemsByRoom(roomID string) ([]domain.SavedItem, error) {
	return a.ledger.ItemsByRoom(roomID)
}

// Persistence is fire-and-forget: the in-memory state stays
// authoritative and a failed write only logs.
func (a *App) persistSession() {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := a.sessions.Save(ctx, a.session.Snapshot()); err != nil {
		slog.Warn("persist session failed", "err", err)
	}
}

func (a *App) persistBudget() {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := a.budgets.Save(ctx, a.budget.Snapshot()); err != nil {
		slog.Warn("persist scan budget failed", "err", err)
	}
}
