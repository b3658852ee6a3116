package store

import (
	"strings"
	"time"

	"airmatch/internal/classify"
	"airmatch/internal/normalize"
)

// Artist is a canonical artist in the local library.
type Artist struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Work is a canonical song identity: a title plus an ordered artist set.
// Works are immutable once created except for corrective edits and are
// never duplicated for the same normalized (artist-set, title).
type Work struct {
	ID        int64
	Title     string
	Artists   []Artist
	CreatedAt time.Time
}

// ArtistNames returns the ordered artist names joined for display.
func (w Work) ArtistNames() string {
	names := make([]string, 0, len(w.Artists))
	for _, a := range w.Artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, " & ")
}

// NormKey computes the deduplication key for a work: the signature of its
// canonical artist set and title.
func (w Work) NormKey() string {
	return normalize.Signature(w.ArtistNames(), w.Title)
}

// Recording is a specific performed version of a Work. Its existence is
// irrelevant to matching, which resolves at the Work level.
type Recording struct {
	ID          int64
	WorkID      int64
	Title       string
	VersionType normalize.VersionType
	CreatedAt   time.Time
}

// BroadcastLog is one play event as ingested. Raw fields are immutable;
// only WorkID and MatchReason are written, exactly once per link.
type BroadcastLog struct {
	ID          int64
	Station     string
	RawArtist   string
	RawTitle    string
	Signature   string
	PlayedAt    time.Time
	WorkID      int64
	MatchReason string
	CreatedAt   time.Time
}

// BridgeState is the lifecycle state of an identity bridge. A tagged
// state rather than a boolean leaves room for future states without a
// schema break.
type BridgeState string

const (
	BridgeActive  BridgeState = "active"
	BridgeRevoked BridgeState = "revoked"
)

// Bridge is a permanent signature-to-work mapping confirmed by a human or
// promoted by an auto-accept rule. Bridges are never deleted; revocation
// is a reversible soft state.
type Bridge struct {
	ID        int64
	Signature string
	WorkID    int64
	RefArtist string
	RefTitle  string
	State     BridgeState
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Alias maps a raw artist string to a resolved canonical artist name.
// A nil Canonical means the raw name is known but intentionally
// unmatched: candidate generation short-circuits to no match.
type Alias struct {
	ID        int64
	RawName   string
	Canonical *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Ignored reports whether the alias explicitly suppresses matching.
func (a Alias) Ignored() bool {
	return a.Canonical == nil
}

// SplitStatus is the review status of a proposed artist split.
type SplitStatus string

const (
	SplitPending  SplitStatus = "pending"
	SplitApproved SplitStatus = "approved"
	SplitRejected SplitStatus = "rejected"
)

// ProposedSplit records a raw artist string suspected of naming multiple
// artists. Splits are advisory until a human approves or rejects them;
// automatic code paths never consume a pending split.
type ProposedSplit struct {
	ID         int64
	RawArtist  string
	Parts      []string
	Confidence float64
	Status     SplitStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// QueueItem is one row per unmatched signature awaiting human review.
type QueueItem struct {
	ID              int64
	Signature       string
	RawArtist       string
	RawTitle        string
	Occurrences     int
	SuggestedWorkID int64
	Category        classify.Category
	ArtistScore     float64
	TitleScore      float64
	Warnings        []classify.Warning
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AuditSource identifies what triggered a linking action.
type AuditSource string

const (
	AuditSourceAuto   AuditSource = "auto"
	AuditSourceManual AuditSource = "manual"
	AuditSourceBridge AuditSource = "bridge"
)

// LinkAudit captures one linking action and the prior state needed to
// undo it. Every link, automatic or manual, writes exactly one audit.
type LinkAudit struct {
	ID        string
	Signature string
	WorkID    int64
	LogIDs    []int64
	Source    AuditSource
	Undone    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RunKind distinguishes full discovery rebuilds from re-evaluations.
type RunKind string

const (
	RunDiscovery  RunKind = "discovery"
	RunReEvaluate RunKind = "reevaluate"
)

// RunStatus is the lifecycle of a discovery run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// Run records one discovery or re-evaluation batch: its progress (the
// polled progress store), failure count, and whether the vector index was
// unavailable so results are partial.
type Run struct {
	ID           string
	Kind         RunKind
	Status       RunStatus
	ItemsDone    int
	ItemsTotal   int
	Failures     int
	Degraded     bool
	Checkpoint   string
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// SignatureGroup aggregates all unmatched broadcast logs sharing one
// signature, with a representative raw pair for scoring and display.
type SignatureGroup struct {
	Signature   string
	RawArtist   string
	RawTitle    string
	Occurrences int
}
