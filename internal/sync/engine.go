// Package sync implements the bidirectional reconciliation protocol between
// the local record store and the remote authoritative store.
//
// Pull (remote → local) is additive and updating only: it never deletes
// local rows, so it is safe to run frequently and speculatively. Publish
// (local → remote) diffs the two datasets, refuses to mutate anything when
// the remote changed behind the last-sync watermark, and otherwise applies
// its batch best-effort with soft-deletes first.
package sync

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"

	"github.com/vonshlovens/siteqa/internal/remote"
	"github.com/vonshlovens/siteqa/internal/store"
)

// progressEvery is how many applied records sit between two progress
// broadcasts during pull.
const progressEvery = 25

// RecordStore is the local durable table the engine reconciles into.
// Implemented by internal/store.
type RecordStore interface {
	ListAll(ctx context.Context) ([]store.Record, error)
	GetByRemoteID(ctx context.Context, remoteID string) (*store.Record, error)
	Insert(ctx context.Context, f store.Fields) (int64, error)
	UpdateByLocalID(ctx context.Context, localID int64, f store.Fields) (int64, error)
	AttachRemoteID(ctx context.Context, localID int64, remoteID string) (int64, error)
	DeleteByLocalID(ctx context.Context, localID int64) (int64, error)
}

// RemoteStore is the client for the authoritative backend. Implemented by
// internal/remote.
type RemoteStore interface {
	Probe(ctx context.Context) error
	Login(ctx context.Context) error
	ListAll(ctx context.Context, includeDeleted bool) ([]remote.Record, error)
	Create(ctx context.Context, f remote.Fields) (*remote.Record, error)
	Update(ctx context.Context, id uuid.UUID, f remote.Fields) (*remote.Record, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// Engine orchestrates pull and publish. It does not serialize concurrent
// invocations; callers gate on State().Phase.InFlight() before starting
// another sync.
type Engine struct {
	store   RecordStore
	remote  RemoteStore
	state   *StateTracker
	mark    *Watermark
	exclude []string
}

// Options configures an Engine
type Options struct {
	// DataDir is where the sync watermark file lives
	DataDir string
	// ExcludeSites are glob patterns; matching local records are never
	// published
	ExcludeSites []string
}

// NewEngine creates an engine over the two stores
func NewEngine(recordStore RecordStore, remoteStore RemoteStore, opts Options) *Engine {
	return &Engine{
		store:   recordStore,
		remote:  remoteStore,
		state:   NewStateTracker(),
		mark:    NewWatermark(opts.DataDir),
		exclude: opts.ExcludeSites,
	}
}

// State returns the current sync state
func (e *Engine) State() State {
	return e.state.Get()
}

// Subscribe registers a sync state observer; the returned function
// unsubscribes it
func (e *Engine) Subscribe(cb func(State)) func() {
	return e.state.Subscribe(cb)
}

// LastSync returns the watermark of the most recent successful pull
func (e *Engine) LastSync() (time.Time, bool) {
	return e.mark.Get()
}

// ResetWatermark discards the last-sync timestamp
func (e *Engine) ResetWatermark() error {
	return e.mark.Reset()
}

// StartPull runs Pull in the background; observe completion via the sync
// state
func (e *Engine) StartPull(ctx context.Context, silent bool) {
	go e.Pull(ctx, silent)
}

// Pull runs one remote-to-local reconciliation pass. It never returns an
// error: every failure is absorbed into the sync state. With silent set,
// state broadcasts are suppressed entirely so a nested pull (pre/postflight
// inside publish) cannot clobber user-visible state.
func (e *Engine) Pull(ctx context.Context, silent bool) {
	if !silent {
		e.state.begin(time.Now())
	}

	// Reachability probe. Unreachable must never be conflated with "zero
	// records": offline leaves the local store untouched.
	if err := e.remote.Probe(ctx); err != nil {
		slog.Warn("remote unreachable, staying on local data", "error", err)
		if !silent {
			e.state.finish(PhaseOffline, "offline: remote unreachable, using local data", time.Now())
		}
		return
	}

	// Login failure is non-fatal; reads may be allowed anonymously and
	// anything that is not will surface its own error below.
	if err := e.remote.Login(ctx); err != nil {
		slog.Warn("service login failed, continuing unauthenticated", "error", err)
	}

	if !silent {
		e.state.update(PhaseSyncing, "syncing from server")
	}

	touched, err := e.applyRemote(ctx, silent)
	if err != nil {
		slog.Error("pull aborted", "error", err, "touched", touched)
		if !silent {
			e.state.finish(PhaseError, fmt.Sprintf("sync error: %v", err), time.Now())
		}
		return
	}

	// The watermark only advances on full success, so a failed pull is
	// retried in full next time rather than assumed partially complete
	if err := e.mark.Set(time.Now()); err != nil {
		slog.Error("failed to persist sync watermark", "error", err)
		if !silent {
			e.state.finish(PhaseError, fmt.Sprintf("sync error: %v", err), time.Now())
		}
		return
	}

	slog.Info("pull complete", "records", touched)
	if !silent {
		e.state.finish(PhaseOK, fmt.Sprintf("sync complete: %d records", touched), time.Now())
	}
}

// applyRemote upserts every live remote record into the local store,
// resolving identity by remote id first and natural key second. Local rows
// are never deleted here: remote absence is not a deletion signal during
// pull.
func (e *Engine) applyRemote(ctx context.Context, silent bool) (int, error) {
	remoteRecords, err := e.remote.ListAll(ctx, false)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch remote records: %w", err)
	}

	locals, err := e.store.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list local records: %w", err)
	}

	byRemote := make(map[string]store.Record, len(locals))
	byKey := make(map[string]store.Record, len(locals))
	for _, l := range locals {
		if l.RemoteID != nil {
			byRemote[*l.RemoteID] = l
		}
		byKey[localKey(l)] = l
	}

	touched := 0
	for _, r := range remoteRecords {
		if r.IsDeleted {
			continue
		}

		id := r.ID.String()
		fields := pullFields(r)
		fields.RemoteID = &id

		var target *store.Record
		if l, ok := byRemote[id]; ok {
			target = &l
		} else if l, ok := byKey[remoteKey(r)]; ok {
			// Linked from here on; fields carries the remote id, so the
			// natural key is never consulted for this record again
			target = &l
		}

		if target != nil {
			if _, err := e.store.UpdateByLocalID(ctx, target.LocalID, fields); err != nil {
				return touched, fmt.Errorf("failed to apply remote record %s: %w", id, err)
			}
		} else {
			localID, err := e.store.Insert(ctx, fields)
			if err != nil {
				return touched, fmt.Errorf("failed to insert remote record %s: %w", id, err)
			}
			byRemote[id] = store.Record{LocalID: localID, RemoteID: &id}
		}

		touched++
		if !silent && touched%progressEvery == 0 {
			e.state.progress(touched, len(remoteRecords))
		}
	}

	return touched, nil
}

// Conflict identifies a record whose remote copy changed after the last
// successful pull
type Conflict struct {
	LocalID         int64
	RemoteID        string
	RemoteUpdatedAt time.Time
}

// Result reports the outcome of a publish. Exactly one of three shapes:
// OK with counts, a non-empty Conflicts list (nothing was mutated), or a
// non-empty Err (the snapshot could not be taken, nothing was mutated).
type Result struct {
	OK        bool
	Created   int
	Updated   int
	Deleted   int
	Skipped   int
	Failed    int
	Conflicts []Conflict
	Err       string
}

type pendingUpdate struct {
	targetID string
	rec      store.Record
	viaKey   bool
}

// Publish pushes local changes to the remote store. All-or-nothing with
// respect to conflict safety: if any resolvable record changed remotely
// after the watermark, no mutation is applied at all. Once conflict-free,
// mutations are applied best-effort in soft-delete, update, create order,
// and a silent pull always runs afterwards to converge local state.
func (e *Engine) Publish(ctx context.Context) Result {
	if err := e.remote.Login(ctx); err != nil {
		slog.Warn("service login failed, publish may be rejected", "error", err)
	}

	// One consistent snapshot serves both the diff and conflict detection
	remoteRecords, err := e.remote.ListAll(ctx, true)
	if err != nil {
		slog.Error("publish aborted: cannot fetch remote snapshot", "error", err)
		return Result{Err: fmt.Sprintf("failed to fetch remote snapshot: %v", err)}
	}
	idx := indexRemote(remoteRecords)

	locals, err := e.store.ListAll(ctx)
	if err != nil {
		slog.Error("publish aborted: cannot list local records", "error", err)
		return Result{Err: fmt.Sprintf("failed to list local records: %v", err)}
	}

	var creates []store.Record
	var updates []pendingUpdate
	skipped := 0

	for _, l := range locals {
		if e.siteExcluded(l.SiteName) {
			slog.Debug("record excluded from publish", "local_id", l.LocalID, "site", l.SiteName)
			skipped++
			continue
		}

		res := idx.resolve(l)
		if res.targetID == "" {
			creates = append(creates, l)
			continue
		}
		if res.record == nil || recordChanged(l, *res.record) {
			updates = append(updates, pendingUpdate{res.targetID, l, res.viaKey})
		}
	}

	// A live remote record nothing local is linked to was removed here,
	// and that removal propagates as a tombstone
	linked := make(map[string]bool, len(locals))
	for _, l := range locals {
		if l.RemoteID != nil {
			linked[*l.RemoteID] = true
		}
	}
	var deletes []string
	for _, r := range remoteRecords {
		if r.IsDeleted {
			continue
		}
		if !linked[r.ID.String()] {
			deletes = append(deletes, r.ID.String())
		}
	}

	// The conflict cutoff is the watermark as of publish start. Reading it
	// after the preflight would let the preflight's own watermark advance
	// mask remote edits made since the user last pulled.
	last, hasMark := e.mark.Get()

	// Preflight pull narrows the window for stomping concurrent remote
	// edits, but never with deletions pending: it would resurrect records
	// the user just removed locally.
	if len(deletes) == 0 {
		e.Pull(ctx, true)
	}

	if hasMark {
		conflicts, err := e.detectConflicts(ctx, idx, deletes, last)
		if err != nil {
			slog.Error("publish aborted: conflict check failed", "error", err)
			return Result{Err: fmt.Sprintf("conflict check failed: %v", err)}
		}
		if len(conflicts) > 0 {
			slog.Warn("publish blocked by remote changes", "conflicts", len(conflicts))
			return Result{Conflicts: conflicts}
		}
	}

	result := Result{OK: true, Skipped: skipped}

	// Soft-deletes first: they are the least reversible, so applying them
	// first bounds the window in which a stale update could resurrect a
	// record
	for _, id := range deletes {
		if err := e.softDelete(ctx, id); err != nil {
			slog.Error("soft-delete failed", "remote_id", id, "error", err)
			result.Failed++
			continue
		}
		result.Deleted++
	}

	for _, u := range updates {
		fields, ok := publishFields(u.rec)
		if !ok {
			slog.Warn("update skipped: required fields empty",
				"local_id", u.rec.LocalID, "remote_id", u.targetID)
			result.Skipped++
			continue
		}
		if err := e.applyUpdate(ctx, u, fields); err != nil {
			slog.Error("update failed", "local_id", u.rec.LocalID, "remote_id", u.targetID, "error", err)
			result.Failed++
			continue
		}
		result.Updated++
	}

	for _, l := range creates {
		fields, ok := publishFields(l)
		if !ok {
			slog.Warn("create skipped: required fields empty", "local_id", l.LocalID)
			result.Skipped++
			continue
		}
		created, err := e.remote.Create(ctx, fields)
		if err != nil {
			slog.Error("create failed", "local_id", l.LocalID, "error", err)
			result.Failed++
			continue
		}
		if _, err := e.store.AttachRemoteID(ctx, l.LocalID, created.ID.String()); err != nil {
			slog.Warn("failed to attach remote id",
				"local_id", l.LocalID, "remote_id", created.ID, "error", err)
		}
		result.Created++
	}

	// Postflight pull always runs, regardless of failure counts, so local
	// state converges with whatever the remote now holds (including
	// server-computed fields)
	e.Pull(ctx, true)

	slog.Info("publish complete",
		"created", result.Created, "updated", result.Updated,
		"deleted", result.Deleted, "skipped", result.Skipped, "failed", result.Failed)
	return result
}

// detectConflicts re-diffs local records against the remote snapshot after
// the optional preflight. A record queued for soft-delete cannot conflict:
// its deletion is the change being published.
func (e *Engine) detectConflicts(ctx context.Context, idx remoteIndex, deletes []string, last time.Time) ([]Conflict, error) {
	deleting := make(map[string]bool, len(deletes))
	for _, id := range deletes {
		deleting[id] = true
	}

	// Re-read local state in case the preflight pull changed it
	locals, err := e.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list local records: %w", err)
	}

	var conflicts []Conflict
	for _, l := range locals {
		if e.siteExcluded(l.SiteName) {
			continue
		}
		res := idx.resolve(l)
		if res.record == nil {
			continue
		}
		if res.record.UpdatedAt.After(last) && !deleting[res.targetID] {
			conflicts = append(conflicts, Conflict{
				LocalID:         l.LocalID,
				RemoteID:        res.targetID,
				RemoteUpdatedAt: res.record.UpdatedAt,
			})
		}
	}
	return conflicts, nil
}

func (e *Engine) softDelete(ctx context.Context, id string) error {
	rid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("bad remote id: %w", err)
	}
	return e.remote.SoftDelete(ctx, rid)
}

func (e *Engine) applyUpdate(ctx context.Context, u pendingUpdate, fields remote.Fields) error {
	rid, err := uuid.Parse(u.targetID)
	if err != nil {
		return fmt.Errorf("bad remote id: %w", err)
	}
	if _, err := e.remote.Update(ctx, rid, fields); err != nil {
		return err
	}
	// A key-matched record gains its identity link for all future syncs
	if u.viaKey {
		if _, err := e.store.AttachRemoteID(ctx, u.rec.LocalID, u.targetID); err != nil {
			slog.Warn("failed to attach remote id",
				"local_id", u.rec.LocalID, "remote_id", u.targetID, "error", err)
		}
	}
	return nil
}

func (e *Engine) siteExcluded(siteName string) bool {
	for _, pattern := range e.exclude {
		matched, err := doublestar.Match(pattern, siteName)
		if err != nil {
			continue
		}
		if matched {
			return true
		}
	}
	return false
}

// recordChanged reports whether publishing l would change r. A tombstoned
// target always counts as changed because publishing implies
// is_deleted = false.
func recordChanged(l store.Record, r remote.Record) bool {
	return r.SiteName != l.SiteName ||
		r.Category != l.Category ||
		r.Subcategory != l.Subcategory ||
		r.Question != l.Question ||
		r.Answer != l.Answer ||
		r.AdditionalInfo != l.AdditionalInfo ||
		r.Approved != l.Approved ||
		r.IsDeleted
}

// pullFields maps a remote record onto local writable fields
func pullFields(r remote.Record) store.Fields {
	return store.Fields{
		SiteName:       r.SiteName,
		Category:       r.Category,
		Subcategory:    r.Subcategory,
		Question:       r.Question,
		Answer:         r.Answer,
		AdditionalInfo: r.AdditionalInfo,
		Approved:       r.Approved,
	}
}

// publishFields builds the trimmed remote payload for a local record.
// ok is false when any required field is empty after trimming; such a
// record is skipped instead of sent, because the remote schema would
// reject it and one bad row must not block the rest of the batch.
func publishFields(l store.Record) (remote.Fields, bool) {
	f := remote.Fields{
		SiteName:       strings.TrimSpace(l.SiteName),
		Category:       strings.TrimSpace(l.Category),
		Subcategory:    strings.TrimSpace(l.Subcategory),
		Question:       strings.TrimSpace(l.Question),
		Answer:         strings.TrimSpace(l.Answer),
		AdditionalInfo: strings.TrimSpace(l.AdditionalInfo),
		Approved:       l.Approved,
	}
	if f.SiteName == "" || f.Category == "" || f.Subcategory == "" || f.Question == "" || f.Answer == "" {
		return remote.Fields{}, false
	}
	return f, true
}
