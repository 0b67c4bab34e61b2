// Package sync owns the canonical in-memory collections (bookings,
// services, patients, clinical records, chat messages) and reconciles them
// across three tiers: optimistic in-memory state, the local snapshot cache,
// and the optional remote relational store.
//
// Known limitations, inherited deliberately from the upstream design:
//   - No conflict resolution between concurrent admin sessions; the last
//     full refresh wins.
//   - A locally generated booking ID is never reconciled field-by-field
//     against the remote-assigned one. The next successful refresh replaces
//     the collection wholesale; without a remote store the local ID is
//     permanent.
package sync

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"smilecare-sync/internal/cache"
	"smilecare-sync/internal/dates"
	"smilecare-sync/internal/domain"
	"smilecare-sync/internal/repository"

	"go.uber.org/zap"
)

// State 集合装载状态
type State int

const (
	Uninitialized State = iota
	Loading
	// Ready is re-entered after every refresh attempt, successful or not;
	// there is no error state, failed loads leave fallback content so
	// consumers never block.
	Ready
)

// ChangePublisher fans a committed remote write out to other sessions.
// May be nil (no notification channel configured).
type ChangePublisher interface {
	PublishChange(ctx context.Context, collection string, kind domain.ChangeKind, entity any, deletedID string)
}

// Engine 预约同步引擎
// Constructed once per process and passed to consumers explicitly; it holds
// no package-level state. All reads return defensive copies. The RWMutex
// stands in for the upstream single-threaded event loop: every state
// transition is a discrete critical section.
type Engine struct {
	logger    *zap.Logger
	snapshots *cache.SnapshotStore
	remote    *repository.Remote // nil = degraded mode, permanent and valid
	publisher ChangePublisher    // nil ok

	mu       sync.RWMutex
	state    State
	bookings []domain.Booking
	services []domain.Service
	patients []domain.Patient
	records  []domain.ClinicalRecord
	messages []domain.Message

	subscribers []func()

	// lifetime bounds every background remote call; Close aborts them.
	lifetime  context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startOnce sync.Once

	now func() time.Time
}

// New hydrates the engine synchronously from the local snapshot cache.
// Corrupt or absent snapshots fall back to empty collections; the service
// catalog falls back to the static default list. Remote state is not
// touched here; call Start (or Refresh) for that.
func New(snapshots *cache.SnapshotStore, remote *repository.Remote, publisher ChangePublisher, logger *zap.Logger) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		logger:    logger,
		snapshots: snapshots,
		remote:    remote,
		publisher: publisher,
		state:     Uninitialized,
		lifetime:  ctx,
		cancel:    cancel,
		now:       time.Now,
	}

	e.snapshots.Load(ctx, cache.NamespaceBookings, &e.bookings)
	e.snapshots.Load(ctx, cache.NamespaceMessages, &e.messages)
	e.services = domain.DefaultServices()

	if remote == nil {
		logger.Info("No remote store adapter; running on cached optimistic state",
			zap.Int("cached_bookings", len(e.bookings)),
			zap.Int("cached_messages", len(e.messages)),
		)
	}

	return e
}

// Start kicks off the initial remote refresh in the background. The caller
// continues immediately on hydrated state. Repeated calls are no-ops.
func (e *Engine) Start() {
	e.startOnce.Do(func() {
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.Refresh(e.lifetime)
		}()
	})
}

// Close aborts in-flight remote calls and waits for background work to
// drain. State updates from aborted calls are discarded.
func (e *Engine) Close() {
	e.cancel()
	e.wg.Wait()
}

// Reconcile implements consumer.Reconciler: a push change event of any kind
// triggers a full refetch, never a single-record patch.
func (e *Engine) Reconcile(ctx context.Context) {
	e.Refresh(ctx)
}

// Refresh re-lists every collection from the remote store and replaces
// in-memory state wholesale per collection. Once the remote is reachable it
// is authoritative: stale optimistic entries not present in the refetched
// set do not survive. Each collection fetch fails independently; a failed
// fetch leaves that collection's optimistic state standing.
func (e *Engine) Refresh(ctx context.Context) {
	if e.remote == nil {
		e.setReady()
		return
	}

	e.mu.Lock()
	if e.state == Uninitialized {
		e.state = Loading
	}
	e.mu.Unlock()

	if bookings, err := e.remote.Bookings.List(ctx); err != nil {
		e.logger.Warn("Remote bookings list failed, keeping local state", zap.Error(err))
	} else {
		e.mu.Lock()
		e.bookings = bookings
		e.mu.Unlock()
		e.saveBookings(ctx)
	}

	if services, err := e.remote.Services.List(ctx); err != nil {
		e.logger.Warn("Remote services list failed, keeping local state", zap.Error(err))
	} else if len(services) > 0 {
		e.mu.Lock()
		e.services = services
		e.mu.Unlock()
	}

	if patients, err := e.remote.Patients.List(ctx); err != nil {
		e.logger.Warn("Remote patients list failed, keeping local state", zap.Error(err))
	} else {
		e.mu.Lock()
		e.patients = patients
		e.mu.Unlock()
	}

	if records, err := e.remote.Records.List(ctx); err != nil {
		e.logger.Warn("Remote clinical records list failed, keeping local state", zap.Error(err))
	} else {
		e.mu.Lock()
		e.records = records
		e.mu.Unlock()
	}

	e.setReady()
}

func (e *Engine) setReady() {
	e.mu.Lock()
	e.state = Ready
	e.mu.Unlock()
	e.notify()
}

// State 当前装载状态
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Subscribe registers a re-render hook fired after every state transition.
func (e *Engine) Subscribe(fn func()) {
	e.mu.Lock()
	e.subscribers = append(e.subscribers, fn)
	e.mu.Unlock()
}

func (e *Engine) notify() {
	e.mu.RLock()
	subs := make([]func(), len(e.subscribers))
	copy(subs, e.subscribers)
	e.mu.RUnlock()
	for _, fn := range subs {
		fn()
	}
}

// background runs a best-effort remote call bounded by the engine
// lifetime. Failures are logged and otherwise ignored: the optimistic
// local state is the system of record for the session and is never rolled
// back.
func (e *Engine) background(op string, fn func(ctx context.Context) error) {
	if e.remote == nil {
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := fn(e.lifetime); err != nil {
			e.logger.Warn("Remote call failed, keeping optimistic state",
				zap.String("op", op),
				zap.Error(err),
			)
		}
	}()
}

func (e *Engine) saveBookings(ctx context.Context) {
	e.mu.RLock()
	snapshot := make([]domain.Booking, len(e.bookings))
	copy(snapshot, e.bookings)
	e.mu.RUnlock()
	e.snapshots.Save(ctx, cache.NamespaceBookings, snapshot)
}

func (e *Engine) saveMessages(ctx context.Context) {
	e.mu.RLock()
	snapshot := make([]domain.Message, len(e.messages))
	copy(snapshot, e.messages)
	e.mu.RUnlock()
	e.snapshots.Save(ctx, cache.NamespaceMessages, snapshot)
}

func formatInt(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ---- bookings ----

// AddBooking applies the booking optimistically (prepended, matching the
// remote's most-recent-first ordering), writes through to the snapshot
// cache, and issues the remote insert in the background.
func (e *Engine) AddBooking(ctx context.Context, b domain.Booking) domain.Booking {
	now := e.now()
	if b.ID == "" {
		b.ID = domain.NewLocalBookingID(now)
	}
	if b.Status == "" {
		b.Status = domain.StatusConfirmed
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}

	e.mu.Lock()
	e.bookings = append([]domain.Booking{b}, e.bookings...)
	e.mu.Unlock()
	e.saveBookings(ctx)
	e.notify()

	e.background("insert booking", func(ctx context.Context) error {
		if err := e.remote.Bookings.Insert(ctx, b); err != nil {
			return err
		}
		if e.publisher != nil {
			e.publisher.PublishChange(ctx, domain.CollectionBookings, domain.ChangeInsert, b, "")
		}
		return nil
	})

	return b
}

// UpdateBooking patches the booking in place; unknown IDs are a no-op.
func (e *Engine) UpdateBooking(ctx context.Context, id string, patch domain.BookingPatch) {
	var updated *domain.Booking
	e.mu.Lock()
	for i := range e.bookings {
		if e.bookings[i].ID == id {
			patch.Apply(&e.bookings[i])
			b := e.bookings[i]
			updated = &b
			break
		}
	}
	e.mu.Unlock()
	if updated == nil {
		return
	}
	e.saveBookings(ctx)
	e.notify()

	e.background("update booking", func(ctx context.Context) error {
		if err := e.remote.Bookings.Update(ctx, id, patch); err != nil {
			return err
		}
		if e.publisher != nil {
			e.publisher.PublishChange(ctx, domain.CollectionBookings, domain.ChangeUpdate, *updated, "")
		}
		return nil
	})
}

// DeleteBooking removes the booking immediately. A failed remote delete is
// logged but does not restore the entity.
func (e *Engine) DeleteBooking(ctx context.Context, id string) {
	e.mu.Lock()
	filtered := e.bookings[:0:0]
	for _, b := range e.bookings {
		if b.ID != id {
			filtered = append(filtered, b)
		}
	}
	e.bookings = filtered
	e.mu.Unlock()
	e.saveBookings(ctx)
	e.notify()

	e.background("delete booking", func(ctx context.Context) error {
		if err := e.remote.Bookings.Delete(ctx, id); err != nil {
			return err
		}
		if e.publisher != nil {
			e.publisher.PublishChange(ctx, domain.CollectionBookings, domain.ChangeDelete, nil, id)
		}
		return nil
	})
}

// Bookings returns a copy of the ledger, most recently created first.
func (e *Engine) Bookings() []domain.Booking {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]domain.Booking, len(e.bookings))
	copy(out, e.bookings)
	return out
}

// BookingsOn returns the bookings whose free-form date falls on day.
// Bookings with unparsable dates are invisible to calendar matching.
func (e *Engine) BookingsOn(day dates.Day) []domain.Booking {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []domain.Booking
	for _, b := range e.bookings {
		if dates.SameDay(b.Date, day) {
			out = append(out, b)
		}
	}
	return out
}

// ---- services ----

// AddService adds a catalog entry. Names are unique and case-sensitive;
// adding an existing name is a no-op.
func (e *Engine) AddService(ctx context.Context, name string) {
	e.mu.Lock()
	for _, s := range e.services {
		if s.Name == name {
			e.mu.Unlock()
			return
		}
	}
	e.services = append(e.services, domain.Service{Name: name})
	e.mu.Unlock()
	e.notify()

	e.background("insert service", func(ctx context.Context) error {
		if err := e.remote.Services.Insert(ctx, domain.Service{Name: name}); err != nil {
			return err
		}
		if e.publisher != nil {
			e.publisher.PublishChange(ctx, domain.CollectionServices, domain.ChangeInsert, domain.Service{Name: name}, "")
		}
		return nil
	})
}

// RenameService substitutes the catalog value. Bookings referencing the
// old name keep it: a rename is not identity-preserving and never cascades.
func (e *Engine) RenameService(ctx context.Context, oldName, newName string) {
	changed := false
	e.mu.Lock()
	for i := range e.services {
		if e.services[i].Name == oldName {
			e.services[i].Name = newName
			changed = true
			break
		}
	}
	e.mu.Unlock()
	if !changed {
		return
	}
	e.notify()

	e.background("rename service", func(ctx context.Context) error {
		if err := e.remote.Services.Rename(ctx, oldName, newName); err != nil {
			return err
		}
		if e.publisher != nil {
			e.publisher.PublishChange(ctx, domain.CollectionServices, domain.ChangeUpdate, domain.Service{Name: newName}, "")
		}
		return nil
	})
}

// DeleteService removes a catalog entry.
func (e *Engine) DeleteService(ctx context.Context, name string) {
	e.mu.Lock()
	filtered := e.services[:0:0]
	for _, s := range e.services {
		if s.Name != name {
			filtered = append(filtered, s)
		}
	}
	e.services = filtered
	e.mu.Unlock()
	e.notify()

	e.background("delete service", func(ctx context.Context) error {
		if err := e.remote.Services.Delete(ctx, name); err != nil {
			return err
		}
		if e.publisher != nil {
			e.publisher.PublishChange(ctx, domain.CollectionServices, domain.ChangeDelete, nil, name)
		}
		return nil
	})
}

// Services returns a copy of the catalog.
func (e *Engine) Services() []domain.Service {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]domain.Service, len(e.services))
	copy(out, e.services)
	return out
}

// ---- patients ----

// AddPatient applies the patient optimistically with a time-based
// placeholder ID. Patients are not snapshotted locally: without a remote
// store a patient does not survive a restart.
func (e *Engine) AddPatient(ctx context.Context, p domain.Patient) domain.Patient {
	now := e.now()
	if p.ID == 0 {
		p.ID = now.UnixMilli()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}

	e.mu.Lock()
	e.patients = append([]domain.Patient{p}, e.patients...)
	e.mu.Unlock()
	e.notify()

	e.background("insert patient", func(ctx context.Context) error {
		id, err := e.remote.Patients.Insert(ctx, p)
		if err != nil {
			return err
		}
		if e.publisher != nil {
			confirmed := p
			confirmed.ID = id
			e.publisher.PublishChange(ctx, domain.CollectionPatients, domain.ChangeInsert, confirmed, "")
		}
		return nil
	})

	return p
}

// UpdatePatient patches the patient in place; unknown IDs are a no-op.
func (e *Engine) UpdatePatient(ctx context.Context, id int64, patch domain.PatientPatch) {
	var updated *domain.Patient
	e.mu.Lock()
	for i := range e.patients {
		if e.patients[i].ID == id {
			patch.Apply(&e.patients[i])
			p := e.patients[i]
			updated = &p
			break
		}
	}
	e.mu.Unlock()
	if updated == nil {
		return
	}
	e.notify()

	e.background("update patient", func(ctx context.Context) error {
		if err := e.remote.Patients.Update(ctx, id, patch); err != nil {
			return err
		}
		if e.publisher != nil {
			e.publisher.PublishChange(ctx, domain.CollectionPatients, domain.ChangeUpdate, *updated, "")
		}
		return nil
	})
}

// DeletePatient removes the patient immediately, no rollback on remote
// failure.
func (e *Engine) DeletePatient(ctx context.Context, id int64) {
	e.mu.Lock()
	filtered := e.patients[:0:0]
	for _, p := range e.patients {
		if p.ID != id {
			filtered = append(filtered, p)
		}
	}
	e.patients = filtered
	e.mu.Unlock()
	e.notify()

	e.background("delete patient", func(ctx context.Context) error {
		if err := e.remote.Patients.Delete(ctx, id); err != nil {
			return err
		}
		if e.publisher != nil {
			e.publisher.PublishChange(ctx, domain.CollectionPatients, domain.ChangeDelete, nil, formatInt(id))
		}
		return nil
	})
}

// Patients returns a copy of the patient collection.
func (e *Engine) Patients() []domain.Patient {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]domain.Patient, len(e.patients))
	copy(out, e.patients)
	return out
}

// PatientSummaries derives the dashboard roll-up from the booking ledger:
// one row per unique patient name with visit count and the most recent
// visit, ordered by visit count descending.
func (e *Engine) PatientSummaries() []domain.PatientSummary {
	e.mu.RLock()
	defer e.mu.RUnlock()

	index := make(map[string]int)
	var out []domain.PatientSummary
	for _, b := range e.bookings {
		i, seen := index[b.PatientName]
		if !seen {
			index[b.PatientName] = len(out)
			// bookings are most-recent-first, so the first hit is the
			// latest visit
			out = append(out, domain.PatientSummary{
				Name:      b.PatientName,
				LastVisit: b.Date,
				Service:   b.Service,
			})
			i = len(out) - 1
		}
		out[i].TotalVisits++
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalVisits > out[j].TotalVisits
	})
	return out
}

// ---- clinical records ----

// AddRecord applies the record optimistically. Clinical records are not
// snapshotted locally; they only exist durably when a remote store is
// present.
func (e *Engine) AddRecord(ctx context.Context, rec domain.ClinicalRecord) domain.ClinicalRecord {
	if rec.ID == 0 {
		rec.ID = e.now().UnixMilli()
	}

	e.mu.Lock()
	e.records = append([]domain.ClinicalRecord{rec}, e.records...)
	e.mu.Unlock()
	e.notify()

	e.background("insert clinical record", func(ctx context.Context) error {
		id, err := e.remote.Records.Insert(ctx, rec)
		if err != nil {
			return err
		}
		if e.publisher != nil {
			confirmed := rec
			confirmed.ID = id
			e.publisher.PublishChange(ctx, domain.CollectionRecords, domain.ChangeInsert, confirmed, "")
		}
		return nil
	})

	return rec
}

// DeleteRecord removes the record immediately, no rollback on remote
// failure.
func (e *Engine) DeleteRecord(ctx context.Context, id int64) {
	e.mu.Lock()
	filtered := e.records[:0:0]
	for _, r := range e.records {
		if r.ID != id {
			filtered = append(filtered, r)
		}
	}
	e.records = filtered
	e.mu.Unlock()
	e.notify()

	e.background("delete clinical record", func(ctx context.Context) error {
		if err := e.remote.Records.Delete(ctx, id); err != nil {
			return err
		}
		if e.publisher != nil {
			e.publisher.PublishChange(ctx, domain.CollectionRecords, domain.ChangeDelete, nil, formatInt(id))
		}
		return nil
	})
}

// Records returns a copy of the clinical record collection.
func (e *Engine) Records() []domain.ClinicalRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]domain.ClinicalRecord, len(e.records))
	copy(out, e.records)
	return out
}

// ---- messages ----

// AddMessage appends a chat-log entry (prepended, newest first) and writes
// through to the snapshot cache. Messages never reach the remote store.
func (e *Engine) AddMessage(ctx context.Context, m domain.Message) domain.Message {
	now := e.now()
	if m.ID == "" {
		m.ID = domain.NewMessageID(now)
	}
	if m.Date == "" {
		m.Date = now.Format("2006-01-02")
	}
	if m.Timestamp == "" {
		m.Timestamp = now.Format(time.RFC3339)
	}

	e.mu.Lock()
	e.messages = append([]domain.Message{m}, e.messages...)
	e.mu.Unlock()
	e.saveMessages(ctx)
	e.notify()

	return m
}

// Messages returns a copy of the chat log, newest first.
func (e *Engine) Messages() []domain.Message {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]domain.Message, len(e.messages))
	copy(out, e.messages)
	return out
}
