package review

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/caffeinsmuggler/timesheet-ai/internal/apperr"
	"github.com/caffeinsmuggler/timesheet-ai/internal/imaging"
	"github.com/caffeinsmuggler/timesheet-ai/internal/index"
	"github.com/caffeinsmuggler/timesheet-ai/internal/llm"
	"github.com/caffeinsmuggler/timesheet-ai/internal/models"
	"github.com/caffeinsmuggler/timesheet-ai/internal/ocr"
	"github.com/caffeinsmuggler/timesheet-ai/internal/pipeline"
	"github.com/caffeinsmuggler/timesheet-ai/internal/roster"
)

// Event is a lifecycle notification emitted after a successful mutation.
type Event struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	ItemID    string `json:"item_id,omitempty"`
	Rev       int    `json:"rev,omitempty"`
}

// Event types.
const (
	EventSessionCreated   = "session.created"
	EventSessionDeleted   = "session.deleted"
	EventSessionFinalized = "session.finalized"
	EventItemUpdated      = "item.updated"
	EventItemAdded        = "item.added"
	EventItemDeleted      = "item.deleted"
)

// Notifier receives lifecycle events. Implementations must not block.
type Notifier interface {
	Publish(ev Event)
}

// Config carries the tunables of the review service.
type Config struct {
	Pipeline     pipeline.Config
	OCRLanguages []string
	OCRDPI       int
	// CropPad is the padding around item boxes for crops and re-recognition.
	CropPad int
	// DedupeRadius is the center distance (px) under which a model proposal
	// is considered a duplicate of an existing item.
	DedupeRadius float64
}

// DefaultConfig returns the production settings.
func DefaultConfig() Config {
	return Config{
		Pipeline:     pipeline.DefaultConfig(),
		OCRLanguages: []string{"kor"},
		OCRDPI:       300,
		CropPad:      imaging.DefaultPad,
		DedupeRadius: 32,
	}
}

// Service owns the review session lifecycle: creation from a sheet image,
// item mutations, model-assisted fill, and finalize. All mutations of one
// session serialize on a per-session lock; collaborator calls (OCR, model)
// run outside the lock so a slow engine never blocks unrelated reviewers.
type Service struct {
	store  *Store
	idx    index.SessionIndex
	engine ocr.Engine
	roster *roster.Store
	assist llm.Assist
	notify Notifier
	cfg    Config
	log    *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithAssist enables model-assisted fill.
func WithAssist(a llm.Assist) Option {
	return func(s *Service) { s.assist = a }
}

// WithNotifier wires lifecycle event publishing.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notify = n }
}

// NewService constructs the review service.
func NewService(store *Store, idx index.SessionIndex, engine ocr.Engine, rost *roster.Store, cfg Config, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		idx:    idx,
		engine: engine,
		roster: rost,
		cfg:    cfg,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
		locks:  make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lock returns the mutex for one session, creating it on first use. Lock
// entries are small and sessions are few, so entries are never evicted.
func (s *Service) lock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[sessionID] = l
	}
	return l
}

func (s *Service) publish(ev Event) {
	if s.notify != nil {
		s.notify.Publish(ev)
	}
}

func (s *Service) indexRow(sess *models.ReviewSession) index.SessionRow {
	return index.SessionRow{
		ID:              sess.ID,
		SourceFileID:    sess.SourceFileID,
		ItemCount:       len(sess.Items),
		UnresolvedCount: len(sess.UnresolvedIDs()),
		CreatedAt:       sess.CreatedAt,
		FinalizedAt:     sess.FinalizedAt,
		UpdatedAt:       s.now(),
	}
}

// persist writes the document and refreshes the catalog row. Index failures
// are logged, not returned: the document is the source of truth.
func (s *Service) persist(sess *models.ReviewSession) error {
	if err := s.store.Save(sess); err != nil {
		return err
	}
	if err := s.idx.UpsertSession(s.indexRow(sess)); err != nil {
		s.log.Warn("session index update failed", "session", sess.ID, "error", err)
	}
	return nil
}

func validSourceFileID(id string) bool {
	if id == "" || len(id) > 128 {
		return false
	}
	return !strings.ContainsAny(id, "/\\.")
}

// CreateSession recognizes a sheet image and builds a fresh review session
// from it. The image is stored alongside the session so crops and
// re-recognition read the same pixels the pipeline saw.
func (s *Service) CreateSession(ctx context.Context, sourceFileID string, imageData []byte) (*models.ReviewSession, error) {
	if !validSourceFileID(sourceFileID) {
		return nil, apperr.Invalidf("bad source file id %q", sourceFileID)
	}
	if len(imageData) == 0 {
		return nil, apperr.Invalidf("empty image")
	}
	// JPEG uploads are re-encoded so the stored file is what its .png
	// extension and content type claim.
	imageData, err := imaging.ToPNG(imageData)
	if err != nil {
		return nil, apperr.Invalidf("undecodable image: %v", err)
	}
	width, height, err := imaging.Dimensions(imageData)
	if err != nil {
		return nil, apperr.Invalidf("undecodable image: %v", err)
	}

	res, err := s.engine.Recognize(ctx, ocr.Input{
		ID:        sourceFileID,
		Image:     imageData,
		Languages: s.cfg.OCRLanguages,
		DPI:       s.cfg.OCRDPI,
	})
	if err != nil {
		return nil, err
	}

	entries := pipeline.Assemble(res.Blocks, s.roster.Snapshot(), s.cfg.Pipeline)

	imagePath, err := s.store.SaveImage(sourceFileID, imageData)
	if err != nil {
		return nil, err
	}

	sess := BuildSession(sourceFileID, imagePath, width, height, entries, s.now())
	if err := s.persist(sess); err != nil {
		return nil, err
	}

	s.log.Info("session created",
		"session", sess.ID, "source", sourceFileID,
		"items", len(sess.Items), "unresolved", len(sess.UnresolvedIDs()))
	s.publish(Event{Type: EventSessionCreated, SessionID: sess.ID})
	return sess, nil
}

// RebuildIndex rescans the persisted session documents and rewrites their
// catalog rows. The documents are the source of truth, so a catalog that
// drifted (skipped writes, replaced database file) heals here. Documents
// that fail to load are skipped with a warning rather than aborting the
// rebuild.
func (s *Service) RebuildIndex(ctx context.Context) error {
	ids, err := s.store.ListSessionIDs()
	if err != nil {
		return err
	}
	for _, id := range ids {
		sess, err := s.store.Load(id)
		if err != nil {
			s.log.Warn("index rebuild: unreadable session", "session", id, "error", err)
			continue
		}
		if err := s.idx.UpsertSession(s.indexRow(sess)); err != nil {
			return fmt.Errorf("review: rebuild index: %w", err)
		}
	}
	return nil
}

// Get loads one session.
func (s *Service) Get(ctx context.Context, sessionID string) (*models.ReviewSession, error) {
	l := s.lock(sessionID)
	l.Lock()
	defer l.Unlock()
	return s.store.Load(sessionID)
}

// Image returns the stored sheet image for a session.
func (s *Service) Image(ctx context.Context, sessionID string) ([]byte, error) {
	l := s.lock(sessionID)
	l.Lock()
	defer l.Unlock()

	sess, err := s.store.Load(sessionID)
	if err != nil {
		return nil, err
	}
	return s.store.ReadImage(sess)
}

// List returns a catalog page.
func (s *Service) List(ctx context.Context, limit, offset int, status string) ([]index.SessionRow, int, error) {
	switch status {
	case index.StatusAny, index.StatusOpen, index.StatusFinalized:
	default:
		return nil, 0, apperr.Invalidf("unknown status filter %q", status)
	}
	return s.idx.ListSessions(limit, offset, status)
}

// Delete removes a session document and its catalog row. The finalize
// snapshot, if any, is kept: exports are immutable.
func (s *Service) Delete(ctx context.Context, sessionID string) error {
	l := s.lock(sessionID)
	l.Lock()
	defer l.Unlock()

	if err := s.store.Delete(sessionID); err != nil {
		return err
	}
	if err := s.idx.DeleteSession(sessionID); err != nil {
		s.log.Warn("session index delete failed", "session", sessionID, "error", err)
	}
	s.publish(Event{Type: EventSessionDeleted, SessionID: sessionID})
	return nil
}

// ItemPatch carries the mutable fields of an item. Nil fields are left
// untouched.
type ItemPatch struct {
	// SelectedName confirms a name and resolves the item.
	SelectedName *string
	// RawName replaces the extracted text. The item drops back to
	// unresolved and its candidates are re-ranked.
	RawName *string
	// LeaveType reassigns the section label.
	LeaveType *string
	// Column moves the item to another table column. Shift follows the
	// column and candidates are re-ranked against the new pool.
	Column *int
}

func (p ItemPatch) empty() bool {
	return p.SelectedName == nil && p.RawName == nil && p.LeaveType == nil && p.Column == nil
}

// mutate runs fn against the locked, loaded session and persists the result
// when fn reports a change. fn must not block on collaborators.
func (s *Service) mutate(sessionID string, fn func(sess *models.ReviewSession) error) (*models.ReviewSession, error) {
	l := s.lock(sessionID)
	l.Lock()
	defer l.Unlock()

	sess, err := s.store.Load(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.FinalizedAt != nil {
		return nil, fmt.Errorf("%w: session %s", apperr.ErrFinalized, sessionID)
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	if err := s.persist(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Service) touch(it *models.ReviewItem) {
	it.Rev++
	it.UpdatedAt = s.now()
}

func (s *Service) resolve(it *models.ReviewItem, name string) {
	it.Selected = &name
	it.Status = models.StatusResolved
	t := s.now()
	it.ResolvedAt = &t
	it.Flags = removeFlags(it.Flags, models.FlagLowConfidence, models.FlagMaybeNonName)
}

func (s *Service) unresolve(it *models.ReviewItem) {
	it.Selected = nil
	it.Status = models.StatusUnresolved
	it.ResolvedAt = nil
}

func removeFlags(flags []string, drop ...string) []string {
	out := flags[:0]
	for _, f := range flags {
		keep := true
		for _, d := range drop {
			if f == d {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, f)
		}
	}
	return out
}

// rematch re-ranks an item's candidates against the current roster.
func (s *Service) rematch(it *models.ReviewItem) {
	res := s.cfg.Pipeline.Matcher.Match(it.RawName, it.Column, s.roster.Snapshot())
	it.Candidates = res.Candidates
}

// PatchItem applies a partial update to one item. Confirming a name resolves
// the item and clears its doubt flags; editing the raw text or moving the
// column drops it back to unresolved so a reviewer re-confirms.
func (s *Service) PatchItem(ctx context.Context, sessionID, itemID string, patch ItemPatch) (*models.ReviewItem, error) {
	if patch.empty() {
		return nil, apperr.Invalidf("empty patch")
	}
	if patch.SelectedName != nil && strings.TrimSpace(*patch.SelectedName) == "" {
		return nil, apperr.Invalidf("selected name must not be blank")
	}
	if patch.Column != nil && !models.ValidColumn(*patch.Column) {
		return nil, apperr.Invalidf("column %d out of range", *patch.Column)
	}
	if patch.LeaveType != nil && !validLeaveType(*patch.LeaveType) {
		return nil, apperr.Invalidf("unknown leave type %q", *patch.LeaveType)
	}

	var out *models.ReviewItem
	sess, err := s.mutate(sessionID, func(sess *models.ReviewSession) error {
		it := sess.Item(itemID)
		if it == nil {
			return fmt.Errorf("%w: item %s", apperr.ErrNotFound, itemID)
		}

		if patch.Column != nil {
			it.Column = *patch.Column
			it.Shift = models.ShiftForColumn(*patch.Column)
			s.rematch(it)
			s.unresolve(it)
		}
		if patch.LeaveType != nil {
			it.LeaveType = *patch.LeaveType
		}
		if patch.RawName != nil {
			it.RawName = strings.TrimSpace(*patch.RawName)
			s.rematch(it)
			s.unresolve(it)
		}
		if patch.SelectedName != nil {
			s.resolve(it, strings.TrimSpace(*patch.SelectedName))
		}

		s.touch(it)
		out = it
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(Event{Type: EventItemUpdated, SessionID: sess.ID, ItemID: out.ID, Rev: out.Rev})
	return out, nil
}

// ClearItem withdraws a confirmation, returning the item to unresolved.
func (s *Service) ClearItem(ctx context.Context, sessionID, itemID string) (*models.ReviewItem, error) {
	var out *models.ReviewItem
	sess, err := s.mutate(sessionID, func(sess *models.ReviewSession) error {
		it := sess.Item(itemID)
		if it == nil {
			return fmt.Errorf("%w: item %s", apperr.ErrNotFound, itemID)
		}
		s.unresolve(it)
		s.touch(it)
		out = it
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(Event{Type: EventItemUpdated, SessionID: sess.ID, ItemID: out.ID, Rev: out.Rev})
	return out, nil
}

// DeleteItem removes an item. Its id is never reused.
func (s *Service) DeleteItem(ctx context.Context, sessionID, itemID string) error {
	sess, err := s.mutate(sessionID, func(sess *models.ReviewSession) error {
		for i := range sess.Items {
			if sess.Items[i].ID == itemID {
				sess.Items = append(sess.Items[:i], sess.Items[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: item %s", apperr.ErrNotFound, itemID)
	})
	if err != nil {
		return err
	}
	s.publish(Event{Type: EventItemDeleted, SessionID: sess.ID, ItemID: itemID})
	return nil
}

func validLeaveType(lt string) bool {
	if lt == models.LeaveUnknown {
		return true
	}
	for _, known := range models.LeaveTypes {
		if lt == known {
			return true
		}
	}
	return false
}
