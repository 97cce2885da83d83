package review

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"strings"

	"github.com/caffeinsmuggler/timesheet-ai/internal/apperr"
	"github.com/caffeinsmuggler/timesheet-ai/internal/extract"
	"github.com/caffeinsmuggler/timesheet-ai/internal/hangul"
	"github.com/caffeinsmuggler/timesheet-ai/internal/imaging"
	"github.com/caffeinsmuggler/timesheet-ai/internal/models"
	"github.com/caffeinsmuggler/timesheet-ai/internal/ocr"
)

// cropSnapshot captures what a collaborator call needs from a locked
// session so the call itself can run unlocked.
type cropSnapshot struct {
	imagePath string
	box       models.Quad
}

// snapshotItem resolves the region to recognize: the override box when the
// caller supplied one, the item's stored box otherwise.
func (s *Service) snapshotItem(sessionID, itemID string, override *models.Quad) (cropSnapshot, error) {
	l := s.lock(sessionID)
	l.Lock()
	defer l.Unlock()

	sess, err := s.store.Load(sessionID)
	if err != nil {
		return cropSnapshot{}, err
	}
	if sess.FinalizedAt != nil {
		return cropSnapshot{}, fmt.Errorf("%w: session %s", apperr.ErrFinalized, sessionID)
	}
	it := sess.Item(itemID)
	if it == nil {
		return cropSnapshot{}, fmt.Errorf("%w: item %s", apperr.ErrNotFound, itemID)
	}
	box := override
	if box == nil {
		box = it.Box
	}
	if box == nil {
		return cropSnapshot{}, apperr.Invalidf("item %s has no bounding box", itemID)
	}
	return cropSnapshot{imagePath: sess.ImagePath, box: *box}, nil
}

// recognizeRegion crops the stored sheet image around box and runs OCR on
// the region. Token coordinates in the result are crop-local; only their
// relative geometry is used.
func (s *Service) recognizeRegion(ctx context.Context, sess *models.ReviewSession, box models.Quad) (ocr.Result, error) {
	imageData, err := s.store.ReadImage(sess)
	if err != nil {
		return ocr.Result{}, err
	}
	img, err := imaging.Decode(imageData)
	if err != nil {
		return ocr.Result{}, apperr.Collaboratorf("stored image undecodable: %v", err)
	}
	b := img.Bounds()
	rect, err := imaging.SafeRect(box, b.Dx(), b.Dy(), s.cfg.CropPad)
	if err != nil {
		return ocr.Result{}, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, imaging.Crop(img, rect)); err != nil {
		return ocr.Result{}, fmt.Errorf("review: encode crop: %w", err)
	}

	return s.engine.Recognize(ctx, ocr.Input{
		Image:     buf.Bytes(),
		Languages: s.cfg.OCRLanguages,
		DPI:       s.cfg.OCRDPI,
	})
}

// bestName picks the raw name from a region recognition result: the first
// extracted candidate, falling back to the cleaned plain text when it is
// already name-shaped.
func bestName(res ocr.Result, alignPx, gapPx float64) string {
	var tokens []models.Token
	for _, b := range res.Blocks {
		tokens = append(tokens, b.Tokens...)
	}
	names := extract.FromTokens(tokens, res.PlainText, alignPx, gapPx)
	if len(names) > 0 {
		return names[0]
	}
	cleaned := hangul.Clean(res.PlainText)
	if n := len([]rune(cleaned)); n >= 2 && n <= 3 {
		return cleaned
	}
	return ""
}

// ReextractItem re-runs recognition on an item's image region, replacing its
// raw name and candidates with the fresh result. A non-nil box replaces the
// item's bounding region first. The item always drops back to unresolved so
// a reviewer confirms the new reading, and an empty recognition is a valid
// outcome, not a failure. Recognition runs outside the session lock; a
// recognition failure leaves the item exactly as it was.
func (s *Service) ReextractItem(ctx context.Context, sessionID, itemID string, box *BoxInput) (*models.ReviewItem, error) {
	var override *models.Quad
	if box != nil {
		if box.X1 <= box.X0 || box.Y1 <= box.Y0 {
			return nil, apperr.Invalidf("degenerate box")
		}
		q := box.quad()
		override = &q
	}

	snap, err := s.snapshotItem(sessionID, itemID, override)
	if err != nil {
		return nil, err
	}

	res, err := s.recognizeRegion(ctx, &models.ReviewSession{ID: sessionID, ImagePath: snap.imagePath}, snap.box)
	if err != nil {
		return nil, err
	}
	raw := bestName(res, s.cfg.Pipeline.AlignPx, s.cfg.Pipeline.GapPx)

	var out *models.ReviewItem
	sess, err := s.mutate(sessionID, func(sess *models.ReviewSession) error {
		it := sess.Item(itemID)
		if it == nil {
			return fmt.Errorf("%w: item %s", apperr.ErrNotFound, itemID)
		}

		if override != nil {
			it.Box = override
		}
		it.RawName = raw
		it.Candidates = nil
		if raw != "" {
			mres := s.cfg.Pipeline.Matcher.Match(raw, it.Column, s.roster.Snapshot())
			it.Candidates = mres.Candidates
		}
		s.unresolve(it)
		s.touch(it)
		out = it
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("item re-recognized", "session", sess.ID, "item", out.ID, "raw", raw)
	s.publish(Event{Type: EventItemUpdated, SessionID: sess.ID, ItemID: out.ID, Rev: out.Rev})
	return out, nil
}

// BoxInput is a caller-supplied pixel rectangle.
type BoxInput struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

func (b BoxInput) quad() models.Quad {
	return models.QuadFromRect(b.X0, b.Y0, b.X1, b.Y1)
}

// AddItemInput describes a manually added item. A non-empty RawName skips
// region recognition; otherwise Box is required and its region is recognized.
type AddItemInput struct {
	Column    int
	RawName   string
	Box       *BoxInput
	LeaveType string
}

// AddItem creates an item from a reviewer-supplied name or a reviewer-drawn
// region. Either path goes through the same matching and acceptance gate as
// pipeline items. A region with no recognizable text still creates an item
// so the reviewer can type the name in.
func (s *Service) AddItem(ctx context.Context, sessionID string, in AddItemInput) (*models.ReviewItem, error) {
	if !models.ValidColumn(in.Column) {
		return nil, apperr.Invalidf("column %d out of range", in.Column)
	}
	if in.LeaveType == "" {
		in.LeaveType = models.LeaveUnknown
	}
	if !validLeaveType(in.LeaveType) {
		return nil, apperr.Invalidf("unknown leave type %q", in.LeaveType)
	}
	raw := strings.TrimSpace(in.RawName)
	if raw == "" && in.Box == nil {
		return nil, apperr.Invalidf("raw name or box is required")
	}
	if in.Box != nil && (in.Box.X1 <= in.Box.X0 || in.Box.Y1 <= in.Box.Y0) {
		return nil, apperr.Invalidf("degenerate box")
	}

	l := s.lock(sessionID)
	l.Lock()
	sess, err := s.store.Load(sessionID)
	if err != nil {
		l.Unlock()
		return nil, err
	}
	if sess.FinalizedAt != nil {
		l.Unlock()
		return nil, fmt.Errorf("%w: session %s", apperr.ErrFinalized, sessionID)
	}
	imagePath := sess.ImagePath
	l.Unlock()

	if raw == "" {
		res, err := s.recognizeRegion(ctx, &models.ReviewSession{ID: sessionID, ImagePath: imagePath}, in.Box.quad())
		if err != nil {
			return nil, err
		}
		raw = bestName(res, s.cfg.Pipeline.AlignPx, s.cfg.Pipeline.GapPx)
	}

	var out *models.ReviewItem
	sess, err = s.mutate(sessionID, func(sess *models.ReviewSession) error {
		mres := s.cfg.Pipeline.Matcher.Match(raw, in.Column, s.roster.Snapshot())
		d := decideStatus(raw, mres.Candidates, mres.Selected)

		now := s.now()
		item := models.ReviewItem{
			ID:         newItemID(),
			Row:        nextRow(sess, in.LeaveType),
			Column:     in.Column,
			Shift:      models.ShiftForColumn(in.Column),
			LeaveType:  in.LeaveType,
			RawName:    raw,
			Candidates: mres.Candidates,
			Selected:   d.selected,
			Status:     models.StatusUnresolved,
			Flags:      d.flags,
			Rev:        1,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if in.Box != nil {
			box := in.Box.quad()
			item.Box = &box
		}
		if d.selected != nil {
			item.Status = models.StatusResolved
			t := now
			item.ResolvedAt = &t
		}
		sess.Items = append(sess.Items, item)
		out = &sess.Items[len(sess.Items)-1]
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(Event{Type: EventItemAdded, SessionID: sess.ID, ItemID: out.ID, Rev: out.Rev})
	return out, nil
}

// nextRow continues the row numbering of the given leave-type section.
func nextRow(sess *models.ReviewSession, leaveType string) int {
	max := 0
	for i := range sess.Items {
		if sess.Items[i].LeaveType == leaveType && sess.Items[i].Row > max {
			max = sess.Items[i].Row
		}
	}
	return max + 1
}
