package review

import (
	"context"
	"fmt"
	"math"

	"github.com/caffeinsmuggler/timesheet-ai/internal/apperr"
	"github.com/caffeinsmuggler/timesheet-ai/internal/llm"
	"github.com/caffeinsmuggler/timesheet-ai/internal/models"
)

// LLMFill asks the assist model for entries the pipeline missed and appends
// the non-duplicate ones as unconfirmed items. The model call runs outside
// the session lock; dedup runs inside it against the state current at merge
// time, so items added or moved during the call are respected.
func (s *Service) LLMFill(ctx context.Context, sessionID string) ([]models.ReviewItem, error) {
	if s.assist == nil {
		return nil, apperr.Invalidf("model assist is not enabled")
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
	known := knownEntries(sess)
	l.Unlock()

	imageData, err := s.store.ReadImage(&models.ReviewSession{ID: sessionID, ImagePath: imagePath})
	if err != nil {
		return nil, err
	}

	proposals, err := s.assist.ProposeEntries(ctx, imageData, known)
	if err != nil {
		return nil, err
	}

	var added []models.ReviewItem
	sess, err = s.mutate(sessionID, func(sess *models.ReviewSession) error {
		for _, p := range proposals {
			if s.isDuplicate(sess, p) {
				continue
			}

			mres := s.cfg.Pipeline.Matcher.Match(p.Name, p.Column, s.roster.Snapshot())
			d := decideStatus(p.Name, mres.Candidates, mres.Selected)

			now := s.now()
			item := models.ReviewItem{
				ID:         newItemID(),
				Row:        nextRow(sess, p.LeaveType),
				Column:     p.Column,
				Shift:      models.ShiftForColumn(p.Column),
				LeaveType:  p.LeaveType,
				RawName:    p.Name,
				Candidates: mres.Candidates,
				Selected:   d.selected,
				Status:     models.StatusUnresolved,
				Flags:      d.flags,
				Rev:        1,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if p.Box != nil {
				box := models.QuadFromRect(p.Box.X0, p.Box.Y0, p.Box.X1, p.Box.Y1)
				item.Box = &box
			}
			if d.selected != nil {
				item.Status = models.StatusResolved
				t := now
				item.ResolvedAt = &t
			}
			sess.Items = append(sess.Items, item)
			added = append(added, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("model fill merged", "session", sess.ID, "proposed", len(proposals), "added", len(added))
	for _, it := range added {
		s.publish(Event{Type: EventItemAdded, SessionID: sess.ID, ItemID: it.ID, Rev: it.Rev})
	}
	return added, nil
}

func knownEntries(sess *models.ReviewSession) []llm.Known {
	out := make([]llm.Known, 0, len(sess.Items))
	for i := range sess.Items {
		name := sess.Items[i].RawName
		if sess.Items[i].Selected != nil {
			name = *sess.Items[i].Selected
		}
		out = append(out, llm.Known{Name: name, Column: sess.Items[i].Column})
	}
	return out
}

// isDuplicate reports whether a proposal restates an existing item: same
// column and same name, or bounding box centers closer than the dedupe
// radius.
func (s *Service) isDuplicate(sess *models.ReviewSession, p llm.Proposal) bool {
	for i := range sess.Items {
		it := &sess.Items[i]
		if it.Column == p.Column {
			if it.RawName == p.Name {
				return true
			}
			if it.Selected != nil && *it.Selected == p.Name {
				return true
			}
		}
		if p.Box != nil && it.Box != nil {
			px := (p.Box.X0 + p.Box.X1) / 2
			py := (p.Box.Y0 + p.Box.Y1) / 2
			dx := it.Box.CenterX() - px
			dy := it.Box.CenterY() - py
			if math.Hypot(dx, dy) <= s.cfg.DedupeRadius {
				return true
			}
		}
	}
	return false
}
