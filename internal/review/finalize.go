package review

import (
	"context"
	"fmt"
	"sort"

	"github.com/caffeinsmuggler/timesheet-ai/internal/apperr"
	"github.com/caffeinsmuggler/timesheet-ai/internal/imaging"
	"github.com/caffeinsmuggler/timesheet-ai/internal/models"
)

// leaveOrder fixes the section order of export rows to the scan order of the
// sheet template.
var leaveOrder = map[string]int{
	models.LeaveAnnual:   0,
	models.LeaveEarly:    1,
	models.LeaveSick:     2,
	models.LeaveSpecial:  3,
	models.LeaveTraining: 4,
	models.LeaveUnknown:  5,
}

// Finalize closes a session: every item must be resolved, the export
// snapshot is written first, then the session is marked finalized. A crash
// between the two writes leaves a valid snapshot and a reopenable session,
// never the reverse.
func (s *Service) Finalize(ctx context.Context, sessionID string) (*models.Export, error) {
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
	if unresolved := sess.UnresolvedIDs(); len(unresolved) > 0 {
		return nil, &apperr.UnresolvedError{ItemIDs: unresolved}
	}

	now := s.now()
	exp := models.Export{
		SessionID:    sess.ID,
		SourceFileID: sess.SourceFileID,
		FinalizedAt:  now,
		Rows:         exportRows(sess),
	}

	if err := s.store.SaveExport(exp); err != nil {
		return nil, err
	}

	sess.FinalizedAt = &now
	if err := s.persist(sess); err != nil {
		return nil, err
	}

	s.log.Info("session finalized", "session", sess.ID, "rows", len(exp.Rows))
	s.publish(Event{Type: EventSessionFinalized, SessionID: sess.ID})
	return &exp, nil
}

func exportRows(sess *models.ReviewSession) []models.ExportRow {
	rows := make([]models.ExportRow, 0, len(sess.Items))
	for i := range sess.Items {
		it := &sess.Items[i]
		rows = append(rows, models.ExportRow{
			Row:       it.Row,
			Column:    it.Column,
			Name:      *it.Selected,
			Shift:     it.Shift,
			LeaveType: it.LeaveType,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if leaveOrder[rows[i].LeaveType] != leaveOrder[rows[j].LeaveType] {
			return leaveOrder[rows[i].LeaveType] < leaveOrder[rows[j].LeaveType]
		}
		if rows[i].Column != rows[j].Column {
			return rows[i].Column < rows[j].Column
		}
		return rows[i].Row < rows[j].Row
	})
	return rows
}

// Crop renders the PNG thumbnail for one item's image region. The returned
// rev lets callers cache thumbnails immutably per item version.
func (s *Service) Crop(ctx context.Context, sessionID, itemID string) (png []byte, rev int, err error) {
	l := s.lock(sessionID)
	l.Lock()
	defer l.Unlock()

	sess, err := s.store.Load(sessionID)
	if err != nil {
		return nil, 0, err
	}
	it := sess.Item(itemID)
	if it == nil {
		return nil, 0, fmt.Errorf("%w: item %s", apperr.ErrNotFound, itemID)
	}
	if it.Box == nil {
		return nil, 0, apperr.Invalidf("item %s has no bounding box", itemID)
	}

	imageData, err := s.store.ReadImage(sess)
	if err != nil {
		return nil, 0, err
	}
	thumb, err := imaging.CropThumbnail(imageData, *it.Box, s.cfg.CropPad)
	if err != nil {
		return nil, 0, err
	}
	return thumb, it.Rev, nil
}
