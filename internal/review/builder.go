package review

import (
	"time"

	"github.com/caffeinsmuggler/timesheet-ai/internal/hangul"
	"github.com/caffeinsmuggler/timesheet-ai/internal/models"
)

// autoAcceptConfidence is the minimum top-candidate confidence for an item to
// start out resolved.
const autoAcceptConfidence = 85

// noiseWords are table annotations the extractor sometimes mistakes for
// names. They veto auto-acceptance even when a roster candidate scores well.
var noiseWords = map[string]struct{}{
	"마감":  {},
	"인원":  {},
	"조정될": {},
	"개소에": {},
	"이송":  {},
	"이송등": {},
	"기법":  {},
	"병원":  {},
	"교육":  {},
	"연가":  {},
	"조퇴":  {},
	"특휴":  {},
	"병가":  {},
}

func isNoise(s string) bool {
	_, ok := noiseWords[s]
	return ok
}

// decide has both the acceptance verdict and the doubt flags for an item.
type decision struct {
	selected *string
	flags    []string
}

// decideStatus applies the acceptance gate. An item starts resolved only
// when the raw text plausibly is a name, is not a known noise word, the
// matcher nominated the top candidate, and that candidate's confidence
// clears the acceptance bar. Anything less leaves the item unresolved with
// the applicable doubt flags so a reviewer sees why.
func decideStatus(rawName string, candidates []models.Candidate, nominee *string) decision {
	var d decision

	probable := hangul.IsProbableName(rawName) && !isNoise(rawName)
	if !probable {
		d.flags = append(d.flags, models.FlagMaybeNonName)
	}

	confident := len(candidates) > 0 && candidates[0].Confidence >= autoAcceptConfidence
	if !confident {
		d.flags = append(d.flags, models.FlagLowConfidence)
	}

	if probable && confident && nominee != nil && *nominee == candidates[0].Name {
		name := *nominee
		d.selected = &name
	}
	return d
}

// BuildSession turns pipeline entries into a fresh review session. Every
// item starts at rev 1; resolved items record the build time as their
// resolution time.
func BuildSession(sourceFileID, imagePath string, width, height int, entries []models.Entry, now time.Time) *models.ReviewSession {
	s := &models.ReviewSession{
		ID:           newSessionID(),
		SourceFileID: sourceFileID,
		ImagePath:    imagePath,
		Width:        width,
		Height:       height,
		Items:        make([]models.ReviewItem, 0, len(entries)),
		CreatedAt:    now,
	}

	for _, e := range entries {
		d := decideStatus(e.RawName, e.Candidates, e.Selected)
		box := e.Box
		item := models.ReviewItem{
			ID:         newItemID(),
			Row:        e.Row,
			Column:     e.Column,
			Shift:      models.ShiftForColumn(e.Column),
			LeaveType:  e.LeaveType,
			RawName:    e.RawName,
			Candidates: e.Candidates,
			Selected:   d.selected,
			Status:     models.StatusUnresolved,
			Flags:      d.flags,
			Box:        &box,
			Rev:        1,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if d.selected != nil {
			item.Status = models.StatusResolved
			t := now
			item.ResolvedAt = &t
		}
		s.Items = append(s.Items, item)
	}
	return s
}
