package ocr

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/caffeinsmuggler/timesheet-ai/internal/apperr"
	"github.com/caffeinsmuggler/timesheet-ai/internal/models"
)

// TesseractEngine implements Engine using the gosseract client.
type TesseractEngine struct {
	clientFactory func() *gosseract.Client
}

// NewTesseractEngine constructs a Tesseract-backed recognition engine.
func NewTesseractEngine() *TesseractEngine {
	return &TesseractEngine{clientFactory: gosseract.NewClient}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// Recognize performs OCR on a single image input. Recognition failures are
// reported as collaborator errors so callers can distinguish them from bad
// requests.
func (e *TesseractEngine) Recognize(ctx context.Context, in Input) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	default:
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(in.Image); err != nil {
		return Result{}, apperr.Collaboratorf("tesseract: set image: %v", err)
	}
	if len(in.Languages) > 0 {
		if err := c.SetLanguage(in.Languages...); err != nil {
			return Result{}, apperr.Collaboratorf("tesseract: set languages: %v", err)
		}
	}
	if in.DPI > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(in.DPI)); err != nil {
			return Result{}, apperr.Collaboratorf("tesseract: set dpi: %v", err)
		}
	}
	for k, v := range in.Metadata {
		if err := c.SetVariable(gosseract.SettableVariable(k), v); err != nil {
			return Result{}, apperr.Collaboratorf("tesseract: set variable %s: %v", k, err)
		}
	}

	text, err := c.Text()
	if err != nil {
		return Result{}, apperr.Collaboratorf("tesseract: recognize: %v", err)
	}

	boxes, err := c.GetBoundingBoxesVerbose()
	if err != nil {
		return Result{}, apperr.Collaboratorf("tesseract: bounding boxes: %v", err)
	}

	return Result{
		InputID:   in.ID,
		PlainText: strings.TrimSpace(text),
		Blocks:    blocksFromBoxes(boxes),
	}, nil
}

type lineKey struct {
	block, par, line int
}

// blocksFromBoxes groups word-level boxes into line blocks using the layout
// numbering Tesseract reports. Blank words are dropped.
func blocksFromBoxes(boxes []gosseract.BoundingBox) []models.Block {
	grouped := make(map[lineKey][]gosseract.BoundingBox)
	order := make([]lineKey, 0)
	for _, b := range boxes {
		if strings.TrimSpace(b.Word) == "" {
			continue
		}
		k := lineKey{block: b.BlockNum, par: b.ParNum, line: b.LineNum}
		if _, seen := grouped[k]; !seen {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], b)
	}

	blocks := make([]models.Block, 0, len(order))
	for _, k := range order {
		words := grouped[k]
		sort.SliceStable(words, func(i, j int) bool { return words[i].WordNum < words[j].WordNum })

		tokens := make([]models.Token, 0, len(words))
		texts := make([]string, 0, len(words))
		for _, w := range words {
			texts = append(texts, strings.TrimSpace(w.Word))
			tokens = append(tokens, models.Token{
				Text: strings.TrimSpace(w.Word),
				Box: models.QuadFromRect(
					float64(w.Box.Min.X), float64(w.Box.Min.Y),
					float64(w.Box.Max.X), float64(w.Box.Max.Y),
				),
			})
		}
		blocks = append(blocks, models.Block{
			Text:   strings.Join(texts, " "),
			Tokens: tokens,
			Box:    mergeBoxes(tokens),
		})
	}
	return blocks
}

func mergeBoxes(tokens []models.Token) models.Quad {
	if len(tokens) == 0 {
		return models.Quad{}
	}
	minX, minY := tokens[0].Box[0].X, tokens[0].Box[0].Y
	maxX, maxY := tokens[0].Box[2].X, tokens[0].Box[2].Y
	for _, t := range tokens[1:] {
		if t.Box[0].X < minX {
			minX = t.Box[0].X
		}
		if t.Box[0].Y < minY {
			minY = t.Box[0].Y
		}
		if t.Box[2].X > maxX {
			maxX = t.Box[2].X
		}
		if t.Box[2].Y > maxY {
			maxY = t.Box[2].Y
		}
	}
	return models.QuadFromRect(minX, minY, maxX, maxY)
}
