package ocr

import (
	"image"
	"testing"

	"github.com/otiai10/gosseract/v2"
)

func box(blockNum, lineNum, wordNum int, word string, x0, y0, x1, y1 int) gosseract.BoundingBox {
	return gosseract.BoundingBox{
		Box:      image.Rect(x0, y0, x1, y1),
		Word:     word,
		BlockNum: blockNum,
		ParNum:   1,
		LineNum:  lineNum,
		WordNum:  wordNum,
	}
}

func TestBlocksFromBoxesGroupsByLine(t *testing.T) {
	boxes := []gosseract.BoundingBox{
		box(1, 1, 1, "김철수", 210, 300, 270, 330),
		box(1, 1, 2, "이영희", 420, 302, 480, 332),
		box(1, 2, 1, "박민준", 212, 360, 272, 390),
	}
	blocks := blocksFromBoxes(boxes)
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}
	if blocks[0].Text != "김철수 이영희" {
		t.Fatalf("blocks[0].Text = %q", blocks[0].Text)
	}
	if len(blocks[0].Tokens) != 2 {
		t.Fatalf("blocks[0] has %d tokens, want 2", len(blocks[0].Tokens))
	}
	if blocks[1].Text != "박민준" {
		t.Fatalf("blocks[1].Text = %q", blocks[1].Text)
	}
}

func TestBlocksFromBoxesMergesBounds(t *testing.T) {
	boxes := []gosseract.BoundingBox{
		box(1, 1, 1, "김철수", 210, 300, 270, 330),
		box(1, 1, 2, "이영희", 420, 295, 480, 335),
	}
	blocks := blocksFromBoxes(boxes)
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	b := blocks[0].Box
	if b[0].X != 210 || b[0].Y != 295 || b[2].X != 480 || b[2].Y != 335 {
		t.Fatalf("merged box = %+v", b)
	}
}

func TestBlocksFromBoxesOrdersWords(t *testing.T) {
	boxes := []gosseract.BoundingBox{
		box(1, 1, 2, "영희", 300, 300, 350, 330),
		box(1, 1, 1, "이", 250, 300, 290, 330),
	}
	blocks := blocksFromBoxes(boxes)
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	if blocks[0].Text != "이 영희" {
		t.Fatalf("Text = %q, want word-number order", blocks[0].Text)
	}
}

func TestBlocksFromBoxesDropsBlankWords(t *testing.T) {
	boxes := []gosseract.BoundingBox{
		box(1, 1, 1, "  ", 10, 10, 20, 20),
		box(1, 1, 2, "김철수", 210, 300, 270, 330),
	}
	blocks := blocksFromBoxes(boxes)
	if len(blocks) != 1 || len(blocks[0].Tokens) != 1 {
		t.Fatalf("blank word not dropped: %+v", blocks)
	}
}

func TestBlocksFromBoxesEmpty(t *testing.T) {
	if got := blocksFromBoxes(nil); len(got) != 0 {
		t.Fatalf("got %d blocks for no boxes", len(got))
	}
}
