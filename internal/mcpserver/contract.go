package mcpserver

// ExportFormatContract describes the snapshot emitted by finalize_session.
// LLM consumers read it before interpreting export rows.
const ExportFormatContract = `# Timesheet Export Contract

finalize_session emits one immutable JSON snapshot per session.

## Structure

` + "```" + `json
{
  "session_id": "rs-V1StGXR8_Z5jdHi6B-myT",
  "source_file_id": "2026-03-14-sheet",
  "finalized_at": "2026-03-14T09:30:00Z",
  "rows": [
    {"row": 1, "column": 2, "name": "김철수", "shift": "DAY", "leave_type": "연가"}
  ]
}
` + "```" + `

## Rules

1. **Every row carries a confirmed roster name.** Raw OCR text never appears
   in an export; finalize is refused while any item is unresolved.
2. **Columns 2-3 are DAY shift, 4-7 are NIGHT shift.** Column 1 holds the
   leave-type labels and never produces rows.
3. **leave_type** is one of 연가, 조퇴, 병가, 특휴, 교육, or Unknown when the
   section label could not be read.
4. **Row numbering restarts at 1 inside each leave-type section.**
5. **Rows are ordered** by leave type (label scan order), then column, then row.
6. **Snapshots are immutable.** A finalized session rejects every mutation;
   re-digitize the source image to produce a new session instead.
`
