package models

// StagedFile is one downloaded media item waiting in the staging directory
// for upload. It never outlives a single archive run.
type StagedFile struct {
	FileName    string
	ContentType string
	LocalPath   string
}

// Extraction is the outcome of running one tweet through the media pipeline.
// Skipped counts attachments whose download returned a non-2xx status; they
// consume no sequence number.
type Extraction struct {
	GameName string
	Staged   []StagedFile
	Skipped  int
}

// Report is the per-run status summary returned to the webhook caller, one
// line per event.
type Report struct {
	Lines []string
}

func (r *Report) Add(line string) {
	r.Lines = append(r.Lines, line)
}
