package model

// SectionStatus is the completion state of one document section.
type SectionStatus string

const (
	SectionIncomplete  SectionStatus = "INCOMPLETE"
	SectionCompleted   SectionStatus = "COMPLETED"
	SectionCannotStart SectionStatus = "CANNOT START"
	SectionError       SectionStatus = "ERROR"
	SectionOptional    SectionStatus = "OPTIONAL"
)

// Meta sections never count towards RequiredSections.
const (
	SectionReference  = "reference"
	SectionDataUpload = "dataUpload"
)

// Progress is derived from a draft on every query and never stored.
type Progress struct {
	Progress          map[string]SectionStatus `json:"progress"`
	CompletedSections int                      `json:"completedSections"`
	RequiredSections  int                      `json:"requiredSections"`
}

// IsComplete reports whether every required section has been attempted.
func (p *Progress) IsComplete() bool {
	return p != nil && p.CompletedSections == p.RequiredSections
}

// Incomplete maps each non-complete, non-optional section to its
// "error.{section}.incomplete" message. ERROR sections are included only when
// strict is set.
func (p *Progress) Incomplete(strict bool) map[string]string {
	out := map[string]string{}
	if p == nil {
		return out
	}
	for section, status := range p.Progress {
		switch status {
		case SectionCompleted, SectionOptional:
			continue
		case SectionError:
			if !strict {
				continue
			}
		}
		out[section] = "error." + section + ".incomplete"
	}
	return out
}
