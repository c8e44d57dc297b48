// Package progress holds the pure progress computations for an enrollment:
// lazy creation of module/section entries, time accounting, quiz scoring,
// completion percentages and the automatic completion transition.
// Nothing in this package performs I/O.
package progress

import (
	"math"
)

// Formula selects how the completion percentage is derived. Both formulas are
// live: which one runs depends on the operation that mutated the enrollment.
type Formula int

const (
	// FormulaSectionRatio is round(100 * completedSections / totalSections).
	// Used by the heartbeat, section-complete and quiz-submit operations.
	FormulaSectionRatio Formula = iota
	// FormulaWeighted is round(50 * modules ratio + 50 * sections ratio).
	// Used by the legacy raw status update.
	FormulaWeighted
)

func (f Formula) String() string {
	switch f {
	case FormulaSectionRatio:
		return "section_ratio"
	case FormulaWeighted:
		return "weighted"
	default:
		return "unknown"
	}
}

// SectionRatio returns the completion percentage from section counts.
// Zero total sections yields 0.
func SectionRatio(completedSections, totalSections int) int {
	if totalSections <= 0 {
		return 0
	}
	return clamp(int(math.Round(100 * float64(completedSections) / float64(totalSections))))
}

// Weighted returns the 50/50 module+section percentage. ok is false when either
// total is zero, in which case the caller must leave the stored value unchanged.
func Weighted(completedModules, totalModules, completedSections, totalSections int) (pct int, ok bool) {
	if totalModules <= 0 || totalSections <= 0 {
		return 0, false
	}
	moduleShare := 50 * float64(completedModules) / float64(totalModules)
	sectionShare := 50 * float64(completedSections) / float64(totalSections)
	return clamp(int(math.Round(moduleShare + sectionShare))), true
}

// Orphaned progress entries can push the ratios past 1.
func clamp(pct int) int {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
