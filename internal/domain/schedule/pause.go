package schedule

import (
	"time"

	"github.com/phrazzld/cadence/internal/domain"
)

// ShouldGenerate is the pause gate. Without a pause window every candidate
// passes. An indefinite window blocks everything from its start onward; a
// bounded window blocks [start, end].
//
// The gate looks at the configured window rather than at now, so a pause
// scheduled to begin later in the week already blocks its dates.
func ShouldGenerate(def *domain.TaskDefinition, candidate time.Time) bool {
	if def.Pause == nil {
		return true
	}
	return !def.Pause.Contains(candidate)
}
