package port

import "github.com/bnema/mediaq/internal/domain"

type JobQueue interface {
	Enqueue(spec domain.JobSpec) (string, error)
}
