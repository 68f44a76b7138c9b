package port

import "github.com/bnema/mediaq/internal/domain"

// HistorySink archives terminal job records. It is write-mostly: the
// scheduler never reads its state back.
type HistorySink interface {
	Record(entry domain.JobHistoryEntry) error
}

type HistoryStore interface {
	HistorySink
	List(limit int) ([]domain.JobHistoryEntry, error)
	Get(jobID string) (*domain.JobHistoryEntry, error)
	Close() error
}
