package ports

import "github.com/aiproductguy/lightpipe/internal/domain"

// ReportStore persists bootstrap reports.
type ReportStore interface {
	SaveReport(report domain.Report) (id string, err error)
}
