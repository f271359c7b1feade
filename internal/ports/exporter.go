package ports

import (
	"io"

	"cargo-logistics-service/internal/domain"
)

// Port: renders a generated report into a downloadable document.
type ReportExporter interface {
	ContentType() string
	Extension() string
	Export(w io.Writer, r *domain.Report) error
}
