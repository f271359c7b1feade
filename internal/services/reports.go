package services

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"cargo-logistics-service/internal/domain"
	"cargo-logistics-service/internal/platform/obs"
	"cargo-logistics-service/internal/ports"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// ReportService generates the tabular reports and renders them for
// download.
type ReportService struct {
	Repo     ports.ReportRepository
	Source   ports.ReportSource
	Finance  *FinanceService
	Exporter ports.ReportExporter
}

func (s *ReportService) List(ctx context.Context, p domain.ListParams) (domain.Page[domain.Report], error) {
	p = p.Normalize()
	if p.Status != "" && !domain.ReportType(p.Status).Valid() {
		return domain.Page[domain.Report]{}, domain.NewValidationError("type", "is not a known report type")
	}
	items, total, err := s.Repo.ListReports(ctx, p)
	if err != nil {
		return domain.Page[domain.Report]{}, fmt.Errorf("list reports: %w", err)
	}
	return domain.NewPage(items, total, p), nil
}

func (s *ReportService) Get(ctx context.Context, id string) (*domain.Report, error) {
	r, err := s.Repo.GetReport(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	return r, nil
}

func (s *ReportService) Delete(ctx context.Context, id string) error {
	if err := s.Repo.DeleteReport(ctx, id); err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	return nil
}

// Generate runs the aggregation for r.Type over r.Parameters and stores the
// result.
func (s *ReportService) Generate(ctx context.Context, r *domain.Report, by string) (err error) {
	defer obs.Time(ctx, "reports.Generate")(&err)

	r.ID = ""
	r.Parameters.DateFrom = domain.DateOnly(r.Parameters.DateFrom)
	r.Parameters.DateTo = domain.DateOnly(r.Parameters.DateTo)
	r.Normalize()
	if err := r.Validate(); err != nil {
		return err
	}

	var table domain.ReportTable
	switch r.Type {
	case domain.ReportShipments:
		table, err = s.shipments(ctx, r.Parameters)
	case domain.ReportInvoices:
		table, err = s.invoices(ctx, r.Parameters)
	case domain.ReportClients:
		table, err = s.clients(ctx, r.Parameters)
	case domain.ReportContainers:
		table, err = s.containers(ctx, r.Parameters)
	case domain.ReportFinancial:
		table, err = s.financial(ctx, r.Parameters)
	}
	if err != nil {
		return fmt.Errorf("generate %s report: %w", r.Type, err)
	}
	table.Title = r.Name
	r.Result = table
	r.GeneratedBy = by

	if err := s.Repo.CreateReport(ctx, r); err != nil {
		return fmt.Errorf("generate %s report: %w", r.Type, err)
	}
	return nil
}

// Export renders a stored report with the configured exporter and returns
// the file name to offer.
func (s *ReportService) Export(ctx context.Context, id string, w io.Writer) (string, error) {
	r, err := s.Repo.GetReport(ctx, id)
	if err != nil {
		return "", fmt.Errorf("export report: %w", err)
	}
	if err := s.Exporter.Export(w, r); err != nil {
		return "", fmt.Errorf("export report %s: %w", id, err)
	}
	return fmt.Sprintf("%s-report-%s.%s", r.Type, r.CreatedAt.Format(dateLayout), s.Exporter.Extension()), nil
}

func (s *ReportService) ContentType() string { return s.Exporter.ContentType() }

func optDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func (s *ReportService) shipments(ctx context.Context, p domain.ReportParameters) (domain.ReportTable, error) {
	rows, err := s.Source.ShipmentRows(ctx, p)
	if err != nil {
		return domain.ReportTable{}, err
	}

	t := domain.ReportTable{
		Columns: []string{"Tracking Number", "Client", "Origin", "Destination", "Cargo Type", "Weight (kg)", "Status", "Shipping Date", "Delivered"},
		Rows:    make([][]string, 0, len(rows)),
	}
	byStatus := map[domain.ShipmentStatus]int{}
	weight := decimal.Zero
	for _, sh := range rows {
		byStatus[sh.Status]++
		weight = weight.Add(sh.WeightKg)
		t.Rows = append(t.Rows, []string{
			sh.TrackingNumber, sh.ClientName, sh.Origin, sh.Destination, string(sh.CargoType),
			sh.WeightKg.String(), string(sh.Status),
			optDate(sh.ShippingDate), optDate(sh.ActualDelivery),
		})
	}

	t.Totals = map[string]string{
		"shipments":   strconv.Itoa(len(rows)),
		"totalWeight": weight.String(),
	}
	for st, n := range byStatus {
		t.Totals[string(st)] = strconv.Itoa(n)
	}
	return t, nil
}

func (s *ReportService) invoices(ctx context.Context, p domain.ReportParameters) (domain.ReportTable, error) {
	rows, err := s.Source.InvoiceRows(ctx, p)
	if err != nil {
		return domain.ReportTable{}, err
	}

	t := domain.ReportTable{
		Columns: []string{"Invoice Number", "Client", "Issue Date", "Due Date", "Currency", "Total", "Paid", "Balance", "Status"},
		Rows:    make([][]string, 0, len(rows)),
	}
	var total, paid decimal.Decimal
	for _, inv := range rows {
		if inv.Status != domain.InvoiceCancelled {
			total = total.Add(inv.Total)
			paid = paid.Add(inv.AmountPaid)
		}
		t.Rows = append(t.Rows, []string{
			inv.InvoiceNumber, inv.ClientName, inv.IssueDate.Format(dateLayout), inv.DueDate.Format(dateLayout),
			inv.Currency, money(inv.Total), money(inv.AmountPaid), money(inv.Balance()), string(inv.Status),
		})
	}
	t.Totals = map[string]string{
		"invoices":    strconv.Itoa(len(rows)),
		"invoiced":    money(total),
		"collected":   money(paid),
		"outstanding": money(total.Sub(paid)),
	}
	return t, nil
}

func (s *ReportService) clients(ctx context.Context, p domain.ReportParameters) (domain.ReportTable, error) {
	rows, err := s.Source.ClientRows(ctx, p)
	if err != nil {
		return domain.ReportTable{}, err
	}

	t := domain.ReportTable{
		Columns: []string{"Client", "Email", "Country", "Status", "Shipments", "Invoiced", "Paid"},
		Rows:    make([][]string, 0, len(rows)),
	}
	shipments := 0
	var invoiced, paid decimal.Decimal
	for _, a := range rows {
		shipments += a.Shipments
		invoiced = invoiced.Add(a.Invoiced)
		paid = paid.Add(a.Paid)
		t.Rows = append(t.Rows, []string{
			a.Client.Name, a.Client.Email, a.Client.Country, string(a.Client.Status),
			strconv.Itoa(a.Shipments), money(a.Invoiced), money(a.Paid),
		})
	}
	t.Totals = map[string]string{
		"clients":   strconv.Itoa(len(rows)),
		"shipments": strconv.Itoa(shipments),
		"invoiced":  money(invoiced),
		"paid":      money(paid),
	}
	return t, nil
}

func (s *ReportService) containers(ctx context.Context, p domain.ReportParameters) (domain.ReportTable, error) {
	rows, err := s.Source.ContainerRows(ctx, p)
	if err != nil {
		return domain.ReportTable{}, err
	}

	t := domain.ReportTable{
		Columns: []string{"Container Number", "Type", "Status", "Location", "Shipments"},
		Rows:    make([][]string, 0, len(rows)),
	}
	used := 0
	for _, u := range rows {
		if u.Shipments > 0 {
			used++
		}
		t.Rows = append(t.Rows, []string{
			u.Container.ContainerNumber, string(u.Container.Type), string(u.Container.Status),
			u.Container.Location, strconv.Itoa(u.Shipments),
		})
	}
	t.Totals = map[string]string{
		"containers": strconv.Itoa(len(rows)),
		"used":       strconv.Itoa(used),
		"idle":       strconv.Itoa(len(rows) - used),
	}
	return t, nil
}

func (s *ReportService) financial(ctx context.Context, p domain.ReportParameters) (domain.ReportTable, error) {
	sum, err := s.Finance.Summary(ctx, &p.DateFrom, &p.DateTo)
	if err != nil {
		return domain.ReportTable{}, err
	}

	t := domain.ReportTable{
		Columns: []string{"Month", "Type", "Total"},
		Rows:    make([][]string, 0, len(sum.ByMonth)+len(sum.ByCategory)),
	}
	for _, m := range sum.ByMonth {
		t.Rows = append(t.Rows, []string{m.Month, string(m.Type), money(m.Total)})
	}
	t.Totals = map[string]string{
		"income":    money(sum.TotalIncome),
		"expense":   money(sum.TotalExpense),
		"netProfit": money(sum.NetProfit),
	}
	for _, c := range sum.ByCategory {
		t.Totals[string(c.Type)+":"+c.Category] = money(c.Total)
	}
	return t, nil
}
