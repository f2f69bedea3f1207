package devserver

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// ReportFilename is the attachment name of the generated report
const ReportFilename = "Chemical_Report.pdf"

// RenderReport builds the PDF summary of an analysed upload
func RenderReport(u Upload) ([]byte, error) {
	if u.Stats == nil {
		return nil, fmt.Errorf("upload %d has no analysis", u.ID)
	}
	st := u.Stats

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Chemical Equipment Report", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, "Chemical Equipment Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("File: %s  ·  Uploaded: %s", u.Filename, u.UploadedAt)), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, "Generated: "+time.Now().UTC().Format(time.RFC1123), "", 1, "C", false, 0, "")
	pdf.Ln(8)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, "Summary", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	summary := [][2]string{
		{"Total Equipment", fmt.Sprintf("%d", st.TotalCount)},
		{"Average Pressure", fmt.Sprintf("%.2f bar", st.AvgPressure)},
		{"Average Temperature", tr(fmt.Sprintf("%.2f °C", st.AvgTemp))},
	}
	for _, row := range summary {
		pdf.CellFormat(70, 8, row[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(60, 8, row[1], "1", 1, "R", false, 0, "")
	}
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, "Equipment Type Distribution", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(230, 236, 245)
	pdf.CellFormat(70, 8, "Type", "1", 0, "L", true, 0, "")
	pdf.CellFormat(30, 8, "Count", "1", 0, "R", true, 0, "")
	pdf.CellFormat(30, 8, "Share", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	for i, label := range st.ChartLabels {
		count := 0
		if i < len(st.ChartData) {
			count = st.ChartData[i]
		}
		share := 0.0
		if st.TotalCount > 0 {
			share = float64(count) / float64(st.TotalCount) * 100
		}
		pdf.CellFormat(70, 8, tr(label), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 8, fmt.Sprintf("%d", count), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 8, fmt.Sprintf("%.1f%%", share), "1", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
