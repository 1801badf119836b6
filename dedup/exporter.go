package dedup

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// ExportFormat формат экспорта результата
type ExportFormat string

const (
	FormatJSON  ExportFormat = "json"
	FormatCSV   ExportFormat = "csv"
	FormatExcel ExportFormat = "excel"
)

// ResultExporter экспортер результата дедупликации для ручного разбора
// операторами: канонические события, группы слияния и ошибки валидации
type ResultExporter struct{}

// NewResultExporter создает новый экспортер
func NewResultExporter() *ResultExporter {
	return &ResultExporter{}
}

// Export экспортирует результат в указанном формате
func (ex *ResultExporter) Export(result *DeduplicationResult, format ExportFormat, filename string) error {
	switch format {
	case FormatJSON:
		return ex.ExportToJSON(result, filename)
	case FormatCSV:
		return ex.ExportToCSV(result, filename)
	case FormatExcel:
		return ex.ExportToExcel(result, filename)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

// ExportToJSON экспортирует результат в JSON
func (ex *ResultExporter) ExportToJSON(result *DeduplicationResult, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}

// ExportToCSV экспортирует канонические события в CSV
func (ex *ResultExporter) ExportToCSV(result *DeduplicationResult, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(canonicalEventHeader()); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, event := range result.CanonicalEvents {
		if err := writer.Write(canonicalEventRecord(event)); err != nil {
			return fmt.Errorf("failed to write csv record: %w", err)
		}
	}

	return writer.Error()
}

// ExportToExcel экспортирует результат в Excel: лист канонических событий,
// лист групп слияния и лист ошибок валидации
func (ex *ResultExporter) ExportToExcel(result *DeduplicationResult, filename string) error {
	f := excelize.NewFile()
	defer f.Close()

	const eventsSheet = "Canonical Events"
	f.SetSheetName("Sheet1", eventsSheet)

	for col, header := range canonicalEventHeader() {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(eventsSheet, cell, header)
	}
	for rowIdx, event := range result.CanonicalEvents {
		for col, value := range canonicalEventRecord(event) {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			f.SetCellValue(eventsSheet, cell, value)
		}
	}

	const groupsSheet = "Merge Groups"
	if _, err := f.NewSheet(groupsSheet); err != nil {
		return fmt.Errorf("failed to create groups sheet: %w", err)
	}
	groupHeaders := []string{"Master ID", "Master Title", "Absorbed Count", "Confidence", "Reason"}
	for col, header := range groupHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(groupsSheet, cell, header)
	}
	for rowIdx, group := range result.Groups {
		record := []interface{}{
			group.Master.ID,
			group.Master.Title,
			len(group.Absorbed),
			group.Confidence,
			group.Reason,
		}
		for col, value := range record {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			f.SetCellValue(groupsSheet, cell, value)
		}
	}

	const errorsSheet = "Validation Errors"
	if _, err := f.NewSheet(errorsSheet); err != nil {
		return fmt.Errorf("failed to create errors sheet: %w", err)
	}
	errorHeaders := []string{"Code", "Event ID", "Message"}
	for col, header := range errorHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(errorsSheet, cell, header)
	}
	for rowIdx, verr := range result.Errors {
		record := []interface{}{string(verr.Code), verr.EventID, verr.Message}
		for col, value := range record {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			f.SetCellValue(errorsSheet, cell, value)
		}
	}

	if err := f.SaveAs(filename); err != nil {
		return fmt.Errorf("failed to save excel file: %w", err)
	}
	return nil
}

// canonicalEventHeader заголовок таблицы канонических событий
func canonicalEventHeader() []string {
	return []string{
		"ID", "Title", "Event Date", "Event Type", "Severity",
		"Records Affected", "Victim Org", "Industry", "Sources", "Confidence",
	}
}

// canonicalEventRecord строка таблицы для одного канонического события
func canonicalEventRecord(event CandidateEvent) []string {
	date := ""
	if event.HasDate() {
		date = event.EventDate.Format("2006-01-02")
	}
	records := ""
	if event.RecordsAffected != nil {
		records = strconv.FormatInt(*event.RecordsAffected, 10)
	}
	return []string{
		event.ID,
		event.Title,
		date,
		event.EventType,
		event.Severity,
		records,
		event.VictimOrgName,
		event.VictimOrgIndustry,
		strconv.Itoa(len(event.DataSources)),
		strconv.FormatFloat(event.Confidence, 'f', 2, 64),
	}
}
