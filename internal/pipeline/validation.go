package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/vehicleml/vehicleml/internal/dataset"
	"github.com/vehicleml/vehicleml/internal/entity"
	"github.com/vehicleml/vehicleml/internal/mlerr"
	"github.com/vehicleml/vehicleml/internal/schema"
)

// requiredRawColumns are the raw inputs the transformation stage derives the
// canonical schema from. A split missing any of them fails validation.
var requiredRawColumns = []string{
	schema.ColGender,
	schema.ColAge,
	schema.ColDrivingLicense,
	schema.ColRegionCode,
	schema.ColPreviouslyInsured,
	schema.ColVehicleAge,
	schema.ColVehicleDamage,
	schema.ColAnnualPremium,
	schema.ColPolicySalesChan,
	schema.ColVintage,
	schema.LabelColumn,
}

// Validation checks the ingested splits before transformation sees them:
// both must be non-empty and carry every required raw column. The outcome is
// written as a report next to the other run artifacts.
type Validation struct {
	cfg    entity.ValidationConfig
	logger *slog.Logger
}

// NewValidation creates the validation stage.
func NewValidation(cfg entity.ValidationConfig, logger *slog.Logger) *Validation {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validation{cfg: cfg, logger: logger}
}

type splitReport struct {
	Name           string   `yaml:"name"`
	Rows           int      `yaml:"rows"`
	MissingColumns []string `yaml:"missingColumns,omitempty"`
}

type validationReport struct {
	Passed  bool          `yaml:"passed"`
	Message string        `yaml:"message,omitempty"`
	Splits  []splitReport `yaml:"splits"`
}

// Run executes the stage against the ingestion artifact. A failed check is
// reported through the artifact, not as an error; errors are reserved for
// I/O failures.
func (s *Validation) Run(ctx context.Context, ingestion entity.IngestionArtifact) (entity.ValidationArtifact, error) {
	var artifact entity.ValidationArtifact
	if err := ctx.Err(); err != nil {
		return artifact, err
	}

	report := validationReport{Passed: true}
	splits := []struct{ name, path string }{
		{"train", ingestion.TrainFilePath},
		{"test", ingestion.TestFilePath},
	}
	for _, split := range splits {
		records, err := dataset.ReadRecordsCSV(split.path)
		if err != nil {
			return artifact, mlerr.New(mlerr.CodeIngestion, err)
		}
		missing := missingColumns(records)
		if len(records) == 0 || len(missing) > 0 {
			report.Passed = false
			report.Message = fmt.Sprintf("split %s: %d rows, missing columns %v", split.name, len(records), missing)
		}
		report.Splits = append(report.Splits, splitReport{
			Name:           split.name,
			Rows:           len(records),
			MissingColumns: missing,
		})
	}

	if err := s.writeReport(report); err != nil {
		return artifact, err
	}

	artifact = entity.ValidationArtifact{
		Passed:     report.Passed,
		Message:    report.Message,
		ReportPath: s.cfg.ReportPath,
	}
	s.logger.Info("validation complete", "passed", artifact.Passed, "report", artifact.ReportPath)
	return artifact, nil
}

// missingColumns returns the required raw columns absent from every record.
// Column names are compared after normalization, the same way transformation
// will see them.
func missingColumns(records []dataset.Record) []string {
	present := map[string]bool{}
	for _, rec := range records {
		for k := range rec {
			present[schema.NormalizeName(k)] = true
		}
	}
	var missing []string
	for _, col := range requiredRawColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	return missing
}

func (s *Validation) writeReport(report validationReport) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return mlerr.New(mlerr.CodeIngestion, err)
	}
	if err := os.MkdirAll(filepath.Dir(s.cfg.ReportPath), 0o755); err != nil {
		return mlerr.New(mlerr.CodeIngestion, err)
	}
	if err := os.WriteFile(s.cfg.ReportPath, data, 0o644); err != nil {
		return mlerr.New(mlerr.CodeIngestion, err)
	}
	return nil
}
