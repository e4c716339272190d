// Package schema defines the canonical model-input columns and the
// reconciliation of loosely-typed raw rows into that shape. The column list
// and derivation rules are fixed at training time and reproduced exactly at
// inference time.
package schema

import (
	"strings"

	"github.com/vehicleml/vehicleml/internal/dataset"
	"github.com/vehicleml/vehicleml/internal/mlerr"
)

// Canonical column names, in canonical order.
const (
	ColGender            = "Gender"
	ColAge               = "Age"
	ColDrivingLicense    = "Driving_License"
	ColRegionCode        = "Region_Code"
	ColPreviouslyInsured = "Previously_Insured"
	ColAnnualPremium     = "Annual_Premium"
	ColPolicySalesChan   = "Policy_Sales_Channel"
	ColVintage           = "Vintage"
	ColVehicleAgeLt1     = "Vehicle_Age_lt_1_Year"
	ColVehicleAgeGt2     = "Vehicle_Age_gt_2_Years"
	ColVehicleDamageYes  = "Vehicle_Damage_Yes"

	// Raw free-text columns consumed by the derivation rules.
	ColVehicleAge    = "Vehicle_Age"
	ColVehicleDamage = "Vehicle_Damage"

	// LabelColumn is the training target, appended as the last column of
	// transformed arrays.
	LabelColumn = "Response"
)

// Columns returns the canonical feature column list in canonical order.
func Columns() []string {
	return []string{
		ColGender,
		ColAge,
		ColDrivingLicense,
		ColRegionCode,
		ColPreviouslyInsured,
		ColAnnualPremium,
		ColPolicySalesChan,
		ColVintage,
		ColVehicleAgeLt1,
		ColVehicleAgeGt2,
		ColVehicleDamageYes,
	}
}

// numericColumns are the declared-numeric inputs subject to coercion. The
// parse-failure policy applies only to these; categorical derivations resolve
// their own documented defaults.
var numericColumns = map[string]bool{
	ColAge:               true,
	ColDrivingLicense:    true,
	ColRegionCode:        true,
	ColPreviouslyInsured: true,
	ColAnnualPremium:     true,
	ColPolicySalesChan:   true,
	ColVintage:           true,
}

// ParseFailureMode controls what happens when a declared-numeric cell cannot
// be parsed.
type ParseFailureMode int

const (
	// DefaultToZero resolves unparseable cells to 0. This trades strictness
	// for availability and matches the trained behavior.
	DefaultToZero ParseFailureMode = iota
	// Reject fails reconciliation on the first unparseable cell.
	Reject
)

// Policy configures parse-failure handling, globally and per column.
type Policy struct {
	OnParseFailure ParseFailureMode
	PerColumn      map[string]ParseFailureMode
}

// DefaultPolicy returns the default-to-zero policy.
func DefaultPolicy() Policy { return Policy{OnParseFailure: DefaultToZero} }

func (p Policy) mode(column string) ParseFailureMode {
	if m, ok := p.PerColumn[column]; ok {
		return m
	}
	return p.OnParseFailure
}

// Reconcile turns raw rows into a frame conforming exactly to the canonical
// column list, in canonical order. The steps run in a fixed order; later
// steps assume earlier normalization. Applying Reconcile to already-canonical
// data is a no-op.
func Reconcile(records []dataset.Record, policy Policy) (*dataset.Frame, error) {
	frame := dataset.NewFrame(Columns())

	for _, raw := range records {
		rec := normalizeKeys(raw)
		deriveVehicleAge(rec)
		deriveVehicleDamage(rec)
		mapGender(rec)

		row := make([]float64, 0, len(frame.Columns))
		for _, col := range Columns() {
			v, ok := rec[col]
			if !ok || v.IsMissing() {
				row = append(row, 0) // absent canonical column backfills to 0
				continue
			}
			f, parsed := v.ParseNumber()
			if !parsed {
				if numericColumns[col] && policy.mode(col) == Reject {
					return nil, mlerr.Newf(mlerr.CodeIngestion,
						"column %s: cannot parse %q as number", col, v.Text())
				}
				f = 0
			}
			row = append(row, f)
		}
		if err := frame.AppendRow(row); err != nil {
			return nil, mlerr.New(mlerr.CodeIngestion, err)
		}
	}
	return frame, nil
}

// Labels extracts the numeric training target from records. Unparseable or
// missing labels resolve to 0 under the default policy.
func Labels(records []dataset.Record, policy Policy) ([]float64, error) {
	out := make([]float64, 0, len(records))
	for _, raw := range records {
		rec := normalizeKeys(raw)
		f, parsed := rec[LabelColumn].ParseNumber()
		if !parsed {
			if policy.mode(LabelColumn) == Reject {
				return nil, mlerr.Newf(mlerr.CodeIngestion,
					"column %s: cannot parse %q as number", LabelColumn, rec[LabelColumn].Text())
			}
			f = 0
		}
		out = append(out, f)
	}
	return out, nil
}

// normalizeKeys trims whitespace, replaces spaces with underscores, and
// strips characters outside [0-9A-Za-z_] from every column name. Identifier
// columns are dropped here as well; they never reach the model.
func normalizeKeys(rec dataset.Record) dataset.Record {
	out := make(dataset.Record, len(rec))
	for k, v := range rec {
		nk := NormalizeName(k)
		if nk == "" || nk == "id" || nk == "_id" {
			continue
		}
		out[nk] = v
	}
	return out
}

// NormalizeName applies the column-name normalization rule to one name.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, " ", "_")
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= '0' && r <= '9', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// deriveVehicleAge splits the free-text Vehicle_Age field into the two
// binary columns. Three-way classification with a safe default: "less than"
// tokens yield (1,0), "greater than" tokens yield (0,1), anything else,
// including the explicit "1-2" range and unparseable values, yields (0,0).
func deriveVehicleAge(rec dataset.Record) {
	v, ok := rec[ColVehicleAge]
	if !ok {
		return
	}
	lt, gt := 0.0, 0.0
	s := strings.ToLower(v.Text())
	switch {
	case v.IsMissing():
	case strings.Contains(s, "<"), strings.Contains(s, "lt"), strings.Contains(s, "less"):
		lt = 1
	case strings.Contains(s, ">"), strings.Contains(s, "gt"), strings.Contains(s, "greater"):
		gt = 1
	}
	rec[ColVehicleAgeLt1] = dataset.Number(lt)
	rec[ColVehicleAgeGt2] = dataset.Number(gt)
	delete(rec, ColVehicleAge)
}

// deriveVehicleDamage maps the free-text Vehicle_Damage field to the binary
// column by case-insensitive exact match. Unmatched values become missing and
// are backfilled to 0 by the canonical projection.
func deriveVehicleDamage(rec dataset.Record) {
	v, ok := rec[ColVehicleDamage]
	if !ok {
		return
	}
	switch strings.ToLower(strings.TrimSpace(v.Text())) {
	case "yes":
		rec[ColVehicleDamageYes] = dataset.Number(1)
	case "no":
		rec[ColVehicleDamageYes] = dataset.Number(0)
	default:
		rec[ColVehicleDamageYes] = dataset.Missing()
	}
	delete(rec, ColVehicleDamage)
}

// mapGender encodes textual Gender cells: "Male" is 1, "Female" is 0, any
// other text defaults to 0. Numeric cells pass through untouched.
func mapGender(rec dataset.Record) {
	v, ok := rec[ColGender]
	if !ok {
		return
	}
	s, isText := v.AsString()
	if !isText {
		return
	}
	switch strings.TrimSpace(s) {
	case "Male":
		rec[ColGender] = dataset.Number(1)
	case "Female":
		rec[ColGender] = dataset.Number(0)
	default:
		rec[ColGender] = dataset.Number(0)
	}
}
