package transform

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/xuzmocode4-325/katlego-engineering-c4-project/internal/core"
)

// Lookups is the immutable set of tables the transform stages consult.
// Accessors return copies; a Lookups value is safe to share between runs.
type Lookups struct {
	hours          map[string]string
	aims           map[string]string
	columns        []string
	referralPhrase string
	referralLabel  string
}

// DefaultLookups returns the tables used by the registration survey export.
func DefaultLookups() Lookups {
	return Lookups{
		hours: map[string]string{
			"7-14 hours":         "7-14 hours",
			"more than 14 hours": "More than 14 hours",
			"less than 6 hours":  "Less than 7 hours",
		},
		aims: map[string]string{
			"upskill": "upskill",
			"data":    "learn",
			"connect": "network",
			"build":   "enhance portfolio",
			"both":    "network & upskill",
			"more":    "learn & network",
		},
		columns:        slices.Clone(core.RawColumns),
		referralPhrase: "through a geeks for geeks webinar",
		referralLabel:  "Geeks for Geeks",
	}
}

// lookupsFile is the YAML shape of a lookups override file. Sections left
// out keep their defaults.
type lookupsFile struct {
	Hours    map[string]string `yaml:"hours" validate:"omitempty,dive,keys,required,endkeys,required"`
	Aims     map[string]string `yaml:"aims" validate:"omitempty,dive,keys,required,endkeys,required"`
	Columns  []string          `yaml:"columns" validate:"omitempty,unique,dive,required"`
	Referral *referralFile     `yaml:"referral"`
}

type referralFile struct {
	Phrase string `yaml:"phrase" validate:"required"`
	Label  string `yaml:"label" validate:"required"`
}

var fileValidator = validator.New(validator.WithRequiredStructEnabled())

// checkFile reports shape problems in an override file, one line per field.
func checkFile(f *lookupsFile) error {
	err := fileValidator.Struct(f)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	lines := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		lines = append(lines, fmt.Sprintf("%s failed %q", strings.TrimPrefix(fe.Namespace(), "lookupsFile."), fe.Tag()))
	}
	return fmt.Errorf("invalid lookups file:\n  - %s", strings.Join(lines, "\n  - "))
}

// LoadLookups reads a YAML override file on top of DefaultLookups.
// An empty path returns the defaults.
func LoadLookups(path string) (Lookups, error) {
	l := DefaultLookups()
	if path == "" {
		return l, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Lookups{}, fmt.Errorf("read lookups file: %w", err)
	}
	return ParseLookups(data)
}

// ParseLookups applies YAML overrides in data on top of DefaultLookups.
func ParseLookups(data []byte) (Lookups, error) {
	l := DefaultLookups()

	var f lookupsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Lookups{}, fmt.Errorf("parse lookups file: %w", err)
	}
	if err := checkFile(&f); err != nil {
		return Lookups{}, err
	}

	if f.Hours != nil {
		l.hours = lowerKeys(f.Hours)
	}
	if f.Aims != nil {
		l.aims = lowerKeys(f.Aims)
	}
	if f.Columns != nil {
		l.columns = make([]string, len(f.Columns))
		for i, c := range f.Columns {
			l.columns[i] = strings.ToLower(strings.TrimSpace(c))
		}
	}
	if f.Referral != nil {
		l.referralPhrase = f.Referral.Phrase
		l.referralLabel = f.Referral.Label
	}

	if err := l.validate(); err != nil {
		return Lookups{}, err
	}
	return l, nil
}

func (l Lookups) validate() error {
	var errs []string
	if len(l.columns) == 0 {
		errs = append(errs, "columns must not be empty")
	}
	for _, required := range []string{
		core.ColID, core.ColAgeRange, core.ColGender, core.ColCountry, core.ColReferral,
		core.ColExperience, core.ColTrack, core.ColHoursAvailable, core.ColAim,
		core.ColMotivation, core.ColSkillLevel, core.ColCompletedAptitude,
		core.ColAptitudeScore, core.ColGraduated,
	} {
		if !slices.Contains(l.columns, required) {
			errs = append(errs, fmt.Sprintf("columns must include %q", required))
		}
	}
	if len(l.aims) == 0 {
		errs = append(errs, "aims must not be empty")
	}
	for k := range l.aims {
		if strings.ContainsFunc(k, func(r rune) bool { return r == ' ' || r == '\t' }) {
			errs = append(errs, fmt.Sprintf("aim key %q must be a single token", k))
		}
	}
	if len(errs) > 0 {
		slices.Sort(errs)
		return fmt.Errorf("invalid lookups:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Hours returns a copy of the hours-available table.
func (l Lookups) Hours() map[string]string { return maps.Clone(l.hours) }

// Aims returns a copy of the aim-category table.
func (l Lookups) Aims() map[string]string { return maps.Clone(l.aims) }

// Columns returns a copy of the canonical raw column list.
func (l Lookups) Columns() []string { return slices.Clone(l.columns) }

// Referral returns the long referral phrase and its short label.
func (l Lookups) Referral() (phrase, label string) { return l.referralPhrase, l.referralLabel }

func (l Lookups) hour(v string) (string, bool) {
	out, ok := l.hours[strings.ToLower(strings.TrimSpace(v))]
	return out, ok
}

func (l Lookups) aim(token string) (string, bool) {
	out, ok := l.aims[token]
	return out, ok
}

func lowerKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}
