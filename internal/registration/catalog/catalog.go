// Package catalog holds the registration lookup tables: enumerations for the
// payload fields and the faculty to degree and faculty to award mappings.
//
// The tables are data, loaded from an embedded YAML document. The validator,
// the eligibility rules, the lookup endpoints and jesactl all read from the
// same *Catalog so value sets are declared exactly once.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	// PrimaryUniversity is the host institution. Its students register
	// through the internal flow only.
	PrimaryUniversity = "University of Sri Jayewardenepura"
	// BestInnovator is the only award open to external applicants.
	BestInnovator = "Best Innovator"
	// OtherDegree is the degree sentinel that makes OtherDegree mandatory.
	OtherDegree = "Other"
)

//go:embed catalog.yaml
var defaultYAML []byte

// Faculty is one row of the faculty tables.
type Faculty struct {
	Name    string   `yaml:"name" json:"name"`
	BESA    string   `yaml:"besa,omitempty" json:"besa,omitempty"`
	Degrees []string `yaml:"degrees" json:"degrees"`
}

type document struct {
	Genders       []string          `yaml:"genders"`
	GenderAliases map[string]string `yaml:"gender_aliases"`
	Universities  []string          `yaml:"universities"`
	AcademicYears []string          `yaml:"academic_years"`
	CommonAwards  []string          `yaml:"common_awards"`
	Faculties     []Faculty         `yaml:"faculties"`
}

// Catalog is immutable after Parse returns.
type Catalog struct {
	doc       document
	faculties map[string]*Faculty
	awards    []string
	sets      map[string]map[string]struct{}
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the embedded catalog. It panics if the embedded tables are
// inconsistent, which is a build defect caught by the package tests.
func Default() *Catalog {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(defaultYAML)
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("catalog: embedded tables invalid: %v", defaultErr))
	}
	return defaultCatalog
}

// Parse decodes and checks a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := check(doc); err != nil {
		return nil, err
	}

	c := &Catalog{
		doc:       doc,
		faculties: make(map[string]*Faculty, len(doc.Faculties)),
		sets:      make(map[string]map[string]struct{}),
	}
	c.awards = slices.Clone(doc.CommonAwards)
	for i := range doc.Faculties {
		f := &c.doc.Faculties[i]
		c.faculties[f.Name] = f
		if f.BESA != "" {
			c.awards = append(c.awards, f.BESA)
		}
	}

	c.sets["gender"] = toSet(doc.Genders)
	c.sets["university"] = toSet(doc.Universities)
	c.sets["academic_year"] = toSet(doc.AcademicYears)
	c.sets["award"] = toSet(c.awards)
	c.sets["faculty"] = toSet(c.Faculties())
	return c, nil
}

func check(doc document) error {
	var errs []error
	if len(doc.Genders) == 0 || len(doc.Universities) == 0 || len(doc.AcademicYears) == 0 {
		errs = append(errs, errors.New("genders, universities and academic_years must not be empty"))
	}
	if !slices.Contains(doc.Universities, PrimaryUniversity) {
		errs = append(errs, fmt.Errorf("universities must include %q", PrimaryUniversity))
	}
	if !slices.Contains(doc.CommonAwards, BestInnovator) {
		errs = append(errs, fmt.Errorf("common_awards must include %q", BestInnovator))
	}
	for alias, target := range doc.GenderAliases {
		if !slices.Contains(doc.Genders, target) {
			errs = append(errs, fmt.Errorf("gender alias %q points to unknown gender %q", alias, target))
		}
	}

	seenFaculty := map[string]bool{}
	degreeOwner := map[string]string{}
	for _, f := range doc.Faculties {
		if f.Name == "" {
			errs = append(errs, errors.New("faculty with empty name"))
			continue
		}
		if seenFaculty[f.Name] {
			errs = append(errs, fmt.Errorf("duplicate faculty %q", f.Name))
		}
		seenFaculty[f.Name] = true

		if len(f.Degrees) == 0 || f.Degrees[len(f.Degrees)-1] != OtherDegree {
			errs = append(errs, fmt.Errorf("faculty %q: degree list must end with %q", f.Name, OtherDegree))
		}
		for _, d := range f.Degrees {
			if d == OtherDegree {
				continue
			}
			if owner, ok := degreeOwner[d]; ok {
				errs = append(errs, fmt.Errorf("degree %q listed under both %q and %q", d, owner, f.Name))
			}
			degreeOwner[d] = f.Name
		}
		if f.BESA != "" && slices.Contains(doc.CommonAwards, f.BESA) {
			errs = append(errs, fmt.Errorf("faculty %q: BESA award %q duplicates a common award", f.Name, f.BESA))
		}
	}
	return errors.Join(errs...)
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// Genders returns the accepted gender codes.
func (c *Catalog) Genders() []string { return slices.Clone(c.doc.Genders) }

// Universities returns the accepted university values, host institution first.
func (c *Catalog) Universities() []string { return slices.Clone(c.doc.Universities) }

// AcademicYears returns the accepted academic years.
func (c *Catalog) AcademicYears() []string { return slices.Clone(c.doc.AcademicYears) }

// Awards returns every award: the common set followed by each BESA award in
// faculty order.
func (c *Catalog) Awards() []string { return slices.Clone(c.awards) }

// CommonAwards returns the faculty-independent awards.
func (c *Catalog) CommonAwards() []string { return slices.Clone(c.doc.CommonAwards) }

// Faculties returns faculty names in table order.
func (c *Catalog) Faculties() []string {
	names := make([]string, 0, len(c.doc.Faculties))
	for _, f := range c.doc.Faculties {
		names = append(names, f.Name)
	}
	return names
}

// FacultyTable returns a copy of the full faculty table.
func (c *Catalog) FacultyTable() []Faculty {
	out := make([]Faculty, 0, len(c.doc.Faculties))
	for _, f := range c.doc.Faculties {
		out = append(out, Faculty{Name: f.Name, BESA: f.BESA, Degrees: slices.Clone(f.Degrees)})
	}
	return out
}

// DegreesFor returns the ordered degree options for faculty.
func (c *Catalog) DegreesFor(faculty string) ([]string, bool) {
	f, ok := c.faculties[faculty]
	if !ok {
		return nil, false
	}
	return slices.Clone(f.Degrees), true
}

// OffersDegree reports whether degree is an option of faculty.
func (c *Catalog) OffersDegree(faculty, degree string) bool {
	f, ok := c.faculties[faculty]
	return ok && slices.Contains(f.Degrees, degree)
}

// AwardsFor returns the selectable awards for faculty: the common awards
// followed by the faculty's BESA award, if it has one. Unknown faculties get
// the common awards only.
func (c *Catalog) AwardsFor(faculty string) []string {
	awards := slices.Clone(c.doc.CommonAwards)
	if f, ok := c.faculties[faculty]; ok && f.BESA != "" {
		awards = append(awards, f.BESA)
	}
	return awards
}

// Contains reports membership of value in the named enumeration: gender,
// university, academic_year, award or faculty.
func (c *Catalog) Contains(enum, value string) bool {
	set, ok := c.sets[enum]
	if !ok {
		return false
	}
	_, ok = set[value]
	return ok
}

// Enumerations lists the names accepted by Contains.
func (c *Catalog) Enumerations() []string {
	return []string{"gender", "university", "academic_year", "award", "faculty"}
}

// NormalizeGender maps form labels such as "Male" onto gender codes.
// Unknown values are returned trimmed and otherwise untouched.
func (c *Catalog) NormalizeGender(value string) string {
	value = strings.TrimSpace(value)
	if code, ok := c.doc.GenderAliases[value]; ok {
		return code
	}
	return value
}
