package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"jesa/internal/registration/catalog"
)

var lookupsFaculty string

// lookupsCmd prints the lookup tables, or one faculty's options.
var lookupsCmd = &cobra.Command{
	Use:   "lookups",
	Short: "Print registration lookup tables",
	Long: `Print the faculties with their BESA award and degree count, followed by
the enumerations accepted by the registration forms. With --faculty only
that faculty's degrees and selectable awards are printed.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c := catalog.Default()
		if lookupsFaculty != "" {
			return renderFaculty(cmd.OutOrStdout(), c, lookupsFaculty)
		}
		renderCatalog(cmd.OutOrStdout(), c)
		return nil
	},
}

func init() {
	lookupsCmd.Flags().StringVar(&lookupsFaculty, "faculty", "", "Show degrees and awards for one faculty")
}

func renderCatalog(w io.Writer, c *catalog.Catalog) {
	heading := color.New(color.FgYellow, color.Bold)

	heading.Fprintln(w, "\nFaculties")
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Faculty", "BESA Award", "Degrees"})
	table.SetAutoWrapText(false)
	for _, f := range c.FacultyTable() {
		besa := f.BESA
		if besa == "" {
			besa = "-"
		}
		table.Append([]string{f.Name, besa, fmt.Sprintf("%d", len(f.Degrees))})
	}
	table.Render()

	heading.Fprintln(w, "\nEnumerations")
	table = tablewriter.NewWriter(w)
	table.SetHeader([]string{"Field", "Values"})
	table.SetAutoWrapText(false)
	table.Append([]string{"Gender", strings.Join(c.Genders(), ", ")})
	table.Append([]string{"University", strings.Join(c.Universities(), ", ")})
	table.Append([]string{"AcademicYear", strings.Join(c.AcademicYears(), ", ")})
	table.Append([]string{"Award", strings.Join(c.Awards(), ", ")})
	table.Render()
}

func renderFaculty(w io.Writer, c *catalog.Catalog, faculty string) error {
	degrees, ok := c.DegreesFor(faculty)
	if !ok {
		return fmt.Errorf("unknown faculty %q", faculty)
	}

	color.New(color.FgYellow, color.Bold).Fprintf(w, "\n%s\n", faculty)
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Degrees", "Awards"})
	table.SetAutoWrapText(false)
	awards := c.AwardsFor(faculty)
	for i := 0; i < max(len(degrees), len(awards)); i++ {
		table.Append([]string{at(degrees, i), at(awards, i)})
	}
	table.Render()
	return nil
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}
