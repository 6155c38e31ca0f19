package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"jesa/internal/platform/config"
	platformmongo "jesa/internal/platform/mongo"
	"jesa/internal/registration/catalog"
	"jesa/internal/registration/models"
	"jesa/internal/registration/service"
	"jesa/internal/registration/store"
	"jesa/pkg/domain"
)

const timeLayout = "2006-01-02 15:04:05"

var applicantsLimit int

var applicantsCmd = &cobra.Command{
	Use:   "applicants",
	Short: "Inspect stored applicants",
}

var applicantsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent applicants, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
			bases, err := svc.ListApplicants(ctx, applicantsLimit)
			if err != nil {
				return err
			}
			renderApplicants(cmd.OutOrStdout(), bases)
			return nil
		})
	},
}

var applicantsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one applicant with its linked detail record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := domain.ParseObjectID(args[0])
		if err != nil {
			return err
		}
		return withService(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
			reg, err := svc.GetRegistration(ctx, id)
			if err != nil {
				return err
			}
			renderRegistration(cmd.OutOrStdout(), reg)
			return nil
		})
	},
}

func init() {
	applicantsListCmd.Flags().IntVarP(&applicantsLimit, "limit", "n", 20, "Maximum applicants to list")
}

// withService connects to MongoDB and runs fn against a read-side service.
func withService(parent context.Context, fn func(ctx context.Context, svc *service.Service) error) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	client, err := platformmongo.New(ctx, cfg.Mongo)
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	if client == nil {
		return errors.New("MONGO_URI is not set")
	}
	defer func() { _ = client.Close(context.Background()) }()

	return fn(ctx, service.New(store.NewMongo(client.DB), catalog.Default()))
}

func renderApplicants(w io.Writer, bases []*models.BaseApplicant) {
	if len(bases) == 0 {
		color.New(color.FgYellow).Fprintln(w, "No applicants found")
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Variant", "University", "Linked", "Created"})
	for _, b := range bases {
		table.Append([]string{
			b.ID.Hex(),
			string(b.Variant),
			b.University,
			strconv.FormatBool(b.IsLinked()),
			b.CreatedAt.Format(timeLayout),
		})
	}
	table.Render()
}

func renderRegistration(w io.Writer, reg *models.Registration) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Field", "Value"})
	table.SetAutoWrapText(false)
	table.Append([]string{"ID", reg.Base.ID.Hex()})
	table.Append([]string{"Variant", string(reg.Base.Variant)})
	table.Append([]string{"University", reg.Base.University})
	table.Append([]string{"Created", reg.Base.CreatedAt.Format(timeLayout)})

	switch d := reg.Detail.(type) {
	case *models.ExternalApplicant:
		table.Append([]string{"Detail ID", d.ID.Hex()})
		table.Append([]string{"Name", d.Name})
		table.Append([]string{"NIC", d.NIC})
		table.Append([]string{"Email", d.Email})
		table.Append([]string{"Whatsapp", d.Whatsapp})
		table.Append([]string{"Faculty", d.Faculty})
		table.Append([]string{"Academic Year", d.AcademicYear})
		table.Append([]string{"Award", d.Award})
		table.Append([]string{"Industry", d.WhichIndustry})
	case *models.InternalApplicant:
		table.Append([]string{"Detail ID", d.ID.Hex()})
		table.Append([]string{"Name", d.Name})
		table.Append([]string{"Email", d.Email})
		table.Append([]string{"Whatsapp", d.Whatsapp})
		table.Append([]string{"Faculty", d.Faculty})
		degree := d.Degree
		if d.OtherDegree != "" {
			degree += " (" + d.OtherDegree + ")"
		}
		table.Append([]string{"Degree", degree})
		table.Append([]string{"Academic Year", d.AcademicYear})
		table.Append([]string{"Past Participant", strconv.FormatBool(d.IsPastParticipant)})
		for i, award := range d.Awards() {
			table.Append([]string{fmt.Sprintf("Award %d", i+1), award})
		}
	}
	table.Render()

	if reg.Detail == nil {
		color.New(color.FgRed).Fprintln(w, "Detail record missing: registration did not complete")
	}
}
