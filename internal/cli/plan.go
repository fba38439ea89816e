package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/loom/internal/models"
	"github.com/example/loom/internal/wire"
)

// PlanCmd returns the plan command with its subcommands.
func PlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Manage stored plan snapshots",
		Long:  "Import, list, show, and delete plan snapshots in the loom database",
	}
	cmd.AddCommand(planImportCmd())
	cmd.AddCommand(planListCmd())
	cmd.AddCommand(planShowCmd())
	cmd.AddCommand(planDeleteCmd())
	return cmd
}

func planImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import a plan document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := models.ReadPlanDoc(args[0])
			if err != nil {
				return err
			}

			resp, err := wire.PlanService().ImportPlan(cmd.Context(), doc)
			if err != nil {
				return fmt.Errorf("failed to import plan: %w", err)
			}

			fmt.Printf("%s Imported plan %s (%d tasks, %d edges)\n",
				color.GreenString("✓"), resp.PlanID, resp.TaskCount, resp.EdgeCount)
			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Printf("   loom plan show %s   # View the snapshot\n", resp.PlanID)
			fmt.Printf("   loom query --plan %s # Query it\n", resp.PlanID)
			return nil
		},
	}
}

func planListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			plans, err := wire.PlanService().ListPlans(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list plans: %w", err)
			}

			if len(plans) == 0 {
				fmt.Println("No plans found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTASKS\tEDGES\tCREATED")
			fmt.Fprintln(w, "--\t----\t-----\t-----\t-------")
			for _, p := range plans {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", p.ID, p.Name, p.TaskCount, p.EdgeCount, p.CreatedAt)
			}
			w.Flush()
			return nil
		},
	}
}

func planShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a stored plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			detail, err := wire.PlanService().ShowPlan(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("Plan %s: %s\n\n", detail.ID, detail.Name)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TASK\tMODEL\tSTATE\tOWNERS\tMARKS")
			fmt.Fprintln(w, "----\t-----\t-----\t------\t-----")
			for _, t := range detail.Tasks {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					t.ID, t.Model, stateLabel(t.State, t.Outcome), ownersLabel(t.Owners), marksLabel(t.Mission, t.Permanent))
			}
			w.Flush()

			if len(detail.Edges) > 0 {
				fmt.Println()
				for _, e := range detail.Edges {
					label := ""
					if e.Data != "" {
						label = fmt.Sprintf(" [%s]", e.Data)
					}
					fmt.Printf("  %s -> %s (%s)%s\n", e.Parent, e.Child, e.Relation, label)
				}
			}
			return nil
		},
	}
}

func planDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := wire.PlanService().DeletePlan(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("%s Deleted plan %s\n", color.GreenString("✓"), args[0])
			return nil
		},
	}
}

// stateLabel colors a task state for terminal output.
func stateLabel(state, outcome string) string {
	switch {
	case outcome == "success":
		return color.GreenString("finished/success")
	case outcome == "failed":
		return color.RedString("finished/failed")
	case state == "running":
		return color.YellowString(state)
	case state == "finished":
		return color.CyanString(state)
	default:
		return state
	}
}

func ownersLabel(owners []string) string {
	if len(owners) == 0 {
		return "-"
	}
	out := owners[0]
	for _, o := range owners[1:] {
		out += "," + o
	}
	return out
}

func marksLabel(mission, permanent bool) string {
	switch {
	case mission && permanent:
		return "mission,permanent"
	case mission:
		return "mission"
	case permanent:
		return "permanent"
	default:
		return "-"
	}
}
