package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/loom/internal/config"
	"github.com/example/loom/internal/ports/primary"
	"github.com/example/loom/internal/wire"
)

// The state predicate vocabulary, one --<name>/--not-<name> flag pair each.
var stateFlags = []string{
	"pending", "starting", "running", "finishing", "finished", "success", "failed",
}

// Instance predicate flags resolved outside the index.
var instanceFlags = []string{"abstract", "executable"}

// QueryCmd returns the query command.
func QueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run a matcher against a stored plan",
		Long: `Build a matcher from the given flags, resolve it against a stored plan
snapshot and print the matching tasks. With --roots the result is narrowed
to the tasks no other match reaches through the given relation.`,
		RunE: runQuery,
	}

	cmd.Flags().String("plan", "", "plan snapshot to query (default from .loom/config.json)")
	cmd.Flags().String("model", "", "require tasks conforming to this model")
	for _, name := range append(append([]string{}, stateFlags...), instanceFlags...) {
		cmd.Flags().Bool(name, false, "require the "+name+" predicate")
		cmd.Flags().Bool("not-"+name, false, "forbid the "+name+" predicate")
	}
	cmd.Flags().String("owner", "", "require this peer among the owners")
	cmd.Flags().Bool("self-owned", false, "require tasks without remote owners")
	cmd.Flags().Bool("not-self-owned", false, "require at least one remote owner")
	cmd.Flags().Bool("mission", false, "require mission-marked tasks")
	cmd.Flags().Bool("not-mission", false, "forbid mission-marked tasks")
	cmd.Flags().Bool("permanent", false, "require permanent-marked tasks")
	cmd.Flags().Bool("not-permanent", false, "forbid permanent-marked tasks")
	cmd.Flags().String("roots", "", "narrow the result to its roots in this relation (hierarchy, signal, forwarding)")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string) error {
	req, err := requestFromFlags(cmd)
	if err != nil {
		return err
	}

	resp, err := wire.QueryService().RunQuery(cmd.Context(), *req)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if len(resp.Tasks) == 0 {
		fmt.Println("No tasks matched.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TASK\tMODEL\tSTATE\tOWNERS\tMARKS")
	fmt.Fprintln(w, "----\t-----\t-----\t------\t-----")
	for _, t := range resp.Tasks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Model, stateLabel(t.State, t.Outcome), ownersLabel(t.Owners), marksLabel(t.Mission, t.Permanent))
	}
	w.Flush()

	mode := "exact"
	if resp.Indexed {
		mode = "indexed"
	}
	fmt.Printf("\n%d task(s) matched in plan %s (%s)\n", len(resp.Tasks), resp.PlanID, mode)
	if resp.Indexed {
		fmt.Println(color.New(color.Faint).Sprint("resolved from index buckets alone"))
	}
	return nil
}

func requestFromFlags(cmd *cobra.Command) (*primary.QueryRequest, error) {
	req := &primary.QueryRequest{}

	req.PlanID, _ = cmd.Flags().GetString("plan")
	if req.PlanID == "" {
		if cfg, err := config.LoadConfig("."); err == nil {
			req.PlanID = cfg.DefaultPlan
		}
	}
	if req.PlanID == "" {
		return nil, fmt.Errorf("no plan given\nHint: use --plan or set default_plan in .loom/config.json")
	}

	req.Model, _ = cmd.Flags().GetString("model")
	for _, name := range append(append([]string{}, stateFlags...), instanceFlags...) {
		if on, _ := cmd.Flags().GetBool(name); on {
			req.Require = append(req.Require, name)
		}
		if on, _ := cmd.Flags().GetBool("not-" + name); on {
			req.Forbid = append(req.Forbid, name)
		}
	}

	req.Owner, _ = cmd.Flags().GetString("owner")
	if on, _ := cmd.Flags().GetBool("self-owned"); on {
		v := true
		req.SelfOwned = &v
	}
	if on, _ := cmd.Flags().GetBool("not-self-owned"); on {
		if req.SelfOwned != nil {
			return nil, fmt.Errorf("--self-owned and --not-self-owned are mutually exclusive")
		}
		v := false
		req.SelfOwned = &v
	}
	if on, _ := cmd.Flags().GetBool("mission"); on {
		v := true
		req.Mission = &v
	}
	if on, _ := cmd.Flags().GetBool("not-mission"); on {
		if req.Mission != nil {
			return nil, fmt.Errorf("--mission and --not-mission are mutually exclusive")
		}
		v := false
		req.Mission = &v
	}
	if on, _ := cmd.Flags().GetBool("permanent"); on {
		v := true
		req.Permanent = &v
	}
	if on, _ := cmd.Flags().GetBool("not-permanent"); on {
		if req.Permanent != nil {
			return nil, fmt.Errorf("--permanent and --not-permanent are mutually exclusive")
		}
		v := false
		req.Permanent = &v
	}

	req.Roots, _ = cmd.Flags().GetString("roots")
	return req, nil
}
