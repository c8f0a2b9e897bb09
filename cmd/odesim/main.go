package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/odelab/odesim/internal/config"
	"github.com/odelab/odesim/internal/driver"
	"github.com/odelab/odesim/internal/events"
	"github.com/odelab/odesim/internal/integrators"
	"github.com/odelab/odesim/internal/ode"
	"github.com/odelab/odesim/internal/provider"
	"github.com/odelab/odesim/internal/tabio"
	"github.com/odelab/odesim/internal/viz"
)

var (
	configFile  string
	preset      string
	scheme      string
	gridFrom    float64
	gridTo      float64
	gridStep    float64
	eventsFile  string
	paramFlags  []string
	initFlags   []string
	absTol      float64
	relTol      float64
	hMin        float64
	hMax        float64
	initialStep float64
	maxSteps    int
	outFile     string
	component   string
	setFlags    []string
)

var modelProvider = provider.New()

func main() {
	rootCmd := &cobra.Command{
		Use:   "odesim",
		Short: "event-aware ODE trajectory simulator",
	}

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "integrate a model and print or export the trajectory",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().StringVar(&outFile, "out", "", "write trajectory to file (.csv or .json)")

	plotCmd := &cobra.Command{
		Use:   "plot [model]",
		Short: "integrate a model and plot one component",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotRun,
	}
	addRunFlags(plotCmd)
	plotCmd.Flags().StringVar(&component, "component", "", "component to plot (default: first)")

	liveCmd := &cobra.Command{
		Use:   "live [model]",
		Short: "integrate a model and replay the trajectory interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE:  liveRun,
	}
	addRunFlags(liveCmd)
	liveCmd.Flags().StringVar(&component, "component", "", "component to replay (default: first)")

	exportCmd := &cobra.Command{
		Use:   "export [model]",
		Short: "integrate a model and write the trajectory as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportRun,
	}
	addRunFlags(exportCmd)
	exportCmd.Flags().StringVar(&outFile, "out", "", "output path (default: stdout)")

	batchCmd := &cobra.Command{
		Use:   "batch [model]",
		Short: "run independent parameter sets in parallel",
		Args:  cobra.MaximumNArgs(1),
		RunE:  batchRun,
	}
	addRunFlags(batchCmd)
	batchCmd.Flags().StringArrayVar(&setFlags, "set", nil, "parameter set, e.g. \"CL=10,Q=13\" (repeatable)")

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list built-in models",
		RunE:  listModels,
	}

	rootCmd.AddCommand(runCmd, plotCmd, liveCmd, exportCmd, batchCmd, modelsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "run specification file (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "named preset configuration")
	cmd.Flags().StringVar(&scheme, "scheme", "", "stepping scheme (dopri45, rk4, euler)")
	cmd.Flags().Float64Var(&gridFrom, "from", 0, "first output time")
	cmd.Flags().Float64Var(&gridTo, "to", 0, "last output time")
	cmd.Flags().Float64Var(&gridStep, "step", 0, "output time spacing")
	cmd.Flags().StringVar(&eventsFile, "events", "", "event table (.csv or .yaml)")
	cmd.Flags().StringArrayVar(&paramFlags, "param", nil, "parameter override, e.g. ka=3 (repeatable)")
	cmd.Flags().StringArrayVar(&initFlags, "init", nil, "initial component value, e.g. gut=5 (repeatable)")
	cmd.Flags().Float64Var(&absTol, "abs-tol", 0, "absolute error tolerance")
	cmd.Flags().Float64Var(&relTol, "rel-tol", 0, "relative error tolerance")
	cmd.Flags().Float64Var(&hMin, "hmin", 0, "minimum step size")
	cmd.Flags().Float64Var(&hMax, "hmax", 0, "maximum step size")
	cmd.Flags().Float64Var(&initialStep, "initial-step", 0, "initial step size")
	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "step budget (0 = unlimited)")
}

// buildSpec assembles the run specification from config file, preset, and
// flag overrides, in that precedence order.
func buildSpec(args []string) (*config.Run, error) {
	rc := config.Default()

	if preset != "" {
		p, ok := config.Presets[preset]
		if !ok {
			return nil, fmt.Errorf("unknown preset: %s", preset)
		}
		rc = p.Clone()
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		rc = loaded
	}

	if len(args) > 0 {
		rc.Model = args[0]
	}
	if scheme != "" {
		rc.Scheme = scheme
	}
	if gridStep > 0 {
		rc.Output = config.OutputGrid{From: gridFrom, To: gridTo, Step: gridStep}
	}
	if eventsFile != "" {
		rc.EventsFile = eventsFile
	}
	if absTol > 0 {
		rc.AbsTol = absTol
	}
	if relTol > 0 {
		rc.RelTol = relTol
	}
	if hMin > 0 {
		rc.HMin = hMin
	}
	if hMax > 0 {
		rc.HMax = hMax
	}
	if initialStep > 0 {
		rc.InitialStep = initialStep
	}
	if maxSteps > 0 {
		rc.MaxSteps = maxSteps
	}

	overrides, err := parseAssignments(paramFlags)
	if err != nil {
		return nil, err
	}
	if len(overrides) > 0 && rc.Params == nil {
		rc.Params = make(map[string]float64)
	}
	for k, v := range overrides {
		rc.Params[k] = v
	}

	inits, err := parseAssignments(initFlags)
	if err != nil {
		return nil, err
	}
	if len(inits) > 0 && rc.Initial == nil {
		rc.Initial = make(map[string]float64)
	}
	for k, v := range inits {
		rc.Initial[k] = v
	}

	return rc, nil
}

func parseAssignments(flags []string) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, f := range flags {
		for _, part := range strings.Split(f, ",") {
			if part == "" {
				continue
			}
			kv := strings.SplitN(part, "=", 2)
			if len(kv) != 2 {
				return nil, fmt.Errorf("malformed assignment %q, want name=value", part)
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(kv[1]), 64)
			if err != nil {
				return nil, fmt.Errorf("malformed assignment %q: %v", part, err)
			}
			out[strings.TrimSpace(kv[0])] = v
		}
	}
	return out, nil
}

// execute resolves the model and runs one integration per the run specification.
func execute(rc *config.Run) (*driver.Trajectory, error) {
	params := rc.RunParams()
	model, err := modelProvider.Resolve(rc.Model, params)
	if err != nil {
		return nil, err
	}
	layout := model.Layout()

	for k, v := range model.Defaults() {
		if _, ok := params[k]; !ok {
			params[k] = v
		}
	}

	y0, err := rc.InitialState(layout)
	if err != nil {
		return nil, err
	}
	outputs, err := rc.Output.Expand()
	if err != nil {
		return nil, err
	}

	var sched events.Schedule
	if rc.EventsFile != "" {
		if sched, err = tabio.ReadEvents(rc.EventsFile); err != nil {
			return nil, err
		}
	}

	stepper, err := integrators.ForScheme(rc.Scheme)
	if err != nil {
		return nil, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return driver.New(model, layout, stepper).Run(ctx, y0, params, outputs, sched, rc.IntegratorConfig())
}

func runSimulation(cmd *cobra.Command, args []string) error {
	rc, err := buildSpec(args)
	if err != nil {
		return err
	}
	traj, err := execute(rc)
	if err != nil {
		return err
	}

	switch {
	case strings.HasSuffix(outFile, ".csv"):
		if err := tabio.WriteTrajectoryCSVFile(outFile, traj); err != nil {
			return err
		}
	case strings.HasSuffix(outFile, ".json"):
		if err := tabio.ExportJSONFile(outFile, rc.Model, rc.Scheme, traj); err != nil {
			return err
		}
	case outFile != "":
		return fmt.Errorf("unsupported output format: %s", outFile)
	}

	fmt.Println(viz.Summary(rc.Model, rc.Scheme, traj))
	if outFile != "" {
		fmt.Println("wrote", outFile)
	}
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	rc, err := buildSpec(args)
	if err != nil {
		return err
	}
	traj, err := execute(rc)
	if err != nil {
		return err
	}

	comp := component
	if comp == "" {
		comp = traj.Components[0]
	}
	graph, err := viz.PlotComponent(traj, comp, 72, 16)
	if err != nil {
		return err
	}
	fmt.Println(graph)
	return nil
}

func liveRun(cmd *cobra.Command, args []string) error {
	rc, err := buildSpec(args)
	if err != nil {
		return err
	}
	traj, err := execute(rc)
	if err != nil {
		return err
	}

	comp := component
	if comp == "" {
		comp = traj.Components[0]
	}
	return viz.RunPlayback(traj, comp)
}

func exportRun(cmd *cobra.Command, args []string) error {
	rc, err := buildSpec(args)
	if err != nil {
		return err
	}
	traj, err := execute(rc)
	if err != nil {
		return err
	}

	if outFile != "" {
		return tabio.ExportJSONFile(outFile, rc.Model, rc.Scheme, traj)
	}
	return tabio.ExportJSON(os.Stdout, rc.Model, rc.Scheme, traj)
}

func batchRun(cmd *cobra.Command, args []string) error {
	rc, err := buildSpec(args)
	if err != nil {
		return err
	}
	if len(setFlags) == 0 {
		return fmt.Errorf("batch needs at least one --set")
	}

	model, err := modelProvider.Resolve(rc.Model, rc.RunParams())
	if err != nil {
		return err
	}
	layout := model.Layout()

	paramSets := make([]ode.Params, 0, len(setFlags))
	for _, set := range setFlags {
		overrides, err := parseAssignments([]string{set})
		if err != nil {
			return err
		}
		p := rc.RunParams()
		for k, v := range model.Defaults() {
			if _, ok := p[k]; !ok {
				p[k] = v
			}
		}
		for k, v := range overrides {
			p[k] = v
		}
		paramSets = append(paramSets, p)
	}

	y0, err := rc.InitialState(layout)
	if err != nil {
		return err
	}
	outputs, err := rc.Output.Expand()
	if err != nil {
		return err
	}

	var sched events.Schedule
	if rc.EventsFile != "" {
		if sched, err = tabio.ReadEvents(rc.EventsFile); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	b := driver.NewBatch(model, layout, func() integrators.Stepper {
		s, err := integrators.ForScheme(rc.Scheme)
		if err != nil {
			s = integrators.NewDormandPrince()
		}
		return s
	})
	results, err := b.Run(ctx, y0, paramSets, outputs, sched, rc.IntegratorConfig())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "run\tparams\tfinal state")
	for i, traj := range results {
		final := traj.States[traj.Len()-1]
		parts := make([]string, len(final))
		for j, v := range final {
			parts[j] = fmt.Sprintf("%s=%.6g", traj.Components[j], v)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", i, setFlags[i], strings.Join(parts, " "))
	}
	return w.Flush()
}

func listModels(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "model\tcomponents\tdefaults")
	for _, name := range modelProvider.Names() {
		m, err := modelProvider.Resolve(name, nil)
		if err != nil {
			return err
		}
		defaults := m.Defaults()
		keys := make([]string, 0, len(defaults))
		for k := range defaults {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(w, "%s\t%s\t%s\n", name,
			strings.Join(m.Layout().Names(), ","), strings.Join(keys, ","))
	}
	return w.Flush()
}
