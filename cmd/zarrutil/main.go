// Command zarrutil inspects, repairs and converts Zarr stores.
//
// Usage:
//
//	zarrutil [-config file.toml] [-anon] [-v] <command> [flags] <locator>
//
// Commands:
//
//	list         list the arrays in a store, largest first
//	inspect      summarize a store
//	consolidate  create the .zmetadata sidecar (-dry-run)
//	validate     report metadata issues
//	repair       fix metadata issues (-no-attrs skips backfill)
//	diagnose     deep health check with chunk occupancy
//	export       export a 3D array to VTK (-format vtk|vti -output file)
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/voxelio/zarrutil"
	"github.com/voxelio/zarrutil/diagnose"
	"github.com/voxelio/zarrutil/vtk"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("zarrutil", flag.ExitOnError)
	configPath := global.String("config", "", "TOML config file")
	anon := global.Bool("anon", false, "anonymous access for remote stores")
	verbose := global.Bool("v", false, "verbose logging")
	global.Usage = usage
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() < 1 {
		usage()
		return fmt.Errorf("missing command")
	}

	var opts []zarrutil.Option
	if *configPath != "" {
		cfg, err := zarrutil.LoadConfig(*configPath)
		if err != nil {
			return err
		}
		opts, err = cfg.Options()
		if err != nil {
			return err
		}
	}
	if *anon {
		opts = append(opts, zarrutil.WithAnonymous())
	}
	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	opts = append(opts, zarrutil.WithLogLevel(level))

	client := zarrutil.New(opts...)
	ctx := context.Background()
	cmd, rest := global.Arg(0), global.Args()[1:]

	switch cmd {
	case "list":
		return cmdList(ctx, client, rest)
	case "inspect":
		return cmdInspect(ctx, client, rest)
	case "consolidate":
		return cmdConsolidate(ctx, client, rest)
	case "validate":
		return cmdValidate(ctx, client, rest)
	case "repair":
		return cmdRepair(ctx, client, rest)
	case "diagnose":
		return cmdDiagnose(ctx, client, rest)
	case "export":
		return cmdExport(ctx, client, rest)
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: zarrutil [-config file.toml] [-anon] [-v] <command> [flags] <locator>

commands:
  list         list the arrays in a store, largest first
  inspect      summarize a store
  consolidate  create the .zmetadata sidecar (-dry-run)
  validate     report metadata issues
  repair       fix metadata issues (-no-attrs skips backfill)
  diagnose     deep health check with chunk occupancy
  export       export a 3D array to VTK (-format vtk|vti -output file)
`)
}

func locatorArg(fs *flag.FlagSet, args []string) (string, error) {
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() != 1 {
		return "", fmt.Errorf("expected exactly one locator argument")
	}
	return fs.Arg(0), nil
}

func cmdList(ctx context.Context, client *zarrutil.Client, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	locator, err := locatorArg(fs, args)
	if err != nil {
		return err
	}

	arrays, err := client.ListArrays(ctx, locator)
	if err != nil {
		return err
	}
	for _, a := range arrays {
		fmt.Printf("%-40s %-16v %-8s %s\n", a.Path, a.Shape, a.Dtype, a.HumanSize())
	}
	return nil
}

func cmdInspect(ctx context.Context, client *zarrutil.Client, args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "print the summary as JSON")
	locator, err := locatorArg(fs, args)
	if err != nil {
		return err
	}

	summary, err := client.Inspect(ctx, locator)
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(summary)
	}
	fmt.Printf("%s\n", summary.Locator)
	fmt.Printf("  arrays:       %d\n", len(summary.Arrays))
	fmt.Printf("  total size:   %s\n", summary.HumanTotal())
	fmt.Printf("  consolidated: %v\n", summary.HasConsolidated)
	for _, a := range summary.Arrays {
		fmt.Printf("  %-38s %-16v %-8s %s\n", a.Path, a.Shape, a.Dtype, a.HumanSize())
	}
	return nil
}

func cmdConsolidate(ctx context.Context, client *zarrutil.Client, args []string) error {
	fs := flag.NewFlagSet("consolidate", flag.ExitOnError)
	dryRun := fs.Bool("dry-run", false, "scan without writing")
	locator, err := locatorArg(fs, args)
	if err != nil {
		return err
	}

	doc, err := client.Consolidate(ctx, locator, *dryRun)
	if err != nil {
		return err
	}
	if *dryRun {
		fmt.Println("dry run, nothing written")
		return nil
	}
	fmt.Printf("consolidated metadata with %d entries\n", len(doc.Metadata))
	return nil
}

func cmdValidate(ctx context.Context, client *zarrutil.Client, args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "print the report as JSON")
	locator, err := locatorArg(fs, args)
	if err != nil {
		return err
	}

	report, err := client.Validate(ctx, locator)
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(report)
	}
	fmt.Printf("valid:        %v\n", report.Valid)
	fmt.Printf("consolidated: %v\n", report.HasConsolidated)
	fmt.Printf("arrays:       %d\n", len(report.Arrays))
	fmt.Printf("groups:       %d\n", len(report.Groups))
	if len(report.Issues) > 0 {
		fmt.Printf("issues (%d):\n", len(report.Issues))
		for _, issue := range report.Issues {
			fmt.Printf("  - %s\n", issue)
		}
	}
	if !report.Valid {
		os.Exit(1)
	}
	return nil
}

func cmdRepair(ctx context.Context, client *zarrutil.Client, args []string) error {
	fs := flag.NewFlagSet("repair", flag.ExitOnError)
	noAttrs := fs.Bool("no-attrs", false, "skip attribute backfill")
	locator, err := locatorArg(fs, args)
	if err != nil {
		return err
	}

	result, err := client.Repair(ctx, locator, !*noAttrs)
	if err != nil {
		return err
	}
	if len(result.Actions) == 0 && len(result.Skipped) == 0 {
		fmt.Println("no repairs needed")
		return nil
	}
	for _, action := range result.Actions {
		fmt.Printf("  %s\n", action)
	}
	for _, skipped := range result.Skipped {
		fmt.Printf("  skipped: %s\n", skipped)
	}
	return nil
}

func cmdDiagnose(ctx context.Context, client *zarrutil.Client, args []string) error {
	fs := flag.NewFlagSet("diagnose", flag.ExitOnError)
	workers := fs.Int("workers", diagnose.DefaultWorkers, "parallel occupancy probes")
	skipOccupancy := fs.Bool("skip-occupancy", false, "skip the chunk occupancy scan")
	locator, err := locatorArg(fs, args)
	if err != nil {
		return err
	}

	report, err := diagnose.DiagnoseStore(ctx, client, locator, diagnose.Options{
		Workers:       *workers,
		SkipOccupancy: *skipOccupancy,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s)\n", report.Locator, report.StoreType)
	fmt.Printf("  accessible:   %v\n", report.Accessible)
	fmt.Printf("  keys:         %d\n", report.KeyCount)
	fmt.Printf("  consolidated: %v\n", report.HasConsolidated)
	for path, diag := range report.Arrays {
		fmt.Printf("  %-38s %v chunks, %.0f%% present\n",
			path, diag.ChunkCount, diag.Occupancy()*100)
	}
	if len(report.Issues) > 0 {
		fmt.Printf("issues (%d):\n", len(report.Issues))
		for _, issue := range report.Issues {
			fmt.Printf("  - %s\n", issue)
		}
	}
	for _, s := range report.Suggestions {
		fmt.Printf("  suggestion: %s\n", s)
	}
	return nil
}

func cmdExport(ctx context.Context, client *zarrutil.Client, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	format := fs.String("format", "vti", "output format: vtk or vti")
	output := fs.String("output", "", "output file path")
	group := fs.String("group", "", "group path within the store")
	compress := fs.Bool("compress", false, "zlib-compress .vti payloads")
	asciiMode := fs.Bool("ascii", false, "write .vtk files as ASCII")
	locator, err := locatorArg(fs, args)
	if err != nil {
		return err
	}
	if *output == "" {
		return fmt.Errorf("-output is required")
	}

	ds, err := client.OpenDataset(ctx, locator, *group)
	if err != nil {
		return err
	}
	img, err := vtk.FromDataArray(ds.Variable)
	if err != nil {
		return err
	}

	switch *format {
	case "vtk":
		err = vtk.WriteLegacyFile(*output, img, *asciiMode)
	case "vti":
		err = vtk.WriteVTIFile(*output, img, *compress)
	default:
		return fmt.Errorf("unknown format %q (want vtk or vti)", *format)
	}
	if err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", *output)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
