package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"llmconf/internal/exchange"
	"llmconf/internal/models"
)

const modelsUsage = `Usage:
  llmconf models <subcommand> [--config <path>] [args]

Subcommands:
  list [--enabled]                 List model configurations
  show <key>                       Print one configuration as JSON
  enable <key>                     Validate and enable a configuration
  disable <key>                    Disable a configuration
  delete <key>                     Delete a configuration
  export [--format json|yaml] [--out <path>]
                                   Export every configuration
  import <path> [--format json|yaml]
                                   Import configurations from a document
  validate <path> [--format json|yaml]
                                   Check a document without importing it
  resolve <key> [--show-key]       Print the call target of an enabled model
  discover <key>                   List models available from the provider`

// stdout is where command output goes.
var stdout io.Writer = os.Stdout

var (
	enabledColor  = color.New(color.FgHiGreen, color.Bold)
	disabledColor = color.New(color.FgHiBlack)
	warnColor     = color.New(color.FgHiYellow)
)

type modelsFlags struct {
	fs       *flag.FlagSet
	cfgPath  string
	enabled  bool
	format   string
	out      string
	showKeys bool
}

func newModelsFlags(name string) *modelsFlags {
	f := &modelsFlags{fs: flag.NewFlagSet("models "+name, flag.ContinueOnError)}
	f.fs.Usage = func() {
		fmt.Fprintln(os.Stderr, modelsUsage)
	}
	f.fs.StringVar(&f.cfgPath, "config", "", "path to configuration file")
	f.fs.BoolVar(&f.enabled, "enabled", false, "only list enabled models")
	f.fs.StringVar(&f.format, "format", "", "document format (json or yaml)")
	f.fs.StringVar(&f.out, "out", "", "write the export to a file")
	f.fs.BoolVar(&f.showKeys, "show-key", false, "print the API key unmasked")
	return f
}

// parse accepts flags before or after positional arguments.
func (f *modelsFlags) parse(args []string) ([]string, error) {
	var positional []string
	for {
		if err := f.fs.Parse(args); err != nil {
			return nil, err
		}
		args = f.fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

func modelsCmd(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		fmt.Fprintln(stdout, modelsUsage)
		return nil
	}

	sub := args[0]
	flags := newModelsFlags(sub)
	positional, err := flags.parse(args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("parse models %s flags: %w", sub, err)
	}

	needKey := func() (string, error) {
		if len(positional) != 1 || strings.TrimSpace(positional[0]) == "" {
			return "", fmt.Errorf("models %s requires exactly one <key>", sub)
		}
		return positional[0], nil
	}

	switch sub {
	case "list", "show", "enable", "disable", "delete", "export", "import", "validate", "resolve", "discover":
	default:
		return fmt.Errorf("unknown models subcommand %q\n\n%s", sub, modelsUsage)
	}

	a, err := bootstrap(ctx, flags.cfgPath)
	if err != nil {
		return err
	}
	defer a.close()

	switch sub {
	case "list":
		var list []models.TextModelConfig
		if flags.enabled {
			list, err = a.manager.GetEnabledModels(ctx)
		} else {
			list, err = a.manager.GetAllModels(ctx)
		}
		if err != nil {
			return err
		}
		renderModels(stdout, list)
		return nil

	case "show":
		key, err := needKey()
		if err != nil {
			return err
		}
		cfg, ok, err := a.manager.GetModel(ctx, key)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("model %s does not exist", key)
		}
		return printJSON(stdout, cfg)

	case "enable", "disable", "delete":
		key, err := needKey()
		if err != nil {
			return err
		}
		switch sub {
		case "enable":
			err = a.manager.EnableModel(ctx, key)
		case "disable":
			err = a.manager.DisableModel(ctx, key)
		default:
			err = a.manager.DeleteModel(ctx, key)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s %s\n", pastTense(sub), key)
		return nil

	case "export":
		return exportModels(ctx, a, flags)

	case "import":
		return importModels(ctx, a, flags, positional)

	case "validate":
		return validateDocument(a, flags, positional)

	case "resolve":
		key, err := needKey()
		if err != nil {
			return err
		}
		target, err := a.router.Resolve(ctx, key)
		if err != nil {
			return err
		}
		if !flags.showKeys {
			target = target.Masked()
		}
		return printJSON(stdout, target)

	case "discover":
		key, err := needKey()
		if err != nil {
			return err
		}
		list, err := a.router.Discover(ctx, key)
		if err != nil {
			return err
		}
		renderDiscovered(stdout, list)
		return nil
	}
	return nil
}

func exportModels(ctx context.Context, a *app, flags *modelsFlags) error {
	format := exchange.FormatFromPath(flags.out)
	if flags.format != "" {
		parsed, err := exchange.ParseFormat(flags.format)
		if err != nil {
			return err
		}
		format = parsed
	}

	list, err := a.manager.ExportData(ctx)
	if err != nil {
		return err
	}

	if flags.out == "" {
		return exchange.Encode(stdout, format, list)
	}

	f, err := os.Create(flags.out)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := exchange.Encode(f, format, list); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}
	fmt.Fprintf(stdout, "exported %d models to %s\n", len(list), flags.out)
	return nil
}

func importModels(ctx context.Context, a *app, flags *modelsFlags, positional []string) error {
	data, err := readDocument(flags, positional, "import")
	if err != nil {
		return err
	}

	result, err := a.manager.ImportData(ctx, data)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "imported %d of %d models (%d added, %d updated)\n",
		result.Added+result.Updated, result.Total, result.Added, result.Updated)
	for _, failure := range result.Failures {
		label := failure.Key
		if label == "" {
			label = fmt.Sprintf("#%d", failure.Index)
		}
		fmt.Fprintln(stdout, warnColor.Sprintf("  skipped %s: %s", label, failure.Message))
	}
	return nil
}

func validateDocument(a *app, flags *modelsFlags, positional []string) error {
	data, err := readDocument(flags, positional, "validate")
	if err != nil {
		return err
	}

	if !a.manager.ValidateData(data) {
		return errors.New("document is not a valid model export")
	}
	fmt.Fprintln(stdout, "document is valid")
	return nil
}

func readDocument(flags *modelsFlags, positional []string, sub string) (json.RawMessage, error) {
	if len(positional) != 1 {
		return nil, fmt.Errorf("models %s requires exactly one <path>", sub)
	}
	path := positional[0]

	format := exchange.FormatFromPath(path)
	if flags.format != "" {
		parsed, err := exchange.ParseFormat(flags.format)
		if err != nil {
			return nil, err
		}
		format = parsed
	}

	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document %q: %w", path, err)
	}
	return exchange.Decode(body, format)
}

func renderModels(w io.Writer, list []models.TextModelConfig) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Key", "Name", "Provider", "Model", "Status"})

	for _, cfg := range list {
		modelID := ""
		if cfg.ModelMeta != nil {
			modelID = cfg.ModelMeta.ID
		}
		status := disabledColor.Sprint("disabled")
		if cfg.Enabled {
			status = enabledColor.Sprint("enabled")
		}
		table.Append([]string{cfg.ID, cfg.Name, cfg.ProviderID(), modelID, status})
	}
	table.Render()
}

func renderDiscovered(w io.Writer, list []models.TextModel) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Model", "Name", "Tools", "Reasoning", "Context"})

	for _, m := range list {
		contextLen := ""
		if m.Capabilities.MaxContextLength > 0 {
			contextLen = strconv.Itoa(m.Capabilities.MaxContextLength)
		}
		table.Append([]string{
			m.ID,
			m.Name,
			yesNo(m.Capabilities.SupportsTools),
			yesNo(m.Capabilities.SupportsReasoning),
			contextLen,
		})
	}
	table.Render()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func pastTense(verb string) string {
	switch verb {
	case "enable":
		return "enabled"
	case "disable":
		return "disabled"
	default:
		return "deleted"
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
