// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/tpl2oas

// tpl2oas compiles XML jsontemplates into OpenAPI response schemas.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"

	"github.com/woozymasta/tpl2oas"
	"github.com/woozymasta/tpl2oas/internal/config"
	"github.com/woozymasta/tpl2oas/internal/httpapi"
	"github.com/woozymasta/tpl2oas/internal/mcpserver"
)

var (
	Version    = "dev"
	Commit     = "unknown"
	BuildTime  = time.Unix(0, 0)
	URL        = "https://github.com/woozymasta/tpl2oas"
	_buildTime string
)

// cliOptions describes tpl2oas global flags and subcommands.
type cliOptions struct {
	Project projectFlags `group:"Project"`
	Logging loggingFlags `group:"Logging"`

	Version versionCommand `command:"version" description:"Print version information"`
	Init    initCommand    `command:"init" description:"Write default project configuration"`
	Schema  schemaCommand  `command:"schema" description:"Print JSON Schema compiled from a template"`
	Convert convertCommand `command:"convert" description:"Store compiled template as operation response"`
	Scan    scanCommand    `command:"scan" description:"Convert every template annotated with path and method"`
	Paths   pathsCommand   `command:"paths" description:"List operations stored in the document"`
	Example exampleCommand `command:"example" description:"Generate example response payload"`
	Serve   serveCommand   `command:"serve" description:"Serve conversion endpoints over HTTP"`
	MCP     mcpCommand     `command:"mcp" description:"Serve conversion tools over MCP stdio"`
}

// projectFlags override project configuration values.
type projectFlags struct {
	ConfigPath string `short:"c" long:"config" description:"Project configuration file (optional when missing)" default:"tpl2oas.yaml"`
	Templates  string `short:"t" long:"templates" description:"XML template source file"`
	Document   string `short:"d" long:"document" description:"OpenAPI document file (.yaml, .yml or .json)"`
	Status     string `short:"s" long:"status" description:"Response status code"`
}

// loggingFlags configure diagnostic output on stderr.
type loggingFlags struct {
	Level  string `long:"log-level" description:"Log level" choice:"debug" choice:"info" choice:"warn" choice:"error" default:"info"`
	Format string `long:"log-format" description:"Log format" choice:"text" choice:"json" default:"text"`
}

// formatFlags select payload encoding.
type formatFlags struct {
	Format string `short:"f" long:"format" description:"Output encoding" choice:"json" choice:"yaml" default:"json"`
}

// cliRunner executes CLI operations with custom IO streams.
type cliRunner struct {
	stdin       io.Reader
	stdout      io.Writer
	stderr      io.Writer
	programName string
	options     *cliOptions
	logger      *slog.Logger
}

// versionCommand prints version information.
type versionCommand struct {
	runner *cliRunner
}

// Execute runs version subcommand.
func (command *versionCommand) Execute(_ []string) error {
	return command.runner.printVersionInfo()
}

// initCommand writes default configuration.
type initCommand struct {
	runner *cliRunner
	Force  bool `long:"force" description:"Overwrite existing configuration file"`
}

// Execute runs init subcommand.
func (command *initCommand) Execute(_ []string) error {
	return command.runner.runInit(command.Force)
}

// schemaCommand prints a compiled template.
type schemaCommand struct {
	runner *cliRunner
	Args   struct {
		Template string `positional-arg-name:"template" description:"Template name" required:"yes"`
	} `positional-args:"yes"`

	FormatFlags formatFlags `group:"Output"`
}

// Execute runs schema subcommand.
func (command *schemaCommand) Execute(_ []string) error {
	return command.runner.runSchema(command.Args.Template, command.FormatFlags.Format)
}

// convertCommand stores one compiled template in the document.
type convertCommand struct {
	runner *cliRunner
	Args   struct {
		Template string `positional-arg-name:"template" description:"Template name" required:"yes"`
	} `positional-args:"yes"`

	Path        string `short:"p" long:"path" description:"Operation path" required:"yes"`
	Method      string `short:"m" long:"method" description:"Operation HTTP method" required:"yes"`
	Tag         string `long:"tag" description:"Operation tag"`
	Summary     string `long:"summary" description:"Operation summary"`
	OperationID string `long:"operation-id" description:"Operation identifier"`
}

// Execute runs convert subcommand.
func (command *convertCommand) Execute(_ []string) error {
	return command.runner.runConvert(command.Args.Template, tpl2oas.Operation{
		Path:        command.Path,
		Method:      command.Method,
		Tag:         command.Tag,
		Summary:     command.Summary,
		OperationID: command.OperationID,
	})
}

// scanCommand converts every annotated template of a source file.
type scanCommand struct {
	runner *cliRunner
	Args   struct {
		Source string `positional-arg-name:"source" description:"Annotated template file (optional; configured templates file when omitted)"`
	} `positional-args:"yes"`

	Tag           string `long:"tag" description:"Tag for generated operations"`
	SummaryPrefix string `long:"summary-prefix" description:"Prefix for generated operation summaries"`
	Concurrency   int    `short:"j" long:"concurrency" description:"Parallel template compilations (0 for GOMAXPROCS)"`
	DryRun        bool   `long:"dry-run" description:"List operations without writing the document"`
}

// Execute runs scan subcommand.
func (command *scanCommand) Execute(_ []string) error {
	return command.runner.runScan(command.Args.Source, command.DryRun, config.Overrides{
		Tag:           command.Tag,
		SummaryPrefix: command.SummaryPrefix,
		Concurrency:   command.Concurrency,
	})
}

// pathsCommand lists document operations.
type pathsCommand struct {
	runner *cliRunner
	Output string `short:"o" long:"output" description:"Output encoding" choice:"table" choice:"json" choice:"yaml" default:"table"`
}

// Execute runs paths subcommand.
func (command *pathsCommand) Execute(_ []string) error {
	return command.runner.runPaths(command.Output)
}

// exampleCommand generates an example payload from a document or a template.
type exampleCommand struct {
	runner   *cliRunner
	Path     string `short:"p" long:"path" description:"Operation path in the document"`
	Method   string `short:"m" long:"method" description:"Operation HTTP method"`
	Template string `long:"template" description:"Generate from template instead of the document"`
	Verify   bool   `long:"verify" description:"Validate generated example against its schema"`

	FormatFlags formatFlags `group:"Output"`
}

// Execute runs example subcommand.
func (command *exampleCommand) Execute(_ []string) error {
	return command.runner.runExample(command.Path, command.Method, command.Template, command.FormatFlags.Format, command.Verify)
}

// serveCommand runs the HTTP server.
type serveCommand struct {
	runner  *cliRunner
	Listen  string `short:"l" long:"listen" description:"Listen address (host:port)"`
	BaseDir string `long:"base-dir" description:"Directory request file paths are confined to"`
}

// Execute runs serve subcommand.
func (command *serveCommand) Execute(_ []string) error {
	return command.runner.runServe(config.Overrides{Listen: command.Listen, BaseDir: command.BaseDir})
}

// mcpCommand runs the MCP stdio server.
type mcpCommand struct {
	runner *cliRunner
}

// Execute runs mcp subcommand.
func (command *mcpCommand) Execute(_ []string) error {
	return command.runner.runMCP()
}

func init() {
	if _buildTime != "" {
		if t, err := time.Parse(time.RFC3339, _buildTime); err == nil {
			BuildTime = t.UTC()
		}
	}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes CLI logic and returns process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	return runWithIO(args, os.Stdin, stdout, stderr)
}

// runWithIO executes CLI logic with custom stdin, for tests.
func runWithIO(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	programName := strings.TrimSpace(os.Args[0])
	if programName == "" {
		programName = "tpl2oas"
	}

	runner := cliRunner{
		programName: filepath.Base(programName),
		stdin:       stdin,
		stdout:      stdout,
		stderr:      stderr,
	}

	return runner.run(args)
}

// run parses CLI args and maps errors to process exit codes.
func (runner *cliRunner) run(args []string) int {
	err := parseCLIArgs(args, runner)
	if err == nil {
		return 0
	}

	var flagErr *flags.Error
	if errors.As(err, &flagErr) {
		if flagErr.Type == flags.ErrHelp {
			writeCLIError(runner.stdout, err)
			return 0
		}

		writeCLIError(runner.stderr, err)
		return 2
	}

	writeCLIError(runner.stderr, err)
	return 1
}

// project builds the logger and effective configuration.
// Precedence: defaults, config file, TPL2OAS_* environment, flags.
func (runner *cliRunner) project(overrides config.Overrides) (*config.Config, error) {
	runner.logger = newLogger(runner.stderr, runner.options.Logging)
	slog.SetDefault(runner.logger)

	cfg, err := config.LoadOptional(runner.options.Project.ConfigPath)
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnv()
	overrides.Templates = runner.options.Project.Templates
	overrides.Document = runner.options.Project.Document
	overrides.Status = runner.options.Project.Status
	cfg.Merge(overrides)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	runner.logger.Debug("configuration loaded",
		slog.String("config", runner.options.Project.ConfigPath),
		slog.String("templates", cfg.Templates),
		slog.String("document", cfg.Document),
	)

	return cfg, nil
}

// runInit writes default configuration unless the file exists.
func (runner *cliRunner) runInit(force bool) error {
	path := runner.options.Project.ConfigPath
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %q already exists; use --force to overwrite", path)
		}
	}

	if err := config.Default().Save(path); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(runner.stdout, "wrote %s\n", path)
	return nil
}

// runSchema prints one compiled template.
func (runner *cliRunner) runSchema(templateName, format string) error {
	cfg, err := runner.project(config.Overrides{})
	if err != nil {
		return err
	}

	schema, err := compileTemplate(cfg.Templates, templateName)
	if err != nil {
		return err
	}

	var data []byte
	if format == string(tpl2oas.ExampleFormatYAML) {
		data, err = yaml.Marshal(schema)
	} else {
		data, err = tpl2oas.MarshalExampleJSON(schema)
	}
	if err != nil {
		return fmt.Errorf("encode schema: %w", err)
	}

	_, err = runner.stdout.Write(data)
	return err
}

// runConvert stores one compiled template as operation response.
func (runner *cliRunner) runConvert(templateName string, op tpl2oas.Operation) error {
	cfg, err := runner.project(config.Overrides{})
	if err != nil {
		return err
	}

	op.Schema, err = compileTemplate(cfg.Templates, templateName)
	if err != nil {
		return err
	}

	if _, err := tpl2oas.AppendOperationFile(cfg.Document, op); err != nil {
		return err
	}

	runner.logger.Info("operation converted",
		slog.String("template", templateName),
		slog.String("operation", tpl2oas.MethodLabel(op.Method)+" "+op.Path),
		slog.String("document", cfg.Document),
	)

	return nil
}

// runScan converts annotated templates and reports appended operations.
func (runner *cliRunner) runScan(source string, dryRun bool, overrides config.Overrides) error {
	cfg, err := runner.project(overrides)
	if err != nil {
		return err
	}

	if strings.TrimSpace(source) == "" {
		source = cfg.Templates
	}

	ops, err := tpl2oas.ScanOperationsFile(source)
	if err != nil {
		return err
	}

	if len(ops) == 0 {
		runner.logger.Warn("no annotated templates found", slog.String("source", source))
		return nil
	}

	registry, err := tpl2oas.LoadRegistryFile(source)
	if err != nil {
		return err
	}

	doc, err := tpl2oas.LoadDocument(cfg.Document)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := tpl2oas.ConvertScanned(ctx, registry, doc, ops, tpl2oas.BatchOptions{
		Tag:           cfg.Tag,
		SummaryPrefix: cfg.SummaryPrefix,
		Concurrency:   cfg.Concurrency,
	})
	if err != nil {
		return err
	}

	if !dryRun {
		if err := doc.Save(cfg.Document); err != nil {
			return err
		}
	}

	runner.logger.Info("templates scanned",
		slog.String("source", source),
		slog.Int("operations", len(result.Operations)),
		slog.Bool("dryRun", dryRun),
	)

	return writeOperationsTable(runner.stdout, result.Operations)
}

// runPaths lists document operations in selected encoding.
func (runner *cliRunner) runPaths(output string) error {
	cfg, err := runner.project(config.Overrides{})
	if err != nil {
		return err
	}

	doc, err := tpl2oas.LoadDocument(cfg.Document)
	if err != nil {
		return err
	}

	operations := doc.Operations()
	switch output {
	case "json":
		data, err := tpl2oas.MarshalExampleJSON(operations)
		if err != nil {
			return err
		}

		_, err = runner.stdout.Write(data)
		return err
	case "yaml":
		data, err := yaml.Marshal(operations)
		if err != nil {
			return err
		}

		_, err = runner.stdout.Write(data)
		return err
	default:
		return writeOperationsTable(runner.stdout, operations)
	}
}

// runExample generates an example from the document or a template.
func (runner *cliRunner) runExample(path, method, templateName, format string, verify bool) error {
	cfg, err := runner.project(config.Overrides{})
	if err != nil {
		return err
	}

	var schema *tpl2oas.Schema
	switch {
	case strings.TrimSpace(templateName) != "":
		schema, err = compileTemplate(cfg.Templates, templateName)
	case strings.TrimSpace(path) != "" && strings.TrimSpace(method) != "":
		var doc *tpl2oas.Document
		doc, err = tpl2oas.LoadDocument(cfg.Document)
		if err == nil {
			schema, err = doc.ResponseSchema(path, method, cfg.Status)
		}
	default:
		return errors.New("either --template or both --path and --method are required")
	}
	if err != nil {
		return err
	}

	if verify {
		if err := tpl2oas.VerifyExample(schema, tpl2oas.GenerateExample(schema)); err != nil {
			return err
		}
	}

	data, err := tpl2oas.GenerateExampleBytes(schema, tpl2oas.ExampleFormat(format))
	if err != nil {
		return err
	}

	_, err = runner.stdout.Write(data)
	return err
}

// runServe serves HTTP endpoints until interrupted.
func (runner *cliRunner) runServe(overrides config.Overrides) error {
	cfg, err := runner.project(overrides)
	if err != nil {
		return err
	}

	server, err := httpapi.New(cfg, runner.logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.ListenAndServe(ctx)
}

// runMCP serves MCP tools on stdio until the client disconnects.
func (runner *cliRunner) runMCP() error {
	cfg, err := runner.project(config.Overrides{})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return mcpserver.Run(ctx, cfg, Version)
}

// compileTemplate loads template source and compiles one template.
func compileTemplate(source, name string) (*tpl2oas.Schema, error) {
	registry, err := tpl2oas.LoadRegistryFile(source)
	if err != nil {
		return nil, err
	}

	return tpl2oas.Compile(registry, name)
}

// writeOperationsTable renders operations as a borderless table.
func writeOperationsTable(writer io.Writer, operations []tpl2oas.OperationRef) error {
	t := table.NewWriter()
	t.SetOutputMirror(writer)
	t.AppendHeader(table.Row{"Method", "Path"})
	for _, op := range operations {
		t.AppendRow(table.Row{op.Method, op.Path})
	}

	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	t.Render()

	return nil
}

// newLogger builds slog logger writing to output.
func newLogger(output io.Writer, opts loggingFlags) *slog.Logger {
	level := slog.LevelInfo
	_ = level.UnmarshalText([]byte(opts.Level))

	handlerOptions := &slog.HandlerOptions{Level: level}
	if opts.Format == "json" {
		return slog.New(slog.NewJSONHandler(output, handlerOptions))
	}

	return slog.New(slog.NewTextHandler(output, handlerOptions))
}

// writeCLIError writes a plain-text CLI error line to the selected stream.
func writeCLIError(output io.Writer, err error) {
	if err == nil {
		return
	}

	//nolint:gosec // CLI writes plain-text diagnostics to terminal streams, not HTTP responses.
	_, _ = fmt.Fprintln(output, err.Error())
}

// parseCLIArgs parses CLI arguments and triggers selected subcommand execution.
func parseCLIArgs(args []string, runner *cliRunner) error {
	options := &cliOptions{}
	runner.options = options
	options.Version.runner = runner
	options.Init.runner = runner
	options.Schema.runner = runner
	options.Convert.runner = runner
	options.Scan.runner = runner
	options.Paths.runner = runner
	options.Example.runner = runner
	options.Serve.runner = runner
	options.MCP.runner = runner

	parser := flags.NewParser(options, flags.HelpFlag)
	parser.Name = runner.programName
	applyCommandLongDescriptions(parser, runner.programName)

	_, err := parser.ParseArgs(args)
	return err
}

// applyCommandLongDescriptions configures detailed command help text with examples.
func applyCommandLongDescriptions(parser *flags.Parser, programName string) {
	descriptions := map[string]string{
		"init": strings.TrimSpace(fmt.Sprintf(`
Write default project configuration.
Values can later be overridden by TPL2OAS_* environment variables and flags.

Examples:
> $ %s init
> $ %s -c api/tpl2oas.yaml init --force
`, programName, programName)),
		"schema": strings.TrimSpace(fmt.Sprintf(`
Compile one jsontemplate and print JSON Schema.
Keys keep template order; nested templates are inlined.

Examples:
> $ %s schema User
> $ %s -t templates.xml schema -f yaml UserList
`, programName, programName)),
		"convert": strings.TrimSpace(fmt.Sprintf(`
Compile one jsontemplate and store it as the 200 application/json response
of path and method. An existing operation for the same pair is replaced.

Examples:
> $ %s convert --path /users --method get --tag users UserList
> $ %s -d openapi.json convert -p /users -m post --operation-id createUser User
`, programName, programName)),
		"scan": strings.TrimSpace(fmt.Sprintf(`
Find templates preceded by a comment with path: and method: and store one
operation per method. Nothing is written unless every template compiles.

Examples:
> $ %s scan
> $ %s scan --dry-run --tag users templates/users.xml
`, programName, programName)),
		"example": strings.TrimSpace(fmt.Sprintf(`
Generate an example payload. Objects keep property order; arrays hold two items.
YAML output carries property descriptions as comments.

Examples:
> $ %s example --path /users --method get
> $ %s example --template User -f yaml --verify
`, programName, programName)),
		"serve": strings.TrimSpace(fmt.Sprintf(`
Serve POST /convert, GET /available-paths and POST /sample-response.
Request file paths must stay inside the base directory.

Examples:
> $ %s serve
> $ %s serve --listen :8080 --base-dir ./api
`, programName, programName)),
	}

	for commandName, description := range descriptions {
		command := parser.Find(commandName)
		if command == nil {
			continue
		}

		command.LongDescription = description
	}
}

func (runner *cliRunner) printVersionInfo() error {
	_, err := fmt.Fprintf(runner.stdout, `url:      %s
file:     %s
version:  %s
commit:   %s
built:    %s
`, URL, runner.programName, Version, Commit, BuildTime)

	return err
}
