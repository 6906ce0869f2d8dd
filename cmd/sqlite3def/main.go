package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"

	"github.com/stateql/stateql/cli"
	"github.com/stateql/stateql/database"
	"github.com/stateql/stateql/dialect"
	"github.com/stateql/stateql/dialect/sqlite"
	"github.com/stateql/stateql/util"
)

var version string

func parseOptions(args []string) (dialect.ConnectionConfig, *cli.Options) {
	var opts struct {
		File       string `long:"file" description:"Read schema SQL from the file, rather than stdin" value-name:"sql_file" default:"-"`
		DryRun     bool   `long:"dry-run" description:"Don't run DDLs but just show them"`
		Export     bool   `long:"export" description:"Just dump the current schema to stdout"`
		EnableDrop bool   `long:"enable-drop" description:"Allow destructive changes such as DROP"`
		Verbose    bool   `long:"verbose" description:"Print skipped destructive operations in detail"`
		Config     string `long:"config" description:"YAML file to specify: target_tables, skip_tables, skip_views"`
		Help       bool   `long:"help" description:"Show this help"`
		Version    bool   `long:"version" description:"Show this version"`
	}

	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[options] db_filename"
	args, err := parser.ParseArgs(args)
	if err != nil {
		log.Fatal(err)
	}

	if opts.Help {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}
	if opts.Version {
		fmt.Println(version)
		os.Exit(0)
	}
	if len(args) == 0 {
		fmt.Print("No database file is specified!\n\n")
		parser.WriteHelp(os.Stdout)
		os.Exit(1)
	} else if len(args) > 1 {
		fmt.Printf("Multiple database files are given: %v\n\n", args)
		parser.WriteHelp(os.Stdout)
		os.Exit(1)
	}
	dbPath := args[0]

	fileConfig, err := database.ParseGeneratorConfig(opts.Config)
	if err != nil {
		log.Fatal(err)
	}
	genConfig := database.MergeGeneratorConfig(fileConfig, database.GeneratorConfig{EnableDrop: opts.EnableDrop})

	connConfig := dialect.ConnectionConfig{DBName: dbPath}
	cliOpts := &cli.Options{
		File:   opts.File,
		DryRun: opts.DryRun,
		Export: opts.Export,
		Verbose: opts.Verbose,
		Config: genConfig,
	}
	return connConfig, cliOpts
}

func main() {
	util.InitSlog()

	connConfig, opts := parseOptions(os.Args[1:])

	d := sqlite.New()
	db, err := d.Connect(connConfig)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cli.Run(ctx, d, db, database.StdoutLogger{}, *opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
