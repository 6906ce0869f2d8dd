package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/jessevdk/go-flags"
	"golang.org/x/term"

	"github.com/stateql/stateql/cli"
	"github.com/stateql/stateql/database"
	"github.com/stateql/stateql/dialect"
	"github.com/stateql/stateql/dialect/mssql"
	"github.com/stateql/stateql/util"
)

var version string

func parseOptions(args []string) (dialect.ConnectionConfig, *cli.Options) {
	var opts struct {
		User       string `short:"U" long:"user" description:"SQL Server user name" value-name:"username" default:"sa"`
		Password   string `short:"P" long:"password" description:"SQL Server user password, overridden by $MSSQL_PWD" value-name:"password"`
		Host       string `short:"h" long:"host" description:"Host to connect to the SQL Server" value-name:"hostname" default:"127.0.0.1"`
		Port       uint   `long:"port" description:"Port used for the connection" value-name:"port" default:"1433"`
		Prompt     bool   `long:"password-prompt" description:"Force SQL Server user password prompt"`
		File       string `short:"f" long:"file" description:"Read schema SQL from the file, rather than stdin" value-name:"filename" default:"-"`
		DryRun     bool   `long:"dry-run" description:"Don't run DDLs but just show them"`
		Export     bool   `long:"export" description:"Just dump the current schema to stdout"`
		EnableDrop      bool   `long:"enable-drop" description:"Allow destructive changes such as DROP"`
		Verbose         bool   `long:"verbose" description:"Print skipped destructive operations in detail"`
		DumpConcurrency int    `long:"dump-concurrency" description:"Number of tables to dump concurrently (0 = sequential)"`
		Config          string `long:"config" description:"YAML file to specify: target_tables, skip_tables, skip_views"`
		Help       bool   `long:"help" description:"Show this help"`
		Version    bool   `long:"version" description:"Show this version"`
	}

	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[option...] db_name"
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
		fmt.Print("No database is specified!\n\n")
		parser.WriteHelp(os.Stdout)
		os.Exit(1)
	} else if len(args) > 1 {
		fmt.Printf("Multiple databases are given: %v\n\n", args)
		parser.WriteHelp(os.Stdout)
		os.Exit(1)
	}
	dbName := args[0]

	password, ok := os.LookupEnv("MSSQL_PWD")
	if !ok {
		password = opts.Password
	}
	if opts.Prompt {
		fmt.Print("Enter Password: ")
		pass, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			log.Fatal(err)
		}
		password = string(pass)
	}

	fileConfig, err := database.ParseGeneratorConfig(opts.Config)
	if err != nil {
		log.Fatal(err)
	}
	genConfig := database.MergeGeneratorConfig(fileConfig, database.GeneratorConfig{
		EnableDrop:      opts.EnableDrop,
		DumpConcurrency: opts.DumpConcurrency,
	})

	connConfig := dialect.ConnectionConfig{
		Host:     opts.Host,
		Port:     int(opts.Port),
		User:     opts.User,
		Password: password,
		DBName:   dbName,
		Extra: map[string]string{
			"mssql.dump_concurrency": strconv.Itoa(genConfig.DumpConcurrency),
		},
	}
	cliOpts := &cli.Options{
		File:    opts.File,
		DryRun:  opts.DryRun,
		Export:  opts.Export,
		Verbose: opts.Verbose,
		Config:  genConfig,
	}
	return connConfig, cliOpts
}

func main() {
	util.InitSlog()

	connConfig, opts := parseOptions(os.Args[1:])

	d := mssql.New()
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
