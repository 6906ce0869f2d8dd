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
	"github.com/stateql/stateql/dialect/mysql"
	"github.com/stateql/stateql/util"
)

var version string

func parseOptions(args []string) (dialect.ConnectionConfig, *cli.Options) {
	var opts struct {
		User                  string `short:"u" long:"user" description:"MySQL user name" value-name:"user_name" default:"root"`
		Password              string `short:"p" long:"password" description:"MySQL user password, overridden by $MYSQL_PWD" value-name:"password"`
		Host                  string `short:"h" long:"host" description:"Host to connect to the MySQL server" value-name:"host_name" default:"127.0.0.1"`
		Port                  uint   `short:"P" long:"port" description:"Port used for the connection" value-name:"port_num" default:"3306"`
		Prompt                bool   `long:"password-prompt" description:"Force MySQL user password prompt"`
		EnableCleartextPlugin bool   `long:"enable-cleartext-plugin" description:"Enable the clear text authentication plugin"`
		File                  string `long:"file" description:"Read schema SQL from the file, rather than stdin" value-name:"sql_file" default:"-"`
		DryRun                bool   `long:"dry-run" description:"Don't run DDLs but just show them"`
		Export                bool   `long:"export" description:"Just dump the current schema to stdout"`
		EnableDrop            bool   `long:"enable-drop" description:"Allow destructive changes such as DROP"`
		Verbose               bool   `long:"verbose" description:"Print skipped destructive operations in detail"`
		Config                string `long:"config" description:"YAML file to specify: target_tables, skip_tables, skip_views"`
		DumpConcurrency       int    `long:"dump-concurrency" description:"Number of tables to dump concurrently (0 = sequential)"`
		Help                  bool   `long:"help" description:"Show this help"`
		Version               bool   `long:"version" description:"Show this version"`
	}

	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[options] db_name"
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

	password, ok := os.LookupEnv("MYSQL_PWD")
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
			"mysql.enable_cleartext_plugin": strconv.FormatBool(opts.EnableCleartextPlugin),
			"mysql.dump_concurrency":        strconv.Itoa(genConfig.DumpConcurrency),
		},
	}
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

	d := mysql.New()
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
