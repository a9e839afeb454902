/*
Contactctl saves a contact to a contact store and prints it back out as it was
read from the store.

Usage:

	contactctl [flags]

The contact is built from the --id and --email flags, validated, inserted into
the configured store, and then read back. The stored contact is printed to
stdout in its compact wire form unless --expanded is given. If --id is not
given, a random one is generated.

The flags are:

	-c, --config PATH
		Load store and logging configuration from the given JSON or YAML file.
		If not given, an in-memory store with logging disabled is used.

	-d, --db CONN
		Use the given DB connection string instead of the one in the config.
		One of "inmem[:dir=DIR[,file=FILE]]", "sqlite:DIR", or
		"postgres:DSN".

	-i, --id UUID
		The ID of the contact to save.

	-m, --email ADDRESS
		The email address of the contact to save.

	-e, --expanded
		Print value object fields in their expanded {"value": ...} form.

	-f, --format FORMAT
		Print in the given format. One of "json" or "yaml". Defaults to
		"json".

	-l, --list
		After saving, print every contact in the store, ordered by email,
		instead of only the saved one. If --email is not given, nothing is
		saved.

	-v, --verbose
		Show debug output on stderr.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/dekarrin/valobj"
	"github.com/dekarrin/valobj/config"
	"github.com/dekarrin/valobj/contact"
	"github.com/dekarrin/valobj/db"
	"github.com/dekarrin/valobj/internal/sorted"
	"github.com/dekarrin/valobj/logging"
	"github.com/dekarrin/valobj/schema"
	"github.com/dekarrin/valobj/value"
	"github.com/spf13/pflag"
)

const (
	exitSuccess   = 0
	exitError     = 1
	exitPanic     = 2
	exitInterrupt = 3
)

var exitCode int

var (
	flagConf     = pflag.StringP("config", "c", "", "Path to configuration file")
	flagDB       = pflag.StringP("db", "d", "", "DB connection string; overrides the config file")
	flagID       = pflag.StringP("id", "i", "", "ID of the contact to save; generated if not given")
	flagEmail    = pflag.StringP("email", "m", "", "Email address of the contact to save")
	flagExpanded = pflag.BoolP("expanded", "e", false, "Print value objects in expanded form")
	flagFormat   = pflag.StringP("format", "f", "json", "Output format, json or yaml")
	flagList     = pflag.BoolP("list", "l", false, "Print all stored contacts")
	flagVerbose  = pflag.BoolP("verbose", "v", false, "Show debug output")
)

func main() {
	ctx := context.Background()
	ctx, cancelMainContext := context.WithCancel(ctx)
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt)
	defer func() {
		signal.Stop(signalChan)
		cancelMainContext()
	}()
	// listen for signals
	go func() {
		select {
		case <-signalChan: // first signal, cancel context
			cancelMainContext()
		case <-ctx.Done():
		}

		<-signalChan // second signal, hard exit
		os.Exit(exitInterrupt)
	}()

	defer func() {
		if panicErr := recover(); panicErr != nil {
			fmt.Fprintf(os.Stderr, "fatal panic: %v\n", panicErr)
			exitCode = exitPanic
		}
		os.Exit(exitCode)
	}()

	pflag.Parse()

	logger := logging.NewStderr("contactctl", *flagVerbose)

	if err := run(ctx, logger); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		exitCode = exitError
		return
	}
	exitCode = exitSuccess
}

func run(ctx context.Context, logger valobj.Logger) error {
	outFormat, err := valobj.ParseFormat(*flagFormat)
	if err != nil {
		return fmt.Errorf("--format: %w", err)
	}
	mode := schema.Compact
	if *flagExpanded {
		mode = schema.Expanded
	}

	var conf config.Config
	if *flagConf != "" {
		logger.Debugf("Loading config file %s...", *flagConf)
		conf, err = config.Load(*flagConf)
		if err != nil {
			return err
		}
	}
	if *flagDB != "" {
		conf.DB, err = config.ParseDBConnString(*flagDB)
		if err != nil {
			return fmt.Errorf("--db: %w", err)
		}
	}
	conf = conf.FillDefaults()
	if err := conf.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	storeLog, err := conf.Log.Create()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	logger.Debugf("Connecting to %s DB...", conf.DB.Type)
	store, err := config.Connect(ctx, conf.DB, storeLog)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Errorf("close store: %v", err)
		}
	}()

	var saved schema.ContactSchema
	if *flagEmail != "" || !*flagList {
		saved, err = save(ctx, store)
		if err != nil {
			return err
		}
		logger.Debugf("Saved %s", saved)
	}

	var out []schema.ContactSchema
	if *flagList {
		all, err := store.Contacts().GetAll(ctx)
		if err != nil {
			return fmt.Errorf("list contacts: %w", err)
		}
		all = sorted.By(all, func(left, right contact.Contact) bool {
			return left.Email.Value() < right.Email.Value()
		})
		for _, c := range all {
			cs, err := schema.FromRecord(c)
			if err != nil {
				return fmt.Errorf("stored contact %s: %w", c.ID, err)
			}
			out = append(out, cs)
		}
	} else {
		out = append(out, saved)
	}

	for _, cs := range out {
		data, err := cs.Encode(outFormat, mode)
		if err != nil {
			return fmt.Errorf("encode contact: %w", err)
		}
		if outFormat == valobj.YAML {
			fmt.Println("---")
			fmt.Print(string(data))
		} else {
			fmt.Println(string(data))
		}
	}

	return nil
}

// save validates the contact given by flags, inserts it into the store, and
// returns it as read back from the store.
func save(ctx context.Context, store db.Store) (schema.ContactSchema, error) {
	idInput := value.Scalar(*flagID)
	if *flagID == "" {
		id, err := value.GenerateID()
		if err != nil {
			return schema.ContactSchema{}, fmt.Errorf("generate ID: %w", err)
		}
		idInput = value.FromObject(id)
	}

	cs, err := schema.New(idInput, value.Scalar(*flagEmail))
	if err != nil {
		return schema.ContactSchema{}, err
	}

	repo := store.Contacts()
	if _, err := repo.Create(ctx, cs.Record()); err != nil {
		if errors.Is(err, valobj.ErrConstraintViolation) {
			return schema.ContactSchema{}, fmt.Errorf("a contact with that ID or email already exists")
		}
		return schema.ContactSchema{}, fmt.Errorf("save contact: %w", err)
	}

	stored, err := repo.Get(ctx, cs.ID)
	if err != nil {
		return schema.ContactSchema{}, fmt.Errorf("read back contact: %w", err)
	}
	return schema.FromRecord(stored)
}
