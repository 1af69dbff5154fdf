// Command miragectl runs maintenance tasks against a Mirage POS database
// without starting the server.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/urfave/cli/v2"

	"miragepos/frontend/backup"
	"miragepos/frontend/sales"
	"miragepos/infrastructure/sequence"
	"miragepos/infrastructure/sqlite"
	"miragepos/models"
)

type dbKey struct{}

func newDBFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "db",
		Usage:   "SQLite database file",
		Value:   "mirage.db",
		EnvVars: []string{"SQLITE_PATH"},
	}
}

func openDB(c *cli.Context) error {
	db, err := sqlite.OpenDB(c.String("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := sqlite.ApplyMigrations(c.Context, db, c.String("migrations")); err != nil {
		_ = db.Close()
		return fmt.Errorf("apply migrations: %w", err)
	}
	c.Context = context.WithValue(c.Context, dbKey{}, db)
	return nil
}

func closeDB(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey{}).(*sqlite.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func dbFrom(c *cli.Context) *sqlite.DB {
	db, _ := c.Context.Value(dbKey{}).(*sqlite.DB)
	return db
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:   "miragectl",
		Usage:  "Mirage POS maintenance",
		Writer: out,
		Flags: []cli.Flag{
			newDBFlag(),
			&cli.StringFlag{
				Name:    "migrations",
				Usage:   "Migrations directory; empty uses the embedded set",
				EnvVars: []string{"MIGRATIONS_DIR"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "export",
				Usage: "Write a JSON backup of every table",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file; defaults to the dated backup name"},
				},
				Before: openDB,
				After:  closeDB,
				Action: runExport,
			},
			{
				Name:      "import",
				Usage:     "Replace every table with the contents of a JSON backup",
				ArgsUsage: "<backup.json>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "admin-username", Value: "Administrator", EnvVars: []string{"ADMIN_USERNAME"}},
					&cli.StringFlag{Name: "admin-password", Value: "Campion#123", EnvVars: []string{"ADMIN_PASSWORD"}},
				},
				Before: openDB,
				After:  closeDB,
				Action: runImport,
			},
			{
				Name:   "recover-edits",
				Usage:  "Finish sale edits interrupted before the replacement was saved",
				Before: openDB,
				After:  closeDB,
				Action: runRecoverEdits,
			},
			{
				Name:      "abandon-edit",
				Usage:     "Give up on a pending sale edit and restore the original sale",
				ArgsUsage: "<edit-id>",
				Before:    openDB,
				After:     closeDB,
				Action:    runAbandonEdit,
			},
			{
				Name:   "counters",
				Usage:  "Show the last invoice, quotation and shipment counters",
				Before: openDB,
				After:  closeDB,
				Action: runCounters,
			},
			{
				Name:      "next-number",
				Usage:     "Preview the next invoice, quotation or shipment number",
				ArgsUsage: "<invoice|quotation|shipment>",
				Before:    openDB,
				After:     closeDB,
				Action:    runNextNumber,
			},
		},
	}
}

func runExport(c *cli.Context) error {
	snap, err := backup.ExportSnapshot(c.Context, dbFrom(c))
	if err != nil {
		return err
	}
	path := c.String("out")
	if path == "" {
		path = backup.FileName(time.Now())
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := backup.WriteJSON(f, snap); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "wrote %s (%d products, %d sales)\n", path, len(snap.Products), len(snap.Sales))
	return nil
}

func runImport(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("import needs exactly one backup file", 2)
	}
	f, err := os.Open(c.Args().First())
	if err != nil {
		return err
	}
	defer f.Close()
	snap, err := backup.ReadJSON(f)
	if err != nil {
		return err
	}
	res, err := backup.Restore(c.Context, dbFrom(c), snap, c.String("admin-username"), c.String("admin-password"))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "restored %d products, %d sales, %d users\n", res.Products, res.Sales, res.Users)
	return nil
}

func runRecoverEdits(c *cli.Context) error {
	n, err := sales.RecoverPendingEdits(c.Context, dbFrom(c))
	fmt.Fprintf(c.App.Writer, "recovered %d pending edits\n", n)
	return err
}

func runAbandonEdit(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("abandon-edit: edit id is required")
	}
	sale, err := sales.AbandonEdit(c.Context, dbFrom(c), id)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "restored %s\n", sale.InvoiceNo)
	return nil
}

func runNextNumber(c *cli.Context) error {
	kind, err := sequence.ParseKind(c.Args().First())
	if err != nil {
		return err
	}
	number, err := sequence.Next(c.Context, dbFrom(c), kind)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, number)
	return nil
}

func runCounters(c *cli.Context) error {
	var st models.Settings
	err := dbFrom(c).WithReadTx(c.Context, func(ctx context.Context, tx bun.Tx) error {
		var err error
		st, err = sequence.LoadSettings(ctx, tx)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "invoice=%d quotation=%d shipment=%d\n", st.LastInvoiceNo, st.LastQuotationNo, st.LastShipmentID)
	return nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		log.Printf("warning: could not load .env file: %v", err)
	}
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
