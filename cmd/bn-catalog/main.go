package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/cognicore/belief/pkg/belief"
	"github.com/cognicore/belief/pkg/belief/config"
	"github.com/cognicore/belief/pkg/belief/store/sqlite"
)

func main() {
	var (
		dbPath     = flag.String("db", "", "SQLite catalog path (required)")
		importPath = flag.String("import", "", "YAML network file to import")
		name       = flag.String("name", "", "Catalog name override for -import")
		list       = flag.Bool("list", false, "List catalog networks")
		show       = flag.String("show", "", "Print a network's structure and CPTs")
		history    = flag.String("history", "", "Print a network's recent queries")
		historyMax = flag.Int("limit", 20, "Maximum history entries to print")
		deleteName = flag.String("delete", "", "Delete a network and its history")
	)
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("--db required")
	}

	ctx := context.Background()

	sqlStore, err := sqlite.Open(ctx, *dbPath)
	if err != nil {
		log.Fatal(err)
	}
	engine := belief.New(belief.Options{Store: sqlStore})
	defer engine.Close()

	switch {
	case *importPath != "":
		if err := runImport(ctx, engine, *importPath, *name); err != nil {
			log.Fatal(err)
		}
	case *list:
		if err := runList(ctx, engine); err != nil {
			log.Fatal(err)
		}
	case *show != "":
		if err := runShow(ctx, engine, *show); err != nil {
			log.Fatal(err)
		}
	case *history != "":
		if err := runHistory(ctx, engine, *history, *historyMax); err != nil {
			log.Fatal(err)
		}
	case *deleteName != "":
		if err := engine.Remove(ctx, *deleteName); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Deleted %s\n", *deleteName)
	default:
		log.Fatal("one of --import, --list, --show, --history, --delete required")
	}
}

func runImport(ctx context.Context, engine *belief.Belief, path, nameOverride string) error {
	loader := config.Loader{NetworkPath: path}
	name, net, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load network: %w", err)
	}
	if nameOverride != "" {
		name = nameOverride
	}
	if err := engine.Import(ctx, name, net); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	fmt.Printf("Imported %s (%d variables)\n", name, net.Len())
	return nil
}

func runList(ctx context.Context, engine *belief.Belief) error {
	names, err := engine.Networks(ctx)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("Catalog is empty.")
		return nil
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

func runShow(ctx context.Context, engine *belief.Belief, name string) error {
	net, err := engine.Network(ctx, name)
	if err != nil {
		return err
	}
	structure, err := net.DescribeStructure()
	if err != nil {
		return err
	}
	cpts, err := net.DescribeCPTs()
	if err != nil {
		return err
	}
	fmt.Println(structure)
	fmt.Println(cpts)
	return nil
}

func runHistory(ctx context.Context, engine *belief.Belief, name string, limit int) error {
	records, err := engine.History(ctx, name, limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No queries recorded yet.")
		return nil
	}
	for _, r := range records {
		parts := make([]string, 0, len(r.Evidence))
		for _, evName := range r.SortedEvidenceNames() {
			val := "F"
			if r.Evidence[evName] {
				val = "T"
			}
			parts = append(parts, evName+"="+val)
		}
		fmt.Printf("%s  P(%s=T | {%s}) = %.6f  (%s)\n",
			r.AskedAt.Format("2006-01-02 15:04:05"), r.Variable,
			strings.Join(parts, ","), r.PTrue, r.ID)
	}
	return nil
}
