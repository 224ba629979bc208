package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/cognicore/belief/pkg/belief"
	"github.com/cognicore/belief/pkg/belief/config"
	"github.com/cognicore/belief/pkg/belief/store/memstore"
	"github.com/cognicore/belief/pkg/belief/store/sqlite"
)

func main() {
	var (
		structurePath = flag.String("structure", "", "Structure file (with -cpts)")
		cptPath       = flag.String("cpts", "", "CPT JSON file (with -structure)")
		networkPath   = flag.String("network", "", "YAML network file (alternative to -structure/-cpts)")
		dbPath        = flag.String("db", "", "SQLite catalog path (optional; in-memory otherwise)")
		name          = flag.String("name", "", "Catalog name override; with -db alone, the network to load")
		query         = flag.String("query", "", "One-shot query variable (non-interactive mode)")
		evidenceStr   = flag.String("evidence", "", "Evidence, e.g. \"JohnCalls=T,MaryCalls=T\"")
		trace         = flag.Bool("trace", false, "Print the evaluation trace")
	)
	flag.Parse()

	ctx := context.Background()

	engine, networkName, cleanup, err := buildEngine(ctx, *structurePath, *cptPath, *networkPath, *dbPath, *name)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	// One-shot query mode
	if *query != "" {
		evidence, err := config.ParseEvidence(*evidenceStr)
		if err != nil {
			log.Fatal(err)
		}
		if err := executeQuery(ctx, engine, networkName, *query, evidence, *trace); err != nil {
			log.Fatal(err)
		}
		return
	}

	// Interactive mode
	fmt.Println("===========================================")
	fmt.Println("  Belief CLI")
	fmt.Println("  Exact inference by enumeration")
	fmt.Println("===========================================")
	fmt.Println()
	fmt.Printf("Network: %s\n", networkName)
	fmt.Println("Query syntax:  Variable | Evidence=T,Other=F")
	fmt.Println("Commands:      :structure  :cpts  :history  (Ctrl+D to exit)")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ":") {
			if err := runCommand(ctx, engine, networkName, line); err != nil {
				fmt.Println("Error:", err)
			}
			continue
		}

		variable, evidenceStr, _ := strings.Cut(line, "|")
		evidence, err := config.ParseEvidence(evidenceStr)
		if err != nil {
			fmt.Println("Error:", err)
			continue
		}
		if err := executeQuery(ctx, engine, networkName, strings.TrimSpace(variable), evidence, *trace); err != nil {
			fmt.Println("Error:", err)
		}
	}

	fmt.Println("\nGoodbye!")
}

func executeQuery(ctx context.Context, engine *belief.Belief, network, variable string, evidence map[string]bool, trace bool) error {
	resp, err := engine.Ask(ctx, belief.AskRequest{
		Network:  network,
		Variable: variable,
		Evidence: evidence,
		Trace:    trace,
	})
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}

	if trace && resp.Trace != nil {
		fmt.Println(resp.Trace.String())
		fmt.Println()
	}

	fmt.Printf("P(%s=T | %s) = %.6f\n", variable, formatEvidence(evidence), resp.True)
	fmt.Printf("P(%s=F | %s) = %.6f\n", variable, formatEvidence(evidence), resp.False)
	fmt.Println()
	return nil
}

func runCommand(ctx context.Context, engine *belief.Belief, network, command string) error {
	switch command {
	case ":structure":
		net, err := engine.Network(ctx, network)
		if err != nil {
			return err
		}
		out, err := net.DescribeStructure()
		if err != nil {
			return err
		}
		fmt.Println(out)
	case ":cpts":
		net, err := engine.Network(ctx, network)
		if err != nil {
			return err
		}
		out, err := net.DescribeCPTs()
		if err != nil {
			return err
		}
		fmt.Println(out)
	case ":history":
		records, err := engine.History(ctx, network, 10)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No queries recorded yet.")
			return nil
		}
		for _, r := range records {
			fmt.Printf("%s  P(%s=T | %s) = %.6f  (%s)\n",
				r.AskedAt.Format("2006-01-02 15:04:05"), r.Variable,
				formatEvidence(r.Evidence), r.PTrue, r.ID)
		}
		fmt.Println()
	default:
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}

func formatEvidence(evidence map[string]bool) string {
	if len(evidence) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(evidence))
	for k := range evidence {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, name := range keys {
		val := "F"
		if evidence[name] {
			val = "T"
		}
		parts = append(parts, name+"="+val)
	}
	return strings.Join(parts, ",")
}

func buildEngine(ctx context.Context, structurePath, cptPath, networkPath, dbPath, nameOverride string) (*belief.Belief, string, func(), error) {
	var engine *belief.Belief
	if dbPath != "" {
		sqlStore, err := sqlite.Open(ctx, dbPath)
		if err != nil {
			return nil, "", nil, fmt.Errorf("open catalog: %w", err)
		}
		engine = belief.New(belief.Options{Store: sqlStore})
	} else {
		engine = belief.New(belief.Options{Store: memstore.New()})
	}

	cleanup := func() {
		engine.Close()
	}

	haveFiles := structurePath != "" || cptPath != "" || networkPath != ""
	if !haveFiles {
		// Catalog-only mode: the network must already exist.
		if dbPath == "" || nameOverride == "" {
			cleanup()
			return nil, "", nil, fmt.Errorf("either network files or -db with -name required")
		}
		if _, err := engine.Network(ctx, nameOverride); err != nil {
			cleanup()
			return nil, "", nil, err
		}
		return engine, nameOverride, cleanup, nil
	}

	loader := config.Loader{
		StructurePath: structurePath,
		CPTPath:       cptPath,
		NetworkPath:   networkPath,
	}
	name, net, err := loader.Load()
	if err != nil {
		cleanup()
		return nil, "", nil, fmt.Errorf("load network: %w", err)
	}
	if nameOverride != "" {
		name = nameOverride
	}

	if err := engine.Import(ctx, name, net); err != nil {
		cleanup()
		return nil, "", nil, fmt.Errorf("import network: %w", err)
	}

	return engine, name, cleanup, nil
}
