package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"rxncore/internal/adapters/export"
	"rxncore/internal/core"
	"rxncore/pkg/domain"
)

type repl struct {
	svc    *core.Service
	worker *export.Worker
	rl     *readline.Instance
}

func newREPL(svc *core.Service, worker *export.Worker, rl *readline.Instance) *repl {
	return &repl{svc: svc, worker: worker, rl: rl}
}

// Run reads and executes commands until EOF or an exit command.
func (r *repl) Run(ctx context.Context) error {
	for {
		line, err := r.rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := r.execute(ctx, parseArgs(line)); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			fmt.Printf("error: %v\n", err)
			var rve domain.RuleViolationError
			if errors.As(err, &rve) {
				for _, v := range rve.Result.Violations {
					fmt.Printf("  [%s] %s: %s\n", v.Severity, v.Rule, v.Message)
				}
			}
		}
	}
}

// parseArgs splits on spaces, honoring double quotes.
func parseArgs(input string) []string {
	var args []string
	var current strings.Builder
	inQuotes := false
	for _, char := range input {
		switch char {
		case '"':
			inQuotes = !inQuotes
		case ' ':
			if inQuotes {
				current.WriteRune(char)
			} else if current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(char)
		}
	}
	if current.Len() > 0 {
		args = append(args, current.String())
	}
	return args
}

func (r *repl) execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return nil
	}
	switch args[0] {
	case "network":
		return r.handleNetwork(ctx, args[1:])
	case "node":
		return r.handleNode(ctx, args[1:])
	case "alias":
		return r.handleAlias(ctx, args[1:])
	case "rxn":
		return r.handleReaction(ctx, args[1:])
	case "comp":
		return r.handleCompartment(ctx, args[1:])
	case "param":
		return r.handleParam(ctx, args[1:])
	case "undo":
		return r.svc.Undo(ctx)
	case "redo":
		return r.svc.Redo(ctx)
	case "group":
		return r.handleGroup(args[1:])
	case "save":
		return r.handleSave(args[1:])
	case "load":
		return r.handleLoad(ctx, args[1:])
	case "export":
		return r.handleExport(ctx, args[1:])
	case "status":
		return r.handleStatus(args[1:])
	case "help":
		r.printHelp(args[1:])
		return nil
	case "exit", "quit":
		fmt.Println("bye")
		return io.EOF
	default:
		return fmt.Errorf("unknown command %q, try help", args[0])
	}
}

func (r *repl) handleNetwork(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: network new|del|clear|list ...")
	}
	st := r.svc.Store()
	switch args[0] {
	case "new":
		if len(args) != 2 {
			return errors.New("usage: network new <id>")
		}
		neti, err := r.svc.NewNetwork(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("network %d\n", neti)
		return nil
	case "del":
		neti, err := atoiArg(args, 1, "network index")
		if err != nil {
			return err
		}
		return r.svc.DeleteNetwork(ctx, neti)
	case "clear":
		if len(args) == 2 {
			neti, err := atoiArg(args, 1, "network index")
			if err != nil {
				return err
			}
			return r.svc.ClearNetwork(ctx, neti)
		}
		return r.svc.ClearNetworks(ctx)
	case "list":
		for _, neti := range st.NetworkIndices() {
			id, err := st.NetworkID(neti)
			if err != nil {
				continue
			}
			nodes, _ := st.NumberOfNodes(neti)
			reactions, _ := st.NumberOfReactions(neti)
			fmt.Printf("%3d  %-20s nodes=%d reactions=%d\n", neti, id, nodes, reactions)
		}
		return nil
	default:
		return fmt.Errorf("unknown subcommand network %s", args[0])
	}
}

func (r *repl) handleNode(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: node add|del|list|move|conc ...")
	}
	st := r.svc.Store()
	switch args[0] {
	case "add":
		if len(args) != 7 {
			return errors.New("usage: node add <neti> <id> <x> <y> <w> <h>")
		}
		neti, err := atoiArg(args, 1, "network index")
		if err != nil {
			return err
		}
		x, y, w, h, err := rectArgs(args[3:])
		if err != nil {
			return err
		}
		nodei, err := r.svc.AddNode(ctx, neti, args[2], x, y, w, h)
		if err != nil {
			return err
		}
		fmt.Printf("node %d\n", nodei)
		return nil
	case "del":
		neti, nodei, err := twoIndices(args)
		if err != nil {
			return err
		}
		return r.svc.DeleteNode(ctx, neti, nodei)
	case "move":
		if len(args) != 5 {
			return errors.New("usage: node move <neti> <nodei> <x> <y>")
		}
		neti, nodei, err := twoIndices(args[:3])
		if err != nil {
			return err
		}
		x, err := floatArg(args[3], "x")
		if err != nil {
			return err
		}
		y, err := floatArg(args[4], "y")
		if err != nil {
			return err
		}
		return r.svc.SetNodeCoordinate(ctx, neti, nodei, x, y)
	case "conc":
		if len(args) != 4 {
			return errors.New("usage: node conc <neti> <nodei> <concentration>")
		}
		neti, nodei, err := twoIndices(args[:3])
		if err != nil {
			return err
		}
		conc, err := floatArg(args[3], "concentration")
		if err != nil {
			return err
		}
		return r.svc.SetNodeConcentration(ctx, neti, nodei, conc)
	case "list":
		neti, err := atoiArg(args, 1, "network index")
		if err != nil {
			return err
		}
		indices, err := st.NodeIndices(neti)
		if err != nil {
			return err
		}
		for _, nodei := range indices {
			id, err := st.NodeID(neti, nodei)
			if err != nil {
				continue
			}
			x, y, _ := st.NodeCoordinate(neti, nodei)
			alias, _ := st.IsAliasNode(neti, nodei)
			marker := ""
			if alias {
				marker = " (alias)"
			}
			fmt.Printf("%3d  %-20s (%.1f, %.1f)%s\n", nodei, id, x, y, marker)
		}
		return nil
	default:
		return fmt.Errorf("unknown subcommand node %s", args[0])
	}
}

func (r *repl) handleAlias(ctx context.Context, args []string) error {
	if len(args) != 6 {
		return errors.New("usage: alias <neti> <originali> <x> <y> <w> <h>")
	}
	neti, err := atoiArg(args, 0, "network index")
	if err != nil {
		return err
	}
	origi, err := atoiArg(args, 1, "original index")
	if err != nil {
		return err
	}
	x, y, w, h, err := rectArgs(args[2:])
	if err != nil {
		return err
	}
	aliasi, err := r.svc.AddAliasNode(ctx, neti, origi, x, y, w, h)
	if err != nil {
		return err
	}
	fmt.Printf("alias %d\n", aliasi)
	return nil
}

func (r *repl) handleReaction(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: rxn add|del|list|src|dest|rate|uniuni|bibi ...")
	}
	st := r.svc.Store()
	switch args[0] {
	case "add":
		if len(args) != 3 {
			return errors.New("usage: rxn add <neti> <id>")
		}
		neti, err := atoiArg(args, 1, "network index")
		if err != nil {
			return err
		}
		reai, err := r.svc.CreateReaction(ctx, neti, args[2])
		if err != nil {
			return err
		}
		fmt.Printf("reaction %d\n", reai)
		return nil
	case "del":
		neti, reai, err := twoIndices(args, "network index", "reaction index")
		if err != nil {
			return err
		}
		return r.svc.DeleteReaction(ctx, neti, reai)
	case "src", "dest":
		if len(args) != 5 {
			return fmt.Errorf("usage: rxn %s <neti> <reai> <nodei> <stoich>", args[0])
		}
		neti, reai, err := twoIndices(args[:3], "network index", "reaction index")
		if err != nil {
			return err
		}
		nodei, err := atoiArg(args, 3, "node index")
		if err != nil {
			return err
		}
		stoich, err := floatArg(args[4], "stoichiometry")
		if err != nil {
			return err
		}
		if args[0] == "src" {
			return r.svc.AddSrcNode(ctx, neti, reai, nodei, stoich)
		}
		return r.svc.AddDestNode(ctx, neti, reai, nodei, stoich)
	case "rate":
		if len(args) != 4 {
			return errors.New("usage: rxn rate <neti> <reai> <law>")
		}
		neti, reai, err := twoIndices(args[:3], "network index", "reaction index")
		if err != nil {
			return err
		}
		return r.svc.SetRateLaw(ctx, neti, reai, args[3])
	case "uniuni":
		if len(args) != 8 {
			return errors.New("usage: rxn uniuni <neti> <id> <law> <srci> <desti> <srcStoich> <destStoich>")
		}
		neti, err := atoiArg(args, 1, "network index")
		if err != nil {
			return err
		}
		srci, err := atoiArg(args, 4, "source index")
		if err != nil {
			return err
		}
		desti, err := atoiArg(args, 5, "target index")
		if err != nil {
			return err
		}
		srcStoich, err := floatArg(args[6], "source stoichiometry")
		if err != nil {
			return err
		}
		destStoich, err := floatArg(args[7], "target stoichiometry")
		if err != nil {
			return err
		}
		reai, err := r.svc.CreateUniUni(ctx, neti, args[2], args[3], srci, desti, srcStoich, destStoich)
		if err != nil {
			return err
		}
		fmt.Printf("reaction %d\n", reai)
		return nil
	case "list":
		neti, err := atoiArg(args, 1, "network index")
		if err != nil {
			return err
		}
		indices, err := st.ReactionIndices(neti)
		if err != nil {
			return err
		}
		for _, reai := range indices {
			id, err := st.ReactionID(neti, reai)
			if err != nil {
				continue
			}
			law, _ := st.RateLaw(neti, reai)
			srcs, _ := st.ReactionSrcNodeIDs(neti, reai)
			dests, _ := st.ReactionDestNodeIDs(neti, reai)
			fmt.Printf("%3d  %-20s %s -> %s  law=%q\n",
				reai, id, strings.Join(srcs, "+"), strings.Join(dests, "+"), law)
		}
		return nil
	default:
		return fmt.Errorf("unknown subcommand rxn %s", args[0])
	}
}

func (r *repl) handleCompartment(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: comp add|del|list|put|volume ...")
	}
	st := r.svc.Store()
	switch args[0] {
	case "add":
		if len(args) != 7 {
			return errors.New("usage: comp add <neti> <id> <x> <y> <w> <h>")
		}
		neti, err := atoiArg(args, 1, "network index")
		if err != nil {
			return err
		}
		x, y, w, h, err := rectArgs(args[3:])
		if err != nil {
			return err
		}
		compi, err := r.svc.AddCompartment(ctx, neti, args[2], x, y, w, h)
		if err != nil {
			return err
		}
		fmt.Printf("compartment %d\n", compi)
		return nil
	case "del":
		neti, compi, err := twoIndices(args, "network index", "compartment index")
		if err != nil {
			return err
		}
		return r.svc.DeleteCompartment(ctx, neti, compi)
	case "put":
		if len(args) != 4 {
			return errors.New("usage: comp put <neti> <nodei> <compi>")
		}
		neti, nodei, err := twoIndices(args[:3])
		if err != nil {
			return err
		}
		compi, err := atoiArg(args, 3, "compartment index")
		if err != nil {
			return err
		}
		return r.svc.SetCompartmentOfNode(ctx, neti, nodei, compi)
	case "volume":
		if len(args) != 4 {
			return errors.New("usage: comp volume <neti> <compi> <volume>")
		}
		neti, compi, err := twoIndices(args[:3], "network index", "compartment index")
		if err != nil {
			return err
		}
		volume, err := floatArg(args[3], "volume")
		if err != nil {
			return err
		}
		return r.svc.SetCompartmentVolume(ctx, neti, compi, volume)
	case "list":
		neti, err := atoiArg(args, 1, "network index")
		if err != nil {
			return err
		}
		indices, err := st.CompartmentIndices(neti)
		if err != nil {
			return err
		}
		for _, compi := range indices {
			id, err := st.CompartmentID(neti, compi)
			if err != nil {
				continue
			}
			volume, _ := st.CompartmentVolume(neti, compi)
			members, _ := st.NodesInCompartment(neti, compi)
			fmt.Printf("%3d  %-20s volume=%g nodes=%d\n", compi, id, volume, len(members))
		}
		return nil
	default:
		return fmt.Errorf("unknown subcommand comp %s", args[0])
	}
}

func (r *repl) handleParam(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: param set|del|list ...")
	}
	switch args[0] {
	case "set":
		if len(args) != 4 {
			return errors.New("usage: param set <neti> <id> <value>")
		}
		neti, err := atoiArg(args, 1, "network index")
		if err != nil {
			return err
		}
		value, err := floatArg(args[3], "value")
		if err != nil {
			return err
		}
		return r.svc.SetParameter(ctx, neti, args[2], value)
	case "del":
		if len(args) != 3 {
			return errors.New("usage: param del <neti> <id>")
		}
		neti, err := atoiArg(args, 1, "network index")
		if err != nil {
			return err
		}
		return r.svc.RemoveParameter(ctx, neti, args[2])
	case "list":
		neti, err := atoiArg(args, 1, "network index")
		if err != nil {
			return err
		}
		params, err := r.svc.Store().Parameters(neti)
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(params))
		for id := range params {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Printf("%-20s %g\n", id, params[id])
		}
		return nil
	default:
		return fmt.Errorf("unknown subcommand param %s", args[0])
	}
}

func (r *repl) handleGroup(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: group start|end")
	}
	switch args[0] {
	case "start":
		r.svc.StartGroup()
	case "end":
		r.svc.EndGroup()
	default:
		return fmt.Errorf("unknown subcommand group %s", args[0])
	}
	return nil
}

func (r *repl) handleSave(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: save <neti> <file>")
	}
	neti, err := atoiArg(args, 0, "network index")
	if err != nil {
		return err
	}
	data, err := r.svc.Store().SaveNetwork(neti)
	if err != nil {
		return err
	}
	return os.WriteFile(args[1], data, 0o644)
}

func (r *repl) handleLoad(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: load <file>")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	neti, err := r.svc.LoadNetwork(ctx, data)
	if err != nil {
		return err
	}
	fmt.Printf("network %d\n", neti)
	return nil
}

func (r *repl) handleExport(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: export <neti> [json csv png ...]")
	}
	neti, err := atoiArg(args, 0, "network index")
	if err != nil {
		return err
	}
	formats := make([]export.Format, 0, len(args)-1)
	for _, arg := range args[1:] {
		formats = append(formats, export.Format(arg))
	}
	record, err := r.worker.Enqueue(ctx, export.Input{NetworkIndex: neti, Formats: formats})
	if err != nil {
		return err
	}
	fmt.Printf("export %s %s\n", record.ID, record.Status)
	return nil
}

func (r *repl) handleStatus(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: status <export-id>")
	}
	record, ok := r.worker.Get(args[0])
	if !ok {
		return fmt.Errorf("export %s not found", args[0])
	}
	fmt.Printf("%s %s\n", record.ID, record.Status)
	if record.Error != "" {
		fmt.Printf("  error: %s\n", record.Error)
	}
	for _, artifact := range record.Artifacts {
		fmt.Printf("  %-4s %s (%d bytes)\n", artifact.Format, artifact.Key, artifact.SizeBytes)
	}
	return nil
}

func (r *repl) printHelp(args []string) {
	if len(args) == 1 {
		if help, ok := commandHelp[args[0]]; ok {
			fmt.Println(help)
			return
		}
		fmt.Printf("unknown command %q\n", args[0])
		return
	}
	names := make([]string, 0, len(commandHelp))
	for name := range commandHelp {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("commands:")
	for _, name := range names {
		fmt.Printf("  %s\n", name)
	}
	fmt.Println("\nuse 'help <command>' for details")
}

var commandHelp = map[string]string{
	"network": `network new <id> | del <neti> | clear [neti] | list`,
	"node":    `node add <neti> <id> <x> <y> <w> <h> | del <neti> <nodei> | move <neti> <nodei> <x> <y> | conc <neti> <nodei> <value> | list <neti>`,
	"alias":   `alias <neti> <originali> <x> <y> <w> <h> - add an alias glyph for an existing species`,
	"rxn":     `rxn add <neti> <id> | del <neti> <reai> | src <neti> <reai> <nodei> <stoich> | dest ... | rate <neti> <reai> <law> | uniuni <neti> <id> <law> <srci> <desti> <s1> <s2> | list <neti>`,
	"comp":    `comp add <neti> <id> <x> <y> <w> <h> | del <neti> <compi> | put <neti> <nodei> <compi> | volume <neti> <compi> <v> | list <neti>`,
	"param":   `param set <neti> <id> <value> | del <neti> <id> | list <neti>`,
	"undo":    `undo - revert the most recent committed operation or group`,
	"redo":    `redo - reapply the most recently undone operation`,
	"group":   `group start | end - bracket several commands into one undo step`,
	"save":    `save <neti> <file> - write the network's canonical JSON document`,
	"load":    `load <file> - read a network document into a new index`,
	"export":  `export <neti> [json csv png ...] - enqueue an artifact export`,
	"status":  `status <export-id> - show an export record and its artifacts`,
	"exit":    `exit - leave the shell`,
}

func atoiArg(args []string, i int, what string) (int, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing %s", what)
	}
	v, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("bad %s %q", what, args[i])
	}
	return v, nil
}

func floatArg(arg, what string) (float64, error) {
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, fmt.Errorf("bad %s %q", what, arg)
	}
	return v, nil
}

// rectArgs parses four consecutive arguments as x, y, w, h.
func rectArgs(args []string) (x, y, w, h float64, err error) {
	if len(args) < 4 {
		return 0, 0, 0, 0, errors.New("missing rectangle, expected <x> <y> <w> <h>")
	}
	names := [4]string{"x", "y", "w", "h"}
	out := [4]float64{}
	for i := range out {
		out[i], err = floatArg(args[i], names[i])
		if err != nil {
			return 0, 0, 0, 0, err
		}
	}
	return out[0], out[1], out[2], out[3], nil
}

// twoIndices parses args[1] and args[2] as a network index and an entity index.
func twoIndices(args []string, names ...string) (int, int, error) {
	first, second := "network index", "node index"
	if len(names) == 2 {
		first, second = names[0], names[1]
	}
	if len(args) < 3 {
		return 0, 0, fmt.Errorf("missing %s and %s", first, second)
	}
	a, err := atoiArg(args, 1, first)
	if err != nil {
		return 0, 0, err
	}
	b, err := atoiArg(args, 2, second)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}
