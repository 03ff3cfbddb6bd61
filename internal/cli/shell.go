package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/UnknownOlympus/iris/internal/models"
	"github.com/UnknownOlympus/iris/internal/tasklist"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// errShellHelp ends a shell command after its flag usage was printed.
var errShellHelp = errors.New("help requested")

const shellHelp = `Commands:
  list                    reload and show the tasks
  filter [key=value ...]  replace the filters (entity_name, task_type, status,
                          contact_person, start_date, end_date); no args clears
  sort <field>            sort by field; the same field again flips the order
  create [flags]          add a task, e.g. create --entity "Acme Corp" --date 2025-06-12
                          --time "1:30 PM" --contact "John Smith" --phone "+1 555 0100"
  edit <id> [flags]       change the given fields of a task, plus --status
  status <id> <open|closed>
  delete <id>
  show                    show the held tasks without reloading
  help
  quit`

func (a *app) newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session over the task list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runShell(cmd)
		},
	}
}

func (a *app) runShell(cmd *cobra.Command) error {
	ctx := cmd.Context()

	if err := a.list.Load(ctx); err == nil {
		a.showList()
	}
	a.flushNotes()

	for {
		fmt.Fprint(a.out, "iris> ")

		line, err := a.readLine()
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(a.out)
			return nil
		}
		if err != nil {
			return err
		}

		fields, err := splitArgs(line)
		if err != nil {
			fmt.Fprintf(a.out, "error: %v\n", err)
			continue
		}
		if len(fields) == 0 {
			continue
		}

		quit, cmdErr := a.shellCommand(cmd, fields[0], fields[1:])
		a.flushNotes()
		if cmdErr != nil && !errors.Is(cmdErr, tasklist.ErrSuperseded) && !errors.Is(cmdErr, errShellHelp) {
			fmt.Fprintf(a.out, "error: %v\n", cmdErr)
		}
		if quit {
			return nil
		}
	}
}

func (a *app) shellCommand(cmd *cobra.Command, name string, args []string) (bool, error) {
	ctx := cmd.Context()

	switch name {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		fmt.Fprintln(a.out, shellHelp)
	case "list", "ls":
		if err := a.list.Load(ctx); err != nil {
			return false, err
		}
		a.showList()
	case "show":
		a.showList()
	case "filter":
		filters := map[string]string{}
		for _, arg := range args {
			key, value, ok := strings.Cut(arg, "=")
			if !ok || key == "" {
				return false, fmt.Errorf("filter %q is not key=value", arg)
			}
			filters[key] = value
		}
		if err := a.list.ApplyFilters(ctx, filters); err != nil {
			return false, err
		}
		a.showList()
	case "sort":
		if len(args) != 1 {
			return false, errors.New("usage: sort <field>")
		}
		if err := a.list.ChangeSort(ctx, args[0]); err != nil {
			return false, err
		}
		a.showList()
	case "create", "new":
		return false, a.shellCreate(ctx, args)
	case "edit":
		if len(args) == 0 {
			return false, errors.New("usage: edit <id> [flags]")
		}
		id, err := parseID(args[0])
		if err != nil {
			return false, err
		}
		return false, a.shellEdit(ctx, id, args[1:])
	case "status":
		if len(args) != 2 {
			return false, errors.New("usage: status <id> <open|closed>")
		}
		id, err := parseID(args[0])
		if err != nil {
			return false, err
		}
		return false, a.setStatus(cmd, id, models.Status(args[1]))
	case "delete", "rm":
		if len(args) != 1 {
			return false, errors.New("usage: delete <id>")
		}
		id, err := parseID(args[0])
		if err != nil {
			return false, err
		}
		if err = a.deleteTask(cmd, id); err != nil {
			return false, err
		}
		a.showList()
	default:
		return false, fmt.Errorf("unknown command %q, try help", name)
	}

	return false, nil
}

func (a *app) showList() {
	state := a.list.Snapshot()

	fmt.Fprintf(a.out, "sorted by %s %s", state.Sort.Field, state.Sort.Order)
	if len(state.Filters) > 0 {
		fmt.Fprintf(a.out, ", filtered by %v", state.Filters)
	}
	fmt.Fprintln(a.out)

	printTasks(a.out, a.loc, state.Tasks)
}

// shellCreate submits a create form. The saved task is spliced into the held
// list and the list is shown again without a reload.
func (a *app) shellCreate(ctx context.Context, args []string) error {
	var tf taskFlags
	flags := shellFlags("create")
	tf.register(flags, models.TaskTypeCall)
	if err := parseShellFlags(a.out, flags, args); err != nil {
		return err
	}

	if _, err := a.createTask(ctx, &tf, flags, a.showList); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Task created.")
	return nil
}

// shellEdit edits a held task in place. A task not held yet is fetched first.
func (a *app) shellEdit(ctx context.Context, id int, args []string) error {
	var tf taskFlags
	flags := shellFlags("edit")
	tf.register(flags, "")
	tf.registerStatus(flags)
	if err := parseShellFlags(a.out, flags, args); err != nil {
		return err
	}

	task, ok := a.heldTask(id)
	if !ok {
		var err error
		if task, err = a.gateway.Get(ctx, id); err != nil {
			return fmt.Errorf("failed to load task %d: %w", id, err)
		}
	}

	if _, err := a.editTask(ctx, task, &tf, flags, a.showList); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Task saved.")
	return nil
}

func (a *app) heldTask(id int) (models.Task, bool) {
	for _, task := range a.list.Tasks() {
		if task.ID == id {
			return task, true
		}
	}
	return models.Task{}, false
}

func shellFlags(name string) *pflag.FlagSet {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	return flags
}

func parseShellFlags(out io.Writer, flags *pflag.FlagSet, args []string) error {
	err := flags.Parse(args)
	if errors.Is(err, pflag.ErrHelp) {
		fmt.Fprint(out, flags.FlagUsages())
		return errShellHelp
	}
	if err != nil {
		return err
	}
	if flags.NArg() > 0 {
		return fmt.Errorf("unexpected arguments %q", flags.Args())
	}
	return nil
}

// splitArgs splits a shell line on spaces. Single or double quotes group words;
// a backslash escapes the next character outside single quotes.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)

	for _, r := range line {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped, inWord = true, true
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			current.WriteRune(r)
		case r == '"' || r == '\'':
			quote, inWord = r, true
		case unicode.IsSpace(r):
			if inWord {
				args = append(args, current.String())
				current.Reset()
				inWord = false
			}
		default:
			current.WriteRune(r)
			inWord = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if escaped {
		return nil, errors.New("line ends with a backslash")
	}
	if inWord {
		args = append(args, current.String())
	}

	return args, nil
}
