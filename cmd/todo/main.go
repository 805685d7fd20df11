package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/pflag"
	"github.com/todo-backend/internal/localstore"
	"github.com/todo-backend/internal/model"
)

const usage = `Usage: todo <command> [flags]

Commands:
  add <description>   Add a new task
  list                List tasks (pending only by default)
  done <id>           Mark a task as completed
  rm <id>             Remove a task

Flags:
  -a, --all           Include completed tasks in list output
  -f, --file PATH     Task file (default ~/.todo-cli/tasks.json)
`

func main() {
	flags := pflag.NewFlagSet("todo", pflag.ExitOnError)
	all := flags.BoolP("all", "a", false, "include completed tasks")
	file := flags.StringP("file", "f", "", "task file path")
	flags.Usage = func() { fmt.Fprint(os.Stderr, usage) }

	if len(os.Args) < 2 {
		flags.Usage()
		os.Exit(2)
	}

	command := os.Args[1]
	if err := flags.Parse(os.Args[2:]); err != nil {
		fatal(err)
	}

	path := *file
	if path == "" {
		var err error
		path, err = localstore.DefaultPath()
		if err != nil {
			fatal(err)
		}
	}

	store, err := localstore.Open(path)
	if err != nil {
		fatal(err)
	}

	switch command {
	case "add":
		runAdd(store, flags.Args())
	case "list":
		runList(store, *all)
	case "done":
		runDone(store, flags.Args())
	case "rm":
		runRemove(store, flags.Args())
	default:
		flags.Usage()
		os.Exit(2)
	}
}

func runAdd(store *localstore.Store, args []string) {
	if len(args) == 0 {
		fatal(fmt.Errorf("%w: add needs a description", model.ErrInvalidInput))
	}
	item, err := store.Add(args[0])
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Added task %d: %s\n", item.ID, item.Description)
}

func runList(store *localstore.Store, all bool) {
	items := store.List(all)
	if len(items) == 0 {
		fmt.Println("No tasks.")
		return
	}
	for _, item := range items {
		mark := " "
		if item.Completed {
			mark = "x"
		}
		fmt.Printf("[%s] %3d  %s\n", mark, item.ID, item.Description)
	}
}

func runDone(store *localstore.Store, args []string) {
	id := parseID(args)
	item, err := store.Complete(id)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Completed task %d: %s\n", item.ID, item.Description)
}

func runRemove(store *localstore.Store, args []string) {
	id := parseID(args)
	if err := store.Remove(id); err != nil {
		fatal(err)
	}
	fmt.Printf("Removed task %d\n", id)
}

func parseID(args []string) int64 {
	if len(args) == 0 {
		fatal(fmt.Errorf("%w: a task id is required", model.ErrInvalidInput))
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		fatal(fmt.Errorf("%w: %q is not a task id", model.ErrInvalidInput, args[0]))
	}
	return id
}

func fatal(err error) {
	if errors.Is(err, model.ErrNotFound) {
		fmt.Fprintln(os.Stderr, "Error: no such task")
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(1)
}
