package program

import "github.com/BobWall23/davenport/pkg/db"

// Command is a single primitive database action. The set is closed: the
// interpreter dispatches over exactly these variants. A command carries only
// the data needed to execute it, never a backend reference.
type Command interface {
	isCommand()
}

type GetCommand struct {
	Key db.Key
}

type CreateCommand struct {
	Key     db.Key
	Content db.RawContent
}

type UpdateCommand struct {
	Key     db.Key
	Content db.RawContent
	Cas     db.Cas
}

type RemoveCommand struct {
	Key db.Key
}

type CounterCommand struct {
	Key db.Key
}

type IncrementCommand struct {
	Key   db.Key
	Delta int64
}

func (GetCommand) isCommand()       {}
func (CreateCommand) isCommand()    {}
func (UpdateCommand) isCommand()    {}
func (RemoveCommand) isCommand()    {}
func (CounterCommand) isCommand()   {}
func (IncrementCommand) isCommand() {}
